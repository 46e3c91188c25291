package index

import (
	"sort"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/item"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/tokenizer"
)

// Tx is a read view of a Store, valid only inside the View callback that
// produced it.
type Tx struct {
	s *Store
}

func (tx *Tx) HasRoot() bool {
	return len(tx.s.roots) > 0
}

func (tx *Tx) Len() int {
	return len(tx.s.entries)
}

func (tx *Tx) Entry(id string) (*Entry, bool) {
	e, ok := tx.s.entries[id]
	return e, ok
}

func (tx *Tx) Item(id string) (item.Item, bool) {
	it, ok := tx.s.items[id]
	return it, ok
}

// Candidates returns the union of filename and content postings for every
// term.
func (tx *Tx) Candidates(terms tokenizer.Set) map[string]struct{} {
	result := make(map[string]struct{})
	for term := range terms {
		for id := range tx.s.filename[term] {
			result[id] = struct{}{}
		}
		for id := range tx.s.content[term] {
			result[id] = struct{}{}
		}
	}
	return result
}

// AllIDs returns every indexed item ID.
func (tx *Tx) AllIDs() map[string]struct{} {
	result := make(map[string]struct{}, len(tx.s.entries))
	for id := range tx.s.entries {
		result[id] = struct{}{}
	}
	return result
}

// filenamePostings returns the IDs whose name contains term, sorted.
func (tx *Tx) filenamePostings(term string) []string {
	return sortedIDs(tx.s.filename[term])
}

// contentPostings returns the IDs whose content or name contains term,
// sorted.
func (tx *Tx) contentPostings(term string) []string {
	return sortedIDs(tx.s.content[term])
}

// Items returns every cached item ordered by ID.
func (tx *Tx) Items() []item.Item {
	ids := make([]string, 0, len(tx.s.items))
	for id := range tx.s.items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	result := make([]item.Item, 0, len(ids))
	for _, id := range ids {
		result = append(result, tx.s.items[id])
	}
	return result
}

func sortedIDs(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
