// Package index holds the in-memory inverted index: entries by item ID,
// filename and content postings, and the item reference cache. All mutation
// goes through Store so the maps always change together.
package index

import (
	"sync"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/item"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/tokenizer"
)

type Store struct {
	mu         sync.RWMutex
	entries    map[string]*Entry
	filename   postings
	content    postings
	items      map[string]item.Item
	roots      map[string]struct{}
	generation uint64
}

// Stats summarises the size of a Store.
type Stats struct {
	Entries       int    `json:"entries"`
	FilenameTerms int    `json:"filename_terms"`
	ContentTerms  int    `json:"content_terms"`
	Roots         int    `json:"roots"`
	Generation    uint64 `json:"generation"`
}

func NewStore() *Store {
	s := &Store{}
	s.reset()
	return s
}

func (s *Store) reset() {
	s.entries = make(map[string]*Entry)
	s.filename = make(postings)
	s.content = make(postings)
	s.items = make(map[string]item.Item)
	s.roots = make(map[string]struct{})
}

// Put merges staged entries under a single write lock. An entry replaces any
// previous entry for the same item ID, and postings for terms the previous
// entry had but the new one lacks are retracted.
func (s *Store) Put(batch ...Staged) {
	if len(batch) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putAll(batch)
	s.generation++
}

// PutTree merges batch and records rootID as an indexed root under the same
// write lock, so no reader sees the tree without its root.
func (s *Store) PutTree(rootID string, batch ...Staged) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putAll(batch)
	s.roots[rootID] = struct{}{}
	s.generation++
}

// Replace discards the current contents and installs batch rooted at rootID
// in one step. Readers observe either the old index or the new one.
func (s *Store) Replace(rootID string, batch ...Staged) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
	s.putAll(batch)
	s.roots[rootID] = struct{}{}
	s.generation++
}

func (s *Store) putAll(batch []Staged) {
	for _, st := range batch {
		s.put(st)
	}
}

func (s *Store) put(st Staged) {
	e := st.Entry
	if old, ok := s.entries[e.ItemID]; ok {
		retract(s.filename, old.NameTokens, e.NameTokens, e.ItemID)
		retract(s.content, old.Tokens, e.Tokens, e.ItemID)
	}
	s.entries[e.ItemID] = e
	s.items[e.ItemID] = st.Item
	for term := range e.NameTokens {
		s.filename.add(term, e.ItemID)
	}
	for term := range e.Tokens {
		s.content.add(term, e.ItemID)
	}
}

func retract(p postings, previous, current tokenizer.Set, id string) {
	for term := range previous {
		if !current.Has(term) {
			p.remove(term, id)
		}
	}
}

func (s *Store) HasRoot() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.roots) > 0
}

// Clear drops every entry, posting, cached item and root at once.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
	s.generation++
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Generation changes every time the store is mutated.
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{
		Entries:       len(s.entries),
		FilenameTerms: len(s.filename),
		ContentTerms:  len(s.content),
		Roots:         len(s.roots),
		Generation:    s.generation,
	}
}

// View runs fn with a read-only transaction. No mutation can interleave with
// fn, so everything it reads belongs to one consistent state.
func (s *Store) View(fn func(tx *Tx)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(&Tx{s: s})
}
