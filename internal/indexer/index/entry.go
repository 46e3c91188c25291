package index

import (
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/item"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/tokenizer"
)

// Entry is the indexed form of one item.
type Entry struct {
	ItemID      string
	Name        string
	Path        string
	IsContainer bool
	Content     string
	// Tokens covers content and name; NameTokens covers the name alone.
	Tokens     tokenizer.Set
	NameTokens tokenizer.Set
}

// Staged pairs an entry with the item it was built from, ready to be merged
// into a Store.
type Staged struct {
	Entry *Entry
	Item  item.Item
}

// Build tokenizes an item into a staged entry. Folders carry no content.
func Build(it item.Item) Staged {
	meta := it.Info()
	var content string
	isContainer := false
	switch v := it.(type) {
	case *item.Folder:
		isContainer = true
	case *item.Document:
		content = v.Content
	}
	return Staged{
		Entry: &Entry{
			ItemID:      meta.ID,
			Name:        meta.Name,
			Path:        meta.Path,
			IsContainer: isContainer,
			Content:     content,
			Tokens:      tokenizer.Tokenize(content + " " + meta.Name),
			NameTokens:  tokenizer.Tokenize(meta.Name),
		},
		Item: it,
	}
}

// postings is an inverted map from term to the set of item IDs carrying it.
type postings map[string]map[string]struct{}

func (p postings) add(term, id string) {
	ids, ok := p[term]
	if !ok {
		ids = make(map[string]struct{})
		p[term] = ids
	}
	ids[id] = struct{}{}
}

func (p postings) remove(term, id string) {
	ids, ok := p[term]
	if !ok {
		return
	}
	delete(ids, id)
	if len(ids) == 0 {
		delete(p, term)
	}
}
