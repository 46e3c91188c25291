// Package filter decides which items a query may return: type tags,
// modification date range, size range, and which surfaces (filename,
// content) contribute to scoring.
package filter

import (
	"slices"
	"time"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/item"
)

// Filter restricts search results. Zero-valued bounds and an empty Types list
// impose no restriction. All bounds are inclusive.
type Filter struct {
	Types            []string   `json:"types,omitempty"`
	ModifiedFrom     *time.Time `json:"modified_from,omitempty"`
	ModifiedTo       *time.Time `json:"modified_to,omitempty"`
	MinSize          *int64     `json:"min_size,omitempty"`
	MaxSize          *int64     `json:"max_size,omitempty"`
	IncludeFilenames bool       `json:"include_filenames"`
	IncludeContent   bool       `json:"include_content"`
}

// Default searches filenames and content with no restrictions.
func Default() Filter {
	return Filter{IncludeFilenames: true, IncludeContent: true}
}

// Allows reports whether it passes the type, date and size restrictions.
func (f Filter) Allows(it item.Item) bool {
	meta := it.Info()
	if f.ModifiedFrom != nil && meta.Modified.Before(*f.ModifiedFrom) {
		return false
	}
	if f.ModifiedTo != nil && meta.Modified.After(*f.ModifiedTo) {
		return false
	}

	switch v := it.(type) {
	case *item.Folder:
		// Folders carry no type tag and are never excluded by size.
		return len(f.Types) == 0
	case *item.Document:
		if len(f.Types) > 0 && !slices.Contains(f.Types, v.Type) {
			return false
		}
		if v.Size != nil {
			if f.MinSize != nil && *v.Size < *f.MinSize {
				return false
			}
			if f.MaxSize != nil && *v.Size > *f.MaxSize {
				return false
			}
		}
		return true
	default:
		return false
	}
}
