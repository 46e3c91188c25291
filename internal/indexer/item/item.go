// Package item models the tree of folders and documents that the indexer
// consumes. Items are owned by whoever built the tree; the index only keeps
// references to them.
package item

import (
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// idNamespace scopes name-based item IDs so they never collide with UUIDs
// derived for other purposes.
var idNamespace = uuid.MustParse("6f1c2a4e-9b7d-5e3f-8a21-4c0d9e7b3f52")

// NewID derives a stable identifier from an item's path. The same cleaned
// path always yields the same ID across scans (RFC 4122 version 5).
func NewID(path string) string {
	return uuid.NewSHA1(idNamespace, []byte(filepath.Clean(path))).String()
}

// Item is either a *Folder or a *Document.
type Item interface {
	Info() Meta
	isItem()
}

// Meta is the identity and display data shared by every item.
type Meta struct {
	ID       string
	Name     string
	Path     string
	Modified time.Time
}

// Info returns the item's metadata.
func (m Meta) Info() Meta { return m }

// Folder is a container item.
type Folder struct {
	Meta
	Children []Item
}

func (*Folder) isItem() {}

// Document is a leaf item. Type is a tag such as "markdown"; an empty Type
// means the collaborator could not classify it. Size is nil when unknown.
type Document struct {
	Meta
	Type    string
	Size    *int64
	Content string
}

func (*Document) isItem() {}

func newMeta(path string, modified time.Time) Meta {
	return Meta{
		ID:       NewID(path),
		Name:     filepath.Base(path),
		Path:     path,
		Modified: modified,
	}
}

// NewFolder builds a folder whose ID and name derive from path.
func NewFolder(path string, modified time.Time, children ...Item) *Folder {
	return &Folder{Meta: newMeta(path, modified), Children: children}
}

// DocumentOption customises a Document built by NewDocument.
type DocumentOption func(*Document)

// WithType sets the document type tag.
func WithType(tag string) DocumentOption {
	return func(d *Document) { d.Type = tag }
}

// WithSize records the document size in bytes.
func WithSize(size int64) DocumentOption {
	return func(d *Document) { d.Size = &size }
}

// WithContent attaches extracted text.
func WithContent(text string) DocumentOption {
	return func(d *Document) { d.Content = text }
}

// NewDocument builds a document whose ID and name derive from path.
func NewDocument(path string, modified time.Time, opts ...DocumentOption) *Document {
	d := &Document{Meta: newMeta(path, modified)}
	for _, opt := range opts {
		opt(d)
	}
	return d
}
