// Package consumer applies item change events from the Kafka feed to the
// indexer. Each event either upserts one item, indexes a whole tree as a new
// root, or clears the index.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/item"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/metrics"
)

const (
	OpUpsert = "upsert"
	OpTree   = "tree"
	OpClear  = "clear"
)

// ItemEvent is the JSON message carried on the items topic. Item is ignored
// for OpClear.
type ItemEvent struct {
	Op   string       `json:"op"`
	Item *ItemPayload `json:"item,omitempty"`
}

// ItemPayload is the wire form of an item. Folder selects the variant;
// Type, Size and Content only apply to documents and Children only to
// folders.
type ItemPayload struct {
	Path     string        `json:"path"`
	Modified time.Time     `json:"modified"`
	Folder   bool          `json:"folder,omitempty"`
	Type     string        `json:"type,omitempty"`
	Size     *int64        `json:"size,omitempty"`
	Content  string        `json:"content,omitempty"`
	Children []ItemPayload `json:"children,omitempty"`
}

var errMissingPath = errors.New("item payload has no path")

// ToItem converts p and its descendants into the item model.
func (p ItemPayload) ToItem() (item.Item, error) {
	if p.Path == "" {
		return nil, errMissingPath
	}
	if !p.Folder {
		opts := []item.DocumentOption{item.WithType(p.Type), item.WithContent(p.Content)}
		if p.Size != nil {
			opts = append(opts, item.WithSize(*p.Size))
		}
		return item.NewDocument(p.Path, p.Modified, opts...), nil
	}
	children := make([]item.Item, 0, len(p.Children))
	for _, c := range p.Children {
		child, err := c.ToItem()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p.Path, err)
		}
		children = append(children, child)
	}
	return item.NewFolder(p.Path, p.Modified, children...), nil
}

// FromItem is the inverse of ToItem.
func FromItem(it item.Item) ItemPayload {
	meta := it.Info()
	p := ItemPayload{Path: meta.Path, Modified: meta.Modified}
	switch v := it.(type) {
	case *item.Folder:
		p.Folder = true
		p.Children = make([]ItemPayload, 0, len(v.Children))
		for _, c := range v.Children {
			if c != nil {
				p.Children = append(p.Children, FromItem(c))
			}
		}
	case *item.Document:
		p.Type = v.Type
		p.Size = v.Size
		p.Content = v.Content
	}
	return p
}

// TreeEvent builds the event that indexes root as a new searchable root.
func TreeEvent(root *item.Folder) kafka.Event {
	p := FromItem(root)
	return kafka.Event{Key: root.ID, Value: ItemEvent{Op: OpTree, Item: &p}}
}

// ClearEvent builds the event that empties every consumer's index.
func ClearEvent() kafka.Event {
	return kafka.Event{Key: OpClear, Value: ItemEvent{Op: OpClear}}
}

// HandleMessage returns a kafka.MessageHandler that applies events to ix.
// Malformed events are logged and skipped so they do not block the
// partition. m may be nil.
func HandleMessage(ix *indexer.Indexer, m *metrics.Metrics) kafka.MessageHandler {
	logger := slog.Default().With("component", "item-consumer")
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[ItemEvent](value)
		if err != nil {
			logger.Error("failed to decode item event", "error", err, "key", string(key))
			m.FeedEvent("unknown", "invalid")
			return nil
		}

		if event.Op == OpClear {
			ix.Clear()
			m.FeedEvent(event.Op, "applied")
			logger.Info("index cleared by feed")
			return nil
		}
		if event.Op != OpUpsert && event.Op != OpTree {
			logger.Warn("unknown item event op", "op", event.Op, "key", string(key))
			m.FeedEvent("unknown", "invalid")
			return nil
		}
		if event.Item == nil {
			logger.Error("item event without item", "op", event.Op, "key", string(key))
			m.FeedEvent(event.Op, "invalid")
			return nil
		}
		it, err := event.Item.ToItem()
		if err != nil {
			logger.Error("invalid item payload", "op", event.Op, "error", err)
			m.FeedEvent(event.Op, "invalid")
			return nil
		}

		switch event.Op {
		case OpUpsert:
			ix.IndexItem(it)
		case OpTree:
			folder, ok := it.(*item.Folder)
			if !ok {
				logger.Error("tree event carries a document", "path", event.Item.Path)
				m.FeedEvent(event.Op, "invalid")
				return nil
			}
			if err := ix.IndexFolder(ctx, folder); err != nil {
				m.FeedEvent(event.Op, "failed")
				return fmt.Errorf("indexing tree %s: %w", folder.Path, err)
			}
		}
		m.FeedEvent(event.Op, "applied")
		logger.Debug("item event applied", "op", event.Op, "path", event.Item.Path)
		return nil
	}
}
