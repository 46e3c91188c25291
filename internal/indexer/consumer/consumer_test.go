package consumer

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/item"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/metrics"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*indexer.Indexer, *metrics.Metrics) {
	t.Helper()
	m := metrics.New(prometheus.NewRegistry())
	return indexer.New(index.NewStore(), config.IndexerConfig{Workers: 2}, m), m
}

func encode(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func sampleTree() *item.Folder {
	return item.NewFolder("/vault", epoch,
		item.NewDocument("/vault/notes.md", epoch,
			item.WithType("markdown"),
			item.WithSize(22),
			item.WithContent("machine learning notes"),
		),
		item.NewFolder("/vault/img", epoch,
			item.NewDocument("/vault/img/photo.png", epoch, item.WithType("image")),
		),
	)
}

func TestPayloadRoundTrip(t *testing.T) {
	root := sampleTree()

	var decoded ItemPayload
	require.NoError(t, json.Unmarshal(encode(t, FromItem(root)), &decoded))
	it, err := decoded.ToItem()
	require.NoError(t, err)

	folder, ok := it.(*item.Folder)
	require.True(t, ok)
	assert.Equal(t, root.ID, folder.ID)
	assert.Equal(t, "vault", folder.Name)
	require.Len(t, folder.Children, 2)

	doc, ok := folder.Children[0].(*item.Document)
	require.True(t, ok)
	assert.Equal(t, "markdown", doc.Type)
	require.NotNil(t, doc.Size)
	assert.Equal(t, int64(22), *doc.Size)
	assert.Equal(t, "machine learning notes", doc.Content)
	assert.True(t, doc.Modified.Equal(epoch))

	photo := folder.Children[1].(*item.Folder).Children[0].(*item.Document)
	assert.Nil(t, photo.Size)
}

func TestToItemRequiresPath(t *testing.T) {
	_, err := ItemPayload{Folder: true, Path: "/r", Children: []ItemPayload{{}}}.ToItem()
	assert.ErrorIs(t, err, errMissingPath)
}

func TestHandleTreeEvent(t *testing.T) {
	ix, m := setup(t)
	handle := HandleMessage(ix, m)

	event := TreeEvent(sampleTree())
	require.NoError(t, handle(context.Background(), []byte(event.Key), encode(t, event.Value)))

	assert.Equal(t, 4, ix.Store().Len())
	assert.True(t, ix.Store().HasRoot())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FeedEventsTotal.WithLabelValues(OpTree, "applied")))
}

func TestHandleUpsertDoesNotMarkRoot(t *testing.T) {
	ix, m := setup(t)
	handle := HandleMessage(ix, m)

	p := FromItem(item.NewDocument("/loose.txt", epoch, item.WithContent("hello")))
	require.NoError(t, handle(context.Background(), nil, encode(t, ItemEvent{Op: OpUpsert, Item: &p})))

	assert.Equal(t, 1, ix.Store().Len())
	assert.False(t, ix.Store().HasRoot())
}

func TestHandleClearEvent(t *testing.T) {
	ix, m := setup(t)
	handle := HandleMessage(ix, m)
	require.NoError(t, ix.IndexFolder(context.Background(), sampleTree()))

	event := ClearEvent()
	require.NoError(t, handle(context.Background(), []byte(event.Key), encode(t, event.Value)))

	assert.Zero(t, ix.Store().Len())
	assert.False(t, ix.Store().HasRoot())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FeedEventsTotal.WithLabelValues(OpClear, "applied")))
}

func TestHandleSkipsInvalidEvents(t *testing.T) {
	ix, m := setup(t)
	handle := HandleMessage(ix, m)
	doc := FromItem(item.NewDocument("/a.txt", epoch))

	cases := map[string][]byte{
		"not json":       []byte("{"),
		"unknown op":     encode(t, ItemEvent{Op: "rename", Item: &doc}),
		"missing item":   encode(t, ItemEvent{Op: OpUpsert}),
		"missing path":   encode(t, ItemEvent{Op: OpUpsert, Item: &ItemPayload{}}),
		"tree of a file": encode(t, ItemEvent{Op: OpTree, Item: &doc}),
	}
	for name, value := range cases {
		t.Run(name, func(t *testing.T) {
			assert.NoError(t, handle(context.Background(), nil, value))
		})
	}

	assert.Zero(t, ix.Store().Len())
	assert.Equal(t, 2.0, testutil.ToFloat64(m.FeedEventsTotal.WithLabelValues("unknown", "invalid")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.FeedEventsTotal.WithLabelValues(OpUpsert, "invalid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FeedEventsTotal.WithLabelValues(OpTree, "invalid")))
}

func TestHandleTreeCancelledIsRetried(t *testing.T) {
	ix, m := setup(t)
	handle := HandleMessage(ix, m)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	event := TreeEvent(sampleTree())
	err := handle(ctx, nil, encode(t, event.Value))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, ix.Store().Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FeedEventsTotal.WithLabelValues(OpTree, "failed")))
}
