package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/logger"
)

func TestSpanTree(t *testing.T) {
	ctx := logger.WithRequestID(context.Background(), "req-1")

	ctx, root := Start(ctx, "rebuild")
	assert.Equal(t, "req-1", root.TraceID)
	assert.Same(t, root, FromContext(ctx))

	_, scan := Start(ctx, "scan")
	scan.SetAttr("items", 3)
	scan.End()
	_, idx := Start(ctx, "index")
	idx.End()
	root.End()

	require.Len(t, root.children, 2)
	assert.Equal(t, "req-1", scan.TraceID)
	assert.Equal(t, []any{"items", 3}, scan.attrs)
	assert.GreaterOrEqual(t, root.Duration, scan.Duration)
}

func TestFromContextEmpty(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))
}
