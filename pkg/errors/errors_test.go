package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsCodeThroughWrapping(t *testing.T) {
	base := New(CodeNotFound, "node not found")
	wrapped := fmt.Errorf("delete node: %w", base)

	assert.True(t, IsCode(wrapped, CodeNotFound))
	assert.False(t, IsCode(wrapped, CodeConflict))
	assert.Equal(t, CodeNotFound, CodeOf(wrapped))
	assert.Equal(t, CodeUnknown, CodeOf(fmt.Errorf("plain")))
}

func TestWithItemsKeepsList(t *testing.T) {
	items := []string{"Node 3: missing content", "Connection 2: unknown target node_x"}
	err := WithItems(CodeImportSchema, "import rejected", items)

	require.Equal(t, items, err.Items())
	assert.Equal(t, "import_schema_error: import rejected", err.Error())
}

func TestItemsOfWrapped(t *testing.T) {
	err := fmt.Errorf("seed robo: %w", WithItems(CodeImportSchema, "import rejected", []string{"Node 1: missing role"}))
	assert.Equal(t, []string{"Node 1: missing role"}, ItemsOf(err))
	assert.Nil(t, ItemsOf(fmt.Errorf("plain")))
}

func TestItemsOnNil(t *testing.T) {
	var e *AppError
	assert.Nil(t, e.Items())
	assert.Equal(t, "<nil>", e.Error())
}

func TestKindMeta(t *testing.T) {
	err := New(CodeConflict, "flow already has an initial node").WithMeta(MetaKind, "MultipleInitialNodes")
	assert.Equal(t, "MultipleInitialNodes", err.Kind())
	assert.Empty(t, New(CodeInvalid, "bad").Kind())
}
