package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

type staticTool struct {
	name string
}

func (t *staticTool) Name() string            { return t.name }
func (t *staticTool) Description() string     { return "static test tool" }
func (t *staticTool) Schema() json.RawMessage { return json.RawMessage(`{"type":"object"}`) }
func (t *staticTool) Run(context.Context, string) (string, error) {
	return "ok", nil
}

func TestManager_RegisterAndGet(t *testing.T) {
	m := NewManager()
	tool := &staticTool{name: "alpha"}
	m.Register(tool)

	got, err := m.Get("alpha")
	require.NoError(t, err)
	require.Same(t, Tool(tool), got)

	_, err = m.Get("beta")
	require.Error(t, err)
}

func TestManager_List(t *testing.T) {
	m := NewManager()
	require.Empty(t, m.List())

	m.Register(&staticTool{name: "alpha"})
	m.Register(&staticTool{name: "beta"})
	require.Len(t, m.List(), 2)

	// Re-registering the same name replaces, not duplicates.
	m.Register(&staticTool{name: "alpha"})
	require.Len(t, m.List(), 2)
}
