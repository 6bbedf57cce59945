package repl

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistory_AddAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), BaseHistory)

	h := NewHistory(path)
	require.NoError(t, h.Load())
	assert.Equal(t, 0, h.Len())

	require.NoError(t, h.Add("x = 1"))
	require.NoError(t, h.Add("def f(x)\n  x * 2\nend"))
	require.NoError(t, h.Add("  "))
	require.NoError(t, h.Add(":vars"))
	require.NoError(t, h.Add(":vars"))

	want := []string{"x = 1", "def f(x)\n  x * 2\nend", ":vars"}
	assert.Equal(t, want, h.Entries())

	reloaded := NewHistory(path)
	require.NoError(t, reloaded.Load())
	assert.Equal(t, want, reloaded.Entries())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "x = 1\n\"def f(x)\\n  x * 2\\nend\"\n:vars\n", string(data))
}

func TestHistory_MovesDuplicateToEnd(t *testing.T) {
	path := filepath.Join(t.TempDir(), BaseHistory)

	h := NewHistory(path)
	require.NoError(t, h.Add("a"))
	require.NoError(t, h.Add("b"))
	require.NoError(t, h.Add("a"))

	assert.Equal(t, []string{"b", "a"}, h.Entries())

	reloaded := NewHistory(path)
	require.NoError(t, reloaded.Load())
	assert.Equal(t, []string{"b", "a"}, reloaded.Entries())
}

func TestHistory_Get(t *testing.T) {
	h := NewHistory("")
	require.NoError(t, h.Add("1 + 1"))

	got, err := h.Get(0)
	require.NoError(t, err)
	assert.Equal(t, "1 + 1", got)

	_, err = h.Get(1)
	assert.ErrorIs(t, err, ErrOutOfBounds)

	_, err = h.Get(-1)
	assert.ErrorIs(t, err, ErrOutOfBounds)
}
