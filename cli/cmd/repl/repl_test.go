package repl

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardnew/calc/lang"
	"github.com/ardnew/calc/log"
)

func newTestModel(t *testing.T) model {
	t.Helper()

	m, err := newModel(t.Context(), Config{})
	require.NoError(t, err)

	return m
}

func press(t *testing.T, m model, msg tea.KeyMsg) model {
	t.Helper()

	next, _ := m.Update(msg)

	nm, ok := next.(model)
	require.True(t, ok)

	return nm
}

// enter submits line as if typed and followed by Enter.
func enter(t *testing.T, m model, line string) model {
	t.Helper()

	m.input.SetValue(line)
	m.input.SetCursor(len(line))

	return press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
}

func lookup(t *testing.T, m model, name string) float64 {
	t.Helper()

	f, ok := m.interp.Env().Lookup(name)
	require.True(t, ok, "variable %s undefined", name)

	return f
}

func TestModel_PersistsAcrossEntries(t *testing.T) {
	m := newTestModel(t)

	m = enter(t, m, "x = 2")
	m = enter(t, m, "y = x * 3")

	assert.InDelta(t, 6.0, lookup(t, m, "y"), 0)
	assert.Equal(t, []string{"x = 2", "y = x * 3"}, m.history.Entries())
}

func TestModel_MultiLineEntry(t *testing.T) {
	m := newTestModel(t)

	m = enter(t, m, "def f(x)")
	assert.Len(t, m.pending, 1)

	m = enter(t, m, "  x * 2")
	assert.Len(t, m.pending, 2)

	m = enter(t, m, "end")
	assert.Empty(t, m.pending)

	_, ok := m.interp.Env().Function("f")
	require.True(t, ok)

	m = enter(t, m, "y = f(4)")
	assert.InDelta(t, 8.0, lookup(t, m, "y"), 0)

	assert.Equal(t, "def f(x)\n  x * 2\nend", m.history.Entries()[0])
}

func TestModel_EscapeDiscardsPending(t *testing.T) {
	m := newTestModel(t)

	m = enter(t, m, "if 1")
	require.Len(t, m.pending, 1)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Empty(t, m.pending)

	m = enter(t, m, "z = 5")
	assert.InDelta(t, 5.0, lookup(t, m, "z"), 0)
}

func TestModel_ErrorsDoNotPend(t *testing.T) {
	m := newTestModel(t)

	m = enter(t, m, "1 + * 2")
	assert.Empty(t, m.pending)

	m = enter(t, m, "undefined_name")
	assert.Empty(t, m.pending)
	assert.Equal(t, 2, m.history.Len())
}

func TestModel_Commands(t *testing.T) {
	m := newTestModel(t)

	m = enter(t, m, "a = 1; def g() 2 end")
	assert.Contains(t, m.listVariables(), "a = ")
	assert.Contains(t, m.listFunctions(), "g()")
	assert.Contains(t, m.listFunctions(), "puts(...x)")

	m = enter(t, m, ":reset")
	assert.Empty(t, m.interp.Env().Variables())

	_, ok := m.interp.Env().Function("g")
	assert.False(t, ok)

	m = enter(t, m, ":bogus")
	assert.False(t, m.quitting)

	m = enter(t, m, ":quit")
	assert.True(t, m.quitting)
	assert.Empty(t, m.View())
}

func TestModel_CapturesOutput(t *testing.T) {
	m := newTestModel(t)

	m = enter(t, m, "puts(1, 2)")
	assert.Empty(t, m.out.String(), "output is flushed after each entry")
}

func TestModel_Preload(t *testing.T) {
	m, err := newModel(t.Context(), Config{
		Preload: func(ctx context.Context, in *lang.Interpreter) error {
			_, err := in.Run(ctx, "puts(7); z = 1")

			return err
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "7", m.banner)
	assert.InDelta(t, 1.0, lookup(t, m, "z"), 0)
}

func TestModel_PreloadError(t *testing.T) {
	boom := errors.New("boom")

	_, err := newModel(t.Context(), Config{
		Preload: func(context.Context, *lang.Interpreter) error { return boom },
	})
	assert.ErrorIs(t, err, boom)
}

func TestModel_TabCycle(t *testing.T) {
	m := newTestModel(t)
	m = enter(t, m, "alpha = 1; alps = 2")

	m = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("al")})
	require.Len(t, m.matches, 2)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.True(t, m.tabActive)

	first := m.input.Value()
	assert.Contains(t, []string{"alpha", "alps"}, first)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.NotEqual(t, first, m.input.Value())

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.tabActive)
	assert.Equal(t, "al", m.input.Value())
}

func TestModel_HistoryNavigation(t *testing.T) {
	m := newTestModel(t)

	m = enter(t, m, "x = 1")
	m = enter(t, m, "def f(x)")
	m = enter(t, m, "x * 2")
	m = enter(t, m, "end")

	m = press(t, m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, "def f(x); x * 2; end", m.input.Value())

	m = press(t, m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, "x = 1", m.input.Value())

	m = press(t, m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, "x = 1", m.input.Value())

	m = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Empty(t, m.input.Value())
}

func TestModel_View(t *testing.T) {
	m := newTestModel(t)
	assert.Contains(t, m.View(), "Type a statement")

	m = enter(t, m, "def area(w, h) w * h end")

	m.input.SetValue("area(2, ")
	m.input.SetCursor(len("area(2, "))
	m.matches = nil

	view := m.View()
	assert.Contains(t, view, "area")
	assert.Contains(t, view, "h")
}

func TestOneLine(t *testing.T) {
	tests := []struct {
		entry string
		want  string
	}{
		{"x = 1", "x = 1"},
		{"def f(x)\n  x * 2\nend", "def f(x); x * 2; end"},
		{"1 +\n", "1 +;"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, oneLine(t.Context(), tt.entry))
		})
	}
}

func TestModel_HistoryWriteFailureIsLogged(t *testing.T) {
	// A regular file where the history directory should be makes every
	// write fail.
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))

	var logs bytes.Buffer

	m, err := newModel(t.Context(), Config{
		History: NewHistory(filepath.Join(blocker, BaseHistory)),
		Logger:  log.Make(&logs, log.WithFormat(log.FormatText), log.WithPretty(false)),
	})
	require.NoError(t, err)

	m = enter(t, m, "x = 1")
	m = enter(t, m, ":vars")

	assert.InDelta(t, 1.0, lookup(t, m, "x"), 0, "evaluation is unaffected")
	assert.Equal(t, []string{"x = 1", ":vars"}, m.history.Entries())
	assert.Equal(t, 2, m.historyIdx)

	out := logs.String()
	assert.Contains(t, out, "could not save history")
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, blocker)
}
