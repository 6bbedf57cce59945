package lang

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterpreter_Persistence(t *testing.T) {
	var out bytes.Buffer

	in := NewInterpreter(WithOutput(&out))

	steps := []struct {
		source string
		want   string
	}{
		{"x = 2", "2"},
		{"def sq(n) n * n end", "nil"},
		{"sq(x) + 1", "5"},
		{"puts(sq(3))", "nil"},
		{"x", "2"},
	}

	for _, step := range steps {
		v, err := in.Run(t.Context(), step.source)
		require.NoError(t, err, step.source)
		assert.Equal(t, step.want, v.String(), step.source)
	}

	assert.Equal(t, "9\n", out.String())
	assert.Equal(t, []string{"x"}, in.Env().Variables())
}

func TestInterpreter_Reset(t *testing.T) {
	in := NewInterpreter()

	_, err := in.Run(t.Context(), "y = 1; def f() 1 end")
	require.NoError(t, err)

	in.Reset()

	_, err = in.Run(t.Context(), "y")
	assert.True(t, errors.Is(err, ErrUndefinedVariable), "got %v", err)

	_, err = in.Run(t.Context(), "f()")
	assert.True(t, errors.Is(err, ErrUndefinedFunction), "got %v", err)

	_, ok := in.Env().Function("puts")
	assert.True(t, ok, "builtins survive a reset")
}

func TestInterpreter_FailedRunKeepsEarlierEffects(t *testing.T) {
	in := NewInterpreter()

	_, err := in.Run(t.Context(), "a = 1; b = a + missing")
	require.Error(t, err)

	v, err := in.Run(t.Context(), "a")
	require.NoError(t, err)
	assert.Equal(t, "1", v.String())
}

func TestInterpreter_RunReader(t *testing.T) {
	in := NewInterpreter()

	v, err := in.RunReader(t.Context(), strings.NewReader("n = 4\nn * 2\n"))
	require.NoError(t, err)
	assert.Equal(t, "8", v.String())
}

func TestInterpreter_Trace(t *testing.T) {
	var trace bytes.Buffer

	in := NewInterpreter(WithTrace(&trace))

	v, err := in.Run(t.Context(), "1 + 2")
	require.NoError(t, err)
	assert.Equal(t, "3", v.String())

	got := trace.String()

	for _, name := range []string{"input", "tree", "ast", "result"} {
		assert.Contains(t, got, "== "+name+" ==\n")
	}

	assert.True(t, strings.HasPrefix(got, "== input ==\n1 + 2\n"), got)
	assert.True(t, strings.HasSuffix(got, "== result ==\n3\n"), got)
}

func TestInterpreter_TraceParseError(t *testing.T) {
	var trace bytes.Buffer

	in := NewInterpreter(WithTrace(&trace))

	_, err := in.Run(t.Context(), "1 +")
	require.ErrorIs(t, err, ErrSyntax)

	assert.Contains(t, trace.String(), "== parse error ==\n")
	assert.NotContains(t, trace.String(), "== result ==")
}

func TestInterpreter_MaxDepth(t *testing.T) {
	in := NewInterpreter(WithMaxDepth(16))

	_, err := in.Run(t.Context(), "def loop(n) loop(n + 1) end; loop(0)")
	require.ErrorIs(t, err, ErrMaxDepthExceeded)

	v, err := in.Run(t.Context(), "def down(n) if n; down(n - 1) else 7 end end; down(10)")
	require.NoError(t, err)
	assert.Equal(t, "7", v.String())
}
