package lang

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var formatSamples = []string{
	"1 + 2 * 3",
	"(1 + 2) * 3",
	"2 - 3 - 1",
	"(2 - 3) - 1",
	"8 / (4 / 2)",
	"(8 / 4) / 2",
	"a = b = 1.50",
	"x = 1 + y = 2",
	"2 * (y = 3)",
	"def f(a, b)\n  a * b\nend\nf(2, 3)",
	"def g() end",
	"if x; 1 else 2 end",
	"if x 1 end",
	"i = 0; while i - 3 i = i + 1 end; i",
	"puts(1, f(2), if 1; 3 end)",
	"(if 1; 2 end) * 3",
	"-1 * -2 - +3",
	"def fact(n) if n; n * fact(n - 1) else 1 end end; fact(5)",
}

func TestFormat_RoundTrip(t *testing.T) {
	for _, indent := range []int{0, 2, 4} {
		for _, source := range formatSamples {
			t.Run(source, func(t *testing.T) {
				prog, err := Compile(t.Context(), source)
				require.NoError(t, err)

				var buf bytes.Buffer
				require.NoError(t, prog.Format(t.Context(), &buf, indent))

				again, err := Compile(t.Context(), buf.String())
				require.NoError(t, err, "formatted:\n%s", buf.String())

				assert.Equal(t, ToMap(prog), ToMap(again), "formatted:\n%s", buf.String())
			})
		}
	}
}

func TestFormat_Canonical(t *testing.T) {
	tests := []struct {
		source string
		indent int
		want   string
	}{
		{"1+2*3", 0, "1 + 2 * 3\n"},
		{"a=1;b=2", 0, "a = 1; b = 2\n"},
		{"a=1\nb=2", 2, "a = 1\nb = 2\n"},
		{"(1+2)*3", 0, "(1 + 2) * 3\n"},
		{"((2))", 0, "2\n"},
		{"def f(x) x*x end", 2, "def f(x)\n  x * x\nend\n"},
		{"def f(x) x*x end", 0, "def f(x); x * x; end\n"},
		{"if c 1 else 2 end", 2, "if c\n  1\nelse\n  2\nend\n"},
		{"if c 1 else 2 end", 0, "if c; 1; else; 2; end\n"},
		{"while n n = n - 1 end", 2, "while n\n  n = n - 1\nend\n"},
		{"def f() end", 0, "def f(); end\n"},
		{"def f() end", 2, "def f()\nend\n"},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			prog, err := Compile(t.Context(), tt.source)
			require.NoError(t, err)

			var buf bytes.Buffer
			require.NoError(t, prog.Format(t.Context(), &buf, tt.indent))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestFormat_SeparatesContinuations(t *testing.T) {
	b := NewBuilder()

	prog := b.Program(
		b.Set("x", b.Num(1)),
		b.Num(-2),
		b.Var("f"),
		b.Binary(OpMul, b.Binary(OpAdd, b.Num(1), b.Num(2)), b.Num(3)),
		b.If(b.Var("c"), b.Program(b.Num(-1)), nil),
	)

	var buf bytes.Buffer
	require.NoError(t, prog.Format(t.Context(), &buf, 2))

	assert.Equal(t, "x = 1;\n-2\nf;\n(1 + 2) * 3\nif c;\n  -1\nend\n", buf.String())

	again, err := Compile(t.Context(), buf.String())
	require.NoError(t, err)
	assert.Equal(t, ToMap(prog), ToMap(again))
}

func TestFormat_NonFinite(t *testing.T) {
	b := NewBuilder()

	tests := []struct {
		node Node
		want string
	}{
		{b.Num(posInf()), "(1 / 0)"},
		{b.Num(-posInf()), "(-1 / 0)"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Source(tt.node))
	}
}

func posInf() float64 {
	zero := 0.0

	return 1 / zero
}

func TestFormat_JSON(t *testing.T) {
	prog, err := Compile(t.Context(), "x = 1 + 2; puts(x)")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, prog.FormatJSON(t.Context(), &buf, 2))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	assert.Equal(t, "program", decoded["type"])

	stmts, ok := decoded["statements"].([]any)
	require.True(t, ok)
	require.Len(t, stmts, 2)

	assign, ok := stmts[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "assign", assign["type"])

	call, ok := stmts[1].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "puts", call["name"])

	compact, err := json.Marshal(prog)
	require.NoError(t, err)
	assert.JSONEq(t, buf.String(), string(compact))
}

func TestFormat_YAML(t *testing.T) {
	prog, err := Compile(t.Context(), "def f(x) x end; f(1.5)")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, prog.FormatYAML(t.Context(), &buf, 2))

	out := buf.String()
	assert.Contains(t, out, "type: program")
	assert.Contains(t, out, "type: def")
	assert.Contains(t, out, "value: 1.5")

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "program", decoded["type"])

	buf.Reset()
	require.NoError(t, prog.FormatYAML(t.Context(), &buf, 0))
	assert.True(t, strings.HasPrefix(buf.String(), "{"))
}

func TestFormat_AST(t *testing.T) {
	prog, err := Compile(t.Context(), "x = 2 * y")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, prog.FormatAST(t.Context(), &buf, 2))

	want := strings.Join([]string{
		"program (1) @1:1",
		"  assign @1:1",
		"    target: variable x @1:1",
		"    value: binary * @1:5",
		"      left: number 2 @1:5",
		"      right: variable y @1:9",
		"",
	}, "\n")

	assert.Equal(t, want, buf.String())
}
