package cmd

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardnew/calc/lang"
)

func TestFmt(t *testing.T) {
	const source = "def sq(x) x*x end\nsq(3)"

	tests := []struct {
		name  string
		run   interface{ Run(ctx context.Context) error }
		check func(t *testing.T, out string)
	}{
		{
			name: "native",
			run:  &Native{Indent: 2, Source: "-"},
			check: func(t *testing.T, out string) {
				assert.Equal(t, "def sq(x)\n  x * x\nend\nsq(3)\n", out)
			},
		},
		{
			name: "native one line",
			run:  &Native{Indent: 0, Source: "-"},
			check: func(t *testing.T, out string) {
				assert.Equal(t, "def sq(x); x * x; end; sq(3)\n", out)
			},
		},
		{
			name: "json",
			run:  &JSON{Indent: 2, Source: "-"},
			check: func(t *testing.T, out string) {
				var decoded map[string]any
				require.NoError(t, json.Unmarshal([]byte(out), &decoded))
				assert.Equal(t, "program", decoded["type"])
			},
		},
		{
			name: "yaml",
			run:  &YAML{Indent: 2, Source: "-"},
			check: func(t *testing.T, out string) {
				var decoded map[string]any
				require.NoError(t, yaml.Unmarshal([]byte(out), &decoded))
				assert.Equal(t, "program", decoded["type"])
			},
		},
		{
			name: "ast",
			run:  &AST{Indent: 2, Source: "-"},
			check: func(t *testing.T, out string) {
				assert.Contains(t, out, "program (2)")
				assert.Contains(t, out, "  def sq(x)")
			},
		},
		{
			name: "tree",
			run:  &Tree{Source: "-"},
			check: func(t *testing.T, out string) {
				assert.Contains(t, out, "program @1:1")
				assert.Contains(t, out, "fundef")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, stdout, _ := testContext(t, source)

			require.NoError(t, tt.run.Run(ctx))
			tt.check(t, stdout.String())
		})
	}
}

func TestFmt_RoundTrip(t *testing.T) {
	ctx, stdout, _ := testContext(t, "a=1;while a-3 a=a+1 end;a")
	require.NoError(t, (&Native{Indent: 4, Source: "-"}).Run(ctx))

	again, err := lang.NewInterpreter().Run(t.Context(), stdout.String())
	require.NoError(t, err)
	assert.Equal(t, "3", again.String())
}

func TestFmt_SyntaxError(t *testing.T) {
	ctx, stdout, _ := testContext(t, "def (")

	err := (&JSON{Indent: 2, Source: "-"}).Run(ctx)
	require.ErrorIs(t, err, ErrFormat)
	require.ErrorIs(t, err, lang.ErrSyntax)
	assert.Empty(t, stdout.String())

	ctx, _, _ = testContext(t, "def (")

	err = (&Tree{Source: "-"}).Run(ctx)
	require.ErrorIs(t, err, lang.ErrSyntax)
}
