package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardnew/calc/lang"
	"github.com/ardnew/calc/pkg"
)

func TestRun(t *testing.T) {
	t.Setenv(pkg.PathEnv, "")

	dir := t.TempDir()
	lib := writeFile(t, dir, "lib.calc", "def fact(n)\n  if n; n * fact(n - 1) else 1 end\nend\n")
	main := writeFile(t, dir, "main.calc", "puts(fact(3))\nfact(5)\n")

	tests := []struct {
		name    string
		cmd     Run
		stdin   string
		want    string
		wantErr error
	}{
		{
			name: "last value printed",
			cmd:  Run{Sources: []string{lib, main}},
			want: "6\n120\n",
		},
		{
			name: "quiet",
			cmd:  Run{Quiet: true, Sources: []string{lib, main}},
			want: "6\n",
		},
		{
			name:  "stdin",
			cmd:   Run{Sources: []string{"-"}},
			stdin: "x = 4; x * x",
			want:  "16\n",
		},
		{
			name:  "nil result prints nothing",
			cmd:   Run{Sources: []string{"-"}},
			stdin: "def f() 1 end",
			want:  "",
		},
		{
			name:    "undefined function",
			cmd:     Run{Sources: []string{main}},
			wantErr: lang.ErrUndefinedFunction,
		},
		{
			name:    "syntax error",
			cmd:     Run{Sources: []string{"-"}},
			stdin:   "1 +",
			wantErr: lang.ErrSyntax,
		},
		{
			name:    "missing source",
			cmd:     Run{Sources: []string{"nope"}},
			wantErr: ErrSourceNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, stdout, _ := testContext(t, tt.stdin)

			err := tt.cmd.Run(ctx)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, stdout.String())
		})
	}
}

func TestRun_EvaluateErrorNamesSource(t *testing.T) {
	ctx, _, _ := testContext(t, "y")

	err := (&Run{Sources: []string{"-"}}).Run(ctx)
	require.ErrorIs(t, err, ErrEvaluate)
	require.ErrorIs(t, err, lang.ErrUndefinedVariable)
}

func TestRun_Trace(t *testing.T) {
	ctx, stdout, stderr := testContext(t, "1 + 2")

	s := settingsFrom(ctx)
	s.Trace = true
	ctx = WithSettings(ctx, s)

	require.NoError(t, (&Run{Sources: []string{"-"}}).Run(ctx))
	assert.Equal(t, "3\n", stdout.String())
	assert.Contains(t, stderr.String(), "== ast ==")
	assert.Contains(t, stderr.String(), "== result ==\n3\n")
}

func TestRun_MaxDepth(t *testing.T) {
	ctx, _, _ := testContext(t, "def r(n) r(n + 1) end; r(0)")

	s := settingsFrom(ctx)
	s.MaxDepth = 32
	ctx = WithSettings(ctx, s)

	err := (&Run{Sources: []string{"-"}}).Run(ctx)
	require.ErrorIs(t, err, lang.ErrMaxDepthExceeded)
}
