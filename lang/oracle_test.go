package lang

import (
	"math"
	"math/rand/v2"
	"strconv"
	"strings"
	"testing"

	"github.com/expr-lang/expr"
)

// grouped parenthesizes a flat token list the way the calc grammar groups
// it: additive operators bind loosest, and both levels group to the right.
func grouped(tokens []string) string {
	if len(tokens) == 1 {
		return tokens[0]
	}

	for _, level := range [][]string{{"+", "-"}, {"*", "/"}} {
		for i := 1; i < len(tokens); i += 2 {
			if tokens[i] == level[0] || tokens[i] == level[1] {
				return "(" + grouped(tokens[:i]) + " " + tokens[i] + " " +
					grouped(tokens[i+1:]) + ")"
			}
		}
	}

	panic("malformed token list")
}

func randomTokens(r *rand.Rand) []string {
	ops := []string{"+", "-", "*", "/"}
	n := 1 + r.IntN(7)

	tokens := []string{strconv.Itoa(1 + r.IntN(9))}
	for range n {
		tokens = append(tokens, ops[r.IntN(len(ops))], strconv.Itoa(1+r.IntN(9)))
	}

	return tokens
}

func toFloat(t *testing.T, v any) float64 {
	t.Helper()

	switch v := v.(type) {
	case int:
		return float64(v)
	case float64:
		return v
	}

	t.Fatalf("unexpected oracle result type %T", v)

	return 0
}

// TestEval_MatchesOracle checks operator precedence and right-to-left
// grouping against expr-lang evaluating the explicitly grouped form.
func TestEval_MatchesOracle(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))

	for range 500 {
		tokens := randomTokens(r)
		source := strings.Join(tokens, " ")
		explicit := grouped(tokens)

		t.Run(source, func(t *testing.T) {
			want, err := expr.Eval(explicit, nil)
			if err != nil {
				t.Fatalf("oracle rejected %q: %v", explicit, err)
			}

			v, err := NewInterpreter().Run(t.Context(), source)
			if err != nil {
				t.Fatalf("run %q: %v", source, err)
			}

			got, ok := v.Float()
			if !ok {
				t.Fatalf("run %q: no value", source)
			}

			exp := toFloat(t, want)
			if math.Abs(got-exp) > 1e-9*math.Max(1, math.Abs(exp)) {
				t.Errorf("%s = %v, oracle %s = %v", source, got, explicit, exp)
			}
		})
	}
}

func TestEval_RightGroupingDiffersFromConventional(t *testing.T) {
	tests := []struct {
		source       string
		conventional string
	}{
		{"2 - 3 - 1", "(2 - 3) - 1"},
		{"8 / 4 / 2", "(8 / 4) / 2"},
		{"9 - 4 + 2", "(9 - 4) + 2"},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			v, err := NewInterpreter().Run(t.Context(), tt.source)
			if err != nil {
				t.Fatal(err)
			}

			got, _ := v.Float()

			conv, err := expr.Eval(tt.conventional, nil)
			if err != nil {
				t.Fatal(err)
			}

			if got == toFloat(t, conv) {
				t.Errorf("%s evaluated left to right (%v)", tt.source, got)
			}
		})
	}
}
