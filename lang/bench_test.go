package lang

import (
	"io"
	"testing"
)

const fibSource = "def fib(n) if n - 1; if n; fib(n - 1) + fib(n - 2) else 0 end else 1 end end; fib(18)"

func BenchmarkCompile_Cached(b *testing.B) {
	ClearCache()
	b.Cleanup(ClearCache)

	for b.Loop() {
		if _, err := Compile(b.Context(), fibSource); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkCompile_Uncached(b *testing.B) {
	for b.Loop() {
		if _, err := compile(b.Context(), fibSource); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkEval_Fib(b *testing.B) {
	prog, err := Compile(b.Context(), fibSource)
	if err != nil {
		b.Fatal(err)
	}

	for b.Loop() {
		if _, err := Eval(b.Context(), prog, NewEnv(WithOutput(io.Discard))); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkEval_While(b *testing.B) {
	prog, err := Compile(b.Context(), "i = 0; s = 0; while 1000 - i s = s + i; i = i + 1 end; s")
	if err != nil {
		b.Fatal(err)
	}

	for b.Loop() {
		if _, err := Eval(b.Context(), prog, NewEnv()); err != nil {
			b.Fatal(err)
		}
	}
}
