package lang

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"testing/iotest"

	"github.com/zeebo/xxh3"
)

func cachedCount() int {
	n := 0

	programCache.Range(func(_, _ any) bool {
		n++

		return true
	})

	return n
}

func TestCompile_Cached(t *testing.T) {
	ClearCache()
	t.Cleanup(ClearCache)

	source := "def f(x) x + 1 end; f(1)"

	first, err := Compile(t.Context(), source)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	second, err := Compile(t.Context(), source)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	if first != second {
		t.Error("expected the cached program to be reused")
	}

	ClearCache()

	third, err := Compile(t.Context(), source)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	if third == first {
		t.Error("expected a new program after ClearCache")
	}
}

func TestCompile_CachesFailure(t *testing.T) {
	ClearCache()
	t.Cleanup(ClearCache)

	_, err1 := Compile(t.Context(), "1 +")
	_, err2 := Compile(t.Context(), "1 +")

	if !errors.Is(err1, ErrSyntax) || !errors.Is(err2, ErrSyntax) {
		t.Fatalf("expected syntax errors, got %v and %v", err1, err2)
	}

	if err1 != err2 {
		t.Error("expected the cached error to be reused")
	}
}

func TestCompile_SharedProgramsAreReentrant(t *testing.T) {
	ClearCache()
	t.Cleanup(ClearCache)

	const source = "def fib(n) if n - 1; if n; fib(n - 1) + fib(n - 2) else 0 end else 1 end end; fib(15)"

	var wg sync.WaitGroup

	results := make([]Value, 8)
	errs := make([]error, 8)

	for i := range results {
		wg.Go(func() {
			results[i], errs[i] = NewInterpreter().Run(t.Context(), source)
		})
	}

	wg.Wait()

	for i := range results {
		if errs[i] != nil {
			t.Fatalf("run %d: %v", i, errs[i])
		}

		if f, _ := results[i].Float(); f != 610 {
			t.Errorf("run %d: fib(15) = %v, want 610", i, results[i])
		}
	}
}

func TestCompileReader(t *testing.T) {
	prog, err := CompileReader(t.Context(), strings.NewReader("a = 1\nb = 2\n"))
	if err != nil {
		t.Fatalf("CompileReader failed: %v", err)
	}

	if prog.Len() != 2 {
		t.Errorf("expected 2 statements, got %d", prog.Len())
	}

	_, err = CompileReader(t.Context(), iotest.ErrReader(errors.New("boom")))
	if !errors.Is(err, ErrReadInput) {
		t.Errorf("expected ErrReadInput, got %v", err)
	}
}

func TestCompile_WithoutCache(t *testing.T) {
	ClearCache()
	t.Cleanup(ClearCache)

	const source = "a = 1; a + 1"

	first, err := Compile(t.Context(), source, WithCache(false))
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	second, err := Compile(t.Context(), source, WithCache(false))
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	if first == second {
		t.Error("expected distinct programs with the cache disabled")
	}

	if n := cachedCount(); n != 0 {
		t.Errorf("expected an empty cache, found %d entries", n)
	}
}

func TestCompile_HashCollision(t *testing.T) {
	ClearCache()
	t.Cleanup(ClearCache)

	other, err := compile(t.Context(), "2 * 3")
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}

	// Plant another source's program under the key of "1 + 1".
	entry := &compiled{source: "2 * 3", prog: other}
	entry.once.Do(func() {})
	programCache.Store(xxh3.HashString("1 + 1"), entry)

	prog, err := Compile(t.Context(), "1 + 1")
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	if prog == other {
		t.Fatal("a colliding entry was returned for different source")
	}

	v, err := Eval(t.Context(), prog, NewEnv())
	if err != nil {
		t.Fatalf("Eval failed: %v", err)
	}

	if f, _ := v.Float(); f != 2 {
		t.Errorf("1 + 1 = %v, want 2", v)
	}
}

func TestCompile_Bounded(t *testing.T) {
	ClearCache()
	t.Cleanup(ClearCache)

	limit := MaxCachedPrograms
	MaxCachedPrograms = 3

	t.Cleanup(func() { MaxCachedPrograms = limit })

	for i := range 10 {
		source := strings.Repeat("1 + ", i) + "1"

		if _, err := Compile(t.Context(), source); err != nil {
			t.Fatalf("Compile(%q) failed: %v", source, err)
		}

		if n := cachedCount(); n > 3 {
			t.Fatalf("cache holds %d entries after %d compilations", n, i+1)
		}
	}

	// The latest source is still cached after an eviction.
	last := strings.Repeat("1 + ", 9) + "1"

	a, _ := Compile(t.Context(), last)
	b, _ := Compile(t.Context(), last)

	if a != b {
		t.Error("expected the latest program to remain cached")
	}
}
