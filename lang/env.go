package lang

import (
	"io"
	"maps"
	"slices"
)

// Functions maps a function name to its implementation. Builtins and
// user-defined functions share one namespace; a later definition replaces
// an earlier one of the same name.
type Functions map[string]Callable

// Env is one evaluation frame. Variables belong to the frame alone; the
// function table is shared by reference with every frame spawned from the
// same root, so a definition made anywhere is visible everywhere.
type Env struct {
	vars  map[string]float64
	funcs Functions
	opts  *options
	depth int
}

// NewEnv creates a root environment whose function table holds the puts
// and print builtins.
func NewEnv(opts ...Option) *Env {
	o := makeOptions(opts...)

	env := &Env{
		vars:  make(map[string]float64),
		funcs: make(Functions),
		opts:  &o,
	}

	for _, b := range outputBuiltins() {
		env.Define(b)
	}

	return env
}

// Spawn creates a call frame with no variables that shares the function
// table of e.
func (e *Env) Spawn() *Env {
	return &Env{
		vars:  make(map[string]float64),
		funcs: e.funcs,
		opts:  e.opts,
		depth: e.depth + 1,
	}
}

// Depth returns the number of user-defined calls between e and its root.
func (e *Env) Depth() int { return e.depth }

// Lookup returns the value bound to name in this frame only.
func (e *Env) Lookup(name string) (float64, bool) {
	f, ok := e.vars[name]

	return f, ok
}

// Bind sets name to f in this frame, creating or overwriting the binding.
func (e *Env) Bind(name string, f float64) { e.vars[name] = f }

// Function returns the callable registered under name.
func (e *Env) Function(name string) (Callable, bool) {
	c, ok := e.funcs[name]

	return c, ok
}

// Define registers c under its name in the shared function table.
func (e *Env) Define(c Callable) { e.funcs[c.Name()] = c }

// Variables returns the names bound in this frame, sorted.
func (e *Env) Variables() []string {
	return slices.Sorted(maps.Keys(e.vars))
}

// Functions returns the names in the function table, sorted.
func (e *Env) Functions() []string {
	return slices.Sorted(maps.Keys(e.funcs))
}

// Output returns the writer that receives builtin output.
func (e *Env) Output() io.Writer { return e.opts.output }
