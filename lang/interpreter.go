package lang

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Interpreter runs programs against one persistent root environment, so
// variables and functions defined by one run are visible to the next.
//
// An Interpreter is not safe for concurrent use.
type Interpreter struct {
	env  *Env
	args []Option
	opts options
}

// NewInterpreter creates an interpreter with a fresh root environment.
func NewInterpreter(opts ...Option) *Interpreter {
	return &Interpreter{
		env:  NewEnv(opts...),
		args: opts,
		opts: makeOptions(opts...),
	}
}

// Env returns the root environment.
func (in *Interpreter) Env() *Env { return in.env }

// Reset discards all variables and user-defined functions.
func (in *Interpreter) Reset() {
	in.env = NewEnv(in.args...)
}

// RunReader reads all of r and runs it.
func (in *Interpreter) RunReader(ctx context.Context, r io.Reader) (Value, error) {
	source, err := ReadSource(ctx, r, in.args...)
	if err != nil {
		return Nil, err
	}

	return in.Run(ctx, source)
}

// Run compiles and evaluates source in the root environment. When tracing
// is enabled, every stage is written to the trace writer.
func (in *Interpreter) Run(ctx context.Context, source string) (Value, error) {
	if in.opts.trace != nil {
		return in.traceRun(ctx, source)
	}

	prog, err := Compile(ctx, source, in.args...)
	if err != nil {
		return Nil, err
	}

	return in.Exec(ctx, prog)
}

// Exec evaluates an already compiled program in the root environment.
func (in *Interpreter) Exec(ctx context.Context, prog *Program) (Value, error) {
	in.opts.logger.TraceContext(ctx, "eval start",
		slog.Int("statement_count", prog.Len()))

	v, err := Eval(ctx, prog, in.env)
	if err != nil {
		in.opts.logger.TraceContext(ctx, "eval failed", slog.Any("error", err))

		return Nil, err
	}

	in.opts.logger.TraceContext(ctx, "eval complete", slog.Any("result", v))

	return v, nil
}

// traceRun runs source uncached, dumping each stage.
func (in *Interpreter) traceRun(ctx context.Context, source string) (Value, error) {
	w := in.opts.trace

	stage(w, "input", source)

	tree, err := Parse(ctx, source, in.args...)
	if err != nil {
		stage(w, "parse error", err.Error())

		return Nil, err
	}

	stage(w, "tree", tree.String())

	prog, err := Transform(ctx, tree, in.args...)
	if err != nil {
		stage(w, "transform error", err.Error())

		return Nil, err
	}

	var sb strings.Builder

	_ = prog.FormatAST(ctx, &sb, 2)

	stage(w, "ast", sb.String())

	v, err := in.Exec(ctx, prog)
	if err != nil {
		stage(w, "eval error", err.Error())

		return Nil, err
	}

	stage(w, "result", v.String())

	return v, nil
}

func stage(w io.Writer, name, body string) {
	_, _ = fmt.Fprintf(w, "== %s ==\n%s", name, body)

	if !strings.HasSuffix(body, "\n") {
		_, _ = io.WriteString(w, "\n")
	}
}
