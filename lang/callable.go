package lang

import (
	"context"
	"io"
	"log/slog"
	"strings"
)

// Variadic is the arity reported by callables that accept any number of
// arguments.
const Variadic = -1

// Callable is anything that can be the target of a call expression.
type Callable interface {
	Name() string
	// Arity returns the required argument count, or [Variadic].
	Arity() int
	// Invoke applies the callable to evaluated arguments. caller is the
	// frame the call was made from.
	Invoke(ctx context.Context, args []float64, caller *Env) (Value, error)
}

// Builtin is a callable implemented by the host. Fn receives the frame the
// call was made from.
type Builtin struct {
	Fn    func(caller *Env, args []float64) (Value, error)
	name  string
	arity int
}

// NewBuiltin creates a builtin. Pass [Variadic] for arity to accept any
// number of arguments.
func NewBuiltin(name string, arity int, fn func(caller *Env, args []float64) (Value, error)) *Builtin {
	return &Builtin{name: name, arity: arity, Fn: fn}
}

func (b *Builtin) Name() string { return b.name }
func (b *Builtin) Arity() int   { return b.arity }

// Invoke checks the argument count and calls the host function.
func (b *Builtin) Invoke(_ context.Context, args []float64, caller *Env) (Value, error) {
	if err := checkArity(b, len(args)); err != nil {
		return Nil, err
	}

	return b.Fn(caller, args)
}

// UserDefined is a function defined by a def expression.
type UserDefined struct {
	Body   *Program
	name   string
	Params []string
}

// NewUserDefined creates a user-defined function.
func NewUserDefined(name string, params []string, body *Program) *UserDefined {
	return &UserDefined{name: name, Params: params, Body: body}
}

func (u *UserDefined) Name() string { return u.name }
func (u *UserDefined) Arity() int   { return len(u.Params) }

// Invoke evaluates the body in a fresh frame spawned from caller. The frame
// holds only the parameters, bound positionally to args.
func (u *UserDefined) Invoke(ctx context.Context, args []float64, caller *Env) (Value, error) {
	if err := checkArity(u, len(args)); err != nil {
		return Nil, err
	}

	if limit := caller.opts.maxDepth; limit > 0 && caller.depth >= limit {
		return Nil, ErrMaxDepthExceeded.With(
			slog.String("function", u.name),
			slog.Int("limit", limit),
		)
	}

	frame := caller.Spawn()

	for i, param := range u.Params {
		frame.Bind(param, args[i])
	}

	caller.opts.logger.TraceContext(ctx, "call",
		slog.String("function", u.name),
		slog.Int("depth", frame.depth),
		slog.Any("args", args),
	)

	return Eval(ctx, u.Body, frame)
}

func checkArity(c Callable, given int) error {
	want := c.Arity()
	if want == Variadic || want == given {
		return nil
	}

	return ErrArity.With(
		slog.String("function", c.Name()),
		slog.Int("given", given),
		slog.Int("expected", want),
	)
}

// outputBuiltins returns puts and print, which write to the output of
// the calling frame.
func outputBuiltins() []*Builtin {
	return []*Builtin{
		NewBuiltin("puts", Variadic, func(caller *Env, args []float64) (Value, error) {
			var sb strings.Builder

			if len(args) == 0 {
				sb.WriteByte('\n')
			}

			for _, f := range args {
				sb.WriteString(formatFloat(f))
				sb.WriteByte('\n')
			}

			return Nil, writeOutput(caller.Output(), sb.String())
		}),
		NewBuiltin("print", Variadic, func(caller *Env, args []float64) (Value, error) {
			var sb strings.Builder

			for _, f := range args {
				sb.WriteString(formatFloat(f))
			}

			return Nil, writeOutput(caller.Output(), sb.String())
		}),
	}
}

func writeOutput(w io.Writer, s string) error {
	if _, err := io.WriteString(w, s); err != nil {
		return ErrWriteOutput.Wrap(err)
	}

	return nil
}
