package lang

import (
	"context"
	"log/slog"
)

// Eval evaluates n in env. Errors abort evaluation immediately; bindings
// and definitions made before the error remain in env.
func Eval(ctx context.Context, n Node, env *Env) (Value, error) {
	if env == nil {
		env = NewEnv()
	}

	switch n := n.(type) {
	case *Number:
		return NumberValue(n.Value), nil

	case *Variable:
		f, ok := env.Lookup(n.Name)
		if !ok {
			return Nil, ErrUndefinedVariable.With(
				slog.String("name", n.Name),
				slog.String("pos", n.Pos.String()),
			)
		}

		return NumberValue(f), nil

	case *Binary:
		return evalBinary(ctx, n, env)

	case *Assign:
		return evalAssign(ctx, n, env)

	case *FuncDef:
		env.Define(NewUserDefined(n.Name, n.Params, n.Body))

		return Nil, nil

	case *Call:
		return evalCall(ctx, n, env)

	case *If:
		return evalIf(ctx, n, env)

	case *While:
		return evalWhile(ctx, n, env)

	case *Program:
		return evalProgram(ctx, n, env)

	case nil:
		return Nil, ErrInvalidTree.With(slog.String("issue", "nil node"))
	}

	return Nil, ErrInvalidTree.With(slog.String("issue", "unknown node"))
}

// number evaluates n and requires a numeric result.
func number(ctx context.Context, n Node, env *Env, role string) (float64, error) {
	v, err := Eval(ctx, n, env)
	if err != nil {
		return 0, err
	}

	f, ok := v.Float()
	if !ok {
		return 0, ErrNoValue.With(
			slog.String("role", role),
			slog.String("pos", n.Position().String()),
		)
	}

	return f, nil
}

func evalBinary(ctx context.Context, n *Binary, env *Env) (Value, error) {
	if _, ok := ParseOperator(string(n.Op)); !ok {
		return Nil, ErrInvalidTree.With(
			slog.String("issue", "unknown operator"),
			slog.String("op", string(n.Op)),
		)
	}

	left, err := number(ctx, n.Left, env, "operand")
	if err != nil {
		return Nil, err
	}

	right, err := number(ctx, n.Right, env, "operand")
	if err != nil {
		return Nil, err
	}

	return NumberValue(n.Op.Apply(left, right)), nil
}

func evalAssign(ctx context.Context, n *Assign, env *Env) (Value, error) {
	target, ok := n.Target.(*Variable)
	if !ok {
		return Nil, ErrInvalidTarget.With(slog.String("pos", n.Pos.String()))
	}

	f, err := number(ctx, n.Value, env, "assignment")
	if err != nil {
		return Nil, err
	}

	env.Bind(target.Name, f)

	return NumberValue(f), nil
}

func evalCall(ctx context.Context, n *Call, env *Env) (Value, error) {
	if err := ctx.Err(); err != nil {
		return Nil, err
	}

	fn, ok := env.Function(n.Name)
	if !ok {
		return Nil, ErrUndefinedFunction.With(
			slog.String("name", n.Name),
			slog.String("pos", n.Pos.String()),
		)
	}

	if err := checkArity(fn, len(n.Args)); err != nil {
		return Nil, err
	}

	args := make([]float64, len(n.Args))

	for i, arg := range n.Args {
		f, err := number(ctx, arg, env, "argument")
		if err != nil {
			return Nil, err
		}

		args[i] = f
	}

	return fn.Invoke(ctx, args, env)
}

func evalIf(ctx context.Context, n *If, env *Env) (Value, error) {
	cond, err := number(ctx, n.Cond, env, "condition")
	if err != nil {
		return Nil, err
	}

	switch {
	case truthy(cond):
		return evalProgram(ctx, n.Then, env)
	case n.Else != nil:
		return evalProgram(ctx, n.Else, env)
	}

	return Nil, nil
}

func evalWhile(ctx context.Context, n *While, env *Env) (Value, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Nil, err
		}

		cond, err := number(ctx, n.Cond, env, "condition")
		if err != nil {
			return Nil, err
		}

		if !truthy(cond) {
			return Nil, nil
		}

		if _, err := evalProgram(ctx, n.Body, env); err != nil {
			return Nil, err
		}
	}
}

func evalProgram(ctx context.Context, n *Program, env *Env) (Value, error) {
	result := Nil

	for i := range n.Len() {
		v, err := Eval(ctx, n.Stmts[i], env)
		if err != nil {
			return Nil, err
		}

		result = v
	}

	return result, nil
}
