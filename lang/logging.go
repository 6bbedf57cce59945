package lang

import (
	"context"
	"log/slog"

	"github.com/ardnew/calc/log"
)

// LogEnv writes the bindings of env at debug level, one record per name.
func LogEnv(ctx context.Context, logger log.Logger, env *Env) {
	for _, name := range env.Variables() {
		f, _ := env.Lookup(name)

		logger.DebugContext(ctx, "variable",
			slog.String("name", name),
			slog.Any("value", NumberValue(f)),
		)
	}

	for _, name := range env.Functions() {
		fn, _ := env.Function(name)

		logger.DebugContext(ctx, "function",
			slog.String("name", name),
			slog.Int("arity", fn.Arity()),
			slog.String("kind", callableKind(fn)),
		)
	}
}

func callableKind(c Callable) string {
	switch c.(type) {
	case *Builtin:
		return "builtin"
	case *UserDefined:
		return "user"
	}

	return "unknown"
}
