package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ardnew/calc/lang"
)

// Run evaluates source files in order in one root environment and prints
// the value of the last one.
type Run struct {
	Quiet bool `help:"Do not print the final value." short:"q"`

	Sources []string `arg:"" default:"-" help:"Source files, or '-' for stdin." name:"source"`
}

// Run executes the run command.
func (r *Run) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	s := settingsFrom(ctx)

	opts := append(s.options(), lang.WithOutput(s.Stdout))
	if s.Trace {
		opts = append(opts, lang.WithTrace(s.Stderr))
	}

	in := lang.NewInterpreter(opts...)

	v, err := runSources(ctx, in, r.Sources)
	if err != nil {
		return err
	}

	lang.LogEnv(ctx, s.Logger, in.Env())

	s.Logger.DebugContext(ctx, "run complete",
		slog.Int("source_count", len(r.Sources)),
		slog.Any("result", v),
	)

	if r.Quiet || v.IsNil() {
		return nil
	}

	if _, err := fmt.Fprintln(s.Stdout, v); err != nil {
		return ErrWriteOutput.Wrap(err)
	}

	return nil
}
