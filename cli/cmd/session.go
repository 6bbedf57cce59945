package cmd

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/ardnew/calc/cli/cmd/repl"
	"github.com/ardnew/calc/lang"
	"github.com/ardnew/calc/pkg"
)

// Repl starts an interactive session.
type Repl struct {
	NoHistory bool `help:"Neither read nor write the history file."`

	Sources []string `arg:"" help:"Source files evaluated before the first prompt." name:"source" optional:""`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	s := settingsFrom(ctx)

	history := repl.NewHistory("")

	if !r.NoHistory {
		cache := kongVar(ctx, CacheIdentifier, pkg.CacheDir())
		history = repl.NewHistory(filepath.Join(cache, repl.BaseHistory))

		if err := history.Load(); err != nil {
			s.Logger.WarnContext(ctx, "could not load history",
				slog.String("dir", cache),
				slog.Any("error", err),
			)
		}
	}

	return repl.Run(ctx, repl.Config{
		Options: s.options(),
		Trace:   s.Trace,
		History: history,
		Logger:  s.Logger,
		Preload: func(ctx context.Context, in *lang.Interpreter) error {
			if len(r.Sources) == 0 {
				return nil
			}

			_, err := runSources(ctx, in, r.Sources)

			return err
		},
	})
}
