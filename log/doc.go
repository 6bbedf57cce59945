// Package log is the structured logger used throughout calc. It wraps
// [log/slog] with an immutable [Logger] configured by functional options,
// and adds a trace level below debug for per-stage interpreter output.
//
// # Usage
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelDebug),
//		log.WithFormat(log.FormatText))
//
//	logger.Info("eval complete", slog.Any("result", v))
//
// Attributes are typed [slog.Attr] values; [Logger.With] returns a logger
// that adds them to every record.
//
// The zero Logger discards everything, so packages accept a Logger in their
// options and log unconditionally.
//
// # Levels and formats
//
// The levels are [LevelTrace], [LevelDebug], [LevelInfo], [LevelWarn] and
// [LevelError]. Records are encoded as [FormatJSON] (the default) or
// [FormatText]. With [WithPretty] records are styled for a terminal, and
// styling is dropped when the output is redirected.
//
// # Package-level logger
//
// Functions such as [Info] and [ErrorContext] use a default logger writing
// to standard error, reconfigured with [Config]. Calls without a context
// use [DefaultContextProvider].
package log
