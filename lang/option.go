package lang

import (
	"io"

	"github.com/ardnew/calc/log"
)

// DefaultMaxDepth is the default bound on nested user-defined calls.
// Zero means unbounded.
var DefaultMaxDepth = 0

// options holds configuration shared by the parser, environments and the
// [Interpreter].
type options struct {
	logger   log.Logger // zero value is a no-op logger
	output   io.Writer  // destination of puts/print
	trace    io.Writer  // stage dumps, nil disables
	maxDepth int
	cache    bool // share compiled programs through the process-wide cache
}

// Option configures parsing, environments or an [Interpreter].
type Option func(*options)

// WithLogger sets the structured logger for trace-level debugging.
// If not provided, the logger is zero-valued and all logging is a no-op.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithOutput sets the writer that receives output of the puts and print
// builtins. The default discards it.
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		o.output = w
	}
}

// WithTrace enables stage tracing: the raw input, concrete tree, AST and
// result of every run are written to w. A nil writer disables tracing.
func WithTrace(w io.Writer) Option {
	return func(o *options) {
		o.trace = w
	}
}

// WithMaxDepth bounds the depth of nested user-defined function calls.
// Zero means unbounded.
func WithMaxDepth(depth int) Option {
	return func(o *options) {
		o.maxDepth = depth
	}
}

// WithCache selects whether [Compile] shares programs through the
// process-wide cache. It is enabled by default.
func WithCache(enabled bool) Option {
	return func(o *options) {
		o.cache = enabled
	}
}

func makeOptions(opts ...Option) options {
	o := options{
		output:   io.Discard,
		maxDepth: DefaultMaxDepth,
		cache:    true,
	}

	for _, opt := range opts {
		opt(&o)
	}

	if o.output == nil {
		o.output = io.Discard
	}

	return o
}
