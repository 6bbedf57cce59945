package lang

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/klauspost/readahead"
	"github.com/zeebo/xxh3"
)

// MaxCachedPrograms bounds the number of entries in the program cache.
// The cache is emptied when a new entry would exceed it.
var MaxCachedPrograms int64 = 4096

// programCache stores compiled programs keyed by the xxh3 hash of their
// source. Cached ASTs are immutable and shared by every caller.
var (
	programCache sync.Map
	cacheSize    atomic.Int64
)

// compiled tracks the single compilation of one source text.
type compiled struct {
	once   sync.Once
	source string
	prog   *Program
	err    error
}

// ReadSource reads all of r. Reads are performed asynchronously ahead of
// consumption.
func ReadSource(ctx context.Context, r io.Reader, opts ...Option) (string, error) {
	o := makeOptions(opts...)

	ra := readahead.NewReader(r)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return "", ErrReadInput.Wrap(err).
			With(slog.String("source", "reader"))
	}

	o.logger.TraceContext(ctx, "read input",
		slog.Int("source_bytes", len(data)),
		slog.Bool("read_ahead", true),
	)

	return string(data), nil
}

// CompileReader reads all of r and compiles it with [Compile].
func CompileReader(ctx context.Context, r io.Reader, opts ...Option) (*Program, error) {
	source, err := ReadSource(ctx, r, opts...)
	if err != nil {
		return nil, err
	}

	return Compile(ctx, source, opts...)
}

// Compile parses and transforms source. Results, including failures, are
// cached by source content, so repeated compilation of the same text
// returns the same *Program. [WithCache] can disable the cache.
func Compile(ctx context.Context, source string, opts ...Option) (*Program, error) {
	o := makeOptions(opts...)

	if !o.cache {
		return compile(ctx, source, opts...)
	}

	hash := xxh3.HashString(source)

	value, hit := programCache.LoadOrStore(hash, &compiled{source: source})

	entry, ok := value.(*compiled)
	if !ok {
		return nil, ErrInvalidTree.
			With(slog.String("issue", "invalid entry type in cache"))
	}

	o.logger.TraceContext(ctx, "cache lookup",
		slog.String("source_hash", strconv.FormatUint(hash, 16)),
		slog.Bool("cache_hit", hit),
	)

	if hit && entry.source != source {
		o.logger.DebugContext(ctx, "cache collision",
			slog.String("source_hash", strconv.FormatUint(hash, 16)))

		return compile(ctx, source, opts...)
	}

	if !hit && cacheSize.Add(1) > MaxCachedPrograms {
		ClearCache()
		programCache.Store(hash, entry)
		cacheSize.Store(1)
	}

	entry.once.Do(func() {
		entry.prog, entry.err = compile(ctx, source, opts...)
	})

	// A cancelled compilation says nothing about the source.
	if entry.err != nil && ctx.Err() != nil {
		if programCache.CompareAndDelete(hash, entry) {
			cacheSize.Add(-1)
		}
	}

	return entry.prog, entry.err
}

func compile(ctx context.Context, source string, opts ...Option) (*Program, error) {
	tree, err := Parse(ctx, source, opts...)
	if err != nil {
		return nil, err
	}

	return Transform(ctx, tree, opts...)
}

// ClearCache removes all cached programs.
// This is primarily useful for testing or when memory needs to be reclaimed.
func ClearCache() {
	programCache.Clear()
	cacheSize.Store(0)
}
