package cmd

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/ardnew/calc/lang"
	"github.com/ardnew/calc/log"
	"github.com/ardnew/calc/pkg"
)

// Ext is the conventional extension of calc source files.
const Ext = ".calc"

// stdinSource is the special source name for reading from stdin.
const stdinSource = "-"

type contextKey struct{}

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(contextKey{}).(*kong.Context)
	if !ok || ktx == nil {
		return nil
	}

	return ktx
}

// kongVar returns the kong variable called name, or def when there is no
// kong context or the variable is unset.
func kongVar(ctx context.Context, name, def string) string {
	if ktx := kongContextFrom(ctx); ktx != nil {
		if v, ok := ktx.Model.Vars()[name]; ok && v != "" {
			return v
		}
	}

	return def
}

// Settings are the global options shared by every command.
type Settings struct {
	// Path lists directories searched for relative source names, ahead of
	// the entries of $CALC_PATH.
	Path []string
	// Trace writes every evaluation stage to Stderr.
	Trace bool
	// MaxDepth bounds nested user-defined calls. Zero is unbounded.
	MaxDepth int

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger log.Logger
}

type settingsKey struct{}

// WithSettings returns a new context.Context containing s.
func WithSettings(ctx context.Context, s Settings) context.Context {
	return context.WithValue(ctx, settingsKey{}, s)
}

// settingsFrom returns the Settings stored in ctx with unset streams
// replaced by the process streams and an unset logger by the default.
func settingsFrom(ctx context.Context) Settings {
	s, _ := ctx.Value(settingsKey{}).(Settings)

	if s.Stdin == nil {
		s.Stdin = os.Stdin
	}

	if s.Stdout == nil {
		s.Stdout = os.Stdout
	}

	if s.Stderr == nil {
		s.Stderr = os.Stderr
	}

	if s.Logger.Logger == nil {
		s.Logger = log.Default()
	}

	return s
}

// options returns the interpreter options common to every command.
func (s Settings) options() []lang.Option {
	return []lang.Option{
		lang.WithLogger(s.Logger),
		lang.WithMaxDepth(s.MaxDepth),
	}
}

// Resolve returns the path of the source file called name. The name is
// tried as given and then with [Ext] appended. Relative names not found
// from the working directory are searched in dirs, in order.
func Resolve(name string, dirs []string) (string, error) {
	if p, ok := findFile(name); ok {
		return p, nil
	}

	if !filepath.IsAbs(name) {
		for _, dir := range dirs {
			if p, ok := findFile(filepath.Join(dir, name)); ok {
				return p, nil
			}
		}
	}

	return "", ErrSourceNotFound.With(
		slog.String("source", name),
		slog.Any("path", dirs),
	)
}

func findFile(path string) (string, bool) {
	candidates := []string{path}
	if filepath.Ext(path) != Ext {
		candidates = append(candidates, path+Ext)
	}

	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c, true
		}
	}

	return "", false
}

// Source is an open source input and the name it was requested by.
type Source struct {
	Name string
	io.ReadCloser
}

// fileKey uniquely identifies a file by its device and inode numbers, so
// symlinks and differently spelled paths to one file are opened once.
type fileKey struct {
	dev uint64
	ino uint64
}

// makeFileKey returns false if info does not carry a *syscall.Stat_t.
func makeFileKey(info os.FileInfo) (key fileKey, ok bool) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return key, false
	}

	return fileKey{dev: uint64(stat.Dev), ino: stat.Ino}, true
}

// OpenSources resolves and opens every name in order, using the include
// path of the Settings in ctx. "-" is stdin. A file named more than once,
// by any path, is opened only the first time; stdin likewise. On error,
// sources already opened are closed.
func OpenSources(ctx context.Context, names []string) ([]Source, error) {
	s := settingsFrom(ctx)
	dirs := pkg.IncludePath(s.Path...)

	seen := make(map[fileKey]struct{})
	sources := make([]Source, 0, len(names))

	stdinSeen := false

	for _, name := range names {
		if name == stdinSource {
			if !stdinSeen {
				stdinSeen = true

				sources = append(sources, Source{Name: name, ReadCloser: io.NopCloser(s.Stdin)})
			}

			continue
		}

		src, dup, err := openUnique(name, dirs, seen)
		if err != nil {
			closeSources(sources)

			return nil, err
		}

		if !dup {
			sources = append(sources, src)
		}
	}

	s.Logger.TraceContext(ctx, "sources opened",
		slog.Int("requested", len(names)),
		slog.Int("opened", len(sources)),
	)

	return sources, nil
}

func openUnique(name string, dirs []string, seen map[fileKey]struct{}) (Source, bool, error) {
	path, err := Resolve(name, dirs)
	if err != nil {
		return Source{}, false, err
	}

	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return Source{}, false, ErrOpenSource.With(slog.String("source", name)).Wrap(err)
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return Source{}, false, ErrOpenSource.With(slog.String("source", name)).Wrap(err)
	}

	if key, ok := makeFileKey(info); ok {
		if _, exists := seen[key]; exists {
			return Source{}, true, nil
		}

		seen[key] = struct{}{}
	}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Source{}, false, ErrSourceNotFound.With(slog.String("source", name))
		}

		return Source{}, false, ErrOpenSource.With(slog.String("source", name)).Wrap(err)
	}

	return Source{Name: name, ReadCloser: file}, false, nil
}

func closeSources(sources []Source) {
	for _, src := range sources {
		_ = src.Close()
	}
}

// runSources evaluates names in order in the root environment of in and
// returns the value of the last one.
func runSources(ctx context.Context, in *lang.Interpreter, names []string) (lang.Value, error) {
	sources, err := OpenSources(ctx, names)
	if err != nil {
		return lang.Nil, err
	}

	defer closeSources(sources)

	v := lang.Nil

	for _, src := range sources {
		v, err = in.RunReader(ctx, src)
		if err != nil {
			return lang.Nil, ErrEvaluate.With(slog.String("source", src.Name)).Wrap(err)
		}
	}

	return v, nil
}
