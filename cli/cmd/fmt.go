package cmd

import (
	"context"
	"io"
	"log/slog"

	"github.com/ardnew/calc/lang"
)

// Fmt re-emits a program in the chosen representation.
type Fmt struct {
	Native Native `cmd:"" default:"withargs" help:"Format as canonical calc source (default)."`
	JSON   JSON   `cmd:""                    help:"Format the AST as JSON."`
	YAML   YAML   `cmd:""                    help:"Format the AST as YAML."`
	AST    AST    `cmd:""                    help:"Format the AST as an indented listing."`
	Tree   Tree   `cmd:""                    help:"Format the concrete parse tree."`
}

// Native formats a program as canonical calc source. An indent of zero
// puts every program on one line.
type Native struct {
	Indent int `default:"2" help:"Indent width for block bodies." short:"i"`

	Source string `arg:"" default:"-" help:"Source input file or '-' for stdin." name:"source"`
}

// Run executes the native command.
func (f *Native) Run(ctx context.Context) error {
	return formatProgram(ctx, "native", f.Source, func(w io.Writer, prog *lang.Program) error {
		return prog.Format(ctx, w, f.Indent)
	})
}

// JSON formats the AST of a program as JSON.
type JSON struct {
	Indent int `default:"2" help:"Indent width for JSON output; 0 is compact." short:"i"`

	Source string `arg:"" default:"-" help:"Source input file or '-' for stdin." name:"source"`
}

// Run executes the json command.
func (j *JSON) Run(ctx context.Context) error {
	return formatProgram(ctx, "json", j.Source, func(w io.Writer, prog *lang.Program) error {
		return prog.FormatJSON(ctx, w, j.Indent)
	})
}

// YAML formats the AST of a program as YAML.
type YAML struct {
	Indent int `default:"2" help:"Indent width for YAML output; 0 is flow style." short:"i"`

	Source string `arg:"" default:"-" help:"Source input file or '-' for stdin." name:"source"`
}

// Run executes the yaml command.
func (y *YAML) Run(ctx context.Context) error {
	return formatProgram(ctx, "yaml", y.Source, func(w io.Writer, prog *lang.Program) error {
		return prog.FormatYAML(ctx, w, y.Indent)
	})
}

// AST lists the AST of a program, one node per line.
type AST struct {
	Indent int `default:"2" help:"Indent width per nesting level." short:"i"`

	Source string `arg:"" default:"-" help:"Source input file or '-' for stdin." name:"source"`
}

// Run executes the ast command.
func (a *AST) Run(ctx context.Context) error {
	return formatProgram(ctx, "ast", a.Source, func(w io.Writer, prog *lang.Program) error {
		return prog.FormatAST(ctx, w, a.Indent)
	})
}

// Tree prints the concrete parse tree of a program, before it is rewritten
// into an AST.
type Tree struct {
	Source string `arg:"" default:"-" help:"Source input file or '-' for stdin." name:"source"`
}

// Run executes the tree command.
func (t *Tree) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	s := settingsFrom(ctx)

	source, err := readSource(ctx, t.Source)
	if err != nil {
		return err
	}

	tree, err := lang.Parse(ctx, source, s.options()...)
	if err != nil {
		return ErrFormat.With(slog.String("format", "tree")).Wrap(err)
	}

	if err := tree.Write(s.Stdout); err != nil {
		return ErrWriteOutput.Wrap(err)
	}

	return nil
}

// readSource returns the full text of the single source called name.
func readSource(ctx context.Context, name string) (string, error) {
	sources, err := OpenSources(ctx, []string{name})
	if err != nil {
		return "", err
	}

	defer closeSources(sources)

	return lang.ReadSource(ctx, sources[0], settingsFrom(ctx).options()...)
}

// formatProgram compiles the source called name and writes it to stdout
// with emit.
func formatProgram(
	ctx context.Context,
	format, name string,
	emit func(w io.Writer, prog *lang.Program) error,
) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	s := settingsFrom(ctx)

	source, err := readSource(ctx, name)
	if err != nil {
		return err
	}

	prog, err := lang.Compile(ctx, source, s.options()...)
	if err != nil {
		return ErrFormat.With(slog.String("format", format)).Wrap(err)
	}

	if err := emit(s.Stdout, prog); err != nil {
		return ErrWriteOutput.With(slog.String("format", format)).Wrap(err)
	}

	return nil
}
