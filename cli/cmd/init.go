package cmd

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/calc/pkg"
	"github.com/ardnew/calc/profile"
)

// defaultConfigIndent is the indent width of the generated YAML.
const defaultConfigIndent = 2

// Init writes the current flag values to the YAML configuration file.
type Init struct {
	Force bool `help:"Overwrite existing configuration file" short:"f"`
}

// Run executes the init command.
func (i *Init) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	confPath := kongVar(ctx, ConfigIdentifier, pkg.ConfigPath("config.yaml"))

	if _, err := os.Stat(confPath); err == nil && !i.Force {
		return ErrWriteConfig.
			With(slog.String("file", confPath), slog.Bool("exists", true)).
			Wrap(ErrFileExists)
	}

	data, err := yaml.MarshalWithOptions(
		i.settings(ctx),
		yaml.Indent(defaultConfigIndent),
		yaml.IndentSequence(true),
	)
	if err != nil {
		return ErrYAMLMarshal.Wrap(err)
	}

	if err := os.MkdirAll(filepath.Dir(confPath), pkg.DirMode); err != nil {
		return ErrWriteConfig.With(slog.String("file", confPath)).Wrap(err)
	}

	if err := os.WriteFile(confPath, data, 0o600); err != nil {
		return ErrWriteConfig.With(slog.String("file", confPath)).Wrap(err)
	}

	settingsFrom(ctx).Logger.DebugContext(ctx, "initialized configuration file",
		slog.String("path", confPath),
		slog.Int("setting_count", len(i.settings(ctx))),
	)

	return nil
}

// settings returns the value of every configurable flag in declaration
// order. Help, version and profiling flags are omitted, as are flags whose
// value is empty.
func (i *Init) settings(ctx context.Context) yaml.MapSlice {
	ktx := kongContextFrom(ctx)
	if ktx == nil {
		return nil
	}

	var out yaml.MapSlice

	for _, flag := range ktx.Model.Flags {
		if skipFlag(flag) {
			continue
		}

		if v, ok := configValue(ktx.FlagValue(flag)); ok {
			out = append(out, yaml.MapItem{Key: flag.Name, Value: v})
		}
	}

	return out
}

func skipFlag(flag *kong.Flag) bool {
	switch {
	case flag.Hidden, flag.Name == "help", flag.Name == "version":
		return true
	}

	return strings.HasPrefix(flag.Name, profile.Tag+"-")
}

// configValue converts a flag value to its YAML form, reporting false for
// values not worth recording.
func configValue(v any) (any, bool) {
	if v == nil {
		return nil, false
	}

	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.String:
		if rv.Len() == 0 {
			return nil, false
		}

		return rv.String(), true

	case reflect.Slice:
		if rv.Len() == 0 {
			return nil, false
		}

		items := make([]any, rv.Len())
		for i := range items {
			items[i], _ = configValue(rv.Index(i).Interface())
		}

		return items, true

	case reflect.Bool:
		return rv.Bool(), true

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint(), true

	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}

	return nil, false
}
