package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/calc/log"
)

// resolveYAML is a [kong.ConfigurationLoader] for YAML configuration files
// such as the one written by the init command.
//
// Keys are flag names. Underscores may stand in for hyphens, and nested
// mappings are joined with hyphens, so these are equivalent:
//
//	log-level: debug
//	log_level: debug
//	log:
//	  level: debug
//
// Sequences become comma-separated lists. Command-line flags override
// configuration values. A file that does not parse is ignored with a
// warning.
func resolveYAML(r io.Reader) (kong.Resolver, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var doc map[string]any

	if err := yaml.Unmarshal(data, &doc); err != nil {
		log.Warn("ignoring invalid configuration", slog.Any("error", err))

		return config{}, nil
	}

	c := make(config)
	c.flatten("", doc)

	return c, nil
}

// config implements [kong.Resolver] over flattened YAML keys.
type config map[string]any

func (c config) flatten(prefix string, m map[string]any) {
	for key, value := range m {
		key = prefix + strings.ReplaceAll(key, "_", "-")

		if sub, ok := value.(map[string]any); ok {
			c.flatten(key+"-", sub)

			continue
		}

		c[key] = flagValue(value)
	}
}

// flagValue converts a decoded YAML value to a form kong's mappers accept.
// Numbers are rendered as strings.
func flagValue(value any) any {
	switch v := value.(type) {
	case nil, bool, string:
		return v
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []any:
		items := make([]string, len(v))
		for i, item := range v {
			items[i] = fmt.Sprint(flagValue(item))
		}

		return strings.Join(items, ",")
	}

	return fmt.Sprint(value)
}

// Validate implements [kong.Resolver].
func (c config) Validate(*kong.Application) error { return nil }

// Resolve implements [kong.Resolver].
func (c config) Resolve(_ *kong.Context, _ *kong.Path, flag *kong.Flag) (any, error) {
	if value, ok := c[flag.Name]; ok && value != nil {
		return value, nil
	}

	return nil, nil
}
