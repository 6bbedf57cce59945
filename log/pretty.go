package log

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// palette holds the styles of a pretty handler. Styles render through a
// renderer bound to the output, so they degrade to plain text when the
// output is not a terminal.
type palette struct {
	key, str, num, time lipgloss.Style
	yes, no, null       lipgloss.Style
	levels              map[slog.Level]lipgloss.Style
}

func makePalette(w io.Writer) palette {
	r := lipgloss.NewRenderer(w)
	base := r.NewStyle().TabWidth(lipgloss.NoTabConversion)

	fg := func(c string) lipgloss.Style { return base.Foreground(lipgloss.Color(c)) }

	return palette{
		key:  base.Faint(true),
		str:  fg("6"),
		num:  fg("3"),
		time: fg("4"),
		yes:  fg("2"),
		no:   fg("1"),
		null: base.Faint(true),
		levels: map[slog.Level]lipgloss.Style{
			slog.Level(LevelTrace): fg("5"),
			slog.LevelDebug:        fg("4"),
			slog.LevelInfo:         fg("2").Bold(true),
			slog.LevelWarn:         fg("3").Bold(true),
			slog.LevelError:        fg("1").Bold(true),
		},
	}
}

func (p palette) level(l slog.Level) lipgloss.Style {
	switch {
	case l >= slog.LevelError:
		return p.levels[slog.LevelError]
	case l >= slog.LevelWarn:
		return p.levels[slog.LevelWarn]
	case l >= slog.LevelInfo:
		return p.levels[slog.LevelInfo]
	case l >= slog.LevelDebug:
		return p.levels[slog.LevelDebug]
	}

	return p.levels[slog.Level(LevelTrace)]
}

// prettyHandler writes records as styled "key=value" lines (text) or as
// indented objects (json). Attributes inside groups are flattened to
// dotted keys.
type prettyHandler struct {
	opts   slog.HandlerOptions
	w      io.Writer
	mu     *sync.Mutex
	colors palette
	attrs  []slog.Attr
	prefix string
	json   bool
}

func newPrettyHandler(w io.Writer, format Format, opts *slog.HandlerOptions) *prettyHandler {
	return &prettyHandler{
		opts:   *opts,
		w:      w,
		mu:     &sync.Mutex{},
		colors: makePalette(w),
		json:   format == FormatJSON,
	}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	threshold := slog.LevelInfo
	if h.opts.Level != nil {
		threshold = h.opts.Level.Level()
	}

	return level >= threshold
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = append(h.attrs[:len(h.attrs):len(h.attrs)], h.qualify(attrs)...)

	return &c
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	c := *h
	c.prefix = h.prefix + name + "."

	return &c
}

func (h *prettyHandler) qualify(attrs []slog.Attr) []slog.Attr {
	if h.prefix == "" {
		return attrs
	}

	out := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		out[i] = slog.Attr{Key: h.prefix + a.Key, Value: a.Value}
	}

	return out
}

// field is one rendered key and its styled value.
type field struct {
	key, value string
}

func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	var fields []field

	h.builtin(&fields, slog.Time(slog.TimeKey, r.Time), !r.Time.IsZero())
	h.builtin(&fields, slog.Any(slog.LevelKey, r.Level), true)

	if h.opts.AddSource {
		if src := r.Source(); src != nil {
			h.builtin(&fields,
				slog.String(slog.SourceKey, src.File+":"+strconv.Itoa(src.Line)), true)
		}
	}

	h.builtin(&fields, slog.String(slog.MessageKey, r.Message), true)

	for _, a := range h.attrs {
		h.flatten(&fields, nil, a, r.Level)
	}

	r.Attrs(func(a slog.Attr) bool {
		h.flatten(&fields, nil, slog.Attr{Key: h.prefix + a.Key, Value: a.Value}, r.Level)

		return true
	})

	var buf bytes.Buffer

	if h.json {
		buf.WriteString("{\n")

		for i, f := range fields {
			buf.WriteString("  ")
			buf.WriteString(f.key)
			buf.WriteString(": ")
			buf.WriteString(f.value)

			if i < len(fields)-1 {
				buf.WriteByte(',')
			}

			buf.WriteByte('\n')
		}

		buf.WriteString("}\n")
	} else {
		for i, f := range fields {
			if i > 0 {
				buf.WriteByte(' ')
			}

			buf.WriteString(f.key)
			buf.WriteByte('=')
			buf.WriteString(f.value)
		}

		buf.WriteByte('\n')
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.w.Write(buf.Bytes())

	return err
}

func (h *prettyHandler) builtin(fields *[]field, a slog.Attr, present bool) {
	if !present {
		return
	}

	level := slog.LevelInfo
	if l, ok := a.Value.Any().(slog.Level); ok {
		level = l
	}

	if h.opts.ReplaceAttr != nil {
		a = h.opts.ReplaceAttr(nil, a)
	}

	if a.Key == "" {
		return
	}

	if a.Key == slog.LevelKey {
		*fields = append(*fields, field{
			key:   h.styleKey(a.Key),
			value: h.colors.level(level).Render(h.quote(a.Value.Resolve().String())),
		})

		return
	}

	h.flatten(fields, nil, a, level)
}

func (h *prettyHandler) flatten(fields *[]field, groups []string, a slog.Attr, level slog.Level) {
	a.Value = a.Value.Resolve()

	if h.opts.ReplaceAttr != nil && a.Value.Kind() != slog.KindGroup {
		a = h.opts.ReplaceAttr(groups, a)
		a.Value = a.Value.Resolve()
	}

	if a.Equal(slog.Attr{}) {
		return
	}

	if a.Value.Kind() == slog.KindGroup {
		sub := groups
		if a.Key != "" {
			sub = append(groups[:len(groups):len(groups)], a.Key)
		}

		for _, ga := range a.Value.Group() {
			h.flatten(fields, sub, ga, level)
		}

		return
	}

	key := strings.Join(append(groups[:len(groups):len(groups)], a.Key), ".")

	*fields = append(*fields, field{key: h.styleKey(key), value: h.styleValue(a.Value)})
}

func (h *prettyHandler) styleKey(key string) string {
	if h.json {
		key = strconv.Quote(key)
	}

	return h.colors.key.Render(key)
}

func (h *prettyHandler) quote(s string) string {
	if h.json {
		return strconv.Quote(s)
	}

	return s
}

func (h *prettyHandler) styleValue(v slog.Value) string {
	p := h.colors

	switch v.Kind() {
	case slog.KindString:
		return p.str.Render(h.quote(v.String()))
	case slog.KindInt64:
		return p.num.Render(strconv.FormatInt(v.Int64(), 10))
	case slog.KindUint64:
		return p.num.Render(strconv.FormatUint(v.Uint64(), 10))
	case slog.KindFloat64:
		return p.num.Render(h.float(v.Float64()))
	case slog.KindBool:
		if v.Bool() {
			return p.yes.Render("true")
		}

		return p.no.Render("false")
	case slog.KindDuration:
		return p.num.Render(h.quote(v.Duration().String()))
	case slog.KindTime:
		return p.time.Render(h.quote(v.Time().Format(time.RFC3339Nano)))
	}

	switch x := v.Any().(type) {
	case nil:
		return p.null.Render("null")
	case error:
		return p.str.Render(h.quote(x.Error()))
	}

	if h.json {
		if b, err := json.Marshal(v.Any()); err == nil {
			return p.str.Render(string(b))
		}
	}

	return p.str.Render(h.quote(v.String()))
}

func (h *prettyHandler) float(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if h.json && (strings.Contains(s, "Inf") || s == "NaN") {
		return strconv.Quote(s)
	}

	return s
}
