package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

var (
	timeColor  = color.New(color.FgHiBlack)
	fileColor  = color.New(color.FgMagenta)
	attrColor  = color.New(color.FgCyan)
	errorColor = color.New(color.FgRed, color.Bold)
	warnColor  = color.New(color.FgYellow, color.Bold)
	infoColor  = color.New(color.FgBlue, color.Bold)
	debugColor = color.New(color.FgHiBlack, color.Bold)
)

// PrettyHandler writes records as
//
//	15:04:05 INF [c0m001.dat] message key=value
//
// The file attribute, when present, becomes the bracketed tag.
type PrettyHandler struct {
	level  slog.Leveler
	w      io.Writer
	mu     *sync.Mutex
	prefix string
	file   string
	attrs  []slog.Attr
}

// NewPrettyHandler returns a PrettyHandler writing to w. Only opts.Level is
// used.
func NewPrettyHandler(w io.Writer, opts *slog.HandlerOptions) *PrettyHandler {
	h := &PrettyHandler{w: w, mu: new(sync.Mutex), level: slog.LevelInfo}
	if opts != nil && opts.Level != nil {
		h.level = opts.Level
	}
	return h
}

func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	file := h.file
	attrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+r.NumAttrs())
	copy(attrs, h.attrs)
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == KeyFile && h.prefix == "" {
			file = a.Value.String()
			return true
		}
		attrs = append(attrs, h.qualify(a))
		return true
	})

	var sb strings.Builder
	sb.WriteString(timeColor.Sprint(r.Time.Format(time.TimeOnly)))
	sb.WriteByte(' ')
	sb.WriteString(levelColor(r.Level).Sprint(levelTag(r.Level)))
	if file != "" {
		sb.WriteByte(' ')
		sb.WriteString(fileColor.Sprint("[" + file + "]"))
	}
	sb.WriteByte(' ')
	sb.WriteString(r.Message)
	for _, a := range attrs {
		sb.WriteByte(' ')
		sb.WriteString(attrColor.Sprint(formatAttr(a)))
	}
	sb.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, sb.String())
	return err
}

func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(c.attrs, h.attrs)
	for _, a := range attrs {
		if a.Key == KeyFile && h.prefix == "" {
			c.file = a.Value.String()
			continue
		}
		c.attrs = append(c.attrs, h.qualify(a))
	}
	return &c
}

func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	c.prefix = h.prefix + name + "."
	return &c
}

func (h *PrettyHandler) qualify(a slog.Attr) slog.Attr {
	a.Key = h.prefix + a.Key
	return a
}

func levelColor(level slog.Level) *color.Color {
	switch {
	case level >= slog.LevelError:
		return errorColor
	case level >= slog.LevelWarn:
		return warnColor
	case level >= slog.LevelInfo:
		return infoColor
	default:
		return debugColor
	}
}

func levelTag(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERR"
	case level >= slog.LevelWarn:
		return "WRN"
	case level >= slog.LevelInfo:
		return "INF"
	default:
		return "DBG"
	}
}

func formatAttr(a slog.Attr) string {
	v := a.Value.Resolve()
	switch v.Kind() {
	case slog.KindGroup:
		parts := make([]string, 0, len(v.Group()))
		for _, g := range v.Group() {
			g.Key = a.Key + "." + g.Key
			parts = append(parts, formatAttr(g))
		}
		return strings.Join(parts, " ")
	case slog.KindDuration:
		return a.Key + "=" + v.Duration().Round(time.Microsecond).String()
	case slog.KindTime:
		return a.Key + "=" + v.Time().Format(time.RFC3339)
	case slog.KindString:
		return a.Key + "=" + quoteIfNeeded(v.String())
	default:
		return a.Key + "=" + quoteIfNeeded(fmt.Sprint(v.Any()))
	}
}

func quoteIfNeeded(s string) string {
	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		return strconv.Quote(s)
	}
	return s
}
