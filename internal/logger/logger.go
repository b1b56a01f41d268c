// Package logger builds the structured logger shared by the server and its
// middleware.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// Attribute keys with a dedicated slot in pretty output.
const (
	ServiceKey   = "service"
	RequestIDKey = "request_id"
)

// Options selects level and output format.
type Options struct {
	Level   string // debug, info, warn, error
	Format  string // json or pretty
	Service string
}

// New returns a logger writing to w. Format "pretty" produces coloured,
// human oriented lines; anything else produces JSON.
func New(w io.Writer, opts Options) *slog.Logger {
	level := ParseLevel(opts.Level)

	var h slog.Handler
	if strings.EqualFold(opts.Format, "pretty") {
		h = &PrettyHandler{w: w, level: level, mu: &sync.Mutex{}}
	} else {
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	}

	l := slog.New(h)
	if opts.Service != "" {
		l = l.With(slog.String(ServiceKey, opts.Service))
	}
	return l
}

// ParseLevel maps a level name to slog.Level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// PrettyHandler renders one coloured header line per record followed by
// indented attributes, sorted by key. Grouped attributes are shown with a
// dotted key prefix.
type PrettyHandler struct {
	w     io.Writer
	level slog.Level
	attrs []slog.Attr // keys already qualified by the group open when added
	group string
	mu    *sync.Mutex
}

func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	levelColor := levelColorFunc(r.Level)
	timestamp := color.New(color.FgWhite, color.Faint).Sprint(r.Time.Format("2006/01/02 15:04:05"))

	var service, requestID string
	fields := map[string]any{}
	collect := func(a slog.Attr) {
		switch a.Key {
		case ServiceKey:
			service = a.Value.String()
		case RequestIDKey:
			requestID = a.Value.String()
		default:
			fields[a.Key] = a.Value.Any()
		}
	}
	for _, a := range h.attrs {
		collect(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		collect(h.qualify(a))
		return true
	})

	var ctxParts []string
	if service != "" {
		ctxParts = append(ctxParts, "svc:"+service)
	}
	if requestID != "" {
		ctxParts = append(ctxParts, "rid:"+requestID)
	}
	prefix := ""
	if len(ctxParts) > 0 {
		prefix = "[" + strings.Join(ctxParts, " ") + "] "
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s%s", timestamp, levelColor("%-5s", r.Level.String()), prefix, r.Message)

	if len(fields) > 0 {
		lines := make([]string, 0, len(fields))
		for k, v := range fields {
			lines = append(lines, fmt.Sprintf("    %-12s: %v", k, v))
		}
		sort.Strings(lines)
		b.WriteString("\n")
		b.WriteString(strings.Join(lines, "\n"))
	}
	b.WriteString("\n")

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	nh := *h
	nh.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	nh.attrs = append(nh.attrs, h.attrs...)
	for _, a := range attrs {
		nh.attrs = append(nh.attrs, h.qualify(a))
	}
	return &nh
}

func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	nh := *h
	if nh.group != "" {
		name = nh.group + "." + name
	}
	nh.group = name
	return &nh
}

// qualify prefixes a's key with the currently open group.
func (h *PrettyHandler) qualify(a slog.Attr) slog.Attr {
	if h.group == "" {
		return a
	}
	return slog.Attr{Key: h.group + "." + a.Key, Value: a.Value}
}

func levelColorFunc(l slog.Level) func(format string, a ...any) string {
	switch {
	case l >= slog.LevelError:
		return color.New(color.FgRed).SprintfFunc()
	case l >= slog.LevelWarn:
		return color.New(color.FgYellow).SprintfFunc()
	case l >= slog.LevelInfo:
		return color.New(color.FgGreen).SprintfFunc()
	}
	return color.New(color.FgCyan).SprintfFunc()
}

// WithRequestID adds the request id to logger.
func WithRequestID(l *slog.Logger, requestID string) *slog.Logger {
	return l.With(slog.String(RequestIDKey, requestID))
}
