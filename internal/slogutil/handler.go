// Package slogutil provides the slog handlers, rotating log files and logger
// construction used by the server and CLI.
package slogutil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RequestIDKey is the attribute the HTTP layer logs request ids under.
// TextHandler lifts it out of the attribute list into the line prefix.
const RequestIDKey = "requestID"

// TextHandler is a slog handler producing one line per record:
//
//	2024-01-02T15:04:05Z [info] (req=1f0c…) Message | key=value key=value
//
// The request tag appears only when the record carries a non-empty
// RequestIDKey attribute.
type TextHandler struct {
	out     *lockedWriter
	level   slog.Leveler
	replace func(groups []string, a slog.Attr) slog.Attr
	prefix  string // dotted group path for attributes added from now on
	groups  []string
	preset  []slog.Attr
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewTextHandler creates a text handler writing to w.
func NewTextHandler(w io.Writer, opts *slog.HandlerOptions) *TextHandler {
	h := &TextHandler{out: &lockedWriter{w: w}, level: slog.LevelInfo}
	if opts != nil {
		if opts.Level != nil {
			h.level = opts.Level
		}
		h.replace = opts.ReplaceAttr
	}
	return h
}

// Enabled reports whether the handler handles records at the given level.
func (h *TextHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle formats and writes the log record.
func (h *TextHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := make([]slog.Attr, 0, len(h.preset)+r.NumAttrs())
	attrs = append(attrs, h.preset...)
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, h.qualify(a))
		return true
	})

	var reqID string
	kept := attrs[:0]
	for _, a := range attrs {
		if a.Key == RequestIDKey && reqID == "" {
			if s := a.Value.String(); s != "" {
				reqID = s
				continue
			}
		}
		kept = append(kept, a)
	}

	line := make([]byte, 0, 128)
	line = r.Time.UTC().AppendFormat(line, time.RFC3339)
	line = append(line, " ["...)
	line = append(line, levelString(r.Level)...)
	line = append(line, "] "...)
	if reqID != "" {
		line = append(line, "(req="...)
		line = append(line, reqID...)
		line = append(line, ") "...)
	}
	line = append(line, r.Message...)

	sep := " | "
	for _, a := range kept {
		if a.Key == "" {
			continue
		}
		line = append(line, sep...)
		sep = " "
		line = append(line, a.Key...)
		line = append(line, '=')
		line = appendValue(line, a.Value)
	}
	line = append(line, '\n')

	h.out.mu.Lock()
	defer h.out.mu.Unlock()
	_, err := h.out.w.Write(line)
	return err
}

// qualify applies the group prefix and ReplaceAttr to a
func (h *TextHandler) qualify(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()
	if h.replace != nil && a.Value.Kind() != slog.KindGroup {
		a = h.replace(h.groups, a)
	}
	if h.prefix != "" && a.Key != "" {
		a.Key = h.prefix + a.Key
	}
	return a
}

// WithAttrs returns a new handler with the given attributes added.
func (h *TextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	clone := *h
	clone.preset = make([]slog.Attr, 0, len(h.preset)+len(attrs))
	clone.preset = append(clone.preset, h.preset...)
	for _, a := range attrs {
		clone.preset = append(clone.preset, h.qualify(a))
	}
	return &clone
}

// WithGroup returns a new handler whose later attributes are prefixed
// with name.
func (h *TextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(append([]string(nil), h.groups...), name)
	clone.prefix = strings.Join(clone.groups, ".") + "."
	return &clone
}

// levelString returns a lowercase string for the log level.
func levelString(level slog.Level) string {
	switch {
	case level < slog.LevelInfo:
		return "debug"
	case level < slog.LevelWarn:
		return "info"
	case level < slog.LevelError:
		return "warn"
	default:
		return "error"
	}
}

// appendValue formats v for display.
func appendValue(dst []byte, v slog.Value) []byte {
	switch v.Kind() {
	case slog.KindString:
		return append(dst, v.String()...)
	case slog.KindInt64:
		return strconv.AppendInt(dst, v.Int64(), 10)
	case slog.KindUint64:
		return strconv.AppendUint(dst, v.Uint64(), 10)
	case slog.KindBool:
		return strconv.AppendBool(dst, v.Bool())
	case slog.KindTime:
		return v.Time().AppendFormat(dst, time.RFC3339)
	case slog.KindDuration:
		return append(dst, v.Duration().String()...)
	default:
		return fmt.Append(dst, v.Any())
	}
}
