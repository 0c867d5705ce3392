// ABOUTME: Process logger construction from the logging config section
// ABOUTME: Colorized text handler for terminals, JSON handler for machines

package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/2389/chatbcg/internal/config"
)

// ParseLevel maps a config level name to a slog.Level. Unknown names mean info.
func ParseLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New builds a logger writing to out.
func New(cfg config.LoggingConfig, out io.Writer) *slog.Logger {
	level := ParseLevel(cfg.Level)

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level})
	} else {
		handler = &colorHandler{
			mu:      &sync.Mutex{},
			out:     out,
			level:   level,
			noColor: !isTerminal(out),
		}
	}

	return slog.New(handler)
}

// Open builds a logger for cfg. When cfg.File (or fallbackFile, if cfg.File is
// empty) names a path, the log is appended there and the returned closer closes
// it; otherwise the logger writes to stderr.
func Open(cfg config.LoggingConfig, fallbackFile string) (*slog.Logger, io.Closer, error) {
	path := cfg.File
	if path == "" {
		path = fallbackFile
	}
	if path == "" {
		return New(cfg, os.Stderr), io.NopCloser(nil), nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	return New(cfg, f), f, nil
}

// StateFile returns the default log file for full-screen sessions.
// Priority: XDG_STATE_HOME/chatbcg > ~/.local/state/chatbcg
func StateFile() string {
	stateDir := os.Getenv("XDG_STATE_HOME")
	if stateDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "chatbcg.log"
		}
		stateDir = filepath.Join(homeDir, ".local", "state")
	}
	return filepath.Join(stateDir, "chatbcg", "chatbcg.log")
}

// isTerminal reports whether out is a terminal. Files, pipes and buffers are not.
func isTerminal(out io.Writer) bool {
	f, ok := out.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

var (
	timeColor  = color.New(color.FgHiBlack)
	errColor   = color.New(color.FgRed, color.Bold)
	warnColor  = color.New(color.FgYellow)
	infoColor  = color.New(color.FgCyan)
	debugColor = color.New(color.FgMagenta)
)

// colorHandler provides colorized log output with thread-safe writes.
// Clones share the mutex so lines from derived loggers never interleave.
// Output written anywhere but a terminal is plain.
type colorHandler struct {
	mu      *sync.Mutex
	out     io.Writer
	level   slog.Level
	noColor bool
	attrs   []slog.Attr
	groups  []string
}

func (h *colorHandler) paint(c *color.Color, s string) string {
	if h.noColor {
		return s
	}
	return c.Sprint(s)
}

func (h *colorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *colorHandler) Handle(_ context.Context, r slog.Record) error {
	var buf strings.Builder

	buf.WriteString(h.paint(timeColor, r.Time.Format("15:04:05")+" "))

	switch {
	case r.Level >= slog.LevelError:
		buf.WriteString(h.paint(errColor, "ERR "))
	case r.Level >= slog.LevelWarn:
		buf.WriteString(h.paint(warnColor, "WRN "))
	case r.Level >= slog.LevelInfo:
		buf.WriteString(h.paint(infoColor, "INF "))
	default:
		buf.WriteString(h.paint(debugColor, "DBG "))
	}

	buf.WriteString(r.Message)

	prefix := ""
	if len(h.groups) > 0 {
		prefix = strings.Join(h.groups, ".") + "."
	}

	for _, a := range h.attrs {
		h.writeAttr(&buf, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		h.writeAttr(&buf, prefix, a)
		return true
	})

	buf.WriteString("\n")

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, buf.String())
	return err
}

func (h *colorHandler) writeAttr(buf *strings.Builder, prefix string, a slog.Attr) {
	buf.WriteString(h.paint(timeColor, " "+prefix+a.Key+"="))
	buf.WriteString(a.Value.String())
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	prefix := ""
	if len(h.groups) > 0 {
		prefix = strings.Join(h.groups, ".") + "."
	}
	newAttrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	for _, a := range attrs {
		newAttrs = append(newAttrs, slog.Attr{Key: prefix + a.Key, Value: a.Value})
	}
	return &colorHandler{
		mu:      h.mu,
		out:     h.out,
		level:   h.level,
		noColor: h.noColor,
		attrs:   newAttrs,
		groups:  h.groups,
	}
}

func (h *colorHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	newGroups := make([]string, len(h.groups), len(h.groups)+1)
	copy(newGroups, h.groups)
	newGroups = append(newGroups, name)
	return &colorHandler{
		mu:      h.mu,
		out:     h.out,
		level:   h.level,
		noColor: h.noColor,
		attrs:   h.attrs,
		groups:  newGroups,
	}
}
