package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"

	"github.com/use-agent/shelfscan/config"
)

// Field names shared by the access log and the outbound round tripper.
const (
	FieldRequestID      = "request-id"
	FieldHTTPMethod     = "http-method"
	FieldURL            = "url"
	FieldResponseStatus = "response-status"
	FieldDurationMs     = "duration-ms"
	FieldIP             = "ip"
	FieldError          = "error"
)

// Err is an error attribute that tint renders in red.
func Err(err error) slog.Attr {
	return tint.Attr(9, slog.Any(FieldError, err))
}

// ParseLevel maps a config level name to a slog level. Unknown names mean info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New builds a logger writing to w: colored text through tint for
// format "text", JSON otherwise.
func New(w io.Writer, cfg config.LogConfig) *slog.Logger {
	level := ParseLevel(cfg.Level)

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
			NoColor:    !isTerminal(w),
		})
	} else {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	}
	return slog.New(handler)
}

// Init installs the default logger on stdout.
func Init(cfg config.LogConfig) {
	slog.SetDefault(New(os.Stdout, cfg))
}

// InitStderr installs the default logger on stderr, for processes whose
// stdout carries a protocol.
func InitStderr(cfg config.LogConfig) {
	slog.SetDefault(New(os.Stderr, cfg))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
