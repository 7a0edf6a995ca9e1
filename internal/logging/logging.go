// Package logging wires zerolog as the process logger.
package logging

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config controls logger initialization.
type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json or console
	Component  string // optional component field
	FilePath   string // optional rotating log file
	MaxSizeMB  int
	MaxBackups int

	// Output replaces stderr; used by tests.
	Output io.Writer
}

const (
	defaultMaxSizeMB  = 50
	defaultMaxBackups = 3
)

var (
	mu         sync.Mutex
	fileCloser io.Closer
)

// Init replaces the global zerolog logger and points the standard library
// logger at it.
func Init(cfg Config) zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()

	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	var w io.Writer = out
	if strings.EqualFold(strings.TrimSpace(cfg.Format), "console") {
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}

	if fileCloser != nil {
		_ = fileCloser.Close()
		fileCloser = nil
	}
	if fw := newFileWriter(cfg); fw != nil {
		w = zerolog.MultiLevelWriter(w, fw)
		fileCloser = fw
	}

	ctx := zerolog.New(w).With().Timestamp()
	if c := strings.TrimSpace(cfg.Component); c != "" {
		ctx = ctx.Str("component", c)
	}
	logger := ctx.Logger()
	log.Logger = logger

	stdlog.SetFlags(0)
	stdlog.SetOutput(logger)
	return logger
}

// Shutdown flushes and closes the log file, if any.
func Shutdown() {
	mu.Lock()
	defer mu.Unlock()
	if fileCloser != nil {
		_ = fileCloser.Close()
		fileCloser = nil
	}
}

func newFileWriter(cfg Config) *lumberjack.Logger {
	path := strings.TrimSpace(cfg.FilePath)
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "logging: cannot create log dir: %v\n", err)
		return nil
	}
	size := cfg.MaxSizeMB
	if size <= 0 {
		size = defaultMaxSizeMB
	}
	backups := cfg.MaxBackups
	if backups <= 0 {
		backups = defaultMaxBackups
	}
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    size,
		MaxBackups: backups,
		Compress:   true,
	}
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return zerolog.InfoLevel
	case "debug":
		return zerolog.DebugLevel
	case "trace":
		return zerolog.TraceLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		fmt.Fprintf(os.Stderr, "logging: invalid level %q, using info\n", level)
		return zerolog.InfoLevel
	}
}
