package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/kingrea/acme-blogs/internal/config"
)

// FileName is the structured log written under .acmeblogs/logs.
const FileName = "acmeblogs.log"

// Logger appends JSON lines to .acmeblogs/logs/acmeblogs.log. The terminal
// belongs to the TUI, so nothing is written to stdout.
type Logger struct {
	file  *os.File
	entry *logrus.Logger
}

// New creates (or reuses) the log file for the current project directory.
func New(projectDir string, level logrus.Level) (*Logger, error) {
	logDir := filepath.Join(projectDir, config.AppDir, "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("logging: ensure log dir: %w", err)
	}
	path := filepath.Join(logDir, FileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logging: open log file: %w", err)
	}
	l := newLogger(f, level)
	l.file = f
	return l, nil
}

// NewWriter builds a Logger over an arbitrary writer.
func NewWriter(w io.Writer, level logrus.Level) *Logger {
	return newLogger(w, level)
}

func newLogger(w io.Writer, level logrus.Level) *Logger {
	base := logrus.New()
	base.SetOutput(w)
	base.SetLevel(level)
	base.SetFormatter(&logrus.JSONFormatter{})
	return &Logger{entry: base}
}

// ParseLevel maps a level name to a logrus level, defaulting to info.
func ParseLevel(name string) logrus.Level {
	level, err := logrus.ParseLevel(strings.TrimSpace(name))
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

// Close releases the file handle.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}

// Printf writes a single info entry.
func (l *Logger) Printf(format string, args ...any) {
	if l == nil || l.entry == nil {
		return
	}
	l.entry.Info(strings.TrimRight(fmt.Sprintf(format, args...), "\n"))
}

// Fields exposes the structured logger for packages that log with fields.
func (l *Logger) Fields() logrus.FieldLogger {
	if l == nil || l.entry == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		return discard
	}
	return l.entry
}
