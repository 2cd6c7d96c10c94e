package logbook

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Level is the severity printed in front of each journey line.
type Level string

const (
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// DefaultCapacity is how many recent lines a Logbook keeps in memory.
const DefaultCapacity = 256

// Logbook records the user's journey (selections, toggles, failures) in a
// plain text file and keeps the most recent lines in memory for the TUI log
// panel. Lines written before the process started are loaded by New.
type Logbook struct {
	path     string
	now      func() time.Time
	capacity int

	mu     sync.Mutex
	recent []string // ring, oldest at head
	head   int
	total  int
}

// Option customises a Logbook.
type Option func(*Logbook)

// WithClock replaces the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(l *Logbook) {
		if now != nil {
			l.now = now
		}
	}
}

// WithCapacity bounds the in-memory tail. Values below one are ignored.
func WithCapacity(n int) Option {
	return func(l *Logbook) {
		if n > 0 {
			l.capacity = n
		}
	}
}

// New opens the journey file at path, creating its directory, and loads the
// tail of any existing content.
func New(path string, opts ...Option) (*Logbook, error) {
	l := &Logbook{path: path, now: time.Now, capacity: DefaultCapacity}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	if err := l.load(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Logbook) load() error {
	file, err := os.Open(l.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open journey %s: %w", l.path, err)
	}
	defer file.Close()
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		l.remember(scanner.Text())
	}
	return scanner.Err()
}

// remember pushes line into the ring. Callers hold mu or own l exclusively.
func (l *Logbook) remember(line string) {
	l.total++
	if len(l.recent) < l.capacity {
		l.recent = append(l.recent, line)
		return
	}
	l.recent[l.head] = line
	l.head = (l.head + 1) % l.capacity
}

// Path returns the file backing this logbook.
func (l *Logbook) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Append records one line. The line stays visible through Tail even when the
// file write fails.
func (l *Logbook) Append(level Level, message string) {
	if l == nil {
		return
	}
	line := fmt.Sprintf("%s %-5s %s",
		l.now().UTC().Format(time.RFC3339), level, strings.TrimSpace(message))

	l.mu.Lock()
	defer l.mu.Unlock()
	l.remember(line)
	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return
	}
	_, _ = file.WriteString(line + "\n")
	_ = file.Close()
}

// Tail returns up to n of the newest lines, oldest first, and how many lines
// the journey holds in total.
func (l *Logbook) Tail(n int) ([]string, int) {
	if l == nil || n <= 0 {
		return nil, 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	size := len(l.recent)
	if size == 0 {
		return nil, l.total
	}
	if n > size {
		n = size
	}
	out := make([]string, 0, n)
	for i := size - n; i < size; i++ {
		out = append(out, l.recent[(l.head+i)%size])
	}
	return out, l.total
}

func (l *Logbook) Info(format string, args ...any) {
	l.Append(LevelInfo, fmt.Sprintf(format, args...))
}

func (l *Logbook) Warn(format string, args ...any) {
	l.Append(LevelWarn, fmt.Sprintf(format, args...))
}

func (l *Logbook) Error(format string, args ...any) {
	l.Append(LevelError, fmt.Sprintf(format, args...))
}
