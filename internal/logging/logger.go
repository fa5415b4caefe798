package logging

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/google/uuid"

	"github.com/kingrea/monorelease/internal/config"
	"github.com/kingrea/monorelease/internal/style"
)

// Level represents the severity of a log entry.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

// FileName is the log file inside .monorelease/logs.
const FileName = "monorelease.log"

// Logger appends timestamped lines to .monorelease/logs/monorelease.log and
// mirrors them to the console. The file always receives every level.
type Logger struct {
	mu           sync.Mutex
	path         string
	file         io.WriteCloser
	console      io.Writer
	consoleLevel Level
	palette      *style.Palette
	runID        string
	now          func() time.Time
}

// Option customizes a Logger.
type Option func(*Logger)

// WithConsole mirrors entries at or above level to w.
func WithConsole(w io.Writer, level Level) Option {
	return func(l *Logger) {
		l.console = w
		l.consoleLevel = level
	}
}

// WithPalette styles console output.
func WithPalette(p *style.Palette) Option {
	return func(l *Logger) {
		if p != nil {
			l.palette = p
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(l *Logger) {
		if now != nil {
			l.now = now
		}
	}
}

// WithRunID fixes the invocation id stamped on file lines.
func WithRunID(id string) Option {
	return func(l *Logger) {
		if id != "" {
			l.runID = id
		}
	}
}

// New creates (or reuses) the log file for the project directory.
func New(projectDir string, opts ...Option) (*Logger, error) {
	logDir := filepath.Join(projectDir, config.Dir, "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("logging: ensure log dir: %w", err)
	}
	path := filepath.Join(logDir, FileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logging: open log file: %w", err)
	}
	l := newLogger(opts...)
	l.path = path
	l.file = f
	return l, nil
}

// Console returns a logger that only writes to w.
func Console(w io.Writer, level Level, opts ...Option) *Logger {
	return newLogger(append([]Option{WithConsole(w, level)}, opts...)...)
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return newLogger()
}

func newLogger(opts ...Option) *Logger {
	l := &Logger{
		consoleLevel: LevelInfo,
		palette:      style.Plain(),
		runID:        uuid.NewString(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Path returns the file backing this logger.
func (l *Logger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// RunID identifies this invocation in the log file.
func (l *Logger) RunID() string {
	if l == nil {
		return ""
	}
	return l.runID
}

// Palette returns the console palette.
func (l *Logger) Palette() *style.Palette {
	if l == nil || l.palette == nil {
		return style.Plain()
	}
	return l.palette
}

// Close releases the file handle.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	err := l.file.Close()
	l.file = nil
	return err
}

// Log writes one entry.
func (l *Logger) Log(level Level, format string, args ...any) {
	if l == nil {
		return
	}
	message := strings.TrimRight(fmt.Sprintf(format, args...), "\n")
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		fmt.Fprintf(l.file, "%s %-5s [%s] %s\n",
			l.now().UTC().Format(time.RFC3339),
			level,
			shortID(l.runID),
			ansi.Strip(message),
		)
	}
	if l.console != nil && level >= l.consoleLevel {
		fmt.Fprintln(l.console, l.consoleLine(level, message))
	}
}

func (l *Logger) consoleLine(level Level, message string) string {
	p := l.Palette()
	switch level {
	case LevelWarn:
		return fmt.Sprintf("%s %s %s", p.Prefix(), p.Warn("warning:"), message)
	case LevelError:
		return fmt.Sprintf("%s %s %s", p.Prefix(), p.Error("error:"), message)
	case LevelDebug:
		return fmt.Sprintf("%s %s", p.Prefix(), p.Dim(message))
	default:
		return fmt.Sprintf("%s %s", p.Prefix(), message)
	}
}

// Debugf writes a debug entry.
func (l *Logger) Debugf(format string, args ...any) { l.Log(LevelDebug, format, args...) }

// Infof writes an informational entry.
func (l *Logger) Infof(format string, args ...any) { l.Log(LevelInfo, format, args...) }

// Warnf writes a warning entry.
func (l *Logger) Warnf(format string, args ...any) { l.Log(LevelWarn, format, args...) }

// Errorf writes an error entry.
func (l *Logger) Errorf(format string, args ...any) { l.Log(LevelError, format, args...) }

// Tail returns up to maxLines of the most recent file entries plus the total
// number of lines in the file.
func (l *Logger) Tail(maxLines int) ([]string, int) {
	if l == nil || l.path == "" || maxLines <= 0 {
		return nil, 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	file, err := os.Open(l.path)
	if err != nil {
		return nil, 0
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	total := len(lines)
	if total > maxLines {
		lines = lines[total-maxLines:]
	}
	return lines, total
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
