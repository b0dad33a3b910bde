// Package logger is the leveled logger shared by every tvrelay package.
//
// Messages are written as "[LEVEL] message" behind the configured prefix.
// By convention each message starts with its origin tag, "{pkg/file - Func}".
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

var levelNames = [...]string{DEBUG: "DEBUG", INFO: "INFO", WARN: "WARN", ERROR: "ERROR"}

// String returns the level tag written in front of each message.
func (lv LogLevel) String() string {
	if lv < DEBUG || lv > ERROR {
		return "INFO"
	}
	return levelNames[lv]
}

// DefaultPrefix starts every line unless Options.Prefix overrides it.
const DefaultPrefix = "[TVRELAY] "

// Options configures a Logger.
type Options struct {
	Level  string // DEBUG, INFO, WARN or ERROR; anything else is INFO
	Prefix string
	UTC    bool // UTC timestamps with microsecond precision
}

var (
	defaultLogger *Logger
	once          sync.Once
)

// Logger is a leveled logger instance
type Logger struct {
	mu    sync.RWMutex
	level LogLevel
	out   *log.Logger
}

// New creates a Logger at the given level with default options.
func New(level string) *Logger {
	return NewWithOptions(Options{Level: level})
}

// NewWithOptions creates a Logger writing to stdout.
func NewWithOptions(opts Options) *Logger {
	l := &Logger{out: log.New(os.Stdout, DefaultPrefix, log.LstdFlags)}
	l.Configure(opts)
	return l
}

func getDefaultLogger() *Logger {
	once.Do(func() {
		defaultLogger = New("INFO")
	})
	return defaultLogger
}

// ParseLogLevel converts string to LogLevel
func ParseLogLevel(level string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return DEBUG
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

// Configure applies opts to the default logger.
func Configure(opts Options) {
	getDefaultLogger().Configure(opts)
}

// SetLogLevel sets the default logger's level.
func SetLogLevel(level string) {
	getDefaultLogger().SetLevel(level)
}

// GetLogLevel returns the default logger's level.
func GetLogLevel() string {
	return getDefaultLogger().GetLevel()
}

// SetOutput redirects the default logger, mostly for tests.
func SetOutput(w io.Writer) {
	getDefaultLogger().SetOutput(w)
}

// StdLogger adapts the default logger for APIs that take a *log.Logger.
func StdLogger(level LogLevel, origin string) *log.Logger {
	return getDefaultLogger().StdLogger(level, origin)
}

// Configure replaces the level, prefix and timestamp format.
func (l *Logger) Configure(opts Options) {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	flags := log.LstdFlags
	if opts.UTC {
		flags |= log.LUTC | log.Lmicroseconds
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = ParseLogLevel(opts.Level)
	l.out.SetPrefix(prefix)
	l.out.SetFlags(flags)
}

func (l *Logger) SetLevel(level string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = ParseLogLevel(level)
}

func (l *Logger) SetOutput(w io.Writer) {
	l.out.SetOutput(w)
}

func (l *Logger) GetLevel() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.level.String()
}

// Enabled reports whether messages at level are written.
func (l *Logger) Enabled(level LogLevel) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return level >= l.level
}

func (l *Logger) logf(level LogLevel, format string, v ...interface{}) {
	if !l.Enabled(level) {
		return
	}
	l.out.Printf("[%s] %s", level, fmt.Sprintf(format, v...))
}

func (l *Logger) Debug(format string, v ...interface{}) { l.logf(DEBUG, format, v...) }
func (l *Logger) Info(format string, v ...interface{})  { l.logf(INFO, format, v...) }
func (l *Logger) Warn(format string, v ...interface{})  { l.logf(WARN, format, v...) }
func (l *Logger) Error(format string, v ...interface{}) { l.logf(ERROR, format, v...) }

// StdLogger returns a *log.Logger whose lines are re-logged on l at level,
// tagged with origin. net/http server errors go through here.
func (l *Logger) StdLogger(level LogLevel, origin string) *log.Logger {
	return log.New(&levelWriter{l: l, level: level, origin: origin}, "", 0)
}

type levelWriter struct {
	l      *Logger
	level  LogLevel
	origin string
}

func (w *levelWriter) Write(p []byte) (int, error) {
	w.l.logf(w.level, "%s %s", w.origin, strings.TrimRight(string(p), "\r\n"))
	return len(p), nil
}

func Debug(format string, v ...interface{}) { getDefaultLogger().Debug(format, v...) }
func Info(format string, v ...interface{})  { getDefaultLogger().Info(format, v...) }
func Warn(format string, v ...interface{})  { getDefaultLogger().Warn(format, v...) }
func Error(format string, v ...interface{}) { getDefaultLogger().Error(format, v...) }
