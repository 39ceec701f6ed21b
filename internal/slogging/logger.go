package slogging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// LogLevel represents logging verbosity
type LogLevel int

const (
	// LogLevelDebug includes every statement issued against the datastore
	LogLevelDebug LogLevel = iota
	// LogLevelInfo includes lifecycle messages (connect, migrate, purge)
	LogLevelInfo
	// LogLevelWarn includes warnings and errors only
	LogLevelWarn
	// LogLevelError includes only errors
	LogLevelError
)

const (
	defaultLogDir  = "logs"
	defaultLogFile = "mgmtrepo.log"

	// LogDirEnv overrides the log directory used by Get before Initialize runs
	LogDirEnv = "MGMT_LOG_DIR"
)

var (
	globalMu     sync.Mutex
	globalLogger *Logger
)

// SimpleLogger is the printf-style subset used by packages that only need plain messages
type SimpleLogger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Logger is the slog-based logging component
type Logger struct {
	slogger    *slog.Logger
	level      LogLevel
	isDev      bool
	fileLogger *lumberjack.Logger
}

// Config holds configuration options for the logger
type Config struct {
	// Level is the minimum log level to output
	Level LogLevel
	// IsDev selects the text handler and adds file:line source info
	IsDev bool
	// LogDir is the directory to store log files
	LogDir string
	// FileName is the name of the rotated log file inside LogDir
	FileName string
	// MaxAgeDays is the maximum number of days to retain logs
	MaxAgeDays int
	// MaxSizeMB is the maximum size of a log file in MB before rotation
	MaxSizeMB int
	// MaxBackups is the maximum number of old log files to retain
	MaxBackups int
	// AlsoLogToConsole controls if logs also go to stdout
	AlsoLogToConsole bool
	// Output replaces the rotated file entirely when set (tests, embedding)
	Output io.Writer
	// RedactionConfig controls sensitive data redaction (defaults when nil)
	RedactionConfig *RedactionConfig
}

// ParseLogLevel converts a string log level to LogLevel
func ParseLogLevel(level string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return LogLevelDebug
	case "info":
		return LogLevelInfo
	case "warn", "warning":
		return LogLevelWarn
	case "error":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

// String returns the string representation of the log level
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) toSlogLevel() slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// sourceHandler adds file:line information in dev mode
type sourceHandler struct {
	handler slog.Handler
	isDev   bool
}

func (h *sourceHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *sourceHandler) Handle(ctx context.Context, record slog.Record) error {
	if h.isDev && record.PC != 0 {
		frame, _ := runtime.CallersFrames([]uintptr{record.PC}).Next()
		record.Add(slog.String("source", fmt.Sprintf("%s:%d", filepath.Base(frame.File), frame.Line)))
	}
	return h.handler.Handle(ctx, record)
}

func (h *sourceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &sourceHandler{handler: h.handler.WithAttrs(attrs), isDev: h.isDev}
}

func (h *sourceHandler) WithGroup(name string) slog.Handler {
	return &sourceHandler{handler: h.handler.WithGroup(name), isDev: h.isDev}
}

// NewLogger creates a new slog-based logger instance
func NewLogger(config Config) (*Logger, error) {
	if config.MaxAgeDays <= 0 {
		config.MaxAgeDays = 7
	}
	if config.MaxSizeMB <= 0 {
		config.MaxSizeMB = 100
	}
	if config.MaxBackups <= 0 {
		config.MaxBackups = 10
	}
	if config.FileName == "" {
		config.FileName = defaultLogFile
	}

	var (
		writer     io.Writer
		fileLogger *lumberjack.Logger
	)
	if config.Output != nil {
		writer = config.Output
	} else {
		if config.LogDir == "" {
			config.LogDir = defaultLogDir
		}
		if err := os.MkdirAll(config.LogDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		fileLogger = &lumberjack.Logger{
			Filename:   filepath.Join(config.LogDir, config.FileName),
			MaxSize:    config.MaxSizeMB,
			MaxBackups: config.MaxBackups,
			MaxAge:     config.MaxAgeDays,
			Compress:   true,
		}
		writer = fileLogger
	}
	if config.AlsoLogToConsole {
		writer = io.MultiWriter(os.Stdout, writer)
	}

	handlerOpts := &slog.HandlerOptions{
		Level:     config.Level.toSlogLevel(),
		AddSource: false,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					return slog.String(slog.TimeKey, t.UTC().Format(time.RFC3339Nano))
				}
			}
			return a
		},
	}

	var handler slog.Handler
	if config.IsDev {
		handler = slog.NewTextHandler(writer, handlerOpts)
	} else {
		handler = slog.NewJSONHandler(writer, handlerOpts)
	}

	redactionConfig := DefaultRedactionConfig()
	if config.RedactionConfig != nil {
		redactionConfig = *config.RedactionConfig
	}
	redacting, err := NewRedactionHandler(handler, redactionConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create redaction handler: %w", err)
	}

	return &Logger{
		slogger:    slog.New(&sourceHandler{handler: redacting, isDev: config.IsDev}),
		level:      config.Level,
		isDev:      config.IsDev,
		fileLogger: fileLogger,
	}, nil
}

// Initialize sets up the global logger and installs it as the slog default
func Initialize(config Config) error {
	logger, err := NewLogger(config)
	if err != nil {
		return err
	}

	globalMu.Lock()
	previous := globalLogger
	globalLogger = logger
	globalMu.Unlock()

	slog.SetDefault(logger.slogger)
	if previous != nil {
		_ = previous.Close()
	}
	return nil
}

// Get returns the global logger instance, initializing with defaults if needed
func Get() *Logger {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalLogger != nil {
		return globalLogger
	}

	logDir := os.Getenv(LogDirEnv)
	if logDir == "" {
		logDir = defaultLogDir
	}
	logger, err := NewLogger(Config{
		Level:            LogLevelInfo,
		LogDir:           logDir,
		AlsoLogToConsole: true,
	})
	if err != nil {
		handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
		logger = &Logger{slogger: slog.New(handler), level: LogLevelInfo}
	}
	globalLogger = logger
	return globalLogger
}

// Discard returns a logger that drops everything, for tests that assert on behavior only
func Discard() *Logger {
	return &Logger{
		slogger: slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1})),
		level:   LogLevelError + 1,
	}
}

// With returns a child logger that carries the given attributes on every record
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		slogger: l.slogger.With(args...),
		level:   l.level,
		isDev:   l.isDev,
	}
}

// Close flushes and closes the rotated log file, if any
func (l *Logger) Close() error {
	if l.fileLogger == nil {
		return nil
	}
	if err := l.fileLogger.Close(); err != nil {
		return fmt.Errorf("file logger close: %w", err)
	}
	return nil
}

// Level reports the configured minimum level
func (l *Logger) Level() LogLevel {
	return l.level
}

func (l *Logger) logf(level LogLevel, format string, args ...any) {
	if l.level > level {
		return
	}
	message := format
	if len(args) > 0 {
		message = fmt.Sprintf(format, args...)
	}

	// Log messages are sanitized to prevent log injection (CWE-117)
	var pcs [1]uintptr
	runtime.Callers(3, pcs[:])
	record := slog.NewRecord(time.Now(), level.toSlogLevel(), SanitizeLogMessage(message), pcs[0])
	_ = l.slogger.Handler().Handle(context.Background(), record)
}

// Debug logs a debug-level message
func (l *Logger) Debug(format string, args ...any) { l.logf(LogLevelDebug, format, args...) }

// Info logs an info-level message
func (l *Logger) Info(format string, args ...any) { l.logf(LogLevelInfo, format, args...) }

// Warn logs a warning-level message
func (l *Logger) Warn(format string, args ...any) { l.logf(LogLevelWarn, format, args...) }

// Error logs an error-level message
func (l *Logger) Error(format string, args ...any) { l.logf(LogLevelError, format, args...) }

// DebugCtx logs a debug message with context and structured attributes
func (l *Logger) DebugCtx(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.slogger.LogAttrs(ctx, slog.LevelDebug, SanitizeLogMessage(msg), attrs...)
}

// InfoCtx logs an info message with context and structured attributes
func (l *Logger) InfoCtx(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.slogger.LogAttrs(ctx, slog.LevelInfo, SanitizeLogMessage(msg), attrs...)
}

// WarnCtx logs a warning message with context and structured attributes
func (l *Logger) WarnCtx(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.slogger.LogAttrs(ctx, slog.LevelWarn, SanitizeLogMessage(msg), attrs...)
}

// ErrorCtx logs an error message with context and structured attributes
func (l *Logger) ErrorCtx(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.slogger.LogAttrs(ctx, slog.LevelError, SanitizeLogMessage(msg), attrs...)
}

// GetSlogger returns the underlying slog.Logger for advanced usage
func (l *Logger) GetSlogger() *slog.Logger {
	return l.slogger
}
