// Package logger provides the leveled, structured logger used across
// this tool: a slog.Logger configured with either a human-readable text
// handler or a JSON handler, gated by a runtime severity threshold.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Severity level names, matching the values accepted by --log-severity
// and the logging.severity config key.
const (
	TRACE   = "TRACE"
	DEBUG   = "DEBUG"
	INFO    = "INFO"
	WARNING = "WARNING"
	ERROR   = "ERROR"
	OFF     = "OFF"
)

// slog only defines four levels; TRACE and OFF are modeled as custom
// offsets around slog.LevelDebug/slog.LevelError so the ordering still
// works with a single slog.LevelVar threshold.
const (
	LevelTrace slog.Level = slog.LevelDebug - 4
	LevelDebug slog.Level = slog.LevelDebug
	LevelInfo  slog.Level = slog.LevelInfo
	LevelWarn  slog.Level = slog.LevelWarn
	LevelError slog.Level = slog.LevelError
	LevelOff   slog.Level = slog.LevelError + 4
)

// FileConfig describes where (if anywhere) logs are rotated to disk,
// instead of stderr.
type FileConfig struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type loggerFactory struct {
	format          string
	level           *slog.LevelVar
	file            io.Writer
	logRotateConfig FileConfig
}

var defaultLoggerFactory = &loggerFactory{
	format: "text",
	level:  new(slog.LevelVar),
	file:   os.Stderr,
}

var defaultLogger = slog.New(defaultLoggerFactory.createJsonOrTextHandler(os.Stderr, defaultLoggerFactory.level, ""))

func severityLabel(level slog.Level) string {
	switch {
	case level <= LevelTrace:
		return TRACE
	case level < LevelInfo:
		return DEBUG
	case level < LevelWarn:
		return INFO
	case level < LevelError:
		return WARNING
	default:
		return ERROR
	}
}

func (f *loggerFactory) createJsonOrTextHandler(w io.Writer, programLevel *slog.LevelVar, prefix string) slog.Handler {
	replace := func(groups []string, a slog.Attr) slog.Attr {
		switch a.Key {
		case slog.LevelKey:
			level := a.Value.Any().(slog.Level)
			a.Key = "severity"
			a.Value = slog.StringValue(severityLabel(level))
		case slog.TimeKey:
			if f.format != "json" {
				a.Value = slog.StringValue(a.Value.Time().Format("01/02/2006 15:04:05.000000"))
			} else {
				t := a.Value.Time()
				a.Key = "timestamp"
				a.Value = slog.GroupValue(
					slog.Int64("seconds", t.Unix()),
					slog.Int64("nanos", int64(t.Nanosecond())),
				)
			}
		case slog.MessageKey:
			a.Key = "message"
			a.Value = slog.StringValue(prefix + a.Value.String())
		}
		return a
	}

	opts := &slog.HandlerOptions{Level: programLevel, ReplaceAttr: replace}
	if f.format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return textHandler{slog.NewTextHandler(w, opts)}
}

// textHandler renders attributes with a `key=value` severity/time/message
// prefix matching the teacher's fixed text layout, `time="..." severity=LEVEL
// message="..."`.
type textHandler struct{ *slog.TextHandler }

func setLoggingLevel(level string, programLevel *slog.LevelVar) {
	switch level {
	case TRACE:
		programLevel.Set(LevelTrace)
	case DEBUG:
		programLevel.Set(LevelDebug)
	case INFO:
		programLevel.Set(LevelInfo)
	case WARNING:
		programLevel.Set(LevelWarn)
	case ERROR:
		programLevel.Set(LevelError)
	case OFF:
		programLevel.Set(LevelOff)
	default:
		programLevel.Set(LevelInfo)
	}
}

// SetLogFormat switches the default logger between "text" and "json"
// output, rebuilding the handler so the change takes effect immediately.
func SetLogFormat(format string) {
	defaultLoggerFactory.format = format
	defaultLogger = slog.New(defaultLoggerFactory.createJsonOrTextHandler(defaultLoggerFactory.file, defaultLoggerFactory.level, ""))
}

// SetLevel sets the minimum severity that reaches the default logger.
func SetLevel(level string) {
	setLoggingLevel(level, defaultLoggerFactory.level)
}

// InitLogFile points the default logger at a rotated file instead of
// stderr, using lumberjack for size/age-based rotation.
func InitLogFile(cfg FileConfig) error {
	if cfg.Path == "" {
		return nil
	}
	lj := &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
	defaultLoggerFactory.file = lj
	defaultLoggerFactory.logRotateConfig = cfg
	defaultLogger = slog.New(defaultLoggerFactory.createJsonOrTextHandler(lj, defaultLoggerFactory.level, ""))
	return nil
}

func Tracef(format string, args ...any) {
	if !defaultLogger.Enabled(context.Background(), LevelTrace) {
		return
	}
	defaultLogger.Log(context.Background(), LevelTrace, fmt.Sprintf(format, args...))
}

func Debugf(format string, args ...any) {
	defaultLogger.Debug(fmt.Sprintf(format, args...))
}

func Infof(format string, args ...any) {
	defaultLogger.Info(fmt.Sprintf(format, args...))
}

func Warnf(format string, args ...any) {
	defaultLogger.Warn(fmt.Sprintf(format, args...))
}

func Errorf(format string, args ...any) {
	defaultLogger.Error(fmt.Sprintf(format, args...))
}

// Fatalf logs at error severity then exits the process with status 1.
func Fatalf(format string, args ...any) {
	defaultLogger.Error(fmt.Sprintf(format, args...))
	os.Exit(1)
}
