package cfg

import (
	"fmt"
	"path/filepath"
	"strings"
)

// LogSeverity is the logging severity configured for a run, mirroring
// internal/logger's own level names so the config layer never drifts
// from what the logger actually accepts.
type LogSeverity string

const (
	TraceLogSeverity   LogSeverity = "TRACE"
	DebugLogSeverity   LogSeverity = "DEBUG"
	InfoLogSeverity    LogSeverity = "INFO"
	WarningLogSeverity LogSeverity = "WARNING"
	ErrorLogSeverity   LogSeverity = "ERROR"
	OffLogSeverity     LogSeverity = "OFF"
)

var validSeverities = map[LogSeverity]bool{
	TraceLogSeverity:   true,
	DebugLogSeverity:   true,
	InfoLogSeverity:    true,
	WarningLogSeverity: true,
	ErrorLogSeverity:   true,
	OffLogSeverity:     true,
}

// UnmarshalText validates a LogSeverity read from a --config-file,
// case-insensitively.
func (l *LogSeverity) UnmarshalText(text []byte) error {
	level := LogSeverity(strings.ToUpper(string(text)))
	if !validSeverities[level] {
		return fmt.Errorf("invalid log severity %q: must be one of TRACE, DEBUG, INFO, WARNING, ERROR, OFF", text)
	}
	*l = level
	return nil
}

// ResolvedPath is a file-path config value that is always stored
// absolute, resolved relative to the process's working directory at
// the time the config was parsed.
type ResolvedPath string

// UnmarshalText resolves a possibly-relative path to an absolute one.
func (p *ResolvedPath) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*p = ""
		return nil
	}
	abs, err := filepath.Abs(string(text))
	if err != nil {
		return fmt.Errorf("resolving path %q: %w", text, err)
	}
	*p = ResolvedPath(abs)
	return nil
}

func (p ResolvedPath) String() string { return string(p) }
