// Package cfg declares mft2bodyfile's configuration surface and binds
// it to command-line flags, following the teacher's generated
// cfg/config.go pattern: a plain struct with yaml tags for the config
// file, and a BindFlags function that registers each pflag and binds it
// into viper under the matching dotted key.
package cfg

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the full set of settings a run of mft2bodyfile accepts,
// whether from flags or from a --config-file.
type Config struct {
	Journal JournalConfig `yaml:"journal"`

	Output OutputConfig `yaml:"output"`

	Logging LoggingConfig `yaml:"logging"`

	Metrics MetricsConfig `yaml:"metrics"`

	Debug DebugConfig `yaml:"debug"`
}

// JournalConfig controls $UsnJrnl:$J ingest.
type JournalConfig struct {
	Path      ResolvedPath `yaml:"path"`
	LongFlags bool         `yaml:"long-flags" mapstructure:"long-flags"`
}

// OutputConfig controls where the rendered bodyfile goes.
type OutputConfig struct {
	Target string `yaml:"target"`
}

// MetricsConfig controls the optional admin HTTP server.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// DebugConfig controls strict-mode invariant enforcement (spec.md §7).
type DebugConfig struct {
	Strict bool `yaml:"strict"`
}

// LoggingConfig controls internal/logger.
type LoggingConfig struct {
	Severity  LogSeverity            `yaml:"severity"`
	Format    string                 `yaml:"format"`
	LogRotate LogRotateLoggingConfig `yaml:"log-rotate" mapstructure:"log-rotate"`
}

// LogRotateLoggingConfig controls lumberjack.v2 file rotation.
type LogRotateLoggingConfig struct {
	Path            string `yaml:"path"`
	MaxFileSizeMb   int    `yaml:"max-file-size-mb" mapstructure:"max-file-size-mb"`
	BackupFileCount int    `yaml:"backup-file-count" mapstructure:"backup-file-count"`
	Compress        bool   `yaml:"compress"`
}

// BindFlags registers every mft2bodyfile flag on flagSet and binds it
// into viper under the Config field it fills, so a --config-file value
// and an explicit flag resolve through the same precedence viper
// already implements (flag wins if explicitly set).
func BindFlags(flagSet *pflag.FlagSet) error {
	var err error

	flagSet.StringP("journal", "j", "", "Path to the $UsnJrnl:$J file to merge in, if any.")
	if err = viper.BindPFlag("journal.path", flagSet.Lookup("journal")); err != nil {
		return err
	}

	flagSet.Bool("journal-long-flags", false, "Render $UsnJrnl reason flags with their full USN_REASON_ prefix.")
	if err = viper.BindPFlag("journal.long-flags", flagSet.Lookup("journal-long-flags")); err != nil {
		return err
	}

	flagSet.StringP("output", "o", "-", "Output destination: a local path, '-'/empty for stdout, or gs://bucket/object.")
	if err = viper.BindPFlag("output.target", flagSet.Lookup("output")); err != nil {
		return err
	}

	flagSet.String("log-severity", string(InfoLogSeverity), "Logging severity: TRACE, DEBUG, INFO, WARNING, ERROR, OFF.")
	if err = viper.BindPFlag("logging.severity", flagSet.Lookup("log-severity")); err != nil {
		return err
	}

	flagSet.String("log-format", "text", "Log line format: text or json.")
	if err = viper.BindPFlag("logging.format", flagSet.Lookup("log-format")); err != nil {
		return err
	}

	flagSet.String("log-file", "", "Path to a log file. Empty means log to stderr only.")
	if err = viper.BindPFlag("logging.log-rotate.path", flagSet.Lookup("log-file")); err != nil {
		return err
	}

	flagSet.Int("log-max-size-mb", 512, "Maximum log file size, in MB, before rotation.")
	if err = viper.BindPFlag("logging.log-rotate.max-file-size-mb", flagSet.Lookup("log-max-size-mb")); err != nil {
		return err
	}

	flagSet.Int("log-backup-count", 10, "Number of rotated log files to retain.")
	if err = viper.BindPFlag("logging.log-rotate.backup-file-count", flagSet.Lookup("log-backup-count")); err != nil {
		return err
	}

	flagSet.Bool("log-compress", true, "Gzip-compress rotated log files.")
	if err = viper.BindPFlag("logging.log-rotate.compress", flagSet.Lookup("log-compress")); err != nil {
		return err
	}

	flagSet.String("metrics-addr", "", "If set, serve Prometheus /metrics and /healthz on this host:port.")
	if err = viper.BindPFlag("metrics.addr", flagSet.Lookup("metrics-addr")); err != nil {
		return err
	}

	flagSet.Bool("strict", false, "Panic on structural invariant violations instead of logging and continuing.")
	if err = viper.BindPFlag("debug.strict", flagSet.Lookup("strict")); err != nil {
		return err
	}

	return nil
}
