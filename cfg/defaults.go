package cfg

// GetDefaultLoggingConfig returns the logging defaults used before any
// flag or config-file value has been parsed.
func GetDefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Severity: InfoLogSeverity,
		Format:   "text",
		LogRotate: LogRotateLoggingConfig{
			MaxFileSizeMb:   512,
			BackupFileCount: 10,
			Compress:        true,
		},
	}
}
