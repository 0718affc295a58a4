// Package cmd wires mft2bodyfile's CLI surface: one positional
// $MFT-file argument, the ambient flags in cfg.BindFlags, and the
// config-file/flag precedence cobra+viper already implement — grounded
// on the teacher's own cmd/root.go (cobra.Command + viper.BindPFlag +
// a deferred initConfig that reads an optional --config-file).
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ntfs-forensics/mft2bodyfile/cfg"
	"github.com/ntfs-forensics/mft2bodyfile/internal/logger"
	"github.com/ntfs-forensics/mft2bodyfile/internal/mftentry"
	"github.com/ntfs-forensics/mft2bodyfile/internal/metrics"
	"github.com/ntfs-forensics/mft2bodyfile/internal/pipeline"
	"github.com/ntfs-forensics/mft2bodyfile/internal/sink"
	"github.com/ntfs-forensics/mft2bodyfile/internal/telemetry"
)

var (
	cfgFile       string
	bindErr       error
	configFileErr error
	unmarshalErr  error
	runConfig     cfg.Config
)

var rootCmd = &cobra.Command{
	Use:   "mft2bodyfile [flags] mft-file",
	Short: "Reconstruct an NTFS bodyfile v3 timeline from $MFT and $UsnJrnl:$J",
	Long: `mft2bodyfile reads a raw NTFS $MFT (and, optionally, a
$UsnJrnl:$J change journal) and emits a pipe-delimited bodyfile v3
timeline suitable for timeline-analysis tooling.`,
	Args: cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		if bindErr != nil {
			return bindErr
		}
		if configFileErr != nil {
			return configFileErr
		}
		if unmarshalErr != nil {
			return unmarshalErr
		}
		return run(c.Context(), args[0], runConfig)
	},
}

func run(ctx context.Context, mftPath string, conf cfg.Config) error {
	configureLogging(conf.Logging)
	mftentry.Strict = conf.Debug.Strict

	mftFile, err := os.Open(mftPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", mftPath, err)
	}
	defer mftFile.Close()

	var journalFile *os.File
	if conf.Journal.Path != "" {
		journalFile, err = os.Open(string(conf.Journal.Path))
		if err != nil {
			return fmt.Errorf("opening journal %s: %w", conf.Journal.Path, err)
		}
		defer journalFile.Close()
	}

	out, err := sink.Open(ctx, conf.Output.Target)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil {
			logger.Errorf("closing output sink: %v", closeErr)
		}
	}()

	shutdownTelemetry, err := telemetry.Setup(ctx, conf.Metrics.Addr)
	if err != nil {
		return fmt.Errorf("setting up telemetry: %w", err)
	}
	defer func() {
		if shutdownErr := shutdownTelemetry(ctx); shutdownErr != nil {
			logger.Errorf("shutting down telemetry: %v", shutdownErr)
		}
	}()

	metricsHandle, err := metrics.New()
	if err != nil {
		return fmt.Errorf("initializing metrics: %w", err)
	}
	stopTimer := metricsHandle.StartRun(ctx)
	defer stopTimer()

	opts := pipeline.Options{
		MftReader:        mftFile,
		UsnjrnlLongFlags: conf.Journal.LongFlags,
		Metrics:          metricsHandle,
	}
	if journalFile != nil {
		opts.UsnjrnlReader = journalFile
	}

	logger.Infof("mft2bodyfile: starting run (run_id=%s)", telemetry.RunID)
	if err := pipeline.Run(ctx, opts, out); err != nil {
		return fmt.Errorf("running pipeline: %w", err)
	}
	logger.Infof("mft2bodyfile: run complete")
	return nil
}

func configureLogging(conf cfg.LoggingConfig) {
	logger.SetLogFormat(conf.Format)
	logger.SetLevel(string(conf.Severity))
	if conf.LogRotate.Path == "" {
		return
	}
	if err := logger.InitLogFile(logger.FileConfig{
		Path:       conf.LogRotate.Path,
		MaxSizeMB:  conf.LogRotate.MaxFileSizeMb,
		MaxBackups: conf.LogRotate.BackupFileCount,
		Compress:   conf.LogRotate.Compress,
	}); err != nil {
		logger.Errorf("initializing log file %q: %v", conf.LogRotate.Path, err)
	}
}

// Execute runs the root command, exiting the process with status 1 on
// failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "Path to a YAML config file providing defaults for any flag.")
	bindErr = cfg.BindFlags(rootCmd.PersistentFlags())
}

func initConfig() {
	decodeHookOption := viper.DecodeHook(cfg.DecodeHook())

	if cfgFile == "" {
		unmarshalErr = viper.Unmarshal(&runConfig, decodeHookOption)
		return
	}

	viper.SetConfigFile(cfgFile)
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		configFileErr = fmt.Errorf("reading config file %s: %w", cfgFile, err)
		return
	}
	unmarshalErr = viper.Unmarshal(&runConfig, decodeHookOption)
}
