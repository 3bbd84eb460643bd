// Package config loads and validates the calibre2yac configuration from all
// sources: defaults, an optional YAML config file, CALIBRE2YAC_* environment
// variables, and command-line flags (highest priority).
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/bjpolzin/calibre2yac/pkg/syncer"
)

const (
	// EnvPrefix is the environment variable prefix (CALIBRE2YAC_LIBRARY_PATH etc).
	EnvPrefix = "CALIBRE2YAC"
	// DefaultConfigName is the config file base name searched in standard locations.
	DefaultConfigName = "calibre2yac"
)

// Sync log rotation bounds. The log is append-style and human-readable; the
// cap only keeps unattended watch-mode runs from growing it without limit.
const (
	logMaxSizeMB  = 10
	logMaxBackups = 3
)

// LoadAndValidate merges configuration from all sources, validates it, derives
// paths, and sets up the final logger (stderr plus the rotating sync log).
// Returns the populated Options, the logger, or an error.
func LoadAndValidate(cfgFile, appVersion string, flags *pflag.FlagSet) (syncer.Options, *slog.Logger, error) {
	var opts syncer.Options
	v := viper.New()

	// Basic logger for errors raised before the final logger exists.
	tempLogger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return opts, tempLogger, fmt.Errorf("failed to get user home directory: %w", err)
		}
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Join(home, ".config", DefaultConfigName))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) && cfgFile == "" {
			tempLogger.Debug("No configuration file found, using defaults/env/flags.")
		} else {
			used := cfgFile
			if used == "" {
				used = fmt.Sprintf("searched locations for %s.yaml", DefaultConfigName)
			}
			return opts, tempLogger, fmt.Errorf("error reading config file '%s': %w", used, err)
		}
	} else {
		opts.ConfigFilePath = v.ConfigFileUsed()
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Flags bind onto their config keys; flag names differ from mapstructure
	// keys, so each pair is bound explicitly.
	bindings := map[string]string{
		"libraryPath":    "library",
		"outputPath":     "output",
		"tags":           "tag",
		"strategy":       "strategy",
		"workers":        "workers",
		"outputFormat":   "output-format",
		"logFile":        "log-file",
		"verbose":        "verbose",
		"watch.debounce": "watch-debounce",
	}
	for key, flagName := range bindings {
		if flag := flags.Lookup(flagName); flag != nil {
			if err := v.BindPFlag(key, flag); err != nil {
				return opts, tempLogger, fmt.Errorf("error binding flag '--%s': %w", flagName, err)
			}
		}
	}

	opts.AppVersion = appVersion
	if err := v.Unmarshal(&opts); err != nil {
		return opts, tempLogger, fmt.Errorf("error unmarshalling configuration: %w", err)
	}

	// Boolean switch flags override whatever the file/env produced.
	if flags.Changed("verbose") {
		opts.Verbose, _ = flags.GetBool("verbose")
	}
	if noTui, _ := flags.GetBool("no-tui"); noTui {
		opts.TuiEnabled = false
	}
	opts.IgnoreCacheRead, _ = flags.GetBool("no-cache")
	opts.ClearCache, _ = flags.GetBool("clear-cache")
	opts.DryRun, _ = flags.GetBool("dry-run")
	opts.WatchMode, _ = flags.GetBool("watch")

	if err := validateAndDerive(&opts, tempLogger, flags); err != nil {
		return opts, tempLogger, err
	}

	logger, handler := setupLogger(&opts)
	opts.Logger = handler

	logger.Debug("Configuration loading and validation complete",
		slog.String("configFile", opts.ConfigFilePath),
		slog.String("library", opts.LibraryPath),
		slog.String("output", opts.OutputPath),
		slog.Any("tags", opts.Tags),
		slog.String("strategy", string(opts.Strategy)),
		slog.Int("workers", opts.WorkerCount),
	)
	return opts, logger, nil
}

// setDefaults establishes the default values for configuration options.
func setDefaults(v *viper.Viper) {
	v.SetDefault("tags", []string{})
	v.SetDefault("strategy", string(syncer.DefaultStrategy))
	v.SetDefault("workers", syncer.DefaultWorkerCount)
	v.SetDefault("outputFormat", string(syncer.DefaultOutputFormat))
	v.SetDefault("logFile", "")
	v.SetDefault("verbose", syncer.DefaultVerbose)
	v.SetDefault("tuiEnabled", syncer.DefaultTuiEnabled)
	v.SetDefault("watch.debounce", syncer.DefaultWatchDebounceString)
}

// isValidEnumValue checks a string value against a slice of allowed values.
func isValidEnumValue[T ~string](value T, allowed []T) bool {
	return slices.Contains(allowed, value)
}

// validateAndDerive performs semantic validation and calculates derived fields.
// Errors wrap syncer.ErrConfigValidation.
func validateAndDerive(opts *syncer.Options, logger *slog.Logger, flags *pflag.FlagSet) error {
	if opts.LibraryPath == "" {
		return fmt.Errorf("%w: library path is required (-l, --library)", syncer.ErrConfigValidation)
	}
	absLibrary, err := filepath.Abs(opts.LibraryPath)
	if err != nil {
		return fmt.Errorf("%w: cannot resolve absolute library path '%s': %w", syncer.ErrConfigValidation, opts.LibraryPath, err)
	}
	opts.LibraryPath = absLibrary
	info, err := os.Stat(opts.LibraryPath)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: library path '%s' is not an accessible directory", syncer.ErrConfigValidation, opts.LibraryPath)
	}

	if opts.OutputPath == "" {
		return fmt.Errorf("%w: output path is required (-o, --output)", syncer.ErrConfigValidation)
	}
	absOutput, err := filepath.Abs(opts.OutputPath)
	if err != nil {
		return fmt.Errorf("%w: cannot resolve absolute output path '%s': %w", syncer.ErrConfigValidation, opts.OutputPath, err)
	}
	opts.OutputPath = absOutput
	// Create early so writability problems surface as config errors, not
	// mid-pass failures.
	if err := os.MkdirAll(opts.OutputPath, 0o755); err != nil {
		return fmt.Errorf("%w: cannot create or access output directory '%s': %w", syncer.ErrOutputRoot, opts.OutputPath, err)
	}

	if len(opts.Tags) == 0 {
		return fmt.Errorf("%w: at least one tag is required (-t, --tag)", syncer.ErrConfigValidation)
	}

	allowedStrategies := []syncer.Strategy{syncer.StrategyCopy, syncer.StrategyLink}
	if !isValidEnumValue(opts.Strategy, allowedStrategies) {
		return fmt.Errorf("%w: invalid value '%s' for key 'strategy' (flag --strategy). Allowed: %v",
			syncer.ErrConfigValidation, opts.Strategy, allowedStrategies)
	}
	allowedFormats := []syncer.OutputFormat{syncer.OutputFormatText, syncer.OutputFormatJSON, syncer.OutputFormatYAML}
	if !isValidEnumValue(opts.OutputFormat, allowedFormats) {
		return fmt.Errorf("%w: invalid value '%s' for key 'outputFormat' (flag --output-format). Allowed: %v",
			syncer.ErrConfigValidation, opts.OutputFormat, allowedFormats)
	}
	if opts.WorkerCount < 0 {
		return fmt.Errorf("%w: invalid value '%d' for key 'workers' (flag --workers). Must be >= 0",
			syncer.ErrConfigValidation, opts.WorkerCount)
	}

	if opts.LogFilePath == "" {
		opts.LogFilePath = filepath.Join(opts.OutputPath, syncer.LogFileName)
	} else if abs, absErr := filepath.Abs(opts.LogFilePath); absErr == nil {
		opts.LogFilePath = abs
	}
	opts.CacheFilePath = filepath.Join(opts.OutputPath, syncer.CacheFileName)

	debounce, err := time.ParseDuration(opts.WatchConfig.Debounce)
	if err != nil {
		if flags.Changed("watch-debounce") {
			return fmt.Errorf("%w: invalid watch debounce duration '%s': %w",
				syncer.ErrConfigValidation, opts.WatchConfig.Debounce, err)
		}
		logger.Warn("Could not parse watch.debounce, using default",
			slog.String("value", opts.WatchConfig.Debounce),
			slog.Duration("default", syncer.DefaultWatchDebounceDuration))
		debounce = syncer.DefaultWatchDebounceDuration
	}
	if debounce < 0 {
		return fmt.Errorf("%w: invalid negative watch debounce duration '%s'",
			syncer.ErrConfigValidation, opts.WatchConfig.Debounce)
	}
	opts.WatchDebounce = debounce

	// Verbose output and the TUI fight over the terminal.
	if opts.Verbose {
		opts.TuiEnabled = false
	}
	return nil
}

// setupLogger builds the final slog logger writing to stderr and the rotating
// sync log under the output root.
func setupLogger(opts *syncer.Options) (*slog.Logger, slog.Handler) {
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}

	fileSink := &lumberjack.Logger{
		Filename:   opts.LogFilePath,
		MaxSize:    logMaxSizeMB,
		MaxBackups: logMaxBackups,
	}

	var sink io.Writer = io.MultiWriter(os.Stderr, fileSink)
	if opts.TuiEnabled {
		// The TUI owns stderr while it runs; events still land in the file.
		sink = fileSink
	}
	handler := slog.NewTextHandler(sink, &slog.HandlerOptions{Level: level})
	return slog.New(handler), handler
}
