package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjpolzin/calibre2yac/pkg/syncer"
)

// newTestFlagSet mirrors the flags the root command registers.
func newTestFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.StringP("library", "l", "", "")
	fs.StringP("output", "o", "", "")
	fs.StringArrayP("tag", "t", []string{}, "")
	fs.String("strategy", string(syncer.DefaultStrategy), "")
	fs.Int("workers", syncer.DefaultWorkerCount, "")
	fs.String("output-format", string(syncer.DefaultOutputFormat), "")
	fs.String("log-file", "", "")
	fs.BoolP("verbose", "v", false, "")
	fs.Bool("no-tui", false, "")
	fs.Bool("no-cache", false, "")
	fs.Bool("clear-cache", false, "")
	fs.Bool("dry-run", false, "")
	fs.Bool("watch", false, "")
	fs.String("watch-debounce", syncer.DefaultWatchDebounceString, "")
	return fs
}

func setRequiredFlags(t *testing.T, fs *pflag.FlagSet, library, output string) {
	t.Helper()
	require.NoError(t, fs.Set("library", library))
	require.NoError(t, fs.Set("output", output))
	require.NoError(t, fs.Set("tag", "comics"))
}

func TestLoadAndValidateMinimal(t *testing.T) {
	library := t.TempDir()
	output := filepath.Join(t.TempDir(), "mirror")
	fs := newTestFlagSet()
	setRequiredFlags(t, fs, library, output)

	opts, logger, err := LoadAndValidate("", "test", fs)
	require.NoError(t, err)
	require.NotNil(t, logger)

	assert.Equal(t, library, opts.LibraryPath)
	assert.Equal(t, output, opts.OutputPath)
	assert.Equal(t, []string{"comics"}, opts.Tags)
	assert.Equal(t, syncer.StrategyCopy, opts.Strategy)
	assert.Equal(t, syncer.DefaultWorkerCount, opts.WorkerCount)
	assert.Equal(t, syncer.OutputFormatText, opts.OutputFormat)
	assert.Equal(t, filepath.Join(output, syncer.CacheFileName), opts.CacheFilePath)
	assert.Equal(t, filepath.Join(output, syncer.LogFileName), opts.LogFilePath)
	assert.Equal(t, 2*time.Second, opts.WatchDebounce)
	assert.DirExists(t, output, "output root is created during validation")
}

func TestLoadAndValidateMissingTag(t *testing.T) {
	fs := newTestFlagSet()
	require.NoError(t, fs.Set("library", t.TempDir()))
	require.NoError(t, fs.Set("output", t.TempDir()))

	_, _, err := LoadAndValidate("", "test", fs)
	require.Error(t, err)
	assert.ErrorIs(t, err, syncer.ErrConfigValidation)
}

func TestLoadAndValidateMissingLibrary(t *testing.T) {
	fs := newTestFlagSet()
	setRequiredFlags(t, fs, filepath.Join(t.TempDir(), "nope"), t.TempDir())

	_, _, err := LoadAndValidate("", "test", fs)
	require.Error(t, err)
	assert.ErrorIs(t, err, syncer.ErrConfigValidation)
}

func TestLoadAndValidateInvalidStrategy(t *testing.T) {
	fs := newTestFlagSet()
	setRequiredFlags(t, fs, t.TempDir(), t.TempDir())
	require.NoError(t, fs.Set("strategy", "hardlink"))

	_, _, err := LoadAndValidate("", "test", fs)
	require.Error(t, err)
	assert.ErrorIs(t, err, syncer.ErrConfigValidation)
}

func TestLoadAndValidateInvalidOutputFormat(t *testing.T) {
	fs := newTestFlagSet()
	setRequiredFlags(t, fs, t.TempDir(), t.TempDir())
	require.NoError(t, fs.Set("output-format", "xml"))

	_, _, err := LoadAndValidate("", "test", fs)
	require.Error(t, err)
	assert.ErrorIs(t, err, syncer.ErrConfigValidation)
}

func TestLoadAndValidateInvalidDebounceFlag(t *testing.T) {
	fs := newTestFlagSet()
	setRequiredFlags(t, fs, t.TempDir(), t.TempDir())
	require.NoError(t, fs.Set("watch-debounce", "soon"))

	_, _, err := LoadAndValidate("", "test", fs)
	require.Error(t, err)
	assert.ErrorIs(t, err, syncer.ErrConfigValidation)
}

func TestLoadAndValidateVerboseDisablesTUI(t *testing.T) {
	fs := newTestFlagSet()
	setRequiredFlags(t, fs, t.TempDir(), t.TempDir())
	require.NoError(t, fs.Set("verbose", "true"))

	opts, _, err := LoadAndValidate("", "test", fs)
	require.NoError(t, err)
	assert.True(t, opts.Verbose)
	assert.False(t, opts.TuiEnabled)
}

func TestLoadAndValidateBooleanSwitches(t *testing.T) {
	fs := newTestFlagSet()
	setRequiredFlags(t, fs, t.TempDir(), t.TempDir())
	require.NoError(t, fs.Set("no-cache", "true"))
	require.NoError(t, fs.Set("clear-cache", "true"))
	require.NoError(t, fs.Set("dry-run", "true"))
	require.NoError(t, fs.Set("watch", "true"))
	require.NoError(t, fs.Set("no-tui", "true"))

	opts, _, err := LoadAndValidate("", "test", fs)
	require.NoError(t, err)
	assert.True(t, opts.IgnoreCacheRead)
	assert.True(t, opts.ClearCache)
	assert.True(t, opts.DryRun)
	assert.True(t, opts.WatchMode)
	assert.False(t, opts.TuiEnabled)
}

func TestLoadAndValidateConfigFile(t *testing.T) {
	library := t.TempDir()
	output := t.TempDir()

	cfgPath := filepath.Join(t.TempDir(), "calibre2yac.yaml")
	cfg := "libraryPath: " + library + "\n" +
		"outputPath: " + output + "\n" +
		"tags:\n  - comics\n" +
		"strategy: link\n" +
		"workers: 8\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))

	fs := newTestFlagSet()
	opts, _, err := LoadAndValidate(cfgPath, "test", fs)
	require.NoError(t, err)

	assert.Equal(t, cfgPath, opts.ConfigFilePath)
	assert.Equal(t, syncer.StrategyLink, opts.Strategy)
	assert.Equal(t, 8, opts.WorkerCount)
	assert.Equal(t, []string{"comics"}, opts.Tags)
}

func TestLoadAndValidateEnvOverride(t *testing.T) {
	fs := newTestFlagSet()
	setRequiredFlags(t, fs, t.TempDir(), t.TempDir())
	t.Setenv("CALIBRE2YAC_STRATEGY", "link")

	opts, _, err := LoadAndValidate("", "test", fs)
	require.NoError(t, err)
	assert.Equal(t, syncer.StrategyLink, opts.Strategy)
}

func TestLoadAndValidateFlagBeatsConfigFile(t *testing.T) {
	library := t.TempDir()
	output := t.TempDir()

	cfgPath := filepath.Join(t.TempDir(), "calibre2yac.yaml")
	cfg := "libraryPath: " + library + "\n" +
		"outputPath: " + output + "\n" +
		"tags:\n  - comics\n" +
		"strategy: link\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))

	fs := newTestFlagSet()
	require.NoError(t, fs.Set("strategy", "copy"))

	opts, _, err := LoadAndValidate(cfgPath, "test", fs)
	require.NoError(t, err)
	assert.Equal(t, syncer.StrategyCopy, opts.Strategy)
}
