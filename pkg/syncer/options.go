package syncer

import (
	"log/slog"
	"time"

	"github.com/bjpolzin/calibre2yac/pkg/syncer/cache"
	"github.com/bjpolzin/calibre2yac/pkg/syncer/catalog"
)

// Hooks defines callbacks for status updates during a sync pass.
// Implementations MUST be thread-safe; operation updates arrive concurrently
// from worker goroutines.
type Hooks interface {
	// OnPlanReady fires once per pass after reconciliation, before execution.
	OnPlanReady(tag string, materialize, remove int) error
	// OnOpStatusUpdate fires for every completed or failed operation.
	OnOpStatusUpdate(target string, kind OpKind, status Status, message string, duration time.Duration) error
	// OnPassComplete fires after cache save and sweep with the final report.
	OnPassComplete(report Report) error
}

// NoOpHooks provides a default, do-nothing implementation of Hooks.
type NoOpHooks struct{}

// OnPlanReady implements Hooks. It performs no action.
func (h *NoOpHooks) OnPlanReady(tag string, materialize, remove int) error { return nil }

// OnOpStatusUpdate implements Hooks. It performs no action.
func (h *NoOpHooks) OnOpStatusUpdate(target string, kind OpKind, status Status, message string, duration time.Duration) error {
	return nil
}

// OnPassComplete implements Hooks. It performs no action.
func (h *NoOpHooks) OnPassComplete(report Report) error { return nil }

// Options holds all configuration for a sync run.
type Options struct {
	// --- Core Paths ---
	LibraryPath string `mapstructure:"libraryPath"` // Required: root of the Calibre library
	OutputPath  string `mapstructure:"outputPath"`  // Required: root of the mirrored tree

	// --- Selection & Strategy ---
	Tags     []string `mapstructure:"tags"`     // Tag selectors, synced independently in sequence
	Strategy Strategy `mapstructure:"strategy"` // "copy" or "link"

	// --- Performance & Caching ---
	WorkerCount     int    `mapstructure:"workers"` // Width of the worker pool (0 = default)
	CacheFilePath   string `mapstructure:"-"`       // Resolved path to the snapshot cache
	IgnoreCacheRead bool   `mapstructure:"-"`       // Force full resync (set by --no-cache)
	ClearCache      bool   `mapstructure:"-"`       // Delete cache file before the first pass
	DryRun          bool   `mapstructure:"-"`       // Plan and report without touching the tree

	// --- Behavior & Output ---
	Verbose        bool         `mapstructure:"verbose"`
	TuiEnabled     bool         `mapstructure:"tuiEnabled"`
	OutputFormat   OutputFormat `mapstructure:"outputFormat"`
	LogFilePath    string       `mapstructure:"logFile"` // Sync log location (default under output root)
	ConfigFilePath string       `mapstructure:"-"`       // Path to the loaded config file (for reporting)
	AppVersion     string       `mapstructure:"-"`

	// --- Watch Mode ---
	WatchMode     bool          `mapstructure:"-"`
	WatchDebounce time.Duration `mapstructure:"-"`
	WatchConfig   WatchConfig   `mapstructure:"watch"`

	// --- Injected Dependencies ---
	EventHooks    Hooks          `mapstructure:"-"` // Optional: defaults to NoOpHooks
	Logger        slog.Handler   `mapstructure:"-"` // Required: logging backend
	CatalogReader catalog.Reader `mapstructure:"-"` // Optional: defaults to SQLiteReader on LibraryPath
	CacheStore    cache.Store    `mapstructure:"-"` // Optional: defaults to FileStore at CacheFilePath
	Materializer  Materializer   `mapstructure:"-"` // Optional: derived from Strategy
}

// WatchConfig holds settings related to watch mode.
type WatchConfig struct {
	Debounce string `mapstructure:"debounce"`
}
