package syncer

import "time"

// Constants defining default values for configuration options. These feed the
// Viper defaults set up during configuration loading.
const (
	// DefaultWorkerCount is the default width of the execution pool.
	DefaultWorkerCount = 4
	// DefaultStrategy is the default materialization strategy.
	DefaultStrategy = StrategyCopy
	// DefaultOutputFormat is the default format for the final summary report.
	DefaultOutputFormat = OutputFormatText
	// DefaultTuiEnabled is the default state for the terminal UI.
	DefaultTuiEnabled = true
	// DefaultVerbose is the default state for verbose logging.
	DefaultVerbose = false
	// DefaultWatchDebounceString is the default debounce duration string for watch mode.
	DefaultWatchDebounceString = "2s"
	// DefaultWatchDebounceDuration is the parsed default debounce duration.
	DefaultWatchDebounceDuration = 2 * time.Second
)

// Constants related to the persisted snapshot cache.
const (
	// CacheFileName is the fixed name of the snapshot cache under the output root.
	CacheFileName = ".metadata_cache.json"
)

// Constants related to the sync log.
const (
	// LogFileName is the default sync log name under the output root.
	LogFileName = "sync_log.txt"
)

// NoSeriesDir is the fallback bucket for items without a series.
const NoSeriesDir = "No Series"

// sweepExcludeDir is the reserved directory name the sweeper never removes.
const sweepExcludeDir = ".git"

// RecognizedExtensions is the media extension set the orphan scan recognizes.
// Files under the output root with any other extension are never touched.
var RecognizedExtensions = []string{".cbr", ".cbz", ".pdf", ".zip"}

// Constants related to the report schema.
const (
	// ReportSchemaVersion indicates the version of the JSON report structure.
	ReportSchemaVersion = "1.0"
)
