package syncer

import "errors"

// Exported error variables. These represent the categories of failure a sync
// pass can encounter; callers can check against them using errors.Is.
var (
	// ErrConfigValidation indicates that the provided Options failed validation
	// checks performed by NewEngine (missing paths, invalid strategy, bad worker
	// count). Always fatal.
	ErrConfigValidation = errors.New("invalid configuration options provided")

	// ErrStoreUnavailable indicates the catalog store could not be opened or
	// queried. Fatal for the pass.
	ErrStoreUnavailable = errors.New("catalog store unavailable")

	// ErrOutputRoot indicates the output root could not be created or accessed.
	// Fatal for the pass.
	ErrOutputRoot = errors.New("cannot create output root")

	// ErrCacheLoad indicates the snapshot cache file could not be read or
	// decoded. Treated as an empty cache and logged, never fatal.
	ErrCacheLoad = errors.New("failed to load snapshot cache")

	// ErrCachePersist indicates the snapshot cache could not be written after a
	// pass. Logged as an error; the pass itself still completes.
	ErrCachePersist = errors.New("failed to persist snapshot cache")

	// ErrMaterialize indicates a single materialization (copy or link) failed.
	// Collected per item, never aborts sibling operations.
	ErrMaterialize = errors.New("materialization failed")

	// ErrRemove indicates a single orphan removal failed. Collected per path,
	// never aborts sibling operations.
	ErrRemove = errors.New("removal failed")

	// ErrMkdir indicates a target directory could not be created.
	ErrMkdir = errors.New("failed to create target directory")
)
