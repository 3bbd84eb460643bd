package syncer

// Status defines the possible processing states of a sync operation.
type Status string

// Constants representing the defined operation statuses.
const (
	StatusPending      Status = "pending"
	StatusMaterialized Status = "materialized"
	StatusRemoved      Status = "removed"
	StatusFailed       Status = "failed"
	StatusSkipped      Status = "skipped"
)

// Strategy defines how a target file is produced from its source.
type Strategy string

const (
	// StrategyCopy duplicates the source file's bytes at the target path.
	StrategyCopy Strategy = "copy"
	// StrategyLink creates a symbolic link at the target pointing to the source.
	StrategyLink Strategy = "link"
)

// OpKind distinguishes the two kinds of work an executor phase performs.
type OpKind string

const (
	OpMaterialize OpKind = "materialize"
	OpRemove      OpKind = "remove"
)

// OutputFormat defines the format for the final summary report printed to
// standard output when the TUI is disabled.
type OutputFormat string

const (
	OutputFormatText OutputFormat = "text"
	OutputFormatJSON OutputFormat = "json"
	OutputFormatYAML OutputFormat = "yaml"
)
