package syncer

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Report summarizes the result of a single sync pass for one tag.
type Report struct {
	Summary    ReportSummary `json:"summary" yaml:"summary"`
	Operations []OpInfo      `json:"operations" yaml:"operations"`
	Errors     []ErrorInfo   `json:"errors" yaml:"errors"`
}

// ReportSummary contains aggregated statistics for one pass.
type ReportSummary struct {
	Tag               string    `json:"tag" yaml:"tag"`
	LibraryPath       string    `json:"libraryPath" yaml:"libraryPath"`
	OutputPath        string    `json:"outputPath" yaml:"outputPath"`
	ItemCount         int       `json:"itemCount" yaml:"itemCount"`
	MaterializedCount int       `json:"materializedCount" yaml:"materializedCount"`
	RemovedCount      int       `json:"removedCount" yaml:"removedCount"`
	FailedCount       int       `json:"failedCount" yaml:"failedCount"`
	SweptDirCount     int       `json:"sweptDirCount" yaml:"sweptDirCount"`
	Strategy          string    `json:"strategy" yaml:"strategy"`
	WorkerCount       int       `json:"workerCount" yaml:"workerCount"`
	DryRun            bool      `json:"dryRun" yaml:"dryRun"`
	DurationSeconds   float64   `json:"durationSeconds" yaml:"durationSeconds"`
	Timestamp         time.Time `json:"timestamp" yaml:"timestamp"`
	SchemaVersion     string    `json:"schemaVersion,omitempty" yaml:"schemaVersion,omitempty"`
}

// OpInfo details a single completed operation.
type OpInfo struct {
	Kind       OpKind `json:"kind" yaml:"kind"`
	Target     string `json:"target" yaml:"target"`
	Source     string `json:"source,omitempty" yaml:"source,omitempty"`
	ItemID     int64  `json:"itemId,omitempty" yaml:"itemId,omitempty"`
	Format     string `json:"format,omitempty" yaml:"format,omitempty"`
	Status     Status `json:"status" yaml:"status"`
	DurationMs int64  `json:"durationMs" yaml:"durationMs"`
}

// ErrorInfo details a non-fatal per-operation failure.
type ErrorInfo struct {
	Kind   OpKind `json:"kind" yaml:"kind"`
	Target string `json:"target" yaml:"target"`
	ItemID int64  `json:"itemId,omitempty" yaml:"itemId,omitempty"`
	Error  string `json:"error" yaml:"error"`
}

// Render formats the report in the requested output format.
func (r Report) Render(format OutputFormat) (string, error) {
	switch format {
	case OutputFormatJSON:
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to marshal report: %w", err)
		}
		return string(data), nil
	case OutputFormatYAML:
		data, err := yaml.Marshal(r)
		if err != nil {
			return "", fmt.Errorf("failed to marshal report: %w", err)
		}
		return string(data), nil
	case OutputFormatText, "":
		return r.renderText(), nil
	default:
		return "", fmt.Errorf("unknown output format '%s'", format)
	}
}

func (r Report) renderText() string {
	var b strings.Builder
	s := r.Summary
	fmt.Fprintf(&b, "Sync '%s': %d items, %d materialized, %d removed, %d failed, %d dirs swept (%.2fs",
		s.Tag, s.ItemCount, s.MaterializedCount, s.RemovedCount, s.FailedCount, s.SweptDirCount, s.DurationSeconds)
	if s.DryRun {
		b.WriteString(", dry-run")
	}
	b.WriteString(")")
	for _, e := range r.Errors {
		fmt.Fprintf(&b, "\n  %s failed: %s: %s", e.Kind, e.Target, e.Error)
	}
	return b.String()
}
