// Package hooks bridges engine events to the CLI's UI layer (TUI or logger).
package hooks

import (
	"log/slog"
	"path/filepath"
	"time"

	"github.com/bjpolzin/calibre2yac/pkg/syncer"
)

// --- TUI message structs ---

// PlanReadyMsg signals that reconciliation finished and execution is starting.
type PlanReadyMsg struct {
	Tag         string
	Materialize int
	Remove      int
}

// OpStatusMsg signals a completed or failed operation.
type OpStatusMsg struct {
	Target   string
	Kind     syncer.OpKind
	Status   syncer.Status
	Message  string
	Duration time.Duration
}

// PassCompleteMsg signals the completion of one sync pass.
type PassCompleteMsg struct{ Report syncer.Report }

// TUIProgram defines the interface needed to interact with the Bubble Tea program.
type TUIProgram interface {
	Send(msg interface{})
}

// NoOpTUIProgram provides a default null implementation.
type NoOpTUIProgram struct{}

// Send implements TUIProgram.
func (n *NoOpTUIProgram) Send(msg interface{}) {}

// CLIHooks implements syncer.Hooks, forwarding events to the TUI program when
// enabled and to the logger otherwise. Safe for concurrent use: slog handlers
// are thread-safe and tea.Program.Send is documented as such.
type CLIHooks struct {
	logger     *slog.Logger
	tuiEnabled bool
	tuiProgram TUIProgram
}

// NewCLIHooks creates a CLIHooks instance. Pass nil for tuiProgram when the
// TUI is disabled; a no-op implementation is substituted.
func NewCLIHooks(logger *slog.Logger, tuiEnabled bool, tuiProgram TUIProgram) syncer.Hooks {
	if tuiProgram == nil {
		tuiProgram = &NoOpTUIProgram{}
	}
	return &CLIHooks{logger: logger, tuiEnabled: tuiEnabled, tuiProgram: tuiProgram}
}

// OnPlanReady implements syncer.Hooks.
func (h *CLIHooks) OnPlanReady(tag string, materialize, remove int) error {
	if h.tuiEnabled {
		h.tuiProgram.Send(PlanReadyMsg{Tag: tag, Materialize: materialize, Remove: remove})
	}
	return nil
}

// OnOpStatusUpdate implements syncer.Hooks.
func (h *CLIHooks) OnOpStatusUpdate(target string, kind syncer.OpKind, status syncer.Status, message string, duration time.Duration) error {
	if h.tuiEnabled {
		h.tuiProgram.Send(OpStatusMsg{
			Target:   target,
			Kind:     kind,
			Status:   status,
			Message:  message,
			Duration: duration,
		})
		return nil
	}
	if status == syncer.StatusFailed {
		h.logger.Warn("Operation failed",
			slog.String("op", string(kind)),
			slog.String("target", filepath.Base(target)),
			slog.String("error", message))
	}
	return nil
}

// OnPassComplete implements syncer.Hooks.
func (h *CLIHooks) OnPassComplete(report syncer.Report) error {
	if h.tuiEnabled {
		h.tuiProgram.Send(PassCompleteMsg{Report: report})
	}
	return nil
}
