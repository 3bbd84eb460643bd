package hooks

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjpolzin/calibre2yac/pkg/syncer"
)

// capturingProgram records messages sent to the TUI.
type capturingProgram struct {
	mu   sync.Mutex
	msgs []interface{}
}

func (p *capturingProgram) Send(msg interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCLIHooksForwardToTUI(t *testing.T) {
	program := &capturingProgram{}
	h := NewCLIHooks(discardLogger(), true, program)

	require.NoError(t, h.OnPlanReady("comics", 3, 1))
	require.NoError(t, h.OnOpStatusUpdate("/out/a.cbz", syncer.OpMaterialize, syncer.StatusMaterialized, "", 5*time.Millisecond))
	require.NoError(t, h.OnPassComplete(syncer.Report{}))

	require.Len(t, program.msgs, 3)
	plan, ok := program.msgs[0].(PlanReadyMsg)
	require.True(t, ok)
	assert.Equal(t, PlanReadyMsg{Tag: "comics", Materialize: 3, Remove: 1}, plan)

	op, ok := program.msgs[1].(OpStatusMsg)
	require.True(t, ok)
	assert.Equal(t, "/out/a.cbz", op.Target)
	assert.Equal(t, syncer.StatusMaterialized, op.Status)

	_, ok = program.msgs[2].(PassCompleteMsg)
	assert.True(t, ok)
}

func TestCLIHooksQuietWhenTUIDisabled(t *testing.T) {
	program := &capturingProgram{}
	h := NewCLIHooks(discardLogger(), false, program)

	require.NoError(t, h.OnPlanReady("comics", 1, 0))
	require.NoError(t, h.OnOpStatusUpdate("/out/a.cbz", syncer.OpMaterialize, syncer.StatusFailed, "boom", time.Millisecond))
	require.NoError(t, h.OnPassComplete(syncer.Report{}))

	assert.Empty(t, program.msgs, "nothing reaches the TUI program when disabled")
}

func TestNewCLIHooksNilProgram(t *testing.T) {
	h := NewCLIHooks(discardLogger(), true, nil)
	assert.NotPanics(t, func() {
		_ = h.OnPlanReady("comics", 0, 0)
		_ = h.OnOpStatusUpdate("x", syncer.OpRemove, syncer.StatusRemoved, "", 0)
	})
}
