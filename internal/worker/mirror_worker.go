package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"financeflow/internal/core"
	"financeflow/internal/sheets"
)

// MirrorWorker appends consumed ledger events to a sheets mirror.
type MirrorWorker struct {
	mirror   sheets.LedgerMirror
	mirrored atomic.Int64
}

func NewMirrorWorker(mirror sheets.LedgerMirror) *MirrorWorker {
	return &MirrorWorker{mirror: mirror}
}

// HandleEvent mirrors one event. Errors make the consumer requeue the delivery.
func (w *MirrorWorker) HandleEvent(ctx context.Context, ev core.LedgerEvent) error {
	if w.mirror == nil {
		return fmt.Errorf("mirror worker not properly initialized")
	}

	ref, err := w.mirror.AppendEvent(ctx, ev)
	if err != nil {
		return fmt.Errorf("mirror %s %d: %w", ev.Type, ev.EntityID, err)
	}

	n := w.mirrored.Add(1)
	slog.InfoContext(ctx, "Mirrored ledger event",
		"type", ev.Type,
		"entity_id", ev.EntityID,
		"ref", ref,
		"mirrored_total", n)
	return nil
}

// Mirrored returns how many events this worker has written.
func (w *MirrorWorker) Mirrored() int64 {
	return w.mirrored.Load()
}
