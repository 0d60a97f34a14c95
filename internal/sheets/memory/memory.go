package memory

import (
	"context"
	"fmt"
	"sync"

	"financeflow/internal/core"
	"financeflow/internal/sheets"
)

// Mirror keeps journal rows in memory. Used when no spreadsheet is configured.
type Mirror struct {
	mu   sync.Mutex
	rows [][]any
}

var _ sheets.LedgerMirror = (*Mirror)(nil)

func New() *Mirror {
	return &Mirror{}
}

// AppendEvent stores the row and returns a synthetic row reference.
func (m *Mirror) AppendEvent(_ context.Context, ev core.LedgerEvent) (string, error) {
	if ev.Type == "" {
		return "", fmt.Errorf("event without type")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, sheets.EventRow(ev))
	return fmt.Sprintf("mem:%d", len(m.rows)), nil
}

// Rows returns a copy of the stored rows.
func (m *Mirror) Rows() [][]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]any, len(m.rows))
	copy(out, m.rows)
	return out
}
