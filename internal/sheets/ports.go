package sheets

import (
	"context"
	"strconv"
	"time"

	"financeflow/internal/core"
)

// Ports for outbound adapters.
type (
	// LedgerMirror appends one journal row per committed ledger event.
	LedgerMirror interface {
		AppendEvent(ctx context.Context, ev core.LedgerEvent) (rowRef string, err error)
	}
)

// Header is the first row of a mirror journal sheet.
var Header = []any{"Timestamp", "Event", "ID", "Account", "Kind", "Date", "Amount", "Category", "Subcategory", "Note"}

// EventRow flattens an event into journal cells in Header order.
func EventRow(ev core.LedgerEvent) []any {
	row := []any{
		ev.Timestamp.UTC().Format(time.RFC3339),
		string(ev.Type),
		strconv.FormatInt(ev.EntityID, 10),
		ev.Account,
		"", "", "", "", "", "",
	}
	switch {
	case ev.Movement != nil:
		m := ev.Movement
		row[4], row[5], row[6] = string(m.Kind), m.Date.String(), m.Amount.String()
		row[7], row[8], row[9] = m.Category, m.Subcategory, m.Note
	case ev.Transfer != nil:
		tr := ev.Transfer
		row[5], row[6] = tr.Date.String(), tr.Amount.String()
		row[7], row[9] = core.TransferCategory, tr.From+" -> "+tr.To
	case ev.Recurring != nil:
		r := ev.Recurring
		row[4], row[5], row[6] = string(r.Kind), r.NextDueDate.String(), r.Amount.String()
		row[7], row[8], row[9] = r.CategoryOrSource, r.Subcategory, string(r.Frequency)
	}
	return row
}
