package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"financeflow/internal/core"
	"financeflow/internal/storage"
)

// RecurringProcessor materializes every missed occurrence of due recurring
// obligations. Passes are serialized so two triggers never book the same date.
type RecurringProcessor struct {
	storage   *storage.SQLiteRepository
	publisher EventPublisher

	mu sync.Mutex
}

// NewRecurringProcessor creates a processor; publisher may be nil.
func NewRecurringProcessor(storage *storage.SQLiteRepository, publisher EventPublisher) *RecurringProcessor {
	return &RecurringProcessor{
		storage:   storage,
		publisher: publisher,
	}
}

// ProcessDue books every occurrence due on or before the calendar date of now and
// returns how many movements were created. An occurrence that fails to book is
// logged and skipped; each obligation's next due date is written once.
func (p *RecurringProcessor) ProcessDue(ctx context.Context, now time.Time) (int, error) {
	if p == nil || p.storage == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	today := core.DateOf(now)
	due, err := p.storage.DueRecurring(ctx, today)
	if err != nil {
		return 0, fmt.Errorf("get due recurring transactions: %w", err)
	}

	slog.InfoContext(ctx, "Processing recurring transactions",
		"total_due", len(due),
		"processing_date", today.String())

	processed := 0
	for _, ob := range due {
		advancer, err := GetDueDateAdvancer(ob.Frequency)
		if err != nil {
			slog.ErrorContext(ctx, "Skipping recurring transaction",
				"recurring_id", ob.ID,
				"error", err)
			continue
		}

		candidate := ob.NextDueDate
		for !candidate.After(today.Time) && !interrupted(ctx, nil) {
			m, err := p.storage.MaterializeOccurrence(ctx, ob, candidate)
			if interrupted(ctx, err) {
				// candidate stays as the next due date so a later pass books it
				slog.WarnContext(ctx, "Recurring occurrence interrupted",
					"recurring_id", ob.ID,
					"due_date", candidate.String(),
					"error", err)
				break
			}
			if err != nil {
				slog.ErrorContext(ctx, "Failed to book recurring occurrence",
					"recurring_id", ob.ID,
					"due_date", candidate.String(),
					"error", err)
			} else {
				processed++
				p.announce(ctx, m)
				slog.InfoContext(ctx, "Booked recurring occurrence",
					"recurring_id", ob.ID,
					"movement_id", m.ID,
					"kind", m.Kind,
					"due_date", candidate.String(),
					"amount_cents", m.Amount.Cents)
			}
			candidate = advancer.Next(candidate, ob.AnchorDay)
		}

		// Progress already booked must be recorded even if the caller gave up
		if err := p.storage.SetNextDueDate(context.WithoutCancel(ctx), ob.ID, candidate); err != nil {
			slog.ErrorContext(ctx, "Failed to update next due date",
				"recurring_id", ob.ID,
				"next_due_date", candidate.String(),
				"error", err)
		}

		if err := ctx.Err(); err != nil {
			return processed, fmt.Errorf("recurring processing interrupted: %w", err)
		}
	}

	slog.InfoContext(ctx, "Recurring transaction processing complete",
		"processed", processed,
		"total_checked", len(due))

	return processed, nil
}

// interrupted reports whether the pass was abandoned by its caller, as opposed to
// a single occurrence failing in the store.
func interrupted(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (p *RecurringProcessor) announce(ctx context.Context, m core.Movement) {
	if p.publisher == nil {
		return
	}
	ev := core.NewLedgerEvent(core.EventMovementCreated, m.ID)
	ev.Account = m.AccountName
	ev.Movement = &m
	if err := p.publisher.PublishLedgerEvent(ctx, ev); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event", "type", ev.Type, "entity_id", m.ID, "error", err)
	}
}
