package storage

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"financeflow/internal/core"
)

const recurringSelect = `SELECT r.id, r.kind, r.amount_cents, r.category_or_source, r.subcategory, r.note,
	r.frequency, r.next_due_date, r.anchor_day, r.account_id, COALESCE(a.name, '')
	FROM recurring_transactions r LEFT JOIN accounts a ON a.id = r.account_id `

func scanRecurring(row interface{ Scan(...any) error }) (core.RecurringObligation, error) {
	var (
		ob  core.RecurringObligation
		due string
	)
	err := row.Scan(&ob.ID, &ob.Kind, &ob.Amount.Cents, &ob.CategoryOrSource, &ob.Subcategory, &ob.Note,
		&ob.Frequency, &due, &ob.AnchorDay, &ob.AccountID, &ob.AccountName)
	if err != nil {
		return core.RecurringObligation{}, err
	}
	if ob.NextDueDate, err = parseStoredDate(due); err != nil {
		return core.RecurringObligation{}, err
	}
	return ob, nil
}

func getRecurring(ctx context.Context, q querier, id int64) (core.RecurringObligation, error) {
	ob, err := scanRecurring(q.QueryRowContext(ctx, recurringSelect+`WHERE r.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.RecurringObligation{}, core.NotFoundf("recurring transaction %d", id)
	}
	if err != nil {
		return core.RecurringObligation{}, storeErr("get recurring transaction", err)
	}
	return ob, nil
}

// CreateRecurring stores a new obligation whose first due date is the start date.
func (r *SQLiteRepository) CreateRecurring(ctx context.Context, n core.NewRecurring) (core.RecurringObligation, error) {
	if err := n.Validate(); err != nil {
		return core.RecurringObligation{}, err
	}

	var created core.RecurringObligation
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		a, err := accountByName(ctx, tx, n.AccountName)
		if err != nil {
			return err
		}
		ob := n.Obligation(a.ID)
		ob.AccountName = a.Name
		res, err := tx.ExecContext(ctx, `INSERT INTO recurring_transactions
			(kind, amount_cents, category_or_source, subcategory, note, frequency, next_due_date, anchor_day, account_id)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			ob.Kind, ob.Amount.Cents, ob.CategoryOrSource, ob.Subcategory, ob.Note,
			ob.Frequency, ob.NextDueDate.String(), ob.AnchorDay, ob.AccountID)
		if err != nil {
			return storeErr("create recurring transaction", err)
		}
		if ob.ID, err = res.LastInsertId(); err != nil {
			return storeErr("create recurring transaction", err)
		}
		created = ob
		return nil
	})
	if err != nil {
		return core.RecurringObligation{}, err
	}

	slog.InfoContext(ctx, "Recurring transaction saved to SQLite",
		"id", created.ID,
		"kind", created.Kind,
		"frequency", created.Frequency,
		"next_due_date", created.NextDueDate.String())
	return created, nil
}

// ListRecurring returns every obligation ordered by next due date.
func (r *SQLiteRepository) ListRecurring(ctx context.Context) ([]core.RecurringObligation, error) {
	return r.queryRecurring(ctx, recurringSelect+`ORDER BY r.next_due_date, r.id`)
}

// DueRecurring returns obligations whose next due date is on or before asOf.
func (r *SQLiteRepository) DueRecurring(ctx context.Context, asOf core.Date) ([]core.RecurringObligation, error) {
	return r.queryRecurring(ctx, recurringSelect+`WHERE r.next_due_date <= ? ORDER BY r.next_due_date, r.id`, asOf.String())
}

func (r *SQLiteRepository) queryRecurring(ctx context.Context, query string, args ...any) ([]core.RecurringObligation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr("list recurring transactions", err)
	}
	defer rows.Close()

	obligations := []core.RecurringObligation{}
	for rows.Next() {
		ob, err := scanRecurring(rows)
		if err != nil {
			return nil, storeErr("scan recurring transaction", err)
		}
		obligations = append(obligations, ob)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate recurring transactions", err)
	}
	return obligations, nil
}

// UpdateRecurring applies a partial update of amount, next due date or account.
func (r *SQLiteRepository) UpdateRecurring(ctx context.Context, id int64, patch core.RecurringPatch) (core.RecurringObligation, error) {
	if patch.IsEmpty() {
		return core.RecurringObligation{}, core.ErrNoFieldsProvided
	}
	if err := patch.Validate(); err != nil {
		return core.RecurringObligation{}, err
	}

	var updated core.RecurringObligation
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		orig, err := getRecurring(ctx, tx, id)
		if err != nil {
			return err
		}
		next := patch.Apply(orig)
		if patch.AccountName != nil {
			a, err := accountByName(ctx, tx, *patch.AccountName)
			if err != nil {
				return err
			}
			next.AccountID, next.AccountName = a.ID, a.Name
		}
		_, err = tx.ExecContext(ctx, `UPDATE recurring_transactions
			SET amount_cents = ?, next_due_date = ?, anchor_day = ?, account_id = ? WHERE id = ?`,
			next.Amount.Cents, next.NextDueDate.String(), next.AnchorDay, next.AccountID, id)
		if err != nil {
			return storeErr("update recurring transaction", err)
		}
		updated = next
		return nil
	})
	if err != nil {
		return core.RecurringObligation{}, err
	}

	slog.InfoContext(ctx, "Recurring transaction updated in SQLite", "id", id)
	return updated, nil
}

func (r *SQLiteRepository) DeleteRecurring(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM recurring_transactions WHERE id = ?`, id)
	if err != nil {
		return storeErr("delete recurring transaction", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr("delete recurring transaction", err)
	}
	if n == 0 {
		return core.NotFoundf("recurring transaction %d", id)
	}
	slog.InfoContext(ctx, "Recurring transaction deleted from SQLite", "id", id)
	return nil
}

// SetNextDueDate persists the scheduler's advanced due date.
func (r *SQLiteRepository) SetNextDueDate(ctx context.Context, id int64, due core.Date) error {
	res, err := r.db.ExecContext(ctx, `UPDATE recurring_transactions SET next_due_date = ? WHERE id = ?`, due.String(), id)
	if err != nil {
		return storeErr("set next due date", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.NotFoundf("recurring transaction %d", id)
	}
	return nil
}
