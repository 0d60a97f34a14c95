package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"financeflow/internal/core"
)

// movementSchema maps a movement kind onto its table.
type movementSchema struct {
	table string
	label string
}

func schemaFor(kind core.Kind) (movementSchema, error) {
	switch kind {
	case core.KindExpense:
		return movementSchema{table: "expenses", label: "category"}, nil
	case core.KindIncome:
		return movementSchema{table: "income", label: "source"}, nil
	}
	return movementSchema{}, core.Invalidf("unknown movement kind %q", kind)
}

func (s movementSchema) selectQuery(where string) string {
	return fmt.Sprintf(`SELECT t.id, t.date, t.amount_cents, t.%s, t.subcategory, t.note, t.account_id, COALESCE(a.name, '')
		FROM %s t LEFT JOIN accounts a ON a.id = t.account_id %s`, s.label, s.table, where)
}

func scanMovement(row interface{ Scan(...any) error }, kind core.Kind) (core.Movement, error) {
	m := core.Movement{Kind: kind}
	var date string
	if err := row.Scan(&m.ID, &date, &m.Amount.Cents, &m.Category, &m.Subcategory, &m.Note, &m.AccountID, &m.AccountName); err != nil {
		return core.Movement{}, err
	}
	d, err := parseStoredDate(date)
	if err != nil {
		return core.Movement{}, err
	}
	m.Date = d
	return m, nil
}

func getMovement(ctx context.Context, q querier, kind core.Kind, id int64) (core.Movement, error) {
	s, err := schemaFor(kind)
	if err != nil {
		return core.Movement{}, err
	}
	m, err := scanMovement(q.QueryRowContext(ctx, s.selectQuery(`WHERE t.id = ?`), id), kind)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Movement{}, core.NotFoundf("%s %d", kind, id)
	}
	if err != nil {
		return core.Movement{}, storeErr("get "+string(kind), err)
	}
	return m, nil
}

// writeMovement inserts m and applies its balance delta. Callers own the transaction.
func writeMovement(ctx context.Context, tx *sql.Tx, m core.Movement) (int64, error) {
	s, err := schemaFor(m.Kind)
	if err != nil {
		return 0, err
	}
	res, err := tx.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (date, amount_cents, %s, subcategory, note, account_id) VALUES (?, ?, ?, ?, ?, ?)`, s.table, s.label),
		m.Date.String(), m.Amount.Cents, m.Category, m.Subcategory, m.Note, m.AccountID)
	if err != nil {
		return 0, storeErr("insert "+string(m.Kind), err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, storeErr("insert "+string(m.Kind), err)
	}
	if err := applyDelta(ctx, tx, m.AccountID, m.Delta()); err != nil {
		return 0, err
	}
	return id, nil
}

// GetMovement returns one movement with its account name.
func (r *SQLiteRepository) GetMovement(ctx context.Context, kind core.Kind, id int64) (core.Movement, error) {
	return getMovement(ctx, r.db, kind, id)
}

// CreateMovement records a movement against a named account and adjusts its balance.
func (r *SQLiteRepository) CreateMovement(ctx context.Context, n core.NewMovement) (core.Movement, error) {
	if err := n.Validate(); err != nil {
		return core.Movement{}, err
	}

	var created core.Movement
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		a, err := accountByName(ctx, tx, n.AccountName)
		if err != nil {
			return err
		}
		m := n.Movement(a.ID)
		m.AccountName = a.Name
		if m.ID, err = writeMovement(ctx, tx, m); err != nil {
			return err
		}
		created = m
		return nil
	})
	if err != nil {
		return core.Movement{}, err
	}

	slog.InfoContext(ctx, "Movement saved to SQLite",
		"kind", created.Kind,
		"id", created.ID,
		"account", created.AccountName,
		"amount_cents", created.Amount.Cents,
		"date", created.Date.String())
	return created, nil
}

// UpdateMovement applies a partial update. The original delta is reverted on the
// original account and the new delta applied on the possibly different target
// account, all in one transaction.
func (r *SQLiteRepository) UpdateMovement(ctx context.Context, kind core.Kind, id int64, patch core.MovementPatch) (core.Movement, error) {
	var updated core.Movement
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		orig, err := getMovement(ctx, tx, kind, id)
		if err != nil {
			return err
		}
		if patch.IsEmpty() {
			return core.ErrNoFieldsProvided
		}
		if err := patch.Validate(); err != nil {
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

		if err := applyDelta(ctx, tx, orig.AccountID, -orig.Delta()); err != nil {
			return err
		}
		s, _ := schemaFor(kind)
		_, err = tx.ExecContext(ctx,
			fmt.Sprintf(`UPDATE %s SET date = ?, amount_cents = ?, %s = ?, subcategory = ?, note = ?, account_id = ? WHERE id = ?`, s.table, s.label),
			next.Date.String(), next.Amount.Cents, next.Category, next.Subcategory, next.Note, next.AccountID, id)
		if err != nil {
			return storeErr("update "+string(kind), err)
		}
		if err := applyDelta(ctx, tx, next.AccountID, next.Delta()); err != nil {
			return err
		}
		updated = next
		return nil
	})
	if err != nil {
		return core.Movement{}, err
	}

	slog.InfoContext(ctx, "Movement updated in SQLite", "kind", kind, "id", id, "account", updated.AccountName)
	return updated, nil
}

// DeleteMovement reverts a movement's delta and removes it.
func (r *SQLiteRepository) DeleteMovement(ctx context.Context, kind core.Kind, id int64) (core.Movement, error) {
	var deleted core.Movement
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		orig, err := getMovement(ctx, tx, kind, id)
		if err != nil {
			return err
		}
		if err := applyDelta(ctx, tx, orig.AccountID, -orig.Delta()); err != nil {
			return err
		}
		s, _ := schemaFor(kind)
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+s.table+` WHERE id = ?`, id); err != nil {
			return storeErr("delete "+string(kind), err)
		}
		deleted = orig
		return nil
	})
	if err != nil {
		return core.Movement{}, err
	}

	slog.InfoContext(ctx, "Movement deleted from SQLite", "kind", kind, "id", id)
	return deleted, nil
}

// ListMovements returns movements of one kind in the inclusive range, oldest first.
func (r *SQLiteRepository) ListMovements(ctx context.Context, kind core.Kind, rng core.DateRange) ([]core.Movement, error) {
	if err := rng.Validate(); err != nil {
		return nil, err
	}
	s, err := schemaFor(kind)
	if err != nil {
		return nil, err
	}
	return r.queryMovements(ctx, kind,
		s.selectQuery(`WHERE t.date BETWEEN ? AND ? ORDER BY t.date, t.id`),
		rng.From.String(), rng.To.String())
}

// SearchByNote finds movements of both kinds whose note contains keyword.
func (r *SQLiteRepository) SearchByNote(ctx context.Context, keyword string, rng core.DateRange) (core.SearchResult, error) {
	if err := rng.Validate(); err != nil {
		return core.SearchResult{}, err
	}
	pattern := "%" + escapeLike(keyword) + "%"
	var result core.SearchResult
	for _, kind := range []core.Kind{core.KindExpense, core.KindIncome} {
		s, _ := schemaFor(kind)
		found, err := r.queryMovements(ctx, kind,
			s.selectQuery(`WHERE t.note LIKE ? ESCAPE '\' AND t.date BETWEEN ? AND ? ORDER BY t.date, t.id`),
			pattern, rng.From.String(), rng.To.String())
		if err != nil {
			return core.SearchResult{}, err
		}
		if kind == core.KindExpense {
			result.Expenses = found
		} else {
			result.Income = found
		}
	}
	return result, nil
}

func (r *SQLiteRepository) queryMovements(ctx context.Context, kind core.Kind, query string, args ...any) ([]core.Movement, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr("list "+string(kind), err)
	}
	defer rows.Close()

	movements := []core.Movement{}
	for rows.Next() {
		m, err := scanMovement(rows, kind)
		if err != nil {
			return nil, storeErr("scan "+string(kind), err)
		}
		movements = append(movements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate "+string(kind), err)
	}
	return movements, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// Transfer moves amount between two accounts as a synthetic expense and income
// pair. Both accounts are resolved before anything is written.
func (r *SQLiteRepository) Transfer(ctx context.Context, from, to string, amount core.Money, date core.Date) (core.TransferResult, error) {
	if err := amount.Validate(); err != nil {
		return core.TransferResult{}, err
	}
	if err := date.Validate(); err != nil {
		return core.TransferResult{}, err
	}
	if strings.EqualFold(strings.TrimSpace(from), strings.TrimSpace(to)) {
		return core.TransferResult{}, core.Invalidf("transfer source and destination are the same account")
	}

	var result core.TransferResult
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		src, err := accountByName(ctx, tx, from)
		if err != nil {
			return err
		}
		dst, err := accountByName(ctx, tx, to)
		if err != nil {
			return err
		}

		expenseID, err := writeMovement(ctx, tx, core.Movement{
			Kind:        core.KindExpense,
			Date:        date,
			Amount:      amount,
			Category:    core.TransferCategory,
			Subcategory: core.TransferSubcategory,
			Note:        "Transfer to " + dst.Name,
			AccountID:   src.ID,
		})
		if err != nil {
			return err
		}
		incomeID, err := writeMovement(ctx, tx, core.Movement{
			Kind:      core.KindIncome,
			Date:      date,
			Amount:    amount,
			Category:  core.TransferSource,
			Note:      "Transfer from " + src.Name,
			AccountID: dst.ID,
		})
		if err != nil {
			return err
		}

		result = core.TransferResult{
			ExpenseID: expenseID,
			IncomeID:  incomeID,
			From:      src.Name,
			To:        dst.Name,
			Amount:    amount,
			Date:      date,
		}
		return nil
	})
	if err != nil {
		return core.TransferResult{}, err
	}

	slog.InfoContext(ctx, "Transfer saved to SQLite",
		"from", result.From, "to", result.To, "amount_cents", amount.Cents,
		"expense_id", result.ExpenseID, "income_id", result.IncomeID)
	return result, nil
}

// MaterializeOccurrence writes one occurrence of a recurring obligation against
// its stored account id, as its own atomic unit.
func (r *SQLiteRepository) MaterializeOccurrence(ctx context.Context, ob core.RecurringObligation, on core.Date) (core.Movement, error) {
	m := ob.Occurrence(on)
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		id, err := writeMovement(ctx, tx, m)
		if err != nil {
			return err
		}
		m.ID = id
		return nil
	})
	if err != nil {
		return core.Movement{}, fmt.Errorf("materialize recurring %d on %s: %w", ob.ID, on, err)
	}
	return m, nil
}
