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

const accountColumns = `id, name, kind, initial_balance_cents, balance_cents`

func scanAccount(row interface{ Scan(...any) error }) (core.Account, error) {
	var a core.Account
	err := row.Scan(&a.ID, &a.Name, &a.Kind, &a.InitialBalance.Cents, &a.Balance.Cents)
	return a, err
}

// accountByName resolves an account case-insensitively.
func accountByName(ctx context.Context, q querier, name string) (core.Account, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE name = ?`, strings.TrimSpace(name))
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, core.NotFoundf("account %q", name)
	}
	if err != nil {
		return core.Account{}, storeErr("get account", err)
	}
	return a, nil
}

// CreateAccount inserts an account whose balance starts at its initial balance.
func (r *SQLiteRepository) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	a.Name = strings.TrimSpace(a.Name)
	a.Balance = a.InitialBalance
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (name, kind, initial_balance_cents, balance_cents) VALUES (?, ?, ?, ?)`,
		a.Name, a.Kind, a.InitialBalance.Cents, a.Balance.Cents)
	if isUniqueViolation(err) {
		return core.Account{}, fmt.Errorf("account %q: %w", a.Name, core.ErrConflict)
	}
	if err != nil {
		return core.Account{}, storeErr("create account", err)
	}
	if a.ID, err = res.LastInsertId(); err != nil {
		return core.Account{}, storeErr("create account", err)
	}

	slog.InfoContext(ctx, "Account saved to SQLite", "id", a.ID, "name", a.Name, "initial_balance_cents", a.InitialBalance.Cents)
	return a, nil
}

// GetAccount returns the account with the given name, ignoring case.
func (r *SQLiteRepository) GetAccount(ctx context.Context, name string) (core.Account, error) {
	return accountByName(ctx, r.db, name)
}

func (r *SQLiteRepository) ListAccounts(ctx context.Context) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY name`)
	if err != nil {
		return nil, storeErr("list accounts", err)
	}
	defer rows.Close()

	accounts := []core.Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, storeErr("scan account", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate accounts", err)
	}
	return accounts, nil
}

// RenameAccount changes an account's name. Movements keep pointing at it by id.
func (r *SQLiteRepository) RenameAccount(ctx context.Context, oldName, newName string) (core.Account, error) {
	var renamed core.Account
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		a, err := accountByName(ctx, tx, oldName)
		if err != nil {
			return err
		}
		newName = strings.TrimSpace(newName)
		_, err = tx.ExecContext(ctx, `UPDATE accounts SET name = ? WHERE id = ?`, newName, a.ID)
		if isUniqueViolation(err) {
			return fmt.Errorf("account %q: %w", newName, core.ErrConflict)
		}
		if err != nil {
			return storeErr("rename account", err)
		}
		a.Name = newName
		renamed = a
		return nil
	})
	return renamed, err
}

// DeleteAccount removes an account that nothing references.
func (r *SQLiteRepository) DeleteAccount(ctx context.Context, name string) (core.Account, error) {
	var deleted core.Account
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		a, err := accountByName(ctx, tx, name)
		if err != nil {
			return err
		}

		var refs int64
		err = tx.QueryRowContext(ctx, `
			SELECT (SELECT COUNT(*) FROM expenses WHERE account_id = ?1)
			     + (SELECT COUNT(*) FROM income WHERE account_id = ?1)
			     + (SELECT COUNT(*) FROM recurring_transactions WHERE account_id = ?1)`, a.ID).Scan(&refs)
		if err != nil {
			return storeErr("count account references", err)
		}
		if refs > 0 {
			return fmt.Errorf("account %q has %d linked transactions: %w", a.Name, refs, core.ErrPreconditionFailed)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, a.ID); err != nil {
			return storeErr("delete account", err)
		}
		deleted = a
		return nil
	})
	return deleted, err
}
