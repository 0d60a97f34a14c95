package storage

import (
	"context"

	"financeflow/internal/core"
)

// applyDelta is the only statement that writes account balances. It must run in
// the same transaction as the movement row it accounts for.
func applyDelta(ctx context.Context, q querier, accountID, delta int64) error {
	res, err := q.ExecContext(ctx,
		`UPDATE accounts SET balance_cents = balance_cents + ? WHERE id = ?`, delta, accountID)
	if err != nil {
		return storeErr("apply balance delta", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr("apply balance delta", err)
	}
	if n == 0 {
		return core.NotFoundf("account %d", accountID)
	}
	return nil
}

// BalanceDrift recomputes every balance from its movements and returns the
// accounts whose stored balance disagrees. An empty result means the ledger is
// consistent.
func (r *SQLiteRepository) BalanceDrift(ctx context.Context) ([]core.BalanceDrift, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, cached, computed FROM (
			SELECT a.id, a.name, a.balance_cents AS cached,
				a.initial_balance_cents
				+ COALESCE((SELECT SUM(i.amount_cents) FROM income i WHERE i.account_id = a.id), 0)
				- COALESCE((SELECT SUM(e.amount_cents) FROM expenses e WHERE e.account_id = a.id), 0) AS computed
			FROM accounts a
		) WHERE cached != computed
		ORDER BY name`)
	if err != nil {
		return nil, storeErr("query balance drift", err)
	}
	defer rows.Close()

	var drift []core.BalanceDrift
	for rows.Next() {
		var d core.BalanceDrift
		if err := rows.Scan(&d.AccountID, &d.Name, &d.Cached.Cents, &d.Computed.Cents); err != nil {
			return nil, storeErr("scan balance drift", err)
		}
		drift = append(drift, d)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate balance drift", err)
	}
	return drift, nil
}
