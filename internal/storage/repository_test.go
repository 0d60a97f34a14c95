package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"financeflow/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func mustAccount(t *testing.T, repo *SQLiteRepository, name string, initialCents int64) core.Account {
	t.Helper()
	a, err := repo.CreateAccount(context.Background(), core.Account{Name: name, Kind: "Bank", InitialBalance: core.Money{Cents: initialCents}})
	if err != nil {
		t.Fatalf("create account %s: %v", name, err)
	}
	return a
}

func mustMovement(t *testing.T, repo *SQLiteRepository, kind core.Kind, date string, cents int64, category, account, note string) core.Movement {
	t.Helper()
	d, err := core.ParseDate(date)
	if err != nil {
		t.Fatalf("parse date: %v", err)
	}
	m, err := repo.CreateMovement(context.Background(), core.NewMovement{
		Kind: kind, Date: d, Amount: core.Money{Cents: cents}, Category: category, Note: note, AccountName: account,
	})
	if err != nil {
		t.Fatalf("create %s: %v", kind, err)
	}
	return m
}

func balanceOf(t *testing.T, repo *SQLiteRepository, name string) int64 {
	t.Helper()
	a, err := repo.GetAccount(context.Background(), name)
	if err != nil {
		t.Fatalf("get account %s: %v", name, err)
	}
	return a.Balance.Cents
}

// assertConsistent fails when any balance disagrees with initial + income - expenses.
func assertConsistent(t *testing.T, repo *SQLiteRepository) {
	t.Helper()
	drift, err := repo.BalanceDrift(context.Background())
	if err != nil {
		t.Fatalf("balance drift: %v", err)
	}
	for _, d := range drift {
		t.Errorf("account %s: stored %d, computed %d", d.Name, d.Cached.Cents, d.Computed.Cents)
	}
}

func rangeOf(t *testing.T, from, to string) core.DateRange {
	t.Helper()
	r, err := core.ParseDateRange(from, to)
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	return r
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	for i := 0; i < 2; i++ {
		repo, err := NewSQLiteRepository(path)
		if err != nil {
			t.Fatalf("open %d: %v", i, err)
		}
		repo.Close()
	}
}

func TestAccounts(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	mustAccount(t, repo, "Savings", 0)
	checking := mustAccount(t, repo, "Checking", 100000)
	if checking.Balance.Cents != 100000 {
		t.Fatalf("balance should start at initial balance, got %d", checking.Balance.Cents)
	}

	if _, err := repo.CreateAccount(ctx, core.Account{Name: "checking"}); !errors.Is(err, core.ErrConflict) {
		t.Fatalf("expected ErrConflict for case-insensitive duplicate, got %v", err)
	}

	accounts, err := repo.ListAccounts(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(accounts) != 2 || accounts[0].Name != "Checking" || accounts[1].Name != "Savings" {
		t.Fatalf("unexpected accounts %+v", accounts)
	}

	if _, err := repo.GetAccount(ctx, "CHECKING"); err != nil {
		t.Fatalf("case-insensitive lookup: %v", err)
	}
	if _, err := repo.RenameAccount(ctx, "Savings", "CHECKING"); !errors.Is(err, core.ErrConflict) {
		t.Fatalf("expected ErrConflict on rename, got %v", err)
	}
	if _, err := repo.RenameAccount(ctx, "Nope", "Other"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on rename, got %v", err)
	}
	renamed, err := repo.RenameAccount(ctx, "savings", "Rainy Day")
	if err != nil || renamed.Name != "Rainy Day" {
		t.Fatalf("rename: %+v %v", renamed, err)
	}
}

func TestDeleteAccountRefusedWhileReferenced(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	mustAccount(t, repo, "Cash", 5000)
	mustAccount(t, repo, "Empty", 0)
	mustMovement(t, repo, core.KindExpense, "2024-01-05", 1000, "Food", "Cash", "")

	if _, err := repo.DeleteAccount(ctx, "Cash"); !errors.Is(err, core.ErrPreconditionFailed) {
		t.Fatalf("expected ErrPreconditionFailed, got %v", err)
	}
	if _, err := repo.GetAccount(ctx, "Cash"); err != nil {
		t.Fatalf("account should survive refused delete: %v", err)
	}
	if _, err := repo.DeleteAccount(ctx, "empty"); err != nil {
		t.Fatalf("delete unreferenced: %v", err)
	}
	if _, err := repo.DeleteAccount(ctx, "empty"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateMovementAdjustsBalance(t *testing.T) {
	repo := newTestRepo(t)
	mustAccount(t, repo, "Checking", 100000)

	mustMovement(t, repo, core.KindExpense, "2024-01-05", 2550, "Food", "checking", "groceries")
	if got := balanceOf(t, repo, "Checking"); got != 97450 {
		t.Fatalf("after expense balance = %d, want 97450", got)
	}
	mustMovement(t, repo, core.KindIncome, "2024-01-06", 300000, "Salary", "Checking", "")
	if got := balanceOf(t, repo, "Checking"); got != 397450 {
		t.Fatalf("after income balance = %d, want 397450", got)
	}
	assertConsistent(t, repo)
}

func TestCreateMovementUnknownAccountWritesNothing(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	mustAccount(t, repo, "Checking", 0)

	_, err := repo.CreateMovement(ctx, core.NewMovement{
		Kind: core.KindExpense, Date: core.NewDate(2024, 1, 1), Amount: core.Money{Cents: 100},
		Category: "Food", AccountName: "Ghost",
	})
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	list, err := repo.ListMovements(ctx, core.KindExpense, rangeOf(t, "2000-01-01", "2100-01-01"))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected no expenses, got %d", len(list))
	}
}

func TestUpdateMovement(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	mustAccount(t, repo, "A", 10000)
	mustAccount(t, repo, "B", 0)
	exp := mustMovement(t, repo, core.KindExpense, "2024-02-01", 1000, "Food", "A", "lunch")

	t.Run("amount and account change", func(t *testing.T) {
		amount := core.Money{Cents: 2500}
		target := "b"
		got, err := repo.UpdateMovement(ctx, core.KindExpense, exp.ID, core.MovementPatch{Amount: &amount, AccountName: &target})
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if got.AccountName != "B" || got.Note != "lunch" || got.Category != "Food" {
			t.Fatalf("unexpected movement %+v", got)
		}
		if a, b := balanceOf(t, repo, "A"), balanceOf(t, repo, "B"); a != 10000 || b != -2500 {
			t.Fatalf("balances A=%d B=%d, want 10000 and -2500", a, b)
		}
		assertConsistent(t, repo)
	})

	t.Run("empty patch", func(t *testing.T) {
		_, err := repo.UpdateMovement(ctx, core.KindExpense, exp.ID, core.MovementPatch{})
		if !errors.Is(err, core.ErrNoFieldsProvided) || !errors.Is(err, core.ErrInvalidArgument) {
			t.Fatalf("expected ErrNoFieldsProvided, got %v", err)
		}
	})

	t.Run("unknown target account leaves state untouched", func(t *testing.T) {
		ghost := "Ghost"
		amount := core.Money{Cents: 9999}
		_, err := repo.UpdateMovement(ctx, core.KindExpense, exp.ID, core.MovementPatch{Amount: &amount, AccountName: &ghost})
		if !errors.Is(err, core.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		m, err := repo.GetMovement(ctx, core.KindExpense, exp.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if m.Amount.Cents != 2500 || m.AccountName != "B" {
			t.Fatalf("movement changed after failed update: %+v", m)
		}
		assertConsistent(t, repo)
	})

	t.Run("missing movement", func(t *testing.T) {
		note := "x"
		if _, err := repo.UpdateMovement(ctx, core.KindIncome, exp.ID+100, core.MovementPatch{Note: &note}); !errors.Is(err, core.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestDeleteMovementRevertsBalance(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	mustAccount(t, repo, "Checking", 5000)
	inc := mustMovement(t, repo, core.KindIncome, "2024-03-01", 1234, "Gift", "Checking", "")

	if _, err := repo.DeleteMovement(ctx, core.KindIncome, inc.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := balanceOf(t, repo, "Checking"); got != 5000 {
		t.Fatalf("balance = %d, want 5000", got)
	}
	if _, err := repo.DeleteMovement(ctx, core.KindIncome, inc.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	assertConsistent(t, repo)
}

func TestListAndSearchMovements(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	mustAccount(t, repo, "Checking", 0)
	mustMovement(t, repo, core.KindExpense, "2024-01-10", 100, "Food", "Checking", "Coffee beans")
	mustMovement(t, repo, core.KindExpense, "2024-01-02", 200, "Food", "Checking", "coffee shop")
	mustMovement(t, repo, core.KindExpense, "2024-02-01", 300, "Food", "Checking", "coffee outside range")
	mustMovement(t, repo, core.KindExpense, "2024-01-03", 400, "Fun", "Checking", "100% cotton")
	mustMovement(t, repo, core.KindIncome, "2024-01-15", 500, "Refund", "Checking", "coffee refund")

	list, err := repo.ListMovements(ctx, core.KindExpense, rangeOf(t, "2024-01-01", "2024-01-31"))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 || list[0].Date.String() != "2024-01-02" || list[2].Date.String() != "2024-01-10" {
		t.Fatalf("unexpected order %+v", list)
	}
	if list[0].AccountName != "Checking" {
		t.Fatalf("account name not joined: %+v", list[0])
	}

	res, err := repo.SearchByNote(ctx, "coffee", rangeOf(t, "2024-01-01", "2024-01-31"))
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(res.Expenses) != 2 || len(res.Income) != 1 {
		t.Fatalf("unexpected search result %+v", res)
	}

	res, err = repo.SearchByNote(ctx, "0%", rangeOf(t, "2024-01-01", "2024-01-31"))
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(res.Expenses) != 1 || res.Expenses[0].Note != "100% cotton" {
		t.Fatalf("percent should match literally, got %+v", res.Expenses)
	}

	if _, err := repo.ListMovements(ctx, core.KindExpense, core.DateRange{From: core.NewDate(2024, 2, 1), To: core.NewDate(2024, 1, 1)}); !errors.Is(err, core.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for reversed range, got %v", err)
	}
}

func TestTransfer(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	mustAccount(t, repo, "Checking", 100000)
	mustAccount(t, repo, "Savings", 0)

	res, err := repo.Transfer(ctx, "checking", "SAVINGS", core.Money{Cents: 25000}, core.NewDate(2024, 4, 1))
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if balanceOf(t, repo, "Checking") != 75000 || balanceOf(t, repo, "Savings") != 25000 {
		t.Fatalf("unexpected balances after transfer")
	}

	exp, err := repo.GetMovement(ctx, core.KindExpense, res.ExpenseID)
	if err != nil {
		t.Fatalf("get expense: %v", err)
	}
	if exp.Category != core.TransferCategory || exp.Subcategory != core.TransferSubcategory || exp.Note != "Transfer to Savings" {
		t.Fatalf("unexpected expense leg %+v", exp)
	}
	inc, err := repo.GetMovement(ctx, core.KindIncome, res.IncomeID)
	if err != nil {
		t.Fatalf("get income: %v", err)
	}
	if inc.Category != core.TransferSource || inc.Note != "Transfer from Checking" {
		t.Fatalf("unexpected income leg %+v", inc)
	}

	if _, err := repo.Transfer(ctx, "Checking", "Ghost", core.Money{Cents: 100}, core.NewDate(2024, 4, 2)); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if balanceOf(t, repo, "Checking") != 75000 {
		t.Fatalf("failed transfer changed balance")
	}
	list, _ := repo.ListMovements(ctx, core.KindExpense, rangeOf(t, "2024-04-01", "2024-04-30"))
	if len(list) != 1 {
		t.Fatalf("failed transfer left %d expense rows", len(list))
	}
	if _, err := repo.Transfer(ctx, "Checking", "checking", core.Money{Cents: 100}, core.NewDate(2024, 4, 2)); !errors.Is(err, core.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for self transfer, got %v", err)
	}
	assertConsistent(t, repo)
}

func TestTransfer_IncomeLegFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	mustAccount(t, repo, "Checking", 100000)
	mustAccount(t, repo, "Savings", 0)

	if _, err := repo.db.ExecContext(ctx, `CREATE TRIGGER reject_income BEFORE INSERT ON income
		BEGIN SELECT RAISE(ABORT, 'income rejected'); END`); err != nil {
		t.Fatalf("create trigger: %v", err)
	}

	if _, err := repo.Transfer(ctx, "Checking", "Savings", core.Money{Cents: 25000}, core.NewDate(2024, 4, 1)); err == nil {
		t.Fatalf("expected transfer to fail")
	}
	if got := balanceOf(t, repo, "Checking"); got != 100000 {
		t.Fatalf("source balance = %d, want 100000", got)
	}
	if got := balanceOf(t, repo, "Savings"); got != 0 {
		t.Fatalf("destination balance = %d, want 0", got)
	}
	list, err := repo.ListMovements(ctx, core.KindExpense, rangeOf(t, "2024-01-01", "2024-12-31"))
	if err != nil {
		t.Fatalf("list expenses: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("failed transfer left expense rows %+v", list)
	}
	assertConsistent(t, repo)
}
