package services

import (
	"context"
	"database/sql/driver"
	"reflect"
	"sync"
	"testing"
	"time"

	"modernc.org/sqlite"

	"financeflow/internal/core"
	"financeflow/internal/storage"
)

func seedObligation(t *testing.T, repo *storage.SQLiteRepository, freq core.Frequency, start core.Date, cents int64) core.RecurringObligation {
	t.Helper()
	ctx := context.Background()
	if _, err := repo.GetAccount(ctx, "Checking"); err != nil {
		if _, err := repo.CreateAccount(ctx, core.Account{Name: "Checking", InitialBalance: core.Money{Cents: 100000}}); err != nil {
			t.Fatalf("create account: %v", err)
		}
	}
	ob, err := repo.CreateRecurring(ctx, core.NewRecurring{
		Kind: core.KindExpense, Amount: core.Money{Cents: cents}, CategoryOrSource: "Subscriptions",
		Frequency: freq, StartDate: start, AccountName: "Checking",
	})
	if err != nil {
		t.Fatalf("create recurring: %v", err)
	}
	return ob
}

func expenseDates(t *testing.T, repo *storage.SQLiteRepository) []string {
	t.Helper()
	list, err := repo.ListMovements(context.Background(), core.KindExpense,
		core.DateRange{From: core.NewDate(2000, 1, 1), To: core.NewDate(2100, 1, 1)})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	dates := make([]string, len(list))
	for i, m := range list {
		dates[i] = m.Date.String()
	}
	return dates
}

func TestProcessDue_WeeklyCatchUp(t *testing.T) {
	ctx := context.Background()
	repo := newTestStorage(t)
	ob := seedObligation(t, repo, core.FrequencyWeekly, core.NewDate(2024, 1, 1), 1000)
	pub := &fakePublisher{}
	p := NewRecurringProcessor(repo, pub)

	now := time.Date(2024, 1, 22, 18, 30, 0, 0, time.UTC)
	n, err := p.ProcessDue(ctx, now)
	if err != nil {
		t.Fatalf("ProcessDue() error = %v", err)
	}
	if n != 4 {
		t.Fatalf("ProcessDue() = %d, want 4", n)
	}

	want := []string{"2024-01-01", "2024-01-08", "2024-01-15", "2024-01-22"}
	got := expenseDates(t, repo)
	if len(got) != len(want) {
		t.Fatalf("booked dates = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("booked dates = %v, want %v", got, want)
		}
	}

	list, err := repo.ListRecurring(ctx)
	if err != nil {
		t.Fatalf("list recurring: %v", err)
	}
	if list[0].ID != ob.ID || list[0].NextDueDate.String() != "2024-01-29" {
		t.Fatalf("next due date = %s, want 2024-01-29", list[0].NextDueDate)
	}
	if len(pub.events) != 4 {
		t.Fatalf("published %d events, want 4", len(pub.events))
	}

	acc, err := repo.GetAccount(ctx, "Checking")
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if acc.Balance.Cents != 96000 {
		t.Fatalf("balance = %d, want 96000", acc.Balance.Cents)
	}

	// Same instant again books nothing
	n, err = p.ProcessDue(ctx, now)
	if err != nil || n != 0 {
		t.Fatalf("second run = %d, %v; want 0, nil", n, err)
	}
	if len(expenseDates(t, repo)) != 4 {
		t.Fatalf("second run created movements")
	}
}

func TestProcessDue_MonthlyEndOfMonth(t *testing.T) {
	ctx := context.Background()
	repo := newTestStorage(t)
	seedObligation(t, repo, core.FrequencyMonthly, core.NewDate(2024, 1, 31), 5000)
	p := NewRecurringProcessor(repo, nil)

	n, err := p.ProcessDue(ctx, time.Date(2024, 5, 31, 9, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ProcessDue() error = %v", err)
	}
	if n != 5 {
		t.Fatalf("ProcessDue() = %d, want 5", n)
	}
	want := []string{"2024-01-31", "2024-02-29", "2024-03-31", "2024-04-30", "2024-05-31"}
	got := expenseDates(t, repo)
	for i := range want {
		if i >= len(got) || got[i] != want[i] {
			t.Fatalf("booked dates = %v, want %v", got, want)
		}
	}

	list, _ := repo.ListRecurring(ctx)
	if list[0].NextDueDate.String() != "2024-06-30" {
		t.Fatalf("next due date = %s, want 2024-06-30", list[0].NextDueDate)
	}
}

func TestProcessDue_NotYetDue(t *testing.T) {
	ctx := context.Background()
	repo := newTestStorage(t)
	seedObligation(t, repo, core.FrequencyMonthly, core.NewDate(2024, 3, 1), 100)
	p := NewRecurringProcessor(repo, nil)

	n, err := p.ProcessDue(ctx, time.Date(2024, 2, 29, 23, 59, 0, 0, time.UTC))
	if err != nil || n != 0 {
		t.Fatalf("ProcessDue() = %d, %v; want 0, nil", n, err)
	}
}

func TestProcessDue_CancelledContext(t *testing.T) {
	repo := newTestStorage(t)
	seedObligation(t, repo, core.FrequencyWeekly, core.NewDate(2024, 1, 1), 100)
	p := NewRecurringProcessor(repo, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.ProcessDue(ctx, time.Date(2024, 1, 22, 0, 0, 0, 0, time.UTC)); err == nil {
		t.Fatalf("expected error for cancelled context")
	}
	if dates := expenseDates(t, repo); len(dates) != 0 {
		t.Fatalf("cancelled pass booked %v", dates)
	}
}

func nextDue(t *testing.T, repo *storage.SQLiteRepository) string {
	t.Helper()
	list, err := repo.ListRecurring(context.Background())
	if err != nil || len(list) != 1 {
		t.Fatalf("ListRecurring() = %v, %v; want one obligation", list, err)
	}
	return list[0].NextDueDate.String()
}

func assertNoDrift(t *testing.T, repo *storage.SQLiteRepository) {
	t.Helper()
	drift, err := repo.BalanceDrift(context.Background())
	if err != nil {
		t.Fatalf("BalanceDrift() error = %v", err)
	}
	if len(drift) != 0 {
		t.Fatalf("BalanceDrift() = %+v, want none", drift)
	}
}

func TestProcessDue_SkipsFailedOccurrence(t *testing.T) {
	ctx := context.Background()
	repo, path := newTestStorageAt(t)
	seedObligation(t, repo, core.FrequencyWeekly, core.NewDate(2024, 1, 1), 1000)
	execSQL(t, path, `CREATE TRIGGER reject_jan8 BEFORE INSERT ON expenses
		WHEN NEW.date = '2024-01-08' BEGIN SELECT RAISE(ABORT, 'rejected'); END`)

	p := NewRecurringProcessor(repo, nil)
	n, err := p.ProcessDue(ctx, time.Date(2024, 1, 22, 9, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ProcessDue() error = %v", err)
	}
	if n != 3 {
		t.Fatalf("ProcessDue() = %d, want 3", n)
	}
	want := []string{"2024-01-01", "2024-01-15", "2024-01-22"}
	if got := expenseDates(t, repo); !reflect.DeepEqual(got, want) {
		t.Fatalf("booked %v, want %v", got, want)
	}
	if got := nextDue(t, repo); got != "2024-01-29" {
		t.Fatalf("next_due_date = %s, want 2024-01-29", got)
	}
	acc, err := repo.GetAccount(ctx, "Checking")
	if err != nil {
		t.Fatalf("GetAccount() error = %v", err)
	}
	if acc.Balance.Cents != 97000 {
		t.Fatalf("balance = %d, want 97000", acc.Balance.Cents)
	}
	assertNoDrift(t, repo)
}

var (
	registerCancelOnce sync.Once
	passCancelMu       sync.Mutex
	passCancel         context.CancelFunc
)

// registerCancelFunc exposes cancel_pass() to SQL so a trigger can cancel the
// running pass while an occurrence is being written.
func registerCancelFunc(t *testing.T) {
	t.Helper()
	var err error
	registerCancelOnce.Do(func() {
		err = sqlite.RegisterScalarFunction("cancel_pass", 0,
			func(*sqlite.FunctionContext, []driver.Value) (driver.Value, error) {
				passCancelMu.Lock()
				defer passCancelMu.Unlock()
				if passCancel != nil {
					passCancel()
					passCancel = nil
				}
				return nil, nil
			})
	})
	if err != nil {
		t.Fatalf("register cancel_pass: %v", err)
	}
}

func TestProcessDue_InterruptedKeepsUnbookedOccurrence(t *testing.T) {
	registerCancelFunc(t)
	repo, path := newTestStorageAt(t)
	seedObligation(t, repo, core.FrequencyWeekly, core.NewDate(2024, 1, 1), 1000)
	execSQL(t, path, `CREATE TRIGGER cancel_on_jan8 AFTER INSERT ON expenses
		WHEN NEW.date = '2024-01-08' BEGIN SELECT cancel_pass(); END`)

	p := NewRecurringProcessor(repo, nil)
	now := time.Date(2024, 1, 22, 9, 0, 0, 0, time.UTC)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	passCancelMu.Lock()
	passCancel = cancel
	passCancelMu.Unlock()

	n, err := p.ProcessDue(ctx, now)
	if err == nil {
		t.Fatalf("ProcessDue() error = nil, want interruption")
	}
	if n != 1 {
		t.Fatalf("interrupted pass booked %d, want 1", n)
	}
	if got := nextDue(t, repo); got != "2024-01-08" {
		t.Fatalf("next_due_date after interruption = %s, want 2024-01-08", got)
	}

	n, err = p.ProcessDue(context.Background(), now)
	if err != nil {
		t.Fatalf("second ProcessDue() error = %v", err)
	}
	if n != 3 {
		t.Fatalf("second ProcessDue() = %d, want 3", n)
	}
	want := []string{"2024-01-01", "2024-01-08", "2024-01-15", "2024-01-22"}
	if got := expenseDates(t, repo); !reflect.DeepEqual(got, want) {
		t.Fatalf("booked %v, want %v", got, want)
	}
	if got := nextDue(t, repo); got != "2024-01-29" {
		t.Fatalf("next_due_date = %s, want 2024-01-29", got)
	}
	assertNoDrift(t, repo)
}

func TestProcessDue_Uninitialized(t *testing.T) {
	var p *RecurringProcessor
	if _, err := p.ProcessDue(context.Background(), time.Now()); err == nil {
		t.Fatalf("expected error for nil processor")
	}
}
