package services

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"

	"financeflow/internal/core"
	"financeflow/internal/storage"
)

func newTestStorage(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, _ := newTestStorageAt(t)
	return repo
}

func newTestStorageAt(t *testing.T) (*storage.SQLiteRepository, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledger.db")
	repo, err := storage.NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo, path
}

// execSQL runs ddl on a separate connection to the ledger file.
func execSQL(t *testing.T, path, ddl string) {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()
	if _, err := db.Exec(ddl); err != nil {
		t.Fatalf("exec %q: %v", ddl, err)
	}
}

// fakePublisher records published events and can be told to fail.
type fakePublisher struct {
	mu     sync.Mutex
	events []core.LedgerEvent
	err    error
	closed bool
}

func (f *fakePublisher) PublishLedgerEvent(_ context.Context, ev core.LedgerEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, ev)
	return nil
}

func (f *fakePublisher) Close() error {
	f.closed = true
	return nil
}

func (f *fakePublisher) types() []core.EventType {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]core.EventType, len(f.events))
	for i, ev := range f.events {
		out[i] = ev.Type
	}
	return out
}
