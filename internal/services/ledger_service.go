package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"financeflow/internal/core"
	"financeflow/internal/storage"
)

// EventPublisher announces committed ledger mutations to other processes.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, ev core.LedgerEvent) error
	Close() error
}

// LedgerService orchestrates ledger operations across SQLite and the event stream.
// The SQLite write is authoritative; events are best effort.
type LedgerService struct {
	storage   *storage.SQLiteRepository
	publisher EventPublisher
}

// NewLedgerService wires the store and an optional publisher (nil disables events).
func NewLedgerService(storage *storage.SQLiteRepository, publisher EventPublisher) *LedgerService {
	return &LedgerService{
		storage:   storage,
		publisher: publisher,
	}
}

// CreateAccount opens a new account with its initial balance.
func (s *LedgerService) CreateAccount(ctx context.Context, name, kind string, initial core.Money) (core.Account, error) {
	a := core.Account{Name: strings.TrimSpace(name), Kind: strings.TrimSpace(kind), InitialBalance: initial}
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	created, err := s.storage.CreateAccount(ctx, a)
	if err != nil {
		return core.Account{}, fmt.Errorf("create account: %w", err)
	}
	ev := core.NewLedgerEvent(core.EventAccountCreated, created.ID)
	ev.Account = created.Name
	s.publish(ctx, ev)
	return created, nil
}

func (s *LedgerService) ListAccounts(ctx context.Context) ([]core.Account, error) {
	return s.storage.ListAccounts(ctx)
}

func (s *LedgerService) RenameAccount(ctx context.Context, oldName, newName string) (core.Account, error) {
	if strings.TrimSpace(newName) == "" {
		return core.Account{}, core.ErrEmptyName
	}
	renamed, err := s.storage.RenameAccount(ctx, oldName, newName)
	if err != nil {
		return core.Account{}, fmt.Errorf("rename account: %w", err)
	}
	ev := core.NewLedgerEvent(core.EventAccountRenamed, renamed.ID)
	ev.Account = renamed.Name
	s.publish(ctx, ev)
	return renamed, nil
}

// DeleteAccount removes an account no movement or obligation refers to.
func (s *LedgerService) DeleteAccount(ctx context.Context, name string) error {
	deleted, err := s.storage.DeleteAccount(ctx, name)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	ev := core.NewLedgerEvent(core.EventAccountDeleted, deleted.ID)
	ev.Account = deleted.Name
	s.publish(ctx, ev)
	return nil
}

// RecordMovement adds an expense or income and adjusts the account balance.
func (s *LedgerService) RecordMovement(ctx context.Context, n core.NewMovement) (core.Movement, error) {
	m, err := s.storage.CreateMovement(ctx, n)
	if err != nil {
		return core.Movement{}, fmt.Errorf("record %s: %w", n.Kind, err)
	}
	s.publishMovement(ctx, core.EventMovementCreated, m)
	return m, nil
}

func (s *LedgerService) UpdateMovement(ctx context.Context, kind core.Kind, id int64, patch core.MovementPatch) (core.Movement, error) {
	m, err := s.storage.UpdateMovement(ctx, kind, id, patch)
	if err != nil {
		return core.Movement{}, fmt.Errorf("update %s %d: %w", kind, id, err)
	}
	s.publishMovement(ctx, core.EventMovementUpdated, m)
	return m, nil
}

func (s *LedgerService) DeleteMovement(ctx context.Context, kind core.Kind, id int64) error {
	m, err := s.storage.DeleteMovement(ctx, kind, id)
	if err != nil {
		return fmt.Errorf("delete %s %d: %w", kind, id, err)
	}
	s.publishMovement(ctx, core.EventMovementDeleted, m)
	return nil
}

func (s *LedgerService) ListMovements(ctx context.Context, kind core.Kind, rng core.DateRange) ([]core.Movement, error) {
	return s.storage.ListMovements(ctx, kind, rng)
}

// SearchByNote finds movements of both kinds whose note contains keyword.
func (s *LedgerService) SearchByNote(ctx context.Context, keyword string, rng core.DateRange) (core.SearchResult, error) {
	if strings.TrimSpace(keyword) == "" {
		return core.SearchResult{}, core.Invalidf("empty search keyword")
	}
	return s.storage.SearchByNote(ctx, keyword, rng)
}

// Transfer moves money between two accounts atomically.
func (s *LedgerService) Transfer(ctx context.Context, from, to string, amount core.Money, date core.Date) (core.TransferResult, error) {
	res, err := s.storage.Transfer(ctx, from, to, amount, date)
	if err != nil {
		return core.TransferResult{}, fmt.Errorf("transfer: %w", err)
	}
	ev := core.NewLedgerEvent(core.EventTransferCreated, res.ExpenseID)
	ev.Account = res.From
	ev.Transfer = &res
	s.publish(ctx, ev)
	return res, nil
}

// AddRecurring registers a recurring obligation starting at its start date.
func (s *LedgerService) AddRecurring(ctx context.Context, n core.NewRecurring) (core.RecurringObligation, error) {
	ob, err := s.storage.CreateRecurring(ctx, n)
	if err != nil {
		return core.RecurringObligation{}, fmt.Errorf("add recurring: %w", err)
	}
	s.publishRecurring(ctx, core.EventRecurringCreated, ob)
	return ob, nil
}

func (s *LedgerService) ListRecurring(ctx context.Context) ([]core.RecurringObligation, error) {
	return s.storage.ListRecurring(ctx)
}

func (s *LedgerService) UpdateRecurring(ctx context.Context, id int64, patch core.RecurringPatch) (core.RecurringObligation, error) {
	ob, err := s.storage.UpdateRecurring(ctx, id, patch)
	if err != nil {
		return core.RecurringObligation{}, fmt.Errorf("update recurring %d: %w", id, err)
	}
	s.publishRecurring(ctx, core.EventRecurringUpdated, ob)
	return ob, nil
}

func (s *LedgerService) DeleteRecurring(ctx context.Context, id int64) error {
	if err := s.storage.DeleteRecurring(ctx, id); err != nil {
		return fmt.Errorf("delete recurring %d: %w", id, err)
	}
	s.publish(ctx, core.NewLedgerEvent(core.EventRecurringDeleted, id))
	return nil
}

func (s *LedgerService) publishMovement(ctx context.Context, t core.EventType, m core.Movement) {
	ev := core.NewLedgerEvent(t, m.ID)
	ev.Account = m.AccountName
	ev.Movement = &m
	s.publish(ctx, ev)
}

func (s *LedgerService) publishRecurring(ctx context.Context, t core.EventType, ob core.RecurringObligation) {
	ev := core.NewLedgerEvent(t, ob.ID)
	ev.Account = ob.AccountName
	ev.Recurring = &ob
	s.publish(ctx, ev)
}

// publish never fails the caller: the ledger write has already committed.
func (s *LedgerService) publish(ctx context.Context, ev core.LedgerEvent) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "Event publisher not configured, skipping ledger event", "type", ev.Type)
		return
	}
	if err := s.publisher.PublishLedgerEvent(ctx, ev); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"type", ev.Type,
			"entity_id", ev.EntityID,
			"error", err)
	}
}

// Close closes both storage and publisher connections
func (s *LedgerService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %v", errs)
	}

	return nil
}
