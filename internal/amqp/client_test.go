package amqp

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"financeflow/internal/core"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},  // capped at 30s
		{10, 30 * time.Second}, // capped at 30s
		{64, 30 * time.Second}, // no overflow
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			result := exponentialBackoff(tt.attempt)
			if result != tt.expected {
				t.Errorf("exponentialBackoff(%d) = %v, want %v", tt.attempt, result, tt.expected)
			}
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"connection refused", errors.New("dial AMQP: connection refused"), true},
		{"closed channel", fmt.Errorf("message channel closed: %w", amqp091.ErrClosed), true},
		{"EOF error", errors.New("unexpected EOF"), true},
		{"broken pipe error", errors.New("broken pipe"), true},
		{"other error", errors.New("declare queue: access refused"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isConnectionError(tt.err); got != tt.expected {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestEventWireFormat(t *testing.T) {
	m := core.Movement{
		ID: 9, Kind: core.KindExpense, Date: core.NewDate(2024, 2, 29),
		Amount: core.Money{Cents: 1999}, Category: "Food", AccountName: "Checking",
	}
	ev := core.NewLedgerEvent(core.EventMovementCreated, m.ID)
	ev.Movement = &m

	body, err := EncodeEvent(ev)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeEvent(body)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Type != core.EventMovementCreated || got.Movement == nil {
		t.Fatalf("unexpected event %+v", got)
	}
	if got.Movement.Amount.Cents != 1999 || got.Movement.Date.String() != "2024-02-29" || got.Movement.Category != "Food" {
		t.Fatalf("movement not preserved: %+v", got.Movement)
	}
}

func TestDecodeEventRejectsBadInput(t *testing.T) {
	cases := []string{
		`not json`,
		`{"version":1}`,
		`{"type":"movement.created","version":99}`,
	}
	for _, in := range cases {
		if _, err := DecodeEvent([]byte(in)); err == nil {
			t.Fatalf("%s: expected error", in)
		}
	}
}
