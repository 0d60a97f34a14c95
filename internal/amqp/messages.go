package amqp

import (
	"encoding/json"
	"fmt"

	"financeflow/internal/core"
)

// EncodeEvent converts a ledger event to its wire form.
func EncodeEvent(ev core.LedgerEvent) ([]byte, error) {
	if ev.Version == 0 {
		ev.Version = core.EventVersion
	}
	return json.Marshal(ev)
}

// DecodeEvent parses a ledger event and rejects unknown versions.
func DecodeEvent(data []byte) (core.LedgerEvent, error) {
	var ev core.LedgerEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return core.LedgerEvent{}, err
	}
	if ev.Type == "" {
		return core.LedgerEvent{}, fmt.Errorf("event without type")
	}
	if ev.Version > core.EventVersion {
		return core.LedgerEvent{}, fmt.Errorf("unsupported event version %d", ev.Version)
	}
	return ev, nil
}
