// Package state persists the active-trade registry and position map so the
// strategy can reload open-position state after a restart. Snapshots carry
// identifiers only, never live venue handles; order references are
// re-acquired from the venue during recovery.
package state

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"main/internal/model"
)

// PositionEntry is one instrument's signed net position.
type PositionEntry struct {
	Instrument string          `json:"instrument"`
	Volume     decimal.Decimal `json:"volume"`
}

// Snapshot is the durable pair of (active-trade set, position map) for one
// strategy instance.
type Snapshot struct {
	Strategy  string              `json:"strategy"`
	Timestamp time.Time           `json:"timestamp"`
	Trades    []model.ActiveTrade `json:"trades"`
	Positions []PositionEntry     `json:"positions"`
}

// Store writes and reads snapshots. Writes overwrite the previous snapshot
// atomically; there is no append log.
type Store interface {
	// Write persists the snapshot before returning.
	Write(ctx context.Context, snapshot Snapshot) error
	// Read loads the latest snapshot for a strategy. The second return is
	// false when no snapshot has ever been written.
	Read(ctx context.Context, strategy string) (Snapshot, bool, error)
}

// Build assembles a snapshot from the live registry view, with positions
// sorted for a stable on-disk form.
func Build(strategy string, trades []model.ActiveTrade, positions map[string]decimal.Decimal) Snapshot {
	entries := make([]PositionEntry, 0, len(positions))
	for instrument, volume := range positions {
		entries = append(entries, PositionEntry{Instrument: instrument, Volume: volume})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Instrument < entries[j].Instrument
	})
	return Snapshot{
		Strategy:  strategy,
		Timestamp: time.Now().UTC(),
		Trades:    trades,
		Positions: entries,
	}
}
