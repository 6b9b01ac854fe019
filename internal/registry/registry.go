// Package registry tracks the currently open trade slices. Every mutation
// is made durable through the configured state store before the mutating
// call returns, so a crash can only lose events not yet processed, never
// processed events not yet persisted.
package registry

import (
	"context"

	"github.com/shopspring/decimal"

	"main/internal/errors"
	"main/internal/model"
	"main/internal/state"
)

var ErrTradeNotFound = errors.New("active trade not found")

// PositionSource supplies the position map persisted alongside the trades.
type PositionSource interface {
	Positions() map[string]decimal.Decimal
}

// ChangeHandler receives the full trade set after each committed mutation.
type ChangeHandler func(trades []model.ActiveTrade)

// Registry is the set of open trade slices. Single-writer: the coordinator
// is the only mutator, and it serializes calls through its event loop.
type Registry struct {
	strategy  string
	store     state.Store
	positions PositionSource
	onChange  ChangeHandler

	trades map[string]*model.ActiveTrade
	order  []string
}

// New creates an empty registry bound to a store.
func New(strategy string, store state.Store, positions PositionSource, onChange ChangeHandler) *Registry {
	return &Registry{
		strategy:  strategy,
		store:     store,
		positions: positions,
		onChange:  onChange,
		trades:    make(map[string]*model.ActiveTrade),
	}
}

// Add inserts a trade and persists the new snapshot before returning.
func (r *Registry) Add(ctx context.Context, trade model.ActiveTrade) error {
	if _, ok := r.trades[trade.ID]; ok {
		return errors.Wrapf(errors.New("duplicate trade id"), "trade %s", trade.ID)
	}

	stored := trade
	r.trades[trade.ID] = &stored
	r.order = append(r.order, trade.ID)
	return r.commit(ctx)
}

// Remove deletes a trade. Removing an id that is not present reports
// removed=false without touching the store: a second close for an
// already-closed trade is the caller's idempotent no-op.
func (r *Registry) Remove(ctx context.Context, id string) (bool, error) {
	if _, ok := r.trades[id]; !ok {
		return false, nil
	}
	r.delete(id)
	return true, r.commit(ctx)
}

// RemoveByInstrument drops every trade on one instrument, used by forced
// flattens which close the whole position regardless of per-trade slices.
func (r *Registry) RemoveByInstrument(ctx context.Context, instrument string) (int, error) {
	removed := 0
	for _, id := range append([]string(nil), r.order...) {
		if r.trades[id].Instrument == instrument {
			r.delete(id)
			removed++
		}
	}
	if removed == 0 {
		return 0, nil
	}
	return removed, r.commit(ctx)
}

// Update applies a mutation to a trade and persists the result. Used for
// exit-order reference bookkeeping and the stop-armed flag.
func (r *Registry) Update(ctx context.Context, id string, mutate func(*model.ActiveTrade)) error {
	trade, ok := r.trades[id]
	if !ok {
		return errors.Wrapf(ErrTradeNotFound, "trade %s", id)
	}
	mutate(trade)
	return r.commit(ctx)
}

// Get returns a copy of one trade.
func (r *Registry) Get(id string) (model.ActiveTrade, bool) {
	trade, ok := r.trades[id]
	if !ok {
		return model.ActiveTrade{}, false
	}
	return *trade, true
}

// All returns a snapshot of the open trades in insertion order.
func (r *Registry) All() []model.ActiveTrade {
	out := make([]model.ActiveTrade, 0, len(r.trades))
	for _, id := range r.order {
		out = append(out, *r.trades[id])
	}
	return out
}

// ByInstrument returns copies of the open trades on one instrument.
func (r *Registry) ByInstrument(instrument string) []model.ActiveTrade {
	var out []model.ActiveTrade
	for _, id := range r.order {
		if r.trades[id].Instrument == instrument {
			out = append(out, *r.trades[id])
		}
	}
	return out
}

// Len returns the number of open trades.
func (r *Registry) Len() int {
	return len(r.trades)
}

// Clear removes every trade, persisting the empty set.
func (r *Registry) Clear(ctx context.Context) error {
	if len(r.trades) == 0 {
		return nil
	}
	r.trades = make(map[string]*model.ActiveTrade)
	r.order = nil
	return r.commit(ctx)
}

// Bootstrap loads trades from a recovered snapshot without writing back or
// notifying; it must run before any venue events flow.
func (r *Registry) Bootstrap(trades []model.ActiveTrade) {
	r.trades = make(map[string]*model.ActiveTrade, len(trades))
	r.order = r.order[:0]
	for _, trade := range trades {
		stored := trade
		r.trades[trade.ID] = &stored
		r.order = append(r.order, trade.ID)
	}
}

func (r *Registry) delete(id string) {
	delete(r.trades, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// commit persists the snapshot and then emits the change notification.
// A failed write is surfaced to the mutating caller; silent loss of
// durability would defeat the crash-recovery contract.
func (r *Registry) commit(ctx context.Context) error {
	var positions map[string]decimal.Decimal
	if r.positions != nil {
		positions = r.positions.Positions()
	}
	snapshot := state.Build(r.strategy, r.All(), positions)
	if err := r.store.Write(ctx, snapshot); err != nil {
		return errors.Wrap(err, "persist registry snapshot")
	}
	if r.onChange != nil {
		r.onChange(r.All())
	}
	return nil
}
