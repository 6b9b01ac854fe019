// Package ledger maintains the strategy's per-instrument position, the last
// observed market trade price, and the running mark-to-market figure.
package ledger

import (
	"github.com/shopspring/decimal"

	"main/internal/model/enum"
)

// GrossHandler receives the new gross value whenever it changes, together
// with its sign state for presentation.
type GrossHandler func(gross decimal.Decimal, sign enum.GrossSign)

// Ledger accumulates mark-to-market P&L from the market tick stream and
// tracks net position per instrument from confirmed own fills.
//
// The ledger is not internally locked: the coordinator's event loop is the
// single mutual-exclusion domain, and it must deliver OnOwnFill and
// OnMarketTrade in strict arrival order so position updates land before the
// ticks that follow them.
type Ledger struct {
	tracked   map[string]struct{}
	positions map[string]decimal.Decimal
	last      map[string]decimal.Decimal
	gross     decimal.Decimal

	onGross GrossHandler
}

// New creates a ledger tracking the given instrument set. Ticks for any
// other instrument are silently ignored.
func New(instruments []string, onGross GrossHandler) *Ledger {
	l := &Ledger{
		tracked:   make(map[string]struct{}, len(instruments)),
		positions: make(map[string]decimal.Decimal, len(instruments)),
		last:      make(map[string]decimal.Decimal, len(instruments)),
		onGross:   onGross,
	}
	// last is filled lazily: an instrument has no entry until the first
	// print or seed, which is what lets SeedLastPrice tell "never seen"
	// apart from "traded at zero delta".
	for _, code := range instruments {
		l.tracked[code] = struct{}{}
		l.positions[code] = decimal.Zero
	}
	return l
}

// OnMarketTrade folds one market trade tick into the gross accumulator:
// gross += (price - last) x position, then last = price.
func (l *Ledger) OnMarketTrade(instrument string, price decimal.Decimal) {
	if _, ok := l.tracked[instrument]; !ok {
		return
	}

	delta := price.Sub(l.last[instrument]).Mul(l.positions[instrument])
	l.last[instrument] = price

	if delta.IsZero() {
		return
	}
	l.gross = l.gross.Add(delta)
	l.emitGross()
}

// OnOwnFill applies a confirmed own fill to the position map: volume is
// added for a buy and subtracted for a sell.
func (l *Ledger) OnOwnFill(instrument string, side enum.Direction, volume decimal.Decimal) {
	if _, ok := l.tracked[instrument]; !ok {
		return
	}

	if side == enum.DirectionLong {
		l.positions[instrument] = l.positions[instrument].Add(volume)
	} else {
		l.positions[instrument] = l.positions[instrument].Sub(volume)
	}
}

// SeedLastPrice primes the last-trade price for an instrument that has no
// observed print yet, so the next tick marks against a sane baseline
// instead of zero. A price already observed from the tick stream wins.
func (l *Ledger) SeedLastPrice(instrument string, price decimal.Decimal) {
	if _, ok := l.tracked[instrument]; !ok {
		return
	}
	if _, seen := l.last[instrument]; seen {
		return
	}
	l.last[instrument] = price
}

// SetPosition overwrites an instrument's net position, used at recovery.
func (l *Ledger) SetPosition(instrument string, position decimal.Decimal) {
	if _, ok := l.tracked[instrument]; !ok {
		return
	}
	l.positions[instrument] = position
}

// Position returns the current signed net position for an instrument.
func (l *Ledger) Position(instrument string) decimal.Decimal {
	return l.positions[instrument]
}

// Positions returns a copy of the position map.
func (l *Ledger) Positions() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(l.positions))
	for code, pos := range l.positions {
		out[code] = pos
	}
	return out
}

// Gross returns the current mark-to-market accumulator value.
func (l *Ledger) Gross() decimal.Decimal {
	return l.gross
}

// ResetGross zeroes the accumulator, done once at strategy start.
func (l *Ledger) ResetGross() {
	if l.gross.IsZero() {
		return
	}
	l.gross = decimal.Zero
	l.emitGross()
}

// Sign classifies the current gross for presentation.
func (l *Ledger) Sign() enum.GrossSign {
	switch {
	case l.gross.IsPositive():
		return enum.GrossSignPositive
	case l.gross.IsNegative():
		return enum.GrossSignNegative
	default:
		return enum.GrossSignFlat
	}
}

func (l *Ledger) emitGross() {
	if l.onGross != nil {
		l.onGross(l.gross, l.Sign())
	}
}
