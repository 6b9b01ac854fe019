package model

import (
	"time"

	"github.com/shopspring/decimal"

	"main/internal/model/enum"
)

// OrderRef identifies an outstanding exit order: the local submission id
// plus the id assigned by the venue once the order is registered.
type OrderRef struct {
	SubmissionID string `json:"submissionId"`
	VenueID      string `json:"venueId"`
}

// IsZero reports whether the reference has never been assigned.
func (r OrderRef) IsZero() bool {
	return r.SubmissionID == "" && r.VenueID == ""
}

// ActiveTrade is one open position slice created by a single entry fill.
// It is tracked until exactly one of its exit orders fills.
type ActiveTrade struct {
	// ID is the identifier of the originating entry fill. All exit orders
	// derived from this trade carry it in their tag.
	ID         string          `json:"id"`
	Instrument string          `json:"instrument"`
	Direction  enum.Direction  `json:"direction"`
	EntryPrice decimal.Decimal `json:"entryPrice"`
	// Volume is always positive; Direction carries the sign.
	Volume    decimal.Decimal `json:"volume"`
	EntryTime time.Time       `json:"entryTime"`

	// StopPrice is computed once at creation from the entry price and the
	// configured stop percentage.
	StopPrice decimal.Decimal `json:"stopPrice"`

	StopOrderRef   OrderRef `json:"stopOrderRef"`
	ProfitOrderRef OrderRef `json:"profitOrderRef"`
	TimeOrderRef   OrderRef `json:"timeOrderRef"`

	// StopArmed is set exactly once when a stop exit has been placed,
	// so repeated trigger crossings never submit a duplicate.
	StopArmed bool `json:"stopArmed"`
}

// StopTriggered reports whether price crosses the stop level against the position.
func (t *ActiveTrade) StopTriggered(price decimal.Decimal) bool {
	switch t.Direction {
	case enum.DirectionLong:
		return price.LessThanOrEqual(t.StopPrice)
	case enum.DirectionShort:
		return price.GreaterThanOrEqual(t.StopPrice)
	default:
		return false
	}
}

// ExitRef returns the stored reference for one exit kind.
func (t *ActiveTrade) ExitRef(kind enum.ExitKind) OrderRef {
	switch kind {
	case enum.ExitKindStop:
		return t.StopOrderRef
	case enum.ExitKindProfit:
		return t.ProfitOrderRef
	case enum.ExitKindTime:
		return t.TimeOrderRef
	default:
		return OrderRef{}
	}
}

// SetExitRef stores the reference for one exit kind.
func (t *ActiveTrade) SetExitRef(kind enum.ExitKind, ref OrderRef) {
	switch kind {
	case enum.ExitKindStop:
		t.StopOrderRef = ref
	case enum.ExitKindProfit:
		t.ProfitOrderRef = ref
	case enum.ExitKindTime:
		t.TimeOrderRef = ref
	}
}
