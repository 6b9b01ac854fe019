// Package venue defines the execution-venue surface the coordinator
// depends on, and a simulated venue used for paper runs and tests.
package venue

import (
	"context"

	"github.com/shopspring/decimal"

	"main/internal/errors"
	"main/internal/model"
	"main/internal/model/enum"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrVenueClosed   = errors.New("venue closed")
)

// StopCondition is the trigger leg of a native conditional order. The
// venue watches the level itself; no client-side tick-watching is needed.
type StopCondition struct {
	TriggerPrice decimal.Decimal
}

// OrderSpec describes an order to submit. Tag correlates the order back to
// its owning trade and exit kind; it must survive the venue round-trip
// unmodified so recovery can re-associate orders after a restart.
type OrderSpec struct {
	Instrument string
	Side       enum.Direction
	Volume     decimal.Decimal
	Price      decimal.Decimal
	Tag        string
	// Condition is nil for plain limit orders. Submitting a conditional
	// order to a venue without native support is a submission error.
	Condition *StopCondition
}

// OrderView is the venue's current knowledge of one session order,
// returned by the open-orders query during recovery.
type OrderView struct {
	Ref        model.OrderRef
	Tag        string
	Instrument string
	Side       enum.Direction
	Price      decimal.Decimal
	Volume     decimal.Decimal
	Status     enum.OrderStatus
}

// Event is one message from the venue's private stream: an order lifecycle
// transition, an own fill, or both for a fill that completes an order.
type Event struct {
	Order *model.OrderEvent
	Fill  *model.OwnFill
}

// Venue is the execution surface. Submit and Cancel may be called from the
// coordinator's event loop only; Events delivery order per order is the
// venue's processing order.
type Venue interface {
	// SupportsNativeConditional reports whether the venue accepts
	// conditional stop orders, or the client must tick-watch.
	SupportsNativeConditional() bool

	Submit(ctx context.Context, spec OrderSpec) (model.OrderRef, error)
	Cancel(ctx context.Context, ref model.OrderRef) error

	// Orders returns every order the venue knows for this session,
	// including terminal ones. Used at recovery and by the sibling
	// sweep when a trade closes.
	Orders(ctx context.Context) ([]OrderView, error)

	Events() <-chan Event
}
