package venue

import (
	"context"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/yanun0323/logs"

	"main/internal/errors"
	"main/internal/model"
	"main/internal/model/enum"
)

// simOrder is one resting order inside the simulator.
type simOrder struct {
	view    OrderView
	trigger *StopCondition
	// armed is false while a conditional order waits for its trigger.
	armed bool
}

// Sim is an in-process venue: orders rest in memory and fill against the
// market tick stream pushed in through OnTick. It can simulate both a
// venue with native conditional orders and one without.
type Sim struct {
	mu                sync.Mutex
	nativeConditional bool
	nextVenueID       int
	orders            map[string]*simOrder
	events            chan Event
	closed            bool
}

// NewSim creates a simulated venue.
func NewSim(nativeConditional bool) *Sim {
	return &Sim{
		nativeConditional: nativeConditional,
		orders:            make(map[string]*simOrder),
		events:            make(chan Event, 256),
	}
}

func (s *Sim) SupportsNativeConditional() bool {
	return s.nativeConditional
}

// Submit registers the order and reports it back as registered. Conditional
// orders rest dormant until their trigger price prints.
func (s *Sim) Submit(_ context.Context, spec OrderSpec) (model.OrderRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return model.OrderRef{}, ErrVenueClosed
	}
	if spec.Condition != nil && !s.nativeConditional {
		return model.OrderRef{}, errors.New("conditional orders not supported")
	}
	if !spec.Volume.IsPositive() {
		return model.OrderRef{}, errors.New("order volume must be positive")
	}

	s.nextVenueID++
	ref := model.OrderRef{
		SubmissionID: uuid.NewString(),
		VenueID:      strconv.Itoa(s.nextVenueID),
	}

	order := &simOrder{
		view: OrderView{
			Ref:        ref,
			Tag:        spec.Tag,
			Instrument: spec.Instrument,
			Side:       spec.Side,
			Price:      spec.Price,
			Volume:     spec.Volume,
			Status:     enum.OrderStatusRegistered,
		},
		trigger: spec.Condition,
		armed:   spec.Condition == nil,
	}
	s.orders[ref.VenueID] = order

	s.emit(Event{Order: &model.OrderEvent{
		Status:     enum.OrderStatusRegistered,
		Ref:        ref,
		Tag:        spec.Tag,
		Instrument: spec.Instrument,
	}})
	return ref, nil
}

// Cancel removes a resting order. Cancelling an order already terminal is
// reported as not found, matching real venue behavior.
func (s *Sim) Cancel(_ context.Context, ref model.OrderRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[ref.VenueID]
	if !ok || order.view.Status.IsTerminal() {
		return errors.Wrapf(ErrOrderNotFound, "order %s", ref.VenueID)
	}

	order.view.Status = enum.OrderStatusCanceled
	s.emit(Event{Order: &model.OrderEvent{
		Status:     enum.OrderStatusCanceled,
		Ref:        order.view.Ref,
		Tag:        order.view.Tag,
		Instrument: order.view.Instrument,
	}})
	return nil
}

// Orders returns every session order, including terminal ones.
func (s *Sim) Orders(_ context.Context) ([]OrderView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]OrderView, 0, len(s.orders))
	for _, order := range s.orders {
		out = append(out, order.view)
	}
	return out, nil
}

func (s *Sim) Events() <-chan Event {
	return s.events
}

// OnTick matches resting orders against one market trade print. A buy
// fills when the market trades at or below its limit, a sell at or above.
// Conditional orders arm when the trigger level prints against them.
func (s *Sim) OnTick(tick model.Tick) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, order := range s.orders {
		if order.view.Instrument != tick.Instrument || order.view.Status.IsTerminal() {
			continue
		}

		if !order.armed {
			if !s.triggered(order, tick.Price) {
				continue
			}
			// The arming print itself can already be marketable: a
			// touch-and-rebound must fill on the touch.
			order.armed = true
		}

		if s.marketable(order, tick.Price) {
			s.fill(order, tick)
		}
	}
}

// Restore injects a session order as the venue would report it after a
// client restart: the order exists server-side but no local watch is
// attached to it.
func (s *Sim) Restore(view OrderView) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := view.Ref.VenueID
	if id == "" {
		return
	}
	if n, err := strconv.Atoi(id); err == nil && n > s.nextVenueID {
		s.nextVenueID = n
	}
	s.orders[id] = &simOrder{view: view, armed: true}
}

// Close stops event delivery.
func (s *Sim) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	close(s.events)
}

func (s *Sim) triggered(order *simOrder, price decimal.Decimal) bool {
	if order.trigger == nil {
		return true
	}
	// A sell stop triggers on prints at or below the level, a buy stop at
	// or above.
	if order.view.Side == enum.DirectionShort {
		return price.LessThanOrEqual(order.trigger.TriggerPrice)
	}
	return price.GreaterThanOrEqual(order.trigger.TriggerPrice)
}

func (s *Sim) marketable(order *simOrder, price decimal.Decimal) bool {
	if order.view.Side == enum.DirectionLong {
		return price.LessThanOrEqual(order.view.Price)
	}
	return price.GreaterThanOrEqual(order.view.Price)
}

func (s *Sim) fill(order *simOrder, tick model.Tick) {
	order.view.Status = enum.OrderStatusFilled
	s.emit(Event{
		Order: &model.OrderEvent{
			Status:     enum.OrderStatusFilled,
			Ref:        order.view.Ref,
			Tag:        order.view.Tag,
			Instrument: order.view.Instrument,
		},
		Fill: &model.OwnFill{
			FillID:     uuid.NewString(),
			Ref:        order.view.Ref,
			Tag:        order.view.Tag,
			Instrument: order.view.Instrument,
			Side:       order.view.Side,
			Price:      order.view.Price,
			Volume:     order.view.Volume,
			Time:       tick.Time,
		},
	})
}

func (s *Sim) emit(e Event) {
	if s.closed {
		return
	}
	select {
	case s.events <- e:
	default:
		logs.Warnf("sim venue event buffer full, dropping %+v", e)
	}
}
