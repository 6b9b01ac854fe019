// Package coordinator races the competing exit paths of each active trade
// and guarantees exactly one winner per trade. All state mutation happens
// on a single event loop fed by the bus; venue events, market ticks, and
// scheduler callbacks are serialized there, which is the only concurrency
// control the registry and ledger need.
package coordinator

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/logs"

	"main/internal/bus"
	"main/internal/errors"
	"main/internal/ledger"
	"main/internal/model"
	"main/internal/model/enum"
	"main/internal/obs"
	"main/internal/registry"
	"main/internal/secref"
	"main/internal/timetable"
	"main/internal/venue"
)

// Config is the per-strategy exit behavior.
type Config struct {
	Strategy      string
	StopLossPct   decimal.Decimal
	TakeProfitPct decimal.Decimal
	StopMode      enum.StopMode

	// Timeframe and BarsToClose control the time exit; BarsToClose <= 0
	// disables it.
	Timeframe   time.Duration
	BarsToClose int

	// StopAt, when set, shuts the strategy down shortly before the given
	// instant. CloseAllOnStop additionally flattens every position first.
	StopAt         time.Time
	CloseAllOnStop bool

	QueueCapacity int
}

// Coordinator owns the exit race for every active trade.
type Coordinator struct {
	cfg   Config
	venue venue.Venue
	dir   *secref.Directory
	book  *ledger.Ledger
	reg   *registry.Registry
	sched timetable.Scheduler
	queue *bus.Queue

	// onClearing, when set, is invoked from the event loop at each
	// clearing instant; report composition lives with the consumer.
	onClearing func(evening bool)

	stopping bool
	stopOnce sync.Once
	stopped  chan struct{}
}

// New wires a coordinator. Event handling is registered here, once, for
// the coordinator's whole lifetime.
func New(cfg Config, vn venue.Venue, dir *secref.Directory, book *ledger.Ledger, reg *registry.Registry, sched timetable.Scheduler) *Coordinator {
	if cfg.QueueCapacity <= 0 {
		cfg.QueueCapacity = 1024
	}
	return &Coordinator{
		cfg:     cfg,
		venue:   vn,
		dir:     dir,
		book:    book,
		reg:     reg,
		sched:   sched,
		queue:   bus.NewQueue(cfg.QueueCapacity),
		stopped: make(chan struct{}),
	}
}

// SetClearingHandler installs the outbound clearing notification hook.
// Must be called before Start.
func (c *Coordinator) SetClearingHandler(fn func(evening bool)) {
	c.onClearing = fn
}

// Run pumps venue events into the queue and consumes it until ctx ends or
// the strategy stops. It blocks; callers run it in its own goroutine.
func (c *Coordinator) Run(ctx context.Context) {
	go func() {
		for e := range c.venue.Events() {
			ev := e
			if err := c.queue.Publish(ctx, bus.Event{Venue: &ev}); err != nil {
				logs.Errorf("publish venue event, err: %+v", err)
				return
			}
		}
	}()

	c.queue.Run(ctx, c.handle)
}

// PublishTick feeds one market trade print into the event loop. Ticks are
// droppable under pressure; the next print supersedes them.
func (c *Coordinator) PublishTick(tick model.Tick) {
	if err := c.queue.TryPublish(bus.Event{Tick: &tick}); err != nil {
		obs.IncTickDrop()
	}
}

// RequestStop asks the strategy to shut down: flatten first when
// configured, then stop once every position is flat.
func (c *Coordinator) RequestStop(ctx context.Context) {
	_ = c.queue.Publish(ctx, bus.Event{Call: func() { c.beginStop(ctx) }})
}

// RequestFlatten force-closes every open position at forcing prices.
func (c *Coordinator) RequestFlatten(ctx context.Context) {
	_ = c.queue.Publish(ctx, bus.Event{Call: func() { c.flattenAll(ctx) }})
}

// Stopped closes once the strategy has fully shut down.
func (c *Coordinator) Stopped() <-chan struct{} {
	return c.stopped
}

func (c *Coordinator) handle(e bus.Event) {
	ctx := context.Background()
	switch {
	case e.Tick != nil:
		c.handleTick(ctx, *e.Tick)
	case e.Venue != nil:
		if e.Venue.Fill != nil {
			c.handleFill(ctx, *e.Venue.Fill)
		} else if e.Venue.Order != nil {
			c.handleOrderEvent(ctx, *e.Venue.Order)
		}
	case e.Call != nil:
		e.Call()
	}
}

// handleTick folds the print into the mark-to-market ledger and, on venues
// without native conditional orders, runs the synthetic stop tick-watch.
func (c *Coordinator) handleTick(ctx context.Context, tick model.Tick) {
	c.book.OnMarketTrade(tick.Instrument, tick.Price)

	if c.venue.SupportsNativeConditional() {
		return
	}

	for _, trade := range c.reg.ByInstrument(tick.Instrument) {
		if trade.StopArmed || !trade.StopTriggered(tick.Price) {
			continue
		}
		c.armSyntheticStop(ctx, trade)
	}
}

func (c *Coordinator) handleFill(ctx context.Context, fill model.OwnFill) {
	// Position must move before any later tick is processed; both happen
	// on this loop, so arrival order is preserved.
	c.book.OnOwnFill(fill.Instrument, fill.Side, fill.Volume)

	tag, ok := model.ParseTag(fill.Tag)
	if ok && tag.Strategy == c.cfg.Strategy {
		switch {
		case tag.IsEntry():
			c.openTrade(ctx, fill)
		default:
			if kind, ok := tag.ExitKind(); ok {
				c.handleExitFill(ctx, tag, kind, fill)
			}
		}
	}

	if c.stopping && c.allFlat() {
		c.finishStop(ctx)
	}
}

func (c *Coordinator) handleExitFill(ctx context.Context, tag model.Tag, kind enum.ExitKind, fill model.OwnFill) {
	if kind == enum.ExitKindFlatten {
		removed, err := c.reg.RemoveByInstrument(ctx, fill.Instrument)
		if err != nil {
			obs.IncSnapshotError()
			logs.Errorf("persist after flatten fill %s, err: %+v", fill.Instrument, err)
		}
		if removed > 0 {
			obs.IncExit(kind.String())
			logs.Infof("flatten exit %s: dropped %d trades", fill.Instrument, removed)
		}
		return
	}
	c.closeTrade(ctx, tag.TradeID, kind)
}

func (c *Coordinator) handleOrderEvent(ctx context.Context, ev model.OrderEvent) {
	tag, ok := model.ParseTag(ev.Tag)
	if !ok || tag.Strategy != c.cfg.Strategy {
		return
	}
	kind, isExit := tag.ExitKind()

	switch ev.Status {
	case enum.OrderStatusRegistered:
		if !isExit || kind == enum.ExitKindFlatten {
			return
		}
		// Record the venue-assigned reference on the owning trade. The
		// trade may already be gone if another exit won first.
		err := c.reg.Update(ctx, tag.TradeID, func(trade *model.ActiveTrade) {
			trade.SetExitRef(kind, ev.Ref)
		})
		if err != nil && !isNotFound(err) {
			obs.IncSnapshotError()
			logs.Errorf("record %s order ref for trade %s, err: %+v", kind, tag.TradeID, err)
		}
		logs.Infof("%s exit registered for trade %s (%s)", kind, tag.TradeID, ev.Instrument)

	case enum.OrderStatusPartialFilled:
		// Informational only: the residual volume keeps the order
		// working, no trade state changes.
		obs.IncPartialFill()
		if isExit {
			logs.Infof("partial fill on %s exit for trade %s", kind, tag.TradeID)
		} else {
			logs.Infof("partial fill on order %s (%s)", ev.Ref.VenueID, ev.Instrument)
		}

	case enum.OrderStatusRejected:
		if isExit {
			obs.IncExitReject(kind.String())
		}
		logs.Warnf("order rejected (%s, trade %s): %s", ev.Instrument, tag.TradeID, ev.Reason)
	}
}

// closeTrade settles the exit race for one trade: first close wins, every
// later close for the same trade is an idempotent no-op.
func (c *Coordinator) closeTrade(ctx context.Context, tradeID string, winner enum.ExitKind) {
	trade, ok := c.reg.Get(tradeID)
	if !ok {
		// Already closed by a sibling exit.
		return
	}

	removed, err := c.reg.Remove(ctx, tradeID)
	if err != nil {
		obs.IncSnapshotError()
		logs.Errorf("persist after %s exit of trade %s, err: %+v", winner, tradeID, err)
	}
	if !removed {
		return
	}
	obs.IncExit(winner.String())
	obs.SetOpenTrades(c.reg.Len())
	logs.Infof("%s exit won for trade %s (%s)", winner, tradeID, trade.Instrument)

	c.cancelSiblings(ctx, trade, winner)
}

// cancelSiblings cancels the losing exit orders. The sweep scans the
// venue's session orders by tag rather than trusting the refs recorded on
// the trade: a sibling submitted just before the winner filled may have
// its registration ack still queued, and an unacked order must still be
// cancelled or it can later fill against a trade that no longer exists.
// Fire and forget: the close decision is final, so confirmation is not
// awaited.
func (c *Coordinator) cancelSiblings(ctx context.Context, trade model.ActiveTrade, winner enum.ExitKind) {
	views, err := c.venue.Orders(ctx)
	if err != nil {
		logs.Warnf("query session orders for sibling sweep of trade %s, err: %+v", trade.ID, err)
		c.cancelRecordedSiblings(ctx, trade, winner)
		return
	}

	for _, view := range views {
		if view.Status.IsTerminal() {
			continue
		}
		tag, ok := model.ParseTag(view.Tag)
		if !ok || tag.Strategy != c.cfg.Strategy || tag.TradeID != trade.ID {
			continue
		}
		kind, isExit := tag.ExitKind()
		if !isExit || kind == winner {
			continue
		}
		if err := c.venue.Cancel(ctx, view.Ref); err != nil {
			logs.Warnf("cancel %s order %s for trade %s, err: %+v", kind, view.Ref.VenueID, trade.ID, err)
		}
	}
}

// cancelRecordedSiblings is the fallback sweep over the refs recorded on
// the trade, used when the session-order query fails.
func (c *Coordinator) cancelRecordedSiblings(ctx context.Context, trade model.ActiveTrade, winner enum.ExitKind) {
	for _, kind := range []enum.ExitKind{enum.ExitKindStop, enum.ExitKindProfit, enum.ExitKindTime} {
		if kind == winner {
			continue
		}
		ref := trade.ExitRef(kind)
		if ref.IsZero() {
			continue
		}
		if err := c.venue.Cancel(ctx, ref); err != nil {
			logs.Warnf("cancel %s order %s for trade %s, err: %+v", kind, ref.VenueID, trade.ID, err)
		}
	}
}

func (c *Coordinator) beginStop(ctx context.Context) {
	if c.stopping {
		return
	}
	logs.Infof("strategy %s stopping", c.cfg.Strategy)

	if !c.cfg.CloseAllOnStop || c.allFlat() {
		c.finishStop(ctx)
		return
	}
	c.stopping = true
	c.flattenAll(ctx)
}

func (c *Coordinator) finishStop(ctx context.Context) {
	// Trades are dropped only once every position is flat. Stopping with
	// positions still open leaves the persisted trade set in place so the
	// next session recovers and keeps managing the exits.
	if c.allFlat() && c.reg.Len() > 0 {
		if err := c.reg.Clear(ctx); err != nil {
			obs.IncSnapshotError()
			logs.Errorf("persist cleared registry on stop, err: %+v", err)
		}
		obs.SetOpenTrades(0)
	} else if c.reg.Len() > 0 {
		logs.Infof("stopping with %d open trades carried to next session", c.reg.Len())
	}
	c.stopping = false
	c.stopOnce.Do(func() {
		logs.Infof("strategy %s stopped", c.cfg.Strategy)
		close(c.stopped)
	})
}

func (c *Coordinator) allFlat() bool {
	for _, pos := range c.book.Positions() {
		if !pos.IsZero() {
			return false
		}
	}
	return true
}

func isNotFound(err error) bool {
	return errors.Is(err, registry.ErrTradeNotFound)
}
