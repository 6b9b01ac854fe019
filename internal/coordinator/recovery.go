package coordinator

import (
	"context"
	"time"

	"github.com/yanun0323/logs"

	"main/internal/bus"
	"main/internal/errors"
	"main/internal/model"
	"main/internal/model/enum"
	"main/internal/obs"
	"main/internal/state"
	"main/internal/timetable"
	"main/internal/venue"
)

// Start performs cold-start recovery and books the session schedules. It
// must complete before Run consumes any market data: recovered state has
// to be in place before the first tick is processed.
func (c *Coordinator) Start(ctx context.Context, store state.Store) error {
	snapshot, found, err := store.Read(ctx, c.cfg.Strategy)
	if err != nil {
		return errors.Wrap(err, "read snapshot")
	}
	if found {
		c.restore(ctx, snapshot)
	}

	// Mark-to-market restarts from zero each session; only positions and
	// trades survive the restart.
	c.book.ResetGross()

	c.scheduleClearing(time.Now())

	if !c.cfg.StopAt.IsZero() {
		at := timetable.ScheduledStop(c.cfg.StopAt)
		c.sched.ScheduleOnce(at, func() {
			_ = c.queue.Publish(context.Background(), bus.Event{Call: func() {
				c.beginStop(context.Background())
			}})
		})
		logs.Infof("strategy %s will stop at %s", c.cfg.Strategy, at.Format(time.RFC3339))
	}
	return nil
}

// restore reloads trades and positions from the snapshot and reconciles
// recorded profit orders against what the venue still knows.
func (c *Coordinator) restore(ctx context.Context, snapshot state.Snapshot) {
	c.reg.Bootstrap(snapshot.Trades)
	obs.SetOpenTrades(c.reg.Len())
	for _, entry := range snapshot.Positions {
		c.book.SetPosition(entry.Instrument, entry.Volume)
	}
	// Seed last prices from entry prices so the first print after restart
	// marks against a sane baseline instead of a zero.
	for _, trade := range snapshot.Trades {
		c.book.SeedLastPrice(trade.Instrument, trade.EntryPrice)
	}
	logs.Infof("restored %d trades, %d positions for strategy %s",
		len(snapshot.Trades), len(snapshot.Positions), c.cfg.Strategy)

	c.reconcileProfitOrders(ctx)

	// Close-time schedules do not survive a restart; rebook them from the
	// recovered entry times. Past instants fire immediately.
	for _, trade := range c.reg.All() {
		c.scheduleTimeExit(trade)
	}
}

// reconcileProfitOrders walks every recovered trade with a recorded profit
// order and settles what happened while the strategy was down: a fill that
// arrived offline closes the trade now, a still-working order is cancelled
// and re-placed at a fresh reference, and an order the venue no longer
// knows is logged and left for the remaining exits.
func (c *Coordinator) reconcileProfitOrders(ctx context.Context) {
	views, err := c.venue.Orders(ctx)
	if err != nil {
		logs.Errorf("query session orders for recovery, err: %+v", err)
		return
	}
	byVenueID := make(map[string]venue.OrderView, len(views))
	for _, view := range views {
		byVenueID[view.Ref.VenueID] = view
	}

	for _, trade := range c.reg.All() {
		if trade.ProfitOrderRef.IsZero() {
			continue
		}
		view, known := byVenueID[trade.ProfitOrderRef.VenueID]
		if !known {
			logs.Warnf("profit order %s for trade %s not found at venue, leaving trade open",
				trade.ProfitOrderRef.VenueID, trade.ID)
			continue
		}

		if view.Status == enum.OrderStatusFilled {
			logs.Infof("profit exit for trade %s filled while offline", trade.ID)
			c.closeTrade(ctx, trade.ID, enum.ExitKindProfit)
			continue
		}

		if err := c.venue.Cancel(ctx, trade.ProfitOrderRef); err != nil {
			logs.Warnf("cancel stale profit order for trade %s, err: %+v", trade.ID, err)
		}
		if err := c.reg.Update(ctx, trade.ID, func(t *model.ActiveTrade) {
			t.ProfitOrderRef = model.OrderRef{}
		}); err != nil {
			obs.IncSnapshotError()
			logs.Errorf("clear stale profit ref for trade %s, err: %+v", trade.ID, err)
		}
		c.armProfit(ctx, trade)
	}
}

// scheduleClearing books the clearing notifications for the current day
// and re-arms for the next trading day after each one fires.
func (c *Coordinator) scheduleClearing(now time.Time) {
	if c.onClearing == nil {
		return
	}
	times := timetable.NextClearing(now)
	c.bookClearing(times.Day, false)
	c.bookClearing(times.Evening, true)
}

func (c *Coordinator) bookClearing(at time.Time, evening bool) {
	if !at.After(time.Now()) {
		at = c.nextClearingInstant(at, evening)
	}
	c.sched.ScheduleOnce(at, func() {
		_ = c.queue.Publish(context.Background(), bus.Event{Call: func() {
			c.onClearing(evening)
			c.bookClearing(c.nextClearingInstant(time.Now(), evening), evening)
		}})
	})
}

func (c *Coordinator) nextClearingInstant(after time.Time, evening bool) time.Time {
	times := timetable.NextClearingAfter(after)
	if evening {
		return times.Evening
	}
	return times.Day
}
