package coordinator

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/logs"

	"main/internal/bus"
	"main/internal/model"
	"main/internal/model/enum"
	"main/internal/obs"
	"main/internal/pricing"
	"main/internal/timetable"
	"main/internal/venue"
)

// timeExitRetry is how long a time exit waits for a usable quote before
// trying again.
const timeExitRetry = 5 * time.Second

// openTrade turns a confirmed entry fill into a tracked trade and arms
// its exits. The trade is persisted before any exit order goes out so a
// crash between the two leaves a recoverable record.
func (c *Coordinator) openTrade(ctx context.Context, fill model.OwnFill) {
	inst, ok := c.dir.Instrument(fill.Instrument)
	if !ok {
		logs.Errorf("entry fill on unknown instrument %s, trade %s left unmanaged", fill.Instrument, fill.FillID)
		return
	}

	trade := model.ActiveTrade{
		ID:         fill.FillID,
		Instrument: fill.Instrument,
		Direction:  fill.Side,
		EntryPrice: fill.Price,
		Volume:     fill.Volume,
		EntryTime:  fill.Time,
		StopPrice:  pricing.StopTriggerPrice(inst, fill.Price, fill.Side, c.cfg.StopLossPct),
	}

	// A fill can land before any print for the instrument; baseline the
	// mark against the entry so the next tick's delta is not taken from
	// zero.
	c.book.SeedLastPrice(fill.Instrument, fill.Price)

	if err := c.reg.Add(ctx, trade); err != nil {
		obs.IncSnapshotError()
		logs.Errorf("persist new trade %s, err: %+v", trade.ID, err)
	}
	obs.SetOpenTrades(c.reg.Len())
	logs.Infof("trade %s opened: %s %s %s @ %s, stop %s",
		trade.ID, trade.Direction, trade.Volume, trade.Instrument, trade.EntryPrice, trade.StopPrice)

	c.armProfit(ctx, trade)
	c.armStop(ctx, trade)
	c.scheduleTimeExit(trade)
}

// armProfit places the take-profit limit. A zero percentage disables the
// profit exit for the strategy.
func (c *Coordinator) armProfit(ctx context.Context, trade model.ActiveTrade) {
	if !c.cfg.TakeProfitPct.IsPositive() {
		return
	}
	inst, ok := c.dir.Instrument(trade.Instrument)
	if !ok {
		logs.Errorf("profit exit for trade %s: unknown instrument %s", trade.ID, trade.Instrument)
		return
	}

	spec := venue.OrderSpec{
		Instrument: trade.Instrument,
		Side:       trade.Direction.Opposite(),
		Volume:     trade.Volume,
		Price:      pricing.ProfitPrice(inst, &trade, c.cfg.TakeProfitPct),
		Tag:        model.ExitTag(c.cfg.Strategy, enum.ExitKindProfit, trade.ID),
	}
	if _, err := c.venue.Submit(ctx, spec); err != nil {
		obs.IncExitReject(enum.ExitKindProfit.String())
		logs.Errorf("submit profit exit for trade %s, err: %+v", trade.ID, err)
	}
}

// armStop establishes the stop exit. With native conditional support the
// venue holds the trigger; otherwise the tick-watch in handleTick arms a
// plain limit once a print crosses the trade's stop price.
func (c *Coordinator) armStop(ctx context.Context, trade model.ActiveTrade) {
	if !c.venue.SupportsNativeConditional() {
		return
	}
	inst, ok := c.dir.Instrument(trade.Instrument)
	if !ok {
		logs.Errorf("stop exit for trade %s: unknown instrument %s", trade.ID, trade.Instrument)
		return
	}

	spec := venue.OrderSpec{
		Instrument: trade.Instrument,
		Side:       trade.Direction.Opposite(),
		Volume:     trade.Volume,
		Price:      pricing.ConditionalStopLimitPrice(inst, &trade),
		Tag:        model.ExitTag(c.cfg.Strategy, enum.ExitKindStop, trade.ID),
		Condition:  &venue.StopCondition{TriggerPrice: trade.StopPrice},
	}
	if _, err := c.venue.Submit(ctx, spec); err != nil {
		obs.IncExitReject(enum.ExitKindStop.String())
		logs.Errorf("submit conditional stop for trade %s, err: %+v", trade.ID, err)
	}
}

// armSyntheticStop fires once per trade when tick-watching sees the stop
// level print. The armed flag is persisted first so a restart does not
// double-submit the stop order.
func (c *Coordinator) armSyntheticStop(ctx context.Context, trade model.ActiveTrade) {
	inst, ok := c.dir.Instrument(trade.Instrument)
	if !ok {
		logs.Errorf("synthetic stop for trade %s: unknown instrument %s", trade.ID, trade.Instrument)
		return
	}

	price, err := pricing.StopLimitPrice(inst, &trade, c.cfg.StopMode, c.dir.Quotes(trade.Instrument))
	if err != nil {
		// Leave the trade unarmed; the next print retries.
		logs.Warnf("price synthetic stop for trade %s, err: %+v", trade.ID, err)
		return
	}

	if err := c.reg.Update(ctx, trade.ID, func(t *model.ActiveTrade) { t.StopArmed = true }); err != nil {
		obs.IncSnapshotError()
		logs.Errorf("persist armed stop for trade %s, err: %+v", trade.ID, err)
	}
	logs.Infof("stop triggered for trade %s (%s), limit %s", trade.ID, trade.Instrument, price)

	spec := venue.OrderSpec{
		Instrument: trade.Instrument,
		Side:       trade.Direction.Opposite(),
		Volume:     trade.Volume,
		Price:      price,
		Tag:        model.ExitTag(c.cfg.Strategy, enum.ExitKindStop, trade.ID),
	}
	if _, err := c.venue.Submit(ctx, spec); err != nil {
		obs.IncExitReject(enum.ExitKindStop.String())
		logs.Errorf("submit synthetic stop for trade %s, err: %+v", trade.ID, err)
	}
}

// scheduleTimeExit books the trade's close-time callback. The callback
// re-enters the event loop; nothing touches trade state off-loop.
func (c *Coordinator) scheduleTimeExit(trade model.ActiveTrade) {
	if c.cfg.BarsToClose <= 0 {
		return
	}
	at := timetable.CloseTime(trade.EntryTime, c.cfg.Timeframe, c.cfg.BarsToClose)
	tradeID := trade.ID
	c.sched.ScheduleOnce(at, func() {
		err := c.queue.Publish(context.Background(), bus.Event{Call: func() {
			c.timeExit(context.Background(), tradeID)
		}})
		if err != nil {
			logs.Warnf("enqueue time exit for trade %s, err: %+v", tradeID, err)
		}
	})
	logs.Infof("time exit for trade %s scheduled at %s", trade.ID, at.Format(time.RFC3339))
}

// timeExit submits the close-time limit order. A trade already closed by
// a faster exit makes this a no-op.
func (c *Coordinator) timeExit(ctx context.Context, tradeID string) {
	trade, ok := c.reg.Get(tradeID)
	if !ok {
		return
	}
	if !trade.TimeOrderRef.IsZero() {
		return
	}
	inst, ok := c.dir.Instrument(trade.Instrument)
	if !ok {
		logs.Errorf("time exit for trade %s: unknown instrument %s", trade.ID, trade.Instrument)
		return
	}

	price, err := pricing.TimeExitPrice(inst, trade.Direction, c.dir.Quotes(trade.Instrument))
	if err != nil {
		logs.Warnf("price time exit for trade %s, retrying in %s, err: %+v", trade.ID, timeExitRetry, err)
		c.sched.ScheduleOnce(time.Now().Add(timeExitRetry), func() {
			_ = c.queue.Publish(context.Background(), bus.Event{Call: func() {
				c.timeExit(context.Background(), tradeID)
			}})
		})
		return
	}

	spec := venue.OrderSpec{
		Instrument: trade.Instrument,
		Side:       trade.Direction.Opposite(),
		Volume:     trade.Volume,
		Price:      price,
		Tag:        model.ExitTag(c.cfg.Strategy, enum.ExitKindTime, trade.ID),
	}
	if _, err := c.venue.Submit(ctx, spec); err != nil {
		obs.IncExitReject(enum.ExitKindTime.String())
		logs.Errorf("submit time exit for trade %s, err: %+v", trade.ID, err)
	}
}

// flattenAll forces every nonzero position flat at forcing prices.
// Instruments without a usable quote are skipped and retried when the
// next stop or flatten request arrives.
func (c *Coordinator) flattenAll(ctx context.Context) {
	for instrument, position := range c.book.Positions() {
		if position.IsZero() {
			continue
		}
		c.flattenInstrument(ctx, instrument, position)
	}
}

func (c *Coordinator) flattenInstrument(ctx context.Context, instrument string, position decimal.Decimal) {
	inst, ok := c.dir.Instrument(instrument)
	if !ok {
		logs.Errorf("flatten %s: unknown instrument", instrument)
		return
	}

	price, err := pricing.FlattenPrice(inst, position, c.dir.Quotes(instrument))
	if err != nil {
		logs.Warnf("price flatten for %s, err: %+v", instrument, err)
		return
	}

	side := enum.DirectionShort
	if position.IsNegative() {
		side = enum.DirectionLong
	}
	spec := venue.OrderSpec{
		Instrument: instrument,
		Side:       side,
		Volume:     position.Abs(),
		Price:      price,
		Tag:        model.FlattenTag(c.cfg.Strategy, instrument),
	}
	if _, err := c.venue.Submit(ctx, spec); err != nil {
		obs.IncExitReject(enum.ExitKindFlatten.String())
		logs.Errorf("submit flatten for %s, err: %+v", instrument, err)
	}
	logs.Infof("flatten %s: %s %s @ %s", instrument, side, position.Abs(), price)
}
