// Package pricing computes exit limit prices from instrument state and
// configured offsets. Everything here is pure: callers pass quotes in and
// get a tick-rounded price out, or ErrNoQuote when the needed side of the
// book is empty.
package pricing

import (
	"github.com/shopspring/decimal"

	"main/internal/errors"
	"main/internal/model"
	"main/internal/model/enum"
	"main/internal/secref"
)

var ErrNoQuote = errors.New("no quote available")

var (
	one = decimal.NewFromInt(1)
	// hundred scales percent-denominated config values.
	hundred = decimal.NewFromInt(100)

	// offsetLight and offsetDeep are the forcing margins biasing stop limit
	// prices for a fast fill. offsetTime keeps time exits one step inside
	// the best quote; offsetFlatten is the deeper margin for forced flattens.
	offsetLight   = decimal.RequireFromString("0.0015")
	offsetDeep    = decimal.RequireFromString("0.005")
	offsetTime    = decimal.RequireFromString("0.001")
	offsetFlatten = decimal.RequireFromString("0.002")
)

// exitRound returns the rounding mode guaranteeing fill for an exit of a
// position in the given direction: a long exits by selling, so its limit
// rounds down; a short exits by buying, so its limit rounds up. Prices are
// never rounded toward the position's favor.
func exitRound(direction enum.Direction) secref.RoundMode {
	if direction == enum.DirectionShort {
		return secref.RoundUp
	}
	return secref.RoundDown
}

// StopTriggerPrice is the level at which the stop exit arms:
// entry x (1 - pct/100) for a long, entry x (1 + pct/100) for a short.
func StopTriggerPrice(inst secref.Instrument, entry decimal.Decimal, direction enum.Direction, stopLossPct decimal.Decimal) decimal.Decimal {
	frac := stopLossPct.Div(hundred)
	var raw decimal.Decimal
	if direction == enum.DirectionLong {
		raw = entry.Mul(one.Sub(frac))
	} else {
		raw = entry.Mul(one.Add(frac))
	}
	return inst.RoundToTick(raw, exitRound(direction))
}

// ProfitPrice is the take-profit limit: entry x (1 + pct/100) for a long,
// entry x (1 - pct/100) for a short.
func ProfitPrice(inst secref.Instrument, trade *model.ActiveTrade, takeProfitPct decimal.Decimal) decimal.Decimal {
	frac := takeProfitPct.Div(hundred)
	var raw decimal.Decimal
	if trade.Direction == enum.DirectionLong {
		raw = trade.EntryPrice.Mul(one.Add(frac))
	} else {
		raw = trade.EntryPrice.Mul(one.Sub(frac))
	}
	return inst.RoundToTick(raw, exitRound(trade.Direction))
}

// ConditionalStopLimitPrice is the limit leg of a native conditional stop:
// the trigger sits at the trade's stop price and the limit is pushed a
// light margin through it so the order trades once triggered.
func ConditionalStopLimitPrice(inst secref.Instrument, trade *model.ActiveTrade) decimal.Decimal {
	var raw decimal.Decimal
	if trade.Direction == enum.DirectionShort {
		raw = trade.StopPrice.Mul(one.Add(offsetLight))
	} else {
		raw = trade.StopPrice.Mul(one.Sub(offsetLight))
	}
	return inst.RoundToTick(raw, exitRound(trade.Direction))
}

// StopLimitPrice prices a synthetic stop exit once tick-watching has seen
// the trigger cross. The mode selects how aggressively the limit chases
// the book.
func StopLimitPrice(inst secref.Instrument, trade *model.ActiveTrade, mode enum.StopMode, quotes model.Quotes) (decimal.Decimal, error) {
	short := trade.Direction == enum.DirectionShort

	var raw decimal.Decimal
	switch mode {
	case enum.StopModeMarket:
		// Worst acceptable price: the venue's daily bound.
		if short {
			raw = inst.MaxPrice
		} else {
			raw = inst.MinPrice
		}

	case enum.StopModeMarketLimitOfferForced:
		if short {
			if !quotes.HasAsk {
				return decimal.Decimal{}, errors.Wrapf(ErrNoQuote, "stop %s best ask", trade.Instrument)
			}
			raw = quotes.BestAsk.Mul(one.Add(offsetLight))
		} else {
			if !quotes.HasBid {
				return decimal.Decimal{}, errors.Wrapf(ErrNoQuote, "stop %s best bid", trade.Instrument)
			}
			raw = quotes.BestBid.Mul(one.Sub(offsetLight))
		}

	case enum.StopModeMarketLimitOffer:
		if short {
			if !quotes.HasAsk {
				return decimal.Decimal{}, errors.Wrapf(ErrNoQuote, "stop %s best ask", trade.Instrument)
			}
			raw = quotes.BestAsk
		} else {
			if !quotes.HasBid {
				return decimal.Decimal{}, errors.Wrapf(ErrNoQuote, "stop %s best bid", trade.Instrument)
			}
			raw = quotes.BestBid
		}

	case enum.StopModeMarketLimitForced:
		if short {
			if !quotes.HasBid {
				return decimal.Decimal{}, errors.Wrapf(ErrNoQuote, "stop %s best bid", trade.Instrument)
			}
			raw = quotes.BestBid.Mul(one.Add(offsetDeep))
		} else {
			if !quotes.HasAsk {
				return decimal.Decimal{}, errors.Wrapf(ErrNoQuote, "stop %s best ask", trade.Instrument)
			}
			raw = quotes.BestAsk.Mul(one.Sub(offsetDeep))
		}

	case enum.StopModeMarketLimitLight:
		if short {
			if !quotes.HasBid {
				return decimal.Decimal{}, errors.Wrapf(ErrNoQuote, "stop %s best bid", trade.Instrument)
			}
			raw = quotes.BestBid.Mul(one.Add(offsetLight))
		} else {
			if !quotes.HasAsk {
				return decimal.Decimal{}, errors.Wrapf(ErrNoQuote, "stop %s best ask", trade.Instrument)
			}
			raw = quotes.BestAsk.Mul(one.Sub(offsetLight))
		}

	case enum.StopModeSpreadZero:
		if short {
			if !quotes.HasBid {
				return decimal.Decimal{}, errors.Wrapf(ErrNoQuote, "stop %s best bid", trade.Instrument)
			}
			raw = quotes.BestBid
		} else {
			if !quotes.HasAsk {
				return decimal.Decimal{}, errors.Wrapf(ErrNoQuote, "stop %s best ask", trade.Instrument)
			}
			raw = quotes.BestAsk
		}

	default:
		if short {
			if !quotes.HasAsk {
				return decimal.Decimal{}, errors.Wrapf(ErrNoQuote, "stop %s best ask", trade.Instrument)
			}
			raw = quotes.BestAsk
		} else {
			if !quotes.HasBid {
				return decimal.Decimal{}, errors.Wrapf(ErrNoQuote, "stop %s best bid", trade.Instrument)
			}
			raw = quotes.BestBid
		}
	}

	return inst.Clamp(inst.RoundToTick(raw, exitRound(trade.Direction))), nil
}

// TimeExitPrice prices a time-based exit one step inside the best quote on
// the exit side, biasing for an immediate fill without crossing deep into
// the spread.
func TimeExitPrice(inst secref.Instrument, direction enum.Direction, quotes model.Quotes) (decimal.Decimal, error) {
	var raw decimal.Decimal
	if direction == enum.DirectionShort {
		if !quotes.HasBid {
			return decimal.Decimal{}, errors.Wrap(ErrNoQuote, "time exit best bid")
		}
		raw = quotes.BestBid.Mul(one.Add(offsetTime))
	} else {
		if !quotes.HasAsk {
			return decimal.Decimal{}, errors.Wrap(ErrNoQuote, "time exit best ask")
		}
		raw = quotes.BestAsk.Mul(one.Sub(offsetTime))
	}
	return inst.RoundToTick(raw, exitRound(direction)), nil
}

// FlattenPrice prices a forced market exit for a signed net position.
// The forcing offset is deeper than the time exit's to all but guarantee
// the position goes flat.
func FlattenPrice(inst secref.Instrument, position decimal.Decimal, quotes model.Quotes) (decimal.Decimal, error) {
	if position.IsPositive() {
		if !quotes.HasBid {
			return decimal.Decimal{}, errors.Wrap(ErrNoQuote, "flatten best bid")
		}
		raw := quotes.BestBid.Mul(one.Sub(offsetFlatten))
		return inst.RoundToTick(raw, secref.RoundDown), nil
	}

	if !quotes.HasAsk {
		return decimal.Decimal{}, errors.Wrap(ErrNoQuote, "flatten best ask")
	}
	raw := quotes.BestAsk.Mul(one.Add(offsetFlatten))
	return inst.RoundToTick(raw, secref.RoundUp), nil
}
