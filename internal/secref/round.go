package secref

import "github.com/shopspring/decimal"

// RoundMode controls which tick boundary a price snaps to.
type RoundMode uint8

const (
	// RoundNearest snaps to the closest tick.
	RoundNearest RoundMode = iota
	// RoundDown snaps toward zero on the price axis (floor).
	RoundDown
	// RoundUp snaps away from zero on the price axis (ceil).
	RoundUp
)

// RoundToTick snaps price onto the instrument's tick grid.
func (i Instrument) RoundToTick(price decimal.Decimal, mode RoundMode) decimal.Decimal {
	if !i.TickSize.IsPositive() {
		return price
	}

	steps := price.Div(i.TickSize)
	switch mode {
	case RoundDown:
		steps = steps.Floor()
	case RoundUp:
		steps = steps.Ceil()
	default:
		steps = steps.Round(0)
	}
	return steps.Mul(i.TickSize)
}

// Clamp bounds price into the instrument's allowed price band.
func (i Instrument) Clamp(price decimal.Decimal) decimal.Decimal {
	if i.MinPrice.IsPositive() && price.LessThan(i.MinPrice) {
		return i.MinPrice
	}
	if i.MaxPrice.IsPositive() && price.GreaterThan(i.MaxPrice) {
		return i.MaxPrice
	}
	return price
}
