package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"main/internal/model/enum"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestGrossAccumulation(t *testing.T) {
	l := New([]string{"SBER"}, nil)

	l.OnOwnFill("SBER", enum.DirectionLong, dec("10"))
	l.SeedLastPrice("SBER", dec("100"))

	l.OnMarketTrade("SBER", dec("101"))
	assert.True(t, l.Gross().Equal(dec("10")), "gross: %s", l.Gross())

	l.OnMarketTrade("SBER", dec("100.5"))
	assert.True(t, l.Gross().Equal(dec("5")), "gross: %s", l.Gross())
}

func TestGrossInterleavedInstruments(t *testing.T) {
	l := New([]string{"SBER", "GAZP"}, nil)

	l.OnOwnFill("SBER", enum.DirectionLong, dec("2"))
	l.SeedLastPrice("SBER", dec("100"))
	l.OnOwnFill("GAZP", enum.DirectionShort, dec("3"))
	l.SeedLastPrice("GAZP", dec("50"))

	l.OnMarketTrade("SBER", dec("101"))
	l.OnMarketTrade("GAZP", dec("49"))
	l.OnMarketTrade("SBER", dec("102"))

	// SBER: (101-100)*2 + (102-101)*2 = 4; GAZP: (49-50)*(-3) = 3.
	assert.True(t, l.Gross().Equal(dec("7")), "gross: %s", l.Gross())
}

func TestUntrackedInstrumentIgnored(t *testing.T) {
	l := New([]string{"SBER"}, nil)

	l.OnOwnFill("LKOH", enum.DirectionLong, dec("5"))
	l.OnMarketTrade("LKOH", dec("7000"))

	assert.True(t, l.Gross().IsZero())
	assert.True(t, l.Position("LKOH").IsZero())
}

func TestPositionFromFills(t *testing.T) {
	l := New([]string{"SBER"}, nil)

	l.OnOwnFill("SBER", enum.DirectionLong, dec("10"))
	l.OnOwnFill("SBER", enum.DirectionShort, dec("4"))

	assert.True(t, l.Position("SBER").Equal(dec("6")))
}

func TestMarketTradeDoesNotMovePosition(t *testing.T) {
	l := New([]string{"SBER"}, nil)

	l.OnMarketTrade("SBER", dec("100"))
	l.OnMarketTrade("SBER", dec("105"))

	assert.True(t, l.Position("SBER").IsZero())
	// Flat position means price moves accrue nothing.
	assert.True(t, l.Gross().IsZero())
}

func TestGrossNotification(t *testing.T) {
	var events []enum.GrossSign
	var values []decimal.Decimal
	l := New([]string{"SBER"}, func(gross decimal.Decimal, sign enum.GrossSign) {
		events = append(events, sign)
		values = append(values, gross)
	})

	l.OnOwnFill("SBER", enum.DirectionLong, dec("1"))
	l.SeedLastPrice("SBER", dec("100"))

	// Unchanged gross emits nothing.
	l.OnMarketTrade("SBER", dec("100"))
	assert.Empty(t, events)

	l.OnMarketTrade("SBER", dec("101"))
	l.OnMarketTrade("SBER", dec("99"))

	assert.Equal(t, []enum.GrossSign{enum.GrossSignPositive, enum.GrossSignNegative}, events)
	assert.True(t, values[1].Equal(dec("-1")))
}

func TestResetGross(t *testing.T) {
	fired := 0
	l := New([]string{"SBER"}, func(decimal.Decimal, enum.GrossSign) { fired++ })

	l.OnOwnFill("SBER", enum.DirectionLong, dec("1"))
	l.SeedLastPrice("SBER", dec("100"))
	l.OnMarketTrade("SBER", dec("101"))

	l.ResetGross()
	assert.True(t, l.Gross().IsZero())
	assert.Equal(t, 2, fired)

	// Resetting an already flat gross is quiet.
	l.ResetGross()
	assert.Equal(t, 2, fired)
}

func TestSeedLastPriceKeepsObservedPrint(t *testing.T) {
	l := New([]string{"SBER"}, nil)

	l.OnMarketTrade("SBER", dec("100"))
	// A seed after a real print must not rewind the baseline.
	l.SeedLastPrice("SBER", dec("90"))

	l.OnOwnFill("SBER", enum.DirectionLong, dec("1"))
	l.OnMarketTrade("SBER", dec("101"))
	assert.True(t, l.Gross().Equal(dec("1")), "gross: %s", l.Gross())
}

func TestRecoverySeeding(t *testing.T) {
	l := New([]string{"SBER"}, nil)
	l.SetPosition("SBER", dec("-5"))
	l.SeedLastPrice("SBER", dec("100"))

	l.OnMarketTrade("SBER", dec("98"))
	assert.True(t, l.Gross().Equal(dec("10")), "gross: %s", l.Gross())
}
