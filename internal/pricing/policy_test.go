package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/model"
	"main/internal/model/enum"
	"main/internal/secref"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testInstrument() secref.Instrument {
	return secref.Instrument{
		Code:     "SBER",
		TickSize: dec("0.01"),
		MinPrice: dec("90"),
		MaxPrice: dec("110"),
	}
}

func testQuotes() model.Quotes {
	return model.Quotes{
		BestBid: dec("99.95"),
		BestAsk: dec("100.05"),
		HasBid:  true,
		HasAsk:  true,
	}
}

func testTrade(direction enum.Direction) *model.ActiveTrade {
	trade := &model.ActiveTrade{
		ID:         "42",
		Instrument: "SBER",
		Direction:  direction,
		EntryPrice: dec("100"),
		Volume:     dec("1"),
	}
	trade.StopPrice = StopTriggerPrice(testInstrument(), trade.EntryPrice, direction, dec("1"))
	return trade
}

func TestStopTriggerPrice(t *testing.T) {
	inst := testInstrument()

	long := StopTriggerPrice(inst, dec("100"), enum.DirectionLong, dec("1"))
	assert.True(t, long.Equal(dec("99")), "long stop: got %s", long)

	short := StopTriggerPrice(inst, dec("100"), enum.DirectionShort, dec("1"))
	assert.True(t, short.Equal(dec("101")), "short stop: got %s", short)
}

func TestProfitPrice(t *testing.T) {
	inst := testInstrument()

	long := ProfitPrice(inst, testTrade(enum.DirectionLong), dec("2"))
	assert.True(t, long.Equal(dec("102")), "long profit: got %s", long)

	short := ProfitPrice(inst, testTrade(enum.DirectionShort), dec("2"))
	assert.True(t, short.Equal(dec("98")), "short profit: got %s", short)
}

func TestConditionalStopLimitPrice(t *testing.T) {
	inst := testInstrument()

	long := ConditionalStopLimitPrice(inst, testTrade(enum.DirectionLong))
	assert.True(t, long.Equal(dec("98.85")), "long: got %s", long)

	short := ConditionalStopLimitPrice(inst, testTrade(enum.DirectionShort))
	assert.True(t, short.Equal(dec("101.16")), "short: got %s", short)
}

func TestStopLimitPriceModes(t *testing.T) {
	inst := testInstrument()
	quotes := testQuotes()

	cases := []struct {
		name      string
		mode      enum.StopMode
		direction enum.Direction
		want      string
	}{
		{"market long floors at band", enum.StopModeMarket, enum.DirectionLong, "90"},
		{"market short caps at band", enum.StopModeMarket, enum.DirectionShort, "110"},
		{"offer forced long", enum.StopModeMarketLimitOfferForced, enum.DirectionLong, "99.80"},
		{"offer forced short", enum.StopModeMarketLimitOfferForced, enum.DirectionShort, "100.21"},
		{"offer long", enum.StopModeMarketLimitOffer, enum.DirectionLong, "99.95"},
		{"offer short", enum.StopModeMarketLimitOffer, enum.DirectionShort, "100.05"},
		{"forced long", enum.StopModeMarketLimitForced, enum.DirectionLong, "99.54"},
		{"forced short", enum.StopModeMarketLimitForced, enum.DirectionShort, "100.45"},
		{"light long", enum.StopModeMarketLimitLight, enum.DirectionLong, "99.89"},
		{"light short", enum.StopModeMarketLimitLight, enum.DirectionShort, "100.10"},
		{"spread zero long", enum.StopModeSpreadZero, enum.DirectionLong, "100.05"},
		{"spread zero short", enum.StopModeSpreadZero, enum.DirectionShort, "99.95"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := StopLimitPrice(inst, testTrade(c.direction), c.mode, quotes)
			require.NoError(t, err)
			assert.True(t, got.Equal(dec(c.want)), "got %s want %s", got, c.want)
		})
	}
}

func TestStopLimitPriceNoQuote(t *testing.T) {
	inst := testInstrument()

	_, err := StopLimitPrice(inst, testTrade(enum.DirectionLong), enum.StopModeMarketLimitOffer, model.Quotes{})
	assert.ErrorIs(t, err, ErrNoQuote)
}

func TestTimeExitPrice(t *testing.T) {
	inst := testInstrument()
	quotes := testQuotes()

	long, err := TimeExitPrice(inst, enum.DirectionLong, quotes)
	require.NoError(t, err)
	assert.True(t, long.Equal(dec("99.94")), "long: got %s", long)

	short, err := TimeExitPrice(inst, enum.DirectionShort, quotes)
	require.NoError(t, err)
	assert.True(t, short.Equal(dec("100.05")), "short: got %s", short)

	_, err = TimeExitPrice(inst, enum.DirectionLong, model.Quotes{})
	assert.ErrorIs(t, err, ErrNoQuote)
}

func TestFlattenPrice(t *testing.T) {
	inst := testInstrument()
	quotes := testQuotes()

	// A short position of -5 is flattened by a buy priced above the ask.
	buy, err := FlattenPrice(inst, dec("-5"), quotes)
	require.NoError(t, err)
	assert.True(t, buy.Equal(dec("100.26")), "buy: got %s", buy)

	sell, err := FlattenPrice(inst, dec("5"), quotes)
	require.NoError(t, err)
	assert.True(t, sell.Equal(dec("99.75")), "sell: got %s", sell)

	_, err = FlattenPrice(inst, dec("5"), model.Quotes{})
	assert.ErrorIs(t, err, ErrNoQuote)
}
