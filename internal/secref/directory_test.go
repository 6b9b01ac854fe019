package secref

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/model"
)

func newTestInstrument(t *testing.T) Instrument {
	t.Helper()
	return Instrument{
		Code:     "SBER",
		TickSize: decimal.RequireFromString("0.05"),
		MinPrice: decimal.RequireFromString("90"),
		MaxPrice: decimal.RequireFromString("110"),
	}
}

func TestDirectoryAddAndLookup(t *testing.T) {
	dir := NewDirectory()
	require.NoError(t, dir.Add(newTestInstrument(t)))

	err := dir.Add(newTestInstrument(t))
	assert.ErrorIs(t, err, ErrInstrumentExists)

	inst, ok := dir.Instrument("SBER")
	require.True(t, ok)
	assert.Equal(t, "SBER", inst.Code)

	_, ok = dir.Instrument("GAZP")
	assert.False(t, ok)
}

func TestDirectoryRejectsZeroTick(t *testing.T) {
	dir := NewDirectory()
	err := dir.Add(Instrument{Code: "BAD"})
	assert.ErrorIs(t, err, ErrInvalidTickSize)
}

func TestRoundToTick(t *testing.T) {
	inst := newTestInstrument(t)

	cases := []struct {
		name  string
		price string
		mode  RoundMode
		want  string
	}{
		{"nearest down", "100.02", RoundNearest, "100.00"},
		{"nearest up", "100.03", RoundNearest, "100.05"},
		{"floor", "100.09", RoundDown, "100.05"},
		{"ceil", "100.01", RoundUp, "100.05"},
		{"already on grid", "100.05", RoundNearest, "100.05"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := inst.RoundToTick(decimal.RequireFromString(c.price), c.mode)
			assert.True(t, got.Equal(decimal.RequireFromString(c.want)),
				"got %s want %s", got, c.want)
		})
	}
}

func TestClamp(t *testing.T) {
	inst := newTestInstrument(t)

	low := inst.Clamp(decimal.RequireFromString("80"))
	assert.True(t, low.Equal(inst.MinPrice))

	high := inst.Clamp(decimal.RequireFromString("150"))
	assert.True(t, high.Equal(inst.MaxPrice))

	mid := inst.Clamp(decimal.RequireFromString("100"))
	assert.True(t, mid.Equal(decimal.RequireFromString("100")))
}

func TestQuotes(t *testing.T) {
	dir := NewDirectory()
	require.NoError(t, dir.Add(newTestInstrument(t)))

	q := dir.Quotes("SBER")
	assert.False(t, q.HasBid)
	assert.False(t, q.HasAsk)

	dir.SetQuotes("SBER", model.Quotes{
		BestBid: decimal.RequireFromString("99.95"),
		BestAsk: decimal.RequireFromString("100.05"),
		HasBid:  true,
		HasAsk:  true,
	})

	q = dir.Quotes("SBER")
	require.True(t, q.HasBid)
	assert.True(t, q.BestBid.Equal(decimal.RequireFromString("99.95")))
}
