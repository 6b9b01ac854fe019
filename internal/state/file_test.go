package state

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/model"
	"main/internal/model/enum"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sampleSnapshot() Snapshot {
	trades := []model.ActiveTrade{
		{
			ID:         "9001",
			Instrument: "SBER",
			Direction:  enum.DirectionLong,
			EntryPrice: dec("100.5"),
			Volume:     dec("10"),
			EntryTime:  time.Date(2026, 3, 2, 10, 15, 0, 0, time.UTC),
			StopPrice:  dec("99.49"),
			ProfitOrderRef: model.OrderRef{
				SubmissionID: "sub-1",
				VenueID:      "venue-77",
			},
			StopArmed: true,
		},
		{
			ID:         "9002",
			Instrument: "GAZP",
			Direction:  enum.DirectionShort,
			EntryPrice: dec("150"),
			Volume:     dec("3"),
			EntryTime:  time.Date(2026, 3, 2, 11, 0, 0, 0, time.UTC),
			StopPrice:  dec("151.5"),
		},
	}
	return Build("prisma", trades, map[string]decimal.Decimal{
		"SBER": dec("10"),
		"GAZP": dec("-3"),
	})
}

func TestFileStoreRoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	want := sampleSnapshot()
	require.NoError(t, store.Write(t.Context(), want))

	got, ok, err := store.Read(t.Context(), "prisma")
	require.NoError(t, err)
	require.True(t, ok)

	require.Len(t, got.Trades, 2)
	assert.Equal(t, "9001", got.Trades[0].ID)
	assert.Equal(t, enum.DirectionLong, got.Trades[0].Direction)
	assert.True(t, got.Trades[0].EntryPrice.Equal(dec("100.5")))
	assert.True(t, got.Trades[0].StopPrice.Equal(dec("99.49")))
	assert.Equal(t, "venue-77", got.Trades[0].ProfitOrderRef.VenueID)
	assert.True(t, got.Trades[0].StopArmed)
	assert.True(t, got.Trades[0].EntryTime.Equal(want.Trades[0].EntryTime))

	assert.Equal(t, enum.DirectionShort, got.Trades[1].Direction)
	assert.True(t, got.Trades[1].ProfitOrderRef.IsZero())

	// Build sorts positions by instrument.
	require.Len(t, got.Positions, 2)
	assert.Equal(t, "GAZP", got.Positions[0].Instrument)
	assert.True(t, got.Positions[0].Volume.Equal(dec("-3")))
	assert.True(t, got.Positions[1].Volume.Equal(dec("10")))
}

func TestFileStoreOverwrite(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	first := sampleSnapshot()
	require.NoError(t, store.Write(t.Context(), first))

	second := Build("prisma", nil, map[string]decimal.Decimal{})
	require.NoError(t, store.Write(t.Context(), second))

	got, ok, err := store.Read(t.Context(), "prisma")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Empty(t, got.Trades)
	assert.Empty(t, got.Positions)
}

func TestFileStoreAbsent(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, ok, err := store.Read(t.Context(), "never-written")
	require.NoError(t, err)
	assert.False(t, ok)
}
