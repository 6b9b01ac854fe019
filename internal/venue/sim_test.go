package venue

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

func tick(price string) model.Tick {
	return model.Tick{
		Instrument: "SBER",
		Price:      dec(price),
		Volume:     dec("1"),
		Time:       time.Now(),
	}
}

func drain(t *testing.T, s *Sim) []Event {
	t.Helper()
	var out []Event
	for {
		select {
		case e := <-s.Events():
			out = append(out, e)
		default:
			return out
		}
	}
}

func TestSimRegistersAndFills(t *testing.T) {
	s := NewSim(false)
	defer s.Close()

	ref, err := s.Submit(t.Context(), OrderSpec{
		Instrument: "SBER",
		Side:       enum.DirectionShort,
		Volume:     dec("10"),
		Price:      dec("101"),
		Tag:        "prisma,p,42",
	})
	require.NoError(t, err)
	require.NotEmpty(t, ref.VenueID)

	events := drain(t, s)
	require.Len(t, events, 1)
	assert.Equal(t, enum.OrderStatusRegistered, events[0].Order.Status)

	// Below the limit: a sell does not fill.
	s.OnTick(tick("100.5"))
	assert.Empty(t, drain(t, s))

	s.OnTick(tick("101"))
	events = drain(t, s)
	require.Len(t, events, 1)
	require.NotNil(t, events[0].Fill)
	assert.Equal(t, enum.OrderStatusFilled, events[0].Order.Status)
	assert.Equal(t, "prisma,p,42", events[0].Fill.Tag)
	assert.True(t, events[0].Fill.Price.Equal(dec("101")))

	// A filled order never fills twice.
	s.OnTick(tick("102"))
	assert.Empty(t, drain(t, s))
}

func TestSimCancel(t *testing.T) {
	s := NewSim(false)
	defer s.Close()

	ref, err := s.Submit(t.Context(), OrderSpec{
		Instrument: "SBER",
		Side:       enum.DirectionLong,
		Volume:     dec("1"),
		Price:      dec("99"),
		Tag:        "prisma,s,42",
	})
	require.NoError(t, err)
	drain(t, s)

	require.NoError(t, s.Cancel(t.Context(), ref))
	events := drain(t, s)
	require.Len(t, events, 1)
	assert.Equal(t, enum.OrderStatusCanceled, events[0].Order.Status)

	err = s.Cancel(t.Context(), ref)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	// Cancelled orders never fill.
	s.OnTick(tick("98"))
	assert.Empty(t, drain(t, s))
}

func TestSimNativeConditionalStop(t *testing.T) {
	s := NewSim(true)
	defer s.Close()

	// Sell stop for a long position: trigger 99, limit 98.85.
	_, err := s.Submit(t.Context(), OrderSpec{
		Instrument: "SBER",
		Side:       enum.DirectionShort,
		Volume:     dec("1"),
		Price:      dec("98.85"),
		Tag:        "prisma,s,42",
		Condition:  &StopCondition{TriggerPrice: dec("99")},
	})
	require.NoError(t, err)
	drain(t, s)

	// Above the trigger nothing happens.
	s.OnTick(tick("100"))
	assert.Empty(t, drain(t, s))

	// Trigger print arms the order; the same print is above the limit so
	// the sell fills immediately.
	s.OnTick(tick("99"))
	events := drain(t, s)
	require.Len(t, events, 1)
	require.NotNil(t, events[0].Fill)
}

func TestSimRejectsConditionalWithoutSupport(t *testing.T) {
	s := NewSim(false)
	defer s.Close()

	_, err := s.Submit(t.Context(), OrderSpec{
		Instrument: "SBER",
		Side:       enum.DirectionShort,
		Volume:     dec("1"),
		Price:      dec("98.85"),
		Condition:  &StopCondition{TriggerPrice: dec("99")},
	})
	assert.Error(t, err)
}

func TestSimRestoreForRecovery(t *testing.T) {
	s := NewSim(false)
	defer s.Close()

	s.Restore(OrderView{
		Ref:        model.OrderRef{SubmissionID: "old-sub", VenueID: "7"},
		Tag:        "prisma,p,42",
		Instrument: "SBER",
		Side:       enum.DirectionShort,
		Price:      dec("102"),
		Volume:     dec("1"),
		Status:     enum.OrderStatusRegistered,
	})

	orders, err := s.Orders(t.Context())
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "7", orders[0].Ref.VenueID)

	// New submissions never reuse a restored id.
	ref, err := s.Submit(t.Context(), OrderSpec{
		Instrument: "SBER",
		Side:       enum.DirectionLong,
		Volume:     dec("1"),
		Price:      dec("99"),
	})
	require.NoError(t, err)
	assert.Equal(t, "8", ref.VenueID)
}
