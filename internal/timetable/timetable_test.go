package timetable

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(hour, minute, second int) time.Time {
	return time.Date(2026, time.March, 2, hour, minute, second, 0, time.UTC)
}

func TestCloseTime(t *testing.T) {
	cases := []struct {
		name  string
		entry time.Time
		frame time.Duration
		bars  int
		want  time.Time
	}{
		{"bar aligned", at(9, 51, 0), 5 * time.Minute, 2, at(10, 5, 0)},
		{"seconds dropped", at(9, 52, 37), 5 * time.Minute, 2, at(10, 5, 0)},
		{"exactly on boundary", at(9, 50, 0), 5 * time.Minute, 2, at(10, 5, 0)},
		{"hour frame", at(9, 51, 0), time.Hour, 1, at(11, 0, 0)},
		{"evening settlement start snaps back", at(18, 31, 0), 5 * time.Minute, 2, at(18, 42, 0)},
		{"inside evening pause snaps forward", at(18, 36, 0), 5 * time.Minute, 2, at(19, 5, 0)},
		{"late evening pause snaps forward", at(18, 41, 0), 5 * time.Minute, 2, at(19, 10, 0)},
		{"intraday clearing snaps forward", at(13, 46, 0), 5 * time.Minute, 2, at(14, 5, 0)},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := CloseTime(c.entry, c.frame, c.bars)
			assert.True(t, got.Equal(c.want), "got %s want %s", got, c.want)
		})
	}
}

func TestCloseTimeZeroFrame(t *testing.T) {
	entry := at(9, 51, 0)
	assert.True(t, CloseTime(entry, 0, 2).Equal(entry))
}

func TestNextClearing(t *testing.T) {
	// 2026-03-02 is a Monday.
	monday := at(9, 0, 0)
	ct := NextClearing(monday)
	assert.True(t, ct.Day.Equal(at(14, 1, 0)))
	assert.True(t, ct.Evening.Equal(at(18, 51, 0)))

	saturday := monday.AddDate(0, 0, 5)
	ct = NextClearing(saturday)
	assert.Equal(t, time.Monday, ct.Day.Weekday())
	assert.Equal(t, 14, ct.Day.Hour())

	sunday := monday.AddDate(0, 0, 6)
	ct = NextClearing(sunday)
	assert.Equal(t, time.Monday, ct.Evening.Weekday())
	assert.Equal(t, 18, ct.Evening.Hour())
}

func TestNextClearingAfterSkipsWeekend(t *testing.T) {
	// 2026-03-06 is a Friday; the next trading day is Monday.
	friday := at(9, 0, 0).AddDate(0, 0, 4)
	ct := NextClearingAfter(friday)
	assert.Equal(t, time.Monday, ct.Day.Weekday())
}

func TestScheduledStop(t *testing.T) {
	stop := at(23, 40, 0)
	assert.True(t, ScheduledStop(stop).Equal(at(23, 39, 55)))
}

func TestTimerSchedulerFiresOnce(t *testing.T) {
	s := NewTimerScheduler()
	defer s.Close()

	var fired atomic.Int32
	done := make(chan struct{})
	s.ScheduleOnce(time.Now().Add(5*time.Millisecond), func() {
		fired.Add(1)
		close(done)
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("callback did not fire")
	}
	assert.Equal(t, int32(1), fired.Load())
}

func TestTimerSchedulerCloseStopsPending(t *testing.T) {
	s := NewTimerScheduler()

	var fired atomic.Int32
	s.ScheduleOnce(time.Now().Add(time.Hour), func() { fired.Add(1) })
	s.Close()

	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
}
