// Package timetable owns the strategy's wall-clock arithmetic: bar-aligned
// time-exit instants, venue blackout snapping, and the clearing schedule.
package timetable

import "time"

// Blackout snap targets. The venue pauses trading for the intraday
// clearing at 14:00 and the evening settlement starting 18:45; a scheduled
// exit landing inside a pause is shifted to the nearest safe minute.
var blackoutSnaps = map[[2]int][2]int{
	{18, 45}: {18, 42},
	{18, 50}: {19, 5},
	{18, 55}: {19, 10},
	{14, 0}:  {14, 5},
}

// CloseTime computes when a trade opened at entry should be force-closed:
// the entry is truncated to its bar boundary, (bars+1) full bars are added,
// and the result is snapped out of any blackout window.
func CloseTime(entry time.Time, timeframe time.Duration, bars int) time.Time {
	frameMinutes := int(timeframe.Minutes())
	if frameMinutes <= 0 {
		return entry
	}

	at := entry.Truncate(time.Minute)
	at = at.Add(-time.Duration(at.Minute()%frameMinutes) * time.Minute)
	at = at.Add(time.Duration((bars+1)*frameMinutes) * time.Minute)

	if snap, ok := blackoutSnaps[[2]int{at.Hour(), at.Minute()}]; ok {
		at = time.Date(at.Year(), at.Month(), at.Day(), snap[0], snap[1], 0, 0, at.Location())
	}
	return at
}

// Clearing notification instants within a trading day.
const (
	dayClearingHour      = 14
	dayClearingMinute    = 1
	eveningClearingHour  = 18
	eveningClearingMinute = 51
)

// ClearingTimes are the next intraday and evening clearing instants.
type ClearingTimes struct {
	Day     time.Time
	Evening time.Time
}

// NextClearing returns the clearing instants for the trading day containing
// now, rolled past the weekend when now falls on Saturday or Sunday.
func NextClearing(now time.Time) ClearingTimes {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch day.Weekday() {
	case time.Saturday:
		day = day.AddDate(0, 0, 2)
	case time.Sunday:
		day = day.AddDate(0, 0, 1)
	}
	return ClearingTimes{
		Day:     day.Add(dayClearingHour*time.Hour + dayClearingMinute*time.Minute),
		Evening: day.Add(eveningClearingHour*time.Hour + eveningClearingMinute*time.Minute),
	}
}

// NextClearingAfter returns the clearing instants for the trading day after
// the one containing now, skipping the weekend.
func NextClearingAfter(now time.Time) ClearingTimes {
	return NextClearing(now.AddDate(0, 0, 1))
}

// StopLeadTime is how far before the configured stop instant the scheduled
// shutdown fires, leaving room to flatten before the venue closes entries.
const StopLeadTime = 5 * time.Second

// ScheduledStop returns when an intraday strategy shuts itself down.
func ScheduledStop(stopAt time.Time) time.Time {
	return stopAt.Add(-StopLeadTime)
}
