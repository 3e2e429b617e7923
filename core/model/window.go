package model

import (
	"fmt"
	"time"
)

// Window is a charging period. End is exclusive.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Valid reports whether the window has a positive length.
func (w Window) Valid() bool { return w.End.After(w.Start) }

// Duration returns End - Start.
func (w Window) Duration() time.Duration { return w.End.Sub(w.Start) }

// Schedule is the wall-clock form of a Window as understood by the charger.
type Schedule struct {
	StartHour   int `json:"start_hour"`
	StartMinute int `json:"start_minute"`
	EndHour     int `json:"end_hour"`
	EndMinute   int `json:"end_minute"`
}

// ScheduleFromWindow converts w to hours and minutes in the window's own location.
func ScheduleFromWindow(w Window) Schedule {
	return Schedule{
		StartHour:   w.Start.Hour(),
		StartMinute: w.Start.Minute(),
		EndHour:     w.End.Hour(),
		EndMinute:   w.End.Minute(),
	}
}

// String renders the schedule as "h1 m1 h2 m2" with plain decimals.
func (s Schedule) String() string {
	return fmt.Sprintf("%d %d %d %d", s.StartHour, s.StartMinute, s.EndHour, s.EndMinute)
}
