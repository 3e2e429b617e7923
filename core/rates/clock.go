package rates

import (
	"time"

	"github.com/kilianp07/chargewindow/core/model"
)

// WallClock returns the calendar date and clock reading of t as a UTC time.
// Feed hours are wall-clock labels, and series arithmetic on them keeps a
// fixed 60 minutes per hour across daylight saving transitions.
func WallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// InZone attaches loc to the clock reading of t. A reading that does not exist
// in loc, such as 02:30 on a spring-forward day, is normalized by time.Date.
func InZone(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
}

// PointsInZone returns a copy of points with every timestamp moved into loc.
func PointsInZone(points []model.RatePoint, loc *time.Location) []model.RatePoint {
	out := make([]model.RatePoint, len(points))
	for i, p := range points {
		out[i] = model.RatePoint{Time: InZone(p.Time, loc), Price: p.Price}
	}
	return out
}

// WindowInZone moves both ends of w into loc.
func WindowInZone(w model.Window, loc *time.Location) model.Window {
	return model.Window{Start: InZone(w.Start, loc), End: InZone(w.End, loc)}
}
