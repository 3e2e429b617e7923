package rates

import (
	"fmt"
	"strings"
	"time"

	"github.com/kilianp07/chargewindow/core/model"
)

// DefaultCutover is the time of day at which one planning horizon ends and
// the next begins.
const DefaultCutover = 18 * time.Hour

// Horizon stitches two daily feeds into one planning horizon running from the
// cutover on the previous day to the cutover on the next day.
type Horizon struct {
	Cutover time.Duration
}

// Assemble keeps the points of previous at or after the cutover followed by
// the points of next strictly before it.
func (h Horizon) Assemble(previous, next []model.RatePoint) []model.RatePoint {
	out := make([]model.RatePoint, 0, 24)
	for _, p := range previous {
		if TimeOfDay(p.Time) >= h.Cutover {
			out = append(out, p)
		}
	}
	for _, p := range next {
		if TimeOfDay(p.Time) < h.Cutover {
			out = append(out, p)
		}
	}
	return out
}

// TimeOfDay returns the offset of t from midnight in t's location.
func TimeOfDay(t time.Time) time.Duration {
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second
}

// ParseTimeOfDay parses "HH:MM" into an offset from midnight.
func ParseTimeOfDay(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q, expected HH:MM: %w", s, err)
	}
	return TimeOfDay(t), nil
}
