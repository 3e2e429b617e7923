package rates

import (
	"fmt"
	"time"

	"github.com/kilianp07/chargewindow/core/model"
)

// MinutesPerHour is the number of per-minute points emitted for each hourly point.
const MinutesPerHour = 60

// Builder expands hourly rate points into a per-minute series.
type Builder struct {
	// Horizon is the span the hourly input must cover exactly. Zero disables
	// the coverage check.
	Horizon time.Duration
}

// Expand builds a per-minute series without checking horizon coverage.
func Expand(points []model.RatePoint) (model.RateSeries, error) {
	return Builder{}.Expand(points)
}

// Expand validates the hourly input and emits 60 points per hour. For a point
// ending at T the minutes T-60m ... T-1m all carry its price.
func (b Builder) Expand(points []model.RatePoint) (model.RateSeries, error) {
	if err := b.validate(points); err != nil {
		return nil, err
	}
	out := make(model.RateSeries, 0, len(points)*MinutesPerHour)
	for _, p := range points {
		hourStart := p.Time.Add(-time.Hour)
		for m := 0; m < MinutesPerHour; m++ {
			out = append(out, model.RatePoint{
				Time:  hourStart.Add(time.Duration(m) * time.Minute),
				Price: p.Price,
			})
		}
	}
	return out, nil
}

func (b Builder) validate(points []model.RatePoint) error {
	if len(points) == 0 {
		return &model.FeedDataError{Reason: "no rate points", Index: -1}
	}
	for i := 1; i < len(points); i++ {
		gap := points[i].Time.Sub(points[i-1].Time)
		if gap != time.Hour {
			return &model.FeedDataError{
				Reason: fmt.Sprintf("expected hourly spacing, got %s between %s and %s",
					gap, points[i-1].Time.Format(time.RFC3339), points[i].Time.Format(time.RFC3339)),
				Index: i,
			}
		}
	}
	if b.Horizon > 0 {
		covered := time.Duration(len(points)) * time.Hour
		if covered != b.Horizon {
			return &model.FeedDataError{
				Reason: fmt.Sprintf("series covers %s, horizon is %s", covered, b.Horizon),
				Index:  -1,
			}
		}
	}
	return nil
}
