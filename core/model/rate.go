package model

import "time"

// RatePoint is a price valid for one slot of a series. Hourly feed points use
// the hour-ending convention: Time marks the end of the priced hour.
type RatePoint struct {
	Time  time.Time `json:"time"`
	Price float64   `json:"price"`
}

// RateSeries is an ordered, gap-free sequence of RatePoints with uniform spacing.
type RateSeries []RatePoint

// Step returns the spacing between consecutive points, or zero when the
// series holds fewer than two points.
func (s RateSeries) Step() time.Duration {
	if len(s) < 2 {
		return 0
	}
	return s[1].Time.Sub(s[0].Time)
}

// Prices returns the price column of the series.
func (s RateSeries) Prices() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Price
	}
	return out
}
