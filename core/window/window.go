// Package window selects the cheapest contiguous charging window from a
// per-minute price series.
package window

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/chargewindow/core/model"
	"github.com/kilianp07/chargewindow/core/rates"
)

const (
	// DefaultPadding is trimmed from both ends of the selected window to absorb
	// clock skew between the price feed and the charger.
	DefaultPadding = time.Minute
	// DefaultScale multiplies prices before summation.
	DefaultScale = 1000.0
)

// ErrInvalidDuration is returned for a non-positive charge duration.
var ErrInvalidDuration = errors.New("charge duration must be positive")

// Options controls window selection.
type Options struct {
	// ChargeHours is the requested charge time, rounded to whole minutes.
	ChargeHours float64
	// Padding is applied symmetrically after selection.
	Padding time.Duration
	// Scale multiplies every price before summation. Zero means DefaultScale.
	Scale float64
	// AwakeUntil, when set, is the earliest time of day the window may end.
	AwakeUntil *time.Duration
	// AllowPrice, when set, extends the window over neighbouring minutes priced
	// strictly below it.
	AllowPrice *float64
}

// Plan is the outcome of a window search.
type Plan struct {
	// Window is the padded, floor-adjusted window to program.
	Window model.Window `json:"window"`
	// Raw is the selected window before padding and the awake floor.
	Raw          model.Window `json:"raw"`
	StartIndex   int          `json:"start_index"`
	Minutes      int          `json:"minutes"`
	Cost         float64      `json:"cost"`
	AveragePrice float64      `json:"average_price"`
}

// ChargeMinutes rounds hours to the nearest whole minute.
func ChargeMinutes(hours float64) int {
	return int(math.Round(hours * 60))
}

// Find returns the cheapest window of the requested length in series. Among
// equally cheap windows the earliest one is selected.
func Find(series model.RateSeries, opts Options) (Plan, error) {
	minutes := ChargeMinutes(opts.ChargeHours)
	if minutes <= 0 {
		return Plan{}, fmt.Errorf("%w: %.3f hours", ErrInvalidDuration, opts.ChargeHours)
	}
	if minutes >= len(series) {
		return Plan{}, &model.InsufficientDataError{Requested: minutes, Available: len(series)}
	}
	if opts.Padding < 0 {
		return Plan{}, fmt.Errorf("padding must not be negative, got %s", opts.Padding)
	}

	first, err := cheapest(series, minutes, opts.Scale)
	if err != nil {
		return Plan{}, err
	}
	last := first + minutes
	if opts.AllowPrice != nil {
		first, last = extend(series, first, last, *opts.AllowPrice)
	}

	raw := model.Window{
		Start: series[first].Time,
		End:   series[first].Time.Add(time.Duration(last-first) * time.Minute),
	}
	w := model.Window{Start: raw.Start.Add(opts.Padding), End: raw.End.Add(-opts.Padding)}
	if !w.Valid() {
		return Plan{}, fmt.Errorf("padding %s inverts a %d minute window", opts.Padding, last-first)
	}
	if opts.AwakeUntil != nil && rates.TimeOfDay(raw.End) < *opts.AwakeUntil {
		w.End = onDate(raw.End, *opts.AwakeUntil)
	}

	prices := series[first:last].Prices()
	return Plan{
		Window:       w,
		Raw:          raw,
		StartIndex:   first,
		Minutes:      last - first,
		Cost:         floats.Sum(prices),
		AveragePrice: stat.Mean(prices, nil),
	}, nil
}

// cheapest scans every window start with a running sum. Prices are converted
// to exact rationals, so sums do not depend on addition order and the scale
// never reorders windows.
func cheapest(series model.RateSeries, minutes int, scale float64) (int, error) {
	if scale <= 0 {
		scale = DefaultScale
	}
	factor := new(big.Rat).SetFloat64(scale)
	if factor == nil {
		return 0, fmt.Errorf("invalid price scale %v", scale)
	}
	units := make([]*big.Rat, len(series))
	for i, p := range series {
		r := new(big.Rat).SetFloat64(p.Price)
		if r == nil {
			return 0, &model.FeedDataError{Reason: fmt.Sprintf("non-finite price %v", p.Price), Index: i}
		}
		units[i] = r.Mul(r, factor)
	}
	sum := new(big.Rat)
	for _, u := range units[:minutes] {
		sum.Add(sum, u)
	}
	best, bestSum := 0, new(big.Rat).Set(sum)
	for i := 1; i+minutes <= len(units); i++ {
		sum.Add(sum, units[i+minutes-1])
		sum.Sub(sum, units[i-1])
		// strict comparison keeps the earliest minimum
		if sum.Cmp(bestSum) < 0 {
			best = i
			bestSum.Set(sum)
		}
	}
	return best, nil
}

func extend(series model.RateSeries, first, last int, below float64) (int, int) {
	for first > 0 && series[first-1].Price < below {
		first--
	}
	for last < len(series) && series[last].Price < below {
		last++
	}
	return first, last
}

// onDate returns the time of day tod on ref's calendar date and location.
func onDate(ref time.Time, tod time.Duration) time.Time {
	h := int(tod / time.Hour)
	m := int((tod % time.Hour) / time.Minute)
	return time.Date(ref.Year(), ref.Month(), ref.Day(), h, m, 0, 0, ref.Location())
}
