// Package connectors defines the price feed contract consumed by the planner.
package connectors

import (
	"context"
	"time"

	"github.com/kilianp07/chargewindow/core/model"
)

// ErrIncompatibleOption is the format used when an option targets another client.
const ErrIncompatibleOption = "option %s is not compatible with %s"

// PriceFeed retrieves day-ahead hourly prices.
type PriceFeed interface {
	// FetchDay returns the hourly prices published for day.
	FetchDay(ctx context.Context, day time.Time) ([]model.RatePoint, error)
	// FetchNext returns the prices for the next day as soon as they are published.
	FetchNext(ctx context.Context) ([]model.RatePoint, error)
}

// Option configures a PriceFeed.
type Option func(PriceFeed) error
