// Package history persists one record per planning run so past schedules and
// failures can be inspected later.
package history

import (
	"context"
	"time"

	"github.com/kilianp07/chargewindow/core/model"
)

// Record captures one planning run and what was sent to the charger.
type Record struct {
	ID           string       `json:"id"`
	Timestamp    time.Time    `json:"timestamp"`
	TargetDate   string       `json:"target_date"`
	Window       model.Window `json:"window"`
	Raw          model.Window `json:"raw"`
	Schedule     string       `json:"schedule"`
	Minutes      int          `json:"minutes"`
	Cost         float64      `json:"cost"`
	AveragePrice float64      `json:"average_price"`
	Applied      bool         `json:"applied"`
	Changed      bool         `json:"changed"`
	Previous     string       `json:"previous,omitempty"`
	Ack          string       `json:"ack,omitempty"`
	Error        string       `json:"error,omitempty"`
}

// Query defines filters for retrieving records.
type Query struct {
	Start       time.Time
	End         time.Time
	AppliedOnly bool
	FailedOnly  bool
	// Limit keeps only the most recent records when positive.
	Limit int
}

func (q Query) match(r Record) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.AppliedOnly && !r.Applied {
		return false
	}
	if q.FailedOnly && r.Error == "" {
		return false
	}
	return true
}

func (q Query) trim(res []Record) []Record {
	if q.Limit > 0 && len(res) > q.Limit {
		return res[len(res)-q.Limit:]
	}
	return res
}

// Store persists Records and supports querying.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

// NopStore drops every record.
type NopStore struct{}

func (NopStore) Append(context.Context, Record) error          { return nil }
func (NopStore) Query(context.Context, Query) ([]Record, error) { return nil, nil }
func (NopStore) Close() error                                   { return nil }
