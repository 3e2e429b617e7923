package metrics

import (
	"context"
	"time"

	"github.com/kilianp07/chargewindow/core/model"
)

// PlanEvent describes a selected charging window.
type PlanEvent struct {
	RunID        string
	TargetDate   string
	Window       model.Window
	Raw          model.Window
	Minutes      int
	Cost         float64
	AveragePrice float64
	Time         time.Time
}

// MetricsSink records planning results for observability purposes.
type MetricsSink interface {
	RecordPlan(ev PlanEvent) error
}

// PriceEvent carries the hourly prices a plan was computed from.
type PriceEvent struct {
	RunID  string
	Points []model.RatePoint
	Time   time.Time
}

// PriceRecorder records the price horizon.
type PriceRecorder interface {
	RecordPrices(ev PriceEvent) error
}

// ChargerEvent describes one SetSchedule outcome.
type ChargerEvent struct {
	RunID    string
	Schedule string
	Changed  bool
	Time     time.Time
}

// ChargerRecorder records charger writes and skipped writes.
type ChargerRecorder interface {
	RecordChargerWrite(ev ChargerEvent) error
}

// RunEvent summarises a whole pipeline invocation.
type RunEvent struct {
	RunID    string
	Success  bool
	Applied  bool
	Duration time.Duration
	Time     time.Time
}

// RunRecorder records pipeline outcomes.
type RunRecorder interface {
	RecordRun(ev RunEvent) error
}

// Flusher is implemented by sinks that buffer or push their data, such as a
// Prometheus sink configured with a Pushgateway.
type Flusher interface {
	Flush(ctx context.Context) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordPlan(PlanEvent) error            { return nil }
func (NopSink) RecordPrices(PriceEvent) error         { return nil }
func (NopSink) RecordChargerWrite(ChargerEvent) error { return nil }
func (NopSink) RecordRun(RunEvent) error              { return nil }
func (NopSink) Flush(context.Context) error           { return nil }
