package metrics

import (
	"context"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	coremetrics "github.com/kilianp07/chargewindow/core/metrics"
)

// PromSink exposes the latest plan and run counters as Prometheus metrics.
type PromSink struct {
	windowStart  prometheus.Gauge
	windowEnd    prometheus.Gauge
	minutes      prometheus.Gauge
	cost         prometheus.Gauge
	averagePrice prometheus.Gauge
	writes       *prometheus.CounterVec
	runs         *prometheus.CounterVec
	runDuration  prometheus.Histogram

	gatherer prometheus.Gatherer
	pushURL  string
	pushJob  string
}

// PromConfig configures the Prometheus sink.
type PromConfig struct {
	// PushgatewayURL, when set, makes Flush push all metrics to a Pushgateway.
	PushgatewayURL string `json:"pushgateway_url"`
	// Job is the Pushgateway job label.
	Job string `json:"job"`
}

// NewPromSink registers metrics on the default Prometheus registerer.
func NewPromSink(cfg PromConfig) (*PromSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(cfg PromConfig, reg prometheus.Registerer, gatherer prometheus.Gatherer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	if cfg.Job == "" {
		cfg.Job = "chargewindow"
	}
	s := &PromSink{gatherer: gatherer, pushURL: cfg.PushgatewayURL, pushJob: cfg.Job}
	var err error
	if s.windowStart, err = registerGauge(reg, "chargewindow_window_start_timestamp_seconds", "Start of the selected charging window"); err != nil {
		return nil, err
	}
	if s.windowEnd, err = registerGauge(reg, "chargewindow_window_end_timestamp_seconds", "End of the selected charging window"); err != nil {
		return nil, err
	}
	if s.minutes, err = registerGauge(reg, "chargewindow_window_minutes", "Length of the selected window before padding"); err != nil {
		return nil, err
	}
	if s.cost, err = registerGauge(reg, "chargewindow_window_cost", "Summed per-minute price of the selected window"); err != nil {
		return nil, err
	}
	if s.averagePrice, err = registerGauge(reg, "chargewindow_window_average_price", "Average price over the selected window"); err != nil {
		return nil, err
	}

	writes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chargewindow_charger_writes_total",
		Help: "Schedule writes issued to the charger, by whether the schedule changed",
	}, []string{"changed"})
	if err := reg.Register(writes); err != nil {
		are, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return nil, err
		}
		writes = are.ExistingCollector.(*prometheus.CounterVec)
	}
	s.writes = writes

	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chargewindow_runs_total",
		Help: "Planning runs by outcome",
	}, []string{"success", "applied"})
	if err := reg.Register(runs); err != nil {
		are, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return nil, err
		}
		runs = are.ExistingCollector.(*prometheus.CounterVec)
	}
	s.runs = runs

	dur := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "chargewindow_run_duration_seconds",
		Help:    "Wall time of a planning run",
		Buckets: prometheus.DefBuckets,
	})
	if err := reg.Register(dur); err != nil {
		are, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return nil, err
		}
		dur = are.ExistingCollector.(prometheus.Histogram)
	}
	s.runDuration = dur
	return s, nil
}

func registerGauge(reg prometheus.Registerer, name, help string) (prometheus.Gauge, error) {
	g := prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: help})
	if err := reg.Register(g); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(prometheus.Gauge), nil
		}
		return nil, err
	}
	return g, nil
}

// RecordPlan sets the window gauges.
func (s *PromSink) RecordPlan(ev coremetrics.PlanEvent) error {
	s.windowStart.Set(float64(ev.Window.Start.Unix()))
	s.windowEnd.Set(float64(ev.Window.End.Unix()))
	s.minutes.Set(float64(ev.Minutes))
	s.cost.Set(ev.Cost)
	s.averagePrice.Set(ev.AveragePrice)
	return nil
}

// RecordChargerWrite counts charger writes.
func (s *PromSink) RecordChargerWrite(ev coremetrics.ChargerEvent) error {
	s.writes.WithLabelValues(strconv.FormatBool(ev.Changed)).Inc()
	return nil
}

// RecordRun counts runs and observes their duration.
func (s *PromSink) RecordRun(ev coremetrics.RunEvent) error {
	s.runs.WithLabelValues(strconv.FormatBool(ev.Success), strconv.FormatBool(ev.Applied)).Inc()
	s.runDuration.Observe(ev.Duration.Seconds())
	return nil
}

// Flush pushes gathered metrics when a Pushgateway is configured.
func (s *PromSink) Flush(ctx context.Context) error {
	if s.pushURL == "" {
		return nil
	}
	return push.New(s.pushURL, s.pushJob).Gatherer(s.gatherer).PushContext(ctx)
}
