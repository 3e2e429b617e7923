package metrics

import (
	"context"
	"errors"
)

// MultiSink fans events out to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordPlan forwards the plan to all sinks, returning the first error encountered.
func (m *MultiSink) RecordPlan(ev PlanEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordPlan(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordPrices forwards prices to sinks that support them.
func (m *MultiSink) RecordPrices(ev PriceEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(PriceRecorder); ok {
			if err := rec.RecordPrices(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordChargerWrite forwards charger outcomes.
func (m *MultiSink) RecordChargerWrite(ev ChargerEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(ChargerRecorder); ok {
			if err := rec.RecordChargerWrite(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordRun forwards run summaries.
func (m *MultiSink) RecordRun(ev RunEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(RunRecorder); ok {
			if err := rec.RecordRun(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// Flush flushes every sink and joins their errors.
func (m *MultiSink) Flush(ctx context.Context) error {
	var errs []error
	for _, s := range m.Sinks {
		if f, ok := s.(Flusher); ok {
			if err := f.Flush(ctx); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
