// Package export writes a planning result to JSON, YAML, CSV or an HTML
// price chart.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/chargewindow/core/model"
	"github.com/kilianp07/chargewindow/core/window"
)

// Report is the exported view of one planning run.
type Report struct {
	RunID      string            `json:"run_id" yaml:"run_id"`
	TargetDate string            `json:"target_date" yaml:"target_date"`
	Schedule   string            `json:"schedule" yaml:"schedule"`
	Start      time.Time         `json:"start" yaml:"start"`
	End        time.Time         `json:"end" yaml:"end"`
	Minutes    int               `json:"minutes" yaml:"minutes"`
	Cost       float64           `json:"cost" yaml:"cost"`
	Average    float64           `json:"average_price" yaml:"average_price"`
	Applied    bool              `json:"applied" yaml:"applied"`
	Points     []model.RatePoint `json:"points" yaml:"-"`
	raw        model.Window
}

// NewReport builds a Report from a plan and the hourly points it came from.
func NewReport(runID, targetDate string, plan window.Plan, points []model.RatePoint, applied bool) Report {
	return Report{
		RunID:      runID,
		TargetDate: targetDate,
		Schedule:   model.ScheduleFromWindow(plan.Window).String(),
		Start:      plan.Window.Start,
		End:        plan.Window.End,
		Minutes:    plan.Minutes,
		Cost:       plan.Cost,
		Average:    plan.AveragePrice,
		Applied:    applied,
		Points:     points,
		raw:        plan.Raw,
	}
}

// inWindow reports whether the hour ending at p.Time overlaps the selected window.
func (r Report) inWindow(p model.RatePoint) bool {
	if !r.raw.Valid() {
		return false
	}
	hourStart := p.Time.Add(-time.Hour)
	return hourStart.Before(r.raw.End) && p.Time.After(r.raw.Start)
}

// WriteJSON writes the report to w in JSON format.
func WriteJSON(w io.Writer, r Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteYAML writes the report summary to w in YAML format.
func WriteYAML(w io.Writer, r Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return err
	}
	return enc.Close()
}

// WriteCSV writes one row per hourly price, flagging hours inside the window.
func WriteCSV(w io.Writer, r Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"hour_ending", "price", "in_window"}); err != nil {
		return err
	}
	for _, p := range r.Points {
		rec := []string{
			p.Time.Format(time.RFC3339),
			strconv.FormatFloat(p.Price, 'f', -1, 64),
			strconv.FormatBool(r.inWindow(p)),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes the report to path, choosing the format from the extension.
func WriteFile(path string, r Report) error {
	var write func(io.Writer, Report) error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		write = WriteJSON
	case ".yaml", ".yml":
		write = WriteYAML
	case ".csv":
		write = WriteCSV
	case ".html", ".htm":
		write = WriteChart
	default:
		return fmt.Errorf("unsupported export format: %s", path)
	}
	return writeTo(path, r, write)
}

// WriteChartFile renders the HTML chart to path whatever its extension.
func WriteChartFile(path string, r Report) error {
	return writeTo(path, r, WriteChart)
}

// writeTo creates path and reports a failed Close, which is where buffered
// data reaches the disk.
func writeTo(path string, r Report, write func(io.Writer, Report) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f, r); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
