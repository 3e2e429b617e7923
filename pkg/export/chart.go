package export

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// ChartHTML renders the hourly prices as a line chart with the selected
// window drawn as a second series.
func ChartHTML(r Report) (string, error) {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Charge window " + r.TargetDate, Subtitle: r.Schedule}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Hour ending"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Price (¢/kWh)"}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
	)

	xAxis := make([]string, 0, len(r.Points))
	prices := make([]opts.LineData, 0, len(r.Points))
	selected := make([]opts.LineData, 0, len(r.Points))
	for _, p := range r.Points {
		xAxis = append(xAxis, p.Time.Format("2006-01-02 15:04"))
		prices = append(prices, opts.LineData{Value: p.Price})
		if r.inWindow(p) {
			selected = append(selected, opts.LineData{Value: p.Price})
		} else {
			selected = append(selected, opts.LineData{Value: "-"})
		}
	}
	line.SetXAxis(xAxis).
		AddSeries("Price", prices).
		AddSeries("Window", selected)

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		return "", fmt.Errorf("failed to render chart: %w", err)
	}
	return buf.String(), nil
}

// WriteChart writes the chart HTML to w.
func WriteChart(w io.Writer, r Report) error {
	html, err := ChartHTML(r)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, html)
	return err
}
