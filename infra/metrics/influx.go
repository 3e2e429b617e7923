package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/chargewindow/core/metrics"
	"github.com/kilianp07/chargewindow/infra/logger"
)

// InfluxSink writes prices and plans to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordPlan writes the selected window.
func (s *InfluxSink) RecordPlan(ev coremetrics.PlanEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("charge_window").
		AddTag("run_id", ev.RunID).
		AddTag("target_date", ev.TargetDate).
		AddField("start", ev.Window.Start.Unix()).
		AddField("end", ev.Window.End.Unix()).
		AddField("minutes", ev.Minutes).
		AddField("cost", round3(ev.Cost)).
		AddField("average_price", round3(ev.AveragePrice)).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordPrices writes one point per hourly price, timestamped at the hour end.
func (s *InfluxSink) RecordPrices(ev coremetrics.PriceEvent) error {
	if len(ev.Points) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	points := make([]*write.Point, 0, len(ev.Points))
	for _, rp := range ev.Points {
		points = append(points, write.NewPointWithMeasurement("hourly_price").
			AddTag("source", "day_ahead").
			AddField("price", round3(rp.Price)).
			SetTime(rp.Time))
	}
	return s.writeAPI.WritePoint(ctx, points...)
}

// RecordChargerWrite writes the charger outcome.
func (s *InfluxSink) RecordChargerWrite(ev coremetrics.ChargerEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("charger_write").
		AddTag("run_id", ev.RunID).
		AddTag("changed", strconv.FormatBool(ev.Changed)).
		AddField("schedule", ev.Schedule).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the client.
func (s *InfluxSink) Close() { s.client.Close() }

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
