// Package app wires the price feed, window search and charger controller into
// one planning run and fans the result out to history, metrics and MQTT.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/chargewindow/config"
	"github.com/kilianp07/chargewindow/connectors"
	"github.com/kilianp07/chargewindow/connectors/clients/comed"
	feedfactory "github.com/kilianp07/chargewindow/connectors/factory"
	"github.com/kilianp07/chargewindow/core/history"
	coremetrics "github.com/kilianp07/chargewindow/core/metrics"
	"github.com/kilianp07/chargewindow/core/model"
	coremon "github.com/kilianp07/chargewindow/core/monitoring"
	"github.com/kilianp07/chargewindow/core/rapi"
	"github.com/kilianp07/chargewindow/core/rates"
	"github.com/kilianp07/chargewindow/core/window"
	"github.com/kilianp07/chargewindow/infra/logger"
	_ "github.com/kilianp07/chargewindow/infra/metrics"
	"github.com/kilianp07/chargewindow/infra/mqtt"
	"github.com/kilianp07/chargewindow/infra/openevse"
)

// HorizonLength is the span of one planning horizon.
const HorizonLength = 24 * time.Hour

// ErrNoCharger is returned when a charger operation is requested without a
// configured charger URL.
var ErrNoCharger = errors.New("no charger configured")

// Charger is the subset of rapi.Controller used by the service.
type Charger interface {
	QuerySchedule(ctx context.Context) (string, error)
	SetSchedule(ctx context.Context, w model.Window) (rapi.SetResult, error)
}

// Deps holds the collaborators of a Service.
type Deps struct {
	Feed      connectors.PriceFeed
	Charger   Charger
	History   history.Store
	Metrics   coremetrics.MetricsSink
	Publisher mqtt.Publisher
	Window    window.Options
	Horizon   rates.Horizon
	Location  *time.Location
	Logger    logger.Logger
	Now       func() time.Time
}

// Service runs planning passes.
type Service struct {
	feed      connectors.PriceFeed
	charger   Charger
	history   history.Store
	metrics   coremetrics.MetricsSink
	publisher mqtt.Publisher
	opts      window.Options
	horizon   rates.Horizon
	loc       *time.Location
	log       logger.Logger
	now       func() time.Time
}

// Request selects the horizon to plan.
type Request struct {
	// Date, when non-zero, plans the horizon ending at the cutover on Date.
	// Such runs never touch the charger.
	Date time.Time
	// Apply programs the charger. Ignored when Date is set.
	Apply bool
}

// Outcome is the result of one planning run.
type Outcome struct {
	RunID      string            `json:"run_id"`
	TargetDate string            `json:"target_date"`
	Points     []model.RatePoint `json:"points"`
	Series     model.RateSeries  `json:"-"`
	Plan       window.Plan       `json:"plan"`
	Schedule   model.Schedule    `json:"schedule"`
	Applied    bool              `json:"applied"`
	Set        *rapi.SetResult   `json:"set,omitempty"`
	Duration   time.Duration     `json:"duration"`
}

// New builds a Service and its collaborators from cfg. One HTTP client is
// shared by the price feed and the charger transport.
func New(cfg *config.Config) (*Service, error) {
	log := logger.New("service")
	loc, err := cfg.Feed.Location()
	if err != nil {
		return nil, err
	}
	cutover, err := cfg.Feed.CutoverOffset()
	if err != nil {
		return nil, err
	}
	opts, err := cfg.Window.Options()
	if err != nil {
		return nil, err
	}
	timeout := max(cfg.Feed.TimeoutSeconds, cfg.Charger.TimeoutSeconds)
	client := &http.Client{Timeout: time.Duration(timeout) * time.Second}

	feedOpts := []connectors.Option{comed.WithHTTPClient(client)}
	if cfg.Feed.BaseURL != "" {
		feedOpts = append(feedOpts, comed.WithBaseURL(cfg.Feed.BaseURL))
	}
	feed, err := feedfactory.NewPriceFeed(cfg.Feed.Connector, feedOpts...)
	if err != nil {
		return nil, fmt.Errorf("price feed: %w", err)
	}

	var charger Charger
	if cfg.Charger.URL != "" {
		charger = rapi.NewController(openevse.NewHTTPTransport(client, cfg.Charger.URL), logger.New("rapi"))
	}

	store, err := history.Open(cfg.History)
	if err != nil {
		return nil, fmt.Errorf("history store: %w", err)
	}
	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	pub, err := mqtt.NewPublisher(cfg.MQTT)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("mqtt publisher: %w", err)
	}

	return NewWithDeps(Deps{
		Feed:      feed,
		Charger:   charger,
		History:   store,
		Metrics:   sink,
		Publisher: pub,
		Window:    opts,
		Horizon:   rates.Horizon{Cutover: cutover},
		Location:  loc,
		Logger:    log,
	}), nil
}

// NewWithDeps assembles a Service from explicit collaborators. Nil side
// channels are replaced by no-op implementations.
func NewWithDeps(d Deps) *Service {
	s := &Service{
		feed:      d.Feed,
		charger:   d.Charger,
		history:   d.History,
		metrics:   d.Metrics,
		publisher: d.Publisher,
		opts:      d.Window,
		horizon:   d.Horizon,
		loc:       d.Location,
		log:       d.Logger,
		now:       d.Now,
	}
	if s.history == nil {
		s.history = history.NopStore{}
	}
	if s.metrics == nil {
		s.metrics = coremetrics.NopSink{}
	}
	if s.publisher == nil {
		s.publisher = mqtt.NopPublisher{}
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.log == nil {
		s.log = logger.NopLogger{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Location returns the feed time zone.
func (s *Service) Location() *time.Location { return s.loc }

// Plan fetches prices, selects the cheapest window and, for current-day
// runs with Apply set, programs the charger.
func (s *Service) Plan(ctx context.Context, req Request) (*Outcome, error) {
	started := s.now()
	out := &Outcome{RunID: uuid.NewString()}
	err := s.plan(ctx, req, out)
	out.Duration = s.now().Sub(started)

	s.record(ctx, out, err)
	if err != nil {
		coremon.CaptureException(err, map[string]string{
			"module":      "planner",
			"target_date": out.TargetDate,
		})
		return out, err
	}
	return out, nil
}

func (s *Service) plan(ctx context.Context, req Request, out *Outcome) error {
	previous, next, err := s.fetch(ctx, req, out)
	if err != nil {
		return err
	}
	points := s.horizon.Assemble(previous, next)
	out.Points = rates.PointsInZone(points, s.loc)
	series, err := rates.Builder{Horizon: HorizonLength}.Expand(points)
	if err != nil {
		return fmt.Errorf("build rate series: %w", err)
	}
	out.Series = series

	plan, err := window.Find(series, s.opts)
	if err != nil {
		return fmt.Errorf("find window: %w", err)
	}
	// the charger is programmed from wall-clock hours; reports carry the feed zone
	wall := plan.Window
	out.Schedule = model.ScheduleFromWindow(wall)
	plan.Window = rates.WindowInZone(wall, s.loc)
	plan.Raw = rates.WindowInZone(plan.Raw, s.loc)
	out.Plan = plan
	s.log.Infof("time window %s to %s (%d minutes, avg %.3f)",
		wall.Start.Format(time.DateTime), wall.End.Format(time.DateTime), plan.Minutes, plan.AveragePrice)

	if !req.Date.IsZero() || !req.Apply {
		return nil
	}
	if s.charger == nil {
		return ErrNoCharger
	}
	res, err := s.charger.SetSchedule(ctx, wall)
	if err != nil {
		return fmt.Errorf("apply schedule: %w", err)
	}
	out.Applied = true
	out.Set = &res
	return nil
}

// fetch returns the two daily feeds around the cutover. Without a date it
// uses today and the next published day, otherwise the day before Date and
// Date itself.
func (s *Service) fetch(ctx context.Context, req Request, out *Outcome) ([]model.RatePoint, []model.RatePoint, error) {
	if req.Date.IsZero() {
		today := s.now().In(s.loc)
		out.TargetDate = today.AddDate(0, 0, 1).Format(time.DateOnly)
		previous, err := s.feed.FetchDay(ctx, today)
		if err != nil {
			return nil, nil, fmt.Errorf("fetch %s: %w", today.Format(time.DateOnly), err)
		}
		next, err := s.feed.FetchNext(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("fetch next day: %w", err)
		}
		return previous, next, nil
	}
	day := time.Date(req.Date.Year(), req.Date.Month(), req.Date.Day(), 0, 0, 0, 0, s.loc)
	out.TargetDate = day.Format(time.DateOnly)
	before := day.AddDate(0, 0, -1)
	previous, err := s.feed.FetchDay(ctx, before)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch %s: %w", before.Format(time.DateOnly), err)
	}
	next, err := s.feed.FetchDay(ctx, day)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch %s: %w", out.TargetDate, err)
	}
	return previous, next, nil
}

// record fans the outcome out to the side channels. Their failures are
// logged and never fail the run.
func (s *Service) record(ctx context.Context, out *Outcome, runErr error) {
	now := s.now()
	rec := history.Record{
		ID:           out.RunID,
		Timestamp:    now,
		TargetDate:   out.TargetDate,
		Window:       out.Plan.Window,
		Raw:          out.Plan.Raw,
		Minutes:      out.Plan.Minutes,
		Cost:         out.Plan.Cost,
		AveragePrice: out.Plan.AveragePrice,
		Applied:      out.Applied,
	}
	if out.Plan.Window.Valid() {
		rec.Schedule = out.Schedule.String()
	}
	if out.Set != nil {
		rec.Changed = out.Set.Changed
		rec.Previous = out.Set.Previous
		rec.Ack = out.Set.Ack
	}
	if runErr != nil {
		rec.Error = runErr.Error()
	}
	if err := s.history.Append(ctx, rec); err != nil {
		s.log.Errorf("history append: %v", err)
	}

	if len(out.Points) > 0 {
		if pr, ok := s.metrics.(coremetrics.PriceRecorder); ok {
			if err := pr.RecordPrices(coremetrics.PriceEvent{RunID: out.RunID, Points: out.Points, Time: now}); err != nil {
				s.log.Warnf("record prices: %v", err)
			}
		}
	}
	if runErr == nil {
		if err := s.metrics.RecordPlan(coremetrics.PlanEvent{
			RunID:        out.RunID,
			TargetDate:   out.TargetDate,
			Window:       out.Plan.Window,
			Raw:          out.Plan.Raw,
			Minutes:      out.Plan.Minutes,
			Cost:         out.Plan.Cost,
			AveragePrice: out.Plan.AveragePrice,
			Time:         now,
		}); err != nil {
			s.log.Warnf("record plan: %v", err)
		}
	}
	if out.Set != nil {
		if cr, ok := s.metrics.(coremetrics.ChargerRecorder); ok {
			if err := cr.RecordChargerWrite(coremetrics.ChargerEvent{
				RunID: out.RunID, Schedule: rec.Schedule, Changed: out.Set.Changed, Time: now,
			}); err != nil {
				s.log.Warnf("record charger write: %v", err)
			}
		}
	}
	if rr, ok := s.metrics.(coremetrics.RunRecorder); ok {
		if err := rr.RecordRun(coremetrics.RunEvent{
			RunID: out.RunID, Success: runErr == nil, Applied: out.Applied, Duration: out.Duration, Time: now,
		}); err != nil {
			s.log.Warnf("record run: %v", err)
		}
	}
	if f, ok := s.metrics.(coremetrics.Flusher); ok {
		if err := f.Flush(ctx); err != nil {
			s.log.Warnf("flush metrics: %v", err)
		}
	}

	if runErr == nil {
		msg := mqtt.ScheduleMessage{
			RunID:        out.RunID,
			TargetDate:   out.TargetDate,
			Start:        out.Plan.Window.Start,
			End:          out.Plan.Window.End,
			Schedule:     rec.Schedule,
			Minutes:      out.Plan.Minutes,
			AveragePrice: out.Plan.AveragePrice,
			Applied:      out.Applied,
			Changed:      rec.Changed,
			Timestamp:    now.UnixMilli(),
		}
		if err := s.publisher.PublishSchedule(msg); err != nil {
			s.log.Warnf("publish schedule: %v", err)
		}
	}
}

// Status returns the schedule currently held by the charger.
func (s *Service) Status(ctx context.Context) (string, error) {
	if s.charger == nil {
		return "", ErrNoCharger
	}
	return s.charger.QuerySchedule(ctx)
}

// History returns stored runs matching q.
func (s *Service) History(ctx context.Context, q history.Query) ([]history.Record, error) {
	return s.history.Query(ctx, q)
}

// Close releases the history store and the MQTT connection.
func (s *Service) Close() error {
	s.publisher.Disconnect()
	if c, ok := s.metrics.(interface{ Close() }); ok {
		c.Close()
	}
	return s.history.Close()
}
