package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/chargewindow/core/history"
	coremetrics "github.com/kilianp07/chargewindow/core/metrics"
	"github.com/kilianp07/chargewindow/core/model"
	coremon "github.com/kilianp07/chargewindow/core/monitoring"
	"github.com/kilianp07/chargewindow/core/rapi"
	"github.com/kilianp07/chargewindow/core/rates"
	"github.com/kilianp07/chargewindow/core/window"
	"github.com/kilianp07/chargewindow/infra/mqtt"
)

// dayPoints returns 24 points for day with hours 0..23, priced 5 except for
// the hours listed in cheap.
func dayPoints(day time.Time, cheap ...int) []model.RatePoint {
	low := map[int]bool{}
	for _, h := range cheap {
		low[h] = true
	}
	out := make([]model.RatePoint, 24)
	for h := range out {
		price := 5.0
		if low[h] {
			price = 1
		}
		out[h] = model.RatePoint{Time: time.Date(day.Year(), day.Month(), day.Day(), h, 0, 0, 0, time.UTC), Price: price}
	}
	return out
}

type fakeFeed struct {
	days    map[string][]model.RatePoint
	next    []model.RatePoint
	err     error
	fetched []string
}

func (f *fakeFeed) FetchDay(_ context.Context, day time.Time) ([]model.RatePoint, error) {
	f.fetched = append(f.fetched, day.Format(time.DateOnly))
	if f.err != nil {
		return nil, f.err
	}
	return f.days[day.Format(time.DateOnly)], nil
}

func (f *fakeFeed) FetchNext(context.Context) ([]model.RatePoint, error) {
	f.fetched = append(f.fetched, "next")
	return f.next, nil
}

type fakeCharger struct {
	set []model.Window
}

func (c *fakeCharger) QuerySchedule(context.Context) (string, error) { return "$OK 0 0 0 0", nil }

func (c *fakeCharger) SetSchedule(_ context.Context, w model.Window) (rapi.SetResult, error) {
	c.set = append(c.set, w)
	return rapi.SetResult{Changed: true, Previous: "$OK 0 0 0 0", Command: "$ST 1 1 4 59", Ack: "$OK"}, nil
}

type memStore struct {
	mu   sync.Mutex
	recs []history.Record
}

func (m *memStore) Append(_ context.Context, r history.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs = append(m.recs, r)
	return nil
}

func (m *memStore) Query(context.Context, history.Query) ([]history.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]history.Record(nil), m.recs...), nil
}

func (m *memStore) Close() error { return nil }

type recordingSink struct {
	coremetrics.NopSink
	plans   []coremetrics.PlanEvent
	prices  int
	writes  []coremetrics.ChargerEvent
	runs    []coremetrics.RunEvent
	flushed int
}

func (r *recordingSink) RecordPlan(ev coremetrics.PlanEvent) error {
	r.plans = append(r.plans, ev)
	return nil
}
func (r *recordingSink) RecordPrices(ev coremetrics.PriceEvent) error {
	r.prices += len(ev.Points)
	return nil
}
func (r *recordingSink) RecordChargerWrite(ev coremetrics.ChargerEvent) error {
	r.writes = append(r.writes, ev)
	return nil
}
func (r *recordingSink) RecordRun(ev coremetrics.RunEvent) error {
	r.runs = append(r.runs, ev)
	return nil
}
func (r *recordingSink) Flush(context.Context) error {
	r.flushed++
	return nil
}

type fixture struct {
	feed    *fakeFeed
	charger *fakeCharger
	store   *memStore
	sink    *recordingSink
	pub     *mqtt.MockPublisher
	svc     *Service
}

func newFixture(t *testing.T, withCharger bool) *fixture {
	t.Helper()
	now := time.Date(2025, 7, 18, 17, 5, 0, 0, time.UTC)
	d18 := time.Date(2025, 7, 18, 0, 0, 0, 0, time.UTC)
	d19 := d18.AddDate(0, 0, 1)
	f := &fixture{
		feed: &fakeFeed{
			days: map[string][]model.RatePoint{
				"2025-07-17": dayPoints(d18.AddDate(0, 0, -1)),
				"2025-07-18": dayPoints(d18, 3),
				"2025-07-19": dayPoints(d19, 2, 3, 4, 5),
			},
			next: dayPoints(d19, 2, 3, 4, 5),
		},
		store: &memStore{},
		sink:  &recordingSink{},
		pub:   mqtt.NewMockPublisher(),
	}
	deps := Deps{
		Feed:      f.feed,
		History:   f.store,
		Metrics:   f.sink,
		Publisher: f.pub,
		Window:    window.Options{ChargeHours: 4, Padding: time.Minute},
		Horizon:   rates.Horizon{Cutover: rates.DefaultCutover},
		Location:  time.UTC,
		Now:       func() time.Time { return now },
	}
	if withCharger {
		f.charger = &fakeCharger{}
		deps.Charger = f.charger
	}
	f.svc = NewWithDeps(deps)
	return f
}

func TestPlanAppliesCurrentDay(t *testing.T) {
	f := newFixture(t, true)

	out, err := f.svc.Plan(context.Background(), Request{Apply: true})
	require.NoError(t, err)

	assert.Equal(t, []string{"2025-07-18", "next"}, f.feed.fetched)
	assert.Equal(t, "2025-07-19", out.TargetDate)
	assert.Len(t, out.Points, 24)
	assert.Len(t, out.Series, 24*60)
	assert.Equal(t, "1 1 4 59", out.Schedule.String())
	assert.Equal(t, 240, out.Plan.Minutes)
	assert.InDelta(t, 1.0, out.Plan.AveragePrice, 1e-9)
	assert.True(t, out.Applied)
	require.Len(t, f.charger.set, 1)
	assert.Equal(t, out.Plan.Window, f.charger.set[0])

	require.Len(t, f.store.recs, 1)
	rec := f.store.recs[0]
	assert.Equal(t, out.RunID, rec.ID)
	assert.Equal(t, "1 1 4 59", rec.Schedule)
	assert.True(t, rec.Applied)
	assert.True(t, rec.Changed)
	assert.Equal(t, "$OK 0 0 0 0", rec.Previous)
	assert.Empty(t, rec.Error)

	assert.Len(t, f.sink.plans, 1)
	assert.Equal(t, 24, f.sink.prices)
	require.Len(t, f.sink.writes, 1)
	assert.True(t, f.sink.writes[0].Changed)
	require.Len(t, f.sink.runs, 1)
	assert.True(t, f.sink.runs[0].Success)
	assert.Equal(t, 1, f.sink.flushed)

	msgs := f.pub.Published()
	require.Len(t, msgs, 1)
	assert.Equal(t, "1 1 4 59", msgs[0].Schedule)
	assert.True(t, msgs[0].Applied)
}

func TestPlanForDateNeverWrites(t *testing.T) {
	f := newFixture(t, true)

	out, err := f.svc.Plan(context.Background(), Request{Date: time.Date(2025, 7, 18, 0, 0, 0, 0, time.UTC), Apply: true})
	require.NoError(t, err)

	assert.Equal(t, []string{"2025-07-17", "2025-07-18"}, f.feed.fetched)
	assert.Equal(t, "2025-07-18", out.TargetDate)
	// the cheap hour ending 03:00 on the 18th covers 02:00-02:59; every
	// window holding it costs the same, so the earliest one starting 23:00 wins
	assert.Equal(t, time.Date(2025, 7, 17, 23, 1, 0, 0, time.UTC), out.Plan.Window.Start)
	assert.Equal(t, time.Date(2025, 7, 18, 2, 59, 0, 0, time.UTC), out.Plan.Window.End)
	assert.False(t, out.Applied)
	assert.Empty(t, f.charger.set)
	assert.Empty(t, f.sink.writes)
}

func TestPlanWithoutApply(t *testing.T) {
	f := newFixture(t, true)
	out, err := f.svc.Plan(context.Background(), Request{})
	require.NoError(t, err)
	assert.False(t, out.Applied)
	assert.Empty(t, f.charger.set)
}

func TestPlanApplyWithoutCharger(t *testing.T) {
	f := newFixture(t, false)
	_, err := f.svc.Plan(context.Background(), Request{Apply: true})
	assert.ErrorIs(t, err, ErrNoCharger)

	_, err = f.svc.Status(context.Background())
	assert.ErrorIs(t, err, ErrNoCharger)
}

type captureMonitor struct {
	coremon.NopMonitor
	errs []error
}

func (c *captureMonitor) CaptureException(err error, _ map[string]string) {
	c.errs = append(c.errs, err)
}

func TestPlanFeedErrorIsRecorded(t *testing.T) {
	mon := &captureMonitor{}
	coremon.Init(mon)
	defer coremon.Init(coremon.NopMonitor{})

	f := newFixture(t, true)
	f.feed.err = errors.New("feed down")

	_, err := f.svc.Plan(context.Background(), Request{Apply: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "feed down")

	require.Len(t, f.store.recs, 1)
	assert.Contains(t, f.store.recs[0].Error, "feed down")
	assert.Empty(t, f.store.recs[0].Schedule)
	assert.Empty(t, f.sink.plans)
	require.Len(t, f.sink.runs, 1)
	assert.False(t, f.sink.runs[0].Success)
	assert.Empty(t, f.pub.Published())
	assert.Len(t, mon.errs, 1)
}

func TestPlanIncompleteFeed(t *testing.T) {
	f := newFixture(t, true)
	f.feed.next = f.feed.next[:10]

	_, err := f.svc.Plan(context.Background(), Request{Apply: true})
	var fde *model.FeedDataError
	require.ErrorAs(t, err, &fde)
	assert.Empty(t, f.charger.set)
}

func TestStatusAndHistory(t *testing.T) {
	f := newFixture(t, true)
	got, err := f.svc.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "$OK 0 0 0 0", got)

	_, err = f.svc.Plan(context.Background(), Request{})
	require.NoError(t, err)
	recs, err := f.svc.History(context.Background(), history.Query{})
	require.NoError(t, err)
	assert.Len(t, recs, 1)
	assert.NoError(t, f.svc.Close())
}

func TestPlanAcrossDaylightSaving(t *testing.T) {
	chicago, err := time.LoadLocation("America/Chicago")
	require.NoError(t, err)

	cases := []struct {
		name string
		prev time.Time
		next time.Time
	}{
		{"fall back", time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 11, 2, 0, 0, 0, 0, time.UTC)},
		{"spring forward", time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC), time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			feed := &fakeFeed{
				days: map[string][]model.RatePoint{tc.prev.Format(time.DateOnly): dayPoints(tc.prev)},
				next: dayPoints(tc.next, 3),
			}
			charger := &fakeCharger{}
			now := time.Date(tc.prev.Year(), tc.prev.Month(), tc.prev.Day(), 17, 5, 0, 0, chicago)
			svc := NewWithDeps(Deps{
				Feed:     feed,
				Charger:  charger,
				Window:   window.Options{ChargeHours: 4, Padding: time.Minute},
				Horizon:  rates.Horizon{Cutover: rates.DefaultCutover},
				Location: chicago,
				Now:      func() time.Time { return now },
			})

			out, err := svc.Plan(context.Background(), Request{Apply: true})
			require.NoError(t, err)
			assert.Len(t, out.Series, 24*60)
			assert.Equal(t, "23 1 2 59", out.Schedule.String())
			require.Len(t, charger.set, 1)
			assert.Equal(t, 2, charger.set[0].End.Hour())
			assert.Equal(t, 59, charger.set[0].End.Minute())
			assert.Equal(t, chicago, out.Plan.Window.Start.Location())
			assert.Equal(t, time.Date(tc.prev.Year(), tc.prev.Month(), tc.prev.Day(), 23, 1, 0, 0, chicago), out.Plan.Window.Start)
		})
	}
}
