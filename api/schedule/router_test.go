package schedule

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/chargewindow/app"
	"github.com/kilianp07/chargewindow/core/history"
	"github.com/kilianp07/chargewindow/core/model"
	"github.com/kilianp07/chargewindow/core/window"
)

func init() { gin.SetMode(gin.TestMode) }

type fakeBackend struct {
	reqs    []app.Request
	query   history.Query
	planErr error
	status  string
	statErr error
}

func (f *fakeBackend) Plan(_ context.Context, req app.Request) (*app.Outcome, error) {
	f.reqs = append(f.reqs, req)
	if f.planErr != nil {
		return nil, f.planErr
	}
	start := time.Date(2025, 7, 19, 1, 1, 0, 0, time.UTC)
	return &app.Outcome{
		RunID:      "run-1",
		TargetDate: "2025-07-19",
		Plan:       window.Plan{Window: model.Window{Start: start, End: start.Add(238 * time.Minute)}, Minutes: 240},
		Schedule:   model.Schedule{StartHour: 1, StartMinute: 1, EndHour: 4, EndMinute: 59},
		Applied:    req.Apply && req.Date.IsZero(),
	}, nil
}

func (f *fakeBackend) Status(context.Context) (string, error) { return f.status, f.statErr }

func (f *fakeBackend) History(_ context.Context, q history.Query) ([]history.Record, error) {
	f.query = q
	return []history.Record{{ID: "run-1", Schedule: "1 1 4 59"}}, nil
}

func (f *fakeBackend) Location() *time.Location { return time.UTC }

type fakeDaemon struct {
	out *app.Outcome
	err error
}

func (d fakeDaemon) Last() (*app.Outcome, error) { return d.out, d.err }

func serve(t *testing.T, h http.Handler, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealthAndMetricsAreOpen(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { fmt.Fprint(w, "chargewindow_runs_total 1") })
	h := NewRouter(&fakeBackend{}, Options{Token: "tok", MetricsHandler: metrics})

	rr := serve(t, h, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())

	rr = serve(t, h, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "chargewindow_runs_total")
}

func TestBearerAuth(t *testing.T) {
	h := NewRouter(&fakeBackend{}, Options{Token: "tok"})

	rr := serve(t, h, http.MethodGet, "/api/v1/history", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	var er ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &er))
	assert.Equal(t, "UNAUTHORIZED", er.Error.Code)

	rr = serve(t, h, http.MethodGet, "/api/v1/history", "", map[string]string{"Authorization": "Bearer tok"})
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestListHistoryFilters(t *testing.T) {
	b := &fakeBackend{}
	h := NewRouter(b, Options{})

	rr := serve(t, h, http.MethodGet, "/api/v1/history?start=2025-07-01T00:00:00Z&applied=true&limit=5", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), b.query.Start)
	assert.True(t, b.query.AppliedOnly)
	assert.Equal(t, 5, b.query.Limit)

	var body struct {
		Records []history.Record `json:"records"`
		Count   int              `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
	assert.Equal(t, "1 1 4 59", body.Records[0].Schedule)

	rr = serve(t, h, http.MethodGet, "/api/v1/history?limit=x", "", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	rr = serve(t, h, http.MethodGet, "/api/v1/history?end=yesterday", "", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRunPlan(t *testing.T) {
	b := &fakeBackend{}
	h := NewRouter(b, Options{})

	rr := serve(t, h, http.MethodPost, "/api/v1/plan", `{"apply":true}`, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var out app.Outcome
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	assert.True(t, out.Applied)
	assert.Equal(t, 1, out.Schedule.StartHour)

	rr = serve(t, h, http.MethodPost, "/api/v1/plan", `{"date":"2025-07-18","apply":true}`, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, b.reqs, 2)
	assert.Equal(t, time.Date(2025, 7, 18, 0, 0, 0, 0, time.UTC), b.reqs[1].Date)

	rr = serve(t, h, http.MethodPost, "/api/v1/plan", `{"date":"18/07/2025"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = serve(t, h, http.MethodPost, "/api/v1/plan", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.False(t, b.reqs[2].Apply)
}

func TestRunPlanErrors(t *testing.T) {
	cases := []struct {
		err  error
		code int
		name string
	}{
		{app.ErrNoCharger, http.StatusConflict, "NO_CHARGER"},
		{fmt.Errorf("build: %w", &model.FeedDataError{Reason: "gap", Index: 3}), http.StatusBadGateway, "FEED_DATA"},
		{&model.TransportError{Op: "send", Err: fmt.Errorf("refused")}, http.StatusBadGateway, "CHARGER"},
		{fmt.Errorf("other"), http.StatusInternalServerError, "PLAN_ERROR"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewRouter(&fakeBackend{planErr: tc.err}, Options{})
			rr := serve(t, h, http.MethodPost, "/api/v1/plan", `{}`, nil)
			assert.Equal(t, tc.code, rr.Code)
			var er ErrorResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &er))
			assert.Equal(t, tc.name, er.Error.Code)
		})
	}
}

func TestChargerSchedule(t *testing.T) {
	h := NewRouter(&fakeBackend{status: "$OK 1 1 4 59"}, Options{})
	rr := serve(t, h, http.MethodGet, "/api/v1/charger/schedule", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"schedule":"$OK 1 1 4 59"}`, rr.Body.String())

	h = NewRouter(&fakeBackend{statErr: app.ErrNoCharger}, Options{})
	rr = serve(t, h, http.MethodGet, "/api/v1/charger/schedule", "", nil)
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestLastPlan(t *testing.T) {
	h := NewRouter(&fakeBackend{}, Options{})
	assert.Equal(t, http.StatusNotFound, serve(t, h, http.MethodGet, "/api/v1/plan/last", "", nil).Code)

	h = NewRouter(&fakeBackend{}, Options{Daemon: fakeDaemon{}})
	assert.Equal(t, http.StatusNotFound, serve(t, h, http.MethodGet, "/api/v1/plan/last", "", nil).Code)

	h = NewRouter(&fakeBackend{}, Options{Daemon: fakeDaemon{out: &app.Outcome{RunID: "r"}, err: fmt.Errorf("charger down")}})
	rr := serve(t, h, http.MethodGet, "/api/v1/plan/last", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"error":"charger down"`)
}

func TestCORS(t *testing.T) {
	h := NewRouter(&fakeBackend{}, Options{AllowedOrigins: []string{"http://dash.local"}})
	rr := serve(t, h, http.MethodGet, "/health", "", map[string]string{"Origin": "http://dash.local"})
	assert.Equal(t, "http://dash.local", rr.Header().Get("Access-Control-Allow-Origin"))

	rr = serve(t, h, http.MethodGet, "/health", "", map[string]string{"Origin": "http://evil.local"})
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestUnknownRoute(t *testing.T) {
	h := NewRouter(&fakeBackend{}, Options{})
	rr := serve(t, h, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
