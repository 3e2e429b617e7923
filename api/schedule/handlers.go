package schedule

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kilianp07/chargewindow/app"
	"github.com/kilianp07/chargewindow/core/history"
	"github.com/kilianp07/chargewindow/core/model"
	"github.com/kilianp07/chargewindow/core/rapi"
)

type handler struct {
	backend Backend
	daemon  LastRun
}

// PlanRequest is the body of POST /api/v1/plan.
type PlanRequest struct {
	// Date is an optional YYYY-MM-DD day to plan; it never programs the charger.
	Date  string `json:"date"`
	Apply bool   `json:"apply"`
}

// listHistory handles GET /api/v1/history
func (h *handler) listHistory(c *gin.Context) {
	var q history.Query
	for key, dst := range map[string]*time.Time{"start": &q.Start, "end": &q.End} {
		if s := c.Query(key); s != "" {
			t, err := time.Parse(time.RFC3339, s)
			if err != nil {
				abortError(c, http.StatusBadRequest, "INVALID_PARAM", key+" must be RFC3339")
				return
			}
			*dst = t
		}
	}
	q.AppliedOnly = c.Query("applied") == "true"
	q.FailedOnly = c.Query("failed") == "true"
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			abortError(c, http.StatusBadRequest, "INVALID_PARAM", "limit must be a non-negative integer")
			return
		}
		q.Limit = n
	}
	recs, err := h.backend.History(c.Request.Context(), q)
	if err != nil {
		abortError(c, http.StatusInternalServerError, "HISTORY_ERROR", err.Error())
		return
	}
	if recs == nil {
		recs = []history.Record{}
	}
	c.JSON(http.StatusOK, gin.H{"records": recs, "count": len(recs)})
}

// runPlan handles POST /api/v1/plan
func (h *handler) runPlan(c *gin.Context) {
	var body PlanRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			abortError(c, http.StatusBadRequest, "INVALID_BODY", err.Error())
			return
		}
	}
	req := app.Request{Apply: body.Apply}
	if body.Date != "" {
		d, err := time.ParseInLocation(time.DateOnly, body.Date, h.backend.Location())
		if err != nil {
			abortError(c, http.StatusBadRequest, "INVALID_DATE", "date must be YYYY-MM-DD")
			return
		}
		req.Date = d
	}
	out, err := h.backend.Plan(c.Request.Context(), req)
	if err != nil {
		status, code := classify(err)
		abortError(c, status, code, err.Error())
		return
	}
	c.JSON(http.StatusOK, out)
}

// lastPlan handles GET /api/v1/plan/last
func (h *handler) lastPlan(c *gin.Context) {
	if h.daemon == nil {
		abortError(c, http.StatusNotFound, "NO_DAEMON", "no scheduled runs in this process")
		return
	}
	out, err := h.daemon.Last()
	if out == nil && err == nil {
		abortError(c, http.StatusNotFound, "NO_RUN", "no run yet")
		return
	}
	resp := gin.H{"outcome": out}
	if err != nil {
		resp["error"] = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

// chargerSchedule handles GET /api/v1/charger/schedule
func (h *handler) chargerSchedule(c *gin.Context) {
	sched, err := h.backend.Status(c.Request.Context())
	if err != nil {
		status, code := classify(err)
		abortError(c, status, code, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"schedule": sched})
}

func classify(err error) (int, string) {
	var (
		fde *model.FeedDataError
		ide *model.InsufficientDataError
		cme *model.ChecksumMismatchError
		te  *model.TransportError
	)
	switch {
	case errors.Is(err, app.ErrNoCharger):
		return http.StatusConflict, "NO_CHARGER"
	case errors.As(err, &fde), errors.As(err, &ide):
		return http.StatusBadGateway, "FEED_DATA"
	case errors.As(err, &cme), errors.As(err, &te), errors.Is(err, rapi.ErrRejected):
		return http.StatusBadGateway, "CHARGER"
	default:
		return http.StatusInternalServerError, "PLAN_ERROR"
	}
}
