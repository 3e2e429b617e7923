// Package schedule exposes planning runs, run history and the charger state
// over HTTP.
package schedule

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/kilianp07/chargewindow/app"
	"github.com/kilianp07/chargewindow/core/history"
	"github.com/kilianp07/chargewindow/infra/logger"
)

// Backend is the planning service behind the API.
type Backend interface {
	Plan(ctx context.Context, req app.Request) (*app.Outcome, error)
	Status(ctx context.Context) (string, error)
	History(ctx context.Context, q history.Query) ([]history.Record, error)
	Location() *time.Location
}

// LastRun reports the daemon's most recent pass.
type LastRun interface {
	Last() (*app.Outcome, error)
}

// Options configures the router.
type Options struct {
	// Token, when set, is required as "Authorization: Bearer <token>" on /api routes.
	Token          string
	AllowedOrigins []string
	// Daemon, when set, enables GET /api/v1/plan/last.
	Daemon LastRun
	// MetricsHandler overrides the Prometheus handler served on /metrics.
	MetricsHandler http.Handler
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes a failed request.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewRouter builds the HTTP handler.
func NewRouter(b Backend, opts Options) http.Handler {
	router := gin.New()
	router.Use(requestLogger(logger.New("api")), recovery())

	h := &handler{backend: b, daemon: opts.Daemon}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	metrics := opts.MetricsHandler
	if metrics == nil {
		metrics = promhttp.Handler()
	}
	router.GET("/metrics", gin.WrapH(metrics))

	api := router.Group("/api/v1", bearerAuth(opts.Token))
	{
		api.GET("/history", h.listHistory)
		api.POST("/plan", h.runPlan)
		api.GET("/plan/last", h.lastPlan)
		api.GET("/charger/schedule", h.chargerSchedule)
	}

	router.NoRoute(func(c *gin.Context) {
		abortError(c, http.StatusNotFound, "NOT_FOUND", "no route for "+c.Request.URL.Path)
	})

	if len(opts.AllowedOrigins) == 0 {
		return router
	}
	return cors.New(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}).Handler(router)
}

// NewServer wraps the router in an http.Server listening on addr.
func NewServer(addr string, b Backend, opts Options) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           NewRouter(b, opts),
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func abortError(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: ErrorDetail{Code: code, Message: msg}})
}
