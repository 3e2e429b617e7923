package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	coremon "github.com/kilianp07/chargewindow/core/monitoring"
	"github.com/kilianp07/chargewindow/infra/logger"
)

// Planner runs one planning pass.
type Planner interface {
	Plan(ctx context.Context, req Request) (*Outcome, error)
}

// Daemon re-runs the whole pipeline on a cron schedule. A run that is still in
// progress when the next one is due causes the latter to be skipped.
type Daemon struct {
	planner    Planner
	spec       string
	loc        *time.Location
	runOnStart bool
	apply      bool
	log        logger.Logger

	mu   sync.RWMutex
	last *Outcome
	err  error
}

// NewDaemon returns a daemon firing planner on spec, a five-field cron
// expression evaluated in loc.
func NewDaemon(planner Planner, spec string, loc *time.Location, runOnStart, apply bool) *Daemon {
	if loc == nil {
		loc = time.Local
	}
	return &Daemon{
		planner:    planner,
		spec:       spec,
		loc:        loc,
		runOnStart: runOnStart,
		apply:      apply,
		log:        logger.New("daemon"),
	}
}

// Run blocks until ctx is cancelled, then waits for a running pass to finish.
func (d *Daemon) Run(ctx context.Context) error {
	c := cron.New(
		cron.WithLocation(d.loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	if _, err := c.AddFunc(d.spec, func() { d.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("schedule %q: %w", d.spec, err)
	}
	if d.runOnStart {
		d.RunOnce(ctx)
	}
	c.Start()
	d.log.Infof("daemon scheduled with %q in %s", d.spec, d.loc)
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

// RunOnce executes a single planning pass and remembers its outcome.
func (d *Daemon) RunOnce(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("planning run panicked: %v", r)
			d.log.Errorf("%v", err)
			coremon.CaptureException(err, map[string]string{"module": "daemon"})
		}
	}()
	out, err := d.planner.Plan(ctx, Request{Apply: d.apply})
	if err != nil {
		d.log.Errorf("planning run failed: %v", err)
	}
	d.mu.Lock()
	d.last, d.err = out, err
	d.mu.Unlock()
}

// Last returns the outcome and error of the most recent pass.
func (d *Daemon) Last() (*Outcome, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.last, d.err
}
