package rapi

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kilianp07/chargewindow/core/logger"
	"github.com/kilianp07/chargewindow/core/model"
)

const (
	// CmdGetSchedule queries the delay timer.
	CmdGetSchedule = "$GD"
	// CmdSetSchedule programs the delay timer: "$ST h1 m1 h2 m2".
	CmdSetSchedule = "$ST"
	// ReplyOK prefixes successful replies.
	ReplyOK = "$OK"
)

// ErrRejected is returned when the charger answers a command with anything
// other than "$OK".
var ErrRejected = errors.New("command rejected by charger")

// Transport carries one framed command to the charger and returns the raw
// framed reply.
type Transport interface {
	Send(ctx context.Context, frame string) (string, error)
}

// SetResult describes the outcome of SetSchedule.
type SetResult struct {
	// Changed is false when the charger already held the schedule and no
	// write was issued.
	Changed  bool   `json:"changed"`
	Previous string `json:"previous"`
	Command  string `json:"command,omitempty"`
	Ack      string `json:"ack,omitempty"`
}

// Controller issues RAPI commands over a Transport.
type Controller struct {
	transport Transport
	log       logger.Logger
}

// NewController returns a Controller using t.
func NewController(t Transport, log logger.Logger) *Controller {
	if log == nil {
		log = logger.Nop{}
	}
	return &Controller{transport: t, log: log}
}

// Command frames cmd, sends it and returns the validated reply value.
func (c *Controller) Command(ctx context.Context, cmd string) (string, error) {
	frame := Frame(cmd)
	raw, err := c.transport.Send(ctx, frame)
	if err != nil {
		return "", err
	}
	value, err := Decode(raw)
	if err != nil {
		return "", fmt.Errorf("%s: %w", cmd, err)
	}
	c.log.Debugw("rapi exchange", map[string]any{"command": frame, "reply": raw})
	if !strings.HasPrefix(value, ReplyOK) {
		return "", fmt.Errorf("%s: %w: %s", cmd, ErrRejected, value)
	}
	return value, nil
}

// QuerySchedule returns the charger's current timer as "$OK h1 m1 h2 m2".
func (c *Controller) QuerySchedule(ctx context.Context) (string, error) {
	v, err := c.Command(ctx, CmdGetSchedule)
	if err != nil {
		return "", err
	}
	return canonical(v), nil
}

// SetSchedule programs w unless the charger already reports it.
func (c *Controller) SetSchedule(ctx context.Context, w model.Window) (SetResult, error) {
	if !w.Valid() {
		return SetResult{}, fmt.Errorf("refusing to program empty window %s - %s", w.Start, w.End)
	}
	current, err := c.QuerySchedule(ctx)
	if err != nil {
		return SetResult{}, fmt.Errorf("query schedule: %w", err)
	}
	sched := model.ScheduleFromWindow(w)
	res := SetResult{Previous: current}
	if current == ExpectedReport(sched) {
		c.log.Infof("charger already scheduled %s, skipping write", sched)
		return res, nil
	}

	res.Command = SetCommand(sched)
	ack, err := c.Command(ctx, res.Command)
	if err != nil {
		return SetResult{}, fmt.Errorf("set schedule: %w", err)
	}
	res.Changed = true
	res.Ack = ack
	c.log.Infof("charger schedule changed from %q to %q", current, sched)
	return res, nil
}

// canonical collapses whitespace so replies compare reliably.
func canonical(v string) string {
	return strings.Join(strings.Fields(v), " ")
}
