package monitoring

import (
	"errors"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremon "github.com/kilianp07/chargewindow/core/monitoring"
)

func TestNewSentryMonitorWithoutDSN(t *testing.T) {
	m, err := NewSentryMonitor(Config{})
	require.NoError(t, err)
	assert.IsType(t, coremon.NopMonitor{}, m)
}

func TestNewSentryMonitorInvalidDSN(t *testing.T) {
	_, err := NewSentryMonitor(Config{DSN: "not a dsn"})
	assert.Error(t, err)
}

func TestSentryMonitorCapturesTags(t *testing.T) {
	events := make(chan *sentry.Event, 1)
	m, err := newSentryMonitor(Config{DSN: "https://public@example.com/1", Environment: "test"},
		func(ev *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			events <- ev
			return nil
		})
	require.NoError(t, err)

	m.CaptureException(errors.New("charger unreachable"), map[string]string{"module": "openevse"})
	m.CaptureException(nil, nil)
	m.Flush(time.Second)

	select {
	case ev := <-events:
		assert.Equal(t, "openevse", ev.Tags["module"])
		assert.Equal(t, "test", ev.Environment)
		require.NotEmpty(t, ev.Exception)
		assert.Equal(t, "charger unreachable", ev.Exception[0].Value)
	case <-time.After(2 * time.Second):
		t.Fatal("event not captured")
	}
}
