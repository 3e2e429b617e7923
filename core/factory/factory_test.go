package factory

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sinkStub struct {
	URL      string
	Interval time.Duration
	Retries  int
}

type sinkConf struct {
	URL      string        `json:"url"`
	Interval time.Duration `json:"interval"`
	Retries  int           `json:"retries"`
}

func stubRegistry(t *testing.T) *Registry[*sinkStub] {
	t.Helper()
	reg := NewRegistry[*sinkStub]()
	require.NoError(t, reg.Register("stub", func(conf map[string]any) (*sinkStub, error) {
		var c sinkConf
		if err := Decode(conf, &c); err != nil {
			return nil, err
		}
		return &sinkStub{URL: c.URL, Interval: c.Interval, Retries: c.Retries}, nil
	}))
	return reg
}

func TestRegistryCreate(t *testing.T) {
	reg := stubRegistry(t)
	s, err := reg.Create(ModuleConfig{Type: "stub", Conf: map[string]any{"url": "http://gw:9091", "interval": "30s"}})
	require.NoError(t, err)
	assert.Equal(t, "http://gw:9091", s.URL)
	assert.Equal(t, 30*time.Second, s.Interval)

	// env overrides deliver strings for numeric fields
	s, err = reg.Create(ModuleConfig{Type: "stub", Conf: map[string]any{"retries": "3"}})
	require.NoError(t, err)
	assert.Equal(t, 3, s.Retries)

	s, err = reg.Create(ModuleConfig{Type: "stub"})
	require.NoError(t, err)
	assert.Empty(t, s.URL)
}

func TestRegistryRejectsUnknownSettings(t *testing.T) {
	reg := stubRegistry(t)
	_, err := reg.Create(ModuleConfig{Type: "stub", Conf: map[string]any{"pushgateway": "http://gw"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "build stub module")
	assert.Contains(t, err.Error(), "pushgateway")
}

func TestRegistryErrors(t *testing.T) {
	reg := stubRegistry(t)
	assert.Error(t, reg.Register("nil", nil))
	assert.Error(t, reg.Register("stub", func(map[string]any) (*sinkStub, error) { return nil, nil }))

	boom := errors.New("dial failed")
	require.NoError(t, reg.Register("broken", func(map[string]any) (*sinkStub, error) { return nil, boom }))
	_, err := reg.Create(ModuleConfig{Type: "broken"})
	assert.ErrorIs(t, err, boom)

	_, err = reg.Create(ModuleConfig{Type: "statsd"})
	var unknown *UnknownModuleError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "statsd", unknown.Type)
	assert.Equal(t, []string{"broken", "stub"}, unknown.Known)
	assert.Equal(t, []string{"broken", "stub"}, reg.Names())
}
