package mqtt

import (
	"fmt"
	"sync"
)

// Publisher announces planned schedules.
type Publisher interface {
	PublishSchedule(msg ScheduleMessage) error
	Disconnect()
}

// NopPublisher drops every message.
type NopPublisher struct{}

func (NopPublisher) PublishSchedule(ScheduleMessage) error { return nil }
func (NopPublisher) Disconnect()                           {}

// NewPublisher connects to the broker when one is configured and returns a
// NopPublisher otherwise.
func NewPublisher(cfg Config) (Publisher, error) {
	if !cfg.Enabled() {
		return NopPublisher{}, nil
	}
	return NewPahoClient(cfg)
}

// MockPublisher is a simple publisher used in tests.
type MockPublisher struct {
	Messages []ScheduleMessage
	Fail     bool
	mu       sync.Mutex
}

// NewMockPublisher creates a new MockPublisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

// PublishSchedule records the message or returns an error if configured to fail.
func (m *MockPublisher) PublishSchedule(msg ScheduleMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail {
		return fmt.Errorf("publish failed")
	}
	m.Messages = append(m.Messages, msg)
	return nil
}

func (m *MockPublisher) Disconnect() {}

// Published returns a copy of the recorded messages.
func (m *MockPublisher) Published() []ScheduleMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ScheduleMessage(nil), m.Messages...)
}
