package hid

import (
	"context"
	"sync"
)

// MockDevice is an in-memory HID device for tests. Reports passed to Emit
// are delivered to PollReports consumers; output reports written by the
// code under test are recorded and retrievable with Written.
type MockDevice struct {
	reports chan Report

	mu      sync.Mutex
	written []Report
}

func NewMockDevice() *MockDevice {
	return &MockDevice{
		reports: make(chan Report),
	}
}

func (m *MockDevice) Close() error {
	return nil
}

func (m *MockDevice) WriteReport(_ context.Context, r Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.written = append(m.written, r)
	return nil
}

// Written returns a copy of all output reports written so far.
func (m *MockDevice) Written() []Report {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Report, len(m.written))
	copy(out, m.written)
	return out
}

func (m *MockDevice) PollReports(ctx context.Context) <-chan Report {
	go func() {
		<-ctx.Done()
		close(m.reports)
	}()

	return m.reports
}

// Emit delivers an input report to the PollReports channel. It blocks until
// the report is consumed.
func (m *MockDevice) Emit(r Report) {
	m.reports <- r
}
