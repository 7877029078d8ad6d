package mock

import (
	"sync"
	"time"
)

// MockClock is a Clock for the runner that only moves when Advance is
// called.
type MockClock struct {
	mu      sync.RWMutex
	current time.Time
}

// NewMockClock starts the clock at t, or at the current time if t is zero.
func NewMockClock(t time.Time) *MockClock {
	if t.IsZero() {
		t = time.Now()
	}
	return &MockClock{current: t}
}

func (m *MockClock) Now() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

func (m *MockClock) Since(start time.Time) time.Duration {
	return m.Now().Sub(start)
}

// Advance moves the clock forward by d.
func (m *MockClock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = m.current.Add(d)
}
