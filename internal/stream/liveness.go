package stream

import (
	"context"
	"sync"
	"time"

	"github.com/felixgeelhaar/tasksync/internal/log"
)

// Monitor tracks stream liveness: whether the connection is not merely open
// but actively producing heartbeats or events. "Not live" is distinct from
// "not connected": the socket may still be established while the server
// has gone quiet.
type Monitor struct {
	mu       sync.Mutex
	lastSeen time.Time
	live     bool

	sample    time.Duration
	threshold time.Duration
	logger    *log.Logger
}

// NewMonitor creates a liveness monitor with the standard thresholds
func NewMonitor(logger *log.Logger) *Monitor {
	if logger == nil {
		logger = log.DefaultLogger()
	}
	return &Monitor{
		sample:    SampleInterval,
		threshold: SilenceThreshold,
		logger:    logger,
	}
}

// Touch records activity (an event or heartbeat) on the stream
func (m *Monitor) Touch() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastSeen = time.Now()
	m.live = true
}

// Live reports whether the stream has produced activity recently
func (m *Monitor) Live() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.live
}

// LastSeen returns the time of the most recent activity
func (m *Monitor) LastSeen() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastSeen
}

// Run samples liveness until the context is cancelled. Intended to be run
// in its own goroutine by the engine.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.sample)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.check(time.Now())
		}
	}
}

// check flips the live flag once silence exceeds the threshold
func (m *Monitor) check(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.live {
		return
	}
	if m.lastSeen.IsZero() || now.Sub(m.lastSeen) > m.threshold {
		m.live = false
		m.logger.Warn("stream no longer live", "last_seen", m.lastSeen)
	}
}
