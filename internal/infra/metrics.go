package infra

import (
	"sync/atomic"
	"time"
)

// Metrics provides lightweight observability without external dependencies.
// Uses atomic operations for thread-safety.
type Metrics struct {
	// Counters
	eventsApplied atomic.Uint64
	eventsIgnored atomic.Uint64
	unknownEvents atomic.Uint64
	decodeErrors  atomic.Uint64
	reducerPanics atomic.Uint64
	notifications atomic.Uint64
	reconnects    atomic.Uint64
	requestsSent  atomic.Uint64
	journalErrors atomic.Uint64

	// Latency tracking
	latencySumNs atomic.Int64
	latencyCount atomic.Uint64

	// Gauges
	connected atomic.Int32
	stale     atomic.Int32 // 1 = mirror may be out of date
}

// GlobalMetrics is the singleton metrics instance.
var GlobalMetrics = &Metrics{}

// RecordEvent records one reduced event with its processing latency.
// changed is false when the reducer left the mirror untouched.
func (m *Metrics) RecordEvent(changed bool, latencyNs int64) {
	if changed {
		m.eventsApplied.Add(1)
	} else {
		m.eventsIgnored.Add(1)
	}
	m.latencySumNs.Add(latencyNs)
	m.latencyCount.Add(1)
}

func (m *Metrics) RecordUnknownEvent() { m.unknownEvents.Add(1) }
func (m *Metrics) RecordDecodeError()  { m.decodeErrors.Add(1) }
func (m *Metrics) RecordReducerPanic() { m.reducerPanics.Add(1) }
func (m *Metrics) RecordNotification() { m.notifications.Add(1) }
func (m *Metrics) RecordReconnect()    { m.reconnects.Add(1) }
func (m *Metrics) RecordRequestSent()  { m.requestsSent.Add(1) }
func (m *Metrics) RecordJournalError() { m.journalErrors.Add(1) }

// SetConnected sets the connection gauge.
func (m *Metrics) SetConnected(connected bool) {
	m.connected.Store(boolToInt32(connected))
}

// SetStale sets the stale mirror gauge.
func (m *Metrics) SetStale(stale bool) {
	m.stale.Store(boolToInt32(stale))
}

func boolToInt32(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	EventsApplied uint64
	EventsIgnored uint64
	UnknownEvents uint64
	DecodeErrors  uint64
	ReducerPanics uint64
	Notifications uint64
	Reconnects    uint64
	RequestsSent  uint64
	JournalErrors uint64
	AvgLatencyNs  int64
	Connected     bool
	Stale         bool
	Timestamp     time.Time
}

// Snapshot returns current metrics as a snapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	var avgLatency int64
	count := m.latencyCount.Load()
	if count > 0 {
		avgLatency = m.latencySumNs.Load() / int64(count)
	}

	return MetricsSnapshot{
		EventsApplied: m.eventsApplied.Load(),
		EventsIgnored: m.eventsIgnored.Load(),
		UnknownEvents: m.unknownEvents.Load(),
		DecodeErrors:  m.decodeErrors.Load(),
		ReducerPanics: m.reducerPanics.Load(),
		Notifications: m.notifications.Load(),
		Reconnects:    m.reconnects.Load(),
		RequestsSent:  m.requestsSent.Load(),
		JournalErrors: m.journalErrors.Load(),
		AvgLatencyNs:  avgLatency,
		Connected:     m.connected.Load() == 1,
		Stale:         m.stale.Load() == 1,
		Timestamp:     time.Now(),
	}
}

// Reset clears all metrics (for testing).
func (m *Metrics) Reset() {
	m.eventsApplied.Store(0)
	m.eventsIgnored.Store(0)
	m.unknownEvents.Store(0)
	m.decodeErrors.Store(0)
	m.reducerPanics.Store(0)
	m.notifications.Store(0)
	m.reconnects.Store(0)
	m.requestsSent.Store(0)
	m.journalErrors.Store(0)
	m.latencySumNs.Store(0)
	m.latencyCount.Store(0)
	m.connected.Store(0)
	m.stale.Store(0)
}
