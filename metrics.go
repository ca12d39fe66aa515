package assure

import "sync/atomic"

// MetricID identifies one of the engine's internal counters.
type MetricID uint16

const (
	// MetricOTPRequired is an exported constant used by the assurance engine.
	MetricOTPRequired MetricID = iota
	// MetricOTPSkippedTrustedDevice is an exported constant used by the assurance engine.
	MetricOTPSkippedTrustedDevice
	// MetricOTPConfirmed is an exported constant used by the assurance engine.
	MetricOTPConfirmed
	// MetricOTPFailed is an exported constant used by the assurance engine.
	MetricOTPFailed
	// MetricElevatedTrustedDevice is an exported constant used by the assurance engine.
	MetricElevatedTrustedDevice
	// MetricRememberIssued is an exported constant used by the assurance engine.
	MetricRememberIssued
	// MetricRememberInvalidated is an exported constant used by the assurance engine.
	MetricRememberInvalidated
	// MetricTrustBackendError is an exported constant used by the assurance engine.
	MetricTrustBackendError
	// MetricAuthorizationCreated is an exported constant used by the assurance engine.
	MetricAuthorizationCreated
	// MetricAuthorizationResumed is an exported constant used by the assurance engine.
	MetricAuthorizationResumed
	// MetricAuthorizationMissed counts resume attempts that fell back to
	// the default redirect (unknown, expired, or already-consumed ids).
	MetricAuthorizationMissed
	// MetricSessionCreated is an exported constant used by the assurance engine.
	MetricSessionCreated
	// MetricSessionEnded is an exported constant used by the assurance engine.
	MetricSessionEnded
	metricIDCount
)

const cacheLineSize = 64

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds the engine's lock-free counters.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]paddedCounter
}

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// NewMetrics constructs a Metrics set from cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

// Enabled reports whether counting is active.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// Inc increments the counter for id.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Snapshot copies every counter into a map.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{Counters: make(map[MetricID]uint64, metricIDCount)}
	if m == nil {
		return snap
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		snap.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}
	return snap
}
