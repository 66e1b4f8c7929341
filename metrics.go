package shmchan

import (
	"sync/atomic"
	"time"
)

// LatencyBuckets defines the latency histogram buckets in nanoseconds,
// covering from 1us to 10s with logarithmic spacing.
var LatencyBuckets = []uint64{
	1_000,          // 1us
	10_000,         // 10us
	100_000,        // 100us
	1_000_000,      // 1ms
	10_000_000,     // 10ms
	100_000_000,    // 100ms
	1_000_000_000,  // 1s
	10_000_000_000, // 10s
}

const numLatencyBuckets = 8

// Metrics tracks performance and operational statistics for one Channel.
type Metrics struct {
	// Operation counters
	PushOps atomic.Uint64
	PopOps  atomic.Uint64

	// Byte counters
	PushBytes atomic.Uint64
	PopBytes  atomic.Uint64

	// Error counters
	PushErrors atomic.Uint64
	PopErrors  atomic.Uint64

	// How many pushes/pops actually blocked waiting on the peer, as
	// opposed to succeeding on the first TryPush/TryPop.
	PushBlocked atomic.Uint64
	PopBlocked  atomic.Uint64

	// Performance tracking
	TotalLatencyNs atomic.Uint64
	OpCount        atomic.Uint64

	// Latency histogram buckets (cumulative counts); bucket[i] holds the
	// count of operations with latency <= LatencyBuckets[i].
	LatencyBuckets [numLatencyBuckets]atomic.Uint64

	// Channel lifecycle
	StartTime atomic.Int64
	StopTime  atomic.Int64
}

// NewMetrics creates a new, running metrics instance.
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.StartTime.Store(time.Now().UnixNano())
	return m
}

// RecordPush records a push operation.
func (m *Metrics) RecordPush(bytes uint64, latencyNs uint64, blocked bool, success bool) {
	m.PushOps.Add(1)
	if success {
		m.PushBytes.Add(bytes)
	} else {
		m.PushErrors.Add(1)
	}
	if blocked {
		m.PushBlocked.Add(1)
	}
	m.recordLatency(latencyNs)
}

// RecordPop records a pop operation.
func (m *Metrics) RecordPop(bytes uint64, latencyNs uint64, blocked bool, success bool) {
	m.PopOps.Add(1)
	if success {
		m.PopBytes.Add(bytes)
	} else {
		m.PopErrors.Add(1)
	}
	if blocked {
		m.PopBlocked.Add(1)
	}
	m.recordLatency(latencyNs)
}

func (m *Metrics) recordLatency(latencyNs uint64) {
	m.TotalLatencyNs.Add(latencyNs)
	m.OpCount.Add(1)
	for i, bucket := range LatencyBuckets {
		if latencyNs <= bucket {
			m.LatencyBuckets[i].Add(1)
		}
	}
}

// Stop marks the channel as stopped for uptime accounting.
func (m *Metrics) Stop() {
	m.StopTime.Store(time.Now().UnixNano())
}

// MetricsSnapshot is a point-in-time, non-atomic copy of Metrics for
// reporting.
type MetricsSnapshot struct {
	PushOps, PopOps               uint64
	PushBytes, PopBytes           uint64
	PushErrors, PopErrors         uint64
	PushBlocked, PopBlocked       uint64
	AvgLatencyNs                  uint64
	UptimeNs                      uint64
	LatencyP50Ns, LatencyP99Ns    uint64
	LatencyP999Ns                 uint64
	LatencyHistogram              [numLatencyBuckets]uint64
	PushIOPS, PopIOPS             float64
	PushBandwidth, PopBandwidth   float64
	TotalOps, TotalBytes          uint64
	ErrorRate                     float64
}

// Snapshot creates a point-in-time snapshot of metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		PushOps:     m.PushOps.Load(),
		PopOps:      m.PopOps.Load(),
		PushBytes:   m.PushBytes.Load(),
		PopBytes:    m.PopBytes.Load(),
		PushErrors:  m.PushErrors.Load(),
		PopErrors:   m.PopErrors.Load(),
		PushBlocked: m.PushBlocked.Load(),
		PopBlocked:  m.PopBlocked.Load(),
	}

	snap.TotalOps = snap.PushOps + snap.PopOps
	snap.TotalBytes = snap.PushBytes + snap.PopBytes

	totalLatencyNs := m.TotalLatencyNs.Load()
	opCount := m.OpCount.Load()
	if opCount > 0 {
		snap.AvgLatencyNs = totalLatencyNs / opCount
	}

	startTime := m.StartTime.Load()
	stopTime := m.StopTime.Load()
	if stopTime > 0 {
		snap.UptimeNs = uint64(stopTime - startTime)
	} else {
		snap.UptimeNs = uint64(time.Now().UnixNano() - startTime)
	}

	if snap.UptimeNs > 0 {
		uptimeSeconds := float64(snap.UptimeNs) / 1e9
		snap.PushIOPS = float64(snap.PushOps) / uptimeSeconds
		snap.PopIOPS = float64(snap.PopOps) / uptimeSeconds
		snap.PushBandwidth = float64(snap.PushBytes) / uptimeSeconds
		snap.PopBandwidth = float64(snap.PopBytes) / uptimeSeconds
	}

	totalErrors := snap.PushErrors + snap.PopErrors
	if snap.TotalOps > 0 {
		snap.ErrorRate = float64(totalErrors) / float64(snap.TotalOps) * 100.0
	}

	for i := 0; i < numLatencyBuckets; i++ {
		snap.LatencyHistogram[i] = m.LatencyBuckets[i].Load()
	}

	if opCount > 0 {
		snap.LatencyP50Ns = m.calculatePercentile(0.50)
		snap.LatencyP99Ns = m.calculatePercentile(0.99)
		snap.LatencyP999Ns = m.calculatePercentile(0.999)
	}

	return snap
}

// calculatePercentile estimates the latency at the given percentile
// (0.0-1.0) using linear interpolation between histogram buckets.
func (m *Metrics) calculatePercentile(percentile float64) uint64 {
	totalOps := m.OpCount.Load()
	if totalOps == 0 {
		return 0
	}

	targetCount := uint64(float64(totalOps) * percentile)

	prevBucket := uint64(0)
	for i, bucket := range LatencyBuckets {
		bucketCount := m.LatencyBuckets[i].Load()
		if bucketCount >= targetCount {
			prevCount := uint64(0)
			if i > 0 {
				prevCount = m.LatencyBuckets[i-1].Load()
			}
			if bucketCount == prevCount {
				return bucket
			}
			fraction := float64(targetCount-prevCount) / float64(bucketCount-prevCount)
			return prevBucket + uint64(fraction*float64(bucket-prevBucket))
		}
		prevBucket = bucket
	}

	return LatencyBuckets[numLatencyBuckets-1]
}

// Reset zeroes all counters, for use between test cases.
func (m *Metrics) Reset() {
	m.PushOps.Store(0)
	m.PopOps.Store(0)
	m.PushBytes.Store(0)
	m.PopBytes.Store(0)
	m.PushErrors.Store(0)
	m.PopErrors.Store(0)
	m.PushBlocked.Store(0)
	m.PopBlocked.Store(0)
	m.TotalLatencyNs.Store(0)
	m.OpCount.Store(0)
	for i := 0; i < numLatencyBuckets; i++ {
		m.LatencyBuckets[i].Store(0)
	}
	m.StartTime.Store(time.Now().UnixNano())
	m.StopTime.Store(0)
}

// Observer allows pluggable metrics collection for a Channel's push/pop
// operations.
type Observer interface {
	ObservePush(bytes uint64, latencyNs uint64, blocked bool, success bool)
	ObservePop(bytes uint64, latencyNs uint64, blocked bool, success bool)
}

// NoOpObserver discards every observation.
type NoOpObserver struct{}

func (NoOpObserver) ObservePush(uint64, uint64, bool, bool) {}
func (NoOpObserver) ObservePop(uint64, uint64, bool, bool)  {}

// MetricsObserver implements Observer by recording into a Metrics.
type MetricsObserver struct {
	metrics *Metrics
}

// NewMetricsObserver creates an observer that records into m.
func NewMetricsObserver(m *Metrics) *MetricsObserver {
	return &MetricsObserver{metrics: m}
}

func (o *MetricsObserver) ObservePush(bytes uint64, latencyNs uint64, blocked bool, success bool) {
	o.metrics.RecordPush(bytes, latencyNs, blocked, success)
}

func (o *MetricsObserver) ObservePop(bytes uint64, latencyNs uint64, blocked bool, success bool) {
	o.metrics.RecordPop(bytes, latencyNs, blocked, success)
}

var _ Observer = (*MetricsObserver)(nil)
var _ Observer = (*NoOpObserver)(nil)
