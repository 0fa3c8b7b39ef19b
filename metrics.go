package nn

import (
	"sync/atomic"
	"time"
)

// LatencyBuckets defines the latency histogram buckets in nanoseconds,
// covering 1us to 10s with logarithmic spacing.
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

// Metrics tracks performance and operational statistics for a node.
type Metrics struct {
	DatagramsSent  atomic.Uint64
	DatagramsRecv  atomic.Uint64
	RecordsSent    atomic.Uint64
	RecordsRecv    atomic.Uint64
	RecordsDropped atomic.Uint64 // one per ObserveDrop: malformed inbound datagrams and oversize local updates

	BytesSent atomic.Uint64
	BytesRecv atomic.Uint64

	SendErrors atomic.Uint64
	RecvErrors atomic.Uint64

	UUIDsTracked   atomic.Int64
	ObjectsTracked atomic.Int64

	totalApplyLatencyNs atomic.Uint64
	applyCount          atomic.Uint64
	latencyBuckets      [numLatencyBuckets]atomic.Uint64

	startTime atomic.Int64
}

// NewMetrics creates a new metrics instance.
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.startTime.Store(time.Now().UnixNano())
	return m
}

func (m *Metrics) recordApplyLatency(latencyNs int64) {
	if latencyNs < 0 {
		return
	}
	m.totalApplyLatencyNs.Add(uint64(latencyNs))
	m.applyCount.Add(1)
	for i, bucket := range LatencyBuckets {
		if uint64(latencyNs) <= bucket {
			m.latencyBuckets[i].Add(1)
		}
	}
}

// MetricsSnapshot is a point-in-time copy of Metrics suitable for
// inspection or reporting.
type MetricsSnapshot struct {
	DatagramsSent  uint64
	DatagramsRecv  uint64
	RecordsSent    uint64
	RecordsRecv    uint64
	RecordsDropped uint64
	BytesSent      uint64
	BytesRecv      uint64
	SendErrors     uint64
	RecvErrors     uint64
	UUIDsTracked   int64
	ObjectsTracked int64
	AvgApplyNs     uint64
	UptimeNs       uint64
}

// Snapshot returns a point-in-time snapshot of the metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		DatagramsSent:  m.DatagramsSent.Load(),
		DatagramsRecv:  m.DatagramsRecv.Load(),
		RecordsSent:    m.RecordsSent.Load(),
		RecordsRecv:    m.RecordsRecv.Load(),
		RecordsDropped: m.RecordsDropped.Load(),
		BytesSent:      m.BytesSent.Load(),
		BytesRecv:      m.BytesRecv.Load(),
		SendErrors:     m.SendErrors.Load(),
		RecvErrors:     m.RecvErrors.Load(),
		UUIDsTracked:   m.UUIDsTracked.Load(),
		ObjectsTracked: m.ObjectsTracked.Load(),
		UptimeNs:       uint64(time.Now().UnixNano() - m.startTime.Load()),
	}
	if count := m.applyCount.Load(); count > 0 {
		snap.AvgApplyNs = m.totalApplyLatencyNs.Load() / count
	}
	return snap
}

// Observer receives per-operation events for metrics collection. It
// satisfies internal/interfaces.Observer.
type Observer interface {
	ObserveSend(bytes int, records int, latencyNs int64, success bool)
	ObserveRecv(bytes int, records int, latencyNs int64, success bool)
	ObserveApply(latencyNs int64)
	ObserveDrop(reason string)
	ObserveDirectory(uuids int, objects int)
}

// NoOpObserver discards every event.
type NoOpObserver struct{}

func (NoOpObserver) ObserveSend(int, int, int64, bool) {}
func (NoOpObserver) ObserveRecv(int, int, int64, bool) {}
func (NoOpObserver) ObserveApply(int64)                {}
func (NoOpObserver) ObserveDrop(string)                {}
func (NoOpObserver) ObserveDirectory(int, int)         {}

// MetricsObserver implements Observer by recording into a Metrics
// instance.
type MetricsObserver struct {
	metrics *Metrics
}

// NewMetricsObserver returns an observer that records into m.
func NewMetricsObserver(m *Metrics) *MetricsObserver {
	return &MetricsObserver{metrics: m}
}

func (o *MetricsObserver) ObserveSend(bytes int, records int, latencyNs int64, success bool) {
	o.metrics.DatagramsSent.Add(1)
	o.metrics.RecordsSent.Add(uint64(records))
	if success {
		o.metrics.BytesSent.Add(uint64(bytes))
	} else {
		o.metrics.SendErrors.Add(1)
	}
}

func (o *MetricsObserver) ObserveRecv(bytes int, records int, latencyNs int64, success bool) {
	o.metrics.DatagramsRecv.Add(1)
	o.metrics.RecordsRecv.Add(uint64(records))
	if success {
		o.metrics.BytesRecv.Add(uint64(bytes))
	} else {
		o.metrics.RecvErrors.Add(1)
	}
}

func (o *MetricsObserver) ObserveApply(latencyNs int64) {
	o.metrics.recordApplyLatency(latencyNs)
}

func (o *MetricsObserver) ObserveDrop(reason string) {
	o.metrics.RecordsDropped.Add(1)
}

func (o *MetricsObserver) ObserveDirectory(uuids int, objects int) {
	o.metrics.UUIDsTracked.Store(int64(uuids))
	o.metrics.ObjectsTracked.Store(int64(objects))
}

var (
	_ Observer = (*MetricsObserver)(nil)
	_ Observer = (*NoOpObserver)(nil)
)
