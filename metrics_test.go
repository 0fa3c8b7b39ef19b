package nn

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetricsObserverCountsSendAndRecv(t *testing.T) {
	m := NewMetrics()
	o := NewMetricsObserver(m)

	o.ObserveSend(100, 3, 500, true)
	o.ObserveSend(0, 0, 0, false)
	o.ObserveRecv(200, 5, 700, true)
	o.ObserveDrop("malformed")

	snap := m.Snapshot()
	assert.Equal(t, uint64(2), snap.DatagramsSent)
	assert.Equal(t, uint64(3), snap.RecordsSent)
	assert.Equal(t, uint64(100), snap.BytesSent)
	assert.Equal(t, uint64(1), snap.SendErrors)
	assert.Equal(t, uint64(1), snap.DatagramsRecv)
	assert.Equal(t, uint64(200), snap.BytesRecv)
	assert.Equal(t, uint64(1), snap.RecordsDropped)
}

func TestMetricsObserverTracksApplyLatency(t *testing.T) {
	m := NewMetrics()
	o := NewMetricsObserver(m)

	o.ObserveApply(1000)
	o.ObserveApply(3000)

	snap := m.Snapshot()
	assert.Equal(t, uint64(2000), snap.AvgApplyNs)
}

func TestNoOpObserverDoesNothing(t *testing.T) {
	var o Observer = NoOpObserver{}
	assert.NotPanics(t, func() {
		o.ObserveSend(1, 1, 1, true)
		o.ObserveRecv(1, 1, 1, true)
		o.ObserveApply(1)
		o.ObserveDrop("x")
		o.ObserveDirectory(1, 1)
	})
}

func TestMetricsObserverTracksDirectoryGauges(t *testing.T) {
	m := NewMetrics()
	o := NewMetricsObserver(m)

	o.ObserveDirectory(3, 12)
	snap := m.Snapshot()
	assert.Equal(t, int64(3), snap.UUIDsTracked)
	assert.Equal(t, int64(12), snap.ObjectsTracked)

	// A later call reports the current size, not a running total.
	o.ObserveDirectory(2, 9)
	snap = m.Snapshot()
	assert.Equal(t, int64(2), snap.UUIDsTracked)
	assert.Equal(t, int64(9), snap.ObjectsTracked)
}
