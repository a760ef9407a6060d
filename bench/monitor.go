package bench

import (
	"log"
)

// A MonitorTask samples a protocol monitor every cycle and forwards what it
// observes. Observations are numbered in the order they start, including the
// ones that are dropped, so the numbering stays aligned with the stimulus
// even when an observation is lost.
type MonitorTask struct {
	name    string
	monitor Monitor
	out     *Channel
	logger  *log.Logger

	seq     uint64
	dropped uint64
}

// Name returns the name of the task.
func (m *MonitorTask) Name() string {
	return m.name
}

// Observed returns the number of observations started.
func (m *MonitorTask) Observed() uint64 {
	return m.seq
}

// Dropped returns the number of partial observations given up.
func (m *MonitorTask) Dropped() uint64 {
	return m.dropped
}

// Reset restarts the numbering.
func (m *MonitorTask) Reset() {
	m.monitor.Reset()
	m.seq = 0
	m.dropped = 0
}

// Tick samples the monitor.
func (m *MonitorTask) Tick() {
	t, err := m.monitor.Sample()
	if err != nil {
		m.seq++
		m.dropped++
		m.logger.Printf("[MON] : observation %d dropped: %v", m.seq, err)

		return
	}

	if t == nil {
		return
	}

	m.seq++
	t.Seq = m.seq

	m.logger.Printf("[MON] : %s", t)

	m.out.Push(t)
}
