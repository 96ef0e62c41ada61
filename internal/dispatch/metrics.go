package dispatch

import "sync"

// ChannelCounts is the sent/failed tally for one sequence (or "" for
// sends outside any sequence).
type ChannelCounts struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// Metrics tracks delivery outcomes per sequence. Safe for concurrent use.
type Metrics struct {
	mu     sync.Mutex
	counts map[string]*ChannelCounts
}

func NewMetrics() *Metrics {
	return &Metrics{counts: make(map[string]*ChannelCounts)}
}

func (m *Metrics) Record(sequenceID string, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, exists := m.counts[sequenceID]
	if !exists {
		c = &ChannelCounts{}
		m.counts[sequenceID] = c
	}
	if ok {
		c.Sent++
	} else {
		c.Failed++
	}
}

// Sequence returns the counts for one sequence.
func (m *Metrics) Sequence(sequenceID string) ChannelCounts {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.counts[sequenceID]; ok {
		return *c
	}
	return ChannelCounts{}
}

// Snapshot copies all counters for reporting.
func (m *Metrics) Snapshot() map[string]ChannelCounts {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]ChannelCounts, len(m.counts))
	for k, v := range m.counts {
		out[k] = *v
	}
	return out
}
