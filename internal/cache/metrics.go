package cache

import "time"

// Metrics tracks cache performance counters. All mutation happens under
// the owning store's lock, so plain ints are safe here.
type Metrics struct {
	hits      int64
	misses    int64
	evictions int64
	startTime time.Time
}

func newMetrics() *Metrics {
	return &Metrics{startTime: time.Now()}
}

func (m *Metrics) recordHit()      { m.hits++ }
func (m *Metrics) recordMiss()     { m.misses++ }
func (m *Metrics) recordEviction() { m.evictions++ }

// Stats is a point-in-time snapshot of cache state and counters.
type Stats struct {
	Hits          int64   `json:"hits"`
	Misses        int64   `json:"misses"`
	Evictions     int64   `json:"evictions"`
	HitRate       float64 `json:"hit_rate"`
	Size          int     `json:"size"`
	MaxSize       int     `json:"max_size"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

func (m *Metrics) snapshot(size, maxSize int) Stats {
	s := Stats{
		Hits:          m.hits,
		Misses:        m.misses,
		Evictions:     m.evictions,
		Size:          size,
		MaxSize:       maxSize,
		UptimeSeconds: time.Since(m.startTime).Seconds(),
	}
	if total := m.hits + m.misses; total > 0 {
		s.HitRate = float64(m.hits) / float64(total)
	}
	return s
}
