package suggest

import (
	"slices"
	"sync"
	"time"
)

type call struct {
	at      time.Time
	latency time.Duration
	failed  bool
}

// StatsSnapshot summarises the calls inside the window.
type StatsSnapshot struct {
	Calls    int       `json:"calls"`
	Failures int       `json:"failures"`
	MinMs    int64     `json:"min_ms"`
	MaxMs    int64     `json:"max_ms"`
	AvgMs    float64   `json:"avg_ms"`
	P50Ms    float64   `json:"p50_ms"`
	P95Ms    float64   `json:"p95_ms"`
	LastCall time.Time `json:"last_call,omitzero"`
}

// LLMStats keeps a rolling window of suggestion call latencies.
type LLMStats struct {
	mu     sync.Mutex
	calls  []call
	window time.Duration
	now    func() time.Time
}

func NewLLMStats(window time.Duration) *LLMStats {
	if window <= 0 {
		window = time.Hour
	}
	return &LLMStats{window: window, now: time.Now}
}

// Record adds a completed call. Negative latencies count as zero.
func (s *LLMStats) Record(latency time.Duration, failed bool) {
	if latency < 0 {
		latency = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.pruneLocked(now)
	s.calls = append(s.calls, call{at: now, latency: latency, failed: failed})
}

func (s *LLMStats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked(s.now())
	if len(s.calls) == 0 {
		return StatsSnapshot{}
	}

	ms := make([]int64, len(s.calls))
	var total int64
	snap := StatsSnapshot{Calls: len(s.calls)}
	for i, c := range s.calls {
		ms[i] = c.latency.Milliseconds()
		total += ms[i]
		if c.failed {
			snap.Failures++
		}
	}
	snap.LastCall = s.calls[len(s.calls)-1].at
	slices.Sort(ms)

	snap.MinMs = ms[0]
	snap.MaxMs = ms[len(ms)-1]
	snap.AvgMs = float64(total) / float64(len(ms))
	snap.P50Ms = percentile(ms, 50)
	snap.P95Ms = percentile(ms, 95)
	return snap
}

func (s *LLMStats) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.window)
	s.calls = slices.DeleteFunc(s.calls, func(c call) bool { return c.at.Before(cutoff) })
}

// percentile interpolates linearly between the two nearest ranks.
func percentile(sorted []int64, pct float64) float64 {
	if len(sorted) == 1 {
		return float64(sorted[0])
	}
	rank := float64(len(sorted)-1) * pct / 100
	lo := int(rank)
	if lo >= len(sorted)-1 {
		return float64(sorted[len(sorted)-1])
	}
	frac := rank - float64(lo)
	return float64(sorted[lo]) + float64(sorted[lo+1]-sorted[lo])*frac
}
