package main

import (
	"fmt"
	"io"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// stats tracks counters shared by every producer and consumer.
type stats struct {
	published atomic.Int64
	consumed  atomic.Int64
	confirmed atomic.Int64
	nacked    atomic.Int64

	latencyMu sync.Mutex
	latencies []time.Duration
	startTime time.Time
}

func newStats() *stats {
	return &stats{
		startTime: time.Now(),
		latencies: make([]time.Duration, 0, 100000),
	}
}

func (s *stats) recordLatency(d time.Duration) {
	s.latencyMu.Lock()
	s.latencies = append(s.latencies, d)
	s.latencyMu.Unlock()
}

// latencySummary holds the order statistics of a latency sample.
type latencySummary struct {
	Min, Median, P75, P95, P99, Max time.Duration
}

// summarize sorts a copy of samples. ok is false for an empty sample.
func summarize(samples []time.Duration) (latencySummary, bool) {
	if len(samples) == 0 {
		return latencySummary{}, false
	}
	sorted := slices.Clone(samples)
	slices.Sort(sorted)
	at := func(pct int) time.Duration { return sorted[len(sorted)*pct/100] }
	return latencySummary{
		Min:    sorted[0],
		Median: sorted[len(sorted)/2],
		P75:    at(75),
		P95:    at(95),
		P99:    at(99),
		Max:    sorted[len(sorted)-1],
	}, true
}

func (s *stats) print(w io.Writer) {
	elapsed := time.Since(s.startTime)
	pub := s.published.Load()
	con := s.consumed.Load()

	fmt.Fprintln(w, "\n=== Performance Test Results ===")
	fmt.Fprintf(w, "Duration: %.2fs\n", elapsed.Seconds())
	fmt.Fprintf(w, "\nThroughput:\n")
	fmt.Fprintf(w, "  Published: %d messages (%.0f msg/s)\n", pub, float64(pub)/elapsed.Seconds())
	fmt.Fprintf(w, "  Consumed:  %d messages (%.0f msg/s)\n", con, float64(con)/elapsed.Seconds())
	fmt.Fprintf(w, "  Confirmed: %d messages\n", s.confirmed.Load())
	if n := s.nacked.Load(); n > 0 {
		fmt.Fprintf(w, "  Nacked:    %d messages\n", n)
	}

	s.latencyMu.Lock()
	summary, ok := summarize(s.latencies)
	s.latencyMu.Unlock()
	if !ok {
		return
	}
	fmt.Fprintf(w, "\nConsumer Latency:\n")
	fmt.Fprintf(w, "  min:    %v\n", summary.Min)
	fmt.Fprintf(w, "  median: %v\n", summary.Median)
	fmt.Fprintf(w, "  75th:   %v\n", summary.P75)
	fmt.Fprintf(w, "  95th:   %v\n", summary.P95)
	fmt.Fprintf(w, "  99th:   %v\n", summary.P99)
	fmt.Fprintf(w, "  max:    %v\n", summary.Max)
}
