package server

import (
	"fmt"
	"io"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/guiyumin/igget/internal/core/extractor"
	"github.com/guiyumin/igget/internal/core/version"
)

// strategyCounters tracks attempts for one extraction strategy
type strategyCounters struct {
	successes    atomic.Int64
	failures     atomic.Int64
	timeouts     atomic.Int64
	latencyNanos atomic.Int64
}

// Metrics holds process-wide counters for the HTTP surface and the
// extraction pipeline
type Metrics struct {
	started time.Time

	httpRequests atomic.Int64
	httpErrors   atomic.Int64

	fetchSuccess     atomic.Int64
	fetchFailures    atomic.Int64
	downloads        atomic.Int64
	downloadFailures atomic.Int64

	mu         sync.RWMutex
	strategies map[string]*strategyCounters
}

// StrategyStats is the exported view of one strategy's counters
type StrategyStats struct {
	Successes    int64 `json:"successes"`
	Failures     int64 `json:"failures"`
	Timeouts     int64 `json:"timeouts"`
	AvgLatencyMs int64 `json:"avg_latency_ms"`
}

// MetricsSnapshot is served by /api/metrics
type MetricsSnapshot struct {
	UptimeSeconds    int64                    `json:"uptime_seconds"`
	Requests         int64                    `json:"requests"`
	Errors           int64                    `json:"errors"`
	FetchSuccess     int64                    `json:"fetch_success"`
	FetchFailures    int64                    `json:"fetch_failures"`
	Downloads        int64                    `json:"downloads"`
	DownloadFailures int64                    `json:"download_failures"`
	Strategies       map[string]StrategyStats `json:"strategies"`
}

func NewMetrics() *Metrics {
	return &Metrics{
		started:    time.Now(),
		strategies: make(map[string]*strategyCounters),
	}
}

// ObserveRequest counts one handled HTTP request
func (m *Metrics) ObserveRequest(status int) {
	m.httpRequests.Add(1)
	if status >= 500 {
		m.httpErrors.Add(1)
	}
}

// ObserveAttempt counts one strategy attempt
func (m *Metrics) ObserveAttempt(ev extractor.AttemptEvent) {
	sc := m.counters(ev.Strategy)
	sc.latencyNanos.Add(int64(ev.Latency))
	switch ev.Outcome {
	case extractor.OutcomeSuccess:
		sc.successes.Add(1)
	case extractor.OutcomeTimeout:
		sc.timeouts.Add(1)
	default:
		sc.failures.Add(1)
	}
}

func (m *Metrics) counters(name string) *strategyCounters {
	m.mu.RLock()
	sc, ok := m.strategies[name]
	m.mu.RUnlock()
	if ok {
		return sc
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if sc, ok = m.strategies[name]; !ok {
		sc = &strategyCounters{}
		m.strategies[name] = sc
	}
	return sc
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		UptimeSeconds:    int64(time.Since(m.started).Seconds()),
		Requests:         m.httpRequests.Load(),
		Errors:           m.httpErrors.Load(),
		FetchSuccess:     m.fetchSuccess.Load(),
		FetchFailures:    m.fetchFailures.Load(),
		Downloads:        m.downloads.Load(),
		DownloadFailures: m.downloadFailures.Load(),
		Strategies:       make(map[string]StrategyStats),
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	for name, sc := range m.strategies {
		st := StrategyStats{
			Successes: sc.successes.Load(),
			Failures:  sc.failures.Load(),
			Timeouts:  sc.timeouts.Load(),
		}
		if n := st.Successes + st.Failures + st.Timeouts; n > 0 {
			st.AvgLatencyMs = time.Duration(sc.latencyNanos.Load() / n).Milliseconds()
		}
		snap.Strategies[name] = st
	}
	return snap
}

// WritePrometheus writes the counters in the Prometheus text format
func (m *Metrics) WritePrometheus(w io.Writer) {
	snap := m.Snapshot()

	fmt.Fprintf(w, "# HELP igget_build_info Build information\n")
	fmt.Fprintf(w, "# TYPE igget_build_info gauge\n")
	fmt.Fprintf(w, "igget_build_info{version=%q,go_version=%q} 1\n\n", version.Version, runtime.Version())

	fmt.Fprintf(w, "# HELP process_uptime_seconds Time since process started\n")
	fmt.Fprintf(w, "# TYPE process_uptime_seconds gauge\n")
	fmt.Fprintf(w, "process_uptime_seconds %d\n\n", snap.UptimeSeconds)

	fmt.Fprintf(w, "# HELP go_goroutines Number of active goroutines\n")
	fmt.Fprintf(w, "# TYPE go_goroutines gauge\n")
	fmt.Fprintf(w, "go_goroutines %d\n\n", runtime.NumGoroutine())

	fmt.Fprintf(w, "# HELP http_requests_total Total number of HTTP requests\n")
	fmt.Fprintf(w, "# TYPE http_requests_total counter\n")
	fmt.Fprintf(w, "http_requests_total %d\n\n", snap.Requests)

	fmt.Fprintf(w, "# HELP http_errors_total Total number of HTTP 5xx errors\n")
	fmt.Fprintf(w, "# TYPE http_errors_total counter\n")
	fmt.Fprintf(w, "http_errors_total %d\n\n", snap.Errors)

	fmt.Fprintf(w, "# HELP igget_fetch_total Resolve requests by result\n")
	fmt.Fprintf(w, "# TYPE igget_fetch_total counter\n")
	fmt.Fprintf(w, "igget_fetch_total{result=\"success\"} %d\n", snap.FetchSuccess)
	fmt.Fprintf(w, "igget_fetch_total{result=\"failure\"} %d\n\n", snap.FetchFailures)

	fmt.Fprintf(w, "# HELP igget_download_total Asset relays by result\n")
	fmt.Fprintf(w, "# TYPE igget_download_total counter\n")
	fmt.Fprintf(w, "igget_download_total{result=\"success\"} %d\n", snap.Downloads)
	fmt.Fprintf(w, "igget_download_total{result=\"failure\"} %d\n\n", snap.DownloadFailures)

	names := make([]string, 0, len(snap.Strategies))
	for name := range snap.Strategies {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintf(w, "# HELP igget_strategy_attempts_total Strategy attempts by outcome\n")
	fmt.Fprintf(w, "# TYPE igget_strategy_attempts_total counter\n")
	for _, name := range names {
		st := snap.Strategies[name]
		fmt.Fprintf(w, "igget_strategy_attempts_total{strategy=%q,outcome=\"success\"} %d\n", name, st.Successes)
		fmt.Fprintf(w, "igget_strategy_attempts_total{strategy=%q,outcome=\"failure\"} %d\n", name, st.Failures)
		fmt.Fprintf(w, "igget_strategy_attempts_total{strategy=%q,outcome=\"timeout\"} %d\n", name, st.Timeouts)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "# HELP igget_strategy_latency_avg_ms Average attempt latency\n")
	fmt.Fprintf(w, "# TYPE igget_strategy_latency_avg_ms gauge\n")
	for _, name := range names {
		fmt.Fprintf(w, "igget_strategy_latency_avg_ms{strategy=%q} %d\n", name, snap.Strategies[name].AvgLatencyMs)
	}
}
