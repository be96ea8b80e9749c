package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type runtimeMetrics struct {
	transactions *prometheus.CounterVec
	instructions *prometheus.CounterVec
	latency      *prometheus.HistogramVec
	allocated    *prometheus.CounterVec
	rentPaid     *prometheus.CounterVec
}

var (
	runtimeMetricsOnce sync.Once
	runtimeRegistry    *runtimeMetrics
)

// Runtime returns the lazily-initialised metrics for transaction execution.
func Runtime() *runtimeMetrics {
	runtimeMetricsOnce.Do(func() {
		runtimeRegistry = &runtimeMetrics{
			transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "farmercore",
				Subsystem: "runtime",
				Name:      "transactions_total",
				Help:      "Executed transactions segmented by outcome.",
			}, []string{"outcome"}),
			instructions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "farmercore",
				Subsystem: "runtime",
				Name:      "instructions_total",
				Help:      "Executed instructions segmented by program, instruction and outcome.",
			}, []string{"program", "instruction", "outcome"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "farmercore",
				Subsystem: "runtime",
				Name:      "transaction_duration_seconds",
				Help:      "Latency distribution for transaction execution including commit.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"outcome"}),
			allocated: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "farmercore",
				Subsystem: "runtime",
				Name:      "allocated_bytes_total",
				Help:      "Account bytes allocated, segmented by owning program.",
			}, []string{"program"}),
			rentPaid: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "farmercore",
				Subsystem: "runtime",
				Name:      "rent_lamports_total",
				Help:      "Lamports moved into newly allocated accounts to make them rent exempt.",
			}, []string{"program"}),
		}
		prometheus.MustRegister(
			runtimeRegistry.transactions,
			runtimeRegistry.instructions,
			runtimeRegistry.latency,
			runtimeRegistry.allocated,
			runtimeRegistry.rentPaid,
		)
	})
	return runtimeRegistry
}

func outcomeLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// ObserveTransaction records a settled transaction. Committed transactions
// pass a nil error.
func (m *runtimeMetrics) ObserveTransaction(err error, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := outcomeLabel(err)
	m.transactions.WithLabelValues(outcome).Inc()
	m.latency.WithLabelValues(outcome).Observe(duration.Seconds())
}

// ObserveInstruction records the result of a single instruction.
func (m *runtimeMetrics) ObserveInstruction(program, instruction string, err error) {
	if m == nil {
		return
	}
	if program == "" {
		program = "unknown"
	}
	if instruction == "" {
		instruction = "unknown"
	}
	m.instructions.WithLabelValues(program, instruction, outcomeLabel(err)).Inc()
}

// RecordAllocation tracks bytes and rent for a new account. It is called only
// after the enclosing transaction commits.
func (m *runtimeMetrics) RecordAllocation(program string, bytes, rent uint64) {
	if m == nil {
		return
	}
	if program == "" {
		program = "unknown"
	}
	m.allocated.WithLabelValues(program).Add(float64(bytes))
	m.rentPaid.WithLabelValues(program).Add(float64(rent))
}

type httpMetrics struct {
	requests  *prometheus.CounterVec
	durations *prometheus.HistogramVec
}

var (
	httpMetricsOnce sync.Once
	httpRegistry    *httpMetrics
)

// HTTP returns the lazily-initialised metrics for the status API.
func HTTP() *httpMetrics {
	httpMetricsOnce.Do(func() {
		httpRegistry = &httpMetrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "farmercore",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "HTTP requests served, segmented by route, method and status.",
			}, []string{"route", "method", "status"}),
			durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "farmercore",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"route", "method"}),
		}
		prometheus.MustRegister(httpRegistry.requests, httpRegistry.durations)
	})
	return httpRegistry
}

// ObserveRequest records a served request.
func (m *httpMetrics) ObserveRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.durations.WithLabelValues(route, method).Observe(duration.Seconds())
}
