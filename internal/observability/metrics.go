package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects core counters and timings used by the orchestrator.
type Metrics struct {
	executions  *prometheus.CounterVec
	dispatches  *prometheus.CounterVec
	queueDepth  *prometheus.GaugeVec
	runnerJobs  *prometheus.GaugeVec
	queueTime   prometheus.Histogram
	executeTime prometheus.Histogram
}

func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	executions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orchestrator_executions_total",
		Help: "Total queue items by state transition.",
	}, []string{"state"})
	dispatches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orchestrator_dispatches_total",
		Help: "Total dispatch attempts by outcome.",
	}, []string{"outcome"})
	queueDepth := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "orchestrator_queue_depth",
		Help: "Current queue items by status.",
	}, []string{"status"})
	runnerJobs := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "orchestrator_runner_jobs",
		Help: "Current jobs per runner.",
	}, []string{"runner"})
	queueTime := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "orchestrator_queue_time_seconds",
		Help:    "Time between enqueue and dispatch.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})
	executeTime := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "orchestrator_execution_time_seconds",
		Help:    "Time between dispatch and completion.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 14),
	})

	executions = registerCounterVec(registerer, executions)
	dispatches = registerCounterVec(registerer, dispatches)
	registerer.MustRegister(queueDepth, runnerJobs, queueTime, executeTime)

	return &Metrics{
		executions:  executions,
		dispatches:  dispatches,
		queueDepth:  queueDepth,
		runnerJobs:  runnerJobs,
		queueTime:   queueTime,
		executeTime: executeTime,
	}
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

func (m *Metrics) IncExecution(state string) {
	if m == nil || m.executions == nil {
		return
	}
	m.executions.WithLabelValues(state).Inc()
}

func (m *Metrics) IncDispatch(outcome string) {
	if m == nil || m.dispatches == nil {
		return
	}
	m.dispatches.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SetQueueDepth(status string, depth float64) {
	if m == nil || m.queueDepth == nil {
		return
	}
	m.queueDepth.WithLabelValues(status).Set(depth)
}

func (m *Metrics) SetRunnerJobs(runnerName string, jobs float64) {
	if m == nil || m.runnerJobs == nil {
		return
	}
	m.runnerJobs.WithLabelValues(runnerName).Set(jobs)
}

func (m *Metrics) ObserveQueueTime(seconds float64) {
	if m == nil || m.queueTime == nil {
		return
	}
	m.queueTime.Observe(seconds)
}

func (m *Metrics) ObserveExecutionTime(seconds float64) {
	if m == nil || m.executeTime == nil {
		return
	}
	m.executeTime.Observe(seconds)
}

func registerCounterVec(registerer prometheus.Registerer, counter *prometheus.CounterVec) *prometheus.CounterVec {
	if err := registerer.Register(counter); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := already.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing
			}
		}
	}
	return counter
}
