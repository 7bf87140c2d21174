package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	ApplicationsSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "cw_applications_submitted_total", Help: "Application submissions by result"},
		[]string{"result"},
	)
	ApplicationTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "cw_application_transitions_total", Help: "Application status transitions by target status"},
		[]string{"status"},
	)
	CollabSyncDispatches = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "cw_collab_sync_dispatch_total", Help: "Collaboration sync dispatches by kind and result"},
		[]string{"kind", "result"},
	)
	SalaryPaymentsWritten = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "cw_salary_payments_written_total", Help: "Salary distribution payments written"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cw_http_request_duration_seconds",
			Help:    "HTTP request latency by method, route and status",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

var registerOnce sync.Once

// Register 注册全部指标到默认 Registry，可重复调用
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			ApplicationsSubmitted,
			ApplicationTransitions,
			CollabSyncDispatches,
			SalaryPaymentsWritten,
			HTTPRequestDuration,
		)
	})
}
