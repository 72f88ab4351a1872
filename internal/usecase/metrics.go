package usecase

import "github.com/prometheus/client_golang/prometheus"

var (
	metricTicksProcessed = prometheus.NewCounter(prometheus.CounterOpts{Name: "tradewall_ticks_processed_total", Help: "Price ticks evaluated against the alert cache"})
	metricAlertsFired    = prometheus.NewCounter(prometheus.CounterOpts{Name: "tradewall_alerts_fired_total", Help: "Alerts that triggered and were consumed"})
	metricNotifyFailures = prometheus.NewCounter(prometheus.CounterOpts{Name: "tradewall_notify_failures_total", Help: "Notification sends that failed and were swallowed"})
)

func init() {
	prometheus.MustRegister(
		metricTicksProcessed,
		metricAlertsFired,
		metricNotifyFailures,
	)
}
