// Prometheus counters for workflow outcomes.
package studio

import "github.com/prometheus/client_golang/prometheus"

var (
	analysesStarted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "studio_analyses_started_total",
		Help: "Total number of analysis requests started.",
	})

	analysesCompleted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "studio_analyses_completed_total",
		Help: "Total number of analyses that reached the result state.",
	})

	analysesFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "studio_analyses_failed_total",
		Help: "Total number of analyses that reached the failed state.",
	})
)

func init() {
	prometheus.MustRegister(analysesStarted, analysesCompleted, analysesFailed)
}
