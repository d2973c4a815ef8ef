// Prometheus counters for the analysis workflow. Superseded completions are
// counted rather than logged per-request to keep the discard path silent.
package analysis

import "github.com/prometheus/client_golang/prometheus"

var (
	// supersededTotal counts completions discarded by the staleness check.
	supersededTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "studio_analyses_superseded_total",
		Help: "Total number of analysis completions discarded as stale.",
	})
)

func init() {
	prometheus.MustRegister(supersededTotal)
}
