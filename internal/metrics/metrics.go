package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "gemeente"

// Registry is the global Prometheus registry for all metrics
var Registry = prometheus.NewRegistry()

// AppInfo exposes build information as labels on a constant gauge
var AppInfo = promauto.With(Registry).NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "app_info",
		Help:      "Application version information",
	},
	[]string{"version", "commit", "build_date"},
)

// Init sets the build information labels. Call once at startup.
func Init(version, commit, buildDate string) {
	AppInfo.WithLabelValues(version, commit, buildDate).Set(1)
}
