package compiler

import (
	"os"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"

	"github.com/sciro24/Kathara-labGenerator/topology"
)

// Namespace of the compiler metrics.
const metricsNamespace = "labgen"

// Results of a compile run used as the metric labels.
const (
	runResultSuccess      = "success"
	runResultReviewFailed = "review_failed"
	runResultError        = "error"
)

// Set of the compiler metrics.
type metrics struct {
	Runs            *prometheus.CounterVec
	ReviewIssues    *prometheus.GaugeVec
	LinksAllocated  prometheus.Gauge
	ArtifactsTotal  prometheus.Gauge
	RenderedDevices prometheus.Gauge
}

// Creates the metrics and registers them in the registerer.
func newMetrics(registerer prometheus.Registerer) *metrics {
	factory := promauto.With(registerer)
	return &metrics{
		Runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "compile",
			Name:      "runs_total",
			Help:      "Compile runs by result",
		}, []string{"result"}),
		ReviewIssues: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "review",
			Name:      "issues",
			Help:      "Consistency issues found by the last review by kind",
		}, []string{"kind"}),
		LinksAllocated: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "addressing",
			Name:      "links_allocated",
			Help:      "Links addressed by the last compile run",
		}),
		ArtifactsTotal: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "render",
			Name:      "artifacts",
			Help:      "Lab files rendered by the last compile run",
		}),
		RenderedDevices: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "render",
			Name:      "devices",
			Help:      "Devices of the last rendered lab",
		}),
	}
}

// Sets the issue gauges to the counts of the last review. The kinds
// without issues are not reported.
func (m *metrics) setIssues(counts map[topology.ErrorKind]int) {
	m.ReviewIssues.Reset()
	for kind, count := range counts {
		m.ReviewIssues.With(prometheus.Labels{"kind": string(kind)}).Set(float64(count))
	}
}

// Writes the gathered metrics into the file in the Prometheus text
// format, e.g., for the node exporter textfile collector.
func WriteMetricsFile(gatherer prometheus.Gatherer, path string) error {
	families, err := gatherer.Gather()
	if err != nil {
		return errors.Wrap(err, "cannot gather the metrics")
	}
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "cannot create the metrics file %s", path)
	}
	defer file.Close()

	encoder := expfmt.NewEncoder(file, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, family := range families {
		if err := encoder.Encode(family); err != nil {
			return errors.Wrapf(err, "cannot write the metric %s", family.GetName())
		}
	}
	return nil
}
