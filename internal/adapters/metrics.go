package adapters

import (
	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/prometheus/client_golang/prometheus"

	"chem-datapackager/internal/ports"
	"chem-datapackager/internal/types"
)

const metricsNamespace = "chem_datapackager"

// PrometheusMetrics counts ingestion outcomes in a private registry that
// can be exported as a node-exporter textfile after a run.
type PrometheusMetrics struct {
	Registry          *prometheus.Registry
	ingested          prometheus.Counter
	failed            prometheus.Counter
	conflictRetries   *prometheus.CounterVec
	moleculesCreated  prometheus.Counter
	depictionRendered prometheus.Counter
}

func NewPrometheusMetrics() *PrometheusMetrics {
	m := &PrometheusMetrics{
		Registry: prometheus.NewRegistry(),
		ingested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "records_ingested_total",
			Help:      "Datasets finalized in the catalog.",
		}),
		failed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "records_failed_total",
			Help:      "Source records that could not be ingested.",
		}),
		conflictRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "conflict_retries_total",
			Help:      "Dataset creates retried after a name or id collision.",
		}, []string{"kind"}),
		moleculesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "molecules_created_total",
			Help:      "Molecule identities inserted into the molecule store.",
		}),
		depictionRendered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "depictions_rendered_total",
			Help:      "Depiction images rendered and written.",
		}),
	}
	m.Registry.MustRegister(m.ingested, m.failed, m.conflictRetries, m.moleculesCreated, m.depictionRendered)
	return m
}

func (m *PrometheusMetrics) RecordIngested()    { m.ingested.Inc() }
func (m *PrometheusMetrics) RecordFailed()      { m.failed.Inc() }
func (m *PrometheusMetrics) MoleculeCreated()   { m.moleculesCreated.Inc() }
func (m *PrometheusMetrics) DepictionRendered() { m.depictionRendered.Inc() }

func (m *PrometheusMetrics) ConflictRetry(kind types.ConflictKind) {
	m.conflictRetries.WithLabelValues(string(kind)).Inc()
}

// WriteTextfile writes the current counter values in Prometheus text
// format.
func (m *PrometheusMetrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write metrics file").
			WithCause(err)
	}
	return nil
}

var _ ports.MetricsPort = (*PrometheusMetrics)(nil)
