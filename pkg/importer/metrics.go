package importer

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ib-77/cellarfeed/pkg/ingest"
)

const namespace = "cellarfeed"

// Metrics counts runs and batches. It is the pipeline's batch observer.
type Metrics struct {
	runs          *prometheus.CounterVec
	persisted     prometheus.Counter
	batches       prometheus.Counter
	batchDuration prometheus.Histogram
}

var _ ingest.Observer = (*Metrics)(nil)

// NewMetrics registers the importer collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "runs_total",
			Help:      "Finished import runs by outcome.",
		}, []string{"outcome"}),
		persisted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "records_persisted_total",
			Help:      "Feed records stored as a producer and a product.",
		}),
		batches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "batches_total",
			Help:      "Batches settled by the sink, failed ones included.",
		}),
		batchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "batch_duration_seconds",
			Help:      "Time from the first persist call of a batch until all settled.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
	}
	reg.MustRegister(m.runs, m.persisted, m.batches, m.batchDuration)
	return m
}

func (m *Metrics) BatchSettled(r ingest.BatchReport) {
	m.batches.Inc()
	m.persisted.Add(float64(r.Persisted))
	m.batchDuration.Observe(r.Elapsed.Seconds())
}

func (m *Metrics) runFinished(s ingest.State) {
	m.runs.WithLabelValues(s.String()).Inc()
}
