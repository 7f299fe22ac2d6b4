package links

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	Saved      prometheus.Counter
	Duplicates prometheus.Counter
	Deleted    prometheus.Counter
	Cleared    prometheus.Counter
	Errors     *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Saved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "linkcart_records_saved_total",
			Help: "Records saved",
		}),
		Duplicates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "linkcart_records_duplicate_total",
			Help: "Saves rejected as duplicates",
		}),
		Deleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "linkcart_records_deleted_total",
			Help: "Records deleted one at a time",
		}),
		Cleared: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "linkcart_store_cleared_total",
			Help: "Times the whole store was cleared",
		}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "linkcart_store_errors_total",
			Help: "Backing store failures by operation",
		}, []string{"op"}),
	}
	reg.MustRegister(m.Saved, m.Duplicates, m.Deleted, m.Cleared, m.Errors)
	return m
}

func (m *Metrics) saved() {
	if m != nil {
		m.Saved.Inc()
	}
}

func (m *Metrics) duplicate() {
	if m != nil {
		m.Duplicates.Inc()
	}
}

func (m *Metrics) deleted() {
	if m != nil {
		m.Deleted.Inc()
	}
}

func (m *Metrics) cleared() {
	if m != nil {
		m.Cleared.Inc()
	}
}

func (m *Metrics) storeError(op string) {
	if m != nil {
		m.Errors.WithLabelValues(op).Inc()
	}
}
