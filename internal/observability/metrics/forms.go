package metrics

import "github.com/prometheus/client_golang/prometheus"

// FormsMetrics exposes counters/histograms for the form intake pipeline.
type FormsMetrics struct {
	submissionsTotal *prometheus.CounterVec
	sinkTotal        *prometheus.CounterVec
	submitLatency    *prometheus.HistogramVec
}

func NewFormsMetrics(reg prometheus.Registerer) *FormsMetrics {
	m := &FormsMetrics{
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "site",
			Subsystem: "forms",
			Name:      "submissions_total",
			Help:      "Form submissions by form and result",
		}, []string{"form", "result"}),
		sinkTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "site",
			Subsystem: "forms",
			Name:      "sink_total",
			Help:      "Delivery attempts per sink by status",
		}, []string{"sink", "status"}),
		submitLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "site",
			Subsystem: "forms",
			Name:      "submit_seconds",
			Help:      "Latency of form submission handling",
			Buckets:   prometheus.DefBuckets,
		}, []string{"form"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submissionsTotal, m.sinkTotal, m.submitLatency)
	return m
}

func (m *FormsMetrics) ObserveSubmission(form, result string, seconds float64) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(form, result).Inc()
	m.submitLatency.WithLabelValues(form).Observe(seconds)
}

func (m *FormsMetrics) ObserveSink(sink, status string) {
	if m == nil {
		return
	}
	m.sinkTotal.WithLabelValues(sink, status).Inc()
}
