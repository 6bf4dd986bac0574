package metrics

import "github.com/prometheus/client_golang/prometheus"

// RedirectMetrics tracks the compiled redirect table and redirects served.
type RedirectMetrics struct {
	rules   prometheus.Gauge
	served  prometheus.Counter
	reloads *prometheus.CounterVec
}

func NewRedirectMetrics(reg prometheus.Registerer) *RedirectMetrics {
	m := &RedirectMetrics{
		rules: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "site",
			Subsystem: "redirects",
			Name:      "rules",
			Help:      "Rules in the active redirect table",
		}),
		served: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "site",
			Subsystem: "redirects",
			Name:      "served_total",
			Help:      "Permanent redirects served",
		}),
		reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "site",
			Subsystem: "redirects",
			Name:      "reloads_total",
			Help:      "Redirect table reloads by source",
		}, []string{"source"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.rules, m.served, m.reloads)
	return m
}

func (m *RedirectMetrics) SetRules(n int) {
	if m == nil {
		return
	}
	m.rules.Set(float64(n))
}

func (m *RedirectMetrics) ObserveServed() {
	if m == nil {
		return
	}
	m.served.Inc()
}

func (m *RedirectMetrics) ObserveReload(source string) {
	if m == nil {
		return
	}
	m.reloads.WithLabelValues(source).Inc()
}
