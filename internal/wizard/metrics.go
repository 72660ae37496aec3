package wizard

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the wizard's Prometheus collectors.
type Metrics struct {
	advances    *prometheus.CounterVec
	submissions prometheus.Counter
	active      prometheus.Gauge
}

// NewMetrics registers the wizard collectors on reg. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		advances: f.NewCounterVec(prometheus.CounterOpts{
			Name: "intake_step_advances_total",
			Help: "Advance attempts by step and outcome (ok|invalid).",
		}, []string{"step", "outcome"}),
		submissions: f.NewCounter(prometheus.CounterOpts{
			Name: "intake_submissions_total",
			Help: "Intakes that reached SUBMITTED.",
		}),
		active: f.NewGauge(prometheus.GaugeOpts{
			Name: "intake_active_sessions",
			Help: "Sessions currently held in memory.",
		}),
	}
}

func (m *Metrics) advance(step string, ok bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "invalid"
	}
	m.advances.WithLabelValues(step, outcome).Inc()
}

func (m *Metrics) submitted() {
	if m != nil {
		m.submissions.Inc()
	}
}

func (m *Metrics) sessions(n int) {
	if m != nil {
		m.active.Set(float64(n))
	}
}

// Advances returns the advance counter, labelled by step and outcome.
func (m *Metrics) Advances() *prometheus.CounterVec { return m.advances }

// Submissions returns the submission counter.
func (m *Metrics) Submissions() prometheus.Counter { return m.submissions }

// Active returns the live-session gauge.
func (m *Metrics) Active() prometheus.Gauge { return m.active }
