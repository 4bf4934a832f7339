// Package metrics собирает метрики Prometheus по пульсам, оценкам здоровья
// и сводке дашборда.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics хранит метрики приложения. Нулевой указатель допустим: все методы
// тогда ничего не делают.
type Metrics struct {
	pulseSubmissions *prometheus.CounterVec
	pulseRejections  *prometheus.CounterVec
	healthScore      prometheus.Histogram
	dashboardSeconds prometheus.Histogram
}

// New регистрирует метрики в reg. Паникует при повторной регистрации.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		pulseSubmissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulse_submissions_total",
				Help: "Weekly pulses created or updated",
			},
			[]string{"action", "draft"},
		),
		pulseRejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulse_rejections_total",
				Help: "Pulse writes rejected by cadence rules",
			},
			[]string{"reason"},
		),
		healthScore: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "engagement_health_score",
				Help:    "Computed engagement health scores",
				Buckets: prometheus.LinearBuckets(0, 10, 11),
			},
		),
		dashboardSeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "dashboard_summary_duration_seconds",
				Help:    "Time spent assembling the dashboard summary",
				Buckets: prometheus.DefBuckets,
			},
		),
	}

	reg.MustRegister(m.pulseSubmissions, m.pulseRejections, m.healthScore, m.dashboardSeconds)
	return m
}

func (m *Metrics) PulseSubmitted(action string, draft bool) {
	if m == nil {
		return
	}
	m.pulseSubmissions.WithLabelValues(action, strconv.FormatBool(draft)).Inc()
}

func (m *Metrics) PulseRejected(reason string) {
	if m == nil {
		return
	}
	m.pulseRejections.WithLabelValues(reason).Inc()
}

func (m *Metrics) HealthScore(score int) {
	if m == nil {
		return
	}
	m.healthScore.Observe(float64(score))
}

func (m *Metrics) DashboardBuilt(d time.Duration) {
	if m == nil {
		return
	}
	m.dashboardSeconds.Observe(d.Seconds())
}
