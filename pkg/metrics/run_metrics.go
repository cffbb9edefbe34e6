// Package metrics records the outcome of a batch run in a private registry and
// pushes it to a Prometheus Pushgateway, which scrapes on behalf of short-lived jobs.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "registry_sync"

type RunMetrics struct {
	registry *prometheus.Registry

	StageRows     *prometheus.GaugeVec
	StageStatus   *prometheus.GaugeVec
	StageDuration *prometheus.GaugeVec
	Links         *prometheus.GaugeVec
	Grants        *prometheus.GaugeVec
	LastRun       *prometheus.GaugeVec
	RunDuration   prometheus.Gauge
}

func NewRunMetrics() *RunMetrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &RunMetrics{
		registry: reg,
		StageRows: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stage_rows",
			Help:      "Rows per kind and outcome in the last run",
		}, []string{"kind", "outcome"}),
		StageStatus: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stage_status",
			Help:      "1 for the status each kind ended with in the last run",
		}, []string{"kind", "status"}),
		StageDuration: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Wall time per kind in the last run",
		}, []string{"kind"}),
		Links: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "links",
			Help:      "Link resolution counts per field in the last run",
		}, []string{"field", "outcome"}),
		Grants: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "role_grants",
			Help:      "New role grants per role in the last run",
		}, []string{"role"}),
		LastRun: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished, by result",
		}, []string{"result"}),
		RunDuration: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last run",
		}),
	}
}

func (m *RunMetrics) Registry() *prometheus.Registry { return m.registry }

func (m *RunMetrics) ObserveStage(kind, status string, outcomes map[string]int, d time.Duration) {
	for outcome, n := range outcomes {
		m.StageRows.WithLabelValues(kind, outcome).Set(float64(n))
	}
	m.StageStatus.WithLabelValues(kind, status).Set(1)
	m.StageDuration.WithLabelValues(kind).Set(d.Seconds())
}

func (m *RunMetrics) ObserveLink(field string, outcomes map[string]int) {
	for outcome, n := range outcomes {
		m.Links.WithLabelValues(field, outcome).Set(float64(n))
	}
}

func (m *RunMetrics) ObserveGrants(role string, granted int) {
	m.Grants.WithLabelValues(role).Set(float64(granted))
}

func (m *RunMetrics) ObserveRun(result string, finished time.Time, d time.Duration) {
	m.LastRun.WithLabelValues(result).Set(float64(finished.Unix()))
	m.RunDuration.Set(d.Seconds())
}

// Push sends the registry to the gateway at url under job, grouped by instance.
func (m *RunMetrics) Push(ctx context.Context, url, job, instance string) error {
	p := push.New(url, job).Gatherer(m.registry)
	if instance != "" {
		p = p.Grouping("instance", instance)
	}
	return p.PushContext(ctx)
}
