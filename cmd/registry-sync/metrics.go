package main

import (
	"context"
	"time"

	"github.com/fieo/orgregistry/modules/registry/services"
	"github.com/fieo/orgregistry/pkg/metrics"
)

func runResult(report *services.Report, runErr error) string {
	switch {
	case runErr != nil:
		return "failed"
	case report.SchemaFailed():
		return "schema_error"
	default:
		return "ok"
	}
}

func observeReport(m *metrics.RunMetrics, report *services.Report, runErr error) {
	for _, st := range report.Stages {
		m.ObserveStage(st.Kind.String(), string(st.Status), st.Outcomes(), time.Duration(st.DurationMS)*time.Millisecond)
	}
	for _, l := range report.Links {
		m.ObserveLink(l.Field, l.Outcomes())
	}
	for role, n := range report.GrantsByRole() {
		m.ObserveGrants(role, n)
	}
	m.ObserveRun(runResult(report, runErr), report.FinishedAt, report.FinishedAt.Sub(report.StartedAt))
}

func pushReport(ctx context.Context, report *services.Report, runErr error, url, job, instance string) error {
	m := metrics.NewRunMetrics()
	observeReport(m, report, runErr)

	pushCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return m.Push(pushCtx, url, job, instance)
}
