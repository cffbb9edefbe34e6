package main

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/fieo/orgregistry/modules/registry/domain/schema"
	"github.com/fieo/orgregistry/modules/registry/services"
	"github.com/fieo/orgregistry/pkg/configuration"
	"github.com/fieo/orgregistry/pkg/metrics"
)

func TestExitCode(t *testing.T) {
	require.Equal(t, exitOK, exitCode(nil))
	require.Equal(t, 1, exitCode(errors.New("boom")))
	require.Equal(t, exitUsage, exitCode(withCode(exitUsage, errors.New("bad flag"))))
	require.Equal(t, exitDB, exitCode(fmt.Errorf("sync: %w", withCode(exitDB, errors.New("down")))))
	require.NoError(t, withCode(exitDB, nil))
}

func TestExitError(t *testing.T) {
	ok := &services.Report{Stages: []*services.StageReport{{Kind: schema.KindOffice, Status: services.StatusOK, Malformed: 3}}}
	require.NoError(t, exitError(ok, nil, false))

	schemaFailed := &services.Report{Stages: []*services.StageReport{
		{Kind: schema.KindOffice, Status: services.StatusOK},
		{Kind: schema.KindUser, Status: services.StatusSchemaError},
	}}
	err := exitError(schemaFailed, nil, false)
	require.ErrorIs(t, err, errSchemaFailed)
	require.Equal(t, exitValidation, exitCode(err))

	stageErr := &services.StageError{Stage: "departments", Status: services.StatusStorageError, Err: errors.New("reset")}
	err = exitError(schemaFailed, stageErr, false)
	require.Equal(t, exitDB, exitCode(err))
	var target *services.StageError
	require.ErrorAs(t, err, &target)
}

func TestExitError_StrictFailsOnSkippedRows(t *testing.T) {
	skipped := &services.Report{Stages: []*services.StageReport{
		{Kind: schema.KindOffice, Status: services.StatusOK},
		{Kind: schema.KindUser, Status: services.StatusOK, Malformed: 1, Duplicate: 1},
	}}
	require.NoError(t, exitError(skipped, nil, false))

	err := exitError(skipped, nil, true)
	require.ErrorIs(t, err, errRowsSkipped)
	require.Equal(t, exitRowsSkipped, exitCode(err))
	require.Contains(t, err.Error(), ": 2")

	clean := &services.Report{Stages: []*services.StageReport{{Kind: schema.KindOffice, Status: services.StatusOK, Created: 4}}}
	require.NoError(t, exitError(clean, nil, true))

	schemaFailed := &services.Report{Stages: []*services.StageReport{{Kind: schema.KindUser, Status: services.StatusSchemaError, Malformed: 1}}}
	require.Equal(t, exitValidation, exitCode(exitError(schemaFailed, nil, true)))
}

func TestSyncOptions_RegistryOptions(t *testing.T) {
	base := configuration.RegistryOptions{
		DataDir:          "data",
		BatchSize:        500,
		Workers:          4,
		InternalDomain:   "FIEO.org",
		AdminEmail:       "admin@fieo.org",
		DefaultPassword:  "password",
		DefaultCountry:   "India",
		BcryptCost:       10,
		MaxReportedSkips: 100,
		StageTimeout:     time.Minute,
	}

	got, err := syncOptions{dataDir: "/srv/registry", batchSize: 50}.registryOptions(base)
	require.NoError(t, err)
	require.Equal(t, "/srv/registry", got.DataDir)
	require.Equal(t, 50, got.BatchSize)
	require.Equal(t, 4, got.Workers)
	require.Equal(t, "fieo.org", got.InternalDomain)

	_, err = syncOptions{workers: -1}.registryOptions(base)
	require.Equal(t, exitUsage, exitCode(err))

	base.DefaultPassword = " "
	_, err = syncOptions{}.registryOptions(base)
	require.Equal(t, exitUsage, exitCode(err))
}

func TestNewSyncCmd_SourceFlags(t *testing.T) {
	cmd := newSyncCmd()
	for _, kind := range schema.Order {
		require.NotNil(t, cmd.Flags().Lookup(kind.String()), kind)
	}
	require.NoError(t, cmd.Flags().Parse([]string{"--users", "/tmp/people.csv", "--batch-size", "10", "--strict"}))
	strict, err := cmd.Flags().GetBool("strict")
	require.NoError(t, err)
	require.True(t, strict)
}

func TestSyncOptions_Overrides(t *testing.T) {
	users, empty := "/tmp/people.csv", ""
	opts := syncOptions{sources: map[schema.Kind]*string{
		schema.KindUser:   &users,
		schema.KindOffice: &empty,
	}}
	require.Equal(t, map[schema.Kind]string{schema.KindUser: "/tmp/people.csv"}, opts.overrides())
}

func TestMigrateCmd_RejectsUnknownDirection(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"migrate", "sideways"})
	require.Error(t, root.Execute())
}

func TestObserveReport(t *testing.T) {
	started := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	report := &services.Report{
		StartedAt:  started,
		FinishedAt: started.Add(90 * time.Second),
		Stages: []*services.StageReport{
			{Kind: schema.KindOffice, Status: services.StatusOK, Created: 4, Duplicate: 1, DurationMS: 1500},
			{Kind: schema.KindEmployee, Status: services.StatusMissingSource},
		},
		Links:  []*services.LinkReport{{Field: "employees.supervisor", Resolved: 7, Unresolved: 2}},
		Grants: []*services.GrantReport{{Role: services.RoleEmployee, Granted: 3}},
	}

	m := metrics.NewRunMetrics()
	observeReport(m, report, nil)

	require.InDelta(t, 4, testutil.ToFloat64(m.StageRows.WithLabelValues("offices", "created")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(m.StageRows.WithLabelValues("offices", "duplicate")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(m.StageStatus.WithLabelValues("employees", "missing_source")), 0)
	require.InDelta(t, 1.5, testutil.ToFloat64(m.StageDuration.WithLabelValues("offices")), 1e-9)
	require.InDelta(t, 2, testutil.ToFloat64(m.Links.WithLabelValues("employees.supervisor", "unresolved")), 0)
	require.InDelta(t, 3, testutil.ToFloat64(m.Grants.WithLabelValues(services.RoleEmployee)), 0)
	require.InDelta(t, 90, testutil.ToFloat64(m.RunDuration), 1e-9)
	require.InDelta(t, float64(report.FinishedAt.Unix()), testutil.ToFloat64(m.LastRun.WithLabelValues("ok")), 0)
	require.Equal(t, "failed", runResult(report, errors.New("x")))
}
