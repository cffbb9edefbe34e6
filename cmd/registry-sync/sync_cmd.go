package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/fieo/orgregistry/modules/registry/domain/schema"
	"github.com/fieo/orgregistry/modules/registry/infrastructure/persistence"
	"github.com/fieo/orgregistry/modules/registry/services"
	"github.com/fieo/orgregistry/pkg/composables"
	"github.com/fieo/orgregistry/pkg/configuration"
	"github.com/fieo/orgregistry/pkg/database"
)

var (
	errSchemaFailed = errors.New("one or more kinds failed their required-column mapping")
	errRowsSkipped  = errors.New("one or more rows were skipped")
)

type syncOptions struct {
	dataDir    string
	sources    map[schema.Kind]*string
	reportPath string
	batchSize  int
	workers    int
	instance   string
	strict     bool
}

func newSyncCmd() *cobra.Command {
	opts := syncOptions{sources: make(map[schema.Kind]*string, len(schema.Order))}

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Upsert every registry kind from its source file, link hierarchies and bootstrap roles",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := useConfig()
			if err != nil {
				return err
			}
			return runSync(cmd.Context(), conf, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.dataDir, "data-dir", "", "Directory holding <kind>.csv or <kind>.xlsx (default: REGISTRY_DATA_DIR)")
	for _, kind := range schema.Order {
		opts.sources[kind] = cmd.Flags().String(kind.String(), "", fmt.Sprintf("Source file for %s, overrides --data-dir", kind))
	}
	cmd.Flags().StringVar(&opts.reportPath, "report", "", "Also write the JSON report to this file")
	cmd.Flags().IntVar(&opts.batchSize, "batch-size", 0, "Rows per upsert transaction (default: REGISTRY_BATCH_SIZE)")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "Row validation workers (default: REGISTRY_WORKERS)")
	cmd.Flags().StringVar(&opts.instance, "instance", "", "Pushgateway instance label (default: hostname)")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Exit with code 5 when any row was skipped")
	return cmd
}

// registryOptions applies the flag overrides on top of the configured values.
func (o syncOptions) registryOptions(base configuration.RegistryOptions) (configuration.RegistryOptions, error) {
	if o.batchSize < 0 || o.workers < 0 {
		return base, withCode(exitUsage, fmt.Errorf("--batch-size and --workers must be positive"))
	}
	if o.dataDir != "" {
		base.DataDir = o.dataDir
	}
	if o.batchSize > 0 {
		base.BatchSize = o.batchSize
	}
	if o.workers > 0 {
		base.Workers = o.workers
	}
	if err := base.Validate(); err != nil {
		return base, withCode(exitUsage, err)
	}
	return base, nil
}

func (o syncOptions) overrides() map[schema.Kind]string {
	out := make(map[schema.Kind]string, len(o.sources))
	for kind, p := range o.sources {
		if p != nil && *p != "" {
			out[kind] = *p
		}
	}
	return out
}

func runSync(ctx context.Context, conf *configuration.Configuration, opts syncOptions, stdout io.Writer) error {
	reg, err := opts.registryOptions(conf.Registry)
	if err != nil {
		return err
	}

	db, err := database.Open(ctx, conf.Database)
	if err != nil {
		return withCode(exitDB, err)
	}
	defer func() { _ = db.Close() }()

	logger := logrus.NewEntry(conf.Logger())
	ctx = composables.WithPool(ctx, db)
	ctx = composables.WithLogger(ctx, logger)

	svc := services.NewSyncService(
		persistence.NewRegistryRepository(reg.BcryptCost),
		services.Options{
			DataDir:          reg.DataDir,
			Sources:          opts.overrides(),
			BatchSize:        reg.BatchSize,
			Workers:          reg.Workers,
			DefaultCountry:   reg.DefaultCountry,
			DefaultPassword:  reg.DefaultPassword,
			MaxReportedSkips: reg.MaxReportedSkips,
			StageTimeout:     reg.StageTimeout,
		},
		services.AccessRules{InternalDomain: reg.InternalDomain, AdminEmail: reg.AdminEmail},
	)
	report, runErr := svc.Run(ctx)

	if err := writeJSONLine(stdout, report); err != nil {
		return err
	}
	if opts.reportPath != "" {
		if err := writeJSONFile(opts.reportPath, report); err != nil {
			return err
		}
	}
	if url := conf.Prometheus.PushgatewayURL; url != "" {
		instance := opts.instance
		if instance == "" {
			instance, _ = os.Hostname()
		}
		if err := pushReport(ctx, report, runErr, url, conf.Prometheus.Job, instance); err != nil {
			logger.WithError(err).Warn("failed to push run metrics")
		}
	}

	return exitError(report, runErr, opts.strict)
}

// exitError maps a finished run onto the CLI exit codes.
func exitError(report *services.Report, runErr error, strict bool) error {
	if runErr != nil {
		return withCode(exitDB, runErr)
	}
	if report.SchemaFailed() {
		return withCode(exitValidation, errSchemaFailed)
	}
	if strict && report.RowsSkipped() > 0 {
		return withCode(exitRowsSkipped, fmt.Errorf("%w: %d", errRowsSkipped, report.RowsSkipped()))
	}
	return nil
}
