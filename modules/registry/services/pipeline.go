package services

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/fieo/orgregistry/modules/registry/domain/entities"
	"github.com/fieo/orgregistry/modules/registry/domain/schema"
	"github.com/fieo/orgregistry/modules/registry/infrastructure/source"
	"github.com/fieo/orgregistry/pkg/composables"
)

// Options drive one reconciliation run.
type Options struct {
	DataDir string
	// Sources overrides the discovered file of a kind.
	Sources          map[schema.Kind]string
	BatchSize        int
	Workers          int
	DefaultCountry   string
	DefaultPassword  string
	MaxReportedSkips int
	StageTimeout     time.Duration
}

// SyncService reconciles the registry tables with the source files: every
// kind in dependency order, then the self-referential links, then the
// access rules.
type SyncService struct {
	store     Store
	opts      Options
	linker    *Linker
	bootstrap *AccessBootstrap
	now       func() time.Time
}

func NewSyncService(store Store, opts Options, rules AccessRules) *SyncService {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 500
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &SyncService{
		store:     store,
		opts:      opts,
		linker:    NewLinker(store),
		bootstrap: NewAccessBootstrap(store, rules),
		now:       time.Now,
	}
}

// Run executes a full reconciliation. The report is returned even when the
// run stops on a storage failure; the error is then a *StageError.
func (s *SyncService) Run(ctx context.Context) (*Report, error) {
	runID := uuid.NewString()
	at := s.now().UTC()
	report := newReport(runID, at, s.opts.MaxReportedSkips)

	ctx = composables.WithLogger(ctx, composables.UseLogger(ctx).WithField("run_id", runID))

	err := s.run(ctx, report, at)
	report.FinishedAt = s.now().UTC()
	if err != nil {
		report.Error = err.Error()
		logWithFields(ctx, logrus.ErrorLevel, "registry sync aborted", logrus.Fields{"error": err})
		return report, err
	}
	logWithFields(ctx, logrus.InfoLevel, "registry sync finished", logrus.Fields{
		"duration": report.FinishedAt.Sub(report.StartedAt).String(),
	})
	return report, nil
}

func (s *SyncService) run(ctx context.Context, report *Report, at time.Time) error {
	for _, kind := range schema.Order {
		st := report.Stage(kind)
		started := s.now()
		err := s.withTimeout(ctx, func(stageCtx context.Context) error {
			return s.runStage(stageCtx, kind, st, at)
		})
		st.DurationMS = s.now().Sub(started).Milliseconds()
		if err != nil {
			st.fail(StatusStorageError, err)
			return stageError(kind, err)
		}
	}

	if err := s.withTimeout(ctx, func(linkCtx context.Context) error {
		links, err := s.linker.Link(linkCtx, at)
		report.Links = links
		return err
	}); err != nil {
		return &StageError{Stage: "links", Status: StatusStorageError, Err: err}
	}

	if err := s.withTimeout(ctx, func(grantCtx context.Context) error {
		grants, err := s.bootstrap.Apply(grantCtx)
		report.Grants = grants
		return err
	}); err != nil {
		return &StageError{Stage: "grants", Status: StatusStorageError, Err: err}
	}
	return nil
}

func (s *SyncService) withTimeout(ctx context.Context, fn func(context.Context) error) error {
	if s.opts.StageTimeout <= 0 {
		return fn(ctx)
	}
	stageCtx, cancel := context.WithTimeout(ctx, s.opts.StageTimeout)
	defer cancel()
	return fn(stageCtx)
}

// runStage ingests one kind. Stage-local failures are recorded on st and
// return nil; only storage failures are returned.
func (s *SyncService) runStage(ctx context.Context, kind schema.Kind, st *StageReport, at time.Time) error {
	def := schema.MustLookup(kind)
	fields := logrus.Fields{"stage": "ingest", "kind": kind}

	path, ok := source.Locate(s.opts.DataDir, s.opts.Sources[kind], kind)
	st.Source = path
	if !ok {
		st.fail(StatusMissingSource, ErrMissingSource)
		logWithFields(ctx, logrus.WarnLevel, "source file not found, stage skipped", withField(fields, "path", path))
		return nil
	}

	exists, err := s.store.TableExists(ctx, def.Table)
	if err != nil {
		return err
	}
	if !exists {
		st.fail(StatusMissingTable, errors.Wrap(entities.ErrMissingTable, def.Table))
		logWithFields(ctx, logrus.WarnLevel, "target table not found, stage skipped", withField(fields, "table", def.Table))
		return nil
	}

	tbl, err := source.Open(path)
	if err != nil {
		st.fail(StatusSchemaError, err)
		logWithFields(ctx, logrus.ErrorLevel, "source unreadable, kind left untouched", withField(fields, "error", err))
		return nil
	}
	cols, err := source.Resolve(def, tbl.Header)
	if err != nil {
		st.fail(StatusSchemaError, err)
		logWithFields(ctx, logrus.ErrorLevel, "required column missing, kind left untouched", withField(fields, "error", err))
		return nil
	}
	st.Rows = len(tbl.Records)

	if err := s.ingest(ctx, kind, st, cols, tbl.Records, at); err != nil {
		if errors.Is(err, entities.ErrMissingTable) {
			st.fail(StatusMissingTable, err)
			logWithFields(ctx, logrus.WarnLevel, "table disappeared, stage aborted", withField(fields, "error", err))
			return nil
		}
		return err
	}
	st.Status = StatusOK
	logWithFields(ctx, logrus.InfoLevel, "stage finished", withFields(fields, logrus.Fields{
		"rows":               st.Rows,
		"created":            st.Created,
		"updated":            st.Updated,
		"unchanged":          st.Unchanged,
		"malformed":          st.Malformed,
		"dangling_reference": st.DanglingReference,
		"duplicate":          st.Duplicate,
	}))
	return nil
}

func (s *SyncService) ingest(ctx context.Context, kind schema.Kind, st *StageReport, cols *source.ColumnMap, records []source.Record, at time.Time) error {
	switch kind {
	case schema.KindOffice:
		return ingestKind(ctx, s, st, cols, records, mapOffice(s.opts.DefaultCountry), s.store.UpsertOffices, at)
	case schema.KindDesignation:
		return ingestKind(ctx, s, st, cols, records, mapDesignation, s.store.UpsertDesignations, at)
	case schema.KindDepartment:
		offices, err := s.store.KeyIndex(ctx, schema.KindOffice)
		if err != nil {
			return err
		}
		return ingestKind(ctx, s, st, cols, records, mapDepartment(offices), s.store.UpsertDepartments, at)
	case schema.KindUser:
		return ingestKind(ctx, s, st, cols, records, mapAccount(s.opts.DefaultPassword), s.store.UpsertAccounts, at)
	case schema.KindEmployee:
		refs, err := s.loadReferences(ctx)
		if err != nil {
			return err
		}
		return ingestKind(ctx, s, st, cols, records, mapEmployee(refs), s.store.UpsertEmployees, at)
	default:
		return errors.Errorf("unknown kind %q", kind)
	}
}

// loadReferences reads the valid-id sets of every kind employees point to.
func (s *SyncService) loadReferences(ctx context.Context) (References, error) {
	var refs References
	targets := []struct {
		kind schema.Kind
		dst  **entities.KeyIndex
	}{
		{schema.KindUser, &refs.Users},
		{schema.KindDesignation, &refs.Designations},
		{schema.KindDepartment, &refs.Departments},
		{schema.KindOffice, &refs.Offices},
	}
	for _, t := range targets {
		idx, err := s.store.KeyIndex(ctx, t.kind)
		if err != nil {
			return References{}, errors.Wrapf(err, "load %s ids", t.kind)
		}
		*t.dst = idx
	}
	return refs, nil
}

type upsertFunc[T any] func(ctx context.Context, rows []T, at time.Time) (entities.UpsertResult, error)

func ingestKind[T any](
	ctx context.Context,
	s *SyncService,
	st *StageReport,
	cols *source.ColumnMap,
	records []source.Record,
	mapRow rowMapper[T],
	upsert upsertFunc[T],
	at time.Time,
) error {
	rows, err := validateRows(ctx, s.opts.Workers, cols, records, mapRow)
	if err != nil {
		return err
	}
	accepted, skips := dedupe(rows)
	for _, sk := range skips {
		st.skip(sk)
	}

	for start := 0; start < len(accepted); start += s.opts.BatchSize {
		end := min(start+s.opts.BatchSize, len(accepted))
		res, err := upsert(ctx, accepted[start:end], at)
		if err != nil {
			return err
		}
		st.addUpsert(res)
	}
	return nil
}

func withField(f logrus.Fields, key string, v any) logrus.Fields {
	return withFields(f, logrus.Fields{key: v})
}

func withFields(f logrus.Fields, extra logrus.Fields) logrus.Fields {
	out := make(logrus.Fields, len(f)+len(extra))
	for k, v := range f {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
