package services

import (
	"context"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/go-faster/errors"

	"github.com/fieo/orgregistry/modules/registry/domain/entities"
	"github.com/fieo/orgregistry/modules/registry/domain/schema"
)

type fakeRow struct {
	id      int64
	key     string
	value   any
	refs    map[string]*string
	links   map[string]*int64
	updated time.Time
}

type fakeTable struct {
	seq  int64
	rows []*fakeRow
}

func (t *fakeTable) byKey(key string) *fakeRow {
	for _, r := range t.rows {
		if schema.NormalizeKey(r.key) == schema.NormalizeKey(key) {
			return r
		}
	}
	return nil
}

// fakeStore keeps the registry in memory with the same natural-key upsert
// semantics as the Postgres repository.
type fakeStore struct {
	mu      sync.Mutex
	tables  map[string]*fakeTable
	missing map[string]bool
	failOn  map[string]error
	roles   map[string]int64
	grants  map[[2]int64]bool
	upserts map[string]int
}

var _ Store = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	s := &fakeStore{
		tables:  map[string]*fakeTable{},
		missing: map[string]bool{},
		failOn:  map[string]error{},
		roles:   map[string]int64{},
		grants:  map[[2]int64]bool{},
		upserts: map[string]int{},
	}
	for _, k := range schema.Order {
		s.tables[schema.MustLookup(k).Table] = &fakeTable{}
	}
	return s
}

func (s *fakeStore) table(name string) (*fakeTable, error) {
	if s.missing[name] {
		return nil, errors.Wrap(entities.ErrMissingTable, name)
	}
	if err := s.failOn[name]; err != nil {
		return nil, err
	}
	return s.tables[name], nil
}

func upsertRows[T any](s *fakeStore, kind schema.Kind, rows []T, key func(T) string, refs func(T) map[string]*string, at time.Time) (entities.UpsertResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	def := schema.MustLookup(kind)
	t, err := s.table(def.Table)
	if err != nil {
		return entities.UpsertResult{}, err
	}
	s.upserts[def.Table]++

	var res entities.UpsertResult
	for _, row := range rows {
		var r map[string]*string
		if refs != nil {
			r = refs(row)
		}
		existing := t.byKey(key(row))
		switch {
		case existing == nil:
			t.seq++
			t.rows = append(t.rows, &fakeRow{id: t.seq, key: key(row), value: row, refs: r, links: map[string]*int64{}, updated: at})
			res.Created++
		case reflect.DeepEqual(existing.value, any(row)) && reflect.DeepEqual(existing.refs, r):
			res.Unchanged++
		default:
			existing.value, existing.refs, existing.updated = row, r, at
			res.Updated++
		}
	}
	return res, nil
}

func (s *fakeStore) TableExists(_ context.Context, table string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.missing[table], nil
}

func (s *fakeStore) KeyIndex(_ context.Context, kind schema.Kind) (*entities.KeyIndex, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.table(schema.MustLookup(kind).Table)
	if err != nil {
		return nil, err
	}
	idx := entities.NewKeyIndex(len(t.rows))
	for _, r := range t.rows {
		idx.Add(r.key, r.id)
	}
	return idx, nil
}

func (s *fakeStore) UpsertOffices(_ context.Context, rows []entities.Office, at time.Time) (entities.UpsertResult, error) {
	return upsertRows(s, schema.KindOffice, rows,
		func(o entities.Office) string { return o.Name },
		func(o entities.Office) map[string]*string { return map[string]*string{"parent_ref": o.ParentRef} },
		at)
}

func (s *fakeStore) UpsertDesignations(_ context.Context, rows []entities.Designation, at time.Time) (entities.UpsertResult, error) {
	return upsertRows(s, schema.KindDesignation, rows, func(d entities.Designation) string { return d.Title }, nil, at)
}

func (s *fakeStore) UpsertDepartments(_ context.Context, rows []entities.Department, at time.Time) (entities.UpsertResult, error) {
	for _, d := range rows {
		if d.GSTIN != nil && len(*d.GSTIN) > 15 {
			return entities.UpsertResult{}, errors.New("value too long for type character varying(15)")
		}
	}
	return upsertRows(s, schema.KindDepartment, rows,
		func(d entities.Department) string { return d.Name },
		func(d entities.Department) map[string]*string { return map[string]*string{"parent_ref": d.ParentRef} },
		at)
}

func (s *fakeStore) UpsertAccounts(_ context.Context, rows []entities.Account, at time.Time) (entities.UpsertResult, error) {
	for _, a := range rows {
		if len(a.Password) > entities.MaxPasswordBytes {
			return entities.UpsertResult{}, errors.Errorf("hash password of %s: bcrypt: password length exceeds 72 bytes", a.Email)
		}
	}
	return upsertRows(s, schema.KindUser, rows, func(a entities.Account) string { return a.Email }, nil, at)
}

func (s *fakeStore) UpsertEmployees(_ context.Context, rows []entities.Employee, at time.Time) (entities.UpsertResult, error) {
	return upsertRows(s, schema.KindEmployee, rows,
		func(e entities.Employee) string { return e.EmpID },
		func(e entities.Employee) map[string]*string {
			return map[string]*string{
				"supervisor_ref": e.SupervisorRef,
				"manager_ref":    e.ManagerRef,
				"approver_ref":   e.ApproverRef,
			}
		},
		at)
}

func (s *fakeStore) LinkRows(_ context.Context, field schema.LinkField) ([]entities.LinkRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.table(schema.MustLookup(field.Kind).Table)
	if err != nil {
		return nil, err
	}
	out := make([]entities.LinkRow, 0, len(t.rows))
	for _, r := range t.rows {
		out = append(out, entities.LinkRow{ID: r.id, Ref: r.refs[field.RefColumn], Current: r.links[field.IDColumn]})
	}
	return out, nil
}

func (s *fakeStore) ApplyLinks(_ context.Context, field schema.LinkField, updates []entities.LinkUpdate, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.table(schema.MustLookup(field.Kind).Table)
	if err != nil {
		return err
	}
	for _, u := range updates {
		for _, r := range t.rows {
			if r.id == u.ID {
				r.links[field.IDColumn] = u.Target
				r.updated = at
			}
		}
	}
	return nil
}

func (s *fakeStore) Accounts(_ context.Context) ([]entities.AccountFacts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.table("users")
	if err != nil {
		return nil, err
	}
	out := make([]entities.AccountFacts, 0, len(t.rows))
	for _, r := range t.rows {
		a := r.value.(entities.Account)
		out = append(out, entities.AccountFacts{ID: r.id, Email: a.Email, Verified: a.Verified})
	}
	return out, nil
}

func (s *fakeStore) EnsureRoles(_ context.Context, names []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range names {
		if _, ok := s.roles[n]; !ok {
			s.roles[n] = int64(len(s.roles) + 1)
		}
	}
	return nil
}

func (s *fakeStore) Roles(_ context.Context) (map[string]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int64, len(s.roles))
	for k, v := range s.roles {
		out[k] = v
	}
	return out, nil
}

func (s *fakeStore) GrantRole(_ context.Context, roleID int64, userIDs []int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, u := range userIDs {
		k := [2]int64{u, roleID}
		if !s.grants[k] {
			s.grants[k] = true
			n++
		}
	}
	return n, nil
}

// row returns the stored row of key in table, nil when absent.
func (s *fakeStore) row(table, key string) *fakeRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tables[table].byKey(key)
}

func (s *fakeStore) count(table string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tables[table].rows)
}

// rolesOf lists the role names granted to the user with email.
func (s *fakeStore) rolesOf(email string) []string {
	r := s.row("users", email)
	if r == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for name, id := range s.roles {
		if s.grants[[2]int64{r.id, id}] {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
