package services

import (
	"context"
	"time"

	"github.com/fieo/orgregistry/modules/registry/domain/entities"
	"github.com/fieo/orgregistry/modules/registry/domain/schema"
)

// UpsertStore applies validated rows by business key. Each call is atomic.
type UpsertStore interface {
	TableExists(ctx context.Context, table string) (bool, error)
	KeyIndex(ctx context.Context, kind schema.Kind) (*entities.KeyIndex, error)
	UpsertOffices(ctx context.Context, rows []entities.Office, at time.Time) (entities.UpsertResult, error)
	UpsertDesignations(ctx context.Context, rows []entities.Designation, at time.Time) (entities.UpsertResult, error)
	UpsertDepartments(ctx context.Context, rows []entities.Department, at time.Time) (entities.UpsertResult, error)
	UpsertAccounts(ctx context.Context, rows []entities.Account, at time.Time) (entities.UpsertResult, error)
	UpsertEmployees(ctx context.Context, rows []entities.Employee, at time.Time) (entities.UpsertResult, error)
}

// LinkStore reads and writes self-referential links.
type LinkStore interface {
	TableExists(ctx context.Context, table string) (bool, error)
	KeyIndex(ctx context.Context, kind schema.Kind) (*entities.KeyIndex, error)
	LinkRows(ctx context.Context, field schema.LinkField) ([]entities.LinkRow, error)
	ApplyLinks(ctx context.Context, field schema.LinkField, updates []entities.LinkUpdate, at time.Time) error
}

// AccessStore holds users, roles and role grants.
type AccessStore interface {
	TableExists(ctx context.Context, table string) (bool, error)
	Accounts(ctx context.Context) ([]entities.AccountFacts, error)
	EnsureRoles(ctx context.Context, names []string) error
	Roles(ctx context.Context) (map[string]int64, error)
	GrantRole(ctx context.Context, roleID int64, userIDs []int64) (int, error)
}

// Store is everything a run needs from storage.
type Store interface {
	UpsertStore
	LinkStore
	AccessStore
}
