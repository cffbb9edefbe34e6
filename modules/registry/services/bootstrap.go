package services

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"

	"github.com/fieo/orgregistry/modules/registry/domain/entities"
)

const (
	RoleEmployee   = "Employee"
	RoleSuperAdmin = "Super Admin"
)

// AccessRules configure the role grants derived from user accounts.
type AccessRules struct {
	// InternalDomain grants Employee to verified users of the domain.
	InternalDomain string
	// AdminEmail grants Super Admin to the user with exactly this address.
	AdminEmail string
}

var accessTables = []string{"users", "roles", "user_roles"}

// AccessBootstrap applies the access rules over every stored user. Grants
// are additive: a user that stops matching a rule keeps the role.
type AccessBootstrap struct {
	store AccessStore
	rules AccessRules
	// roles is the role registry, name -> id, reloaded on every Apply.
	roles map[string]int64
}

func NewAccessBootstrap(store AccessStore, rules AccessRules) *AccessBootstrap {
	rules.InternalDomain = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(rules.InternalDomain), "@"))
	rules.AdminEmail = strings.ToLower(strings.TrimSpace(rules.AdminEmail))
	return &AccessBootstrap{store: store, rules: rules}
}

func (b *AccessBootstrap) Apply(ctx context.Context) ([]*GrantReport, error) {
	reports := []*GrantReport{
		{Role: RoleEmployee, Status: StatusOK},
		{Role: RoleSuperAdmin, Status: StatusOK},
	}

	for _, table := range accessTables {
		exists, err := b.store.TableExists(ctx, table)
		if err != nil {
			return reports, err
		}
		if !exists {
			for _, r := range reports {
				r.Status = StatusMissingTable
			}
			logWithFields(ctx, logrus.WarnLevel, "access table not found, grants skipped", logrus.Fields{"stage": "grants", "table": table})
			return reports, nil
		}
	}

	if err := b.reloadRoles(ctx); err != nil {
		return reports, err
	}
	accounts, err := b.store.Accounts(ctx)
	if err != nil {
		return reports, err
	}

	eligible := b.eligible(accounts)
	for _, rep := range reports {
		rep.Eligible = len(eligible[rep.Role])
		n, err := b.store.GrantRole(ctx, b.roles[rep.Role], eligible[rep.Role])
		if err != nil {
			return reports, errors.Wrapf(err, "grant %s", rep.Role)
		}
		rep.Granted = n
		logWithFields(ctx, logrus.InfoLevel, "roles granted", logrus.Fields{
			"stage":    "grants",
			"role":     rep.Role,
			"eligible": rep.Eligible,
			"granted":  rep.Granted,
		})
	}
	return reports, nil
}

func (b *AccessBootstrap) reloadRoles(ctx context.Context) error {
	if err := b.store.EnsureRoles(ctx, []string{RoleEmployee, RoleSuperAdmin}); err != nil {
		return err
	}
	roles, err := b.store.Roles(ctx)
	if err != nil {
		return err
	}
	for _, name := range []string{RoleEmployee, RoleSuperAdmin} {
		if _, ok := roles[name]; !ok {
			return errors.Errorf("role %q missing after ensure", name)
		}
	}
	b.roles = roles
	return nil
}

// eligible evaluates both rules independently, role -> user ids.
func (b *AccessBootstrap) eligible(accounts []entities.AccountFacts) map[string][]int64 {
	out := map[string][]int64{}
	for _, a := range accounts {
		if a.Verified && a.HasDomain(b.rules.InternalDomain) {
			out[RoleEmployee] = append(out[RoleEmployee], a.ID)
		}
		if b.rules.AdminEmail != "" && strings.ToLower(a.Email) == b.rules.AdminEmail {
			out[RoleSuperAdmin] = append(out[RoleSuperAdmin], a.ID)
		}
	}
	return out
}
