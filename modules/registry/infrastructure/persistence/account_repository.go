package persistence

import (
	"context"
	"runtime"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"github.com/fieo/orgregistry/modules/registry/domain/entities"
	"github.com/fieo/orgregistry/pkg/composables"
)

const (
	storedCredentialsQuery = `
        SELECT lower(email) AS email, password, email_verified_at
        FROM users
        WHERE lower(email) = ANY($1)`

	accountFactsQuery = `
        SELECT id, email, email_verified_at IS NOT NULL AS verified
        FROM users
        ORDER BY id`
)

type storedCredential struct {
	Email      string     `db:"email"`
	Password   string     `db:"password"`
	VerifiedAt *time.Time `db:"email_verified_at"`
}

type accountFactRow struct {
	ID       int64  `db:"id"`
	Email    string `db:"email"`
	Verified bool   `db:"verified"`
}

// UpsertAccounts writes user accounts keyed by lowercase email. A stored hash
// that still matches the incoming password is kept, and a verified account
// keeps its first verification time.
func (g *PgRegistryRepository) UpsertAccounts(ctx context.Context, rows []entities.Account, at time.Time) (entities.UpsertResult, error) {
	if len(rows) == 0 {
		return entities.UpsertResult{}, nil
	}
	return composables.InTxResult(ctx, func(txCtx context.Context) (entities.UpsertResult, error) {
		stored, err := g.storedCredentials(txCtx, rows)
		if err != nil {
			return entities.UpsertResult{}, err
		}
		hashes, err := g.hashPasswords(txCtx, rows, stored)
		if err != nil {
			return entities.UpsertResult{}, err
		}

		args := make([][]any, len(rows))
		for i, r := range rows {
			email := strings.ToLower(strings.TrimSpace(r.Email))
			var verifiedAt *time.Time
			if r.Verified {
				verifiedAt = &at
				if prev, ok := stored[email]; ok && prev.VerifiedAt != nil {
					verifiedAt = prev.VerifiedAt
				}
			}
			args[i] = accountArgs(r.Name, email, hashes[i], verifiedAt)
		}
		return accountUpsert.exec(txCtx, args, at)
	})
}

func (g *PgRegistryRepository) storedCredentials(ctx context.Context, rows []entities.Account) (map[string]storedCredential, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}
	emails := make([]string, len(rows))
	for i, r := range rows {
		emails[i] = strings.ToLower(strings.TrimSpace(r.Email))
	}

	var found []storedCredential
	if err := sqlx.SelectContext(ctx, tx, &found, storedCredentialsQuery, pq.Array(emails)); err != nil {
		return nil, errors.Wrap(classify(err), "failed to load stored credentials")
	}
	out := make(map[string]storedCredential, len(found))
	for _, c := range found {
		out[c.Email] = c
	}
	return out, nil
}

// hashPasswords returns one hash per row, reusing the stored hash when it
// still verifies. bcrypt is CPU bound, so rows are hashed concurrently.
func (g *PgRegistryRepository) hashPasswords(ctx context.Context, rows []entities.Account, stored map[string]storedCredential) ([]string, error) {
	hashes := make([]string, len(rows))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for i, r := range rows {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			email := strings.ToLower(strings.TrimSpace(r.Email))
			if prev, ok := stored[email]; ok && prev.Password != "" {
				if bcrypt.CompareHashAndPassword([]byte(prev.Password), []byte(r.Password)) == nil {
					hashes[i] = prev.Password
					return nil
				}
			}
			h, err := bcrypt.GenerateFromPassword([]byte(r.Password), g.bcryptCost)
			if err != nil {
				return errors.Wrapf(err, "hash password of %s", email)
			}
			hashes[i] = string(h)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return hashes, nil
}

// Accounts lists every stored user for the access bootstrap.
func (g *PgRegistryRepository) Accounts(ctx context.Context) ([]entities.AccountFacts, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}
	var rows []accountFactRow
	if err := sqlx.SelectContext(ctx, tx, &rows, accountFactsQuery); err != nil {
		return nil, errors.Wrap(classify(err), "failed to list accounts")
	}
	out := make([]entities.AccountFacts, len(rows))
	for i, r := range rows {
		out[i] = entities.AccountFacts{ID: r.ID, Email: r.Email, Verified: r.Verified}
	}
	return out, nil
}
