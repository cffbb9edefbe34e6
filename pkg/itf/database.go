// Package itf provides a throwaway, migrated Postgres database per test.
package itf

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"fmt"
	"log"
	"net"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/fieo/orgregistry/pkg/composables"
	"github.com/fieo/orgregistry/pkg/configuration"
	"github.com/fieo/orgregistry/pkg/database"
)

const (
	// PostgreSQL database name maximum length is 63 characters
	maxDBNameLength = 63
	// 8 hash chars + underscore
	hashSuffixLength = 9
)

// CanDialPostgres reports whether DB_HOST:DB_PORT accepts TCP connections.
func CanDialPostgres(tb testing.TB) bool {
	tb.Helper()

	host := strings.TrimSpace(os.Getenv("DB_HOST"))
	if host == "" {
		host = "localhost"
	}
	port := strings.TrimSpace(os.Getenv("DB_PORT"))
	if port == "" {
		port = "5432"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
	defer cancel()
	dialer := &net.Dialer{Timeout: 250 * time.Millisecond}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, port))
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// RequirePostgres skips tb when Postgres is unreachable, and fails it on CI.
func RequirePostgres(tb testing.TB) {
	tb.Helper()
	if CanDialPostgres(tb) {
		return
	}
	if strings.TrimSpace(os.Getenv("CI")) != "" || strings.EqualFold(strings.TrimSpace(os.Getenv("GITHUB_ACTIONS")), "true") {
		tb.Fatalf("postgres is not reachable (DB_HOST/DB_PORT)")
	}
	tb.Skip("postgres is not reachable; skipping integration test")
}

// NewDB creates a fresh database named after the test, applies the registry
// migrations and returns it with a context carrying the pool.
func NewDB(tb testing.TB) (*sqlx.DB, context.Context) {
	tb.Helper()
	RequirePostgres(tb)

	name := tb.Name()
	CreateDB(name)

	opts := configuration.Use().Database
	opts.Name = sanitizeDBName(name)
	opts.Opts = DbOpts(name)

	ctx := context.Background()
	db, err := database.Open(ctx, opts)
	if err != nil {
		tb.Fatalf("open %s: %v", opts.Name, err)
	}
	tb.Cleanup(func() { _ = db.Close() })

	if err := database.Migrate(ctx, db, configuration.Use().MigrationsTable, database.Up); err != nil {
		tb.Fatalf("migrate %s: %v", opts.Name, err)
	}
	return db, composables.WithPool(ctx, db)
}

// sanitizeDBName lowercases name, maps every character outside [a-z0-9] to an
// underscore and keeps the result within the Postgres identifier limit.
func sanitizeDBName(name string) string {
	sanitized := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return '_'
	}, strings.ToLower(name))

	for strings.Contains(sanitized, "__") {
		sanitized = strings.ReplaceAll(sanitized, "__", "_")
	}
	sanitized = strings.Trim(sanitized, "_")
	if sanitized == "" {
		sanitized = "test_db"
	}
	if len(sanitized) <= maxDBNameLength {
		return sanitized
	}

	// too long: keep a prefix and make it unique with a hash of the original
	sum := sha256.Sum256([]byte(name))
	prefix := strings.TrimRight(sanitized[:maxDBNameLength-hashSuffixLength], "_")
	return fmt.Sprintf("%s_%x", prefix, sum[:4])
}

func adminConnString() string {
	c := configuration.Use()
	return fmt.Sprintf(
		"host=%s port=%s user=%s dbname=postgres password=%s sslmode=disable",
		c.Database.Host, c.Database.Port, c.Database.User, c.Database.Password,
	)
}

// CreateDB drops and recreates the database for name.
func CreateDB(name string) {
	sanitizedName := sanitizeDBName(name)

	db, err := sql.Open("postgres", adminConnString())
	if err != nil {
		panic(err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("[WARNING] Error closing CreateDB connection: %v", err)
		}
	}()
	if _, err := db.ExecContext(context.Background(), fmt.Sprintf("DROP DATABASE IF EXISTS %s", sanitizedName)); err != nil {
		panic(err)
	}
	if _, err := db.ExecContext(context.Background(), fmt.Sprintf("CREATE DATABASE %s", sanitizedName)); err != nil {
		panic(err)
	}
}

func DbOpts(name string) string {
	c := configuration.Use()
	return fmt.Sprintf(
		"host=%s port=%s user=%s dbname=%s password=%s sslmode=disable",
		c.Database.Host, c.Database.Port, c.Database.User, sanitizeDBName(name), c.Database.Password,
	)
}
