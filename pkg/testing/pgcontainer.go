// Package testing starts the storage backends the store integration tests run against.
// Every helper skips under -short, so `go test -short ./...` needs no Docker.
package testing

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"sort"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	PostgresImage   = "postgres:17.5"
	DefaultDatabase = "persona_watch_test"
)

type PGContainer struct {
	Container  testcontainers.Container
	ConnString string
}

func (c *PGContainer) Terminate() error {
	return testcontainers.TerminateContainer(c.Container)
}

type PGConfig struct {
	Database string
	Username string
	Password string
}

func (c PGConfig) withDefaults() PGConfig {
	if c.Database == "" {
		c.Database = DefaultDatabase
	}
	if c.Username == "" {
		c.Username = "test"
	}
	if c.Password == "" {
		c.Password = "test"
	}
	return c
}

// StartPostgres runs a postgres whose init scripts are the db/migrations up files in
// name order, so the schema matches what the pg store expects.
func StartPostgres(ctx context.Context, cfg PGConfig) (*PGContainer, error) {
	cfg = cfg.withDefaults()

	scripts, err := MigrationScripts()
	if err != nil {
		return nil, err
	}

	pg, err := postgres.Run(ctx, PostgresImage,
		postgres.WithDatabase(cfg.Database),
		postgres.WithUsername(cfg.Username),
		postgres.WithPassword(cfg.Password),
		postgres.WithInitScripts(scripts...),
		testcontainers.WithWaitStrategy(
			// the server restarts once after running init scripts
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("start postgres: %w", err)
	}

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = testcontainers.TerminateContainer(pg)
		return nil, fmt.Errorf("postgres connection string: %w", err)
	}
	return &PGContainer{Container: pg, ConnString: connStr}, nil
}

// MigrationScripts lists db/migrations/*.up.sql sorted by name.
func MigrationScripts() ([]string, error) {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return nil, errors.New("cannot locate migrations directory")
	}
	dir := filepath.Join(filepath.Dir(file), "..", "..", "db", "migrations")

	scripts, err := filepath.Glob(filepath.Join(dir, "*.up.sql"))
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	if len(scripts) == 0 {
		return nil, fmt.Errorf("no migrations in %s", dir)
	}
	sort.Strings(scripts)
	return scripts, nil
}

func skipShort(tb testing.TB, backend string) {
	tb.Helper()
	if testing.Short() {
		tb.Skipf("%s container disabled in short mode", backend)
	}
}
