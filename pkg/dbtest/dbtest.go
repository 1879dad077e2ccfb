// Package dbtest boots an ephemeral PostgreSQL container once per test
// binary and hands out a per-test schema sandbox, so integration tests
// (pkg/dbtest's own and internal/demoserver's) can round-trip real SQL
// without sharing mutable state between tests. A sync.Once guards the
// container boot, an admin connection mints a fresh schema and DSN per
// test, and t.Cleanup drops the schema afterward.
package dbtest

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"net/url"
	"sync"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

type config struct {
	image    string
	dbName   string
	user     string
	password string
	gooseUp  bool
	gooseFS  fs.FS
}

// Option configures BootOnce. Unset fields fall back to a local
// postgres:16-alpine container with throwaway credentials.
type Option func(*config)

func WithImage(image string) Option     { return func(c *config) { c.image = image } }
func WithDBName(name string) Option     { return func(c *config) { c.dbName = name } }
func WithUser(user string) Option       { return func(c *config) { c.user = user } }
func WithPassword(pass string) Option   { return func(c *config) { c.password = pass } }

// WithMigrations enables goose.Up against migFS before the container is
// handed back to callers.
func WithMigrations(migFS fs.FS) Option {
	return func(c *config) {
		c.gooseUp = true
		c.gooseFS = migFS
	}
}

var (
	bootOnce   sync.Once
	booted     bool
	bootErr    error
	container  *postgres.PostgresContainer
	connString string
)

func boot(ctx context.Context, c *config) error {
	if c.image == "" {
		c.image = "docker.io/postgres:16-alpine"
	}
	if c.dbName == "" {
		c.dbName = "demiplane"
	}
	if c.user == "" {
		c.user = "demiplane"
	}
	if c.password == "" {
		c.password = "demiplane"
	}

	ctr, err := postgres.Run(ctx,
		c.image,
		postgres.WithDatabase(c.dbName),
		postgres.WithUsername(c.user),
		postgres.WithPassword(c.password),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		return fmt.Errorf("dbtest: starting postgres container: %w", err)
	}
	container = ctr

	host, err := ctr.Host(ctx)
	if err != nil {
		return fmt.Errorf("dbtest: resolving container host: %w", err)
	}
	port, err := ctr.MappedPort(ctx, "5432/tcp")
	if err != nil {
		return fmt.Errorf("dbtest: resolving container port: %w", err)
	}
	connString = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.user, c.password, host, port.Port(), c.dbName)

	if c.gooseUp {
		if c.gooseFS == nil {
			return fmt.Errorf("dbtest: WithMigrations requires a non-nil fs.FS")
		}
		db, err := sql.Open("pgx", connString)
		if err != nil {
			return fmt.Errorf("dbtest: opening migration connection: %w", err)
		}
		defer db.Close()

		goose.SetBaseFS(c.gooseFS)
		if err := goose.SetDialect("postgres"); err != nil {
			return fmt.Errorf("dbtest: setting goose dialect: %w", err)
		}
		if err := goose.Up(db, "."); err != nil {
			return fmt.Errorf("dbtest: running migrations: %w", err)
		}
	}
	return nil
}

// BootOnce starts the shared container the first time it's called in a
// test binary; every subsequent call (even with different options) is a
// no-op that just re-checks bootErr. Call it from TestMain.
func BootOnce(t *testing.T, opts ...Option) {
	t.Helper()
	bootOnce.Do(func() {
		booted = true
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		cfg := &config{}
		for _, o := range opts {
			o(cfg)
		}
		bootErr = boot(ctx, cfg)
	})
	if bootErr != nil {
		t.Fatalf("dbtest: boot failed: %v", bootErr)
	}
}

// ShutdownNow terminates the shared container; tests don't normally
// need to call this, since the process exiting reclaims it, but a
// TestMain may want an explicit teardown.
func ShutdownNow() error {
	if container == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return container.Terminate(ctx)
}

// Sandbox is one test's private PostgreSQL schema: a connection pooled
// against that schema's search_path. There is no Close method: NewSandbox
// registers a t.Cleanup that drops the schema and closes the connections.
type Sandbox struct {
	DB     *sql.DB
	DSN    string
	Schema string
}

// NewSandbox creates a fresh schema on the shared container and returns
// a Sandbox scoped to it, registering its cleanup with t.Cleanup.
// BootOnce must have already run (typically from TestMain).
func NewSandbox(t *testing.T) *Sandbox {
	t.Helper()
	if !booted {
		t.Fatalf("dbtest: container not booted; call dbtest.BootOnce in TestMain first")
	}

	admin, err := sql.Open("pgx", connString)
	if err != nil {
		t.Fatalf("dbtest: opening admin connection: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	schema := fmt.Sprintf("sbx_%x", time.Now().UnixNano())
	if _, err := admin.ExecContext(ctx, `CREATE SCHEMA "`+schema+`"`); err != nil {
		t.Fatalf("dbtest: creating schema %q: %v", schema, err)
	}

	dsn := withSearchPath(connString, schema)
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("dbtest: opening sandbox connection: %v", err)
	}

	sbx := &Sandbox{DB: db, DSN: dsn, Schema: schema}
	t.Cleanup(func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_, _ = admin.ExecContext(cleanupCtx, `DROP SCHEMA IF EXISTS "`+schema+`" CASCADE`)
		_ = db.Close()
		_ = admin.Close()
	})
	return sbx
}

func withSearchPath(base, schema string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	q := u.Query()
	q.Set("options", fmt.Sprintf("-csearch_path=%s,public", schema))
	u.RawQuery = q.Encode()
	return u.String()
}
