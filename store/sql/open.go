package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strings"
	"time"

	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/goliatone/go-storeauth/migrations"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/schema"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"

	defaultPingTimeout = 5 * time.Second
)

// Config describes a database connection. It satisfies the configuration
// contract of go-persistence-bun.
type Config struct {
	Driver         string        `koanf:"driver" mapstructure:"driver"`
	DSN            string        `koanf:"dsn" mapstructure:"dsn"`
	Debug          bool          `koanf:"debug" mapstructure:"debug"`
	PingTimeout    time.Duration `koanf:"ping_timeout" mapstructure:"ping_timeout"`
	OtelIdentifier string        `koanf:"otel_identifier" mapstructure:"otel_identifier"`
	MaxOpenConns   int           `koanf:"max_open_conns" mapstructure:"max_open_conns"`
}

func (c Config) GetDebug() bool { return c.Debug }

func (c Config) GetDriver() string { return normalizeDriver(c.Driver) }

func (c Config) GetServer() string { return strings.TrimSpace(c.DSN) }

func (c Config) GetPingTimeout() time.Duration {
	if c.PingTimeout <= 0 {
		return defaultPingTimeout
	}
	return c.PingTimeout
}

func (c Config) GetOtelIdentifier() string {
	if strings.TrimSpace(c.OtelIdentifier) == "" {
		return "storeauth"
	}
	return strings.TrimSpace(c.OtelIdentifier)
}

// Open connects to the configured database and wraps it in a
// go-persistence-bun client using the matching bun dialect.
func Open(cfg Config) (*persistence.Client, error) {
	driver := normalizeDriver(cfg.Driver)
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, fmt.Errorf("sqlstore: dsn is required")
	}
	var dialect schema.Dialect
	switch driver {
	case DriverPostgres:
		dialect = pgdialect.New()
	case DriverSQLite:
		dialect = sqlitedialect.New()
	default:
		return nil, fmt.Errorf("sqlstore: unsupported driver %q", cfg.Driver)
	}

	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open %s: %w", driver, err)
	}
	switch {
	case cfg.MaxOpenConns > 0:
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	case driver == DriverSQLite:
		sqlDB.SetMaxOpenConns(1)
	}

	client, err := persistence.New(cfg, sqlDB, dialect)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("sqlstore: new persistence client: %w", err)
	}
	return client, nil
}

// Migrate registers the embedded migrations for the client's dialect and
// applies them.
func Migrate(ctx context.Context, client *persistence.Client, driver string) error {
	if client == nil {
		return fmt.Errorf("sqlstore: persistence client is required")
	}
	dialect := migrations.DialectForDriver(driver)
	if dialect == "" {
		return fmt.Errorf("sqlstore: unsupported driver %q", driver)
	}
	_, err := migrations.Register(ctx, func(_ context.Context, _ string, _ string, fsys fs.FS) error {
		client.RegisterSQLMigrations(fsys)
		return nil
	}, migrations.WithDialects(dialect))
	if err != nil {
		return err
	}
	return client.Migrate(ctx)
}

func normalizeDriver(driver string) string {
	switch strings.TrimSpace(strings.ToLower(driver)) {
	case "postgres", "postgresql", "pg":
		return DriverPostgres
	case "sqlite", "sqlite3":
		return DriverSQLite
	default:
		return strings.TrimSpace(strings.ToLower(driver))
	}
}
