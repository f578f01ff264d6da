package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"slices"
	"strings"

	storeauth "github.com/goliatone/go-storeauth"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"

	rootPath     = "data/sql/migrations"
	defaultLabel = "go-storeauth"
	upSuffix     = ".up.sql"
	downSuffix   = ".down.sql"
)

// Source is the migration set of one SQL dialect.
type Source struct {
	Dialect  string
	Path     string
	FS       fs.FS
	Versions []string
}

type Registration struct {
	SourceLabel string
	Dialects    []string
	Sources     []Source
}

type RegisterFunc func(ctx context.Context, dialect string, sourceLabel string, fsys fs.FS) error

type Option func(*Registration)

func WithSourceLabel(label string) Option {
	return func(r *Registration) {
		if trimmed := strings.TrimSpace(label); trimmed != "" {
			r.SourceLabel = trimmed
		}
	}
}

// WithDialects limits registration to the named dialects. Driver names such
// as sqlite3 or postgresql are accepted.
func WithDialects(dialects ...string) Option {
	return func(r *Registration) {
		next := make([]string, 0, len(dialects))
		for _, dialect := range dialects {
			if normalized := DialectForDriver(dialect); normalized != "" && !slices.Contains(next, normalized) {
				next = append(next, normalized)
			}
		}
		if len(next) > 0 {
			r.Dialects = next
		}
	}
}

// DialectForDriver maps a database/sql driver name to its migration dialect.
// Unknown drivers map to "".
func DialectForDriver(driver string) string {
	switch strings.TrimSpace(strings.ToLower(driver)) {
	case "postgres", "postgresql", "pg":
		return DialectPostgres
	case "sqlite", "sqlite3":
		return DialectSQLite
	default:
		return ""
	}
}

// Sources resolves the postgres set at data/sql/migrations and the sqlite set
// beneath it. Every up migration needs a down counterpart, and both dialects
// must carry the same versions.
func Sources(root fs.FS) ([]Source, error) {
	if root == nil {
		root = storeauth.GetMigrationsFS()
	}
	base, err := fs.Sub(root, rootPath)
	if err != nil {
		return nil, fmt.Errorf("migrations: resolve %s: %w", rootPath, err)
	}
	sqliteFS, err := fs.Sub(base, "sqlite")
	if err != nil {
		return nil, fmt.Errorf("migrations: resolve sqlite filesystem: %w", err)
	}

	sources := []Source{
		{Dialect: DialectPostgres, Path: rootPath, FS: base},
		{Dialect: DialectSQLite, Path: rootPath + "/sqlite", FS: sqliteFS},
	}
	for i := range sources {
		versions, err := versions(sources[i])
		if err != nil {
			return nil, err
		}
		sources[i].Versions = versions
	}
	if !slices.Equal(sources[0].Versions, sources[1].Versions) {
		return nil, fmt.Errorf("migrations: postgres versions %v differ from sqlite versions %v",
			sources[0].Versions, sources[1].Versions)
	}
	return sources, nil
}

func versions(source Source) ([]string, error) {
	ups, err := fs.Glob(source.FS, "*"+upSuffix)
	if err != nil {
		return nil, fmt.Errorf("migrations: glob %s: %w", source.Path, err)
	}
	if len(ups) == 0 {
		return nil, fmt.Errorf("migrations: %s has no %s files", source.Path, upSuffix)
	}
	out := make([]string, 0, len(ups))
	for _, up := range ups {
		version := strings.TrimSuffix(up, upSuffix)
		if _, err := fs.Stat(source.FS, version+downSuffix); err != nil {
			return nil, fmt.Errorf("migrations: %s/%s has no down migration", source.Path, up)
		}
		out = append(out, version)
	}
	slices.Sort(out)
	return out, nil
}

// Register hands each selected dialect's filesystem to registerFn, e.g.
// persistence.Client.RegisterSQLMigrations.
func Register(ctx context.Context, registerFn RegisterFunc, opts ...Option) (Registration, error) {
	reg := Registration{
		SourceLabel: defaultLabel,
		Dialects:    []string{DialectPostgres, DialectSQLite},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&reg)
		}
	}
	if registerFn == nil {
		return reg, fmt.Errorf("migrations: register function is required")
	}

	sources, err := Sources(nil)
	if err != nil {
		return reg, err
	}
	reg.Sources = sources

	for _, source := range sources {
		if !slices.Contains(reg.Dialects, source.Dialect) {
			continue
		}
		if err := registerFn(ctx, source.Dialect, reg.SourceLabel, source.FS); err != nil {
			return reg, fmt.Errorf("migrations: register %s (%s): %w", source.Dialect, source.Path, err)
		}
	}
	return reg, nil
}
