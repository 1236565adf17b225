package database

import (
	"context"
	"embed"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/trezcool/unitrack/core"
)

const sqliteDriver = "sqlite"

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

func init() {
	sqlx.BindDriver(sqliteDriver, sqlx.QUESTION)
}

func sqliteDSN(conf *core.Config) string {
	path := conf.Database.Path
	if path == "" {
		path = ":memory:"
	}
	return path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func postgresDSN(conf *core.Config) string {
	sslMode := "require"
	if conf.Database.DisableTLS {
		sslMode = "disable"
	}
	q := make(url.Values)
	q.Set("sslmode", sslMode)
	q.Set("timezone", "utc")

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(conf.Database.User, conf.Database.Password),
		Host:     conf.Address(),
		Path:     conf.Database.Name,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// Open connects to the configured engine and waits for it to be ready.
// SQLite is limited to a single connection: statements are serialized and an
// in-memory database lives as long as the returned handle.
func Open(conf *core.Config) (*sqlx.DB, error) {
	var (
		db  *sqlx.DB
		err error
	)
	switch {
	case conf.IsSQLite():
		if db, err = sqlx.Open(sqliteDriver, sqliteDSN(conf)); err != nil {
			return nil, errors.Wrap(err, "opening sqlite database")
		}
		db.SetMaxOpenConns(1)
	case conf.IsPostgres():
		if db, err = sqlx.Open("postgres", postgresDSN(conf)); err != nil {
			return nil, errors.Wrap(err, "opening postgres database")
		}
	default:
		return nil, errors.Errorf("unsupported database engine %q", conf.Database.Engine)
	}

	if err = ping(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if conf.IsSQLite() {
		if _, err = db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			_ = db.Close()
			return nil, errors.Wrap(err, "enabling foreign keys")
		}
	}
	return db, nil
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(db *sqlx.DB) error {
	var err error
	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		err = db.Ping()
		if err == nil {
			break
		}
		time.Sleep(time.Duration(attempts) * 100 * time.Millisecond)
	}

	if err != nil {
		return errors.Wrap(err, "DB ping timeout")
	}
	return nil
}

// NewMigrator returns a goose provider over the embedded migrations of the db's dialect.
func NewMigrator(db *sqlx.DB) (*goose.Provider, error) {
	dialect, dir := goose.DialectSQLite3, "migrations/sqlite"
	if db.DriverName() == "postgres" {
		dialect, dir = goose.DialectPostgres, "migrations/postgres"
	}
	fsys, err := fs.Sub(migrationsFS, dir)
	if err != nil {
		return nil, errors.Wrap(err, "opening migrations")
	}
	provider, err := goose.NewProvider(dialect, db.DB, fsys)
	if err != nil {
		return nil, errors.Wrap(err, "creating migration provider")
	}
	return provider, nil
}

// Migrate applies every pending migration.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	provider, err := NewMigrator(db)
	if err != nil {
		return err
	}
	if _, err = provider.Up(ctx); err != nil {
		return errors.Wrap(err, "migrating database")
	}
	return nil
}

// RunMigration runs a single migration command and reports the outcome to w.
// Commands: up, up-by-one, up-to VERSION, down, down-to VERSION, status, version.
func RunMigration(ctx context.Context, db *sqlx.DB, w io.Writer, command string, args ...string) error {
	version := func() (int64, error) {
		if len(args) == 0 {
			return 0, fmt.Errorf("%s must be of form: migrate %s VERSION", command, command)
		}
		v, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("version must be a number (got '%s')", args[0])
		}
		return v, nil
	}

	var (
		results []*goose.MigrationResult
		v       int64
		err     error
	)
	switch command {
	case "up", "up-by-one", "down", "status", "version": // pass
	case "up-to", "down-to":
		if v, err = version(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%q: no such command", command)
	}

	provider, err := NewMigrator(db)
	if err != nil {
		return err
	}

	switch command {
	case "up":
		results, err = provider.Up(ctx)
	case "up-to":
		results, err = provider.UpTo(ctx, v)
	case "down-to":
		results, err = provider.DownTo(ctx, v)
	case "up-by-one", "down":
		var res *goose.MigrationResult
		if command == "down" {
			res, err = provider.Down(ctx)
		} else {
			res, err = provider.UpByOne(ctx)
		}
		if res != nil {
			results = append(results, res)
		}
	case "status":
		statuses, err := provider.Status(ctx)
		if err != nil {
			return errors.Wrap(err, "reading migration status")
		}
		for _, st := range statuses {
			applied := "Pending"
			if st.State == goose.StateApplied {
				applied = st.AppliedAt.Format(time.RFC3339)
			}
			_, _ = fmt.Fprintf(w, "%-25s %s\n", applied, st.Source.Path)
		}
		return nil
	case "version":
		cur, err := provider.GetDBVersion(ctx)
		if err != nil {
			return errors.Wrap(err, "reading database version")
		}
		_, _ = fmt.Fprintf(w, "version %d\n", cur)
		return nil
	}

	for _, res := range results {
		_, _ = fmt.Fprintln(w, res)
	}
	if err != nil && !errors.Is(err, goose.ErrNoNextVersion) && !errors.Is(err, goose.ErrNoCurrentVersion) {
		return errors.Wrapf(err, "migrate %s", command)
	}
	return nil
}
