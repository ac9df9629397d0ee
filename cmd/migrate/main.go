// Package main applies the database migrations under migrations/.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/pflag"
)

const (
	databaseURLFlag    = "database-url"
	migrationsPathFlag = "migrations-path"
)

type options struct {
	databaseURL    string
	migrationsPath string
	down           bool
	steps          int
}

func main() {
	opts := parseFlags(os.Args[1:])
	if err := validate(opts); err != nil {
		slog.Error("invalid arguments", "error", err)
		os.Exit(2)
	}

	if err := run(opts); err != nil {
		slog.Error("failed to migrate", "error", err)
		os.Exit(1)
	}
}

// migrationLogger adapts slog to migrate.Logger.
type migrationLogger struct {
	logger *slog.Logger
}

func (l *migrationLogger) Printf(format string, v ...any) {
	l.logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l *migrationLogger) Verbose() bool {
	return true
}

func parseFlags(args []string) options {
	fs := pflag.NewFlagSet("migrate", pflag.ExitOnError)

	var opts options
	fs.StringVarP(&opts.databaseURL, databaseURLFlag, "d", os.Getenv("DATABASE_URL"), "PostgreSQL connection URL (default $DATABASE_URL)")
	fs.StringVarP(&opts.migrationsPath, migrationsPathFlag, "m", "migrations", "directory holding the *.sql migrations")
	fs.BoolVar(&opts.down, "down", false, "roll back instead of applying")
	fs.IntVarP(&opts.steps, "steps", "n", 0, "number of migrations to apply or roll back (0 means all)")
	_ = fs.Parse(args)

	return opts
}

func validate(opts options) error {
	var errs []error

	if opts.databaseURL == "" {
		errs = append(errs, fmt.Errorf("--%s flag: required", databaseURLFlag))
	}
	if opts.migrationsPath == "" {
		errs = append(errs, fmt.Errorf("--%s flag: required", migrationsPathFlag))
	}
	if opts.steps < 0 {
		errs = append(errs, errors.New("--steps must not be negative"))
	}

	return errors.Join(errs...)
}

func run(opts options) error {
	m, err := migrate.New("file://"+opts.migrationsPath, pgxURL(opts.databaseURL))
	if err != nil {
		return err
	}
	defer m.Close()

	m.Log = &migrationLogger{logger: slog.Default()}

	switch {
	case opts.steps > 0 && opts.down:
		err = m.Steps(-opts.steps)
	case opts.steps > 0:
		err = m.Steps(opts.steps)
	case opts.down:
		err = m.Down()
	default:
		err = m.Up()
	}

	if errors.Is(err, migrate.ErrNoChange) {
		m.Log.Printf("no migrations to apply")
		return nil
	}
	if err != nil {
		return err
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return err
	}
	slog.Info("migrations applied", "version", version, "dirty", dirty)
	return nil
}

// pgxURL rewrites a postgres:// URL to the scheme the pgx/v5 driver registers.
func pgxURL(databaseURL string) string {
	for _, scheme := range []string{"postgres://", "postgresql://"} {
		if strings.HasPrefix(databaseURL, scheme) {
			return "pgx5://" + strings.TrimPrefix(databaseURL, scheme)
		}
	}
	return databaseURL
}
