package sqlstore

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"
	"sync"

	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog/log"
)

//go:embed migrations/mysql/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// goose keeps its base FS and dialect in package globals.
var gooseMu sync.Mutex

func withGoose(d Dialect, fn func() error) error {
	gooseMu.Lock()
	defer func() {
		goose.SetBaseFS(nil)
		gooseMu.Unlock()
	}()
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(gooseLogger{})
	dialect := "mysql"
	if d == SQLite {
		dialect = "sqlite3"
	}
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	return fn()
}

// gooseLogger sends goose output to the global zerolog logger.
type gooseLogger struct{}

func (gooseLogger) Printf(format string, v ...interface{}) {
	log.Info().Str("component", "goose").Msg(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (gooseLogger) Fatalf(format string, v ...interface{}) {
	log.Fatal().Str("component", "goose").Msg(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// Migrate applies every embedded migration for the dialect. Running it twice is a no-op.
func Migrate(ctx context.Context, db *sql.DB, d Dialect) error {
	return withGoose(d, func() error {
		if err := goose.UpContext(ctx, db, "migrations/"+string(d)); err != nil {
			return fmt.Errorf("apply %s migrations: %w", d, err)
		}
		return nil
	})
}

// MigrationVersion returns the latest applied migration.
func MigrationVersion(ctx context.Context, db *sql.DB, d Dialect) (int64, error) {
	var v int64
	err := withGoose(d, func() error {
		var err error
		v, err = goose.GetDBVersionContext(ctx, db)
		return err
	})
	return v, err
}
