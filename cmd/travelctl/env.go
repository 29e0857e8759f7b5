package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"travelshop/internal/adapters/authn"
	redisad "travelshop/internal/adapters/redis"
	"travelshop/internal/app"
	"travelshop/internal/domain"
	"travelshop/internal/shared"
	"travelshop/internal/storage/sqlstore"
)

var errNotMigrated = errors.New("database has no schema yet; run `travelctl migrate` first")

// cliEnv opens dependencies lazily so each subcommand only touches what it needs.
type cliEnv struct {
	cfg     shared.Config
	dialect sqlstore.Dialect
	db      *sql.DB
	repo    *sqlstore.Repo
	cache   *redisad.Cache
}

func (e *cliEnv) openDB(ctx context.Context) (*sqlstore.Repo, error) {
	if e.repo != nil {
		return e.repo, nil
	}
	d, err := sqlstore.ParseDialect(e.cfg.DBDriver)
	if err != nil {
		return nil, err
	}
	db, err := sqlstore.Open(ctx, d, e.cfg.DatabaseDSN())
	if err != nil {
		return nil, err
	}
	e.dialect, e.db, e.repo = d, db, sqlstore.New(db)
	return e.repo, nil
}

// migratedRepo opens the database and refuses to continue on an empty schema.
func (e *cliEnv) migratedRepo(ctx context.Context) (*sqlstore.Repo, error) {
	repo, err := e.openDB(ctx)
	if err != nil {
		return nil, err
	}
	v, err := sqlstore.MigrationVersion(ctx, e.db, e.dialect)
	if err != nil {
		return nil, fmt.Errorf("read schema version: %w", err)
	}
	if v < 1 {
		return nil, errNotMigrated
	}
	return repo, nil
}

// optionalCache returns nil when redis is unreachable; callers treat the cache as best effort.
func (e *cliEnv) optionalCache(ctx context.Context) domain.Cache {
	if e.cache == nil {
		e.cache = redisad.New(e.cfg.RedisAddr, e.cfg.RedisPass, e.cfg.RedisDB)
	}
	if err := e.cache.Ping(ctx); err != nil {
		log.Warn().Err(err).Str("addr", e.cfg.RedisAddr).Msg("redis unreachable; skipping cache invalidation")
		return nil
	}
	return e.cache
}

func (e *cliEnv) authService(repo *sqlstore.Repo) (*app.AuthService, error) {
	tokens, err := authn.NewTokens(e.cfg.JWTSecret, e.cfg.JWTIssuer, e.cfg.JWTTTL)
	if err != nil {
		return nil, err
	}
	return app.NewAuthService(repo, tokens, authn.Bcrypt{}), nil
}

func (e *cliEnv) close() {
	if e.cache != nil {
		_ = e.cache.Close()
	}
	if e.db != nil {
		_ = e.db.Close()
	}
}
