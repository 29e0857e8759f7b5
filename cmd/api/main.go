package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"travelshop/internal/adapters/authn"
	server "travelshop/internal/adapters/http_server"
	"travelshop/internal/adapters/objectstore"
	"travelshop/internal/adapters/observability"
	redisad "travelshop/internal/adapters/redis"
	"travelshop/internal/adapters/richtext"
	"travelshop/internal/app"
	"travelshop/internal/domain"
	"travelshop/internal/shared"
	"travelshop/internal/storage/sqlstore"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := observability.InitRegistry()
	observability.Serve(ctx, cfg.MetricsAddr, reg)

	// db
	dialect, err := sqlstore.ParseDialect(cfg.DBDriver)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid DB_DRIVER")
	}
	db, err := sqlstore.Open(ctx, dialect, cfg.DatabaseDSN())
	if err != nil {
		log.Fatal().Err(err).Msg("database open failed")
	}
	defer db.Close()
	log.Info().Str("driver", string(dialect)).Msg("database connection ok")

	if cfg.AutoMigrate {
		if err := sqlstore.Migrate(ctx, db, dialect); err != nil {
			log.Fatal().Err(err).Msg("migrate failed")
		}
	}

	// deps
	repo := sqlstore.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cache.Close()
	if err := cache.Ping(ctx); err != nil {
		log.Warn().Err(err).Msg("redis unreachable; reads fall through to the database")
	}

	tokens, err := authn.NewTokens(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("token service init failed")
	}

	var store domain.ObjectStore
	if cfg.StorageBase != "" && cfg.StorageKey != "" {
		c, err := objectstore.New(cfg.StorageBase, cfg.StorageKey, cfg.StorageRPS)
		if err != nil {
			log.Fatal().Err(err).Msg("object store init failed")
		}
		store = c
	}

	h := &server.Handlers{
		Q:     app.NewQueryService(repo, repo, cache, cfg.CacheTTL),
		Admin: app.NewAdminService(repo, repo, repo, cache, store, cfg.StorageBucket),
		Auth:  app.NewAuthService(repo, tokens, authn.Bcrypt{}),
		Resv:  app.NewReservationService(repo, repo),
		Text:  richtext.New(),
		Login: server.NewIPLimiter(cfg.LoginRPS, 5),
	}

	// http
	srv := server.New(server.TrustProxyHeaders(cfg.TrustProxyHeaders))
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(h)

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Mux(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("http shutdown failed")
		}
	}()

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
	log.Info().Msg("API stopped")
}
