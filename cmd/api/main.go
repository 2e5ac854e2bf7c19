package main

import (
	"database/sql"
	"net/http"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"github.com/hearthstone-io/hearthscout/internal/adapters/detail"
	"github.com/hearthstone-io/hearthscout/internal/adapters/fetch"
	server "github.com/hearthstone-io/hearthscout/internal/adapters/http_server"
	"github.com/hearthstone-io/hearthscout/internal/adapters/observability"
	redisad "github.com/hearthstone-io/hearthscout/internal/adapters/redis"
	"github.com/hearthstone-io/hearthscout/internal/adapters/sources"
	"github.com/hearthstone-io/hearthscout/internal/app"
	"github.com/hearthstone-io/hearthscout/internal/shared"
	mysqlrepo "github.com/hearthstone-io/hearthscout/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve()

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	// deps
	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	policy := fetch.DefaultRetryPolicy()
	policy.MaxAttempts = cfg.MaxAttempts
	fetcher := fetch.New(fetch.Options{
		Timeout:  cfg.FetchTimeout,
		RPS:      cfg.FetchRPS,
		Policy:   policy,
		MinDelay: cfg.MinDelay,
		MaxDelay: cfg.MaxDelay,
	})
	registry := sources.DefaultRegistry()

	scrapes := app.NewScrapeService(fetcher, registry, repo, cfg.SourceWorkers, cfg.DefaultLimit)
	q := app.NewQueryService(repo, cache, cfg.CacheTTL)

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{
		Scrapes: scrapes,
		Q:       q,
		Detail:  detail.New(fetcher),
		Sources: registry.IDs(),
	})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
