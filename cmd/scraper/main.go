package main

import (
	"context"
	"database/sql"
	"flag"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"github.com/hearthstone-io/hearthscout/internal/adapters/fetch"
	"github.com/hearthstone-io/hearthscout/internal/adapters/observability"
	"github.com/hearthstone-io/hearthscout/internal/adapters/sources"
	"github.com/hearthstone-io/hearthscout/internal/app"
	"github.com/hearthstone-io/hearthscout/internal/shared"
	mysqlrepo "github.com/hearthstone-io/hearthscout/internal/storage/mysql"
)

func main() {
	location := flag.String("location", "", "location to search, e.g. \"Seattle, WA\"")
	srcList := flag.String("sources", "zillow,realtor,trulia", "comma-separated source ids")
	limit := flag.Int("limit", 0, "result cap per source (0 = config default)")
	demo := flag.Bool("demo", false, "skip the network and deliver synthetic rows")
	flag.Parse()

	ctx := context.Background()
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	if *location == "" {
		log.Fatal().Msg("-location is required")
	}
	ids := strings.Split(*srcList, ",")

	log.Info().
		Str("location", *location).
		Strs("sources", ids).
		Int("workers", cfg.SourceWorkers).
		Bool("demo", *demo).
		Msg("scraper starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)

	policy := fetch.DefaultRetryPolicy()
	policy.MaxAttempts = cfg.MaxAttempts
	fetcher := fetch.New(fetch.Options{
		Timeout:  cfg.FetchTimeout,
		RPS:      cfg.FetchRPS,
		Policy:   policy,
		MinDelay: cfg.MinDelay,
		MaxDelay: cfg.MaxDelay,
	})

	svc := app.NewScrapeService(fetcher, sources.DefaultRegistry(), repo, cfg.SourceWorkers, cfg.DefaultLimit)

	batch, err := svc.Scrape(ctx, app.ScrapeRequest{
		Location: *location,
		Sources:  ids,
		Limit:    *limit,
		Demo:     *demo,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("scrape failed")
	}

	var samples int
	for _, l := range batch.Rows {
		if strings.HasSuffix(l.Source, sources.SampleSuffix) {
			samples++
		}
	}

	log.Info().
		Int64("batch", batch.ID).
		Int("rows", len(batch.Rows)).
		Int("synthetic", samples).
		Msg("scrape completed")
}
