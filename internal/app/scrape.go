package app

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"github.com/hearthstone-io/hearthscout/internal/adapters/observability"
	"github.com/hearthstone-io/hearthscout/internal/adapters/sources"
	"github.com/hearthstone-io/hearthscout/internal/domain"
	"github.com/hearthstone-io/hearthscout/internal/pipeline"
)

// ScrapeRequest is one acquisition run: a location, the sources to hit, a
// per-source result cap and the shared filter set. Demo skips the network
// entirely and delivers synthetic rows for every source.
type ScrapeRequest struct {
	Location string         `json:"location"`
	Sources  []string       `json:"sources"`
	Limit    int            `json:"limit"`
	Filters  domain.Filters `json:"filters"`
	Demo     bool           `json:"demo"`
}

// ScrapeService fetches and parses every requested source concurrently,
// merges the raw rows, runs one cleaning pass over the union and persists
// the delivered batch. A source that is blocked, unreachable or empty is
// replaced by clearly labeled synthetic rows, so a delivered batch is only
// empty when the caller asked for zero sources.
type ScrapeService struct {
	fetcher      domain.Fetcher
	registry     *sources.Registry
	repo         domain.ListingRepository
	workers      int64
	defaultLimit int

	// seed feeds the synthetic generator; swapped for a constant in tests.
	seed func() int64
}

func NewScrapeService(f domain.Fetcher, reg *sources.Registry, repo domain.ListingRepository, workers, defaultLimit int) *ScrapeService {
	if workers < 1 {
		workers = 1
	}
	if defaultLimit < 1 {
		defaultLimit = 20
	}
	return &ScrapeService{
		fetcher:      f,
		registry:     reg,
		repo:         repo,
		workers:      int64(workers),
		defaultLimit: defaultLimit,
		seed:         func() int64 { return time.Now().UnixNano() },
	}
}

// fallbackCount keeps synthetic batches visibly smaller than a full page but
// never trivially small.
func fallbackCount(limit int) int {
	if n := limit / 2; n > 5 {
		return n
	}
	return 5
}

// Scrape runs one acquisition pass. Cancelling ctx aborts in-flight fetches;
// sources that already finished still flow into the cleaning pass.
func (s *ScrapeService) Scrape(ctx context.Context, req ScrapeRequest) (domain.Batch, error) {
	location := strings.TrimSpace(req.Location)
	if location == "" {
		return domain.Batch{}, domain.ErrEmptyLocation
	}
	limit := req.Limit
	if limit <= 0 {
		limit = s.defaultLimit
	}

	adapters := make([]domain.SourceAdapter, 0, len(req.Sources))
	for _, id := range req.Sources {
		ad, err := s.registry.Get(id)
		if err != nil {
			return domain.Batch{}, err
		}
		adapters = append(adapters, ad)
	}

	sem := semaphore.NewWeighted(s.workers)
	results := make([][]domain.RawListingRecord, len(adapters))
	var wg sync.WaitGroup

	for i, ad := range adapters {
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Warn().Err(err).Str("source", ad.ID()).Msg("scrape cancelled before source started")
			break
		}
		wg.Add(1)
		go func(i int, ad domain.SourceAdapter) {
			defer wg.Done()
			defer sem.Release(1)
			results[i] = s.collect(ctx, ad, location, limit, req)
		}(i, ad)
	}
	wg.Wait()

	var merged []domain.RawListingRecord
	for _, rs := range results {
		merged = append(merged, rs...)
	}

	batch := domain.Batch{
		Location:  location,
		Sources:   append([]string(nil), req.Sources...),
		Rows:      pipeline.Run(merged),
		CreatedAt: time.Now().UTC(),
	}

	if s.repo != nil {
		if err := s.repo.InsertBatch(ctx, &batch); err != nil {
			return domain.Batch{}, err
		}
	}

	log.Info().
		Str("location", location).
		Strs("sources", req.Sources).
		Int("rows", len(batch.Rows)).
		Int64("batch", batch.ID).
		Msg("batch delivered")
	return batch, nil
}

// collect produces the raw rows for one source: live extraction when it
// works, synthetic fallback when it does not.
func (s *ScrapeService) collect(ctx context.Context, ad domain.SourceAdapter, location string, limit int, req ScrapeRequest) []domain.RawListingRecord {
	if req.Demo {
		return s.fallback(ad, location, limit, "demo mode")
	}

	url := ad.SearchURL(location, limit, req.Filters)
	body, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		log.Warn().Err(err).Str("source", ad.ID()).Str("url", url).Msg("fetch failed, falling back")
		return s.fallback(ad, location, limit, "fetch failed")
	}

	records, skips := ad.Extract(body, limit)
	observability.ObserveCards(ad.ID(), len(records), len(skips))
	for _, sk := range skips {
		log.Debug().Str("source", sk.Source).Int("card", sk.Card).Str("reason", sk.Reason).Msg("card skipped")
	}
	if len(records) == 0 {
		log.Warn().Str("source", ad.ID()).Msg("no cards parsed, falling back")
		return s.fallback(ad, location, limit, "empty page")
	}
	return records
}

func (s *ScrapeService) fallback(ad domain.SourceAdapter, location string, limit int, why string) []domain.RawListingRecord {
	observability.ObserveFallback(ad.ID())
	n := fallbackCount(limit)
	log.Info().Str("source", ad.ID()).Int("rows", n).Str("reason", why).Msg("generating synthetic rows")
	return sources.NewGenerator(s.seed()).Generate(location, n, ad.Label())
}
