package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hearthstone-io/hearthscout/internal/adapters/observability"
	"github.com/hearthstone-io/hearthscout/internal/domain"
	"github.com/hearthstone-io/hearthscout/internal/pipeline"
)

// QueryService serves delivered batches, post-hoc filtered views and
// aggregate stats, with a cache in front of the repository.
type QueryService struct {
	repo     domain.ListingRepository
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewQueryService(r domain.ListingRepository, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{repo: r, cache: c, cacheTTL: ttl}
}

func (s *QueryService) GetBatch(ctx context.Context, id int64) (domain.Batch, error) {
	key := fmt.Sprintf("batch:%d", id)
	var b domain.Batch
	if ok, _ := s.cache.Get(ctx, key, &b); ok {
		observability.ObserveCache("batch", "hit")
		return b, nil
	}
	observability.ObserveCache("batch", "miss")

	b, err := s.repo.GetBatch(ctx, id)
	if err != nil {
		return domain.Batch{}, err
	}

	// copy before caching so callers can't mutate the cached value
	cp := copyBatch(b)
	if raw, _ := json.Marshal(cp); len(raw) < 1_000_000 {
		_ = s.cache.Set(ctx, key, cp, int(s.cacheTTL.Seconds()))
		observability.ObserveCache("batch", "set")
	}
	return cp, nil
}

// Filter returns the batch narrowed to rows matching f. Sites ignore query
// parameters they do not support, so the same filter vocabulary is applied
// again here over the cleaned rows.
func (s *QueryService) Filter(ctx context.Context, id int64, f domain.Filters) (domain.Batch, error) {
	b, err := s.GetBatch(ctx, id)
	if err != nil {
		return domain.Batch{}, err
	}
	b.Rows = FilterRows(b.Rows, f)
	return b, nil
}

func (s *QueryService) Stats(ctx context.Context, id int64) (domain.BatchStats, error) {
	key := fmt.Sprintf("stats:%d", id)
	var st domain.BatchStats
	if ok, _ := s.cache.Get(ctx, key, &st); ok {
		observability.ObserveCache("stats", "hit")
		return st, nil
	}
	observability.ObserveCache("stats", "miss")

	b, err := s.repo.GetBatch(ctx, id)
	if err != nil {
		return domain.BatchStats{}, err
	}
	st = pipeline.Stats(b.Rows)
	_ = s.cache.Set(ctx, key, st, int(s.cacheTTL.Seconds()))
	observability.ObserveCache("stats", "set")
	return st, nil
}

// FilterRows applies the shared filter vocabulary to cleaned rows. A row
// missing the field a bound filters on is excluded, since its value cannot
// be shown to satisfy the bound. Listing-age and sold/pending flags only
// shape source queries; cleaned rows carry no status to filter on.
func FilterRows(rows []domain.CanonicalListing, f domain.Filters) []domain.CanonicalListing {
	out := make([]domain.CanonicalListing, 0, len(rows))
	for _, l := range rows {
		if f.MinPrice != nil && (l.Price == nil || *l.Price < *f.MinPrice) {
			continue
		}
		if f.MaxPrice != nil && (l.Price == nil || *l.Price > *f.MaxPrice) {
			continue
		}
		if f.MinBeds != nil && (l.Bedrooms == nil || *l.Bedrooms < *f.MinBeds) {
			continue
		}
		if f.MinBaths != nil && (l.Bathrooms == nil || *l.Bathrooms < *f.MinBaths) {
			continue
		}
		if len(f.PropertyTypes) > 0 && !containsType(f.PropertyTypes, l.PropertyType) {
			continue
		}
		if len(f.Sources) > 0 && !matchesSource(f.Sources, l.Source) {
			continue
		}
		if len(f.Cities) > 0 && (l.City == nil || !containsFold(f.Cities, *l.City)) {
			continue
		}
		out = append(out, l)
	}
	return out
}

func containsType(ts []domain.PropertyType, t domain.PropertyType) bool {
	for _, v := range ts {
		if v == t {
			return true
		}
	}
	return false
}

// matchesSource compares by prefix so "zillow" matches both "Zillow" and
// "Zillow (Sample)".
func matchesSource(ids []string, label string) bool {
	low := strings.ToLower(label)
	for _, id := range ids {
		if strings.HasPrefix(low, strings.ToLower(strings.TrimSpace(id))) {
			return true
		}
	}
	return false
}

func containsFold(vals []string, v string) bool {
	for _, c := range vals {
		if strings.EqualFold(strings.TrimSpace(c), v) {
			return true
		}
	}
	return false
}

func copyBatch(in domain.Batch) domain.Batch {
	out := in
	if n := len(in.Rows); n > 0 {
		out.Rows = make([]domain.CanonicalListing, n)
		copy(out.Rows, in.Rows)
	}
	out.Sources = append([]string(nil), in.Sources...)
	return out
}
