package domain

import "context"

// Fetcher retrieves one URL's body. Implementations own identity rotation,
// pacing and retries; callers supply only the bare URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// SourceAdapter translates one site's markup conventions into raw records.
// Extract never fails on a bad card: the card is skipped and the reason is
// reported alongside the parsed rows. Zero cards is an empty result, not an
// error; the orchestrator decides whether to fall back to synthetic data.
type SourceAdapter interface {
	// ID is the registry key, e.g. "zillow".
	ID() string
	// Label is the provenance name carried on rows, e.g. "Zillow".
	Label() string
	// SearchURL maps the shared filter vocabulary onto the site's own
	// query-parameter dialect.
	SearchURL(location string, limit int, f Filters) string
	Extract(html []byte, limit int) ([]RawListingRecord, []CardSkip)
}

// ListingRepository persists delivered batches.
type ListingRepository interface {
	InsertBatch(ctx context.Context, b *Batch) error
	GetBatch(ctx context.Context, id int64) (Batch, error)
}

// Cache is a batch-run-scoped key/value store (Redis in production,
// in-memory fakes in tests).
type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
