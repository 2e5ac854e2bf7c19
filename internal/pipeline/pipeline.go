// Package pipeline turns raw scraped rows into canonical listings. It runs a
// fixed stage order over whole batches: per-row cleaning, batch outlier
// flagging, derived fields, value scoring, investment rating and quality
// scoring. One timestamp covers the whole pass.
package pipeline

import (
	"time"

	"github.com/hearthstone-io/hearthscout/internal/adapters/observability"
	"github.com/hearthstone-io/hearthscout/internal/domain"
)

// now is swapped out in tests.
var now = time.Now

// Run validates and enriches one batch of raw rows. The input is never
// mutated and rows are returned in input order; re-running the output
// through the same pass yields the same values.
func Run(raw []domain.RawListingRecord) []domain.CanonicalListing {
	start := time.Now()

	rows := make([]domain.CanonicalListing, len(raw))
	for i := range raw {
		rows[i] = ingest(raw[i])
	}

	flagOutliers(rows)

	for i := range rows {
		deriveRow(&rows[i])
	}
	scoreValues(rows)
	rateInvestments(rows)

	stamp := now().UTC()
	for i := range rows {
		scoreQuality(&rows[i])
		rows[i].ValidatedAt = stamp
	}

	observability.ObservePipeline(len(rows), time.Since(start))
	return rows
}
