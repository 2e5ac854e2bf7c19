package pipeline

import (
	"math"
	"sort"

	"github.com/hearthstone-io/hearthscout/internal/domain"
)

// Outlier detection needs enough rows for the percentile surrogates to mean
// anything; below this threshold every row is kept unflagged.
const minOutlierBatch = 10

// quantile is the linearly interpolated quantile over a sorted slice.
// stats.Percentile rejects low percentiles on small samples, which would
// turn flagging off for batches just over the threshold, so the fences
// interpolate directly.
func quantile(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// fences returns the IQR-style fences over vals using the 5th and 95th
// percentiles as quartile surrogates, which tolerates the heavy tails of
// scraped prices better than the classic p25/p75 pair.
func fences(vals []float64) (lo, hi float64, ok bool) {
	if len(vals) < 2 {
		return 0, 0, false
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	p5 := quantile(sorted, 0.05)
	p95 := quantile(sorted, 0.95)
	iqr := p95 - p5
	return p5 - 1.5*iqr, p95 + 1.5*iqr, true
}

// flagOutliers sets PriceOutlier and AreaOutlier over the whole batch.
// Outliers are flagged, never removed. Batches of minOutlierBatch rows or
// fewer pass through untouched.
func flagOutliers(rows []domain.CanonicalListing) {
	if len(rows) <= minOutlierBatch {
		return
	}

	var prices, areas []float64
	for i := range rows {
		if rows[i].Price != nil {
			prices = append(prices, *rows[i].Price)
		}
		if rows[i].AreaSqFt != nil {
			areas = append(areas, *rows[i].AreaSqFt)
		}
	}

	if lo, hi, ok := fences(prices); ok {
		for i := range rows {
			if p := rows[i].Price; p != nil && (*p < lo || *p > hi) {
				rows[i].PriceOutlier = true
			}
		}
	}
	if lo, hi, ok := fences(areas); ok {
		for i := range rows {
			if a := rows[i].AreaSqFt; a != nil && (*a < lo || *a > hi) {
				rows[i].AreaOutlier = true
			}
		}
	}
}
