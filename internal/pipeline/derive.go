package pipeline

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	"github.com/hearthstone-io/hearthscout/internal/domain"
)

// deriveRow fills the per-row derived fields that need no batch context.
func deriveRow(l *domain.CanonicalListing) {
	if l.Price != nil && l.AreaSqFt != nil && *l.AreaSqFt > 0 {
		ppa := *l.Price / *l.AreaSqFt
		l.PricePerSqFt = &ppa
	}

	if l.Price != nil {
		var c domain.PriceCategory
		switch p := *l.Price; {
		case p < 200000:
			c = domain.PriceBudget
		case p < 500000:
			c = domain.PriceMidRange
		case p < 1000000:
			c = domain.PriceHighEnd
		default:
			c = domain.PriceLuxury
		}
		l.PriceCategory = &c
	}

	if l.AreaSqFt != nil {
		var c domain.SizeCategory
		switch a := *l.AreaSqFt; {
		case a < 1000:
			c = domain.SizeSmall
		case a < 2000:
			c = domain.SizeMedium
		case a < 3500:
			c = domain.SizeLarge
		default:
			c = domain.SizeVeryLarge
		}
		l.SizeCategory = &c
	}

	if l.Bedrooms != nil && l.Bathrooms != nil && *l.Bathrooms > 0 {
		r := *l.Bedrooms / *l.Bathrooms
		l.BedBathRatio = &r
	}
}

// valueInput names one of the four score components. Price per sqft is
// inverted: cheaper per square foot scores higher.
type valueInput struct {
	weight   float64
	inverted bool
	get      func(*domain.CanonicalListing) *float64
}

var valueInputs = []valueInput{
	{0.40, true, func(l *domain.CanonicalListing) *float64 { return l.PricePerSqFt }},
	{0.30, false, func(l *domain.CanonicalListing) *float64 { return l.AreaSqFt }},
	{0.15, false, func(l *domain.CanonicalListing) *float64 { return l.Bedrooms }},
	{0.15, false, func(l *domain.CanonicalListing) *float64 { return l.Bathrooms }},
}

// scoreValues computes the composite value score for every row against the
// batch's own min/max ranges. Rows with fewer than three of the four inputs
// keep a nil score; missing inputs on scored rows redistribute their weight
// across the inputs that are present.
func scoreValues(rows []domain.CanonicalListing) {
	type span struct{ min, max float64 }
	spans := make([]span, len(valueInputs))
	seen := make([]bool, len(valueInputs))

	for i := range rows {
		for j, in := range valueInputs {
			v := in.get(&rows[i])
			if v == nil {
				continue
			}
			if !seen[j] {
				spans[j] = span{*v, *v}
				seen[j] = true
				continue
			}
			spans[j].min = math.Min(spans[j].min, *v)
			spans[j].max = math.Max(spans[j].max, *v)
		}
	}

	for i := range rows {
		var sum, weight float64
		var present int
		for j, in := range valueInputs {
			v := in.get(&rows[i])
			if v == nil || !seen[j] {
				continue
			}
			present++
			norm := 50.0
			if spans[j].max > spans[j].min {
				norm = (*v - spans[j].min) / (spans[j].max - spans[j].min) * 100
			}
			if in.inverted {
				norm = 100 - norm
			}
			sum += norm * in.weight
			weight += in.weight
		}
		if present < 3 || weight == 0 {
			continue
		}
		score := int(math.Round(sum / weight))
		rows[i].ValueScore = &score
	}
}

// rateInvestments assigns the per-row investment rating by comparing each
// row's price per sqft against its own city's median. Rows without a city or
// a price per sqft stay Unknown, as do rows in a city with no comparables.
func rateInvestments(rows []domain.CanonicalListing) {
	byCity := map[string][]float64{}
	for i := range rows {
		if rows[i].City == nil || rows[i].PricePerSqFt == nil {
			continue
		}
		byCity[*rows[i].City] = append(byCity[*rows[i].City], *rows[i].PricePerSqFt)
	}
	medians := make(map[string]float64, len(byCity))
	for city, vals := range byCity {
		if m, err := stats.Median(vals); err == nil && m > 0 {
			medians[city] = m
		}
	}

	for i := range rows {
		rows[i].InvestmentRating = domain.RatingUnknown
		if rows[i].City == nil || rows[i].PricePerSqFt == nil || *rows[i].PricePerSqFt <= 0 {
			continue
		}
		median, ok := medians[*rows[i].City]
		if !ok {
			continue
		}
		ratio := median / *rows[i].PricePerSqFt * 100
		switch {
		case ratio > 120:
			rows[i].InvestmentRating = domain.RatingExcellent
		case ratio >= 105:
			rows[i].InvestmentRating = domain.RatingGood
		case ratio >= 95:
			rows[i].InvestmentRating = domain.RatingAverage
		case ratio >= 80:
			rows[i].InvestmentRating = domain.RatingBelowAverage
		default:
			rows[i].InvestmentRating = domain.RatingPoor
		}
	}
}

// qualityWeight pairs a completeness check with its share of the score.
type qualityWeight struct {
	weight  float64
	present func(*domain.CanonicalListing) bool
}

var qualityWeights = []qualityWeight{
	{0.20, func(l *domain.CanonicalListing) bool { return l.Price != nil }},
	{0.15, func(l *domain.CanonicalListing) bool { return l.Bedrooms != nil }},
	{0.15, func(l *domain.CanonicalListing) bool { return l.Bathrooms != nil }},
	{0.15, func(l *domain.CanonicalListing) bool { return l.AreaSqFt != nil }},
	{0.10, func(l *domain.CanonicalListing) bool { return l.Address != nil }},
	{0.10, func(l *domain.CanonicalListing) bool { return l.City != nil }},
	{0.10, func(l *domain.CanonicalListing) bool { return l.PropertyType != domain.UnknownType }},
	{0.05, func(l *domain.CanonicalListing) bool { return l.State != nil }},
}

// QualityGrade buckets a 0-100 completeness score.
func QualityGrade(score float64) domain.QualityCategory {
	switch {
	case score >= 90:
		return domain.QualityExcellent
	case score >= 70:
		return domain.QualityGood
	case score >= 50:
		return domain.QualityFair
	default:
		return domain.QualityPoor
	}
}

// scoreQuality computes the weighted completeness score per row.
func scoreQuality(l *domain.CanonicalListing) {
	var sum float64
	for _, qw := range qualityWeights {
		if qw.present(l) {
			sum += qw.weight
		}
	}
	l.QualityScore = int(math.Round(sum * 100))
	l.QualityCategory = QualityGrade(float64(l.QualityScore))
}

// Stats aggregates one batch into its summary figures, including the
// per-city breakdown ordered by descending count then city name.
func Stats(rows []domain.CanonicalListing) domain.BatchStats {
	out := domain.BatchStats{Total: len(rows)}

	var prices, beds, baths, areas, ppas []float64
	typeCounts := map[domain.PropertyType]int{}
	cityPrices := map[string][]float64{}
	var qualitySum float64

	for i := range rows {
		l := &rows[i]
		if l.Price != nil {
			prices = append(prices, *l.Price)
			if l.City != nil {
				cityPrices[*l.City] = append(cityPrices[*l.City], *l.Price)
			}
		}
		if l.Bedrooms != nil {
			beds = append(beds, *l.Bedrooms)
		}
		if l.Bathrooms != nil {
			baths = append(baths, *l.Bathrooms)
		}
		if l.AreaSqFt != nil {
			areas = append(areas, *l.AreaSqFt)
		}
		if l.PricePerSqFt != nil {
			ppas = append(ppas, *l.PricePerSqFt)
		}
		typeCounts[l.PropertyType]++
		qualitySum += float64(l.QualityScore)
	}

	out.AvgPrice = statPtr(stats.Mean, prices)
	out.MedianPrice = statPtr(stats.Median, prices)
	out.MinPrice = statPtr(stats.Min, prices)
	out.MaxPrice = statPtr(stats.Max, prices)
	out.AvgBedrooms = statPtr(stats.Mean, beds)
	out.AvgBathrooms = statPtr(stats.Mean, baths)
	out.AvgAreaSqFt = statPtr(stats.Mean, areas)
	out.AvgPricePerSqFt = statPtr(stats.Mean, ppas)

	out.CommonType = domain.UnknownType
	best := 0
	for _, t := range append([]domain.PropertyType{}, domain.PropertyTypes...) {
		if typeCounts[t] > best {
			best = typeCounts[t]
			out.CommonType = t
		}
	}

	for city, vals := range cityPrices {
		cs := domain.CityStats{City: city, Count: len(vals)}
		cs.AvgPrice = statPtr(stats.Mean, vals)
		cs.MedianPrice = statPtr(stats.Median, vals)
		out.ByCity = append(out.ByCity, cs)
	}
	sort.Slice(out.ByCity, func(i, j int) bool {
		if out.ByCity[i].Count != out.ByCity[j].Count {
			return out.ByCity[i].Count > out.ByCity[j].Count
		}
		return out.ByCity[i].City < out.ByCity[j].City
	})

	if len(rows) > 0 {
		out.AvgQuality = qualitySum / float64(len(rows))
	}
	out.QualityCategory = QualityGrade(out.AvgQuality)
	return out
}

func statPtr(fn func(stats.Float64Data) (float64, error), vals []float64) *float64 {
	if len(vals) == 0 {
		return nil
	}
	v, err := fn(vals)
	if err != nil {
		return nil
	}
	return &v
}
