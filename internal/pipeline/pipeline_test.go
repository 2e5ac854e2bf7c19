package pipeline

import (
	"fmt"
	"reflect"
	"strconv"
	"testing"
	"time"

	"github.com/hearthstone-io/hearthscout/internal/domain"
)

func fixedNow() {
	stamp := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now = func() time.Time { return stamp }
}

func TestRun_CleansOneRow(t *testing.T) {
	fixedNow()
	raw := []domain.RawListingRecord{{
		Address:      "  123 Pine St,   Seattle, WA 98101-4321 ",
		City:         "seattle 98101",
		Price:        "$1,200,000",
		Bedrooms:     "3",
		Bathrooms:    "2.5",
		AreaSqFt:     "1,800 sqft",
		PropertyType: "Single-Family Home",
		URL:          "https://www.zillow.com/homedetails/x",
		Source:       "zillow (Sample)",
	}}

	rows := Run(raw)
	if len(rows) != 1 {
		t.Fatalf("rows: %d", len(rows))
	}
	l := rows[0]

	if l.Price == nil || *l.Price != 1200000 {
		t.Errorf("price: %v", l.Price)
	}
	if l.PriceCategory == nil || *l.PriceCategory != domain.PriceLuxury {
		t.Errorf("price category: %v", l.PriceCategory)
	}
	if l.Bedrooms == nil || *l.Bedrooms != 3 || l.Bathrooms == nil || *l.Bathrooms != 2.5 {
		t.Errorf("beds/baths: %v %v", l.Bedrooms, l.Bathrooms)
	}
	if l.AreaSqFt == nil || *l.AreaSqFt != 1800 {
		t.Errorf("area: %v", l.AreaSqFt)
	}
	if l.SizeCategory == nil || *l.SizeCategory != domain.SizeMedium {
		t.Errorf("size category: %v", l.SizeCategory)
	}
	if l.PropertyType != domain.House {
		t.Errorf("type: %q", l.PropertyType)
	}
	if l.City == nil || *l.City != "Seattle" {
		t.Errorf("city: %v", l.City)
	}
	if l.State == nil || *l.State != "WA" {
		t.Errorf("state: %v", l.State)
	}
	if l.Zip == nil || *l.Zip != "98101" {
		t.Errorf("zip: %v", l.Zip)
	}
	if l.Address == nil || *l.Address != "123 Pine St, Seattle, WA 98101-4321" {
		t.Errorf("address: %v", l.Address)
	}
	if l.Source != "Zillow (Sample)" {
		t.Errorf("source: %q", l.Source)
	}
	if l.PricePerSqFt == nil || *l.PricePerSqFt < 666 || *l.PricePerSqFt > 667 {
		t.Errorf("ppa: %v", l.PricePerSqFt)
	}
	if l.BedBathRatio == nil || *l.BedBathRatio != 1.2 {
		t.Errorf("bed/bath ratio: %v", l.BedBathRatio)
	}
	if l.ValidatedAt != now() {
		t.Errorf("validated at: %v", l.ValidatedAt)
	}
}

func TestRun_OutOfBoundsBecomeNil(t *testing.T) {
	raw := []domain.RawListingRecord{{
		Price:     "5,000", // below 10000
		Bedrooms:  "25",    // above 20
		Bathrooms: "16",    // above 15
		AreaSqFt:  "99",    // below 100
	}}
	l := Run(raw)[0]
	if l.Price != nil || l.Bedrooms != nil || l.Bathrooms != nil || l.AreaSqFt != nil {
		t.Fatalf("out-of-bound fields must be nil: %+v", l)
	}
}

func TestRun_UnparseableBecomeNil(t *testing.T) {
	raw := []domain.RawListingRecord{{
		Price: "Contact agent", City: "N/A", Address: "n/a", URL: "N/A",
	}}
	l := Run(raw)[0]
	if l.Price != nil || l.City != nil || l.Address != nil || l.URL != nil {
		t.Fatalf("placeholders must be nil: %+v", l)
	}
	if l.PropertyType != domain.UnknownType {
		t.Errorf("empty type: %q", l.PropertyType)
	}
	if l.InvestmentRating != domain.RatingUnknown {
		t.Errorf("rating: %q", l.InvestmentRating)
	}
}

func TestCanonicalType(t *testing.T) {
	cases := map[string]domain.PropertyType{
		"Single Family Residence": domain.House,
		"TOWNHOME":                domain.Townhouse,
		"Condominium":             domain.Condo,
		"Duplex":                  domain.MultiFamily,
		"Apartment Building":      domain.Apartment,
		"Vacant Land":             domain.Land,
		"Retail Space":            domain.Commercial,
		"Houseboat???":            domain.House,
		"Castle":                  domain.UnknownType,
		"":                        domain.UnknownType,
	}
	for in, want := range cases {
		if got := canonicalType(in); got != want {
			t.Errorf("canonicalType(%q) = %q, want %q", in, got, want)
		}
	}
}

// batchOf builds n parseable rows with prices and areas climbing linearly,
// plus one extreme row at the end when extreme is set.
func batchOf(n int, extreme bool) []domain.RawListingRecord {
	raw := make([]domain.RawListingRecord, 0, n+1)
	for i := 0; i < n; i++ {
		raw = append(raw, domain.RawListingRecord{
			Address:  fmt.Sprintf("%d Main St, Austin, TX 78701", i+1),
			City:     "Austin",
			Price:    strconv.Itoa(300000 + i*10000),
			Bedrooms: "3", Bathrooms: "2",
			AreaSqFt:     strconv.Itoa(1500 + i*50),
			PropertyType: "House",
			Source:       "Zillow",
		})
	}
	if extreme {
		raw = append(raw, domain.RawListingRecord{
			Address: "99 Gold Rd, Austin, TX 78701", City: "Austin",
			Price: "90,000,000", Bedrooms: "4", Bathrooms: "3",
			AreaSqFt: "49,000", PropertyType: "House", Source: "Zillow",
		})
	}
	return raw
}

func TestRun_FlagsOutliersAboveThreshold(t *testing.T) {
	rows := Run(batchOf(20, true))
	last := rows[len(rows)-1]
	if !last.PriceOutlier || !last.AreaOutlier {
		t.Fatalf("extreme row not flagged: price=%v area=%v", last.PriceOutlier, last.AreaOutlier)
	}
	for _, l := range rows[:len(rows)-1] {
		if l.PriceOutlier || l.AreaOutlier {
			t.Fatalf("ordinary row flagged: %+v", l)
		}
	}
	if last.Price == nil {
		t.Fatal("flagged row must keep its value")
	}
}

func TestRun_SmallBatchSkipsOutliers(t *testing.T) {
	rows := Run(batchOf(9, true)) // 10 rows total, at the threshold
	for _, l := range rows {
		if l.PriceOutlier || l.AreaOutlier {
			t.Fatalf("small batch must not flag outliers: %+v", l)
		}
	}
}

func TestRun_OutlierFlagsDeterministic(t *testing.T) {
	a := Run(batchOf(25, true))
	b := Run(batchOf(25, true))
	for i := range a {
		if a[i].PriceOutlier != b[i].PriceOutlier || a[i].AreaOutlier != b[i].AreaOutlier {
			t.Fatalf("row %d flags differ between identical runs", i)
		}
	}
}

func TestRun_ValueScoreNeedsThreeInputs(t *testing.T) {
	raw := batchOf(12, false)
	raw = append(raw, domain.RawListingRecord{
		City: "Austin", Price: "400,000", Source: "Zillow",
	})
	rows := Run(raw)

	sparse := rows[len(rows)-1]
	if sparse.ValueScore != nil {
		t.Fatalf("row with only price must have nil value score, got %v", *sparse.ValueScore)
	}
	for _, l := range rows[:len(rows)-1] {
		if l.ValueScore == nil {
			t.Fatal("full row missing value score")
		}
		if *l.ValueScore < 0 || *l.ValueScore > 100 {
			t.Fatalf("value score out of range: %d", *l.ValueScore)
		}
	}
}

func TestRun_ValueScoreDegenerateRange(t *testing.T) {
	// Identical rows: every input's min equals its max, so each normalized
	// component is 50 and so is the composite.
	raw := []domain.RawListingRecord{}
	for i := 0; i < 3; i++ {
		raw = append(raw, domain.RawListingRecord{
			City: "Austin", Price: "400000", Bedrooms: "3", Bathrooms: "2",
			AreaSqFt: "1500", PropertyType: "House", Source: "Zillow",
		})
	}
	for _, l := range Run(raw) {
		if l.ValueScore == nil || *l.ValueScore != 50 {
			t.Fatalf("degenerate range should score 50, got %v", l.ValueScore)
		}
	}
}

func TestRun_InvestmentRatingAgainstCityMedian(t *testing.T) {
	raw := []domain.RawListingRecord{
		// Median ppa in Boise is 200. 100/sqft → ratio 200 → Excellent;
		// 400/sqft → ratio 50 → Poor.
		{City: "Boise", Price: "100,000", AreaSqFt: "1000", Source: "Zillow"},
		{City: "Boise", Price: "200,000", AreaSqFt: "1000", Source: "Zillow"},
		{City: "Boise", Price: "400,000", AreaSqFt: "1000", Source: "Zillow"},
		{City: "Elsewhere", Price: "300,000", Source: "Zillow"},
	}
	rows := Run(raw)

	if rows[0].InvestmentRating != domain.RatingExcellent {
		t.Errorf("cheap row: %q", rows[0].InvestmentRating)
	}
	if rows[1].InvestmentRating != domain.RatingAverage {
		t.Errorf("median row: %q", rows[1].InvestmentRating)
	}
	if rows[2].InvestmentRating != domain.RatingPoor {
		t.Errorf("expensive row: %q", rows[2].InvestmentRating)
	}
	if rows[3].InvestmentRating != domain.RatingUnknown {
		t.Errorf("row without ppa: %q", rows[3].InvestmentRating)
	}
}

func TestRun_QualityScore(t *testing.T) {
	raw := []domain.RawListingRecord{
		{
			Address: "1 Main St, Austin, TX 78701", City: "Austin",
			Price: "400,000", Bedrooms: "3", Bathrooms: "2", AreaSqFt: "1500",
			PropertyType: "House", Source: "Zillow",
		},
		// Missing baths and state: 100 - 15 - 5 = 80 → Good.
		{
			Address: "2 Main St", City: "Austin",
			Price: "400,000", Bedrooms: "3", AreaSqFt: "1500",
			PropertyType: "House", Source: "Zillow",
		},
		{Source: "Zillow"},
	}
	rows := Run(raw)

	if rows[0].QualityScore != 100 || rows[0].QualityCategory != domain.QualityExcellent {
		t.Errorf("full row: %d %q", rows[0].QualityScore, rows[0].QualityCategory)
	}
	if rows[1].QualityScore != 80 || rows[1].QualityCategory != domain.QualityGood {
		t.Errorf("partial row: %d %q", rows[1].QualityScore, rows[1].QualityCategory)
	}
	if rows[2].QualityScore != 0 || rows[2].QualityCategory != domain.QualityPoor {
		t.Errorf("empty row: %d %q", rows[2].QualityScore, rows[2].QualityCategory)
	}
}

// rawFrom rebuilds raw records out of cleaned rows so a second pass can be
// compared against the first.
func rawFrom(rows []domain.CanonicalListing) []domain.RawListingRecord {
	str := func(p *string) string {
		if p == nil {
			return ""
		}
		return *p
	}
	num := func(p *float64) string {
		if p == nil {
			return ""
		}
		return strconv.FormatFloat(*p, 'f', -1, 64)
	}
	out := make([]domain.RawListingRecord, len(rows))
	for i, l := range rows {
		out[i] = domain.RawListingRecord{
			Address:      str(l.Address),
			City:         str(l.City),
			Price:        num(l.Price),
			Bedrooms:     num(l.Bedrooms),
			Bathrooms:    num(l.Bathrooms),
			AreaSqFt:     num(l.AreaSqFt),
			PropertyType: string(l.PropertyType),
			URL:          str(l.URL),
			Source:       l.Source,
		}
	}
	return out
}

func TestRun_Idempotent(t *testing.T) {
	fixedNow()
	first := Run(batchOf(15, true))
	second := Run(rawFrom(first))

	if !reflect.DeepEqual(first, second) {
		t.Fatal("second pass over cleaned data changed the rows")
	}
}

func TestStats(t *testing.T) {
	raw := []domain.RawListingRecord{
		{City: "Austin", Price: "200,000", Bedrooms: "2", Bathrooms: "1", AreaSqFt: "1000", PropertyType: "House", Source: "Zillow", Address: "1 A St, Austin, TX 78701"},
		{City: "Austin", Price: "400,000", Bedrooms: "4", Bathrooms: "3", AreaSqFt: "2000", PropertyType: "House", Source: "Zillow", Address: "2 A St, Austin, TX 78701"},
		{City: "Dallas", Price: "300,000", Bedrooms: "3", Bathrooms: "2", AreaSqFt: "1500", PropertyType: "Condo", Source: "Zillow", Address: "3 B St, Dallas, TX 75201"},
	}
	s := Stats(Run(raw))

	if s.Total != 3 {
		t.Fatalf("total: %d", s.Total)
	}
	if s.AvgPrice == nil || *s.AvgPrice != 300000 {
		t.Errorf("avg price: %v", s.AvgPrice)
	}
	if s.MedianPrice == nil || *s.MedianPrice != 300000 {
		t.Errorf("median price: %v", s.MedianPrice)
	}
	if s.MinPrice == nil || *s.MinPrice != 200000 || s.MaxPrice == nil || *s.MaxPrice != 400000 {
		t.Errorf("price span: %v %v", s.MinPrice, s.MaxPrice)
	}
	if s.CommonType != domain.House {
		t.Errorf("common type: %q", s.CommonType)
	}
	if len(s.ByCity) != 2 || s.ByCity[0].City != "Austin" || s.ByCity[0].Count != 2 {
		t.Errorf("by city: %+v", s.ByCity)
	}
	if s.QualityCategory != domain.QualityExcellent {
		t.Errorf("quality: %f %q", s.AvgQuality, s.QualityCategory)
	}
}

func TestStats_Empty(t *testing.T) {
	s := Stats(nil)
	if s.Total != 0 || s.AvgPrice != nil || s.CommonType != domain.UnknownType {
		t.Fatalf("empty stats: %+v", s)
	}
	if s.QualityCategory != domain.QualityPoor {
		t.Errorf("empty quality: %q", s.QualityCategory)
	}
}
