package domain

import "time"

// RawListingRecord is one row of untrusted, source-specific data as it came
// off a listing index page (or out of the synthetic generator). Every field
// is kept as text; parsing and validation happen in the pipeline.
type RawListingRecord struct {
	Address      string
	City         string
	Price        string
	Bedrooms     string
	Bathrooms    string
	AreaSqFt     string
	PropertyType string
	URL          string
	Source       string
}

// PropertyType is the closed post-cleaning vocabulary.
type PropertyType string

const (
	House       PropertyType = "House"
	Condo       PropertyType = "Condo"
	Townhouse   PropertyType = "Townhouse"
	MultiFamily PropertyType = "Multi-Family"
	Apartment   PropertyType = "Apartment"
	Land        PropertyType = "Land"
	Commercial  PropertyType = "Commercial"
	UnknownType PropertyType = "Unknown"
)

// PropertyTypes lists the concrete (non-Unknown) vocabulary, in the order
// the synthetic generator samples from it.
var PropertyTypes = []PropertyType{
	House, Condo, Townhouse, MultiFamily, Apartment, Land, Commercial,
}

type PriceCategory string

const (
	PriceBudget   PriceCategory = "Budget"
	PriceMidRange PriceCategory = "Mid-Range"
	PriceHighEnd  PriceCategory = "High-End"
	PriceLuxury   PriceCategory = "Luxury"
)

type SizeCategory string

const (
	SizeSmall     SizeCategory = "Small"
	SizeMedium    SizeCategory = "Medium"
	SizeLarge     SizeCategory = "Large"
	SizeVeryLarge SizeCategory = "Very Large"
)

type InvestmentRating string

const (
	RatingExcellent    InvestmentRating = "Excellent"
	RatingGood         InvestmentRating = "Good"
	RatingAverage      InvestmentRating = "Average"
	RatingBelowAverage InvestmentRating = "Below Average"
	RatingPoor         InvestmentRating = "Poor"
	RatingUnknown      InvestmentRating = "Unknown"
)

type QualityCategory string

const (
	QualityExcellent QualityCategory = "Excellent"
	QualityGood      QualityCategory = "Good"
	QualityFair      QualityCategory = "Fair"
	QualityPoor      QualityCategory = "Poor"
)

// CanonicalListing is the validated, normalized record. Numeric fields are
// either a value inside their documented bound or nil, never a sentinel.
// Rows are immutable once a validation pass has produced them.
type CanonicalListing struct {
	Source string `json:"source"`

	Address *string  `json:"address"`
	City    *string  `json:"city"`
	State   *string  `json:"state"`
	Zip     *string  `json:"zip"`
	Price   *float64 `json:"price"`
	// Bedrooms is float because sources report half-rooms for baths and the
	// two fields share one coercion path.
	Bedrooms     *float64     `json:"bedrooms"`
	Bathrooms    *float64     `json:"bathrooms"`
	AreaSqFt     *float64     `json:"area_sqft"`
	PropertyType PropertyType `json:"property_type"`
	URL          *string      `json:"url"`

	PricePerSqFt     *float64         `json:"price_per_sqft"`
	PriceCategory    *PriceCategory   `json:"price_category"`
	SizeCategory     *SizeCategory    `json:"size_category"`
	BedBathRatio     *float64         `json:"bed_bath_ratio"`
	PriceOutlier     bool             `json:"price_outlier"`
	AreaOutlier      bool             `json:"area_outlier"`
	ValueScore       *int             `json:"value_score"`
	InvestmentRating InvestmentRating `json:"investment_rating"`
	QualityScore     int              `json:"quality_score"`
	QualityCategory  QualityCategory  `json:"quality_category"`
	ValidatedAt      time.Time        `json:"validated_at"`
}

// Batch is one delivered validation pass over the union of all requested
// sources. A re-scrape creates a new batch, never an update.
type Batch struct {
	ID        int64              `json:"id"`
	Location  string             `json:"location"`
	Sources   []string           `json:"sources"`
	Rows      []CanonicalListing `json:"rows"`
	CreatedAt time.Time          `json:"created_at"`
}

// CardSkip records why one card on an index page was dropped. Skips degrade
// batch size, never abort the run.
type CardSkip struct {
	Source string `json:"source"`
	Card   int    `json:"card"`
	Reason string `json:"reason"`
}

// Filters is the shared filter vocabulary. Each source adapter maps it to
// its own query-parameter dialect; the query service applies it again over
// cleaned batches, since sites ignore parameters they do not support.
type Filters struct {
	MinPrice        *float64       `json:"min_price,omitempty"`
	MaxPrice        *float64       `json:"max_price,omitempty"`
	MinBeds         *float64       `json:"min_beds,omitempty"`
	MinBaths        *float64       `json:"min_baths,omitempty"`
	PropertyTypes   []PropertyType `json:"property_types,omitempty"`
	NewListingsOnly bool           `json:"new_listings_only,omitempty"`
	IncludeSold     bool           `json:"include_sold,omitempty"`
	IncludePending  bool           `json:"include_pending,omitempty"`
	Sources         []string       `json:"sources,omitempty"`
	Cities          []string       `json:"cities,omitempty"`
}

// BatchStats are the aggregate figures computed over one batch.
type BatchStats struct {
	Total           int             `json:"total"`
	AvgPrice        *float64        `json:"avg_price"`
	MedianPrice     *float64        `json:"median_price"`
	MinPrice        *float64        `json:"min_price"`
	MaxPrice        *float64        `json:"max_price"`
	AvgBedrooms     *float64        `json:"avg_bedrooms"`
	AvgBathrooms    *float64        `json:"avg_bathrooms"`
	AvgAreaSqFt     *float64        `json:"avg_area_sqft"`
	AvgPricePerSqFt *float64        `json:"avg_price_per_sqft"`
	CommonType      PropertyType    `json:"common_type"`
	ByCity          []CityStats     `json:"by_city"`
	AvgQuality      float64         `json:"avg_quality"`
	QualityCategory QualityCategory `json:"quality_category"`
}

// CityStats summarizes one city's slice of a batch.
type CityStats struct {
	City        string   `json:"city"`
	Count       int      `json:"count"`
	AvgPrice    *float64 `json:"avg_price"`
	MedianPrice *float64 `json:"median_price"`
}
