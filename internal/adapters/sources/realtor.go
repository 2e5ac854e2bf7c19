package sources

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/hearthstone-io/hearthscout/internal/domain"
)

const realtorOrigin = "https://www.realtor.com"

// Realtor parses realtor.com search pages. Its filter dialect is path
// segments, not query parameters.
type Realtor struct{}

func NewRealtor() *Realtor { return &Realtor{} }

func (r *Realtor) ID() string    { return "realtor" }
func (r *Realtor) Label() string { return "Realtor.com" }

func (r *Realtor) SearchURL(location string, limit int, f domain.Filters) string {
	var segs []string
	segs = append(segs, fmt.Sprintf("%s/realestateandhomes-search/%s", realtorOrigin, quoteLocation(location)))
	if len(f.PropertyTypes) > 0 {
		segs = append(segs, "type-"+realtorTypeTokens(f.PropertyTypes))
	}
	if f.MinBeds != nil {
		segs = append(segs, fmt.Sprintf("beds-%.0f", *f.MinBeds))
	}
	if f.MinBaths != nil {
		segs = append(segs, fmt.Sprintf("baths-%.0f", *f.MinBaths))
	}
	if f.MinPrice != nil || f.MaxPrice != nil {
		lo, hi := "", ""
		if f.MinPrice != nil {
			lo = fmt.Sprintf("%.0f", *f.MinPrice)
		}
		if f.MaxPrice != nil {
			hi = fmt.Sprintf("%.0f", *f.MaxPrice)
		}
		segs = append(segs, fmt.Sprintf("price-%s-%s", lo, hi))
	}
	if f.NewListingsOnly {
		segs = append(segs, "age-7")
	}
	if f.IncludeSold {
		segs = append(segs, "show-recently-sold")
	}
	return strings.Join(segs, "/")
}

func realtorTypeTokens(types []domain.PropertyType) string {
	tokens := make([]string, 0, len(types))
	for _, t := range types {
		switch t {
		case domain.House:
			tokens = append(tokens, "single-family-home")
		case domain.Condo:
			tokens = append(tokens, "condo")
		case domain.Townhouse:
			tokens = append(tokens, "townhome")
		case domain.MultiFamily:
			tokens = append(tokens, "multi-family-home")
		case domain.Apartment:
			tokens = append(tokens, "apartment")
		case domain.Land:
			tokens = append(tokens, "land")
		case domain.Commercial:
			tokens = append(tokens, "commercial")
		}
	}
	return strings.Join(tokens, ",")
}

func (r *Realtor) Extract(html []byte, limit int) ([]domain.RawListingRecord, []domain.CardSkip) {
	doc, err := parseDoc(html)
	if err != nil {
		return nil, []domain.CardSkip{{Source: r.Label(), Card: -1, Reason: "unparseable document"}}
	}

	var records []domain.RawListingRecord
	var skips []domain.CardSkip

	doc.Find(`div[data-testid="property-card"]`).EachWithBreak(func(i int, card *goquery.Selection) bool {
		if len(records) >= limit {
			return false
		}

		address := strings.TrimSpace(card.Find(`[data-testid="card-address"]`).First().Text())
		if address == "" {
			skips = append(skips, domain.CardSkip{Source: r.Label(), Card: i, Reason: "missing address"})
			return true
		}

		propType := strings.TrimSpace(card.Find(`[data-testid="property-type"]`).First().Text())
		if propType == "" {
			propType = "House"
		}
		link, _ := card.Find(`a[data-testid="property-anchor"]`).First().Attr("href")

		records = append(records, domain.RawListingRecord{
			Address: address,
			// Realtor addresses put the city after the street segment
			City:         cityFromAddress(address, 1),
			Price:        strings.TrimSpace(card.Find(`[data-testid="card-price"]`).First().Text()),
			Bedrooms:     firstNumber(card.Find(`[data-testid="property-meta-beds"]`).First().Text()),
			Bathrooms:    firstNumber(card.Find(`[data-testid="property-meta-baths"]`).First().Text()),
			AreaSqFt:     firstNumber(card.Find(`[data-testid="property-meta-sqft"]`).First().Text()),
			PropertyType: propType,
			URL:          rebase(realtorOrigin, link),
			Source:       r.Label(),
		})
		return true
	})

	return records, skips
}
