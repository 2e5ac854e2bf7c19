package sources

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/hearthstone-io/hearthscout/internal/domain"
)

const truliaOrigin = "https://www.trulia.com"

// Trulia parses trulia.com search pages. Cards rarely state the property
// type outright, so it is inferred from the beds/baths line.
type Trulia struct{}

func NewTrulia() *Trulia { return &Trulia{} }

func (t *Trulia) ID() string    { return "trulia" }
func (t *Trulia) Label() string { return "Trulia" }

func (t *Trulia) SearchURL(location string, limit int, f domain.Filters) string {
	var segs []string
	segs = append(segs, fmt.Sprintf("%s/for_sale/%s", truliaOrigin, quoteLocation(location)))
	if len(f.PropertyTypes) > 0 {
		segs = append(segs, truliaTypeTokens(f.PropertyTypes)+"_type")
	}
	if f.MinBeds != nil {
		segs = append(segs, fmt.Sprintf("%.0fp_beds", *f.MinBeds))
	}
	if f.MinBaths != nil {
		segs = append(segs, fmt.Sprintf("%.0fp_baths", *f.MinBaths))
	}
	if f.MinPrice != nil || f.MaxPrice != nil {
		lo, hi := "0", ""
		if f.MinPrice != nil {
			lo = fmt.Sprintf("%.0f", *f.MinPrice)
		}
		if f.MaxPrice != nil {
			hi = fmt.Sprintf("%.0f", *f.MaxPrice)
		}
		segs = append(segs, fmt.Sprintf("%s-%s_price", lo, hi))
	}
	if f.NewListingsOnly {
		segs = append(segs, "7_dom")
	}
	return strings.Join(segs, "/") + "/"
}

func truliaTypeTokens(types []domain.PropertyType) string {
	tokens := make([]string, 0, len(types))
	for _, pt := range types {
		switch pt {
		case domain.House:
			tokens = append(tokens, "SINGLE-FAMILY_HOME")
		case domain.Condo:
			tokens = append(tokens, "APARTMENT_CONDO_TOWNHOUSE")
		case domain.Townhouse:
			tokens = append(tokens, "TOWNHOUSE")
		case domain.MultiFamily:
			tokens = append(tokens, "MULTI-FAMILY")
		case domain.Land:
			tokens = append(tokens, "LOT_LAND")
		}
	}
	return strings.Join(tokens, ",")
}

func (t *Trulia) Extract(html []byte, limit int) ([]domain.RawListingRecord, []domain.CardSkip) {
	doc, err := parseDoc(html)
	if err != nil {
		return nil, []domain.CardSkip{{Source: t.Label(), Card: -1, Reason: "unparseable document"}}
	}

	var records []domain.RawListingRecord
	var skips []domain.CardSkip

	doc.Find(`div[data-testid="home-card-container"]`).EachWithBreak(func(i int, card *goquery.Selection) bool {
		if len(records) >= limit {
			return false
		}

		address := strings.TrimSpace(card.Find(`[data-testid="property-address"]`).First().Text())
		if address == "" {
			skips = append(skips, domain.CardSkip{Source: t.Label(), Card: i, Reason: "missing address"})
			return true
		}

		details := card.Find(`[data-testid="property-beds-baths"]`).First().Text()
		link, _ := card.Find(`a[data-testid="property-card-link"]`).First().Attr("href")

		records = append(records, domain.RawListingRecord{
			Address:      address,
			City:         cityFromAddress(address, 1),
			Price:        strings.TrimSpace(card.Find(`[data-testid="property-price"]`).First().Text()),
			Bedrooms:     extractBeds(details),
			Bathrooms:    extractBaths(details),
			AreaSqFt:     extractSqft(card.Find(`[data-testid="property-floorSpace"]`).First().Text()),
			PropertyType: truliaInferType(details),
			URL:          rebase(truliaOrigin, link),
			Source:       t.Label(),
		})
		return true
	})

	return records, skips
}

func truliaInferType(details string) string {
	low := strings.ToLower(details)
	switch {
	case strings.Contains(low, "condo"):
		return "Condo"
	case strings.Contains(low, "townhouse"):
		return "Townhouse"
	default:
		return "House"
	}
}
