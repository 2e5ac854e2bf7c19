package sources

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/hearthstone-io/hearthscout/internal/domain"
)

const zillowOrigin = "https://www.zillow.com"

// Zillow parses the data-test keyed card markup of zillow.com search pages.
type Zillow struct{}

func NewZillow() *Zillow { return &Zillow{} }

func (z *Zillow) ID() string    { return "zillow" }
func (z *Zillow) Label() string { return "Zillow" }

func (z *Zillow) SearchURL(location string, limit int, f domain.Filters) string {
	u := fmt.Sprintf("%s/homes/for_sale/%s_rb/", zillowOrigin, quoteLocation(location))
	q := url.Values{}
	if f.MinPrice != nil {
		q.Set("price_min", fmt.Sprintf("%.0f", *f.MinPrice))
	}
	if f.MaxPrice != nil {
		q.Set("price_max", fmt.Sprintf("%.0f", *f.MaxPrice))
	}
	if f.MinBeds != nil {
		q.Set("beds_min", fmt.Sprintf("%.0f", *f.MinBeds))
	}
	if f.MinBaths != nil {
		q.Set("baths_min", fmt.Sprintf("%.1f", *f.MinBaths))
	}
	if len(f.PropertyTypes) > 0 {
		q.Set("home_types", zillowTypeTokens(f.PropertyTypes))
	}
	if f.NewListingsOnly {
		q.Set("days_on_zillow", "7")
	}
	if f.IncludeSold {
		q.Set("recently_sold", "true")
	}
	if !f.IncludePending {
		q.Set("pending", "false")
	}
	if enc := q.Encode(); enc != "" {
		return u + "?" + enc
	}
	return u
}

func zillowTypeTokens(types []domain.PropertyType) string {
	tokens := make([]string, 0, len(types))
	for _, t := range types {
		switch t {
		case domain.House:
			tokens = append(tokens, "house")
		case domain.Condo:
			tokens = append(tokens, "condo")
		case domain.Townhouse:
			tokens = append(tokens, "townhouse")
		case domain.MultiFamily:
			tokens = append(tokens, "multi_family")
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

func (z *Zillow) Extract(html []byte, limit int) ([]domain.RawListingRecord, []domain.CardSkip) {
	doc, err := parseDoc(html)
	if err != nil {
		return nil, []domain.CardSkip{{Source: z.Label(), Card: -1, Reason: "unparseable document"}}
	}

	var records []domain.RawListingRecord
	var skips []domain.CardSkip

	doc.Find(`div[data-test="property-card"]`).EachWithBreak(func(i int, card *goquery.Selection) bool {
		if len(records) >= limit {
			return false
		}

		address := strings.TrimSpace(card.Find("address").First().Text())
		if address == "" {
			skips = append(skips, domain.CardSkip{Source: z.Label(), Card: i, Reason: "missing address"})
			return true
		}

		details := card.Find(`[data-test="property-card-details"]`).First().Text()
		propType := strings.TrimSpace(card.Find(`[data-test="property-card-home-type"]`).First().Text())
		if propType == "" {
			propType = "House"
		}
		link, _ := card.Find(`a[data-test="property-card-link"]`).First().Attr("href")

		records = append(records, domain.RawListingRecord{
			Address: address,
			// Zillow card addresses lead with the city
			City:         cityFromAddress(address, 0),
			Price:        strings.TrimSpace(card.Find(`[data-test="property-card-price"]`).First().Text()),
			Bedrooms:     extractBeds(details),
			Bathrooms:    extractBaths(details),
			AreaSqFt:     extractSqft(details),
			PropertyType: propType,
			URL:          rebase(zillowOrigin, link),
			Source:       z.Label(),
		})
		return true
	})

	return records, skips
}
