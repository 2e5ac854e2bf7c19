package sources

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/hearthstone-io/hearthscout/internal/domain"
)

const redfinOrigin = "https://www.redfin.com"

// Redfin parses redfin.com search pages.
type Redfin struct{}

func NewRedfin() *Redfin { return &Redfin{} }

func (r *Redfin) ID() string    { return "redfin" }
func (r *Redfin) Label() string { return "Redfin" }

func (r *Redfin) SearchURL(location string, limit int, f domain.Filters) string {
	u := fmt.Sprintf("%s/city/%s", redfinOrigin, quoteLocation(location))
	q := url.Values{}
	if f.MinPrice != nil {
		q.Set("min-price", fmt.Sprintf("%.0f", *f.MinPrice))
	}
	if f.MaxPrice != nil {
		q.Set("max-price", fmt.Sprintf("%.0f", *f.MaxPrice))
	}
	if f.MinBeds != nil {
		q.Set("min-beds", fmt.Sprintf("%.0f", *f.MinBeds))
	}
	if f.MinBaths != nil {
		q.Set("min-baths", fmt.Sprintf("%.1f", *f.MinBaths))
	}
	if f.IncludeSold {
		q.Set("include", "sold-3mo")
	}
	if f.NewListingsOnly {
		q.Set("time-on-market", "1wk")
	}
	if enc := q.Encode(); enc != "" {
		return u + "?" + enc
	}
	return u
}

func (r *Redfin) Extract(html []byte, limit int) ([]domain.RawListingRecord, []domain.CardSkip) {
	doc, err := parseDoc(html)
	if err != nil {
		return nil, []domain.CardSkip{{Source: r.Label(), Card: -1, Reason: "unparseable document"}}
	}

	var records []domain.RawListingRecord
	var skips []domain.CardSkip

	doc.Find(`div[data-rf-test-name="mapHomeCard"]`).EachWithBreak(func(i int, card *goquery.Selection) bool {
		if len(records) >= limit {
			return false
		}

		address := strings.TrimSpace(card.Find(`.homecard-address`).First().Text())
		if address == "" {
			skips = append(skips, domain.CardSkip{Source: r.Label(), Card: i, Reason: "missing address"})
			return true
		}

		stats := card.Find(`.homecard-stats`).First().Text()
		link, _ := card.Find(`a.homecard-link`).First().Attr("href")

		records = append(records, domain.RawListingRecord{
			Address:      address,
			City:         cityFromAddress(address, 1),
			Price:        strings.TrimSpace(card.Find(`.homecard-price`).First().Text()),
			Bedrooms:     extractBeds(stats),
			Bathrooms:    extractBaths(stats),
			AreaSqFt:     extractSqft(stats),
			PropertyType: strings.TrimSpace(card.Find(`.homecard-type`).First().Text()),
			URL:          rebase(redfinOrigin, link),
			Source:       r.Label(),
		})
		return true
	})

	return records, skips
}
