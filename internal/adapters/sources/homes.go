package sources

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/hearthstone-io/hearthscout/internal/domain"
)

const homesOrigin = "https://www.homes.com"

// Homes parses homes.com search pages.
type Homes struct{}

func NewHomes() *Homes { return &Homes{} }

func (h *Homes) ID() string    { return "homes" }
func (h *Homes) Label() string { return "Homes.com" }

func (h *Homes) SearchURL(location string, limit int, f domain.Filters) string {
	u := fmt.Sprintf("%s/homes-for-sale/%s/", homesOrigin, quoteLocation(location))
	q := url.Values{}
	if f.MinPrice != nil {
		q.Set("price-min", fmt.Sprintf("%.0f", *f.MinPrice))
	}
	if f.MaxPrice != nil {
		q.Set("price-max", fmt.Sprintf("%.0f", *f.MaxPrice))
	}
	if f.MinBeds != nil {
		q.Set("beds-min", fmt.Sprintf("%.0f", *f.MinBeds))
	}
	if f.MinBaths != nil {
		q.Set("baths-min", fmt.Sprintf("%.0f", *f.MinBaths))
	}
	if f.NewListingsOnly {
		q.Set("listed-since", "7d")
	}
	if enc := q.Encode(); enc != "" {
		return u + "?" + enc
	}
	return u
}

func (h *Homes) Extract(html []byte, limit int) ([]domain.RawListingRecord, []domain.CardSkip) {
	doc, err := parseDoc(html)
	if err != nil {
		return nil, []domain.CardSkip{{Source: h.Label(), Card: -1, Reason: "unparseable document"}}
	}

	var records []domain.RawListingRecord
	var skips []domain.CardSkip

	doc.Find(`div.for-sale-content-container`).EachWithBreak(func(i int, card *goquery.Selection) bool {
		if len(records) >= limit {
			return false
		}

		address := strings.TrimSpace(card.Find(`p.property-name`).First().Text())
		if address == "" {
			skips = append(skips, domain.CardSkip{Source: h.Label(), Card: i, Reason: "missing address"})
			return true
		}

		details := card.Find(`ul.detailed-info-container`).First().Text()
		link, _ := card.Find(`a.for-sale-content-anchor`).First().Attr("href")

		records = append(records, domain.RawListingRecord{
			Address:      address,
			City:         cityFromAddress(address, 1),
			Price:        strings.TrimSpace(card.Find(`p.price-container`).First().Text()),
			Bedrooms:     extractBeds(details),
			Bathrooms:    extractBaths(details),
			AreaSqFt:     extractSqft(details),
			PropertyType: strings.TrimSpace(card.Find(`p.property-type`).First().Text()),
			URL:          rebase(homesOrigin, link),
			Source:       h.Label(),
		})
		return true
	})

	return records, skips
}
