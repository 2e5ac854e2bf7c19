// Package detail fetches one listing's detail page and pulls its long-form
// description on demand. Descriptions are presentation material and never
// enter the cleaning pipeline.
package detail

import (
	"bytes"
	"context"
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/hearthstone-io/hearthscout/internal/domain"
)

// ErrNoDescription means the page loaded but carried no recognizable
// description block.
var ErrNoDescription = errors.New("no description found")

// maxDescriptionLen keeps a pathological page from dominating a response.
const maxDescriptionLen = 5000

// descriptionSelectors covers the markup conventions of the supported
// sites, most specific first.
var descriptionSelectors = []string{
	`[data-testid="description"]`,
	`[data-test="description"]`,
	`.ds-overview-section`,
	`.property-description`,
	`#home-description`,
	`#description`,
}

type Extractor struct {
	fetcher domain.Fetcher
}

func New(f domain.Fetcher) *Extractor {
	return &Extractor{fetcher: f}
}

// Description retrieves url and returns its description text with
// whitespace collapsed, truncated to a sane length.
func (e *Extractor) Description(ctx context.Context, url string) (string, error) {
	body, err := e.fetcher.Fetch(ctx, url)
	if err != nil {
		return "", err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", err
	}

	for _, sel := range descriptionSelectors {
		if text := collapse(doc.Find(sel).First().Text()); text != "" {
			return truncate(text), nil
		}
	}

	// Fall back to the page's meta description.
	if content, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
		if text := collapse(content); text != "" {
			return truncate(text), nil
		}
	}
	return "", ErrNoDescription
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string) string {
	if len(s) <= maxDescriptionLen {
		return s
	}
	return s[:maxDescriptionLen]
}
