package sources

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/hearthstone-io/hearthscout/internal/domain"
)

// Registry dispatches source IDs to adapters so the orchestrator never has
// to know about individual sites.
type Registry struct {
	byID map[string]domain.SourceAdapter
}

func NewRegistry(adapters ...domain.SourceAdapter) *Registry {
	r := &Registry{byID: make(map[string]domain.SourceAdapter, len(adapters))}
	for _, a := range adapters {
		r.byID[a.ID()] = a
	}
	return r
}

// DefaultRegistry wires every built-in site adapter.
func DefaultRegistry() *Registry {
	return NewRegistry(
		NewZillow(),
		NewRealtor(),
		NewTrulia(),
		NewRedfin(),
		NewHomes(),
	)
}

func (r *Registry) Get(id string) (domain.SourceAdapter, error) {
	a, ok := r.byID[strings.ToLower(strings.TrimSpace(id))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownSource, id)
	}
	return a, nil
}

func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ---- shared extraction helpers ----

var (
	bedsRe   = regexp.MustCompile(`(\d+)\s*(?:bd|bed)`)
	bathsRe  = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:ba|bath)`)
	sqftRe   = regexp.MustCompile(`([\d,]+)\s*(?:sqft|sq\.?\s*ft)`)
	numberRe = regexp.MustCompile(`\d+(?:\.\d+)?`)
)

func parseDoc(html []byte) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(string(html)))
}

// rebase resolves href against the site origin when relative.
func rebase(origin, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	base, err := url.Parse(origin)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// extractBeds/Baths/Sqft pull the numeric token out of a combined details
// string like "3 bd | 2.5 ba | 1,800 sqft"; empty when absent so the
// pipeline can null the field.
func extractBeds(details string) string {
	if m := bedsRe.FindStringSubmatch(strings.ToLower(details)); m != nil {
		return m[1]
	}
	return ""
}

func extractBaths(details string) string {
	if m := bathsRe.FindStringSubmatch(strings.ToLower(details)); m != nil {
		return m[1]
	}
	return ""
}

func extractSqft(details string) string {
	if m := sqftRe.FindStringSubmatch(strings.ToLower(details)); m != nil {
		return strings.ReplaceAll(m[1], ",", "")
	}
	return ""
}

// firstNumber returns the first numeric token in s, for sites whose meta
// elements carry a bare figure rather than a labeled one.
func firstNumber(s string) string {
	return numberRe.FindString(strings.ReplaceAll(s, ",", ""))
}

// cityFromAddress picks the address segment at idx (comma-separated).
// Zillow addresses lead with the city; Realtor and Trulia put it second.
func cityFromAddress(address string, idx int) string {
	parts := strings.Split(address, ",")
	if idx >= len(parts) {
		return ""
	}
	return strings.TrimSpace(parts[idx])
}

func quoteLocation(location string) string {
	return url.QueryEscape(strings.TrimSpace(location))
}
