package pipeline

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/hearthstone-io/hearthscout/internal/domain"
)

// Domain bounds. A value outside its bound is unreliable, not approximately
// correct: it becomes nil, never a clamp.
const (
	minBedrooms, maxBedrooms   = 0, 20
	minBathrooms, maxBathrooms = 0, 15
	minAreaSqFt, maxAreaSqFt   = 100, 50000
	minPrice, maxPrice         = 10000, 100000000
)

// typeSynonyms maps site vocabulary onto the closed property-type set by
// substring. Order matters: the more specific labels come first so
// "townhome" never falls through to the generic "home" match.
var typeSynonyms = []struct {
	needle string
	t      domain.PropertyType
}{
	{"townhouse", domain.Townhouse},
	{"townhome", domain.Townhouse},
	{"row house", domain.Townhouse},
	{"condo", domain.Condo},
	{"co-op", domain.Condo},
	{"duplex", domain.MultiFamily},
	{"triplex", domain.MultiFamily},
	{"fourplex", domain.MultiFamily},
	{"multi family", domain.MultiFamily},
	{"multi-family", domain.MultiFamily},
	{"multifamily", domain.MultiFamily},
	{"apartment", domain.Apartment},
	{"apt", domain.Apartment},
	{"flat", domain.Apartment},
	{"vacant land", domain.Land},
	{"land", domain.Land},
	{"lot", domain.Land},
	{"acreage", domain.Land},
	{"commercial", domain.Commercial},
	{"retail", domain.Commercial},
	{"office", domain.Commercial},
	{"industrial", domain.Commercial},
	{"single family", domain.House},
	{"single-family", domain.House},
	{"detached", domain.House},
	{"house", domain.House},
	{"home", domain.House},
	{"cabin", domain.House},
	{"bungalow", domain.House},
	{"ranch", domain.House},
	{"villa", domain.House},
}

// canonicalType lower-cases the free text and resolves it through the
// synonym table; anything unmatched is Unknown.
func canonicalType(raw string) domain.PropertyType {
	low := strings.ToLower(strings.TrimSpace(raw))
	if low == "" {
		return domain.UnknownType
	}
	for _, syn := range typeSynonyms {
		if strings.Contains(low, syn.needle) {
			return syn.t
		}
	}
	return domain.UnknownType
}

var nonNumericRe = regexp.MustCompile(`[^\d.]`)

// coerceNumber strips everything but digits and decimal points before
// parsing, then bound-checks. Out of range or unparseable → nil.
func coerceNumber(raw string, lo, hi float64) *float64 {
	cleaned := nonNumericRe.ReplaceAllString(raw, "")
	if cleaned == "" {
		return nil
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	if v < lo || v > hi {
		return nil
	}
	return &v
}

// usStateCodes covers the 50 states, DC and the territories.
var usStateCodes = map[string]struct{}{
	"AL": {}, "AK": {}, "AZ": {}, "AR": {}, "CA": {}, "CO": {}, "CT": {},
	"DE": {}, "FL": {}, "GA": {}, "HI": {}, "ID": {}, "IL": {}, "IN": {},
	"IA": {}, "KS": {}, "KY": {}, "LA": {}, "ME": {}, "MD": {}, "MA": {},
	"MI": {}, "MN": {}, "MS": {}, "MO": {}, "MT": {}, "NE": {}, "NV": {},
	"NH": {}, "NJ": {}, "NM": {}, "NY": {}, "NC": {}, "ND": {}, "OH": {},
	"OK": {}, "OR": {}, "PA": {}, "RI": {}, "SC": {}, "SD": {}, "TN": {},
	"TX": {}, "UT": {}, "VT": {}, "VA": {}, "WA": {}, "WV": {}, "WI": {},
	"WY": {}, "DC": {}, "AS": {}, "GU": {}, "MP": {}, "PR": {}, "VI": {},
}

// normalizeState upper-cases and validates against the fixed code set.
func normalizeState(raw string) *string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if _, ok := usStateCodes[s]; !ok {
		return nil
	}
	return &s
}

var zipRe = regexp.MustCompile(`\d{5}`)

// normalizeZip reduces free text to its first 5-digit run.
func normalizeZip(raw string) *string {
	z := zipRe.FindString(raw)
	if z == "" {
		return nil
	}
	return &z
}

// stateZipRe matches a trailing "…, WA 98101" style address tail.
var stateZipRe = regexp.MustCompile(`\b([A-Za-z]{2})[,\s]+(\d{5})(?:-\d{4})?\b`)

// stateZipFromAddress pulls state/zip candidates out of the free-text
// address; both still pass through their own validation.
func stateZipFromAddress(address string) (state, zip string) {
	if m := stateZipRe.FindStringSubmatch(address); m != nil {
		return m[1], m[2]
	}
	return "", ""
}

var digitsRe = regexp.MustCompile(`\d+`)

// normalizeCity title-cases and strips digits.
func normalizeCity(raw string) *string {
	c := digitsRe.ReplaceAllString(raw, "")
	c = titleCase(collapseWhitespace(c))
	if c == "" {
		return nil
	}
	return &c
}

// collapseWhitespace trims and squeezes internal runs to single spaces.
func collapseWhitespace(s string) string {
	fields := strings.FieldsFunc(s, unicode.IsSpace)
	return strings.Join(fields, " ")
}

// titleCase capitalizes the first letter of each word, lowering the rest.
func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// capitalizeLabel capitalizes each word of a source label while preserving
// an existing "(Sample)" provenance suffix.
func capitalizeLabel(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if strings.EqualFold(w, "(sample)") {
			words[i] = "(Sample)"
			continue
		}
		r := []rune(w)
		if len(r) > 0 && unicode.IsLetter(r[0]) {
			r[0] = unicode.ToUpper(r[0])
		}
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// ingest applies the per-row cleaning stages (type standardization, numeric
// coercion, location cleanup, string normalization) to one raw record.
func ingest(r domain.RawListingRecord) domain.CanonicalListing {
	out := domain.CanonicalListing{
		Source:       capitalizeLabel(collapseWhitespace(r.Source)),
		PropertyType: canonicalType(r.PropertyType),
		Price:        coerceNumber(r.Price, minPrice, maxPrice),
		Bedrooms:     coerceNumber(r.Bedrooms, minBedrooms, maxBedrooms),
		Bathrooms:    coerceNumber(r.Bathrooms, minBathrooms, maxBathrooms),
		AreaSqFt:     coerceNumber(r.AreaSqFt, minAreaSqFt, maxAreaSqFt),
	}

	if addr := collapseWhitespace(r.Address); addr != "" && !strings.EqualFold(addr, "n/a") {
		out.Address = &addr
	}

	city := r.City
	if strings.EqualFold(strings.TrimSpace(city), "n/a") {
		city = ""
	}
	out.City = normalizeCity(city)

	stateRaw, zipRaw := stateZipFromAddress(r.Address)
	out.State = normalizeState(stateRaw)
	out.Zip = normalizeZip(zipRaw)

	if u := strings.TrimSpace(r.URL); u != "" && !strings.EqualFold(u, "n/a") {
		out.URL = &u
	}

	return out
}
