package sources

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"

	"github.com/hearthstone-io/hearthscout/internal/domain"
)

// SampleSuffix marks synthetic provenance on the source label.
const SampleSuffix = " (Sample)"

var streetNames = []string{
	"Main St", "Oak Ave", "Maple Dr", "Washington Blvd", "Cedar Ln",
	"Park Ave", "Lake Dr", "Forest Rd", "Sunset Blvd", "River Rd",
}

// Generator fabricates structurally valid listings when a live source is
// blocked, empty, or the caller asked for demo data. Output is deterministic
// for a given seed and flows through the same cleaning pipeline as live
// records, so both paths are tested identically.
type Generator struct {
	rng *rand.Rand
}

func NewGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// Generate produces count fictitious records around locationHint. The
// sourceLabel is suffixed " (Sample)" so provenance survives cleaning.
func (g *Generator) Generate(locationHint string, count int, sourceLabel string) []domain.RawListingRecord {
	city := locationHint
	if i := strings.Index(locationHint, ","); i >= 0 {
		city = locationHint[:i]
	}
	city = strings.TrimSpace(city)

	label := sourceLabel
	if !strings.HasSuffix(label, SampleSuffix) {
		label += SampleSuffix
	}

	out := make([]domain.RawListingRecord, 0, count)
	for i := 0; i < count; i++ {
		houseNum := 100 + g.rng.Intn(9900)
		street := streetNames[g.rng.Intn(len(streetNames))]
		price := 100000 + g.rng.Intn(1400001)
		beds := 1 + g.rng.Intn(6)
		baths := math.Round((1+g.rng.Float64()*3.5)*2) / 2 // nearest half
		sqft := 800 + g.rng.Intn(4201)
		ptype := domain.PropertyTypes[g.rng.Intn(len(domain.PropertyTypes))]

		out = append(out, domain.RawListingRecord{
			Address:      fmt.Sprintf("%d %s, %s", houseNum, street, city),
			City:         city,
			Price:        strconv.Itoa(price),
			Bedrooms:     strconv.Itoa(beds),
			Bathrooms:    strconv.FormatFloat(baths, 'f', -1, 64),
			AreaSqFt:     strconv.Itoa(sqft),
			PropertyType: string(ptype),
			URL:          fmt.Sprintf("https://example.com/property/%s/%d", slug(sourceLabel), i),
			Source:       label,
		})
	}
	return out
}

func slug(s string) string {
	s = strings.ToLower(strings.TrimSuffix(strings.TrimSpace(s), SampleSuffix))
	s = strings.ReplaceAll(s, " ", "-")
	return strings.ReplaceAll(s, ".", "")
}
