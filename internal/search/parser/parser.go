// Package parser extracts structured property filters from free-form Persian
// text. Extraction is a chain of independent best-effort functions over
// normalized text; a field that does not match is simply left unset and no
// input ever produces an error.
package parser

import (
	"regexp"
	"strconv"
	"strings"

	"amlak-search/internal/models"
	"amlak-search/internal/search/normalize"
)

// Currency is fixed end to end; all extracted prices are rial amounts.
const Currency = "IRR"

// Unit multipliers applied to price figures.
const (
	TomanMultiplier   = 10_000_000
	MillionMultiplier = 1_000_000
	BillionMultiplier = 1_000_000_000
)

type dictEntry struct {
	keyword string
	value   string
}

// propertyTypes is scanned in order and the first substring match wins.
// The precedence is the iteration order below and nothing more; this
// ambiguity is inherited behavior and kept as is.
var propertyTypes = []dictEntry{
	{"خانه", "house"},
	{"آپارتمان", "apartment"},
	{"ویلا", "villa"},
	{"زمین", "land"},
	{"کلنگی", "demolition"},
}

// features are substring-scanned; every match is included.
var features = []dictEntry{
	{"نوساز", "newly_built"},
	{"سنددار", "documented"},
	{"پارکینگ", "parking"},
	{"انباری", "storage"},
	{"بالکن", "balcony"},
}

const priceUnits = `(تومان|تومن|میلیارد|میلیون)`

var (
	bedroomsPattern  = regexp.MustCompile(`(حداقل\s+)?(\d+)\s*(\+)?\s*(?:خوابه|خواب|اتاق)`)
	bathroomsPattern = regexp.MustCompile(`(حداقل\s+)?(\d+)\s*(\+)?\s*(?:حمام|سرویس)`)
	areaPattern      = regexp.MustCompile(`(حداقل\s+)?(\d+)\s*متر`)

	// Price patterns are tried in this order; the first match wins and
	// extraction stops. They are mutually exclusive by construction, not
	// guaranteed exhaustive.
	priceBetweenPattern = regexp.MustCompile(`بین\s+(\d+)\s*(?:تا|و)\s*(\d+)\s*` + priceUnits)
	priceUpToPattern    = regexp.MustCompile(`(?:تا|حداکثر|زیر)\s+(\d+)\s*` + priceUnits)
	priceFromPattern    = regexp.MustCompile(`(?:از|حداقل)\s+(\d+)\s*` + priceUnits)
)

// Parse extracts a ParsedQuery from raw Persian text. Empty or unrecognized
// input yields a ParsedQuery with all fields unset.
func Parse(text string) models.ParsedQuery {
	normalized := normalize.Digits(text)

	return models.ParsedQuery{
		PropertyType: extractPropertyType(normalized),
		Bedrooms:     extractCount(normalized, bedroomsPattern),
		Bathrooms:    extractCount(normalized, bathroomsPattern),
		Price:        extractPrice(normalized),
		Area:         extractCount(normalized, areaPattern),
		Features:     extractFeatures(normalized),
	}
}

func extractPropertyType(text string) string {
	for _, entry := range propertyTypes {
		if strings.Contains(text, entry.keyword) {
			return entry.value
		}
	}
	return ""
}

// extractCount handles the shared shape of the bedroom, bathroom and area
// patterns: an optional "حداقل" prefix or trailing "+" opens the range
// upward, otherwise min and max collapse to the matched number.
func extractCount(text string, pattern *regexp.Regexp) *models.IntRange {
	m := pattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}

	n, err := strconv.Atoi(m[2])
	if err != nil {
		return nil
	}

	atLeast := m[1] != "" || (len(m) > 3 && m[3] != "")
	r := &models.IntRange{Min: &n}
	if !atLeast {
		max := n
		r.Max = &max
	}
	return r
}

func extractPrice(text string) *models.PriceRange {
	if m := priceBetweenPattern.FindStringSubmatch(text); m != nil {
		min, errMin := strconv.ParseFloat(m[1], 64)
		max, errMax := strconv.ParseFloat(m[2], 64)
		if errMin != nil || errMax != nil {
			return nil
		}
		mult := unitMultiplier(m[3])
		min *= mult
		max *= mult
		if min > max {
			min, max = max, min
		}
		return &models.PriceRange{Min: &min, Max: &max, Currency: Currency}
	}

	if m := priceUpToPattern.FindStringSubmatch(text); m != nil {
		max, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return nil
		}
		max *= unitMultiplier(m[2])
		return &models.PriceRange{Max: &max, Currency: Currency}
	}

	if m := priceFromPattern.FindStringSubmatch(text); m != nil {
		min, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return nil
		}
		min *= unitMultiplier(m[2])
		return &models.PriceRange{Min: &min, Currency: Currency}
	}

	return nil
}

func unitMultiplier(unit string) float64 {
	switch unit {
	case "میلیارد":
		return BillionMultiplier
	case "میلیون":
		return MillionMultiplier
	default: // تومان / تومن
		return TomanMultiplier
	}
}

func extractFeatures(text string) []string {
	var found []string
	for _, entry := range features {
		if strings.Contains(text, entry.keyword) {
			found = append(found, entry.value)
		}
	}
	return found
}
