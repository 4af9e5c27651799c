package rules

import (
	"regexp"
	"strconv"
	"strings"
)

// sizePattern matches a package size and unit embedded in a product
// description, e.g. "12 rolls", "56oz", "2 x 1.5L".
var sizePattern = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*[- ]?(oz|fl oz|lb|lbs|g|kg|ml|l|ct|count|pk|pack|rolls?|sheets?|bags?|pods?|ea)\b`)

// unitAliases maps raw unit spellings to their canonical form.
var unitAliases = map[string]string{
	"oz":     "oz",
	"fl oz":  "fl_oz",
	"lb":     "lb",
	"lbs":    "lb",
	"g":      "g",
	"kg":     "kg",
	"ml":     "ml",
	"l":      "l",
	"ct":     "count",
	"count":  "count",
	"pk":     "pack",
	"pack":   "pack",
	"roll":   "roll",
	"rolls":  "roll",
	"sheet":  "sheet",
	"sheets": "sheet",
	"bag":    "bag",
	"bags":   "bag",
	"pod":    "pod",
	"pods":   "pod",
	"ea":     "each",
}

// extractPackageSize pulls the package size and canonical unit out of a
// product description. ok is false when no size token is present.
func extractPackageSize(text string) (size float64, unit string, ok bool) {
	match := sizePattern.FindStringSubmatch(text)
	if match == nil {
		return 0, "", false
	}

	size, err := strconv.ParseFloat(match[1], 64)
	if err != nil || size <= 0 {
		return 0, "", false
	}

	unit, ok = unitAliases[strings.ToLower(match[2])]
	if !ok {
		return 0, "", false
	}

	return size, unit, true
}

// canonicalName strips the size token from a description and normalizes
// whitespace and casing into a matching-friendly product name.
func canonicalName(text string) string {
	name := sizePattern.ReplaceAllString(text, " ")
	name = strings.Join(strings.Fields(name), " ")
	name = strings.Trim(name, " ,-")
	return titleCase(name)
}

// titleCase lowercases a description and capitalizes each word. Retailer
// exports are frequently all-caps; this produces a stable canonical form.
func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		r := []rune(w)
		if len(r) > 0 {
			r[0] = []rune(strings.ToUpper(string(r[0])))[0]
			words[i] = string(r)
		}
	}
	return strings.Join(words, " ")
}
