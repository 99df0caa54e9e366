package places

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Source identifies which provider produced a record.
type Source string

const (
	// SourceGeo marks records from the geographic POI provider. They carry
	// verified coordinates and take precedence during merging.
	SourceGeo Source = "geo"
	// SourceGenerative marks records suggested by the LLM. They fill in for
	// sparse regions and never override a geographic record.
	SourceGenerative Source = "llm"
)

// Record is one place candidate. ID alone is the identity used for dedup;
// Category only affects output grouping.
type Record struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Source   Source  `json:"source"`
}

var stripMarks = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// NormalizeID derives the stable identity key for a place name: lowercase,
// whitespace collapsed, diacritics stripped. Two records from different
// sources with the same normalized name are the same place.
func NormalizeID(name string) string {
	folded := strings.ToLower(strings.Join(strings.Fields(name), " "))
	stripped, _, err := transform.String(stripMarks, folded)
	if err != nil {
		return folded
	}
	return stripped
}
