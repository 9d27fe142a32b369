package property

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// SourceDateLayout is the DD/MM/YYYY layout used by the register extracts.
const SourceDateLayout = "02/01/2006"

// strayPriceByte is the euro sign as it appears after Latin-1 decoding of the
// register files (0x80 has no Latin-1 glyph).
const strayPriceByte = '\u0080'

const secondHandMarker = "Second-Hand"

var errEmptyPrice = errors.New("empty price")

// ParseSaleDate parses a DD/MM/YYYY date as midnight UTC.
func ParseSaleDate(raw string) (time.Time, error) {
	t, err := time.ParseInLocation(SourceDateLayout, strings.TrimSpace(raw), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse sale date: %w", err)
	}
	return t, nil
}

// ParsePrice strips thousands separators, whitespace and the stray euro byte,
// then parses what is left as a float.
func ParsePrice(raw string) (float64, error) {
	cleaned := strings.Map(func(r rune) rune {
		if r == ',' || r == strayPriceByte || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)
	if cleaned == "" {
		return 0, errEmptyPrice
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("parse price: %w", err)
	}
	return v, nil
}

// TitleCase upper-cases the first letter of every word and lower-cases the rest.
func TitleCase(s string) string {
	// cases.Caser is not safe for concurrent use.
	return cases.Title(language.Und).String(strings.TrimSpace(s))
}

// IsYes reports whether a register Yes/No column says "Yes".
func IsYes(raw string) bool {
	return strings.TrimSpace(raw) == "Yes"
}

// FullMarketPrice converts the register's "Not Full Market Price" column:
// "Yes" there means the sale was NOT at full market price.
func FullMarketPrice(raw string) bool {
	return !IsYes(raw)
}

// SecondHand reports whether a property description marks a second-hand dwelling.
func SecondHand(description string) bool {
	return strings.Contains(description, secondHandMarker)
}

// Optional returns nil for blank values.
func Optional(raw string) *string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	return &s
}
