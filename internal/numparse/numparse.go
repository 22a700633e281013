// Package numparse normalizes free-form numeric text from documents into
// exact decimal values. Source documents are untrusted: an unparsable
// quantity or price degrades that one value to zero instead of aborting
// extraction, and callers that need to tell a defaulted zero from a genuine
// one use ParseDetail.
package numparse

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Parse converts text like "€1,234.56", "1.234,56" or "42" into a decimal.
// It never fails; anything unparsable yields zero.
func Parse(s string) decimal.Decimal {
	v, _ := ParseDetail(s)
	return v
}

// ParseDetail is Parse plus an ok flag. ok is false when the raw text held
// no parsable number at all, in which case the returned value is a
// defaulted zero rather than a value the document actually stated.
func ParseDetail(s string) (decimal.Decimal, bool) {
	cleaned := stripNonNumeric(s)
	if cleaned == "" {
		return decimal.Zero, false
	}

	// Separator disambiguation. With both separators present the one seen
	// last is the decimal point and the other is a thousands separator, so
	// "1,234.56" and "1.234,56" both reduce to 1234.56. A lone comma is a
	// decimal separator (European convention).
	lastDot := strings.LastIndex(cleaned, ".")
	lastComma := strings.LastIndex(cleaned, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastDot > lastComma {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		} else {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.ReplaceAll(cleaned, ",", ".")
		}
	case lastComma >= 0:
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	}

	v, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, false
	}
	return v, true
}

// stripNonNumeric keeps digits, separators and the minus sign, dropping
// currency symbols, spaces and units.
func stripNonNumeric(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',', r == '-':
			b.WriteRune(r)
		}
	}
	return b.String()
}
