// Package normalize converts the date and amount notations found in
// bank emails and statement text into canonical forms.
package normalize

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// dateFormats lists the date layouts seen across vendor sources, tried
// in order. The canonical layout comes first so already-normalized
// dates short-circuit.
var dateFormats = []string{
	"2006-01-02",
	"2006/01/02",
	"02/01/2006",
	"2 Jan 2006",
	"02 Jan 2006",
	"2 January 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"02-01-2006",
	"2006年01月02日",
	"2006年1月2日",
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 -0700 (MST)",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05",
}

// yearlessFormats lists layouts that omit the year, as seen in some
// statement tables. They are resolved by DateInYear.
var yearlessFormats = []string{
	"2 Jan",
	"02 Jan",
	"Jan 2",
	"01月02日",
	"1月2日",
	"02/01",
}

// Date converts a raw date string to the canonical YYYY-MM-DD form.
// Unrecognized input is returned unchanged so the validator can flag
// it downstream rather than losing the original text.
func Date(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return raw
	}

	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return raw
}

// DateInYear converts a raw date string to YYYY-MM-DD, resolving
// yearless notations like "15 Jan" against the given year. Full dates
// keep their own year.
func DateInYear(raw string, year int) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return raw
	}

	if normalized := Date(trimmed); normalized != trimmed || isCanonical(trimmed) {
		return normalized
	}

	for _, layout := range yearlessFormats {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return time.Date(year, t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).
				Format("2006-01-02")
		}
	}
	return raw
}

func isCanonical(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

// Amount parses a monetary string into a decimal. Thousands separators
// and surrounding currency symbols are stripped. Unparseable input
// yields the zero decimal and false.
func Amount(raw string) (decimal.Decimal, bool) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.Trim(cleaned, "$￥¥€£ ")
	for _, prefix := range []string{"HKD", "USD", "CNY", "RMB", "US$", "HK$"} {
		cleaned = strings.TrimPrefix(cleaned, prefix)
	}
	cleaned = strings.TrimSpace(cleaned)

	if cleaned == "" {
		return decimal.Zero, false
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
