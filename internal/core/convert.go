package core

// convert.go turns raw cell strings into typed record values.
//
// These functions handle the messy reality of exported sales sheets:
//   - Decimal commas and thousands separators in quantities
//   - Units or currency noise around numbers ("12 pcs", "€1,5")
//   - ISO dates next to day-first local dates (05.03.24, 5/3/2024)
//
// Nothing here returns an error. Bad input becomes zero or an absent date
// and the row is kept.

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// DateLayout is the canonical text form of a record date.
const DateLayout = "2006-01-02"

var (
	// quantityNoise matches everything a quantity may not contain.
	quantityNoise = regexp.MustCompile(`[^0-9,.\-]`)

	// quantityFormat validates a cleaned quantity before decimal parsing.
	quantityFormat = regexp.MustCompile(`^-?(\d+\.?\d*|\.\d+)$`)

	// dayFirstDate matches D/M/Y, D.M.Y and D-M-Y with a 2 or 4 digit year.
	dayFirstDate = regexp.MustCompile(`^(\d{1,2})[/.\-](\d{1,2})[/.\-](\d{4}|\d{2})$`)

	half = decimal.New(5, -1)
)

// directDateLayouts are tried before the day-first pattern. None of them is
// ambiguous about day and month order.
var directDateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006-1-2",
	"2006/01/02",
	"2006/1/2",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
	time.RFC1123,
	time.RFC1123Z,
}

// ParseQuantity converts a quantity cell to an integer.
//
// Only digits, comma, dot and minus are kept. With both comma and dot present
// commas are thousands separators; with only a comma, the first comma is the
// decimal point. The value is rounded half up. The boolean is false when the
// cell held no parseable number, in which case the quantity is zero.
func ParseQuantity(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	s = quantityNoise.ReplaceAllString(s, "")
	hasComma := strings.Contains(s, ",")
	hasDot := strings.Contains(s, ".")
	switch {
	case hasComma && hasDot:
		s = strings.ReplaceAll(s, ",", "")
	case hasComma:
		s = strings.Replace(s, ",", ".", 1)
	}

	if !quantityFormat.MatchString(s) {
		return 0, false
	}

	// decimal wants digits on both sides of the point
	s = strings.TrimSuffix(s, ".")
	if strings.HasPrefix(s, "-.") {
		s = "-0" + s[1:]
	} else if strings.HasPrefix(s, ".") {
		s = "0" + s
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false
	}

	rounded := d.Add(half).Floor()
	if !rounded.BigInt().IsInt64() {
		return 0, false
	}
	return rounded.IntPart(), true
}

// ParseDate converts a date cell to a calendar date.
// Returns an invalid date for empty or unrecognized input.
func ParseDate(s string) pgtype.Date {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Date{}
	}

	for _, layout := range directDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.Date()
			return civilDate(y, int(m), d)
		}
	}

	m := dayFirstDate.FindStringSubmatch(s)
	if m == nil {
		return pgtype.Date{}
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	if len(m[3]) == 2 {
		year += 2000
	}
	return civilDate(year, month, day)
}

// civilDate builds a date, rejecting parts that time.Date would normalize
// (month 13, February 30).
func civilDate(year, month, day int) pgtype.Date {
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return pgtype.Date{}
	}
	return pgtype.Date{Time: t, Valid: true}
}

// DateOf returns the calendar date of t in its own location.
func DateOf(t time.Time) pgtype.Date {
	y, m, d := t.Date()
	return civilDate(y, int(m), d)
}

// FormatDate renders d as YYYY-MM-DD, or "" when absent.
func FormatDate(d pgtype.Date) string {
	if !d.Valid {
		return ""
	}
	return d.Time.Format(DateLayout)
}

// addDays shifts a valid date by n calendar days.
func addDays(d pgtype.Date, n int) pgtype.Date {
	if !d.Valid {
		return d
	}
	return pgtype.Date{Time: d.Time.AddDate(0, 0, n), Valid: true}
}
