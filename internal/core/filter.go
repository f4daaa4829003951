package core

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// DefaultLocale orders filter option values when no locale is configured.
const DefaultLocale = "bg"

// Match reports whether r satisfies every set criterion.
//
// Date bounds skip records without a date, except when both bounds are set:
// then a dateless record is excluded. The end bound is compared against the
// day after End so the whole end day is included.
func (c FilterCriteria) Match(r Record) bool {
	if c.Start.Valid && r.Date.Valid && r.Date.Time.Before(c.Start.Time) {
		return false
	}
	if c.End.Valid && r.Date.Valid && r.Date.Time.After(addDays(c.End, 1).Time) {
		return false
	}
	if c.Start.Valid && c.End.Valid && !r.Date.Valid {
		return false
	}
	if c.Group != "" && r.Group != c.Group {
		return false
	}
	if c.Class != "" && r.Class != c.Class {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(c.Search)); q != "" &&
		!strings.Contains(strings.ToLower(r.Product), q) {
		return false
	}
	return true
}

// IsZero reports whether no criterion is set.
func (c FilterCriteria) IsZero() bool {
	return !c.Start.Valid && !c.End.Valid && c.Group == "" && c.Class == "" &&
		strings.TrimSpace(c.Search) == ""
}

// ApplyFilters returns the records matching c, in input order. The result
// never aliases records.
func ApplyFilters(records []Record, c FilterCriteria) []Record {
	out := make([]Record, 0, len(records))
	if c.IsZero() {
		return append(out, records...)
	}
	for _, r := range records {
		if c.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// FilterOptionsFor collects the distinct non-empty group and class values,
// sorted for the given locale tag.
func FilterOptionsFor(records []Record, locale string) FilterOptions {
	groups := make(map[string]struct{})
	classes := make(map[string]struct{})
	for _, r := range records {
		if r.Group != "" {
			groups[r.Group] = struct{}{}
		}
		if r.Class != "" {
			classes[r.Class] = struct{}{}
		}
	}
	return FilterOptions{
		Groups:  sortedKeys(groups, locale),
		Classes: sortedKeys(classes, locale),
	}
}

func sortedKeys(set map[string]struct{}, locale string) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}

	tag, err := language.Parse(locale)
	if err != nil {
		sort.Strings(keys)
		return keys
	}
	collate.New(tag).SortStrings(keys)
	return keys
}
