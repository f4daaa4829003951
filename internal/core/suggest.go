package core

// suggest.go derives restock hints and data-quality issues.
//
// Both views always run over the full dataset. Filters chosen by the user
// narrow the summary table only.

import (
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// Suggestion defaults.
const (
	DefaultWindowDays    = 30
	DefaultCoverageDays  = 14
	DefaultMinQuantity   = 5
	DefaultMaxFastMovers = 20
	DefaultMaxIssues     = 50
)

// SuggestConfig tunes the suggestion engine.
type SuggestConfig struct {
	WindowDays    int   // Look-back window ending at the reference date
	CoverageDays  int   // Days of sales a suggested minimum stock should cover
	MinQuantity   int64 // Window quantity needed to count as a fast mover
	MaxFastMovers int   // Cap on returned fast movers
	MaxIssues     int   // Cap on displayed issues
}

// DefaultSuggestConfig returns the default tuning.
func DefaultSuggestConfig() SuggestConfig {
	return SuggestConfig{
		WindowDays:    DefaultWindowDays,
		CoverageDays:  DefaultCoverageDays,
		MinQuantity:   DefaultMinQuantity,
		MaxFastMovers: DefaultMaxFastMovers,
		MaxIssues:     DefaultMaxIssues,
	}
}

// withDefaults replaces non-positive values with defaults.
func (c SuggestConfig) withDefaults() SuggestConfig {
	d := DefaultSuggestConfig()
	if c.WindowDays <= 0 {
		c.WindowDays = d.WindowDays
	}
	if c.CoverageDays <= 0 {
		c.CoverageDays = d.CoverageDays
	}
	if c.MinQuantity <= 0 {
		c.MinQuantity = d.MinQuantity
	}
	if c.MaxFastMovers <= 0 {
		c.MaxFastMovers = d.MaxFastMovers
	}
	if c.MaxIssues <= 0 {
		c.MaxIssues = d.MaxIssues
	}
	return c
}

// Suggest computes fast movers and issues for records as of now.
func Suggest(records []Record, cfg SuggestConfig, now time.Time) Suggestions {
	cfg = cfg.withDefaults()
	ref, movers := FastMovers(records, cfg, now)
	return Suggestions{
		ReferenceDate: ref,
		WindowDays:    cfg.WindowDays,
		FastMovers:    movers,
		Issues:        FindIssues(records, cfg.MaxIssues, now),
	}
}

// latestDate returns the newest record date, or an invalid date if no record
// has one.
func latestDate(records []Record) pgtype.Date {
	var latest pgtype.Date
	for _, r := range records {
		if r.Date.Valid && (!latest.Valid || r.Date.Time.After(latest.Time)) {
			latest = r.Date
		}
	}
	return latest
}

// FastMovers returns the reference date of the window and the products whose
// window quantity reaches cfg.MinQuantity.
//
// The window is cfg.WindowDays days ending at the latest record date. When no
// record has a date, the reference is today and every record is in the window.
func FastMovers(records []Record, cfg SuggestConfig, now time.Time) (pgtype.Date, []FastMover) {
	cfg = cfg.withDefaults()

	ref := latestDate(records)
	windowed := ref.Valid
	if !windowed {
		ref = DateOf(now)
	}
	start := addDays(ref, -(cfg.WindowDays - 1))

	sums := make(map[string]int64)
	var order []string
	for _, r := range records {
		if windowed && (!r.Date.Valid || r.Date.Time.Before(start.Time) || r.Date.Time.After(ref.Time)) {
			continue
		}
		if _, seen := sums[r.Product]; !seen {
			order = append(order, r.Product)
		}
		sums[r.Product] += r.Quantity
	}

	movers := make([]FastMover, 0)
	window := int64(cfg.WindowDays)
	coverage := int64(cfg.CoverageDays)
	for _, p := range order {
		sum := sums[p]
		if sum < cfg.MinQuantity {
			continue
		}
		movers = append(movers, FastMover{
			Product:           p,
			WindowQuantity:    sum,
			PerDayRate:        float64(sum) / float64(window),
			SuggestedMinStock: (sum*coverage + window - 1) / window, // ceil(rate * coverage)
		})
	}

	sort.SliceStable(movers, func(i, j int) bool {
		if movers[i].WindowQuantity != movers[j].WindowQuantity {
			return movers[i].WindowQuantity > movers[j].WindowQuantity
		}
		return movers[i].Product < movers[j].Product
	})
	if len(movers) > cfg.MaxFastMovers {
		movers = movers[:cfg.MaxFastMovers]
	}
	return ref, movers
}

// recordKey identifies duplicate records structurally.
type recordKey struct {
	product  string
	quantity int64
	date     string
	group    string
	class    string
}

// issueKey collapses identical issue rows.
type issueKey struct {
	reason   IssueReason
	product  string
	quantity int64
	date     string
}

// DetectIssues flags every record against each rule independently. A record
// may produce several issues. The result is not de-duplicated.
func DetectIssues(records []Record, now time.Time) []Issue {
	tomorrow := addDays(DateOf(now), 1)
	seen := make(map[recordKey]struct{}, len(records))

	var issues []Issue
	flag := func(r Record, reason IssueReason) {
		issues = append(issues, Issue{
			Reason:   reason,
			Product:  r.Product,
			Quantity: r.Quantity,
			Date:     r.Date,
			Row:      r.Row,
		})
	}

	for _, r := range records {
		key := recordKey{r.Product, r.Quantity, FormatDate(r.Date), r.Group, r.Class}
		if _, dup := seen[key]; dup {
			flag(r, IssueDuplicate)
		} else {
			seen[key] = struct{}{}
		}

		if p := strings.TrimSpace(r.Product); p == "" || p == UnnamedProduct {
			flag(r, IssueMissingProduct)
		}
		if r.Quantity == 0 {
			flag(r, IssueInvalidQuantity)
		}
		if r.Quantity < 0 {
			flag(r, IssueNegativeQuantity)
		}
		if !r.Date.Valid {
			flag(r, IssueMissingDate)
		} else if r.Date.Time.After(tomorrow.Time) {
			flag(r, IssueFutureDate)
		}
	}
	return issues
}

// DedupeIssues keeps the first of each (reason, product, quantity, date) tuple.
func DedupeIssues(issues []Issue) []Issue {
	seen := make(map[issueKey]struct{}, len(issues))
	out := make([]Issue, 0, len(issues))
	for _, is := range issues {
		k := issueKey{is.Reason, is.Product, is.Quantity, FormatDate(is.Date)}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, is)
	}
	return out
}

// FindIssues detects, de-duplicates and caps issues for display.
func FindIssues(records []Record, maxIssues int, now time.Time) IssueReport {
	if maxIssues <= 0 {
		maxIssues = DefaultMaxIssues
	}
	all := DedupeIssues(DetectIssues(records, now))

	report := IssueReport{Issues: all, Total: len(all)}
	if len(all) > maxIssues {
		report.Issues = all[:maxIssues]
		report.Omitted = len(all) - maxIssues
	}
	return report
}
