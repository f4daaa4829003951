package core

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// Field is one of the canonical columns raw headers are resolved to.
type Field string

const (
	FieldProduct  Field = "product"
	FieldQuantity Field = "quantity"
	FieldDate     Field = "date"
	FieldGroup    Field = "group"
	FieldClass    Field = "class"
)

// CanonicalFields lists the canonical fields in resolution order.
var CanonicalFields = []Field{FieldProduct, FieldQuantity, FieldDate, FieldGroup, FieldClass}

// UnnamedProduct replaces a missing product name.
const UnnamedProduct = "(unnamed)"

// Record is one normalized sales line item.
// Records are never mutated after BuildRecords returns them.
type Record struct {
	Product  string      `json:"product"`
	Quantity int64       `json:"quantity"`
	Date     pgtype.Date `json:"date"` // Valid=false when absent or unparseable
	Group    string      `json:"group"`
	Class    string      `json:"class"`
	Row      int         `json:"row"` // 1-based row number, the header is row 1
}

// HeaderMapping maps each resolved canonical field to its column index.
// A field without a key is unresolved.
type HeaderMapping map[Field]int

// Index returns the column index for f and whether it was resolved.
func (m HeaderMapping) Index(f Field) (int, bool) {
	idx, ok := m[f]
	return idx, ok
}

// Missing returns the fields in want that are not resolved.
func (m HeaderMapping) Missing(want ...Field) []Field {
	var missing []Field
	for _, f := range want {
		if _, ok := m[f]; !ok {
			missing = append(missing, f)
		}
	}
	return missing
}

// FilterCriteria narrows a record set. Zero values mean "not set".
type FilterCriteria struct {
	Start  pgtype.Date
	End    pgtype.Date
	Group  string
	Class  string
	Search string
}

// AggregateRow is the summed quantity of one product.
type AggregateRow struct {
	Product       string `json:"product" csv:"product"`
	TotalQuantity int64  `json:"totalQuantity" csv:"total_quantity"`
}

// Summary is the filtered view handed to the presentation layer.
type Summary struct {
	RowCount       int            `json:"rowCount"`
	TotalRows      int            `json:"totalRows"`
	TotalQuantity  int64          `json:"totalQuantity"`
	UniqueProducts int            `json:"uniqueProducts"`
	Rows           []AggregateRow `json:"rows"`
}

// FilterOptions are the distinct values available for the category filters.
type FilterOptions struct {
	Groups  []string `json:"groups"`
	Classes []string `json:"classes"`
}

// FastMover is a product whose recent-window quantity meets the threshold.
type FastMover struct {
	Product           string  `json:"product"`
	WindowQuantity    int64   `json:"windowQuantity"`
	PerDayRate        float64 `json:"perDayRate"`
	SuggestedMinStock int64   `json:"suggestedMinStock"`
}

// IssueReason identifies a data-quality rule.
type IssueReason string

const (
	IssueDuplicate        IssueReason = "duplicate"
	IssueMissingProduct   IssueReason = "missing_product"
	IssueInvalidQuantity  IssueReason = "invalid_quantity"
	IssueNegativeQuantity IssueReason = "negative_quantity"
	IssueMissingDate      IssueReason = "missing_date"
	IssueFutureDate       IssueReason = "future_date"
)

// Label is the display text of the reason.
func (r IssueReason) Label() string {
	switch r {
	case IssueDuplicate:
		return "Duplicate row"
	case IssueMissingProduct:
		return "Missing product name"
	case IssueInvalidQuantity:
		return "Zero or invalid quantity"
	case IssueNegativeQuantity:
		return "Negative quantity (possible return)"
	case IssueMissingDate:
		return "Missing or invalid date"
	case IssueFutureDate:
		return "Date in the future"
	default:
		return string(r)
	}
}

// Issue is a data-quality anomaly attached to a record.
type Issue struct {
	Reason   IssueReason `json:"reason"`
	Product  string      `json:"product"`
	Quantity int64       `json:"quantity"`
	Date     pgtype.Date `json:"date"`
	Row      int         `json:"row"`
}

// IssueReport is the de-duplicated, display-capped list of issues.
type IssueReport struct {
	Issues  []Issue `json:"issues"`
	Total   int     `json:"total"`
	Omitted int     `json:"omitted"`
}

// Suggestions bundles both suggestion views for the full dataset.
type Suggestions struct {
	ReferenceDate pgtype.Date `json:"referenceDate"`
	WindowDays    int         `json:"windowDays"`
	FastMovers    []FastMover `json:"fastMovers"`
	Issues        IssueReport `json:"issues"`
}

// Dataset is one loaded file. It is an immutable snapshot; a new load
// replaces it as a whole.
type Dataset struct {
	ID        uuid.UUID     `json:"id"`
	FileName  string        `json:"fileName"`
	Kind      FileKind      `json:"kind"`
	LoadedAt  time.Time     `json:"loadedAt"`
	Delimiter string        `json:"delimiter,omitempty"`
	Encoding  DecodeInfo    `json:"encoding"`
	Headers   []string      `json:"headers"`
	Mapping   HeaderMapping `json:"mapping"`
	Records   []Record      `json:"-"`
}

// LoadResult is returned to the caller after a successful load.
type LoadResult struct {
	ID        uuid.UUID     `json:"id"`
	FileName  string        `json:"fileName"`
	Kind      FileKind      `json:"kind"`
	Delimiter string        `json:"delimiter,omitempty"`
	Encoding  DecodeInfo    `json:"encoding"`
	Headers   []string      `json:"headers"`
	Mapping   HeaderMapping `json:"mapping"`
	Missing   []Field       `json:"missing,omitempty"`
	Warnings  []string      `json:"warnings,omitempty"`
	Rows      int           `json:"rows"`
	Options   FilterOptions `json:"options"`
	Duration  time.Duration `json:"durationNs"`
}
