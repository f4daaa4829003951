package core

import "sort"

// AggregateByProduct sums quantities per exact product name.
//
// Rows are ordered by descending total. Equal totals are ordered by product
// name so the table is reproducible.
func AggregateByProduct(records []Record) []AggregateRow {
	totals := make(map[string]int64)
	var order []string
	for _, r := range records {
		if _, seen := totals[r.Product]; !seen {
			order = append(order, r.Product)
		}
		totals[r.Product] += r.Quantity
	}

	rows := make([]AggregateRow, len(order))
	for i, p := range order {
		rows[i] = AggregateRow{Product: p, TotalQuantity: totals[p]}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].TotalQuantity != rows[j].TotalQuantity {
			return rows[i].TotalQuantity > rows[j].TotalQuantity
		}
		return rows[i].Product < rows[j].Product
	})
	return rows
}

// Summarize builds the filtered summary of records.
// TotalRows is left for the caller, which knows the unfiltered size.
func Summarize(records []Record) Summary {
	rows := AggregateByProduct(records)

	var total int64
	for _, r := range records {
		total += r.Quantity
	}

	return Summary{
		RowCount:       len(records),
		TotalQuantity:  total,
		UniqueProducts: len(rows),
		Rows:           rows,
	}
}
