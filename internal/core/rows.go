package core

// Table is a tokenized file split into its header row and resolved mapping.
type Table struct {
	Header  []string
	Mapping HeaderMapping
	Rows    [][]string
}

// NewTable treats the first row of matrix as the header and resolves it.
// An empty matrix yields an empty table with nothing resolved.
func NewTable(matrix [][]string, synonyms Synonyms) Table {
	if len(matrix) == 0 {
		return Table{Mapping: HeaderMapping{}}
	}
	return Table{
		Header:  matrix[0],
		Mapping: ResolveHeaders(matrix[0], synonyms),
		Rows:    matrix[1:],
	}
}

// BuildRecords converts every non-blank data row into a Record.
//
// Rows are never rejected: a missing product becomes UnnamedProduct, a bad
// quantity becomes zero and a bad date is absent. Unresolved columns give the
// same empty value on every row.
func (t Table) BuildRecords() []Record {
	records := make([]Record, 0, len(t.Rows))
	for i, row := range t.Rows {
		if isBlankRow(row) {
			continue
		}

		get := func(f Field) string {
			idx, ok := t.Mapping.Index(f)
			if !ok {
				return ""
			}
			return cell(row, idx)
		}

		product := get(FieldProduct)
		if product == "" {
			product = UnnamedProduct
		}
		qty, _ := ParseQuantity(get(FieldQuantity))

		records = append(records, Record{
			Product:  product,
			Quantity: qty,
			Date:     ParseDate(get(FieldDate)),
			Group:    get(FieldGroup),
			Class:    get(FieldClass),
			Row:      i + 2, // header is row 1
		})
	}
	return records
}

// BuildRecords resolves the header of matrix and builds its records.
func BuildRecords(matrix [][]string, synonyms Synonyms) ([]Record, HeaderMapping) {
	t := NewTable(matrix, synonyms)
	return t.BuildRecords(), t.Mapping
}
