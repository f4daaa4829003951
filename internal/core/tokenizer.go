package core

// tokenizer.go turns delimited text into a matrix of cells.
//
// The scanner never fails. Malformed quoting degrades into a best-effort
// split, so rows may have different lengths and callers go through cell().

import "strings"

// Tokenize splits text into rows of fields using delim as the separator.
//
// A doubled quote inside a quoted field is a literal quote. Delimiters and
// line breaks inside quotes are literal. "\n", "\r" and "\r\n" end a row. The
// final row is emitted even without a trailing line break, so text ending in
// a newline produces a last row with one empty field.
func Tokenize(text string, delim rune) [][]string {
	var (
		rows     [][]string
		row      []string
		field    strings.Builder
		inQuotes bool
	)

	src := []rune(text)
	for i := 0; i < len(src); i++ {
		c := src[i]

		if c == '"' {
			if inQuotes && i+1 < len(src) && src[i+1] == '"' {
				field.WriteRune('"')
				i++
				continue
			}
			inQuotes = !inQuotes
			continue
		}

		if !inQuotes && c == delim {
			row = append(row, field.String())
			field.Reset()
			continue
		}

		if !inQuotes && (c == '\n' || c == '\r') {
			if c == '\r' && i+1 < len(src) && src[i+1] == '\n' {
				i++
			}
			row = append(row, field.String())
			field.Reset()
			rows = append(rows, row)
			row = nil
			continue
		}

		field.WriteRune(c)
	}

	row = append(row, field.String())
	rows = append(rows, row)
	return rows
}

// QuoteField quotes a cell if it contains the delimiter, a quote or a line
// break, doubling embedded quotes.
func QuoteField(s string, delim rune) string {
	if !strings.ContainsRune(s, delim) && !strings.ContainsAny(s, "\"\r\n") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// JoinRow serializes one row, quoting fields as needed.
func JoinRow(fields []string, delim rune) string {
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = QuoteField(f, delim)
	}
	return strings.Join(quoted, string(delim))
}

// cell returns row[idx] trimmed, or "" when the row is too short.
func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// isBlankRow reports whether row is the artifact of an empty line.
func isBlankRow(row []string) bool {
	return len(row) == 1 && strings.TrimSpace(row[0]) == ""
}
