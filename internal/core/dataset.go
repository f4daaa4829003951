package core

import (
	"fmt"
	"path/filepath"
	"strings"
)

// FileKind tells the pipeline how to turn bytes into a cell matrix.
type FileKind string

const (
	KindText     FileKind = "text"
	KindWorkbook FileKind = "workbook"
)

// KindOf classifies a file name by extension.
func KindOf(fileName string) FileKind {
	if strings.EqualFold(filepath.Ext(fileName), ".xlsx") {
		return KindWorkbook
	}
	return KindText
}

// ParseOptions configures Parse.
type ParseOptions struct {
	Decode   DecodeOptions
	Synonyms Synonyms // nil means DefaultSynonyms
}

// Parse runs the ingestion pipeline over the bytes of one file and returns
// an unsaved dataset. Identity fields (ID, FileName, LoadedAt) are left for
// the caller.
//
// Text files go through Decode, DetectDelimiter and Tokenize. Workbooks are
// read from their first sheet. Both then share header resolution and row
// building.
func Parse(kind FileKind, data []byte, opts ParseOptions) (*Dataset, error) {
	synonyms := opts.Synonyms
	if synonyms == nil {
		synonyms = DefaultSynonyms()
	}

	ds := &Dataset{Kind: kind}

	var matrix [][]string
	switch kind {
	case KindWorkbook:
		rows, err := ReadWorkbook(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParseFailed, err)
		}
		matrix = rows
	default:
		text, info, err := Decode(data, opts.Decode)
		if err != nil {
			return nil, err
		}
		delim := DetectDelimiter(text)
		matrix = Tokenize(text, delim)
		ds.Kind = KindText
		ds.Delimiter = DelimiterName(delim)
		ds.Encoding = info
	}

	t := NewTable(matrix, synonyms)
	ds.Headers = t.Header
	ds.Mapping = t.Mapping
	ds.Records = t.BuildRecords()
	return ds, nil
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}

// Missing returns the required fields the header did not resolve.
func (d *Dataset) Missing() []Field {
	return d.Mapping.Missing(FieldProduct, FieldQuantity)
}
