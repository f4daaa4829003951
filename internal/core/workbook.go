package core

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ErrNoSheets is returned for a workbook without worksheets.
var ErrNoSheets = errors.New("workbook has no sheets")

// ReadWorkbook returns the cell matrix of the first worksheet of an .xlsx
// file. Cells hold their displayed (formatted) text. Rows keep excelize's
// ragged shape: trailing empty cells are not present.
func ReadWorkbook(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheets
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}

	for i, row := range rows {
		if len(row) == 0 {
			rows[i] = []string{""}
		}
	}
	return rows, nil
}
