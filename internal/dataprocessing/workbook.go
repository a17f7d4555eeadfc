package dataprocessing

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// xlsCharset decodes the 8-bit strings of legacy workbooks
const xlsCharset = "utf-8"

// readFirstSheet returns the name and rows of the first worksheet. Legacy
// BIFF workbooks (.xls) go through the xls reader, everything else through
// excelize.
func readFirstSheet(r io.Reader, name string) (string, [][]string, error) {
	if strings.EqualFold(filepath.Ext(name), ".xls") {
		data, err := io.ReadAll(r)
		if err != nil {
			return "", nil, err
		}
		return readXLS(bytes.NewReader(data))
	}
	return readXLSX(r)
}

func readXLSX(r io.Reader) (string, [][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return "", nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", nil, ErrNoSheet
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return sheets[0], nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return sheets[0], rows, nil
}

func readXLS(r io.ReadSeeker) (sheetName string, rows [][]string, err error) {
	// the BIFF decoder panics on some truncated streams
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("malformed xls workbook: %v", p)
		}
	}()

	book, err := xls.OpenReader(r, xlsCharset)
	if err != nil {
		return "", nil, err
	}
	if book.NumSheets() == 0 {
		return "", nil, ErrNoSheet
	}
	sheet := book.GetSheet(0)
	if sheet == nil {
		return "", nil, ErrNoSheet
	}

	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		cells := make([]string, row.LastCol())
		for c := row.FirstCol(); c < row.LastCol(); c++ {
			cells[c] = row.Col(c)
		}
		rows = append(rows, cells)
	}

	// excelize drops trailing empty rows; do the same
	for len(rows) > 0 && len(rows[len(rows)-1]) == 0 {
		rows = rows[:len(rows)-1]
	}
	return sheet.Name, rows, nil
}
