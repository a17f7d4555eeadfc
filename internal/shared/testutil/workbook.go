package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// newWorkbook renders rows into the first sheet; rows[0] is usually the header
func newWorkbook(t *testing.T, rows [][]interface{}) *excelize.File {
	t.Helper()

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow(sheet, cell, &r))
	}
	return f
}

// WorkbookBytes returns rows as an in-memory xlsx
func WorkbookBytes(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()

	f := newWorkbook(t, rows)
	defer f.Close()

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

// WriteWorkbook saves rows as an xlsx file at path, creating parent directories
func WriteWorkbook(t *testing.T, path string, rows [][]interface{}) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))

	f := newWorkbook(t, rows)
	defer f.Close()
	require.NoError(t, f.SaveAs(path))
}
