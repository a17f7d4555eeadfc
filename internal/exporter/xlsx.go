package exporter

import (
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"github.com/joeyyy09/clinical-flow/internal/config"
	"github.com/joeyyy09/clinical-flow/internal/files"
)

// XLSXWriter writes single-sheet workbooks with a bold, frozen header row
type XLSXWriter struct {
	files *files.Manager
}

// NewXLSXWriter creates a new workbook writer
func NewXLSXWriter(paths *config.Paths) *XLSXWriter {
	return &XLSXWriter{files: files.NewManager(paths)}
}

// WriteXLSX writes headers and rows to sheet and returns the resolved path
func (w *XLSXWriter) WriteXLSX(filePath, sheet string, headers []string, rows [][]interface{}) (string, error) {
	fullPath := w.files.ReportPath(filePath)

	slog.Info("Writing XLSX file",
		slog.String("file_path", filePath),
		slog.String("full_path", fullPath),
		slog.String("sheet", sheet),
		slog.Int("record_count", len(rows)))

	book := excelize.NewFile()
	defer book.Close()

	if err := book.SetSheetName(book.GetSheetName(0), sheet); err != nil {
		return "", fmt.Errorf("failed to name sheet: %w", err)
	}

	if len(headers) > 0 {
		header := make([]interface{}, len(headers))
		for i, h := range headers {
			header[i] = h
		}
		if err := book.SetSheetRow(sheet, "A1", &header); err != nil {
			return "", fmt.Errorf("failed to write headers: %w", err)
		}

		bold, err := book.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err != nil {
			return "", fmt.Errorf("failed to create header style: %w", err)
		}
		last, err := excelize.CoordinatesToCellName(len(headers), 1)
		if err != nil {
			return "", err
		}
		if err := book.SetCellStyle(sheet, "A1", last, bold); err != nil {
			return "", fmt.Errorf("failed to style headers: %w", err)
		}
		if err := book.SetPanes(sheet, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		}); err != nil {
			return "", fmt.Errorf("failed to freeze header row: %w", err)
		}
	}

	offset := 1
	if len(headers) == 0 {
		offset = 0
	}
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1+offset)
		if err != nil {
			return "", err
		}
		if err := book.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return "", fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	out, err := w.files.Create(filePath)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if err := book.Write(out); err != nil {
		return "", fmt.Errorf("failed to write workbook: %w", err)
	}
	return fullPath, out.Close()
}
