// Package exporter writes score artifacts to report files.
//
// CSVWriter produces UTF-8 CSV with an optional BOM so spreadsheet tools
// detect the encoding. XLSXWriter produces a single-sheet workbook.
// RiskExporter picks one of them from the output extension:
//
//	exp := exporter.NewRiskExporter(paths, logger)
//	path, err := exp.Export(rows, "risk.xlsx")
//
// Bare file names are written to the reports directory.
package exporter
