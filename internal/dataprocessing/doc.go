// Package dataprocessing turns clinical-trial spreadsheet exports into typed
// records.
//
// # Architecture
//
// The package is organized into four small components:
//
//  1. Header resolution: column labels are normalized so that "Site ID",
//     "SiteID", "site_id" and "Site  ID:" all address the same column.
//  2. Study tags: the study identifier is taken from the file name
//     ("Study 101 ..." becomes "STUDY_101").
//  3. Classification: the file name decides whether a workbook holds safety
//     events, missing pages or subject statuses.
//  4. Parsing: the first worksheet is read with excelize, one record per
//     non-blank data row.
//
// # Usage
//
//	kind, reason := dataprocessing.Classify(path)
//	if kind == domain.RecordKindUnknown {
//	    log.Printf("skipping %s: %s", path, reason)
//	    return
//	}
//	batch, err := dataprocessing.NewParser(logger).ParseBytes(data, path, kind)
//
// # Error Handling
//
// Cell coercion never fails. A missing column yields "", an unparseable day
// count yields 0. Only a workbook that cannot be opened produces an error,
// and that error is scoped to the single file.
package dataprocessing
