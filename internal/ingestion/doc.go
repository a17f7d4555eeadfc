// Package ingestion runs the file-to-store pipeline: list the roots,
// classify each file by name, parse it with the header resolver and persist
// one batch per file. Runs are sequential and not idempotent.
package ingestion
