package domain

import (
	"time"
)

// IngestStatus is the outcome of processing one source file
type IngestStatus string

const (
	IngestStatusIngested IngestStatus = "ingested"
	IngestStatusSkipped  IngestStatus = "skipped"
	IngestStatusFailed   IngestStatus = "failed"
)

// FileReport describes what happened to a single source file
type FileReport struct {
	Path        string        `json:"path"`
	Kind        RecordKind    `json:"kind,omitempty"`
	Status      IngestStatus  `json:"status"`
	Records     int           `json:"records"`
	StudyID     string        `json:"study_id,omitempty"`
	SkipReason  string        `json:"skip_reason,omitempty"`
	Error       string        `json:"error,omitempty"`
	ContentHash string        `json:"content_hash,omitempty"`
	Duration    time.Duration `json:"duration"`
}

// IngestReport collects the per-file reports of one ingestion run
type IngestReport struct {
	RunID      string       `json:"run_id"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Roots      []string     `json:"roots"`
	Warnings   []string     `json:"warnings,omitempty"`
	Files      []FileReport `json:"files"`
}

// Count returns the number of file reports with the given status
func (r *IngestReport) Count(status IngestStatus) int {
	n := 0
	for _, f := range r.Files {
		if f.Status == status {
			n++
		}
	}
	return n
}

// RecordsIngested returns the total number of records persisted in the run
func (r *IngestReport) RecordsIngested() int {
	n := 0
	for _, f := range r.Files {
		if f.Status == IngestStatusIngested {
			n += f.Records
		}
	}
	return n
}
