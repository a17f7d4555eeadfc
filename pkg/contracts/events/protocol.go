// Package events contains the contract of the ingestion events published to
// the message broker.
package events

import (
	"encoding/json"
	"time"
)

// Protocol version
const (
	ProtocolVersion = "1.0"
	ProtocolName    = "clinicalflow-ingest"
)

// EventType identifies the payload carried by an Envelope
type EventType string

const (
	// EventFileProcessed carries a domain.FileReport
	EventFileProcessed EventType = "ingest.file.processed"
	// EventRunCompleted carries a RunSummary
	EventRunCompleted EventType = "ingest.run.completed"
)

// Envelope is the message body written to the broker
type Envelope struct {
	Version   string          `json:"version"`
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	RunID     string          `json:"run_id"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
	TraceID   string          `json:"trace_id,omitempty"`
}

// RunSummary is the payload of EventRunCompleted
type RunSummary struct {
	Roots      []string  `json:"roots"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Ingested   int       `json:"ingested"`
	Skipped    int       `json:"skipped"`
	Failed     int       `json:"failed"`
	Records    int       `json:"records"`
	Warnings   []string  `json:"warnings,omitempty"`
}

// Decode unmarshals the payload into v
func (e Envelope) Decode(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}
