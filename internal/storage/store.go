package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/joeyyy09/clinical-flow/internal/config"
	"github.com/joeyyy09/clinical-flow/pkg/contracts/domain"
)

var (
	// ErrUnknownKind is returned when a batch carries no recognised record kind
	ErrUnknownKind = errors.New("batch has unknown record kind")
	// ErrUnsupportedDriver is returned by New for drivers other than memory, sqlite and postgres
	ErrUnsupportedDriver = errors.New("unsupported storage driver")
)

// Filter narrows record queries. Empty fields match everything.
// Site is compared exactly against the record's own site column.
type Filter struct {
	StudyID string
	Site    string
}

// Counts reports the number of persisted records per table
type Counts struct {
	SafetyEvents    int64 `json:"safety_events"`
	MissingPages    int64 `json:"missing_pages"`
	SubjectStatuses int64 `json:"subject_statuses"`
	Annotations     int64 `json:"annotations"`
}

// Store persists ingested records and site annotations.
// Queries return rows in insertion order.
type Store interface {
	// InsertBatch appends every record of the batch atomically
	InsertBatch(ctx context.Context, batch *domain.RecordBatch) error
	SafetyEvents(ctx context.Context, f Filter) ([]domain.SafetyEvent, error)
	MissingPages(ctx context.Context, f Filter) ([]domain.MissingPage, error)
	SubjectStatuses(ctx context.Context, f Filter) ([]domain.SubjectStatus, error)
	AddAnnotation(ctx context.Context, a *domain.SiteAnnotation) error
	// Annotations returns the notes of one site, oldest first
	Annotations(ctx context.Context, site string) ([]domain.SiteAnnotation, error)
	Counts(ctx context.Context) (Counts, error)
	Close() error
}

// New opens the store selected by cfg.Driver
func New(cfg config.StorageConfig, logger *slog.Logger) (Store, error) {
	switch cfg.Driver {
	case DriverMemory:
		return NewMemoryStore(), nil
	case DriverSQLite, DriverPostgres:
		return Open(cfg.Driver, cfg.DSN, logger)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
	}
}
