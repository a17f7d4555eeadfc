package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	apperrors "github.com/joeyyy09/clinical-flow/internal/errors"
	"github.com/joeyyy09/clinical-flow/pkg/contracts/domain"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// insertChunk bounds the number of rows per INSERT statement
const insertChunk = 200

// SQLStore is the gorm-backed Store for SQLite and PostgreSQL
type SQLStore struct {
	db     *gorm.DB
	logger *slog.Logger
}

// Open connects to the database, creating the SQLite file's directory when
// needed, and migrates the record tables.
func Open(driver, dsn string, log *slog.Logger) (*SQLStore, error) {
	if log == nil {
		log = slog.Default()
	}

	var dialector gorm.Dialector
	switch driver {
	case DriverSQLite:
		if dsn != ":memory:" && !isURI(dsn) {
			if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
				return nil, apperrors.NewStorageError("cannot create database directory", err).WithContext("dsn", dsn)
			}
		}
		dialector = sqlite.Open(dsn)
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open database", err).WithContext("driver", driver)
	}

	// a single connection keeps an in-memory SQLite database alive across queries
	if driver == DriverSQLite {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.SetMaxOpenConns(1)
		}
	}

	return migrated(NewSQLStore(db, log), driver)
}

// migrated runs AutoMigrate and closes the connection pool when it fails
func migrated(s *SQLStore, driver string) (*SQLStore, error) {
	if err := s.AutoMigrate(); err != nil {
		if cerr := s.Close(); cerr != nil {
			s.logger.Warn("Failed to close database after migration error", slog.String("error", cerr.Error()))
		}
		return nil, err
	}

	s.logger.Debug("Storage opened", slog.String("driver", driver))
	return s, nil
}

// NewSQLStore wraps an already opened gorm handle. Call AutoMigrate before use.
func NewSQLStore(db *gorm.DB, log *slog.Logger) *SQLStore {
	if log == nil {
		log = slog.Default()
	}
	return &SQLStore{db: db, logger: log}
}

// AutoMigrate creates or updates the record tables
func (s *SQLStore) AutoMigrate() error {
	models := []interface{}{
		&domain.SafetyEvent{},
		&domain.MissingPage{},
		&domain.SubjectStatus{},
		&domain.SiteAnnotation{},
	}
	for _, m := range models {
		if err := s.db.AutoMigrate(m); err != nil {
			return apperrors.NewStorageError("auto-migrate failed", err).WithContext("model", fmt.Sprintf("%T", m))
		}
	}
	return nil
}

// InsertBatch writes the whole batch inside one transaction
func (s *SQLStore) InsertBatch(ctx context.Context, batch *domain.RecordBatch) error {
	if batch == nil || batch.Len() == 0 {
		if batch != nil && batch.Kind == domain.RecordKindUnknown {
			return ErrUnknownKind
		}
		return nil
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		switch batch.Kind {
		case domain.RecordKindSafetyEvent:
			return tx.CreateInBatches(batch.SafetyEvents, insertChunk).Error
		case domain.RecordKindMissingPage:
			return tx.CreateInBatches(batch.MissingPages, insertChunk).Error
		case domain.RecordKindSubjectStatus:
			return tx.CreateInBatches(batch.SubjectStatus, insertChunk).Error
		default:
			return ErrUnknownKind
		}
	})
	if err != nil {
		if err == ErrUnknownKind {
			return err
		}
		return apperrors.NewStorageError("insert batch", err).
			WithContext("kind", batch.Kind.String()).
			WithContext("file", batch.SourceFile)
	}
	return nil
}

func (s *SQLStore) SafetyEvents(ctx context.Context, f Filter) ([]domain.SafetyEvent, error) {
	var out []domain.SafetyEvent
	if err := s.query(ctx, f, "site").Find(&out).Error; err != nil {
		return nil, apperrors.NewStorageError("list safety events", err)
	}
	return out, nil
}

func (s *SQLStore) MissingPages(ctx context.Context, f Filter) ([]domain.MissingPage, error) {
	var out []domain.MissingPage
	if err := s.query(ctx, f, "site_number").Find(&out).Error; err != nil {
		return nil, apperrors.NewStorageError("list missing pages", err)
	}
	return out, nil
}

func (s *SQLStore) SubjectStatuses(ctx context.Context, f Filter) ([]domain.SubjectStatus, error) {
	var out []domain.SubjectStatus
	if err := s.query(ctx, f, "site_id").Find(&out).Error; err != nil {
		return nil, apperrors.NewStorageError("list subject statuses", err)
	}
	return out, nil
}

func (s *SQLStore) AddAnnotation(ctx context.Context, a *domain.SiteAnnotation) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if err := s.db.WithContext(ctx).Create(a).Error; err != nil {
		return apperrors.NewStorageError("add annotation", err).WithContext("site", a.SiteNumber)
	}
	return nil
}

func (s *SQLStore) Annotations(ctx context.Context, site string) ([]domain.SiteAnnotation, error) {
	out := make([]domain.SiteAnnotation, 0)
	err := s.db.WithContext(ctx).
		Where("site_number = ?", site).
		Order("created_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, apperrors.NewStorageError("list annotations", err).WithContext("site", site)
	}
	return out, nil
}

func (s *SQLStore) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	db := s.db.WithContext(ctx)
	steps := []struct {
		model interface{}
		dst   *int64
	}{
		{&domain.SafetyEvent{}, &c.SafetyEvents},
		{&domain.MissingPage{}, &c.MissingPages},
		{&domain.SubjectStatus{}, &c.SubjectStatuses},
		{&domain.SiteAnnotation{}, &c.Annotations},
	}
	for _, step := range steps {
		if err := db.Model(step.model).Count(step.dst).Error; err != nil {
			return Counts{}, apperrors.NewStorageError("count records", err)
		}
	}
	return c, nil
}

// Close releases the underlying connection pool
func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *SQLStore) query(ctx context.Context, f Filter, siteColumn string) *gorm.DB {
	q := s.db.WithContext(ctx).Order("id ASC")
	if f.StudyID != "" {
		q = q.Where("study_id = ?", f.StudyID)
	}
	if f.Site != "" {
		q = q.Where(siteColumn+" = ?", f.Site)
	}
	return q
}

func isURI(dsn string) bool {
	return len(dsn) > 5 && dsn[:5] == "file:"
}
