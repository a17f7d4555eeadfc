package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/joeyyy09/clinical-flow/internal/config"
	apperrors "github.com/joeyyy09/clinical-flow/internal/errors"
	"github.com/joeyyy09/clinical-flow/pkg/contracts/domain"
)

// newTestStores returns every adapter, each over an empty database
func newTestStores(t *testing.T) map[string]Store {
	t.Helper()

	sqlStore, err := Open(DriverSQLite, ":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { sqlStore.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": sqlStore,
	}
}

func pageBatch(study string, sites ...string) *domain.RecordBatch {
	b := &domain.RecordBatch{Kind: domain.RecordKindMissingPage, SourceFile: "Global_Missing_Pages.xlsx", StudyID: study}
	for i, s := range sites {
		b.MissingPages = append(b.MissingPages, domain.MissingPage{
			StudyID:     study,
			SiteNumber:  s,
			SubjectName: "SUBJ-" + s,
			MissingDays: i,
			SourceFile:  b.SourceFile,
			SourceRow:   i + 2,
		})
	}
	return b
}

func TestInsertBatchAndQuery(t *testing.T) {
	for name, store := range newTestStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, store.InsertBatch(ctx, pageBatch("STUDY_1", "101", "102", "101")))
			require.NoError(t, store.InsertBatch(ctx, pageBatch("STUDY_2", "201")))

			all, err := store.MissingPages(ctx, Filter{})
			require.NoError(t, err)
			require.Len(t, all, 4)
			assert.Equal(t, []string{"101", "102", "101", "201"},
				[]string{all[0].SiteNumber, all[1].SiteNumber, all[2].SiteNumber, all[3].SiteNumber})
			assert.NotZero(t, all[0].ID)

			bySite, err := store.MissingPages(ctx, Filter{Site: "101"})
			require.NoError(t, err)
			assert.Len(t, bySite, 2)

			byStudy, err := store.MissingPages(ctx, Filter{StudyID: "STUDY_2"})
			require.NoError(t, err)
			require.Len(t, byStudy, 1)
			assert.Equal(t, "201", byStudy[0].SiteNumber)
		})
	}
}

func TestInsertBatchAllKinds(t *testing.T) {
	for name, store := range newTestStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, store.InsertBatch(ctx, &domain.RecordBatch{
				Kind: domain.RecordKindSafetyEvent,
				SafetyEvents: []domain.SafetyEvent{
					{StudyID: "STUDY_1", Site: "Site 101", PatientID: "P1", ReviewStatus: "Reviewed"},
					{StudyID: "STUDY_1", Site: "Site 101", PatientID: "P2", ReviewStatus: "Pending"},
				},
			}))
			require.NoError(t, store.InsertBatch(ctx, &domain.RecordBatch{
				Kind: domain.RecordKindSubjectStatus,
				SubjectStatus: []domain.SubjectStatus{
					{StudyID: "STUDY_1", SiteID: "101", SubjectID: "P1", SubjectStatus: "Enrolled"},
				},
			}))

			events, err := store.SafetyEvents(ctx, Filter{StudyID: "STUDY_1"})
			require.NoError(t, err)
			require.Len(t, events, 2)
			assert.Equal(t, "P1", events[0].PatientID)

			statuses, err := store.SubjectStatuses(ctx, Filter{Site: "101"})
			require.NoError(t, err)
			require.Len(t, statuses, 1)

			counts, err := store.Counts(ctx)
			require.NoError(t, err)
			assert.Equal(t, Counts{SafetyEvents: 2, SubjectStatuses: 1}, counts)
		})
	}
}

func TestReinsertAppendsDuplicates(t *testing.T) {
	for name, store := range newTestStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, store.InsertBatch(ctx, pageBatch("STUDY_1", "101")))
			require.NoError(t, store.InsertBatch(ctx, pageBatch("STUDY_1", "101")))

			pages, err := store.MissingPages(ctx, Filter{})
			require.NoError(t, err)
			assert.Len(t, pages, 2)
		})
	}
}

func TestInsertBatchEdgeCases(t *testing.T) {
	for name, store := range newTestStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			assert.NoError(t, store.InsertBatch(ctx, nil))
			assert.NoError(t, store.InsertBatch(ctx, &domain.RecordBatch{Kind: domain.RecordKindMissingPage}))
			assert.ErrorIs(t, store.InsertBatch(ctx, &domain.RecordBatch{}), ErrUnknownKind)

			counts, err := store.Counts(ctx)
			require.NoError(t, err)
			assert.Equal(t, Counts{}, counts)
		})
	}
}

func TestAnnotations(t *testing.T) {
	for name, store := range newTestStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

			first := &domain.SiteAnnotation{SiteNumber: "101", Comment: "first", Tag: domain.AnnotationTagInfo, CreatedAt: base}
			second := &domain.SiteAnnotation{SiteNumber: "101", Comment: "second", Tag: domain.AnnotationTagUrgent, CreatedAt: base.Add(time.Hour)}
			other := &domain.SiteAnnotation{SiteNumber: "202", Comment: "other", Tag: domain.AnnotationTagInfo, CreatedAt: base}

			for _, a := range []*domain.SiteAnnotation{first, second, other} {
				require.NoError(t, store.AddAnnotation(ctx, a))
				assert.NotEmpty(t, a.ID)
			}

			notes, err := store.Annotations(ctx, "101")
			require.NoError(t, err)
			require.Len(t, notes, 2)
			assert.Equal(t, "first", notes[0].Comment)
			assert.Equal(t, domain.AnnotationTagUrgent, notes[1].Tag)

			none, err := store.Annotations(ctx, "999")
			require.NoError(t, err)
			assert.NotNil(t, none)
			assert.Empty(t, none)
		})
	}
}

func TestMemoryStoreCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := NewMemoryStore()
	assert.ErrorIs(t, store.InsertBatch(ctx, pageBatch("STUDY_1", "101")), context.Canceled)
	_, err := store.MissingPages(ctx, Filter{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.StorageConfig
		wantErr error
	}{
		{name: "memory", cfg: config.StorageConfig{Driver: DriverMemory}},
		{name: "sqlite file", cfg: config.StorageConfig{Driver: DriverSQLite, DSN: filepath.Join(t.TempDir(), "db", "clinical.db")}},
		{name: "unknown driver", cfg: config.StorageConfig{Driver: "oracle"}, wantErr: ErrUnsupportedDriver},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := New(tt.cfg, nil)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			defer store.Close()

			require.NoError(t, store.InsertBatch(context.Background(), pageBatch("STUDY_1", "101")))
			counts, err := store.Counts(context.Background())
			require.NoError(t, err)
			assert.Equal(t, int64(1), counts.MissingPages)
		})
	}
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "clinical.db")
	ctx := context.Background()

	s1, err := Open(DriverSQLite, dsn, nil)
	require.NoError(t, err)
	require.NoError(t, s1.InsertBatch(ctx, pageBatch("STUDY_1", "101", "102")))
	require.NoError(t, s1.Close())

	s2, err := Open(DriverSQLite, dsn, nil)
	require.NoError(t, err)
	defer s2.Close()

	pages, err := s2.MissingPages(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, pages, 2)
	assert.Equal(t, "Global_Missing_Pages.xlsx", pages[0].SourceFile)
	assert.Equal(t, 2, pages[0].SourceRow)
}

func TestMigrationFailureClosesConnection(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.Callback().Raw().Before("gorm:raw").Register("test:reject_ddl", func(tx *gorm.DB) {
		_ = tx.AddError(errors.New("ddl rejected"))
	}))
	sqlDB, err := db.DB()
	require.NoError(t, err)

	store, err := migrated(NewSQLStore(db, nil), DriverSQLite)
	require.Error(t, err)
	assert.Nil(t, store)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeStorage))
	assert.ErrorContains(t, sqlDB.Ping(), "database is closed")
}
