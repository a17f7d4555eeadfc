package storage

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/joeyyy09/clinical-flow/pkg/contracts/domain"
)

// DriverMemory keeps everything in process memory
const DriverMemory = "memory"

// MemoryStore is an in-process Store used by tests and one-shot runs
type MemoryStore struct {
	mu          sync.RWMutex
	nextID      uint
	events      []domain.SafetyEvent
	pages       []domain.MissingPage
	statuses    []domain.SubjectStatus
	annotations []domain.SiteAnnotation
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) InsertBatch(ctx context.Context, batch *domain.RecordBatch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if batch == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	switch batch.Kind {
	case domain.RecordKindSafetyEvent:
		for _, e := range batch.SafetyEvents {
			m.nextID++
			e.ID = m.nextID
			m.events = append(m.events, e)
		}
	case domain.RecordKindMissingPage:
		for _, p := range batch.MissingPages {
			m.nextID++
			p.ID = m.nextID
			m.pages = append(m.pages, p)
		}
	case domain.RecordKindSubjectStatus:
		for _, s := range batch.SubjectStatus {
			m.nextID++
			s.ID = m.nextID
			m.statuses = append(m.statuses, s)
		}
	default:
		return ErrUnknownKind
	}
	return nil
}

func (m *MemoryStore) SafetyEvents(ctx context.Context, f Filter) ([]domain.SafetyEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.SafetyEvent, 0, len(m.events))
	for _, e := range m.events {
		if f.matches(e.StudyID, e.Site) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *MemoryStore) MissingPages(ctx context.Context, f Filter) ([]domain.MissingPage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.MissingPage, 0, len(m.pages))
	for _, p := range m.pages {
		if f.matches(p.StudyID, p.SiteNumber) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *MemoryStore) SubjectStatuses(ctx context.Context, f Filter) ([]domain.SubjectStatus, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.SubjectStatus, 0, len(m.statuses))
	for _, s := range m.statuses {
		if f.matches(s.StudyID, s.SiteID) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *MemoryStore) AddAnnotation(ctx context.Context, a *domain.SiteAnnotation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}

	m.mu.Lock()
	m.annotations = append(m.annotations, *a)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Annotations(ctx context.Context, site string) ([]domain.SiteAnnotation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.SiteAnnotation, 0)
	for _, a := range m.annotations {
		if a.SiteNumber == site {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *MemoryStore) Counts(ctx context.Context) (Counts, error) {
	if err := ctx.Err(); err != nil {
		return Counts{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	return Counts{
		SafetyEvents:    int64(len(m.events)),
		MissingPages:    int64(len(m.pages)),
		SubjectStatuses: int64(len(m.statuses)),
		Annotations:     int64(len(m.annotations)),
	}, nil
}

// Close is a no-op
func (m *MemoryStore) Close() error { return nil }

func (f Filter) matches(studyID, site string) bool {
	if f.StudyID != "" && f.StudyID != studyID {
		return false
	}
	if f.Site != "" && f.Site != site {
		return false
	}
	return true
}
