package scoring

import (
	"context"
	"fmt"
	"sort"

	"github.com/samber/lo"

	"github.com/joeyyy09/clinical-flow/internal/storage"
	"github.com/joeyyy09/clinical-flow/pkg/contracts/domain"
)

// Summary describes the persisted records of one study, or of all studies
// when studyID is empty.
func (e *Engine) Summary(ctx context.Context, studyID string) (domain.RecordSummary, error) {
	filter := storage.Filter{StudyID: studyID}

	events, err := e.store.SafetyEvents(ctx, filter)
	if err != nil {
		return domain.RecordSummary{}, fmt.Errorf("load safety events: %w", err)
	}
	pages, err := e.store.MissingPages(ctx, filter)
	if err != nil {
		return domain.RecordSummary{}, fmt.Errorf("load missing pages: %w", err)
	}
	subjects, err := e.store.SubjectStatuses(ctx, filter)
	if err != nil {
		return domain.RecordSummary{}, fmt.Errorf("load subject statuses: %w", err)
	}

	e.metrics.RecordScore(ctx, KindSummary)
	return ComputeSummary(events, pages, subjects), nil
}

// ComputeSummary counts records, review statuses and missing-page volume
func ComputeSummary(events []domain.SafetyEvent, pages []domain.MissingPage, subjects []domain.SubjectStatus) domain.RecordSummary {
	s := domain.RecordSummary{
		SafetyEvents:    len(events),
		MissingPages:    len(pages),
		SubjectStatuses: len(subjects),
		PendingSAEs:     countPending(events),
		ReviewStatuses:  []domain.StatusCount{},
	}

	byStatus := lo.CountValuesBy(events, func(e domain.SafetyEvent) string { return e.ReviewStatus })
	for status, n := range byStatus {
		s.ReviewStatuses = append(s.ReviewStatuses, domain.StatusCount{Status: status, Count: n})
	}
	sort.Slice(s.ReviewStatuses, func(i, j int) bool {
		a, b := s.ReviewStatuses[i], s.ReviewStatuses[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Status < b.Status
	})

	if len(pages) > 0 {
		total := lo.SumBy(pages, func(p domain.MissingPage) int { return p.MissingDays })
		s.AverageMissingDays = float64(total) / float64(len(pages))
		s.TopMissingSite = rankSites(pages)[0].Site
	}
	return s
}
