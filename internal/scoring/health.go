package scoring

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/joeyyy09/clinical-flow/internal/storage"
	"github.com/joeyyy09/clinical-flow/pkg/contracts/domain"
)

// missingPageNormalizer is the assumed number of subjects per study
const missingPageNormalizer = 100.0

// StudyHealth scores one study, or all studies when studyID is empty
func (e *Engine) StudyHealth(ctx context.Context, studyID string) (domain.StudyHealth, error) {
	filter := storage.Filter{StudyID: studyID}

	events, err := e.store.SafetyEvents(ctx, filter)
	if err != nil {
		return domain.StudyHealth{}, fmt.Errorf("load safety events: %w", err)
	}
	pages, err := e.store.MissingPages(ctx, filter)
	if err != nil {
		return domain.StudyHealth{}, fmt.Errorf("load missing pages: %w", err)
	}

	health := ComputeStudyHealth(studyID, events, pages)
	e.metrics.RecordScore(ctx, KindHealth)
	e.logger.DebugContext(ctx, "Study health computed",
		slog.String("study_id", studyID),
		slog.Int("score", health.Score))
	return health, nil
}

// ComputeStudyHealth combines the review backlog of safety events (40%)
// with the missing-page volume (60%).
func ComputeStudyHealth(studyID string, events []domain.SafetyEvent, pages []domain.MissingPage) domain.StudyHealth {
	h := domain.StudyHealth{
		StudyID:           studyID,
		SAEScore:          100,
		MissingScore:      100,
		TotalSAEs:         len(events),
		PendingSAEs:       countPending(events),
		TotalMissingPages: len(pages),
	}

	if h.TotalSAEs > 0 {
		ratio := float64(h.PendingSAEs) / float64(h.TotalSAEs)
		h.SAEScore = math.Max(0, 100-ratio*50)
	}
	if h.TotalMissingPages > 0 {
		density := float64(h.TotalMissingPages) / missingPageNormalizer
		h.MissingScore = math.Max(0, 100-density*2)
	}

	h.Score = roundScore(h.SAEScore*0.4 + h.MissingScore*0.6)
	return h
}
