package scoring

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/lo"

	"github.com/joeyyy09/clinical-flow/internal/storage"
	"github.com/joeyyy09/clinical-flow/pkg/contracts/domain"
)

// Recommendation texts attached to risk rows
const (
	RecommendAudit     = "Audit Site: High Missing Data volume."
	RecommendSafety    = "Safety Review Required: High SAE frequency."
	RecommendIntensive = "Intensive Monitoring recommended."
	RecommendRemote    = "Schedule remote monitoring visit."
	RecommendRoutine   = "Maintain routine surveillance."
)

// RiskRows returns the detailed risk rows of the n sites with the most
// missing pages. n <= 0 uses the configured default.
func (e *Engine) RiskRows(ctx context.Context, n int) ([]domain.RiskRow, error) {
	if n <= 0 {
		n = e.riskTopN
	}

	pages, err := e.store.MissingPages(ctx, storage.Filter{})
	if err != nil {
		return nil, fmt.Errorf("load missing pages: %w", err)
	}
	events, err := e.store.SafetyEvents(ctx, storage.Filter{})
	if err != nil {
		return nil, fmt.Errorf("load safety events: %w", err)
	}

	ranked := topN(rankSites(pages), n)
	rows := make([]domain.RiskRow, 0, len(ranked))
	for _, sc := range ranked {
		siteEvents := eventsForSite(events, sc.Site)
		latency := e.latency.LatencyDays(sc.Site)

		row := ComputeRiskRow(sc.Site, sc.Count, len(siteEvents), latency)
		row.DQI = ComputeSiteDQI(sc.Site, sc.Count, latency, siteEvents).DQI
		row.Country = firstCountry(siteEvents)
		if p, ok := lo.Find(pages, func(p domain.MissingPage) bool { return p.SiteNumber == sc.Site }); ok {
			row.StudyID = p.StudyID
		}
		rows = append(rows, row)
	}

	e.metrics.RecordScore(ctx, KindRisk)
	e.logger.DebugContext(ctx, "Risk rows computed",
		slog.Int("sites", len(rows)),
		slog.Int("limit", n))
	return rows, nil
}

// ComputeRiskRow derives the composite risk score, level and recommendation
func ComputeRiskRow(site string, missing, saeCount, latencyDays int) domain.RiskRow {
	score := float64(missing)*0.5 + float64(saeCount)*2 + float64(latencyDays)*10
	level := RiskLevelFor(score)

	return domain.RiskRow{
		Site:           site,
		SAECount:       saeCount,
		MissingPages:   missing,
		QueryLatency:   latencyDays,
		RiskScore:      score,
		RiskLevel:      level,
		Recommendation: Recommendation(level, missing, saeCount),
	}
}

// RiskLevelFor buckets a risk score: above 100 is High, above 50 Medium
func RiskLevelFor(score float64) domain.RiskLevel {
	switch {
	case score > 100:
		return domain.RiskLevelHigh
	case score > 50:
		return domain.RiskLevelMedium
	default:
		return domain.RiskLevelLow
	}
}

// Recommendation picks the follow-up action for a site.
// High-risk sites get audit wording when missing pages outnumber SAEs at
// least five to one, safety wording with more than five SAEs. A site with no
// missing pages never gets audit wording.
func Recommendation(level domain.RiskLevel, missing, saeCount int) string {
	switch level {
	case domain.RiskLevelHigh:
		switch {
		case missing > 0 && missing >= saeCount*5:
			return RecommendAudit
		case saeCount > 5:
			return RecommendSafety
		default:
			return RecommendIntensive
		}
	case domain.RiskLevelMedium:
		return RecommendRemote
	default:
		return RecommendRoutine
	}
}

func firstCountry(events []domain.SafetyEvent) string {
	e, _ := lo.Find(events, func(e domain.SafetyEvent) bool { return e.Country != "" })
	return e.Country
}
