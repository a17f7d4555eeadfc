package scoring

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/joeyyy09/clinical-flow/internal/storage"
	"github.com/joeyyy09/clinical-flow/pkg/contracts/domain"
)

// SiteDQI computes the Data Quality Index of one site
func (e *Engine) SiteDQI(ctx context.Context, site string) (domain.SiteDQI, error) {
	pages, err := e.store.MissingPages(ctx, storage.Filter{Site: site})
	if err != nil {
		return domain.SiteDQI{}, fmt.Errorf("load missing pages: %w", err)
	}
	events, err := e.store.SafetyEvents(ctx, storage.Filter{})
	if err != nil {
		return domain.SiteDQI{}, fmt.Errorf("load safety events: %w", err)
	}

	dqi := ComputeSiteDQI(site, len(pages), e.latency.LatencyDays(site), eventsForSite(events, site))
	e.metrics.RecordScore(ctx, KindDQI)
	e.logger.DebugContext(ctx, "Site DQI computed",
		slog.String("site", site),
		slog.Int("dqi", dqi.DQI))
	return dqi, nil
}

// ComputeSiteDQI weighs missing pages (40%), query latency (30%) and SAE
// review conformity (30%). siteEvents must already be narrowed to the site.
func ComputeSiteDQI(site string, missingCount, latencyDays int, siteEvents []domain.SafetyEvent) domain.SiteDQI {
	d := domain.SiteDQI{
		Site:         site,
		MissingCount: missingCount,
		MissingScore: math.Max(0, 100-float64(missingCount)*10),
		LatencyDays:  latencyDays,
		LatencyScore: math.Max(0, 100-float64(latencyDays)*5),
		SAETotal:     len(siteEvents),
		SAEPending:   countPending(siteEvents),
		SAEScore:     100,
	}

	if d.SAETotal > 0 {
		reviewed := float64(d.SAETotal - d.SAEPending)
		d.SAEScore = math.Round(reviewed / float64(d.SAETotal) * 100)
	}

	d.DQI = roundScore(d.MissingScore*0.4 + d.LatencyScore*0.3 + d.SAEScore*0.3)
	return d
}
