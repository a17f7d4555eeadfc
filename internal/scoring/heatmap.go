package scoring

import (
	"context"
	"fmt"

	"github.com/samber/lo"

	"github.com/joeyyy09/clinical-flow/internal/storage"
	"github.com/joeyyy09/clinical-flow/pkg/contracts/domain"
)

// RiskHeatmap returns the sites with the most missing pages, the count
// serving as the cell value.
func (e *Engine) RiskHeatmap(ctx context.Context) ([]domain.HeatmapCell, error) {
	pages, err := e.store.MissingPages(ctx, storage.Filter{})
	if err != nil {
		return nil, fmt.Errorf("load missing pages: %w", err)
	}

	cells := lo.Map(topN(rankSites(pages), e.heatmapTopN), func(sc siteCount, _ int) domain.HeatmapCell {
		return domain.HeatmapCell{Site: sc.Site, RiskScore: sc.Count}
	})
	e.metrics.RecordScore(ctx, KindHeatmap)
	return cells, nil
}
