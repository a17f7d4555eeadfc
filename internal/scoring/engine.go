package scoring

import (
	"log/slog"
	"math"
	"sort"

	"github.com/samber/lo"

	"github.com/joeyyy09/clinical-flow/internal/config"
	"github.com/joeyyy09/clinical-flow/internal/infrastructure"
	"github.com/joeyyy09/clinical-flow/internal/storage"
	"github.com/joeyyy09/clinical-flow/pkg/contracts/domain"
)

// Score kinds reported to the score.computations metric
const (
	KindHealth   = "health"
	KindDQI      = "dqi"
	KindRisk     = "risk"
	KindHeatmap  = "heatmap"
	KindPatients = "patients"
	KindSummary  = "summary"
)

// EngineConfig holds the tunables of the scoring engine
type EngineConfig struct {
	RiskTopN    int
	HeatmapTopN int
	Latency     LatencyProvider
	Metrics     *infrastructure.PipelineMetrics
}

// Engine computes every score from the records currently in the store.
// Nothing is cached; each call reads the store again.
type Engine struct {
	store       storage.Store
	latency     LatencyProvider
	metrics     *infrastructure.PipelineMetrics
	logger      *slog.Logger
	riskTopN    int
	heatmapTopN int
}

// NewEngine creates a scoring engine over store
func NewEngine(store storage.Store, logger *slog.Logger, cfg EngineConfig) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.RiskTopN <= 0 {
		cfg.RiskTopN = config.DefaultRiskTopN
	}
	if cfg.HeatmapTopN <= 0 {
		cfg.HeatmapTopN = config.DefaultHeatmapTopN
	}
	if cfg.Latency == nil {
		cfg.Latency = FixedLatency(config.DefaultLatencyDays)
	}

	return &Engine{
		store:       store,
		latency:     cfg.Latency,
		metrics:     cfg.Metrics,
		logger:      logger,
		riskTopN:    cfg.RiskTopN,
		heatmapTopN: cfg.HeatmapTopN,
	}
}

// siteCount is one site with its number of missing-page rows
type siteCount struct {
	Site  string
	Count int
}

// rankSites orders sites by missing-page count, highest first.
// Sites with equal counts keep the order in which they first appear.
func rankSites(pages []domain.MissingPage) []siteCount {
	names := lo.Map(pages, func(p domain.MissingPage, _ int) string { return p.SiteNumber })
	counts := lo.CountValues(names)

	ranked := lo.Map(lo.Uniq(names), func(site string, _ int) siteCount {
		return siteCount{Site: site, Count: counts[site]}
	})
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Count > ranked[j].Count })
	return ranked
}

func topN[T any](items []T, n int) []T {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}

// eventsForSite keeps the safety events whose free-text site matches site
func eventsForSite(events []domain.SafetyEvent, site string) []domain.SafetyEvent {
	return lo.Filter(events, func(e domain.SafetyEvent, _ int) bool {
		return ApproximateSiteMatch(e.Site, site)
	})
}

func countPending(events []domain.SafetyEvent) int {
	return lo.CountBy(events, func(e domain.SafetyEvent) bool { return e.IsPending() })
}

// roundScore rounds half away from zero and clamps to [0, 100]
func roundScore(v float64) int {
	r := int(math.Round(v))
	if r < 0 {
		return 0
	}
	if r > 100 {
		return 100
	}
	return r
}
