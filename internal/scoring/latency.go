package scoring

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/joeyyy09/clinical-flow/internal/config"
)

// LatencyProvider supplies the average query latency, in days, of a site.
// No query table is ingested, so the value comes from configuration.
type LatencyProvider interface {
	LatencyDays(site string) int
}

// FixedLatency returns the same latency for every site
type FixedLatency int

// LatencyDays implements LatencyProvider
func (f FixedLatency) LatencyDays(string) int {
	if f < 0 {
		return 0
	}
	return int(f)
}

// RandomLatency draws a uniform latency in [min, max] from a seeded source,
// so two providers with the same seed produce the same sequence.
type RandomLatency struct {
	mu       sync.Mutex
	rng      *rand.Rand
	min, max int
}

// NewRandomLatency creates a seeded random provider
func NewRandomLatency(seed int64, min, max int) *RandomLatency {
	if min < 0 {
		min = 0
	}
	if max < min {
		max = min
	}
	return &RandomLatency{rng: rand.New(rand.NewSource(seed)), min: min, max: max}
}

// LatencyDays implements LatencyProvider
func (r *RandomLatency) LatencyDays(string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.min + r.rng.Intn(r.max-r.min+1)
}

// TableLatency looks the site up in a fixed table and falls back to a default
type TableLatency struct {
	table    map[string]int
	fallback int
}

// NewTableLatency copies table
func NewTableLatency(table map[string]int, fallback int) *TableLatency {
	t := make(map[string]int, len(table))
	for k, v := range table {
		t[k] = v
	}
	return &TableLatency{table: t, fallback: fallback}
}

// LatencyDays implements LatencyProvider
func (t *TableLatency) LatencyDays(site string) int {
	v, ok := t.table[site]
	if !ok {
		v = t.fallback
	}
	if v < 0 {
		return 0
	}
	return v
}

// NewLatencyProvider builds the provider selected by cfg.Mode
func NewLatencyProvider(cfg config.LatencyConfig) (LatencyProvider, error) {
	switch cfg.Mode {
	case config.LatencyModeFixed, "":
		return FixedLatency(cfg.Days), nil
	case config.LatencyModeRandom:
		return NewRandomLatency(cfg.Seed, cfg.Min, cfg.Max), nil
	case config.LatencyModeTable:
		return NewTableLatency(cfg.Table, cfg.Days), nil
	default:
		return nil, fmt.Errorf("unknown latency mode %q", cfg.Mode)
	}
}
