// Package scoring turns persisted trial records into monitoring scores:
// study health, per-site Data Quality Index, ranked risk rows with a
// recommendation, the missing-page heatmap, per-subject clean status and a
// record summary.
//
// Every score is closed-form arithmetic over the records in the store at
// call time. The only non-record input is the per-site query latency,
// supplied by a LatencyProvider so tests can pin it.
//
// Safety events carry a free-text site, so they are joined to canonical
// site numbers with ApproximateSiteMatch rather than equality.
package scoring
