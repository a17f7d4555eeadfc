// Package services holds the use cases that sit above the scoring engine
// and the store.
//
// SiteService assembles the site drill-down (DQI, patient classification
// and monitoring notes) and validates new annotations before they are
// stored. StatusService reports whether the store and data directory are
// usable.
//
// Services take their collaborators as small interfaces so tests can pass
// fakes or a storage.MemoryStore:
//
//	svc := services.NewSiteService(engine, store, logger)
//	details, err := svc.Details(ctx, "101")
package services
