// Package storage persists ingested trial records and site annotations.
//
// Store is implemented by MemoryStore and by SQLStore, which runs on gorm
// with either the pure-Go SQLite driver or PostgreSQL. Records are append
// only: re-ingesting a file stores its rows again.
package storage
