// Package events publishes ingestion reports to Kafka so downstream
// consumers can react to new trial data. When publishing is disabled the
// pipeline gets a NopNotifier.
package events
