package config

import (
	"time"

	"github.com/joeyyy09/clinical-flow/pkg/contracts"
)

// Application constants
const (
	// Application Info
	AppName    = "clinicalflow"
	AppVersion = contracts.Version

	// EnvPrefix namespaces every environment variable, e.g. CLINICALFLOW_STORAGE_DSN
	EnvPrefix = "CLINICALFLOW"

	// File Paths (relative to the base directory)
	DefaultDataDir      = "data"
	DefaultRawDir       = "data/raw"
	DefaultReportsDir   = "data/reports"
	DefaultLogsDir      = "logs"
	DefaultLogFile      = "logs/clinicalflow.log"
	DefaultDatabaseFile = "data/clinicalflow.db"

	// Scoring
	DefaultRiskTopN    = 20
	DefaultHeatmapTopN = 10
	DefaultLatencyDays = 5

	// Latency modes
	LatencyModeFixed  = "fixed"
	LatencyModeRandom = "random"
	LatencyModeTable  = "table"

	// Events
	DefaultEventsTopic = "clinicalflow.ingest"

	// Operation Timeouts
	DefaultOperationTimeout = 30 * time.Minute
	EventPublishTimeout     = 10 * time.Second
)
