package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Ingestion IngestionConfig `yaml:"ingestion" envconfig:"INGESTION"`
	Storage   StorageConfig   `yaml:"storage" envconfig:"STORAGE"`
	Scoring   ScoringConfig   `yaml:"scoring" envconfig:"SCORING"`
	Events    EventsConfig    `yaml:"events" envconfig:"EVENTS"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn warning error"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/clinicalflow.log"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	BaseDir    string `yaml:"base_dir" envconfig:"BASE_DIR"`
	DataDir    string `yaml:"data_dir" envconfig:"DATA_DIR" default:"data"`
	ReportsDir string `yaml:"reports_dir" envconfig:"REPORTS_DIR" default:"data/reports"`
	LogsDir    string `yaml:"logs_dir" envconfig:"LOGS_DIR" default:"logs"`
}

// IngestionConfig controls where source workbooks are discovered
type IngestionConfig struct {
	Roots []string `yaml:"roots" envconfig:"ROOTS" default:"data/raw"`
	S3    S3Config `yaml:"s3" envconfig:"S3"`
}

// S3Config configures the object-store source used for s3:// roots
type S3Config struct {
	Region       string `yaml:"region" envconfig:"REGION" default:"us-east-1"`
	Endpoint     string `yaml:"endpoint" envconfig:"ENDPOINT"`
	UsePathStyle bool   `yaml:"use_path_style" envconfig:"USE_PATH_STYLE" default:"false"`
}

// StorageConfig selects the persistence adapter
type StorageConfig struct {
	Driver string `yaml:"driver" envconfig:"DRIVER" default:"sqlite" validate:"oneof=memory sqlite postgres"`
	DSN    string `yaml:"dsn" envconfig:"DSN" default:"data/clinicalflow.db"`
}

// ScoringConfig tunes the scoring engine outputs
type ScoringConfig struct {
	RiskTopN    int           `yaml:"risk_top_n" envconfig:"RISK_TOP_N" default:"20" validate:"min=1"`
	HeatmapTopN int           `yaml:"heatmap_top_n" envconfig:"HEATMAP_TOP_N" default:"10" validate:"min=1"`
	Latency     LatencyConfig `yaml:"latency" envconfig:"LATENCY"`
}

// LatencyConfig selects the per-site query-latency source
type LatencyConfig struct {
	Mode  string         `yaml:"mode" envconfig:"MODE" default:"fixed" validate:"oneof=fixed random table"`
	Days  int            `yaml:"days" envconfig:"DAYS" default:"5" validate:"min=0"`
	Min   int            `yaml:"min" envconfig:"MIN" default:"1" validate:"min=0"`
	Max   int            `yaml:"max" envconfig:"MAX" default:"10" validate:"gtefield=Min"`
	Seed  int64          `yaml:"seed" envconfig:"SEED" default:"1"`
	Table map[string]int `yaml:"table" envconfig:"TABLE"`
}

// EventsConfig configures publication of ingestion reports
type EventsConfig struct {
	Enabled bool     `yaml:"enabled" envconfig:"ENABLED" default:"false"`
	Brokers []string `yaml:"brokers" envconfig:"BROKERS" default:"localhost:9092"`
	Topic   string   `yaml:"topic" envconfig:"TOPIC" default:"clinicalflow.ingest"`
}

// TelemetryConfig configures OpenTelemetry exporters
type TelemetryConfig struct {
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" default:"none" validate:"oneof=stdout none"`
	MetricExporter string  `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER" default:"prometheus" validate:"oneof=prometheus none"`
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" default:"1" validate:"min=0,max=1"`
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT" default:"development"`
}

// Load loads configuration from environment variables and an optional config file.
// When configFile is empty the common locations are searched.
func Load(configFile string) (*Config, error) {
	var cfg Config

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if configFile == "" {
		configFile = getConfigFilePath()
	}
	if configFile != "" {
		fileConfig, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileConfig, cfg, explicitEnv())
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// explicitEnv returns the set of CLINICALFLOW_* variables present in the environment
func explicitEnv() map[string]bool {
	set := make(map[string]bool)
	prefix := EnvPrefix + "_"
	for _, kv := range os.Environ() {
		if !strings.HasPrefix(kv, prefix) {
			continue
		}
		name, _, _ := strings.Cut(kv, "=")
		set[name] = true
	}
	return set
}

// mergeConfigs overlays file values on the env-loaded config.
// Values set explicitly in the environment take precedence; everything else
// that the file sets replaces the envconfig default.
func mergeConfigs(fileConfig, envConfig Config, env map[string]bool) Config {
	pick := func(name string, fileVal string, dst *string) {
		if fileVal != "" && !env[EnvPrefix+"_"+name] {
			*dst = fileVal
		}
	}
	pickInt := func(name string, fileVal int, dst *int) {
		if fileVal != 0 && !env[EnvPrefix+"_"+name] {
			*dst = fileVal
		}
	}

	// Logging
	pick("LOGGING_LEVEL", fileConfig.Logging.Level, &envConfig.Logging.Level)
	pick("LOGGING_FORMAT", fileConfig.Logging.Format, &envConfig.Logging.Format)
	pick("LOGGING_OUTPUT", fileConfig.Logging.Output, &envConfig.Logging.Output)
	pick("LOGGING_FILE_PATH", fileConfig.Logging.FilePath, &envConfig.Logging.FilePath)

	// Paths
	pick("PATHS_BASE_DIR", fileConfig.Paths.BaseDir, &envConfig.Paths.BaseDir)
	pick("PATHS_DATA_DIR", fileConfig.Paths.DataDir, &envConfig.Paths.DataDir)
	pick("PATHS_REPORTS_DIR", fileConfig.Paths.ReportsDir, &envConfig.Paths.ReportsDir)
	pick("PATHS_LOGS_DIR", fileConfig.Paths.LogsDir, &envConfig.Paths.LogsDir)

	// Ingestion
	if len(fileConfig.Ingestion.Roots) > 0 && !env[EnvPrefix+"_INGESTION_ROOTS"] {
		envConfig.Ingestion.Roots = fileConfig.Ingestion.Roots
	}
	pick("INGESTION_S3_REGION", fileConfig.Ingestion.S3.Region, &envConfig.Ingestion.S3.Region)
	pick("INGESTION_S3_ENDPOINT", fileConfig.Ingestion.S3.Endpoint, &envConfig.Ingestion.S3.Endpoint)
	if fileConfig.Ingestion.S3.UsePathStyle && !env[EnvPrefix+"_INGESTION_S3_USE_PATH_STYLE"] {
		envConfig.Ingestion.S3.UsePathStyle = true
	}

	// Storage
	pick("STORAGE_DRIVER", fileConfig.Storage.Driver, &envConfig.Storage.Driver)
	pick("STORAGE_DSN", fileConfig.Storage.DSN, &envConfig.Storage.DSN)

	// Scoring
	pickInt("SCORING_RISK_TOP_N", fileConfig.Scoring.RiskTopN, &envConfig.Scoring.RiskTopN)
	pickInt("SCORING_HEATMAP_TOP_N", fileConfig.Scoring.HeatmapTopN, &envConfig.Scoring.HeatmapTopN)
	pick("SCORING_LATENCY_MODE", fileConfig.Scoring.Latency.Mode, &envConfig.Scoring.Latency.Mode)
	pickInt("SCORING_LATENCY_DAYS", fileConfig.Scoring.Latency.Days, &envConfig.Scoring.Latency.Days)
	pickInt("SCORING_LATENCY_MIN", fileConfig.Scoring.Latency.Min, &envConfig.Scoring.Latency.Min)
	pickInt("SCORING_LATENCY_MAX", fileConfig.Scoring.Latency.Max, &envConfig.Scoring.Latency.Max)
	if fileConfig.Scoring.Latency.Seed != 0 && !env[EnvPrefix+"_SCORING_LATENCY_SEED"] {
		envConfig.Scoring.Latency.Seed = fileConfig.Scoring.Latency.Seed
	}
	if len(fileConfig.Scoring.Latency.Table) > 0 && !env[EnvPrefix+"_SCORING_LATENCY_TABLE"] {
		envConfig.Scoring.Latency.Table = fileConfig.Scoring.Latency.Table
	}

	// Events
	if fileConfig.Events.Enabled && !env[EnvPrefix+"_EVENTS_ENABLED"] {
		envConfig.Events.Enabled = true
	}
	if len(fileConfig.Events.Brokers) > 0 && !env[EnvPrefix+"_EVENTS_BROKERS"] {
		envConfig.Events.Brokers = fileConfig.Events.Brokers
	}
	pick("EVENTS_TOPIC", fileConfig.Events.Topic, &envConfig.Events.Topic)

	// Telemetry
	pick("TELEMETRY_TRACE_EXPORTER", fileConfig.Telemetry.TraceExporter, &envConfig.Telemetry.TraceExporter)
	pick("TELEMETRY_METRIC_EXPORTER", fileConfig.Telemetry.MetricExporter, &envConfig.Telemetry.MetricExporter)
	pick("TELEMETRY_ENVIRONMENT", fileConfig.Telemetry.Environment, &envConfig.Telemetry.Environment)
	if fileConfig.Telemetry.SampleRatio != 0 && !env[EnvPrefix+"_TELEMETRY_SAMPLE_RATIO"] {
		envConfig.Telemetry.SampleRatio = fileConfig.Telemetry.SampleRatio
	}

	return envConfig
}

// validate validates the configuration
func (c *Config) validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	if c.Storage.Driver != "memory" && c.Storage.DSN == "" {
		return fmt.Errorf("storage dsn is required for driver %q", c.Storage.Driver)
	}

	if c.Events.Enabled {
		if len(c.Events.Brokers) == 0 {
			return fmt.Errorf("at least one event broker must be specified")
		}
		if c.Events.Topic == "" {
			return fmt.Errorf("event topic must be specified")
		}
	}

	for site, days := range c.Scoring.Latency.Table {
		if days < 0 {
			return fmt.Errorf("latency for site %q must not be negative", site)
		}
	}

	// Always JSON, matching the log shipping format
	if c.Logging.Format != "json" {
		c.Logging.Format = "json"
	}

	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		c.Logging.FilePath = DefaultLogFile
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	locations := []string{
		"clinicalflow.yaml",
		"configs/clinicalflow.yaml",
		"../configs/clinicalflow.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: DefaultLogFile,
		},
		Paths: PathsConfig{
			DataDir:    DefaultDataDir,
			ReportsDir: DefaultReportsDir,
			LogsDir:    DefaultLogsDir,
		},
		Ingestion: IngestionConfig{
			Roots: []string{DefaultRawDir},
			S3: S3Config{
				Region: "us-east-1",
			},
		},
		Storage: StorageConfig{
			Driver: "sqlite",
			DSN:    DefaultDatabaseFile,
		},
		Scoring: ScoringConfig{
			RiskTopN:    DefaultRiskTopN,
			HeatmapTopN: DefaultHeatmapTopN,
			Latency: LatencyConfig{
				Mode: LatencyModeFixed,
				Days: DefaultLatencyDays,
				Min:  1,
				Max:  10,
				Seed: 1,
			},
		},
		Events: EventsConfig{
			Brokers: []string{"localhost:9092"},
			Topic:   DefaultEventsTopic,
		},
		Telemetry: TelemetryConfig{
			TraceExporter:  "none",
			MetricExporter: "prometheus",
			SampleRatio:    1.0,
			Environment:    "development",
		},
	}
}

// OperationTimeout bounds a single CLI invocation
func (c *Config) OperationTimeout() time.Duration {
	return DefaultOperationTimeout
}
