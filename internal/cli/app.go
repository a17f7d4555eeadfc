package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/joeyyy09/clinical-flow/internal/config"
	"github.com/joeyyy09/clinical-flow/internal/events"
	"github.com/joeyyy09/clinical-flow/internal/exporter"
	"github.com/joeyyy09/clinical-flow/internal/files"
	"github.com/joeyyy09/clinical-flow/internal/infrastructure"
	"github.com/joeyyy09/clinical-flow/internal/ingestion"
	"github.com/joeyyy09/clinical-flow/internal/scoring"
	"github.com/joeyyy09/clinical-flow/internal/services"
	"github.com/joeyyy09/clinical-flow/internal/storage"
)

// app is the wired object graph behind one command invocation
type app struct {
	cfg         *config.Config
	paths       *config.Paths
	logger      *slog.Logger
	otel        *infrastructure.OTelProviders
	metrics     *infrastructure.PipelineMetrics
	store       storage.Store
	engine      *scoring.Engine
	sites       *services.SiteService
	metricsFile string
}

func newApp(opts *RootOptions) (*app, error) {
	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load configuration", err)
	}
	if opts.Verbose {
		cfg.Logging.Level = "debug"
	}

	paths, err := config.ResolvePaths(cfg.Paths)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to resolve paths", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to create directories", err)
	}
	cfg.Logging.FilePath = paths.Resolve(cfg.Logging.FilePath)

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		_ = infrastructure.ReleaseLogger()
		return nil, WrapExitError(ExitCommandError, "failed to initialize logger", err)
	}
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	paths.LogPathResolution(logger)

	providers, err := infrastructure.InitializeOTel(cfg.Telemetry, logger)
	if err != nil {
		_ = infrastructure.ReleaseLogger()
		return nil, WrapExitError(ExitCommandError, "failed to initialize telemetry", err)
	}
	// fail releases the telemetry providers and the log file when wiring stops part way
	fail := func(message string, cause error) error {
		if err := providers.Shutdown(context.Background()); err != nil {
			logger.Warn("Telemetry shutdown incomplete", slog.String("error", err.Error()))
		}
		_ = infrastructure.ReleaseLogger()
		return WrapExitError(ExitCommandError, message, cause)
	}

	metrics, err := infrastructure.NewPipelineMetrics(providers.Meter)
	if err != nil {
		return nil, fail("failed to create metrics", err)
	}

	latency, err := scoring.NewLatencyProvider(cfg.Scoring.Latency)
	if err != nil {
		return nil, fail("invalid latency configuration", err)
	}

	store, err := storage.New(storageConfig(cfg.Storage, paths), logger)
	if err != nil {
		return nil, fail("failed to open store", err)
	}

	engine := scoring.NewEngine(store, logger, scoring.EngineConfig{
		RiskTopN:    cfg.Scoring.RiskTopN,
		HeatmapTopN: cfg.Scoring.HeatmapTopN,
		Latency:     latency,
		Metrics:     metrics,
	})

	return &app{
		cfg:         cfg,
		paths:       paths,
		logger:      logger,
		otel:        providers,
		metrics:     metrics,
		store:       store,
		engine:      engine,
		sites:       services.NewSiteService(engine, store, logger),
		metricsFile: opts.MetricsFile,
	}, nil
}

// storageConfig anchors a relative SQLite file at the base directory
func storageConfig(cfg config.StorageConfig, paths *config.Paths) config.StorageConfig {
	if cfg.Driver != storage.DriverSQLite {
		return cfg
	}
	if cfg.DSN == ":memory:" || strings.HasPrefix(cfg.DSN, "file:") {
		return cfg
	}
	cfg.DSN = paths.Resolve(cfg.DSN)
	return cfg
}

// pipeline builds an ingestion pipeline able to read every root.
// The caller closes the returned notifier.
func (a *app) pipeline(ctx context.Context, roots []string) (*ingestion.Pipeline, events.Notifier, error) {
	router := &files.Router{Local: files.NewDiscovery(a.paths.BaseDir, a.logger)}
	if lo.SomeBy(roots, files.IsS3URI) {
		client, err := files.NewS3Client(ctx, a.cfg.Ingestion.S3)
		if err != nil {
			return nil, nil, WrapExitError(ExitCommandError, "failed to configure object store", err)
		}
		router.S3 = files.NewS3Source(client)
	}

	notifier := events.New(a.cfg.Events, a.logger)
	p := ingestion.NewPipeline(router, a.store, a.logger, ingestion.PipelineConfig{
		Notifier: notifier,
		Metrics:  a.metrics,
		Tracer:   a.otel.Tracer,
	})
	return p, notifier, nil
}

func (a *app) riskExporter() *exporter.RiskExporter {
	return exporter.NewRiskExporter(a.paths, a.logger)
}

func (a *app) statusService() *services.StatusService {
	return services.NewStatusService(config.AppVersion, a.cfg.Storage.Driver, a.paths, a.store, a.logger)
}

// close flushes metrics and releases the store and telemetry providers
func (a *app) close(ctx context.Context) error {
	var errs []error
	if a.metricsFile != "" {
		if err := a.otel.WriteMetrics(a.metricsFile); err != nil {
			errs = append(errs, err)
		}
	}
	if err := a.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}
	if err := a.otel.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// run wires the application, calls fn and tears everything down
func (o *RootOptions) run(cmd *cobra.Command, fn func(ctx context.Context, a *app, out *OutputFormatter) error) error {
	a, err := newApp(o)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.OperationTimeout())
	defer cancel()

	out := &OutputFormatter{Format: o.Format, Writer: cmd.OutOrStdout()}
	runErr := fn(ctx, a, out)

	if err := a.close(context.WithoutCancel(ctx)); err != nil {
		a.logger.Warn("Shutdown incomplete", slog.String("error", err.Error()))
		if runErr == nil {
			runErr = WrapExitError(ExitFailure, "shutdown failed", err)
		}
	}
	return runErr
}
