package ingestion

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/crypto/blake2b"

	"github.com/joeyyy09/clinical-flow/internal/dataprocessing"
	"github.com/joeyyy09/clinical-flow/internal/events"
	"github.com/joeyyy09/clinical-flow/internal/files"
	"github.com/joeyyy09/clinical-flow/internal/infrastructure"
	"github.com/joeyyy09/clinical-flow/internal/storage"
	"github.com/joeyyy09/clinical-flow/pkg/contracts/domain"
)

// ErrRootInaccessible is returned when a root exists but cannot be enumerated.
// No file is ingested in that case.
var ErrRootInaccessible = errors.New("ingestion root is not accessible")

// PipelineConfig holds the optional collaborators of a Pipeline
type PipelineConfig struct {
	Notifier events.Notifier
	Metrics  *infrastructure.PipelineMetrics
	Tracer   trace.Tracer
}

// Pipeline discovers source workbooks, parses them and persists one batch
// per file. Files are processed one at a time in discovery order.
type Pipeline struct {
	source   files.Source
	parser   *dataprocessing.Parser
	store    storage.Store
	notifier events.Notifier
	metrics  *infrastructure.PipelineMetrics
	tracer   trace.Tracer
	logger   *slog.Logger
}

// NewPipeline wires a pipeline
func NewPipeline(source files.Source, store storage.Store, logger *slog.Logger, cfg PipelineConfig) *Pipeline {
	if cfg.Notifier == nil {
		cfg.Notifier = events.NopNotifier{}
	}
	if cfg.Tracer == nil {
		cfg.Tracer = tracenoop.NewTracerProvider().Tracer(infrastructure.InstrumentationName)
	}

	return &Pipeline{
		source:   source,
		parser:   dataprocessing.NewParser(logger),
		store:    store,
		notifier: cfg.Notifier,
		metrics:  cfg.Metrics,
		tracer:   cfg.Tracer,
		logger:   infrastructure.WithComponent(logger, "ingestion"),
	}
}

// Run ingests every file beneath roots. Every root is listed before any
// file is read: a missing root only adds a warning, an unreadable one aborts
// the run with ErrRootInaccessible. File-level failures are reported per file
// and never stop the run. Cancelling ctx stops further files from starting;
// the partial report is returned with the context error.
func (p *Pipeline) Run(ctx context.Context, roots []string) (*domain.IngestReport, error) {
	ctx, report := p.startRun(ctx, roots)

	ctx, span := p.tracer.Start(ctx, "ingest.run", trace.WithAttributes(
		attribute.String("run_id", report.RunID),
		attribute.StringSlice("roots", roots),
	))
	defer span.End()

	var candidates []files.FileInfo
	for _, root := range roots {
		found, err := p.source.List(ctx, root)
		if err != nil {
			if errors.Is(err, files.ErrRootNotFound) {
				warning := fmt.Sprintf("root not found: %s", root)
				report.Warnings = append(report.Warnings, warning)
				p.logger.WarnContext(ctx, "Ingestion root not found", slog.String("root", root))
				continue
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return p.finishRun(ctx, report), ctxErr
			}
			infrastructure.RecordError(ctx, err)
			p.logger.ErrorContext(ctx, "Ingestion root is not accessible",
				slog.String("root", root),
				slog.String("error", err.Error()))
			return p.finishRun(ctx, report), fmt.Errorf("%w: %s: %w", ErrRootInaccessible, root, err)
		}
		candidates = append(candidates, found...)
	}

	p.logger.InfoContext(ctx, "Ingestion started",
		slog.Int("roots", len(roots)),
		slog.Int("files", len(candidates)))

	for _, f := range candidates {
		if err := ctx.Err(); err != nil {
			p.logger.WarnContext(ctx, "Ingestion cancelled",
				slog.Int("processed", len(report.Files)),
				slog.Int("remaining", len(candidates)-len(report.Files)))
			return p.finishRun(ctx, report), err
		}
		p.addFile(ctx, report, p.processFile(ctx, f.Path))
	}

	return p.finishRun(ctx, report), nil
}

// IngestFile ingests a single file, as an upload would
func (p *Pipeline) IngestFile(ctx context.Context, path string) (*domain.IngestReport, error) {
	ctx, report := p.startRun(ctx, []string{path})
	if err := ctx.Err(); err != nil {
		return p.finishRun(ctx, report), err
	}
	p.addFile(ctx, report, p.processFile(ctx, path))
	return p.finishRun(ctx, report), nil
}

func (p *Pipeline) startRun(ctx context.Context, roots []string) (context.Context, *domain.IngestReport) {
	ctx, runID := infrastructure.WithNewTraceID(ctx)
	return ctx, &domain.IngestReport{
		RunID:     runID,
		StartedAt: time.Now().UTC(),
		Roots:     roots,
		Files:     []domain.FileReport{},
	}
}

func (p *Pipeline) addFile(ctx context.Context, report *domain.IngestReport, fr domain.FileReport) {
	report.Files = append(report.Files, fr)
	if err := p.notifier.FileProcessed(ctx, report.RunID, fr); err != nil {
		p.logger.WarnContext(ctx, "File event not published",
			slog.String("path", fr.Path),
			slog.String("error", err.Error()))
	}
}

func (p *Pipeline) finishRun(ctx context.Context, report *domain.IngestReport) *domain.IngestReport {
	report.FinishedAt = time.Now().UTC()

	// the run event is still sent after cancellation
	if err := p.notifier.RunCompleted(context.WithoutCancel(ctx), report); err != nil {
		p.logger.WarnContext(ctx, "Run event not published", slog.String("error", err.Error()))
	}

	p.logger.InfoContext(ctx, "Ingestion finished",
		slog.Int("ingested", report.Count(domain.IngestStatusIngested)),
		slog.Int("skipped", report.Count(domain.IngestStatusSkipped)),
		slog.Int("failed", report.Count(domain.IngestStatusFailed)),
		slog.Int("records", report.RecordsIngested()),
		slog.Int("warnings", len(report.Warnings)))
	return report
}

// processFile classifies, parses and stores one file. It never returns an
// error; failures end up in the report. Once started, a file is not
// interrupted by cancellation of ctx.
func (p *Pipeline) processFile(ctx context.Context, path string) domain.FileReport {
	ctx = context.WithoutCancel(ctx)
	start := time.Now()
	kind, reason := dataprocessing.Classify(path)
	fr := domain.FileReport{Path: path, Kind: kind}

	if kind == domain.RecordKindUnknown {
		fr.Status = domain.IngestStatusSkipped
		fr.SkipReason = reason
		fr.Duration = time.Since(start)
		p.metrics.RecordFile(ctx, kind.String(), string(fr.Status), 0, fr.Duration)
		p.logger.DebugContext(ctx, "File skipped",
			slog.String("path", path),
			slog.String("reason", reason))
		return fr
	}

	ctx, span := p.tracer.Start(ctx, "ingest.file", trace.WithAttributes(
		attribute.String("path", path),
		attribute.String("kind", kind.String()),
	))
	defer span.End()

	fail := func(stage string, err error) domain.FileReport {
		infrastructure.RecordError(ctx, err)
		fr.Status = domain.IngestStatusFailed
		fr.Error = err.Error()
		fr.Duration = time.Since(start)
		p.metrics.RecordFile(ctx, kind.String(), string(fr.Status), 0, fr.Duration)
		p.logger.ErrorContext(ctx, "File ingestion failed",
			slog.String("path", path),
			slog.String("stage", stage),
			slog.String("error", err.Error()))
		return fr
	}

	data, err := p.source.ReadFile(ctx, path)
	if err != nil {
		return fail("read", err)
	}
	fr.ContentHash = ContentHash(data)

	batch, err := p.parser.ParseBytes(data, path, kind)
	if err != nil {
		return fail("parse", err)
	}
	fr.StudyID = batch.StudyID

	if err := p.store.InsertBatch(ctx, batch); err != nil {
		return fail("store", err)
	}

	fr.Status = domain.IngestStatusIngested
	fr.Records = batch.Len()
	fr.Duration = time.Since(start)
	span.SetAttributes(attribute.Int("records", fr.Records))
	p.metrics.RecordFile(ctx, kind.String(), string(fr.Status), fr.Records, fr.Duration)
	p.logger.InfoContext(ctx, "File ingested",
		slog.String("path", path),
		slog.String("kind", kind.String()),
		slog.String("study_id", fr.StudyID),
		slog.Int("records", fr.Records),
		slog.Duration("duration", fr.Duration))
	return fr
}

// ContentHash returns the hex BLAKE2b-256 digest of a file's bytes.
// It is reported only; identical content is ingested again.
func ContentHash(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}
