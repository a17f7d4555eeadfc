package dataprocessing

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	apperrors "github.com/joeyyy09/clinical-flow/internal/errors"
	"github.com/joeyyy09/clinical-flow/internal/infrastructure"
	"github.com/joeyyy09/clinical-flow/pkg/contracts/domain"
)

var (
	// ErrNoSheet is returned for a workbook without any worksheet
	ErrNoSheet = errors.New("workbook has no worksheets")
	// ErrUnknownKind is returned when Parse is asked for RecordKindUnknown
	ErrUnknownKind = errors.New("record kind is not parseable")
)

// Parser turns classified spreadsheet exports into typed record batches
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a parser; a nil logger falls back to the global logger
func NewParser(logger *slog.Logger) *Parser {
	return &Parser{logger: infrastructure.WithComponent(logger, "parser")}
}

// ParseBytes parses an in-memory workbook. name is the source file name and
// feeds the study tag and the SourceFile of every record.
func (p *Parser) ParseBytes(data []byte, name string, kind domain.RecordKind) (*domain.RecordBatch, error) {
	return p.Parse(bytes.NewReader(data), name, kind)
}

// Parse reads the first worksheet of the workbook in r. Row 1 is the header;
// every following row that is not entirely blank becomes one record.
// Cell coercion never fails, only an unreadable workbook does.
func (p *Parser) Parse(r io.Reader, name string, kind domain.RecordKind) (*domain.RecordBatch, error) {
	if kind == domain.RecordKindUnknown {
		return nil, apperrors.NewClassificationError("cannot parse unclassified file", ErrUnknownKind).
			WithContext("file", name)
	}

	sheet, rows, err := readFirstSheet(r, name)
	if err != nil {
		return nil, apperrors.NewParsingError("failed to read workbook", err).WithContext("file", name)
	}

	batch := &domain.RecordBatch{
		Kind:       kind,
		SourceFile: filepath.Base(name),
		StudyID:    ExtractStudyID(name),
	}

	if len(rows) == 0 {
		p.logger.Warn("Workbook has no header row",
			slog.String("file", batch.SourceFile),
			slog.String("sheet", sheet))
		return batch, nil
	}

	index := NewHeaderIndex(rows[0])
	skipped := 0
	for i, cells := range rows[1:] {
		row := NewRow(index, i+2, cells)
		if row.IsBlank() {
			skipped++
			continue
		}
		p.appendRecord(batch, row)
	}

	p.logger.Debug("Workbook parsed",
		slog.String("file", batch.SourceFile),
		slog.String("sheet", sheet),
		slog.String("kind", kind.String()),
		slog.String("study_id", batch.StudyID),
		slog.Int("records", batch.Len()),
		slog.Int("blank_rows", skipped))

	return batch, nil
}

func (p *Parser) appendRecord(batch *domain.RecordBatch, row Row) {
	switch batch.Kind {
	case domain.RecordKindSafetyEvent:
		a := safetyEventAliases
		batch.SafetyEvents = append(batch.SafetyEvents, domain.SafetyEvent{
			StudyID:      batch.StudyID,
			Country:      row.Resolve(a.Country...),
			Site:         row.Resolve(a.Site...),
			PatientID:    row.Resolve(a.PatientID...),
			ReviewStatus: row.Resolve(a.ReviewStatus...),
			ActionStatus: row.Resolve(a.ActionStatus...),
			SourceFile:   batch.SourceFile,
			SourceRow:    row.Number,
		})
	case domain.RecordKindMissingPage:
		a := missingPageAliases
		batch.MissingPages = append(batch.MissingPages, domain.MissingPage{
			StudyID:     batch.StudyID,
			SiteNumber:  row.Resolve(a.SiteNumber...),
			SubjectName: row.Resolve(a.SubjectName...),
			FormName:    row.Resolve(a.FormName...),
			VisitDate:   row.Resolve(a.VisitDate...),
			MissingDays: ParseMissingDays(row.Resolve(a.MissingDays...)),
			SourceFile:  batch.SourceFile,
			SourceRow:   row.Number,
		})
	case domain.RecordKindSubjectStatus:
		a := subjectStatusAliases
		batch.SubjectStatus = append(batch.SubjectStatus, domain.SubjectStatus{
			StudyID:       batch.StudyID,
			SiteID:        row.Resolve(a.SiteID...),
			SubjectID:     row.Resolve(a.SubjectID...),
			SubjectStatus: row.Resolve(a.SubjectStatus...),
			LatestVisit:   row.Resolve(a.LatestVisit...),
			SourceFile:    batch.SourceFile,
			SourceRow:     row.Number,
		})
	}
}

// ParseMissingDays coerces a cell to a non-negative day count.
// Thousands separators are accepted and fractional values are truncated;
// anything unparseable or negative becomes 0.
func ParseMissingDays(raw string) int {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if s == "" {
		return 0
	}

	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return 0
		}
		return n
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(f)
}
