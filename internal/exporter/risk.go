package exporter

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/samber/lo"

	"github.com/joeyyy09/clinical-flow/internal/config"
	"github.com/joeyyy09/clinical-flow/internal/infrastructure"
	"github.com/joeyyy09/clinical-flow/pkg/contracts/domain"
)

// ErrUnsupportedFormat is returned for output names other than .csv or .xlsx
var ErrUnsupportedFormat = errors.New("unsupported export format")

// RiskSheetName is the worksheet used for XLSX risk exports
const RiskSheetName = "Site Risk"

// RiskHeaders are the column titles of a risk export, in order
var RiskHeaders = []string{
	"Site",
	"Country",
	"Study",
	"SAE Count",
	"Missing Pages",
	"Query Latency (days)",
	"Risk Score",
	"Risk Level",
	"DQI",
	"Recommendation",
}

// RiskExporter writes site risk rows to CSV or XLSX, chosen by extension
type RiskExporter struct {
	csv    *CSVWriter
	xlsx   *XLSXWriter
	logger *slog.Logger
}

// NewRiskExporter creates a risk exporter writing relative to paths
func NewRiskExporter(paths *config.Paths, logger *slog.Logger) *RiskExporter {
	return &RiskExporter{
		csv:    NewCSVWriter(paths),
		xlsx:   NewXLSXWriter(paths),
		logger: infrastructure.WithComponent(logger, "exporter"),
	}
}

// Export writes rows to out and returns the resolved output path
func (e *RiskExporter) Export(rows []domain.RiskRow, out string) (string, error) {
	var (
		path string
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(out)); ext {
	case ".csv":
		path, err = e.csv.WriteSimpleCSV(out, RiskHeaders, lo.Map(rows, func(r domain.RiskRow, _ int) []string {
			return riskRecord(r)
		}))
	case ".xlsx":
		path, err = e.xlsx.WriteXLSX(out, RiskSheetName, RiskHeaders, lo.Map(rows, func(r domain.RiskRow, _ int) []interface{} {
			return riskCells(r)
		}))
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return "", fmt.Errorf("export risk rows: %w", err)
	}

	e.logger.Info("Risk rows exported",
		slog.String("path", path),
		slog.Int("rows", len(rows)))
	return path, nil
}

func riskRecord(r domain.RiskRow) []string {
	return []string{
		r.Site,
		r.Country,
		r.StudyID,
		formatInt(r.SAECount),
		formatInt(r.MissingPages),
		formatInt(r.QueryLatency),
		formatFloat(r.RiskScore),
		string(r.RiskLevel),
		formatInt(r.DQI),
		r.Recommendation,
	}
}

func riskCells(r domain.RiskRow) []interface{} {
	return []interface{}{
		r.Site,
		r.Country,
		r.StudyID,
		r.SAECount,
		r.MissingPages,
		r.QueryLatency,
		r.RiskScore,
		string(r.RiskLevel),
		r.DQI,
		r.Recommendation,
	}
}
