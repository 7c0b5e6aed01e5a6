package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lumitrack/lumitrack-api/internal/models"
	appErrors "github.com/lumitrack/lumitrack-api/pkg/errors"
	"github.com/lumitrack/lumitrack-api/pkg/export"
)

// ExportFormat selects the rendered file type.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportResult is a rendered observation export ready to stream.
type ExportResult struct {
	ContentType string
	Filename    string
	Content     []byte
}

// ExportService renders a target's observation history as a downloadable
// file, one row per observation with the value formatted per data type.
type ExportService struct {
	observations targetObservationReader
	csv          *export.CSVExporter
	pdf          *export.PDFExporter
	logger       *zap.Logger
	enabled      bool
	maxRows      int
}

// NewExportService constructs an export service.
func NewExportService(observations targetObservationReader, logger *zap.Logger, enabled bool, maxRows int) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRows <= 0 {
		maxRows = 5000
	}
	return &ExportService{
		observations: observations,
		csv:          export.NewCSVExporter(),
		pdf:          export.NewPDFExporter(),
		logger:       logger,
		enabled:      enabled,
		maxRows:      maxRows,
	}
}

// Export renders the target's observations in the requested format.
func (s *ExportService) Export(ctx context.Context, target *models.Target, format ExportFormat) (*ExportResult, error) {
	if !s.enabled {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "exports are disabled")
	}

	observations, err := s.observations.ListByTarget(ctx, models.ObservationFilter{TargetID: target.ID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load observations")
	}
	if len(observations) > s.maxRows {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("export exceeds the %d row limit", s.maxRows))
	}

	dataset := export.Dataset{
		Headers: []string{"Date", "Value", "Recorded At"},
		Rows:    make([]map[string]string, 0, len(observations)),
	}
	for _, obs := range observations {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Date":        obs.Date.UTC().Format("2006-01-02"),
			"Value":       FormatValue(obs.DataType, obs.Value),
			"Recorded At": obs.CreationDate.UTC().Format(time.RFC3339),
		})
	}

	stamp := time.Now().UTC().Format("20060102")
	switch format {
	case ExportFormatCSV:
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportResult{
			ContentType: "text/csv",
			Filename:    fmt.Sprintf("%s-observations-%s.csv", target.ID, stamp),
			Content:     content,
		}, nil
	case ExportFormatPDF:
		content, err := s.pdf.Render(dataset, target.Name)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportResult{
			ContentType: "application/pdf",
			Filename:    fmt.Sprintf("%s-observations-%s.pdf", target.ID, stamp),
			Content:     content,
		}, nil
	}
	return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
}
