package service

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/courses-api/pkg/errors"
	"github.com/noah-isme/courses-api/pkg/export"
	"github.com/noah-isme/courses-api/pkg/projection"
)

// Supported export formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders projected summary tables as downloadable files.
type ExportService struct {
	renderers func(format string) (export.Renderer, bool)
	logger    *zap.Logger
	now       func() time.Time
}

// NewExportService constructs an ExportService over the export package formats.
func NewExportService(logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{renderers: export.ForFormat, logger: logger, now: time.Now}
}

// RenderSummary renders table in the requested format. kind names the summary
// ("teacher" or "student") and is used for the title and file name.
func (s *ExportService) RenderSummary(kind, format string, table *SummaryTable) (*ExportFile, error) {
	if table == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "nothing to export")
	}
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatCSV
	}

	renderer, ok := s.renderers(format)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be one of "+strings.Join(export.Formats(), ", "))
	}

	title := projection.TitleLabel(kind) + " summary"
	if table.Owner != nil {
		title = fmt.Sprintf("%s: %s", title, table.Owner.FullName)
	}
	columns := make([]export.Column, len(table.Columns))
	for i, col := range table.Columns {
		columns[i] = export.Column{Key: col.Key, Label: col.Label}
	}
	payload, err := renderer.Render(export.FromRecords(title, columns, table.Records))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	ownerID := ""
	if table.Owner != nil {
		ownerID = table.Owner.ID
	}
	filename := fmt.Sprintf("%s-summary-%s-%s.%s", kind, ownerID, s.now().UTC().Format("20060102T150405"), renderer.Extension())
	s.logger.Debug("summary exported", zap.String("kind", kind), zap.String("format", format), zap.Int("rows", len(table.Records)))
	return &ExportFile{Filename: filename, ContentType: renderer.ContentType(), Data: payload}, nil
}
