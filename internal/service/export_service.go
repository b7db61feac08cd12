package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/noah-isme/horario-api/internal/dto"
	"github.com/noah-isme/horario-api/internal/timetable"
	appErrors "github.com/noah-isme/horario-api/pkg/errors"
	"github.com/noah-isme/horario-api/pkg/export"
)

// Export formats.
const (
	ExportFormatJSON = "json"
	ExportFormatCSV  = "csv"
	ExportFormatPDF  = "pdf"
)

type groupScheduleSource interface {
	GroupSchedule(ctx context.Context, ref dto.GroupRef) (*dto.GroupScheduleResponse, error)
	Grid() timetable.Grid
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportFile is a rendered export ready to be streamed.
type ExportFile struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// exportBlock is the wire shape of an exported block.
type exportBlock struct {
	Day       string `json:"dia"`
	Period    string `json:"hora"`
	Subject   string `json:"asignatura"`
	TeacherID string `json:"docenteId"`
	Fixed     bool   `json:"fijo"`
}

// ExportService renders a group's timetable as JSON, CSV or PDF.
type ExportService struct {
	source    groupScheduleSource
	csv       csvRenderer
	pdf       pdfRenderer
	validator *validator.Validate
	logger    *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(source groupScheduleSource, csv csvRenderer, pdf pdfRenderer, validate *validator.Validate, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{source: source, csv: csv, pdf: pdf, validator: validate, logger: logger}
}

// Export renders the group's stored schedule. An empty format means JSON.
func (s *ExportService) Export(ctx context.Context, ref dto.GroupRef, query dto.ExportQuery) (*ExportFile, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnsupportedFormat.Code, appErrors.ErrUnsupportedFormat.Status, "unsupported export format")
	}
	format := strings.ToLower(query.Format)
	if format == "" {
		format = ExportFormatJSON
	}

	view, err := s.source.GroupSchedule(ctx, ref)
	if err != nil {
		return nil, err
	}
	grid := s.source.Grid()
	base := fmt.Sprintf("horario_%s", view.GroupKey)

	var file *ExportFile
	switch format {
	case ExportFormatJSON:
		payload, err := json.MarshalIndent(exportBlocks(view.Blocks, grid), "", "  ")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode export")
		}
		file = &ExportFile{Filename: base + ".json", ContentType: "application/json", Payload: payload}
	case ExportFormatCSV:
		payload, err := s.csv.Render(gridDataset(view.Blocks, grid))
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		file = &ExportFile{Filename: base + ".csv", ContentType: "text/csv", Payload: payload}
	case ExportFormatPDF:
		payload, err := s.pdf.Render(gridDataset(view.Blocks, grid), "Horario "+view.GroupKey)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		file = &ExportFile{Filename: base + ".pdf", ContentType: "application/pdf", Payload: payload}
	default:
		return nil, appErrors.Clone(appErrors.ErrUnsupportedFormat, fmt.Sprintf("unsupported export format %q", format))
	}

	s.logger.Debug("timetable exported", zap.String("group_key", view.GroupKey), zap.String("format", format), zap.Int("bytes", len(file.Payload)))
	return file, nil
}

// exportBlocks orders blocks by the grid so exports are stable.
func exportBlocks(blocks []timetable.Block, grid timetable.Grid) []exportBlock {
	ordered := make([]timetable.Block, len(blocks))
	copy(ordered, blocks)
	timetable.SortBlocks(ordered, grid)
	return lo.Map(ordered, func(b timetable.Block, _ int) exportBlock {
		return exportBlock{Day: b.Day, Period: b.Period, Subject: b.Subject, TeacherID: b.TeacherID, Fixed: b.Fixed}
	})
}

func gridDataset(blocks []timetable.Block, grid timetable.Grid) export.Dataset {
	cells := lo.Map(blocks, func(b timetable.Block, _ int) export.GridCell {
		text := b.Subject
		if b.TeacherID != "" {
			text = fmt.Sprintf("%s (%s)", b.Subject, b.TeacherID)
		}
		return export.GridCell{Day: b.Day, Period: b.Period, Text: text}
	})
	return export.GridDataset("Hora", grid.Days, grid.Periods, cells)
}
