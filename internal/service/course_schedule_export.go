package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/noah-isme/club-api/internal/dto"
	"github.com/noah-isme/club-api/pkg/calendar"
	appErrors "github.com/noah-isme/club-api/pkg/errors"
	"github.com/noah-isme/club-api/pkg/export"
)

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

func defaultRenderers(csv csvRenderer, pdf pdfRenderer) (csvRenderer, pdfRenderer) {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return csv, pdf
}

var scheduleExportHeaders = []string{"#", "Date", "Weekday", "Start", "End", "Resource"}

// ExportSchedule renders the occurrences of a course as CSV or PDF.
func (s *CourseScheduleService) ExportSchedule(ctx context.Context, courseID string, format dto.ScheduleExportFormat) (*dto.ScheduleExport, error) {
	if format == "" {
		format = dto.ScheduleExportCSV
	}
	if format != dto.ScheduleExportCSV && format != dto.ScheduleExportPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	detail, err := s.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	slots, err := s.ListSchedule(ctx, courseID)
	if err != nil {
		return nil, err
	}

	data := export.Dataset{
		Title: detail.Name,
		Subtitle: []string{
			fmt.Sprintf("%s to %s", detail.StartDate.Format(calendar.DateLayout), detail.EndDate.Format(calendar.DateLayout)),
			fmt.Sprintf("%s course, capacity %s", detail.Kind, capacityLabel(detail.Capacity)),
		},
		Headers: scheduleExportHeaders,
		Rows:    make([]map[string]string, 0, len(slots)),
	}
	for i, slot := range slots {
		data.Rows = append(data.Rows, map[string]string{
			"#":        strconv.Itoa(i + 1),
			"Date":     slot.StartAt.Format(calendar.DateLayout),
			"Weekday":  slot.Weekday.String(),
			"Start":    slot.StartAt.Format(calendar.ClockLayout),
			"End":      slot.EndAt.Format(calendar.ClockLayout),
			"Resource": slot.ResourceName,
		})
	}

	out := &dto.ScheduleExport{Filename: fmt.Sprintf("course-%s-schedule.%s", courseID, format)}
	switch format {
	case dto.ScheduleExportPDF:
		out.ContentType = "application/pdf"
		out.Body, err = s.pdf.Render(data)
	default:
		out.ContentType = "text/csv"
		out.Body, err = s.csv.Render(data)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render schedule export")
	}
	return out, nil
}

func capacityLabel(capacity int) string {
	if capacity == 0 {
		return "unlimited"
	}
	return strconv.Itoa(capacity)
}
