package service

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/noah-isme/clinic-agenda-api/internal/agenda"
	"github.com/noah-isme/clinic-agenda-api/internal/models"
	appErrors "github.com/noah-isme/clinic-agenda-api/pkg/errors"
	"github.com/noah-isme/clinic-agenda-api/pkg/export"
)

// maxExportDays bounds the range of a single export.
const maxExportDays = 31

var agendaColumns = []export.Column{
	{Key: "date", Label: "Date", Width: 1.2},
	{Key: "time", Label: "Time", Width: 0.8},
	{Key: "professional", Label: "Professional", Width: 2},
	{Key: "client", Label: "Client", Width: 2},
	{Key: "service", Label: "Service", Width: 2},
	{Key: "duration", Label: "Minutes", Width: 0.8},
	{Key: "location", Label: "Location", Width: 1.6},
	{Key: "status", Label: "Status", Width: 1.2},
	{Key: "notes", Label: "Notes", Width: 3},
}

// ExportRequest selects the agenda range to export. From and To are inclusive YYYY-MM-DD dates.
type ExportRequest struct {
	From   string
	To     string
	Format string
}

// ExportResult is a rendered document ready to be sent to the client.
type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
	Rows        int
}

// ExportService renders the caller's agenda as CSV or PDF.
type ExportService struct {
	agenda agendaReader
	logger *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(reader agendaReader, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{agenda: reader, logger: logger}
}

// Agenda exports the appointments visible to user in the requested range.
func (s *ExportService) Agenda(ctx context.Context, user models.SessionUser, req ExportRequest) (*ExportResult, error) {
	format, err := export.ParseFormat(req.Format)
	if err != nil {
		return nil, fieldDetailError("format", "must be csv or pdf", "unsupported export format")
	}
	if req.To == "" {
		req.To = req.From
	}
	from, err := parseDateParam(req.From)
	if err != nil {
		return nil, err
	}
	to, err := parseDateParam(req.To)
	if err != nil {
		return nil, err
	}
	if to.Before(from) {
		return nil, fieldDetailError("to", "must not be before from", "invalid export range")
	}
	if to.Sub(from).Hours()/24 >= maxExportDays {
		return nil, fieldDetailError("to", fmt.Sprintf("range must not exceed %d days", maxExportDays), "invalid export range")
	}

	appts, _, err := s.agenda.Appointments(ctx, user)
	if err != nil {
		return nil, err
	}
	fromKey, toKey := from.Format(models.DateLayout), to.Format(models.DateLayout)
	selected := agenda.Between(appts, fromKey, toKey)

	table := export.Table{
		Title:    "Agenda " + fromKey,
		Subtitle: fmt.Sprintf("%d appointments", len(selected)),
		Columns:  agendaColumns,
		Rows:     make([]map[string]string, 0, len(selected)),
	}
	if toKey != fromKey {
		table.Title = fmt.Sprintf("Agenda %s to %s", fromKey, toKey)
	}
	for _, a := range selected {
		notes := ""
		if a.Notes != nil {
			notes = *a.Notes
		}
		table.Rows = append(table.Rows, map[string]string{
			"date":         a.Date,
			"time":         a.Time,
			"professional": a.Professional.Name,
			"client":       a.Client.Name,
			"service":      a.Service.Name,
			"duration":     strconv.Itoa(a.Service.Duration),
			"location":     a.Location,
			"status":       string(a.Status),
			"notes":        notes,
		})
	}

	data, err := export.NewRenderer(format).Render(table)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	s.logger.Info("agenda exported", zap.String("user_id", user.ID), zap.String("format", string(format)), zap.Int("rows", len(selected)))

	name := "agenda-" + fromKey
	if toKey != fromKey {
		name += "_" + toKey
	}
	return &ExportResult{
		Filename:    name + "." + string(format),
		ContentType: format.ContentType(),
		Data:        data,
		Rows:        len(selected),
	}, nil
}
