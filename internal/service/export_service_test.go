package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/clinic-agenda-api/pkg/errors"
)

func newTestExport() *ExportService {
	return NewExportService(NewAgendaService(newClinicFixture().sources(), nil, nil, nil, AgendaConfig{}), nil)
}

func TestExportAgendaCSV(t *testing.T) {
	res, err := newTestExport().Agenda(context.Background(), professionalSession("ana"), ExportRequest{From: "2030-01-07"})
	require.NoError(t, err)
	assert.Equal(t, "agenda-2030-01-07.csv", res.Filename)
	assert.Equal(t, "text/csv; charset=utf-8", res.ContentType)
	assert.Equal(t, 2, res.Rows)

	records, err := csv.NewReader(bytes.NewReader(res.Data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "Professional", records[0][2])
	assert.Equal(t, []string{"2030-01-07", "08:00", "Ana", "Maria", "Evaluation", "30", "Downtown", "confirmed", ""}, records[1])
	assert.Equal(t, "14:00", records[2][1])
}

func TestExportAgendaPDF(t *testing.T) {
	res, err := newTestExport().Agenda(context.Background(), admin(), ExportRequest{From: "2030-01-06", To: "2030-01-12", Format: "pdf"})
	require.NoError(t, err)
	assert.Equal(t, "agenda-2030-01-06_2030-01-12.pdf", res.Filename)
	assert.Equal(t, 3, res.Rows)
	assert.True(t, bytes.HasPrefix(res.Data, []byte("%PDF")))
}

func TestExportAgendaValidation(t *testing.T) {
	svc := newTestExport()

	_, err := svc.Agenda(context.Background(), admin(), ExportRequest{From: "2030-01-07", Format: "xlsx"})
	assert.Contains(t, appErrors.FromError(err).Details, "format")

	_, err = svc.Agenda(context.Background(), admin(), ExportRequest{From: "2030-01-07", To: "2030-01-01"})
	assert.Contains(t, appErrors.FromError(err).Details, "to")

	_, err = svc.Agenda(context.Background(), admin(), ExportRequest{From: "2030-01-01", To: "2030-03-01"})
	assert.Contains(t, appErrors.FromError(err).Details, "to")

	_, err = svc.Agenda(context.Background(), admin(), ExportRequest{})
	assert.Contains(t, appErrors.FromError(err).Details, "date")
}
