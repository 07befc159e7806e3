package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/clinic-agenda-api/internal/models"
)

var appointmentRowColumns = []string{"id", "client_id", "professional_id", "service_id", "date", "time", "location", "status", "notes", "created_at"}

const appointmentSelect = "SELECT id, client_id, professional_id, service_id, to_char(date, 'YYYY-MM-DD') AS date, time, location, status, notes, created_at FROM appointments"

func TestAppointmentRepositoryListBuildsFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAppointmentRepository(db)

	rows := sqlmock.NewRows(appointmentRowColumns).
		AddRow("a1", "c1", "p1", "s1", "2024-01-01", "08:00", "Sala 1", "confirmed", nil, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta(appointmentSelect + " WHERE (professional_id = $1 AND date >= $2) ORDER BY date DESC, time ASC LIMIT 20 OFFSET 0")).
		WithArgs("p1", "2024-01-01").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM appointments WHERE (professional_id = $1 AND date >= $2)")).
		WithArgs("p1", "2024-01-01").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	list, total, err := repo.List(context.Background(), models.AppointmentFilter{ProfessionalID: "p1", DateFrom: "2024-01-01"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "08:00", list[0].Time)
	assert.Equal(t, models.AppointmentConfirmed, list[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepositoryAllOrdersNewestFirst(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAppointmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(appointmentSelect + " ORDER BY date DESC, time ASC")).
		WillReturnRows(sqlmock.NewRows(appointmentRowColumns))

	list, err := repo.All(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepositoryCreateAndStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAppointmentRepository(db)

	mock.ExpectExec("INSERT INTO appointments").
		WithArgs(sqlmock.AnyArg(), "c1", "p1", "s1", "2024-01-01", "08:00", "Sala 1", "confirmed", nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	appt := &models.Appointment{ClientID: "c1", ProfessionalID: "p1", ServiceID: "s1", Date: "2024-01-01", Time: "08:00", Location: "Sala 1", Status: models.AppointmentConfirmed}
	require.NoError(t, repo.Create(context.Background(), appt))
	assert.NotEmpty(t, appt.ID)
	assert.False(t, appt.CreatedAt.IsZero())

	mock.ExpectExec(regexp.QuoteMeta("UPDATE appointments SET status = $1 WHERE id = $2")).
		WithArgs("cancelled", appt.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdateStatus(context.Background(), appt.ID, models.AppointmentCancelled))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAppointmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM appointments WHERE id = $1")).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
