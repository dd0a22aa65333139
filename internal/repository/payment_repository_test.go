package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edcenter/tutorcenter-api/internal/models"
)

func TestPaymentRepositoryCreateWithBalance(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	payment := &models.Payment{
		Amount:    150,
		Date:      time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		StudentID: 1,
		CourseID:  10,
	}

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO payments").
		WithArgs(150.0, payment.Date, int64(1), int64(10), "").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))
	mock.ExpectExec("UPDATE students SET balance").
		WithArgs(int64(1), 150.0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.CreateWithBalance(context.Background(), payment))
	assert.Equal(t, int64(42), payment.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepositoryListFiltered(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "amount", "payment_date", "student_id", "course_id", "description"}).
		AddRow(int64(1), 150.0, time.Now(), int64(1), int64(10), "march")
	mock.ExpectQuery("SELECT (.+) FROM payments WHERE student_id").
		WithArgs(int64(1)).
		WillReturnRows(rows)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM payments`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	payments, total, err := repo.List(context.Background(), models.PaymentFilter{StudentID: 1})
	require.NoError(t, err)
	assert.Len(t, payments, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepositorySumByStudent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\) FROM payments WHERE student_id`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(450.0))

	total, err := repo.SumByStudent(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 450.0, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepositoryTotalsByMonth(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	rows := sqlmock.NewRows([]string{"month", "total"}).
		AddRow(1, 300.0).
		AddRow(3, 150.0)
	mock.ExpectQuery("SELECT EXTRACT").
		WithArgs(2025).
		WillReturnRows(rows)

	totals, err := repo.TotalsByMonth(context.Background(), 2025)
	require.NoError(t, err)
	require.Len(t, totals, 2)
	assert.Equal(t, 3, totals[1].Month)
	assert.Equal(t, 150.0, totals[1].Total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
