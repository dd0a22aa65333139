package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edcenter/tutorcenter-api/internal/models"
)

func TestCourseRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "week_days", "lessons_per_month", "monthly_cost"}).
		AddRow(int64(10), "Math", "{Monday,Wednesday}", 8, 150.0)
	mock.ExpectQuery("SELECT (.+) FROM courses WHERE id").
		WithArgs(int64(10)).
		WillReturnRows(rows)

	course, err := repo.FindByID(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, "Math", course.Name)
	assert.Equal(t, pq.StringArray{"Monday", "Wednesday"}, course.WeekDays)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	course := &models.Course{
		Name:            "Math",
		WeekDays:        pq.StringArray{"Monday"},
		LessonsPerMonth: 8,
		MonthlyCost:     150,
	}
	mock.ExpectQuery("INSERT INTO courses").
		WithArgs("Math", course.WeekDays, 8, 150.0).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(3)))

	require.NoError(t, repo.Create(context.Background(), course))
	assert.Equal(t, int64(3), course.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryDeleteBlockedByEnrollments(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectExec("DELETE FROM courses").
		WithArgs(int64(10)).
		WillReturnError(&pq.Error{Code: "23503", Constraint: "enrollments_course_id_fkey"})

	err := repo.Delete(context.Background(), 10)
	require.Error(t, err)
	assert.True(t, IsForeignKeyViolation(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectExec("DELETE FROM courses").
		WithArgs(int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), 99)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}
