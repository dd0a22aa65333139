package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edcenter/tutorcenter-api/internal/models"
	appErrors "github.com/edcenter/tutorcenter-api/pkg/errors"
)

type enrollmentKey struct {
	studentID int64
	courseID  int64
}

type mockEnrollmentRepo struct {
	enrollments map[enrollmentKey]models.Enrollment
	nextID      int64
}

func (m *mockEnrollmentRepo) FindByStudentAndCourse(ctx context.Context, studentID, courseID int64) (*models.Enrollment, error) {
	if e, ok := m.enrollments[enrollmentKey{studentID, courseID}]; ok {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentRepo) ListByStudent(ctx context.Context, studentID int64) ([]models.EnrollmentDetail, error) {
	var out []models.EnrollmentDetail
	for _, e := range m.enrollments {
		if e.StudentID == studentID {
			out = append(out, models.EnrollmentDetail{Enrollment: e})
		}
	}
	return out, nil
}

func (m *mockEnrollmentRepo) ListByCourse(ctx context.Context, courseID int64) ([]models.EnrollmentDetail, error) {
	var out []models.EnrollmentDetail
	for _, e := range m.enrollments {
		if e.CourseID == courseID {
			out = append(out, models.EnrollmentDetail{Enrollment: e})
		}
	}
	return out, nil
}

func (m *mockEnrollmentRepo) Create(ctx context.Context, enrollment *models.Enrollment) error {
	key := enrollmentKey{enrollment.StudentID, enrollment.CourseID}
	if _, ok := m.enrollments[key]; ok {
		return &pq.Error{Code: "23505"}
	}
	if m.enrollments == nil {
		m.enrollments = make(map[enrollmentKey]models.Enrollment)
	}
	m.nextID++
	enrollment.ID = m.nextID
	m.enrollments[key] = *enrollment
	return nil
}

func (m *mockEnrollmentRepo) AddLessons(ctx context.Context, studentID, courseID int64, count int) (int, int, error) {
	key := enrollmentKey{studentID, courseID}
	e, ok := m.enrollments[key]
	if !ok {
		return 0, 0, sql.ErrNoRows
	}
	e.LessonsAttended += count
	m.enrollments[key] = e
	return e.LessonsAttended, e.LessonsAttended, nil
}

func newEnrollmentFixture() (*EnrollmentService, *mockEnrollmentRepo, *mockCache) {
	repo := &mockEnrollmentRepo{}
	students := &mockStudentReader{students: map[int64]models.Student{
		1: {ID: 1, Name: "Aziz", Surname: "Karimov"},
	}}
	courses := &mockCourseReader{courses: map[int64]models.Course{
		10: {ID: 10, Name: "Math", MonthlyCost: 150, LessonsPerMonth: 8},
	}}
	cache := &mockCache{}
	svc := NewEnrollmentService(repo, students, courses, cache, nil, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC) }
	return svc, repo, cache
}

func TestEnrollDefaultsToToday(t *testing.T) {
	svc, repo, cache := newEnrollmentFixture()

	receipt, err := svc.Enroll(context.Background(), 1, EnrollRequest{CourseID: 10})
	require.NoError(t, err)
	assert.Equal(t, "2025-03-04", receipt.EnrollmentDate)
	assert.Equal(t, "Math", receipt.CourseName)
	assert.Equal(t, 150.0, receipt.MonthlyFee)
	assert.Len(t, repo.enrollments, 1)
	assert.Equal(t, []string{"debt:*"}, cache.deletedPatterns)
}

func TestEnrollDuplicateConflicts(t *testing.T) {
	svc, _, _ := newEnrollmentFixture()

	_, err := svc.Enroll(context.Background(), 1, EnrollRequest{CourseID: 10})
	require.NoError(t, err)

	_, err = svc.Enroll(context.Background(), 1, EnrollRequest{CourseID: 10})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestEnrollUnknownCourse(t *testing.T) {
	svc, _, _ := newEnrollmentFixture()

	_, err := svc.Enroll(context.Background(), 1, EnrollRequest{CourseID: 999})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestEnrollUnknownStudent(t *testing.T) {
	svc, _, _ := newEnrollmentFixture()

	_, err := svc.Enroll(context.Background(), 42, EnrollRequest{CourseID: 10})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAddLessonsRequiresEnrollment(t *testing.T) {
	svc, _, _ := newEnrollmentFixture()

	_, err := svc.AddLessons(context.Background(), 1, AddLessonsRequest{CourseID: 10, Count: 2})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAddLessonsBumpsCounters(t *testing.T) {
	svc, _, _ := newEnrollmentFixture()

	_, err := svc.Enroll(context.Background(), 1, EnrollRequest{CourseID: 10})
	require.NoError(t, err)

	result, err := svc.AddLessons(context.Background(), 1, AddLessonsRequest{CourseID: 10, Count: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, result.LessonsAdded)
	assert.Equal(t, 3, result.CourseLessonsAttended)
}
