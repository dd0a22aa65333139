package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edcenter/tutorcenter-api/internal/models"
	appErrors "github.com/edcenter/tutorcenter-api/pkg/errors"
)

type mockDebtStudents struct {
	students map[int64]models.Student
}

func (m *mockDebtStudents) FindByID(ctx context.Context, id int64) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockDebtStudents) ListAll(ctx context.Context) ([]models.Student, error) {
	var all []models.Student
	for _, s := range m.students {
		all = append(all, s)
	}
	return all, nil
}

type mockDebtEnrollments struct {
	byStudent map[int64][]models.EnrollmentDetail
	byCourse  map[int64][]models.EnrollmentDetail
}

func (m *mockDebtEnrollments) ListByStudent(ctx context.Context, studentID int64) ([]models.EnrollmentDetail, error) {
	return m.byStudent[studentID], nil
}

func (m *mockDebtEnrollments) ListByCourse(ctx context.Context, courseID int64) ([]models.EnrollmentDetail, error) {
	return m.byCourse[courseID], nil
}

type mockDebtPayments struct {
	byStudent map[int64]float64
	byCourse  map[int64]map[int64]float64
}

func (m *mockDebtPayments) SumByStudent(ctx context.Context, studentID int64) (float64, error) {
	return m.byStudent[studentID], nil
}

func (m *mockDebtPayments) SumByStudentAndCourse(ctx context.Context, studentID, courseID int64) (float64, error) {
	return m.byCourse[studentID][courseID], nil
}

func newDebtFixture() *DebtService {
	// Enrolled Sep 1 2024, evaluated Nov 5 2024: two billable months.
	students := &mockDebtStudents{students: map[int64]models.Student{
		1: {ID: 1, Name: "Aziz", Surname: "Karimov"},
		2: {ID: 2, Name: "Malika", Surname: "Yusupova"},
	}}
	enrollDate := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	mathDetail := models.EnrollmentDetail{
		Enrollment: models.Enrollment{
			ID: 1, StudentID: 1, CourseID: 10,
			EnrollmentDate: enrollDate, LessonsAttended: 5,
		},
		CourseName: "Math", MonthlyCost: 150, LessonsPerMonth: 8,
		StudentName: "Aziz", StudentSurname: "Karimov",
	}
	enrollments := &mockDebtEnrollments{
		byStudent: map[int64][]models.EnrollmentDetail{1: {mathDetail}},
		byCourse:  map[int64][]models.EnrollmentDetail{10: {mathDetail}},
	}
	courses := &mockCourseReader{courses: map[int64]models.Course{
		10: {ID: 10, Name: "Math", MonthlyCost: 150, LessonsPerMonth: 8},
	}}
	payments := &mockDebtPayments{
		byStudent: map[int64]float64{1: 100},
		byCourse:  map[int64]map[int64]float64{1: {10: 100}},
	}

	svc := NewDebtService(students, enrollments, courses, payments, nil, 0, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2024, 11, 5, 0, 0, 0, 0, time.UTC) }
	return svc
}

func TestDebtServiceStudentDebt(t *testing.T) {
	svc := newDebtFixture()

	debt, err := svc.StudentDebt(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Aziz Karimov", debt.StudentName)
	require.Len(t, debt.CourseBreakdown, 1)

	line := debt.CourseBreakdown[0]
	assert.Equal(t, 2, line.MonthsEnrolled)
	assert.Equal(t, 16, line.ExpectedLessons)
	assert.Equal(t, 5, line.LessonsAttended)
	assert.Equal(t, 300.0, line.TotalOwedForCourse)
	assert.Equal(t, "2024-09-01", line.EnrollmentDate)

	assert.Equal(t, 300.0, debt.TotalMonthlyOwed)
	assert.Equal(t, 100.0, debt.TotalPaid)
	assert.Equal(t, -200.0, debt.Balance)
	assert.True(t, debt.OwesMoney)
	assert.Equal(t, 200.0, debt.DebtAmount)
	assert.Zero(t, debt.OverpaidAmount)
}

func TestDebtServiceStudentDebtUnknownStudent(t *testing.T) {
	svc := newDebtFixture()

	_, err := svc.StudentDebt(context.Background(), 99)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestDebtServiceMonthlySummary(t *testing.T) {
	svc := newDebtFixture()

	summary, err := svc.MonthlySummary(context.Background())
	require.NoError(t, err)
	require.Len(t, summary.Students, 2)

	// student 2 has no enrollments: no debt contribution
	assert.Equal(t, 200.0, summary.TotalDebtAllStudents)
	assert.Equal(t, 1, summary.StudentsWithDebt)
}

func TestDebtServiceCourseDebtsScopedPayments(t *testing.T) {
	svc := newDebtFixture()

	summary, err := svc.CourseDebts(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, "Math", summary.CourseName)
	assert.Equal(t, 150.0, summary.MonthlyFee)
	require.Len(t, summary.Students, 1)

	row := summary.Students[0]
	assert.Equal(t, "Aziz Karimov", row.StudentName)
	assert.Equal(t, 2, row.MonthsEnrolled)
	assert.Equal(t, 300.0, row.CourseOwed)
	assert.Equal(t, 100.0, row.CoursePayments)
	assert.Equal(t, -200.0, row.Balance)
	assert.Equal(t, 200.0, row.Debt)
	assert.Equal(t, 200.0, summary.TotalCourseDebt)
	assert.Equal(t, 1, summary.StudentsWithDebt)
}

func TestDebtServiceCourseDebtsUnknownCourse(t *testing.T) {
	svc := newDebtFixture()

	_, err := svc.CourseDebts(context.Background(), 999)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

type stubDebtCache struct {
	store map[string][]byte
	hits  int
	sets  int
}

func (c *stubDebtCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := c.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	c.hits++
	return json.Unmarshal(raw, dest)
}

func (c *stubDebtCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if c.store == nil {
		c.store = make(map[string][]byte)
	}
	c.store[key] = raw
	c.sets++
	return nil
}

func TestDebtServiceSummaryCached(t *testing.T) {
	svc := newDebtFixture()
	cache := &stubDebtCache{}
	svc.cache = cache

	_, err := svc.MonthlySummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets)

	summary, err := svc.MonthlySummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, cache.hits)
	assert.Equal(t, 200.0, summary.TotalDebtAllStudents)
}
