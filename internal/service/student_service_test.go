package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edcenter/tutorcenter-api/internal/models"
	"github.com/edcenter/tutorcenter-api/pkg/config"
	appErrors "github.com/edcenter/tutorcenter-api/pkg/errors"
)

type mockStudentRepo struct {
	students    map[int64]models.Student
	courseIDs   map[int64][]int64
	nextID      int64
	archived    []int64
	hardDeleted []int64
	hardErr     error
	lastFilter  models.StudentFilter
}

func (m *mockStudentRepo) FindByID(ctx context.Context, id int64) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	m.lastFilter = filter
	var out []models.Student
	for _, s := range m.students {
		if s.Archived == filter.Archived {
			out = append(out, s)
		}
	}
	return out, len(out), nil
}

func (m *mockStudentRepo) Create(ctx context.Context, student *models.Student) error {
	if m.students == nil {
		m.students = make(map[int64]models.Student)
	}
	m.nextID++
	student.ID = m.nextID
	m.students[student.ID] = *student
	return nil
}

func (m *mockStudentRepo) Update(ctx context.Context, student *models.Student) error {
	if _, ok := m.students[student.ID]; !ok {
		return sql.ErrNoRows
	}
	m.students[student.ID] = *student
	return nil
}

func (m *mockStudentRepo) Archive(ctx context.Context, id int64) error {
	s, ok := m.students[id]
	if !ok {
		return sql.ErrNoRows
	}
	s.Archived = true
	m.students[id] = s
	m.archived = append(m.archived, id)
	return nil
}

func (m *mockStudentRepo) HardDelete(ctx context.Context, id int64) error {
	if m.hardErr != nil {
		return m.hardErr
	}
	if _, ok := m.students[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.students, id)
	m.hardDeleted = append(m.hardDeleted, id)
	return nil
}

func (m *mockStudentRepo) ListCourseIDs(ctx context.Context, studentID int64) ([]int64, error) {
	return m.courseIDs[studentID], nil
}

func (m *mockStudentRepo) ReplaceCourses(ctx context.Context, studentID int64, courseIDs []int64) error {
	if m.courseIDs == nil {
		m.courseIDs = make(map[int64][]int64)
	}
	m.courseIDs[studentID] = courseIDs
	return nil
}

func TestStudentCreateWithCourses(t *testing.T) {
	repo := &mockStudentRepo{}
	svc := NewStudentService(repo, config.StudentDeleteArchive, nil, zap.NewNop())

	student, err := svc.Create(context.Background(), CreateStudentRequest{
		Name:         "Aziz",
		Surname:      "Karimov",
		StartingDate: "2024-09-01",
		CourseIDs:    []int64{10},
	})
	require.NoError(t, err)
	assert.NotZero(t, student.ID)
	assert.Zero(t, student.Balance)
	assert.Zero(t, student.LessonCount)
	assert.Equal(t, []int64{10}, repo.courseIDs[student.ID])
}

func TestStudentCreateBadDate(t *testing.T) {
	repo := &mockStudentRepo{}
	svc := NewStudentService(repo, config.StudentDeleteArchive, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), CreateStudentRequest{
		Name: "Aziz", Surname: "Karimov", StartingDate: "01/09/2024",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestStudentDeleteArchiveMode(t *testing.T) {
	repo := &mockStudentRepo{}
	svc := NewStudentService(repo, config.StudentDeleteArchive, nil, zap.NewNop())

	student, err := svc.Create(context.Background(), CreateStudentRequest{
		Name: "Aziz", Surname: "Karimov", StartingDate: "2024-09-01",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), student.ID))
	assert.Equal(t, []int64{student.ID}, repo.archived)
	assert.Empty(t, repo.hardDeleted)
	assert.True(t, repo.students[student.ID].Archived)
}

func TestStudentDeleteHardMode(t *testing.T) {
	repo := &mockStudentRepo{}
	svc := NewStudentService(repo, config.StudentDeleteHard, nil, zap.NewNop())

	student, err := svc.Create(context.Background(), CreateStudentRequest{
		Name: "Aziz", Surname: "Karimov", StartingDate: "2024-09-01",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), student.ID))
	assert.Equal(t, []int64{student.ID}, repo.hardDeleted)
	assert.Empty(t, repo.archived)
}

func TestStudentDeleteBlockedByPayments(t *testing.T) {
	repo := &mockStudentRepo{
		students: map[int64]models.Student{1: {ID: 1}},
		hardErr:  &pq.Error{Code: "23503"},
	}
	svc := NewStudentService(repo, config.StudentDeleteHard, nil, zap.NewNop())

	err := svc.Delete(context.Background(), 1)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrReferenced.Code, appErrors.FromError(err).Code)
}

func TestStudentUpdateBypassesLedger(t *testing.T) {
	repo := &mockStudentRepo{}
	svc := NewStudentService(repo, config.StudentDeleteArchive, nil, zap.NewNop())

	student, err := svc.Create(context.Background(), CreateStudentRequest{
		Name: "Aziz", Surname: "Karimov", StartingDate: "2024-09-01",
	})
	require.NoError(t, err)

	balance := -75.0
	lessons := 12
	updated, err := svc.Update(context.Background(), student.ID, UpdateStudentRequest{
		Name:         "Aziz",
		Surname:      "Karimov",
		StartingDate: "2024-09-01",
		Balance:      &balance,
		LessonCount:  &lessons,
	})
	require.NoError(t, err)
	assert.Equal(t, -75.0, updated.Balance)
	assert.Equal(t, 12, updated.LessonCount)
}

func TestStudentListScopedForTeacher(t *testing.T) {
	repo := &mockStudentRepo{students: map[int64]models.Student{
		1: {ID: 1, Name: "Aziz", Surname: "Karimov"},
	}}
	svc := NewStudentService(repo, config.StudentDeleteArchive, nil, zap.NewNop())

	_, _, err := svc.List(context.Background(), models.StudentFilter{CourseIDs: []int64{10, 11}})
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 11}, repo.lastFilter.CourseIDs)
}
