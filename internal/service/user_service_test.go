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
	appErrors "github.com/edcenter/tutorcenter-api/pkg/errors"
)

type mockUserRepo struct {
	users     map[int64]models.User
	courseIDs map[int64][]int64
	nextID    int64
}

func (m *mockUserRepo) FindByID(ctx context.Context, id int64) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return &u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) List(ctx context.Context) ([]models.User, error) {
	var out []models.User
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	for _, u := range m.users {
		if u.Username == user.Username {
			return &pq.Error{Code: "23505"}
		}
	}
	if m.users == nil {
		m.users = make(map[int64]models.User)
	}
	if m.courseIDs == nil {
		m.courseIDs = make(map[int64][]int64)
	}
	m.nextID++
	user.ID = m.nextID
	m.users[user.ID] = *user
	m.courseIDs[user.ID] = user.CourseIDs
	return nil
}

func (m *mockUserRepo) Update(ctx context.Context, user *models.User) error {
	if _, ok := m.users[user.ID]; !ok {
		return sql.ErrNoRows
	}
	m.users[user.ID] = *user
	m.courseIDs[user.ID] = user.CourseIDs
	return nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := m.users[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.users, id)
	delete(m.courseIDs, id)
	return nil
}

func (m *mockUserRepo) ListCourseIDs(ctx context.Context, userID int64) ([]int64, error) {
	return m.courseIDs[userID], nil
}

func TestUserCreateTeacherKeepsCourseIDs(t *testing.T) {
	repo := &mockUserRepo{}
	svc := NewUserService(repo, nil, zap.NewNop())

	user, err := svc.Create(context.Background(), CreateUserRequest{
		Username:  "teacher1",
		Password:  "secret123",
		Role:      models.RoleTeacher,
		CourseIDs: []int64{10, 11},
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 11}, user.CourseIDs)
	assert.NotEqual(t, "secret123", user.PasswordHash)
}

func TestUserCreateAdminDropsCourseIDs(t *testing.T) {
	repo := &mockUserRepo{}
	svc := NewUserService(repo, nil, zap.NewNop())

	user, err := svc.Create(context.Background(), CreateUserRequest{
		Username:  "admin1",
		Password:  "secret123",
		Role:      models.RoleAdmin,
		CourseIDs: []int64{10},
	})
	require.NoError(t, err)
	assert.Empty(t, user.CourseIDs)
}

func TestUserCreateDuplicateUsername(t *testing.T) {
	repo := &mockUserRepo{}
	svc := NewUserService(repo, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), CreateUserRequest{
		Username: "admin1", Password: "secret123", Role: models.RoleAdmin,
	})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), CreateUserRequest{
		Username: "admin1", Password: "secret123", Role: models.RoleAdmin,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestUserCreateInvalidRole(t *testing.T) {
	repo := &mockUserRepo{}
	svc := NewUserService(repo, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), CreateUserRequest{
		Username: "x1", Password: "secret123", Role: "OWNER",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUserUpdateKeepsPasswordWhenEmpty(t *testing.T) {
	repo := &mockUserRepo{}
	svc := NewUserService(repo, nil, zap.NewNop())

	created, err := svc.Create(context.Background(), CreateUserRequest{
		Username: "admin1", Password: "secret123", Role: models.RoleAdmin,
	})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), created.ID, UpdateUserRequest{
		Username: "admin1renamed", Role: models.RoleAdmin,
	})
	require.NoError(t, err)
	assert.Equal(t, "admin1renamed", updated.Username)
	assert.Equal(t, created.PasswordHash, updated.PasswordHash)
}

func TestUserDeleteMissing(t *testing.T) {
	repo := &mockUserRepo{}
	svc := NewUserService(repo, nil, zap.NewNop())

	err := svc.Delete(context.Background(), 99)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
