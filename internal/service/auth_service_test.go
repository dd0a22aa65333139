package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/edcenter/tutorcenter-api/internal/models"
	"github.com/edcenter/tutorcenter-api/pkg/config"
	appErrors "github.com/edcenter/tutorcenter-api/pkg/errors"
)

type mockAuthUsers struct {
	users     map[string]models.User
	courseIDs map[int64][]int64
}

func (m *mockAuthUsers) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	if u, ok := m.users[username]; ok {
		return &u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthUsers) ListCourseIDs(ctx context.Context, userID int64) ([]int64, error) {
	return m.courseIDs[userID], nil
}

func newAuthFixture(t *testing.T) (*AuthService, *mockAuthUsers) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)

	users := &mockAuthUsers{
		users: map[string]models.User{
			"teacher1": {ID: 1, Username: "teacher1", PasswordHash: string(hash), Role: models.RoleTeacher},
			"admin1":   {ID: 2, Username: "admin1", PasswordHash: string(hash), Role: models.RoleAdmin},
		},
		courseIDs: map[int64][]int64{1: {10, 11}},
	}
	cfg := config.JWTConfig{Secret: "test_secret", Expiration: time.Hour, Issuer: "tutorcenter-api"}
	return NewAuthService(users, cfg, nil, zap.NewNop()), users
}

func TestAuthLoginTeacherCarriesCourseIDs(t *testing.T) {
	svc, _ := newAuthFixture(t)

	resp, err := svc.Login(context.Background(), LoginRequest{Username: "teacher1", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Equal(t, []int64{10, 11}, resp.User.CourseIDs)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(1), claims.UserID)
	assert.Equal(t, models.RoleTeacher, claims.Role)
	assert.Equal(t, []int64{10, 11}, claims.CourseIDs)
}

func TestAuthLoginAdminHasEmptyCourseSet(t *testing.T) {
	svc, _ := newAuthFixture(t)

	resp, err := svc.Login(context.Background(), LoginRequest{Username: "admin1", Password: "secret123"})
	require.NoError(t, err)
	assert.Empty(t, resp.User.CourseIDs)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Empty(t, claims.CourseIDs)
}

func TestAuthLoginWrongPassword(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), LoginRequest{Username: "teacher1", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthLoginUnknownUserSameError(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), LoginRequest{Username: "nobody", Password: "secret123"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthValidateExpiredToken(t *testing.T) {
	svc, _ := newAuthFixture(t)
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	resp, err := svc.Login(context.Background(), LoginRequest{Username: "admin1", Password: "secret123"})
	require.NoError(t, err)

	_, err = svc.ValidateToken(resp.AccessToken)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthValidateGarbageToken(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.ValidateToken("not.a.token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
