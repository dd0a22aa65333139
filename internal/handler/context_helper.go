package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/edcenter/tutorcenter-api/internal/middleware"
	"github.com/edcenter/tutorcenter-api/internal/models"
	appErrors "github.com/edcenter/tutorcenter-api/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

func idParam(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "invalid "+name)
	}
	return id, nil
}

// teacherCourseScope returns the claims' course set for teacher accounts and
// nil for the unrestricted roles.
func teacherCourseScope(claims *models.JWTClaims) []int64 {
	if claims == nil || claims.Role != models.RoleTeacher {
		return nil
	}
	if len(claims.CourseIDs) == 0 {
		// a teacher with no assignments sees nothing
		return []int64{-1}
	}
	return claims.CourseIDs
}
