package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/edcenter/tutorcenter-api/internal/middleware"
	"github.com/edcenter/tutorcenter-api/internal/models"
	"github.com/edcenter/tutorcenter-api/internal/service"
)

// Handlers bundles every HTTP handler for route registration.
type Handlers struct {
	Auth        *AuthHandler
	Users       *UserHandler
	Students    *StudentHandler
	Courses     *CourseHandler
	Attendance  *AttendanceHandler
	Enrollments *EnrollmentHandler
	Payments    *PaymentHandler
	Debts       *DebtHandler
	Stats       *StatsHandler
	Reports     *ReportHandler
	Metrics     *MetricsHandler
}

// RegisterRoutes wires the API surface under the given prefix. Teachers get
// read access to students, courses, debt views and stats plus the
// attendance ledger; everything else requires admin, and user management
// requires superadmin.
func RegisterRoutes(r *gin.Engine, prefix string, auth *service.AuthService, h Handlers) {
	anyStaff := middleware.RequireRoles(models.RoleTeacher, models.RoleAdmin, models.RoleSuperAdmin)
	adminUp := middleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin)
	superOnly := middleware.RequireRoles(models.RoleSuperAdmin)

	api := r.Group(prefix)

	api.POST("/auth/login", h.Auth.Login)
	// report downloads carry their own HMAC token instead of a JWT
	if h.Reports != nil {
		api.GET("/reports/download/:token", h.Reports.Download)
	}

	protected := api.Group("", middleware.JWT(auth))
	protected.GET("/auth/me", h.Auth.Me)

	users := protected.Group("/users", superOnly)
	users.GET("", h.Users.List)
	users.GET("/:id", h.Users.Get)
	users.POST("", h.Users.Create)
	users.PUT("/:id", h.Users.Update)
	users.DELETE("/:id", h.Users.Delete)

	students := protected.Group("/students")
	students.GET("", anyStaff, h.Students.List)
	students.GET("/archived", anyStaff, h.Students.ListArchived)
	students.GET("/:id", anyStaff, h.Students.Get)
	students.POST("", adminUp, h.Students.Create)
	students.PUT("/:id", adminUp, h.Students.Update)
	students.DELETE("/:id", adminUp, h.Students.Delete)

	students.GET("/:id/attendance", anyStaff, h.Attendance.List)
	students.POST("/:id/attendance", anyStaff, h.Attendance.Check)
	students.PUT("/:id/attendance", adminUp, h.Attendance.Update)
	students.DELETE("/:id/attendance", adminUp, h.Attendance.Delete)

	students.GET("/:id/enrollments", adminUp, h.Enrollments.List)
	students.POST("/:id/enrollments", adminUp, h.Enrollments.Enroll)
	students.POST("/:id/lessons", adminUp, h.Enrollments.AddLessons)
	students.GET("/:id/monthly-debt", adminUp, h.Debts.StudentDebt)

	courses := protected.Group("/courses")
	courses.GET("", anyStaff, h.Courses.List)
	courses.GET("/:id", anyStaff, h.Courses.Get)
	courses.POST("", adminUp, h.Courses.Create)
	courses.PUT("/:id", adminUp, h.Courses.Update)
	courses.DELETE("/:id", adminUp, h.Courses.Delete)
	courses.GET("/:id/students-debt", adminUp, h.Debts.CourseDebts)

	payments := protected.Group("/payments", adminUp)
	payments.GET("", h.Payments.List)
	payments.GET("/:id", h.Payments.Get)
	payments.POST("", h.Payments.Record)
	payments.PUT("/:id", h.Payments.Update)
	payments.DELETE("/:id", h.Payments.Delete)

	protected.GET("/debts/monthly-summary", adminUp, h.Debts.MonthlySummary)

	stats := protected.Group("/stats", anyStaff)
	stats.GET("", h.Stats.General)
	stats.GET("/by-course", h.Stats.PaymentsByCourse)
	stats.GET("/monthly/:year", h.Stats.PaymentsByMonth)

	if h.Reports != nil {
		reports := protected.Group("/reports", adminUp)
		reports.POST("/debt", h.Reports.Create)
		reports.GET("/:id", h.Reports.Get)
	}
}
