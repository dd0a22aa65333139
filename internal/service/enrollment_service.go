package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edcenter/tutorcenter-api/internal/models"
	"github.com/edcenter/tutorcenter-api/internal/repository"
	appErrors "github.com/edcenter/tutorcenter-api/pkg/errors"
)

type enrollmentRepository interface {
	FindByStudentAndCourse(ctx context.Context, studentID, courseID int64) (*models.Enrollment, error)
	ListByStudent(ctx context.Context, studentID int64) ([]models.EnrollmentDetail, error)
	ListByCourse(ctx context.Context, courseID int64) ([]models.EnrollmentDetail, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
	AddLessons(ctx context.Context, studentID, courseID int64, count int) (courseLessons, totalLessons int, err error)
}

// EnrollRequest enrolls a student into a course. EnrollmentDate defaults to
// today when omitted.
type EnrollRequest struct {
	CourseID       int64  `json:"course_id" validate:"required,gt=0"`
	EnrollmentDate string `json:"enrollment_date"`
}

// AddLessonsRequest manually adjusts lesson counters for one enrollment.
type AddLessonsRequest struct {
	CourseID int64 `json:"course_id" validate:"required,gt=0"`
	Count    int   `json:"count" validate:"required,gt=0"`
}

// EnrollmentService handles course enrollment and manual lesson adjustments.
type EnrollmentService struct {
	enrollments enrollmentRepository
	students    attendanceStudentReader
	courses     attendanceCourseReader
	cache       cacheInvalidator
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewEnrollmentService constructs the enrollment service.
func NewEnrollmentService(enrollments enrollmentRepository, students attendanceStudentReader, courses attendanceCourseReader, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{enrollments: enrollments, students: students, courses: courses, cache: cache, validator: validate, logger: logger, now: time.Now}
}

// ListByStudent returns the student's enrollments with billing details.
func (s *EnrollmentService) ListByStudent(ctx context.Context, studentID int64) ([]models.EnrollmentDetail, error) {
	if err := s.requireStudent(ctx, studentID); err != nil {
		return nil, err
	}
	enrollments, err := s.enrollments.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	if enrollments == nil {
		enrollments = []models.EnrollmentDetail{}
	}
	return enrollments, nil
}

// Enroll creates the enrollment and starts the monthly fee obligation from
// the enrollment date. The pair is unique: re-enrolling is a conflict.
func (s *EnrollmentService) Enroll(ctx context.Context, studentID int64, req EnrollRequest) (*models.EnrollmentReceipt, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}

	enrollmentDate := s.now().UTC().Truncate(24 * time.Hour)
	if req.EnrollmentDate != "" {
		parsed, err := time.Parse(models.DateLayout, req.EnrollmentDate)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "enrollment_date must be YYYY-MM-DD")
		}
		enrollmentDate = parsed
	}

	if err := s.requireStudent(ctx, studentID); err != nil {
		return nil, err
	}
	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	enrollment := &models.Enrollment{
		StudentID:      studentID,
		CourseID:       req.CourseID,
		EnrollmentDate: enrollmentDate,
	}
	if err := s.enrollments.Create(ctx, enrollment); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "student already enrolled in course")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enroll student")
	}

	s.invalidateDebtCache(ctx)
	s.logger.Info("student enrolled",
		zap.Int64("student_id", studentID),
		zap.Int64("course_id", req.CourseID))
	return &models.EnrollmentReceipt{
		StudentID:      studentID,
		CourseID:       course.ID,
		CourseName:     course.Name,
		EnrollmentDate: enrollmentDate.Format(models.DateLayout),
		MonthlyFee:     course.MonthlyCost,
	}, nil
}

// AddLessons bumps the enrollment-scoped and global lesson counters without
// touching the balance; it corrects counts, it does not bill.
func (s *EnrollmentService) AddLessons(ctx context.Context, studentID int64, req AddLessonsRequest) (*models.LessonAdditionResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lessons payload")
	}
	if err := s.requireStudent(ctx, studentID); err != nil {
		return nil, err
	}

	courseLessons, totalLessons, err := s.enrollments.AddLessons(ctx, studentID, req.CourseID, req.Count)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add lessons")
	}

	return &models.LessonAdditionResult{
		LessonsAdded:          req.Count,
		CourseLessonsAttended: courseLessons,
		TotalLessonsAttended:  totalLessons,
	}, nil
}

func (s *EnrollmentService) requireStudent(ctx context.Context, studentID int64) error {
	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return nil
}

func (s *EnrollmentService) invalidateDebtCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "debt:*"); err != nil {
		s.logger.Warn("debt cache invalidation failed", zap.Error(err))
	}
}
