package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edcenter/tutorcenter-api/internal/billing"
	"github.com/edcenter/tutorcenter-api/internal/models"
	appErrors "github.com/edcenter/tutorcenter-api/pkg/errors"
)

type attendanceRepository interface {
	ListByStudent(ctx context.Context, studentID int64) ([]models.AttendanceEvent, error)
	FindByKey(ctx context.Context, studentID int64, date time.Time, courseID *int64) (*models.AttendanceEvent, error)
	RecordCheck(ctx context.Context, event *models.AttendanceEvent, globalLessonDelta, courseLessonDelta int, balanceDelta float64) error
	UpdateFields(ctx context.Context, studentID int64, date time.Time, courseID *int64, isAbsent *bool, reason *string) error
	DeleteByKey(ctx context.Context, studentID int64, date time.Time, courseID *int64) error
}

type attendanceStudentReader interface {
	FindByID(ctx context.Context, id int64) (*models.Student, error)
}

type attendanceCourseReader interface {
	FindByID(ctx context.Context, id int64) (*models.Course, error)
}

type cacheInvalidator interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

// AttendanceCheckRequest records or toggles one attendance event.
type AttendanceCheckRequest struct {
	Date     string `json:"date" validate:"required"`
	CourseID *int64 `json:"course_id"`
	IsAbsent bool   `json:"is_absent"`
	Reason   string `json:"reason"`
}

// AttendanceUpdateRequest partially edits an existing event without touching
// any counter.
type AttendanceUpdateRequest struct {
	Date     string  `json:"date" validate:"required"`
	CourseID *int64  `json:"course_id"`
	IsAbsent *bool   `json:"is_absent"`
	Reason   *string `json:"reason"`
}

// AttendanceService drives the attendance ledger and the counter engine on
// top of it. Checks are idempotent per (student, date, course) key:
// re-submitting the same presence state only refreshes the reason.
type AttendanceService struct {
	events    attendanceRepository
	students  attendanceStudentReader
	courses   attendanceCourseReader
	cache     cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAttendanceService constructs the attendance service. cache may be nil
// when the debt cache is disabled.
func NewAttendanceService(events attendanceRepository, students attendanceStudentReader, courses attendanceCourseReader, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{events: events, students: students, courses: courses, cache: cache, validator: validate, logger: logger}
}

// List returns the student's full ledger in insertion order.
func (s *AttendanceService) List(ctx context.Context, studentID int64) ([]models.AttendanceEvent, error) {
	if _, err := s.loadStudent(ctx, studentID); err != nil {
		return nil, err
	}
	events, err := s.events.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	if events == nil {
		events = []models.AttendanceEvent{}
	}
	return events, nil
}

// Check records attendance for one date, applying the lesson and balance
// deltas the presence transition implies. A course-scoped check against a
// course that no longer exists still writes the ledger entry but moves no
// money.
func (s *AttendanceService) Check(ctx context.Context, studentID int64, req AttendanceCheckRequest) (*models.AttendanceEvent, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	date, err := time.Parse(models.DateLayout, req.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}

	if _, err := s.loadStudent(ctx, studentID); err != nil {
		return nil, err
	}

	var course *models.Course
	if req.CourseID != nil {
		course, err = s.courses.FindByID(ctx, *req.CourseID)
		if err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
			}
			course = nil
		}
	}

	prev, err := s.events.FindByKey(ctx, studentID, date, req.CourseID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance event")
		}
		prev = nil
	}

	change := billing.ApplyCheck(prev, req.IsAbsent, course)

	event := &models.AttendanceEvent{
		StudentID: studentID,
		Date:      date,
		CourseID:  req.CourseID,
		IsAbsent:  req.IsAbsent,
		Reason:    req.Reason,
	}
	if err := s.events.RecordCheck(ctx, event, change.GlobalLessonDelta, change.CourseLessonDelta, change.BalanceDelta); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record attendance")
	}

	if !change.IsZero() {
		s.invalidateDebtCache(ctx)
	}

	s.logger.Info("attendance checked",
		zap.Int64("student_id", studentID),
		zap.String("date", req.Date),
		zap.Bool("is_absent", req.IsAbsent),
		zap.Float64("balance_delta", change.BalanceDelta))
	return event, nil
}

// Update edits the presence flag or reason of an existing event directly.
// Counters are deliberately untouched: this is the manual correction path
// for ledger mistakes, and any needed balance fix is applied separately.
func (s *AttendanceService) Update(ctx context.Context, studentID int64, req AttendanceUpdateRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	date, err := time.Parse(models.DateLayout, req.Date)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}
	if req.IsAbsent == nil && req.Reason == nil {
		return appErrors.Clone(appErrors.ErrValidation, "nothing to update")
	}

	if err := s.events.UpdateFields(ctx, studentID, date, req.CourseID, req.IsAbsent, req.Reason); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "attendance event not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update attendance")
	}
	return nil
}

// Delete removes an event from the ledger. Counters are untouched, matching
// the update path.
func (s *AttendanceService) Delete(ctx context.Context, studentID int64, dateRaw string, courseID *int64) error {
	date, err := time.Parse(models.DateLayout, dateRaw)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}
	if err := s.events.DeleteByKey(ctx, studentID, date, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "attendance event not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete attendance")
	}
	return nil
}

func (s *AttendanceService) loadStudent(ctx context.Context, studentID int64) (*models.Student, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

func (s *AttendanceService) invalidateDebtCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "debt:*"); err != nil {
		s.logger.Warn("debt cache invalidation failed", zap.Error(err))
	}
}
