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
	"github.com/edcenter/tutorcenter-api/pkg/config"
	appErrors "github.com/edcenter/tutorcenter-api/pkg/errors"
)

type studentRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Student, error)
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Archive(ctx context.Context, id int64) error
	HardDelete(ctx context.Context, id int64) error
	ListCourseIDs(ctx context.Context, studentID int64) ([]int64, error)
	ReplaceCourses(ctx context.Context, studentID int64, courseIDs []int64) error
}

// CreateStudentRequest holds payload for creating students.
type CreateStudentRequest struct {
	Name         string  `json:"name" validate:"required"`
	Surname      string  `json:"surname" validate:"required"`
	MiddleName   *string `json:"middle_name"`
	StartingDate string  `json:"starting_date" validate:"required"`
	CourseIDs    []int64 `json:"course_ids"`
}

// UpdateStudentRequest holds payload for updating students. Counter fields
// are accepted verbatim; edits here do not flow through the billing engine.
type UpdateStudentRequest struct {
	Name         string   `json:"name" validate:"required"`
	Surname      string   `json:"surname" validate:"required"`
	MiddleName   *string  `json:"middle_name"`
	StartingDate string   `json:"starting_date" validate:"required"`
	LessonCount  *int     `json:"lesson_count"`
	Balance      *float64 `json:"balance"`
	CourseIDs    []int64  `json:"course_ids"`
}

// StudentService handles student administration.
type StudentService struct {
	repo       studentRepository
	deleteMode string
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, deleteMode string, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if deleteMode != config.StudentDeleteHard {
		deleteMode = config.StudentDeleteArchive
	}
	return &StudentService{repo: repo, deleteMode: deleteMode, validator: validate, logger: logger}
}

// List returns students matching the filter plus paging metadata. The
// filter's CourseIDs field restricts visibility for teacher accounts.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	for i := range students {
		if err := s.attachCourses(ctx, &students[i]); err != nil {
			return nil, nil, err
		}
	}
	limit := filter.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	skip := filter.Skip
	if skip < 0 {
		skip = 0
	}
	return students, &models.Pagination{Skip: skip, Limit: limit, Total: total}, nil
}

// Get returns one student with the course membership set.
func (s *StudentService) Get(ctx context.Context, id int64) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if err := s.attachCourses(ctx, student); err != nil {
		return nil, err
	}
	return student, nil
}

// Create registers a new student with zero counters.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	startingDate, err := time.Parse(models.DateLayout, req.StartingDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "starting_date must be YYYY-MM-DD")
	}

	student := &models.Student{
		Name:         req.Name,
		Surname:      req.Surname,
		MiddleName:   req.MiddleName,
		StartingDate: startingDate,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	if len(req.CourseIDs) > 0 {
		if err := s.repo.ReplaceCourses(ctx, student.ID, req.CourseIDs); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign courses")
		}
		student.CourseIDs = req.CourseIDs
	} else {
		student.CourseIDs = []int64{}
	}

	s.logger.Info("student created", zap.Int64("student_id", student.ID))
	return student, nil
}

// Update edits student fields and rewrites the course membership set.
// Balance and lesson count edits bypass the attendance ledger; the ledger
// itself is never touched here.
func (s *StudentService) Update(ctx context.Context, id int64, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	startingDate, err := time.Parse(models.DateLayout, req.StartingDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "starting_date must be YYYY-MM-DD")
	}

	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	student.Name = req.Name
	student.Surname = req.Surname
	student.MiddleName = req.MiddleName
	student.StartingDate = startingDate
	if req.LessonCount != nil {
		student.LessonCount = *req.LessonCount
	}
	if req.Balance != nil {
		student.Balance = *req.Balance
	}

	if err := s.repo.Update(ctx, student); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}

	if req.CourseIDs != nil {
		if err := s.repo.ReplaceCourses(ctx, student.ID, req.CourseIDs); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign courses")
		}
		student.CourseIDs = req.CourseIDs
	} else if err := s.attachCourses(ctx, student); err != nil {
		return nil, err
	}
	return student, nil
}

// Delete removes a student under the configured policy: archive flags the
// row and keeps all history, hard removes it with enrollments and attendance
// cascading. Recorded payments block a hard delete.
func (s *StudentService) Delete(ctx context.Context, id int64) error {
	var err error
	if s.deleteMode == config.StudentDeleteHard {
		err = s.repo.HardDelete(ctx, id)
	} else {
		err = s.repo.Archive(ctx, id)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		if repository.IsForeignKeyViolation(err) {
			return appErrors.Clone(appErrors.ErrReferenced, "student has recorded payments")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	s.logger.Info("student deleted", zap.Int64("student_id", id), zap.String("mode", s.deleteMode))
	return nil
}

func (s *StudentService) attachCourses(ctx context.Context, student *models.Student) error {
	ids, err := s.repo.ListCourseIDs(ctx, student.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course membership")
	}
	if ids == nil {
		ids = []int64{}
	}
	student.CourseIDs = ids
	return nil
}
