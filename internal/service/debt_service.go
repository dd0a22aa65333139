package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/edcenter/tutorcenter-api/internal/billing"
	"github.com/edcenter/tutorcenter-api/internal/models"
	appErrors "github.com/edcenter/tutorcenter-api/pkg/errors"
)

type debtStudentReader interface {
	FindByID(ctx context.Context, id int64) (*models.Student, error)
	ListAll(ctx context.Context) ([]models.Student, error)
}

type debtEnrollmentReader interface {
	ListByStudent(ctx context.Context, studentID int64) ([]models.EnrollmentDetail, error)
	ListByCourse(ctx context.Context, courseID int64) ([]models.EnrollmentDetail, error)
}

type debtPaymentReader interface {
	SumByStudent(ctx context.Context, studentID int64) (float64, error)
	SumByStudentAndCourse(ctx context.Context, studentID, courseID int64) (float64, error)
}

type debtCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// Debt cache keys. Writers invalidate with the debt:* pattern.
const (
	cacheKeyMonthlySummary  = "debt:summary"
	cacheKeyCourseDebtsFmt  = "debt:course:%d"
	cacheKeyStudentDebtsFmt = "debt:student:%d"
)

// DebtService computes monthly debt positions from enrollments and recorded
// payments. Results are cached in redis when a cache is configured; every
// mutation of attendance, enrollments or payments invalidates the whole
// debt keyspace.
type DebtService struct {
	students    debtStudentReader
	enrollments debtEnrollmentReader
	courses     attendanceCourseReader
	payments    debtPaymentReader
	cache       debtCache
	cacheTTL    time.Duration
	logger      *zap.Logger
	now         func() time.Time
}

// NewDebtService constructs the debt service. cache may be nil.
func NewDebtService(students debtStudentReader, enrollments debtEnrollmentReader, courses attendanceCourseReader, payments debtPaymentReader, cache debtCache, cacheTTL time.Duration, logger *zap.Logger) *DebtService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &DebtService{
		students:    students,
		enrollments: enrollments,
		courses:     courses,
		payments:    payments,
		cache:       cache,
		cacheTTL:    cacheTTL,
		logger:      logger,
		now:         time.Now,
	}
}

// StudentDebt returns the per-course breakdown and overall position for one
// student. The balance is derived from recorded payments against the total
// recurring fees owed, not from the attendance-driven running counter.
func (s *DebtService) StudentDebt(ctx context.Context, studentID int64) (*models.StudentMonthlyDebt, error) {
	key := fmt.Sprintf(cacheKeyStudentDebtsFmt, studentID)
	var cached models.StudentMonthlyDebt
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	debt, err := s.buildStudentDebt(ctx, student)
	if err != nil {
		return nil, err
	}

	s.cacheSet(ctx, key, debt)
	return debt, nil
}

// MonthlySummary rolls the debt position up across every non-archived
// student. Debts are summed without netting against overpaid students.
func (s *DebtService) MonthlySummary(ctx context.Context) (*models.MonthlyDebtSummary, error) {
	var cached models.MonthlyDebtSummary
	if s.cacheGet(ctx, cacheKeyMonthlySummary, &cached) {
		return &cached, nil
	}

	students, err := s.students.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}

	summary := &models.MonthlyDebtSummary{Students: []models.StudentDebtRow{}}
	for i := range students {
		debt, err := s.buildStudentDebt(ctx, &students[i])
		if err != nil {
			return nil, err
		}
		row := models.StudentDebtRow{
			StudentID:   debt.StudentID,
			StudentName: debt.StudentName,
			MonthlyOwed: debt.TotalMonthlyOwed,
			TotalPaid:   debt.TotalPaid,
			Debt:        debt.DebtAmount,
			Balance:     debt.Balance,
		}
		summary.Students = append(summary.Students, row)
		if debt.OwesMoney {
			summary.TotalDebtAllStudents += debt.DebtAmount
			summary.StudentsWithDebt++
		}
	}

	s.cacheSet(ctx, cacheKeyMonthlySummary, summary)
	return summary, nil
}

// CourseDebts returns the debt position of every student enrolled in one
// course. Unlike the student-level summary, only payments recorded against
// this course count toward the paid total.
func (s *DebtService) CourseDebts(ctx context.Context, courseID int64) (*models.CourseDebtSummary, error) {
	key := fmt.Sprintf(cacheKeyCourseDebtsFmt, courseID)
	var cached models.CourseDebtSummary
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	enrollments, err := s.enrollments.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}

	today := s.now()
	summary := &models.CourseDebtSummary{
		CourseID:   course.ID,
		CourseName: course.Name,
		MonthlyFee: course.MonthlyCost,
		Students:   []models.CourseStudentDebt{},
	}
	for _, e := range enrollments {
		paid, err := s.payments.SumByStudentAndCourse(ctx, e.StudentID, courseID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sum course payments")
		}
		months := billing.MonthsEnrolled(e.EnrollmentDate, today)
		owed := course.MonthlyCost * float64(months)
		balance := paid - owed

		row := models.CourseStudentDebt{
			StudentID:       e.StudentID,
			StudentName:     e.StudentName + " " + e.StudentSurname,
			MonthsEnrolled:  months,
			LessonsAttended: e.LessonsAttended,
			ExpectedLessons: billing.ExpectedLessons(course.LessonsPerMonth, months),
			CourseOwed:      owed,
			CoursePayments:  paid,
			Balance:         balance,
		}
		if balance < 0 {
			row.Debt = -balance
			summary.TotalCourseDebt += row.Debt
			summary.StudentsWithDebt++
		}
		summary.Students = append(summary.Students, row)
	}

	s.cacheSet(ctx, key, summary)
	return summary, nil
}

func (s *DebtService) buildStudentDebt(ctx context.Context, student *models.Student) (*models.StudentMonthlyDebt, error) {
	enrollments, err := s.enrollments.ListByStudent(ctx, student.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	totalPaid, err := s.payments.SumByStudent(ctx, student.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sum payments")
	}

	today := s.now()
	debt := &models.StudentMonthlyDebt{
		StudentID:       student.ID,
		StudentName:     student.FullName(),
		CourseBreakdown: []models.CourseDebtBreakdown{},
		TotalPaid:       totalPaid,
	}
	for _, e := range enrollments {
		months := billing.MonthsEnrolled(e.EnrollmentDate, today)
		owed := e.MonthlyCost * float64(months)
		debt.CourseBreakdown = append(debt.CourseBreakdown, models.CourseDebtBreakdown{
			CourseID:           e.CourseID,
			CourseName:         e.CourseName,
			MonthlyFee:         e.MonthlyCost,
			MonthsEnrolled:     months,
			LessonsAttended:    e.LessonsAttended,
			ExpectedLessons:    billing.ExpectedLessons(e.LessonsPerMonth, months),
			TotalOwedForCourse: owed,
			EnrollmentDate:     e.EnrollmentDate.Format(models.DateLayout),
		})
		debt.TotalMonthlyOwed += owed
	}

	debt.Balance = totalPaid - debt.TotalMonthlyOwed
	if debt.Balance < 0 {
		debt.OwesMoney = true
		debt.DebtAmount = -debt.Balance
	} else {
		debt.OverpaidAmount = debt.Balance
	}
	return debt, nil
}

func (s *DebtService) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	err := s.cache.Get(ctx, key, dest)
	if err == nil {
		return true
	}
	if !errors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Warn("debt cache read failed", zap.String("key", key), zap.Error(err))
	}
	return false
}

func (s *DebtService) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cacheTTL); err != nil {
		s.logger.Warn("debt cache write failed", zap.String("key", key), zap.Error(err))
	}
}
