package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/edcenter/tutorcenter-api/internal/models"
	appErrors "github.com/edcenter/tutorcenter-api/pkg/errors"
)

type statsStudentReader interface {
	Count(ctx context.Context, archived bool) (int, error)
	SumBalances(ctx context.Context) (float64, error)
}

type statsPaymentReader interface {
	SumForMonth(ctx context.Context, year, month int) (float64, error)
	TotalsByCourse(ctx context.Context) ([]models.CoursePaymentTotal, error)
	TotalsByMonth(ctx context.Context, year int) ([]models.MonthlyPaymentTotal, error)
}

// StatsService answers the dashboard aggregate queries.
type StatsService struct {
	students statsStudentReader
	payments statsPaymentReader
	logger   *zap.Logger
	now      func() time.Time
}

// NewStatsService constructs the stats service.
func NewStatsService(students statsStudentReader, payments statsPaymentReader, logger *zap.Logger) *StatsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsService{students: students, payments: payments, logger: logger, now: time.Now}
}

// General returns the top-level statistics snapshot.
func (s *StatsService) General(ctx context.Context) (*models.Stats, error) {
	totalMoney, err := s.students.SumBalances(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sum balances")
	}
	now := s.now()
	monthlyMoney, err := s.payments.SumForMonth(ctx, now.Year(), int(now.Month()))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sum monthly payments")
	}
	totalStudents, err := s.students.Count(ctx, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count students")
	}
	return &models.Stats{
		TotalMoney:    totalMoney,
		MonthlyMoney:  monthlyMoney,
		TotalStudents: totalStudents,
	}, nil
}

// PaymentsByCourse returns payment sums grouped by course.
func (s *StatsService) PaymentsByCourse(ctx context.Context) ([]models.CoursePaymentTotal, error) {
	totals, err := s.payments.TotalsByCourse(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course totals")
	}
	if totals == nil {
		totals = []models.CoursePaymentTotal{}
	}
	return totals, nil
}

// PaymentsByMonth returns payment sums for every month of one year. Months
// without payments are present with a zero total.
func (s *StatsService) PaymentsByMonth(ctx context.Context, year int) ([]models.MonthlyPaymentTotal, error) {
	if year <= 0 {
		year = s.now().Year()
	}
	totals, err := s.payments.TotalsByMonth(ctx, year)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load monthly totals")
	}
	filled := make([]models.MonthlyPaymentTotal, 12)
	for i := range filled {
		filled[i] = models.MonthlyPaymentTotal{Month: i + 1}
	}
	for _, t := range totals {
		if t.Month >= 1 && t.Month <= 12 {
			filled[t.Month-1].Total = t.Total
		}
	}
	return filled, nil
}
