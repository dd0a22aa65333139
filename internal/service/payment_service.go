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
	"github.com/edcenter/tutorcenter-api/internal/repository"
	appErrors "github.com/edcenter/tutorcenter-api/pkg/errors"
)

type paymentRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Payment, error)
	List(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, int, error)
	Create(ctx context.Context, payment *models.Payment) error
	CreateWithBalance(ctx context.Context, payment *models.Payment) error
	Update(ctx context.Context, payment *models.Payment) error
	Delete(ctx context.Context, id int64) error
	SumByStudent(ctx context.Context, studentID int64) (float64, error)
}

type paymentEnrollmentReader interface {
	ListByStudent(ctx context.Context, studentID int64) ([]models.EnrollmentDetail, error)
}

// PaymentRequest holds payload for creating and updating payments. Date
// defaults to today when omitted.
type PaymentRequest struct {
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	Date        string  `json:"date"`
	StudentID   int64   `json:"student_id" validate:"required,gt=0"`
	CourseID    int64   `json:"course_id" validate:"required,gt=0"`
	Description string  `json:"description"`
}

// PaymentService records money received and keeps the receipt figures in
// sync with the recorded payment history.
type PaymentService struct {
	payments    paymentRepository
	enrollments paymentEnrollmentReader
	students    attendanceStudentReader
	cache       cacheInvalidator
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewPaymentService constructs the payment service.
func NewPaymentService(payments paymentRepository, enrollments paymentEnrollmentReader, students attendanceStudentReader, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *PaymentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{payments: payments, enrollments: enrollments, students: students, cache: cache, validator: validate, logger: logger, now: time.Now}
}

// List returns payments matching the filter plus paging metadata.
func (s *PaymentService) List(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, *models.Pagination, error) {
	payments, total, err := s.payments.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payments")
	}
	if payments == nil {
		payments = []models.Payment{}
	}
	limit := filter.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	skip := filter.Skip
	if skip < 0 {
		skip = 0
	}
	return payments, &models.Pagination{Skip: skip, Limit: limit, Total: total}, nil
}

// Get returns one payment.
func (s *PaymentService) Get(ctx context.Context, id int64) (*models.Payment, error) {
	payment, err := s.payments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}
	return payment, nil
}

// Record inserts the payment, credits the student's running balance, and
// returns a receipt with the debt position recomputed from the full payment
// history rather than the running counter.
func (s *PaymentService) Record(ctx context.Context, req PaymentRequest) (*models.PaymentReceipt, error) {
	payment, err := s.buildPayment(req)
	if err != nil {
		return nil, err
	}
	if err := s.requireStudent(ctx, payment.StudentID); err != nil {
		return nil, err
	}

	if err := s.payments.CreateWithBalance(ctx, payment); err != nil {
		if repository.IsForeignKeyViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student or course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record payment")
	}

	balance, err := s.computeBalance(ctx, payment.StudentID)
	if err != nil {
		return nil, err
	}

	s.invalidateDebtCache(ctx)
	s.logger.Info("payment recorded",
		zap.Int64("payment_id", payment.ID),
		zap.Int64("student_id", payment.StudentID),
		zap.Float64("amount", payment.Amount))

	receipt := &models.PaymentReceipt{
		PaymentID:      payment.ID,
		Amount:         payment.Amount,
		Description:    payment.Description,
		PaymentDate:    payment.Date.Format(models.DateLayout),
		StudentBalance: balance,
		StillOwes:      balance < 0,
	}
	if balance < 0 {
		receipt.RemainingDebt = -balance
	}
	return receipt, nil
}

// Update edits payment fields without adjusting any running balance: the
// receipt figures are always recomputed from the payment history, and the
// running counter is only an attendance-driven approximation.
func (s *PaymentService) Update(ctx context.Context, id int64, req PaymentRequest) (*models.Payment, error) {
	payment, err := s.buildPayment(req)
	if err != nil {
		return nil, err
	}
	payment.ID = id

	if err := s.payments.Update(ctx, payment); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		if repository.IsForeignKeyViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student or course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update payment")
	}
	s.invalidateDebtCache(ctx)
	return payment, nil
}

// Delete removes a payment record. As with Update, the running balance is
// left alone.
func (s *PaymentService) Delete(ctx context.Context, id int64) error {
	if err := s.payments.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete payment")
	}
	s.invalidateDebtCache(ctx)
	return nil
}

func (s *PaymentService) buildPayment(req PaymentRequest) (*models.Payment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}
	date := s.now().UTC().Truncate(24 * time.Hour)
	if req.Date != "" {
		parsed, err := time.Parse(models.DateLayout, req.Date)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
		}
		date = parsed
	}
	return &models.Payment{
		Amount:      req.Amount,
		Date:        date,
		StudentID:   req.StudentID,
		CourseID:    req.CourseID,
		Description: req.Description,
	}, nil
}

// computeBalance derives the student's monetary position from recorded
// payments against the recurring fees owed across all enrollments.
func (s *PaymentService) computeBalance(ctx context.Context, studentID int64) (float64, error) {
	totalPaid, err := s.payments.SumByStudent(ctx, studentID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sum payments")
	}
	enrollments, err := s.enrollments.ListByStudent(ctx, studentID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	today := s.now()
	var totalOwed float64
	for _, e := range enrollments {
		totalOwed += billing.OwedAmount(e.MonthlyCost, e.EnrollmentDate, today)
	}
	return totalPaid - totalOwed, nil
}

func (s *PaymentService) requireStudent(ctx context.Context, studentID int64) error {
	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return nil
}

func (s *PaymentService) invalidateDebtCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "debt:*"); err != nil {
		s.logger.Warn("debt cache invalidation failed", zap.Error(err))
	}
}
