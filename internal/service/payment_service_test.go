package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edcenter/tutorcenter-api/internal/models"
	appErrors "github.com/edcenter/tutorcenter-api/pkg/errors"
)

type mockPaymentRepo struct {
	payments map[int64]models.Payment
	nextID   int64
	credits  []float64
}

func (m *mockPaymentRepo) FindByID(ctx context.Context, id int64) (*models.Payment, error) {
	if p, ok := m.payments[id]; ok {
		return &p, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockPaymentRepo) List(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, int, error) {
	var out []models.Payment
	for _, p := range m.payments {
		if filter.StudentID > 0 && p.StudentID != filter.StudentID {
			continue
		}
		out = append(out, p)
	}
	return out, len(out), nil
}

func (m *mockPaymentRepo) Create(ctx context.Context, payment *models.Payment) error {
	return m.store(payment)
}

func (m *mockPaymentRepo) CreateWithBalance(ctx context.Context, payment *models.Payment) error {
	if err := m.store(payment); err != nil {
		return err
	}
	m.credits = append(m.credits, payment.Amount)
	return nil
}

func (m *mockPaymentRepo) store(payment *models.Payment) error {
	if m.payments == nil {
		m.payments = make(map[int64]models.Payment)
	}
	m.nextID++
	payment.ID = m.nextID
	m.payments[payment.ID] = *payment
	return nil
}

func (m *mockPaymentRepo) Update(ctx context.Context, payment *models.Payment) error {
	if _, ok := m.payments[payment.ID]; !ok {
		return sql.ErrNoRows
	}
	m.payments[payment.ID] = *payment
	return nil
}

func (m *mockPaymentRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := m.payments[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.payments, id)
	return nil
}

func (m *mockPaymentRepo) SumByStudent(ctx context.Context, studentID int64) (float64, error) {
	var total float64
	for _, p := range m.payments {
		if p.StudentID == studentID {
			total += p.Amount
		}
	}
	return total, nil
}

type mockEnrollmentReader struct {
	byStudent map[int64][]models.EnrollmentDetail
}

func (m *mockEnrollmentReader) ListByStudent(ctx context.Context, studentID int64) ([]models.EnrollmentDetail, error) {
	return m.byStudent[studentID], nil
}

func newPaymentFixture() (*PaymentService, *mockPaymentRepo, *mockCache) {
	payments := &mockPaymentRepo{}
	enrollments := &mockEnrollmentReader{byStudent: map[int64][]models.EnrollmentDetail{
		1: {{
			Enrollment: models.Enrollment{
				ID: 1, StudentID: 1, CourseID: 10,
				EnrollmentDate: time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC),
			},
			CourseName: "Math", MonthlyCost: 150, LessonsPerMonth: 8,
		}},
	}}
	students := &mockStudentReader{students: map[int64]models.Student{
		1: {ID: 1, Name: "Aziz", Surname: "Karimov"},
	}}
	cache := &mockCache{}
	svc := NewPaymentService(payments, enrollments, students, cache, nil, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2024, 11, 5, 0, 0, 0, 0, time.UTC) }
	return svc, payments, cache
}

func TestPaymentRecordReceipt(t *testing.T) {
	svc, payments, cache := newPaymentFixture()

	// Owes 300 over two months; a 100 payment leaves 200 outstanding.
	receipt, err := svc.Record(context.Background(), PaymentRequest{
		Amount:    100,
		Date:      "2024-11-05",
		StudentID: 1,
		CourseID:  10,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), receipt.PaymentID)
	assert.Equal(t, 100.0, receipt.Amount)
	assert.Equal(t, "2024-11-05", receipt.PaymentDate)
	assert.Equal(t, -200.0, receipt.StudentBalance)
	assert.True(t, receipt.StillOwes)
	assert.Equal(t, 200.0, receipt.RemainingDebt)
	assert.Equal(t, []float64{100}, payments.credits)
	assert.Equal(t, []string{"debt:*"}, cache.deletedPatterns)
}

func TestPaymentRecordOverpayment(t *testing.T) {
	svc, _, _ := newPaymentFixture()

	receipt, err := svc.Record(context.Background(), PaymentRequest{
		Amount:    500,
		StudentID: 1,
		CourseID:  10,
	})
	require.NoError(t, err)
	assert.Equal(t, 200.0, receipt.StudentBalance)
	assert.False(t, receipt.StillOwes)
	assert.Zero(t, receipt.RemainingDebt)
}

func TestPaymentRecordRejectsNonPositiveAmount(t *testing.T) {
	svc, _, _ := newPaymentFixture()

	_, err := svc.Record(context.Background(), PaymentRequest{Amount: 0, StudentID: 1, CourseID: 10})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestPaymentRecordUnknownStudent(t *testing.T) {
	svc, _, _ := newPaymentFixture()

	_, err := svc.Record(context.Background(), PaymentRequest{Amount: 100, StudentID: 99, CourseID: 10})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestPaymentDeleteKeepsBalance(t *testing.T) {
	svc, payments, _ := newPaymentFixture()

	receipt, err := svc.Record(context.Background(), PaymentRequest{Amount: 100, StudentID: 1, CourseID: 10})
	require.NoError(t, err)

	creditsBefore := len(payments.credits)
	require.NoError(t, svc.Delete(context.Background(), receipt.PaymentID))
	assert.Len(t, payments.credits, creditsBefore)
	assert.Empty(t, payments.payments)
}

func TestPaymentUpdateMissing(t *testing.T) {
	svc, _, _ := newPaymentFixture()

	_, err := svc.Update(context.Background(), 77, PaymentRequest{Amount: 100, StudentID: 1, CourseID: 10})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
