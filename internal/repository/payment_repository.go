package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/edcenter/tutorcenter-api/internal/models"
)

// PaymentRepository persists payments and answers the aggregate queries the
// billing and stats layers depend on.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository constructs the repository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

const paymentColumns = `id, amount, payment_date, student_id, course_id, description`

// FindByID returns a payment by its ID.
func (r *PaymentRepository) FindByID(ctx context.Context, id int64) (*models.Payment, error) {
	query := fmt.Sprintf(`SELECT %s FROM payments WHERE id = $1`, paymentColumns)
	var payment models.Payment
	if err := r.db.GetContext(ctx, &payment, query, id); err != nil {
		return nil, err
	}
	return &payment, nil
}

// List returns payments matching the filter plus the total match count.
func (r *PaymentRepository) List(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, int, error) {
	var conditions []string
	var args []interface{}

	if filter.StudentID > 0 {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.CourseID > 0 {
		conditions = append(conditions, fmt.Sprintf("course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	limit := filter.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	skip := filter.Skip
	if skip < 0 {
		skip = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM payments%s ORDER BY id LIMIT %d OFFSET %d`,
		paymentColumns, clause, limit, skip)
	var payments []models.Payment
	if err := r.db.SelectContext(ctx, &payments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list payments: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM payments"+clause, args...); err != nil {
		return nil, 0, fmt.Errorf("count payments: %w", err)
	}
	return payments, total, nil
}

// Create inserts a payment without touching the student's running balance.
// The billing flow uses CreateWithBalance instead.
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	const query = `INSERT INTO payments (amount, payment_date, student_id, course_id, description)
        VALUES ($1, $2, $3, $4, $5) RETURNING id`
	row := r.db.QueryRowxContext(ctx, query,
		payment.Amount, payment.Date, payment.StudentID, payment.CourseID, payment.Description)
	if err := row.Scan(&payment.ID); err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

// CreateWithBalance inserts the payment and credits the student's running
// balance in one transaction.
func (r *PaymentRepository) CreateWithBalance(ctx context.Context, payment *models.Payment) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin payment: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const insert = `INSERT INTO payments (amount, payment_date, student_id, course_id, description)
        VALUES ($1, $2, $3, $4, $5) RETURNING id`
	row := tx.QueryRowxContext(ctx, insert,
		payment.Amount, payment.Date, payment.StudentID, payment.CourseID, payment.Description)
	if err := row.Scan(&payment.ID); err != nil {
		return fmt.Errorf("create payment: %w", err)
	}

	const credit = `UPDATE students SET balance = balance + $2, updated_at = NOW() WHERE id = $1`
	if _, err := tx.ExecContext(ctx, credit, payment.StudentID, payment.Amount); err != nil {
		return fmt.Errorf("credit student balance: %w", err)
	}

	return tx.Commit()
}

// Update persists payment fields.
func (r *PaymentRepository) Update(ctx context.Context, payment *models.Payment) error {
	const query = `UPDATE payments SET amount = $2, payment_date = $3, student_id = $4, course_id = $5, description = $6
        WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query,
		payment.ID, payment.Amount, payment.Date, payment.StudentID, payment.CourseID, payment.Description)
	if err != nil {
		return fmt.Errorf("update payment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a payment.
func (r *PaymentRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM payments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete payment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SumByStudent totals all payments recorded for the student.
func (r *PaymentRepository) SumByStudent(ctx context.Context, studentID int64) (float64, error) {
	var total float64
	const query = `SELECT COALESCE(SUM(amount), 0) FROM payments WHERE student_id = $1`
	if err := r.db.GetContext(ctx, &total, query, studentID); err != nil {
		return 0, fmt.Errorf("sum student payments: %w", err)
	}
	return total, nil
}

// SumByStudentAndCourse totals the student's payments scoped to one course.
func (r *PaymentRepository) SumByStudentAndCourse(ctx context.Context, studentID, courseID int64) (float64, error) {
	var total float64
	const query = `SELECT COALESCE(SUM(amount), 0) FROM payments WHERE student_id = $1 AND course_id = $2`
	if err := r.db.GetContext(ctx, &total, query, studentID, courseID); err != nil {
		return 0, fmt.Errorf("sum course payments: %w", err)
	}
	return total, nil
}

// SumForMonth totals payments recorded within one calendar month.
func (r *PaymentRepository) SumForMonth(ctx context.Context, year, month int) (float64, error) {
	var total float64
	const query = `SELECT COALESCE(SUM(amount), 0) FROM payments
        WHERE EXTRACT(YEAR FROM payment_date) = $1 AND EXTRACT(MONTH FROM payment_date) = $2`
	if err := r.db.GetContext(ctx, &total, query, year, month); err != nil {
		return 0, fmt.Errorf("sum monthly payments: %w", err)
	}
	return total, nil
}

// TotalsByCourse groups payment sums by course name.
func (r *PaymentRepository) TotalsByCourse(ctx context.Context) ([]models.CoursePaymentTotal, error) {
	const query = `SELECT c.name AS course_name, COALESCE(SUM(p.amount), 0) AS total
        FROM payments p JOIN courses c ON c.id = p.course_id
        GROUP BY c.name ORDER BY c.name`
	var totals []models.CoursePaymentTotal
	if err := r.db.SelectContext(ctx, &totals, query); err != nil {
		return nil, fmt.Errorf("payment totals by course: %w", err)
	}
	return totals, nil
}

// TotalsByMonth groups payment sums by month within one year.
func (r *PaymentRepository) TotalsByMonth(ctx context.Context, year int) ([]models.MonthlyPaymentTotal, error) {
	const query = `SELECT EXTRACT(MONTH FROM payment_date)::int AS month, COALESCE(SUM(amount), 0) AS total
        FROM payments WHERE EXTRACT(YEAR FROM payment_date) = $1
        GROUP BY month ORDER BY month`
	var totals []models.MonthlyPaymentTotal
	if err := r.db.SelectContext(ctx, &totals, query, year); err != nil {
		return nil, fmt.Errorf("payment totals by month: %w", err)
	}
	return totals, nil
}
