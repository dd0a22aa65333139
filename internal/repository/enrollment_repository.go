package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/edcenter/tutorcenter-api/internal/models"
)

// EnrollmentRepository persists student-course enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// FindByStudentAndCourse returns the unique enrollment for the pair.
func (r *EnrollmentRepository) FindByStudentAndCourse(ctx context.Context, studentID, courseID int64) (*models.Enrollment, error) {
	const query = `SELECT id, student_id, course_id, enrollment_date, lessons_attended
        FROM enrollments WHERE student_id = $1 AND course_id = $2`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, studentID, courseID); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// ListByStudent returns the student's enrollments with course billing info.
func (r *EnrollmentRepository) ListByStudent(ctx context.Context, studentID int64) ([]models.EnrollmentDetail, error) {
	const query = `SELECT e.id, e.student_id, e.course_id, e.enrollment_date, e.lessons_attended,
        c.name AS course_name, c.monthly_cost, c.lessons_per_month,
        s.name AS student_name, s.surname AS student_surname
        FROM enrollments e
        JOIN courses c ON c.id = e.course_id
        JOIN students s ON s.id = e.student_id
        WHERE e.student_id = $1 ORDER BY e.id`
	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, studentID); err != nil {
		return nil, fmt.Errorf("list student enrollments: %w", err)
	}
	return enrollments, nil
}

// ListByCourse returns every enrollment in the course with student names.
func (r *EnrollmentRepository) ListByCourse(ctx context.Context, courseID int64) ([]models.EnrollmentDetail, error) {
	const query = `SELECT e.id, e.student_id, e.course_id, e.enrollment_date, e.lessons_attended,
        c.name AS course_name, c.monthly_cost, c.lessons_per_month,
        s.name AS student_name, s.surname AS student_surname
        FROM enrollments e
        JOIN courses c ON c.id = e.course_id
        JOIN students s ON s.id = e.student_id
        WHERE e.course_id = $1 ORDER BY e.id`
	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, courseID); err != nil {
		return nil, fmt.Errorf("list course enrollments: %w", err)
	}
	return enrollments, nil
}

// Create inserts the enrollment and adds the course to the student's
// membership set in one transaction. A duplicate (student, course) pair
// surfaces as a unique violation.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin enrollment: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const insert = `INSERT INTO enrollments (student_id, course_id, enrollment_date, lessons_attended)
        VALUES ($1, $2, $3, $4) RETURNING id`
	row := tx.QueryRowxContext(ctx, insert,
		enrollment.StudentID, enrollment.CourseID, enrollment.EnrollmentDate, enrollment.LessonsAttended)
	if err := row.Scan(&enrollment.ID); err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}

	const membership = `INSERT INTO student_courses (student_id, course_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	if _, err := tx.ExecContext(ctx, membership, enrollment.StudentID, enrollment.CourseID); err != nil {
		return fmt.Errorf("add course membership: %w", err)
	}

	return tx.Commit()
}

// AddLessons adds to the enrollment-scoped and global lesson counters in
// one transaction and returns the updated values. The student's balance is
// deliberately untouched; this is a manual correction path, not billing.
func (r *EnrollmentRepository) AddLessons(ctx context.Context, studentID, courseID int64, count int) (courseLessons, totalLessons int, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("begin add lessons: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const enrollment = `UPDATE enrollments SET lessons_attended = lessons_attended + $3
        WHERE student_id = $1 AND course_id = $2 RETURNING lessons_attended`
	if err := tx.QueryRowxContext(ctx, enrollment, studentID, courseID, count).Scan(&courseLessons); err != nil {
		return 0, 0, err
	}

	const student = `UPDATE students SET lesson_count = lesson_count + $2, updated_at = NOW()
        WHERE id = $1 RETURNING lesson_count`
	if err := tx.QueryRowxContext(ctx, student, studentID, count).Scan(&totalLessons); err != nil {
		return 0, 0, fmt.Errorf("update student lesson count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("commit add lessons: %w", err)
	}
	return courseLessons, totalLessons, nil
}
