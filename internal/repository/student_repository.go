package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/edcenter/tutorcenter-api/internal/models"
)

// StudentRepository handles persistence of students and their course
// membership set.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentColumns = `id, name, surname, middle_name, starting_date, lesson_count, balance, archived, created_at, updated_at`

// FindByID returns a student by ID regardless of archive state.
func (r *StudentRepository) FindByID(ctx context.Context, id int64) (*models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students WHERE id = $1`, studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// List returns students matching the filter plus the total match count.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	conditions := []string{"s.archived = $1"}
	args := []interface{}{filter.Archived}
	joins := ""

	if filter.Name != "" {
		conditions = append(conditions, fmt.Sprintf("s.name ILIKE $%d", len(args)+1))
		args = append(args, "%"+filter.Name+"%")
	}
	if filter.Surname != "" {
		conditions = append(conditions, fmt.Sprintf("s.surname ILIKE $%d", len(args)+1))
		args = append(args, "%"+filter.Surname+"%")
	}
	if filter.CourseID > 0 {
		joins = " JOIN student_courses sc ON sc.student_id = s.id"
		conditions = append(conditions, fmt.Sprintf("sc.course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if len(filter.CourseIDs) > 0 {
		conditions = append(conditions, fmt.Sprintf(
			"s.id IN (SELECT student_id FROM student_courses WHERE course_id = ANY($%d))", len(args)+1))
		args = append(args, pq.Array(filter.CourseIDs))
	}

	clause := " WHERE " + strings.Join(conditions, " AND ")

	limit := filter.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	skip := filter.Skip
	if skip < 0 {
		skip = 0
	}

	query := fmt.Sprintf(`SELECT DISTINCT s.id, s.name, s.surname, s.middle_name, s.starting_date,
        s.lesson_count, s.balance, s.archived, s.created_at, s.updated_at
        FROM students s%s%s ORDER BY s.id LIMIT %d OFFSET %d`, joins, clause, limit, skip)

	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(DISTINCT s.id) FROM students s%s%s", joins, clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// ListAll returns every non-archived student, used by summary rollups.
func (r *StudentRepository) ListAll(ctx context.Context) ([]models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students WHERE archived = FALSE ORDER BY id`, studentColumns)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query); err != nil {
		return nil, fmt.Errorf("list all students: %w", err)
	}
	return students, nil
}

// Create inserts the student and assigns the generated ID.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	const query = `INSERT INTO students (name, surname, middle_name, starting_date, lesson_count, balance, archived)
        VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id, created_at, updated_at`
	row := r.db.QueryRowxContext(ctx, query,
		student.Name, student.Surname, student.MiddleName, student.StartingDate,
		student.LessonCount, student.Balance, student.Archived)
	if err := row.Scan(&student.ID, &student.CreatedAt, &student.UpdatedAt); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update persists mutable student fields.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	const query = `UPDATE students SET name = $2, surname = $3, middle_name = $4, starting_date = $5,
        lesson_count = $6, balance = $7, archived = $8, updated_at = NOW() WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, student.ID,
		student.Name, student.Surname, student.MiddleName, student.StartingDate,
		student.LessonCount, student.Balance, student.Archived)
	if err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Archive flags the student as archived without removing any records.
func (r *StudentRepository) Archive(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE students SET archived = TRUE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("archive student: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// HardDelete removes the student row. Enrollments, attendance events and
// course memberships cascade; payments restrict and surface as a foreign
// key violation.
func (r *StudentRepository) HardDelete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListCourseIDs returns the student's course membership set.
func (r *StudentRepository) ListCourseIDs(ctx context.Context, studentID int64) ([]int64, error) {
	var ids []int64
	const query = `SELECT course_id FROM student_courses WHERE student_id = $1 ORDER BY course_id`
	if err := r.db.SelectContext(ctx, &ids, query, studentID); err != nil {
		return nil, fmt.Errorf("list student courses: %w", err)
	}
	return ids, nil
}

// ReplaceCourses rewrites the student's course membership set.
func (r *StudentRepository) ReplaceCourses(ctx context.Context, studentID int64, courseIDs []int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace courses: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM student_courses WHERE student_id = $1`, studentID); err != nil {
		return fmt.Errorf("clear student courses: %w", err)
	}
	for _, courseID := range courseIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO student_courses (student_id, course_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			studentID, courseID); err != nil {
			return fmt.Errorf("assign student course: %w", err)
		}
	}
	return tx.Commit()
}

// Count returns the number of students in the requested archive state.
func (r *StudentRepository) Count(ctx context.Context, archived bool) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM students WHERE archived = $1`, archived); err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return total, nil
}

// SumBalances totals the running balances across all students.
func (r *StudentRepository) SumBalances(ctx context.Context) (float64, error) {
	var total float64
	if err := r.db.GetContext(ctx, &total, `SELECT COALESCE(SUM(balance), 0) FROM students`); err != nil {
		return 0, fmt.Errorf("sum student balances: %w", err)
	}
	return total, nil
}
