package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/edcenter/tutorcenter-api/internal/models"
)

// AttendanceRepository persists the per-student attendance ledger and keeps
// the derived counters consistent with it. Counter adjustments are applied
// in the same transaction as the ledger write.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

const attendanceColumns = `id, student_id, event_date, course_id, is_absent, reason, created_at`

// ListByStudent returns the student's ledger in insertion order.
func (r *AttendanceRepository) ListByStudent(ctx context.Context, studentID int64) ([]models.AttendanceEvent, error) {
	query := fmt.Sprintf(`SELECT %s FROM attendance_events WHERE student_id = $1 ORDER BY id`, attendanceColumns)
	var events []models.AttendanceEvent
	if err := r.db.SelectContext(ctx, &events, query, studentID); err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return events, nil
}

// FindByKey returns the unique event for (student, date, course), where a
// nil course matches legacy events recorded without course scoping.
func (r *AttendanceRepository) FindByKey(ctx context.Context, studentID int64, date time.Time, courseID *int64) (*models.AttendanceEvent, error) {
	query := fmt.Sprintf(`SELECT %s FROM attendance_events
        WHERE student_id = $1 AND event_date = $2 AND course_id IS NOT DISTINCT FROM $3`, attendanceColumns)
	var event models.AttendanceEvent
	if err := r.db.GetContext(ctx, &event, query, studentID, date, courseID); err != nil {
		return nil, err
	}
	return &event, nil
}

// RecordCheck upserts the ledger event and applies the counter deltas in a
// single transaction: the student's global lesson count (floored at zero),
// the running balance, and the enrollment-scoped lesson count when the
// check is course-scoped.
func (r *AttendanceRepository) RecordCheck(ctx context.Context, event *models.AttendanceEvent, globalLessonDelta, courseLessonDelta int, balanceDelta float64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin attendance check: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const upsert = `INSERT INTO attendance_events (student_id, event_date, course_id, is_absent, reason)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (student_id, event_date, COALESCE(course_id, 0))
        DO UPDATE SET is_absent = EXCLUDED.is_absent, reason = EXCLUDED.reason
        RETURNING id, created_at`
	row := tx.QueryRowxContext(ctx, upsert, event.StudentID, event.Date, event.CourseID, event.IsAbsent, event.Reason)
	if err := row.Scan(&event.ID, &event.CreatedAt); err != nil {
		return fmt.Errorf("upsert attendance event: %w", err)
	}

	if globalLessonDelta != 0 || balanceDelta != 0 {
		const counters = `UPDATE students
            SET lesson_count = GREATEST(0, lesson_count + $2), balance = balance + $3, updated_at = NOW()
            WHERE id = $1`
		if _, err := tx.ExecContext(ctx, counters, event.StudentID, globalLessonDelta, balanceDelta); err != nil {
			return fmt.Errorf("adjust student counters: %w", err)
		}
	}

	if courseLessonDelta != 0 && event.CourseID != nil {
		// no-op when the student has no enrollment for the course
		const lessons = `UPDATE enrollments SET lessons_attended = GREATEST(0, lessons_attended + $3)
            WHERE student_id = $1 AND course_id = $2`
		if _, err := tx.ExecContext(ctx, lessons, event.StudentID, *event.CourseID, courseLessonDelta); err != nil {
			return fmt.Errorf("adjust enrollment lessons: %w", err)
		}
	}

	return tx.Commit()
}

// UpdateFields applies a partial update to the unique event. Nil fields are
// left untouched. Returns sql.ErrNoRows when no event matches the key.
func (r *AttendanceRepository) UpdateFields(ctx context.Context, studentID int64, date time.Time, courseID *int64, isAbsent *bool, reason *string) error {
	const query = `UPDATE attendance_events
        SET is_absent = COALESCE($4, is_absent), reason = COALESCE($5, reason)
        WHERE student_id = $1 AND event_date = $2 AND course_id IS NOT DISTINCT FROM $3`
	res, err := r.db.ExecContext(ctx, query, studentID, date, courseID, isAbsent, reason)
	if err != nil {
		return fmt.Errorf("update attendance event: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteByKey removes the unique event. Returns sql.ErrNoRows when no event
// matches the key.
func (r *AttendanceRepository) DeleteByKey(ctx context.Context, studentID int64, date time.Time, courseID *int64) error {
	const query = `DELETE FROM attendance_events
        WHERE student_id = $1 AND event_date = $2 AND course_id IS NOT DISTINCT FROM $3`
	res, err := r.db.ExecContext(ctx, query, studentID, date, courseID)
	if err != nil {
		return fmt.Errorf("delete attendance event: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
