package models

import "time"

// AttendanceEvent is a per-date, per-course record of whether a student was
// present. CourseID is nullable for ledger entries created before attendance
// became course-scoped. Within one student's ledger at most one event exists
// per (date, course) key.
type AttendanceEvent struct {
	ID        int64     `db:"id" json:"id"`
	StudentID int64     `db:"student_id" json:"student_id"`
	Date      time.Time `db:"event_date" json:"date"`
	CourseID  *int64    `db:"course_id" json:"course_id,omitempty"`
	IsAbsent  bool      `db:"is_absent" json:"is_absent"`
	Reason    string    `db:"reason" json:"reason"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
