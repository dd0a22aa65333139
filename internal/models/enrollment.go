package models

import "time"

// Enrollment links a student to a course and starts the recurring monthly
// fee obligation. LessonsAttended is scoped to this course, independent of
// the student's global lesson count. At most one enrollment exists per
// (student, course) pair.
type Enrollment struct {
	ID              int64     `db:"id" json:"id"`
	StudentID       int64     `db:"student_id" json:"student_id"`
	CourseID        int64     `db:"course_id" json:"course_id"`
	EnrollmentDate  time.Time `db:"enrollment_date" json:"enrollment_date"`
	LessonsAttended int       `db:"lessons_attended" json:"lessons_attended"`
}

// EnrollmentDetail joins the enrollment with its course billing parameters
// and the student's name for summary reporting.
type EnrollmentDetail struct {
	Enrollment
	CourseName      string  `db:"course_name" json:"course_name"`
	MonthlyCost     float64 `db:"monthly_cost" json:"monthly_cost"`
	LessonsPerMonth int     `db:"lessons_per_month" json:"lessons_per_month"`
	StudentName     string  `db:"student_name" json:"student_name"`
	StudentSurname  string  `db:"student_surname" json:"student_surname"`
}
