package models

import "time"

// Student is a learner tracked by the center. LessonCount is the number of
// lessons attended across all courses; Balance is the signed running
// monetary balance (negative means the student owes money).
type Student struct {
	ID           int64     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Surname      string    `db:"surname" json:"surname"`
	MiddleName   *string   `db:"middle_name" json:"middle_name,omitempty"`
	StartingDate time.Time `db:"starting_date" json:"starting_date"`
	LessonCount  int       `db:"lesson_count" json:"lesson_count"`
	Balance      float64   `db:"balance" json:"balance"`
	Archived     bool      `db:"archived" json:"archived"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`

	CourseIDs []int64 `db:"-" json:"course_ids"`
}

// FullName renders "Name Surname" the way summary endpoints report it.
func (s Student) FullName() string {
	return s.Name + " " + s.Surname
}

// StudentFilter captures search criteria for listing students.
type StudentFilter struct {
	Name      string
	Surname   string
	CourseID  int64
	CourseIDs []int64 // visibility scoping for teacher accounts
	Archived  bool
	Skip      int
	Limit     int
}
