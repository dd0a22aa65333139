package models

import "time"

// Payment is money received from a student for a course.
type Payment struct {
	ID          int64     `db:"id" json:"id"`
	Amount      float64   `db:"amount" json:"amount"`
	Date        time.Time `db:"payment_date" json:"date"`
	StudentID   int64     `db:"student_id" json:"student_id"`
	CourseID    int64     `db:"course_id" json:"course_id"`
	Description string    `db:"description" json:"description"`
}

// PaymentFilter captures criteria for listing payments.
type PaymentFilter struct {
	StudentID int64
	CourseID  int64
	Skip      int
	Limit     int
}
