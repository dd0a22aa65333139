package models

// Stats is the general statistics snapshot. TotalMoney mirrors the sum of
// student running balances; Unpaid fields are kept for wire compatibility
// with the historical dashboard and are always zero.
type Stats struct {
	TotalMoney    float64 `json:"total_money"`
	MonthlyMoney  float64 `json:"monthly_money"`
	Unpaid        float64 `json:"unpaid"`
	MonthlyUnpaid float64 `json:"monthly_unpaid"`
	TotalStudents int     `json:"total_students"`
}

// CoursePaymentTotal is a payment sum grouped by course.
type CoursePaymentTotal struct {
	CourseName string  `db:"course_name" json:"course_name"`
	Total      float64 `db:"total" json:"total"`
}

// MonthlyPaymentTotal is a payment sum for one calendar month.
type MonthlyPaymentTotal struct {
	Month int     `db:"month" json:"month"`
	Total float64 `db:"total" json:"total"`
}
