package models

// CourseDebtBreakdown is the per-course line of a student's monthly debt.
type CourseDebtBreakdown struct {
	CourseID           int64   `json:"course_id"`
	CourseName         string  `json:"course_name"`
	MonthlyFee         float64 `json:"monthly_fee"`
	MonthsEnrolled     int     `json:"months_enrolled"`
	LessonsAttended    int     `json:"lessons_attended"`
	ExpectedLessons    int     `json:"expected_lessons"`
	TotalOwedForCourse float64 `json:"total_owed_for_course"`
	EnrollmentDate     string  `json:"enrollment_date"`
}

// StudentMonthlyDebt is the full debt summary for one student.
type StudentMonthlyDebt struct {
	StudentID        int64                 `json:"student_id"`
	StudentName      string                `json:"student_name"`
	CourseBreakdown  []CourseDebtBreakdown `json:"course_breakdown"`
	TotalMonthlyOwed float64               `json:"total_monthly_owed"`
	TotalPaid        float64               `json:"total_paid"`
	Balance          float64               `json:"balance"`
	OwesMoney        bool                  `json:"owes_money"`
	DebtAmount       float64               `json:"debt_amount"`
	OverpaidAmount   float64               `json:"overpaid_amount"`
}

// StudentDebtRow is one line of the all-students monthly summary.
type StudentDebtRow struct {
	StudentID   int64   `json:"student_id"`
	StudentName string  `json:"student_name"`
	MonthlyOwed float64 `json:"monthly_owed"`
	TotalPaid   float64 `json:"total_paid"`
	Debt        float64 `json:"debt"`
	Balance     float64 `json:"balance"`
}

// MonthlyDebtSummary rolls StudentDebtRow up across every student. Debts are
// summed without netting against overpaid students.
type MonthlyDebtSummary struct {
	Students             []StudentDebtRow `json:"students"`
	TotalDebtAllStudents float64          `json:"total_debt_all_students"`
	StudentsWithDebt     int              `json:"students_with_debt"`
}

// CourseStudentDebt is one student's course-scoped debt line. Unlike the
// student-level summary, only payments recorded against this course count.
type CourseStudentDebt struct {
	StudentID       int64   `json:"student_id"`
	StudentName     string  `json:"student_name"`
	MonthsEnrolled  int     `json:"months_enrolled"`
	LessonsAttended int     `json:"lessons_attended"`
	ExpectedLessons int     `json:"expected_lessons"`
	CourseOwed      float64 `json:"course_owed"`
	CoursePayments  float64 `json:"course_payments"`
	Balance         float64 `json:"balance"`
	Debt            float64 `json:"debt"`
}

// CourseDebtSummary aggregates debt across every student of one course.
type CourseDebtSummary struct {
	CourseID         int64               `json:"course_id"`
	CourseName       string              `json:"course_name"`
	MonthlyFee       float64             `json:"monthly_fee"`
	Students         []CourseStudentDebt `json:"students"`
	TotalCourseDebt  float64             `json:"total_course_debt"`
	StudentsWithDebt int                 `json:"students_with_debt"`
}

// PaymentReceipt is returned after recording a payment through the billing
// flow; the balance figures are recomputed from the persisted payments.
type PaymentReceipt struct {
	PaymentID      int64   `json:"payment_id"`
	Amount         float64 `json:"amount"`
	Description    string  `json:"description"`
	PaymentDate    string  `json:"payment_date"`
	StudentBalance float64 `json:"student_balance"`
	StillOwes      bool    `json:"still_owes"`
	RemainingDebt  float64 `json:"remaining_debt"`
}

// EnrollmentReceipt is returned after enrolling a student in a course.
type EnrollmentReceipt struct {
	StudentID      int64   `json:"student_id"`
	CourseID       int64   `json:"course_id"`
	CourseName     string  `json:"course_name"`
	EnrollmentDate string  `json:"enrollment_date"`
	MonthlyFee     float64 `json:"monthly_fee"`
}

// LessonAdditionResult reports counters after a manual lesson adjustment.
type LessonAdditionResult struct {
	LessonsAdded          int `json:"lessons_added"`
	CourseLessonsAttended int `json:"course_lessons_attended"`
	TotalLessonsAttended  int `json:"total_lessons_attended"`
}
