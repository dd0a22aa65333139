package models

import "github.com/lib/pq"

// Weekday names accepted for course schedules.
var ValidWeekDays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// Course is a recurring class with a flat monthly fee.
type Course struct {
	ID              int64          `db:"id" json:"id"`
	Name            string         `db:"name" json:"name"`
	WeekDays        pq.StringArray `db:"week_days" json:"week_days"`
	LessonsPerMonth int            `db:"lessons_per_month" json:"lessons_per_month"`
	MonthlyCost     float64        `db:"monthly_cost" json:"monthly_cost"`
}

// IsValidWeekDay reports whether the name is one of the seven weekdays.
func IsValidWeekDay(day string) bool {
	for _, d := range ValidWeekDays {
		if d == day {
			return true
		}
	}
	return false
}
