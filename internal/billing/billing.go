// Package billing holds the pure calculation core of the monthly fee and
// attendance-driven balance engine. Functions here take entity state and
// return values or change sets; persistence is applied by the repositories.
package billing

import (
	"time"

	"github.com/edcenter/tutorcenter-api/internal/models"
)

// MonthsEnrolled counts calendar months elapsed between the enrollment date
// and today, clamped to a minimum of 1. Day-of-month is ignored: enrolling
// on Jan 31 and checking on Feb 1 already counts as 2.
func MonthsEnrolled(enrolled, today time.Time) int {
	months := (today.Year()-enrolled.Year())*12 + int(today.Month()) - int(enrolled.Month())
	if months < 1 {
		return 1
	}
	return months
}

// OwedAmount is the flat recurring fee owed for one enrollment as of today.
func OwedAmount(monthlyCost float64, enrolled, today time.Time) float64 {
	return monthlyCost * float64(MonthsEnrolled(enrolled, today))
}

// LessonCost is the prorated per-lesson cost debited or credited when an
// attendance event toggles presence.
func LessonCost(course *models.Course) float64 {
	if course == nil || course.LessonsPerMonth <= 0 {
		return 0
	}
	return course.MonthlyCost / float64(course.LessonsPerMonth)
}

// ExpectedLessons is how many lessons the schedule implies over the
// enrollment period.
func ExpectedLessons(lessonsPerMonth, monthsEnrolled int) int {
	return lessonsPerMonth * monthsEnrolled
}
