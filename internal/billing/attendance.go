package billing

import "github.com/edcenter/tutorcenter-api/internal/models"

// Change is the set of counter adjustments an attendance check implies.
// GlobalLessonDelta applies to the student's overall lesson count (floored
// at zero when applied), CourseLessonDelta to the enrollment-scoped count,
// BalanceDelta to the student's running monetary balance.
type Change struct {
	GlobalLessonDelta int
	CourseLessonDelta int
	BalanceDelta      float64
}

// IsZero reports whether the change carries no counter adjustment.
func (c Change) IsZero() bool {
	return c.GlobalLessonDelta == 0 && c.CourseLessonDelta == 0 && c.BalanceDelta == 0
}

// ApplyCheck computes the counter adjustments for recording attendance.
// prev is the existing event for the same (date, course) key, nil when the
// check creates a new ledger entry. course is nil when the check is not
// course-scoped or the referenced course no longer exists; in that case the
// ledger still changes but no cost is debited or credited.
func ApplyCheck(prev *models.AttendanceEvent, isAbsent bool, course *models.Course) Change {
	cost := LessonCost(course)

	if prev == nil {
		if isAbsent {
			return Change{}
		}
		change := Change{GlobalLessonDelta: 1}
		if course != nil {
			change.CourseLessonDelta = 1
			change.BalanceDelta = -cost
		}
		return change
	}

	switch {
	case prev.IsAbsent && !isAbsent:
		// absent -> present
		return Change{GlobalLessonDelta: 1, BalanceDelta: -cost}
	case !prev.IsAbsent && isAbsent:
		// present -> absent
		return Change{GlobalLessonDelta: -1, BalanceDelta: cost}
	default:
		// same presence state: reason-only update
		return Change{}
	}
}
