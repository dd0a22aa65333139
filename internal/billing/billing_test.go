package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/edcenter/tutorcenter-api/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestMonthsEnrolledSameMonthIsOne(t *testing.T) {
	assert.Equal(t, 1, MonthsEnrolled(date(2024, time.September, 1), date(2024, time.September, 1)))
	assert.Equal(t, 1, MonthsEnrolled(date(2024, time.September, 2), date(2024, time.September, 30)))
}

func TestMonthsEnrolledIgnoresDayOfMonth(t *testing.T) {
	// enrolling Jan 31 and checking Feb 1 already counts a full month boundary
	assert.Equal(t, 1, MonthsEnrolled(date(2024, time.January, 31), date(2024, time.February, 1)))
	assert.Equal(t, 2, MonthsEnrolled(date(2024, time.January, 31), date(2024, time.March, 1)))
}

func TestMonthsEnrolledAcrossYears(t *testing.T) {
	assert.Equal(t, 12, MonthsEnrolled(date(2023, time.May, 15), date(2024, time.May, 1)))
	assert.Equal(t, 14, MonthsEnrolled(date(2023, time.March, 1), date(2024, time.May, 31)))
}

func TestMonthsEnrolledClampsFutureDates(t *testing.T) {
	assert.Equal(t, 1, MonthsEnrolled(date(2024, time.December, 1), date(2024, time.September, 1)))
}

func TestOwedAmountScenario(t *testing.T) {
	// course cost=150, enrolled 2024-09-01, today 2024-11-05 => 2 months, 300 owed
	owed := OwedAmount(150, date(2024, time.September, 1), date(2024, time.November, 5))
	assert.InDelta(t, 300, owed, 1e-9)
}

func TestOwedAmountMonotonicallyNonDecreasing(t *testing.T) {
	enrolled := date(2024, time.January, 10)
	prev := 0.0
	for today := enrolled; today.Before(date(2025, time.June, 1)); today = today.AddDate(0, 0, 17) {
		owed := OwedAmount(120, enrolled, today)
		assert.GreaterOrEqual(t, owed, prev)
		prev = owed
	}
}

func TestLessonCost(t *testing.T) {
	course := &models.Course{MonthlyCost: 150, LessonsPerMonth: 8}
	assert.InDelta(t, 18.75, LessonCost(course), 1e-9)
	assert.Zero(t, LessonCost(nil))
	assert.Zero(t, LessonCost(&models.Course{MonthlyCost: 100}))
}

func TestExpectedLessons(t *testing.T) {
	assert.Equal(t, 16, ExpectedLessons(8, 2))
}

func TestApplyCheckNewPresentEvent(t *testing.T) {
	course := &models.Course{ID: 2, MonthlyCost: 150, LessonsPerMonth: 8}

	change := ApplyCheck(nil, false, course)

	assert.Equal(t, 1, change.GlobalLessonDelta)
	assert.Equal(t, 1, change.CourseLessonDelta)
	assert.InDelta(t, -18.75, change.BalanceDelta, 1e-9)
}

func TestApplyCheckNewPresentEventWithoutCourse(t *testing.T) {
	// legacy ledger entry without course scoping: count moves, money does not
	change := ApplyCheck(nil, false, nil)

	assert.Equal(t, 1, change.GlobalLessonDelta)
	assert.Equal(t, 0, change.CourseLessonDelta)
	assert.Zero(t, change.BalanceDelta)
}

func TestApplyCheckNewAbsentEventIsNoop(t *testing.T) {
	course := &models.Course{MonthlyCost: 150, LessonsPerMonth: 8}
	assert.True(t, ApplyCheck(nil, true, course).IsZero())
}

func TestApplyCheckToggleRoundTripNetsToZero(t *testing.T) {
	course := &models.Course{MonthlyCost: 150, LessonsPerMonth: 8}
	present := models.AttendanceEvent{IsAbsent: false}
	absent := models.AttendanceEvent{IsAbsent: true}

	toAbsent := ApplyCheck(&present, true, course)
	backToPresent := ApplyCheck(&absent, false, course)

	assert.Equal(t, 0, toAbsent.GlobalLessonDelta+backToPresent.GlobalLessonDelta)
	assert.InDelta(t, 0, toAbsent.BalanceDelta+backToPresent.BalanceDelta, 1e-9)
}

func TestApplyCheckSamePresenceStateIsReasonOnly(t *testing.T) {
	course := &models.Course{MonthlyCost: 150, LessonsPerMonth: 8}

	assert.True(t, ApplyCheck(&models.AttendanceEvent{IsAbsent: false}, false, course).IsZero())
	assert.True(t, ApplyCheck(&models.AttendanceEvent{IsAbsent: true}, true, course).IsZero())
}

func TestApplyCheckTransitionDoesNotTouchCourseLessons(t *testing.T) {
	course := &models.Course{MonthlyCost: 150, LessonsPerMonth: 8}

	change := ApplyCheck(&models.AttendanceEvent{IsAbsent: true}, false, course)

	assert.Equal(t, 1, change.GlobalLessonDelta)
	assert.Equal(t, 0, change.CourseLessonDelta)
}
