package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mahmutgunduz1/MyHealth/internal/store"
)

var testNow = time.Date(2026, time.May, 10, 12, 0, 0, 0, time.Local)

func appt(id int, date, start, end string) store.Appointment {
	return store.Appointment{
		ID:         id,
		DoctorName: "Dr. Demir",
		Specialty:  "Cardiology",
		Date:       date,
		StartTime:  start,
		EndTime:    end,
		Location:   "Clinic A",
		UserID:     1,
	}
}

func TestClassify_UpcomingAndPast(t *testing.T) {
	c := NewClassifier(zap.NewNop())

	a := appt(1, "May 10, 2026", "09:00", "10:00")
	b := appt(2, "May 10, 2026", "14:00", "15:00")

	result := c.Classify([]store.Appointment{a, b}, testNow)

	require.NotNil(t, result.Next)
	assert.Equal(t, 2, result.Next.ID)
	assert.Empty(t, result.Later)
	require.Len(t, result.Past, 1)
	assert.Equal(t, 1, result.Past[0].ID)
}

func TestClassify_InProgressIsNotPast(t *testing.T) {
	c := NewClassifier(zap.NewNop())

	// Started at 11:30, ends at 12:30: end instant is not yet past
	ongoing := appt(1, "May 10, 2026", "11:30", "12:30")

	result := c.Classify([]store.Appointment{ongoing}, testNow)

	require.NotNil(t, result.Next)
	assert.Equal(t, 1, result.Next.ID)
	assert.Empty(t, result.Past)
}

func TestClassify_AllPastSortedMostRecentFirst(t *testing.T) {
	c := NewClassifier(zap.NewNop())

	appts := []store.Appointment{
		appt(1, "May 8, 2026", "09:00", "10:00"),
		appt(2, "May 9, 2026", "14:00", "15:00"),
		appt(3, "May 9, 2026", "08:00", "09:00"),
	}

	result := c.Classify(appts, testNow)

	assert.Nil(t, result.Next)
	assert.Empty(t, result.Later)
	require.Len(t, result.Past, 3)
	assert.Equal(t, 2, result.Past[0].ID)
	assert.Equal(t, 3, result.Past[1].ID)
	assert.Equal(t, 1, result.Past[2].ID)
}

func TestClassify_LaterUpcomingKeptAscending(t *testing.T) {
	c := NewClassifier(zap.NewNop())

	appts := []store.Appointment{
		appt(1, "May 12, 2026", "09:00", "10:00"),
		appt(2, "May 10, 2026", "14:00", "15:00"),
		appt(3, "May 11, 2026", "08:00", "09:00"),
	}

	result := c.Classify(appts, testNow)

	require.NotNil(t, result.Next)
	assert.Equal(t, 2, result.Next.ID)
	require.Len(t, result.Later, 2)
	assert.Equal(t, 3, result.Later[0].ID)
	assert.Equal(t, 1, result.Later[1].ID)
}

func TestClassify_TieBrokenByInputOrder(t *testing.T) {
	c := NewClassifier(zap.NewNop())

	first := appt(1, "May 10, 2026", "14:00", "15:00")
	second := appt(2, "May 10, 2026", "14:00", "15:00")

	result := c.Classify([]store.Appointment{first, second}, testNow)

	require.NotNil(t, result.Next)
	assert.Equal(t, 1, result.Next.ID)
}

func TestClassify_UnparsableDateSkippedSilently(t *testing.T) {
	c := NewClassifier(zap.NewNop())

	bad := appt(1, "10/05/2026", "09:00", "10:00")
	badTime := appt(2, "May 10, 2026", "14:00", "half past two")
	good := appt(3, "May 10, 2026", "14:00", "15:00")

	result := c.Classify([]store.Appointment{bad, badTime, good}, testNow)

	require.NotNil(t, result.Next)
	assert.Equal(t, 3, result.Next.ID)
	assert.Empty(t, result.Later)
	assert.Empty(t, result.Past)
}

func TestClassify_EmptyInput(t *testing.T) {
	c := NewClassifier(zap.NewNop())

	result := c.Classify(nil, testNow)

	assert.Nil(t, result.Next)
	assert.Empty(t, result.Later)
	assert.NotNil(t, result.Past)
	assert.Empty(t, result.Past)
}

func TestEarliestForDate_TodayFiltersEndedAppointments(t *testing.T) {
	c := NewClassifier(zap.NewNop())

	appts := []store.Appointment{
		appt(1, "May 10, 2026", "09:00", "10:00"),
		appt(2, "May 10, 2026", "16:00", "17:00"),
		appt(3, "May 10, 2026", "13:00", "14:00"),
	}

	got := c.EarliestForDate(appts, testNow, testNow)

	require.NotNil(t, got)
	assert.Equal(t, 3, got.ID)
}

func TestEarliestForDate_PastDayYieldsNothing(t *testing.T) {
	c := NewClassifier(zap.NewNop())

	appts := []store.Appointment{appt(1, "May 9, 2026", "09:00", "10:00")}
	day := time.Date(2026, time.May, 9, 0, 0, 0, 0, time.Local)

	assert.Nil(t, c.EarliestForDate(appts, day, testNow))
}

func TestEarliestForDate_FutureDayReturnsEarliest(t *testing.T) {
	c := NewClassifier(zap.NewNop())

	appts := []store.Appointment{
		appt(1, "May 12, 2026", "15:00", "16:00"),
		appt(2, "May 12, 2026", "08:30", "09:00"),
	}
	day := time.Date(2026, time.May, 12, 0, 0, 0, 0, time.Local)

	got := c.EarliestForDate(appts, day, testNow)
	require.NotNil(t, got)
	assert.Equal(t, 2, got.ID)
}

func TestEarliestForDate_UnparsableEndTimeKept(t *testing.T) {
	c := NewClassifier(zap.NewNop())

	appts := []store.Appointment{appt(1, "May 10, 2026", "09:00", "??")}

	got := c.EarliestForDate(appts, testNow, testNow)
	require.NotNil(t, got)
	assert.Equal(t, 1, got.ID)
}

func TestEarliestForDate_Empty(t *testing.T) {
	c := NewClassifier(zap.NewNop())
	assert.Nil(t, c.EarliestForDate(nil, testNow, testNow))
}
