// Package schedule partitions a user's appointments by time. All functions
// take the current instant as an argument; nothing here reads the clock or
// touches storage.
package schedule

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/mahmutgunduz1/MyHealth/internal/store"
)

const (
	// DateLayout is the locale-formatted appointment date ("May 10, 2026").
	DateLayout = "January 2, 2006"
	// TimeLayout is the 24-hour appointment time ("14:30").
	TimeLayout = "15:04"
)

// Classification is the result of partitioning an appointment list.
type Classification struct {
	// Next is the not-yet-ended appointment with the earliest start, or nil.
	// Ties go to the first one encountered in the input order.
	Next *store.Appointment
	// Later holds the remaining not-yet-ended appointments in ascending
	// start order.
	Later []store.Appointment
	// Past holds ended appointments, most recent start first.
	Past []store.Appointment
}

// Classifier partitions appointments relative to a given instant.
type Classifier struct {
	log *zap.Logger
}

func NewClassifier(log *zap.Logger) *Classifier {
	return &Classifier{log: log}
}

// Classify splits appts into the next upcoming appointment, the later
// upcoming ones, and the past ones. An appointment is past iff its
// date+end-time instant is strictly before now. Appointments whose date or
// end time cannot be parsed are skipped entirely and logged; the caller
// never sees an error for them.
func (c *Classifier) Classify(appts []store.Appointment, now time.Time) Classification {
	var result Classification
	if len(appts) == 0 {
		result.Past = []store.Appointment{}
		return result
	}

	var upcoming []store.Appointment
	past := []store.Appointment{}

	for _, appt := range appts {
		end, err := combine(appt.Date, appt.EndTime, now.Location())
		if err != nil {
			c.log.Warn("Skipping appointment with unparsable date/time",
				zap.Int("appointment_id", appt.ID),
				zap.String("date", appt.Date),
				zap.String("end_time", appt.EndTime),
				zap.Error(err),
			)
			continue
		}

		if end.Before(now) {
			past = append(past, appt)
		} else {
			upcoming = append(upcoming, appt)
		}
	}

	sortByStart(upcoming, now.Location(), true)
	sortByStart(past, now.Location(), false)

	if len(upcoming) > 0 {
		result.Next = &upcoming[0]
		result.Later = upcoming[1:]
	}
	result.Past = past
	return result
}

// EarliestForDate returns the single soonest appointment among appts for
// the given calendar day, or nil. When day is today, only appointments
// whose end time has not passed qualify; an unparsable end time counts as
// still valid. Past days yield nothing; future days consider everything.
func (c *Classifier) EarliestForDate(appts []store.Appointment, day time.Time, now time.Time) *store.Appointment {
	if len(appts) == 0 {
		return nil
	}

	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, now.Location())
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var valid []store.Appointment
	switch {
	case dayStart.Equal(todayStart):
		for _, appt := range appts {
			end, err := time.Parse(TimeLayout, appt.EndTime)
			if err != nil {
				c.log.Warn("Unparsable end time, keeping appointment",
					zap.Int("appointment_id", appt.ID),
					zap.String("end_time", appt.EndTime),
				)
				valid = append(valid, appt)
				continue
			}
			nowClock := now.Hour()*60 + now.Minute()
			endClock := end.Hour()*60 + end.Minute()
			if endClock > nowClock {
				valid = append(valid, appt)
			}
		}
	case dayStart.Before(todayStart):
		return nil
	default:
		valid = appts
	}

	if len(valid) == 0 {
		return nil
	}

	sorted := make([]store.Appointment, len(valid))
	copy(sorted, valid)
	sort.SliceStable(sorted, func(i, j int) bool {
		ti, erri := time.Parse(TimeLayout, sorted[i].StartTime)
		tj, errj := time.Parse(TimeLayout, sorted[j].StartTime)
		if erri != nil || errj != nil {
			// Unparsable keys keep their relative order
			return false
		}
		return ti.Before(tj)
	})
	return &sorted[0]
}

// combine merges a formatted date and a clock time into one instant.
func combine(date, clock string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, date, loc)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(TimeLayout, clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), 0, 0, loc), nil
}

// sortByStart orders appts by their date+start-time instant. Entries whose
// start cannot be parsed are treated as having no sort key and keep their
// relative position.
func sortByStart(appts []store.Appointment, loc *time.Location, ascending bool) {
	sort.SliceStable(appts, func(i, j int) bool {
		ti, erri := combine(appts[i].Date, appts[i].StartTime, loc)
		tj, errj := combine(appts[j].Date, appts[j].StartTime, loc)
		if erri != nil || errj != nil {
			return false
		}
		if ascending {
			return ti.Before(tj)
		}
		return ti.After(tj)
	})
}
