// Package health derives display metrics from the stored profile.
package health

import (
	"math"
	"time"
)

// bloodOxygenDefault is shown when no water intake has been recorded.
const bloodOxygenDefault = 95

// BMI computes the body mass index from height in centimeters and weight
// in kilograms, rounded to one decimal place. ok is false when either
// value is absent or height is not positive; no value is produced then.
func BMI(heightCm *int, weightKg *float64) (float64, bool) {
	if heightCm == nil || weightKg == nil || *heightCm <= 0 {
		return 0, false
	}
	meters := float64(*heightCm) / 100.0
	bmi := *weightKg / (meters * meters)
	return math.Round(bmi*10) / 10, true
}

// BloodOxygen produces the SpO2 display estimate from daily water intake
// in cups. This is a cosmetic heuristic, not a measurement: base 95, plus
// a bonus scaling linearly up to 5 as intake approaches 8 cups, capped at
// 100. A nil intake yields the fixed default, not a computed value.
func BloodOxygen(waterIntake *int) int {
	if waterIntake == nil {
		return bloodOxygenDefault
	}

	intake := *waterIntake
	var bonus int
	switch {
	case intake <= 0:
		bonus = 0
	case intake >= 8:
		bonus = 5
	default:
		bonus = int(float64(intake) / 8 * 5)
	}

	level := bloodOxygenDefault + bonus
	if level > 100 {
		level = 100
	}
	return level
}

// SleepHours computes the duration in hours between two "HH:MM" clock
// times, rolling over midnight when the end precedes the start. ok is
// false when either time cannot be parsed.
func SleepHours(start, end string) (float64, bool) {
	s, err := time.Parse("15:04", start)
	if err != nil {
		return 0, false
	}
	e, err := time.Parse("15:04", end)
	if err != nil {
		return 0, false
	}

	minutes := (e.Hour()*60 + e.Minute()) - (s.Hour()*60 + s.Minute())
	if minutes < 0 {
		minutes += 24 * 60
	}
	return float64(minutes) / 60.0, true
}
