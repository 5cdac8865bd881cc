package store

import "time"

// UserAccount represents a registered user and their optional health
// profile. All health fields are independently nullable; none implies
// another is set.
type UserAccount struct {
	ID       int    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name     string `gorm:"column:name" json:"name"`
	Email    string `gorm:"column:email" json:"email"`
	Password string `gorm:"column:password" json:"-"`
	// ConfirmPassword is write-only: persisted at registration, never read
	// back by any flow.
	ConfirmPassword string `gorm:"column:confirm_password" json:"-"`

	Gender        *string  `gorm:"column:gender" json:"gender,omitempty"`
	BirthDate     *string  `gorm:"column:birth_date" json:"birth_date,omitempty"`
	HeightCm      *int     `gorm:"column:height" json:"height,omitempty"`
	WeightKg      *float64 `gorm:"column:weight" json:"weight,omitempty"`
	ActivityLevel *string  `gorm:"column:activity_level" json:"activity_level,omitempty"`
	// WaterIntake is cups per day.
	WaterIntake    *int    `gorm:"column:water_intake" json:"water_intake,omitempty"`
	SleepStartTime *string `gorm:"column:sleep_start_time" json:"sleep_start_time,omitempty"`
	SleepEndTime   *string `gorm:"column:sleep_end_time" json:"sleep_end_time,omitempty"`
	// SleepHours is stored independently and is not guaranteed consistent
	// with the start/end times.
	SleepHours *float64 `gorm:"column:sleep_hours" json:"sleep_hours,omitempty"`
}

// TableName overrides the table name for UserAccount
func (UserAccount) TableName() string {
	return "UserAccount"
}

// Appointment represents a scheduled doctor appointment owned by one user.
// Date is a locale-formatted string ("January 2, 2006"); start and end are
// "15:04" strings. The end time is expected to follow the start time on the
// same date, but the storage layer does not validate it.
type Appointment struct {
	ID         int    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	DoctorName string `gorm:"column:doctor_name" json:"doctor_name"`
	Specialty  string `gorm:"column:specialty" json:"specialty"`
	Date       string `gorm:"column:date" json:"date"`
	StartTime  string `gorm:"column:start_time" json:"start_time"`
	EndTime    string `gorm:"column:end_time" json:"end_time"`
	Location   string `gorm:"column:location" json:"location"`
	// UserID is a foreign key by convention only; no constraint is enforced.
	UserID int `gorm:"column:user_id;index" json:"user_id"`
}

// TableName overrides the table name for Appointment
func (Appointment) TableName() string {
	return "Appointment"
}

// ScheduledNotification records a pending one-shot reminder so it can be
// re-armed after a process restart.
type ScheduledNotification struct {
	ID      string    `gorm:"column:id;primaryKey" json:"id"`
	UserID  int       `gorm:"column:user_id;index" json:"user_id"`
	FireAt  time.Time `gorm:"column:fire_at" json:"fire_at"`
	Title   string    `gorm:"column:title" json:"title"`
	Message string    `gorm:"column:message" json:"message"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName overrides the table name for ScheduledNotification
func (ScheduledNotification) TableName() string {
	return "ScheduledNotification"
}
