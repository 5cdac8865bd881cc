package store

import (
	"errors"

	"gorm.io/gorm"

	apperrors "github.com/mahmutgunduz1/MyHealth/internal/errors"
)

// ==================== UserAccount Methods ====================

// CreateUser inserts a new user account. The generated id is written back
// to the struct and is immutable from then on.
func (s *Store) CreateUser(user *UserAccount) error {
	if err := s.db.Create(user).Error; err != nil {
		return apperrors.Wrap(err, apperrors.ErrStorage.Code, "failed to create user")
	}
	return nil
}

// FindUserByID retrieves a user by id. Returns ErrUserNotFound when no row
// matches; a freshly-registered user may legitimately have no health row
// populated yet, so callers treat this as an expected condition.
func (s *Store) FindUserByID(id int) (*UserAccount, error) {
	var user UserAccount
	err := s.db.First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Wrap(err, apperrors.ErrUserNotFound.Code, "user lookup by id")
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrStorage.Code, "user lookup by id")
	}
	return &user, nil
}

// FindUserByEmail retrieves a user by email. Email is unique in practice
// but not enforced as a constraint; the first match wins.
func (s *Store) FindUserByEmail(email string) (*UserAccount, error) {
	var user UserAccount
	err := s.db.First(&user, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Wrap(err, apperrors.ErrUserNotFound.Code, "user lookup by email")
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrStorage.Code, "user lookup by email")
	}
	return &user, nil
}

// FindUserByCredentials retrieves a user matching the email/password pair.
func (s *Store) FindUserByCredentials(email, password string) (*UserAccount, error) {
	var user UserAccount
	err := s.db.First(&user, "email = ? AND password = ?", email, password).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Wrap(err, apperrors.ErrUserNotFound.Code, "credential lookup")
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrStorage.Code, "credential lookup")
	}
	return &user, nil
}

// ListUsers retrieves all user accounts
func (s *Store) ListUsers() ([]UserAccount, error) {
	var users []UserAccount
	if err := s.db.Find(&users).Error; err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrStorage.Code, "user list")
	}
	return users, nil
}

// UpdateUser saves the full user record. All-or-nothing: either every
// column is written or the update fails.
func (s *Store) UpdateUser(user *UserAccount) error {
	if err := s.db.Save(user).Error; err != nil {
		return apperrors.Wrap(err, apperrors.ErrStorage.Code, "failed to update user")
	}
	return nil
}

// DeleteUser removes a user account
func (s *Store) DeleteUser(id int) error {
	if err := s.db.Where("id = ?", id).Delete(&UserAccount{}).Error; err != nil {
		return apperrors.Wrap(err, apperrors.ErrStorage.Code, "failed to delete user")
	}
	return nil
}

// UpdateHealthData writes the basic health profile columns for one user
// without touching water/sleep fields.
func (s *Store) UpdateHealthData(userID int, gender, birthDate string, heightCm int, weightKg float64, activityLevel string) error {
	err := s.db.Model(&UserAccount{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"gender":         gender,
		"birth_date":     birthDate,
		"height":         heightCm,
		"weight":         weightKg,
		"activity_level": activityLevel,
	}).Error
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrStorage.Code, "failed to update health data")
	}
	return nil
}

// UpdateHealthDataWithWaterAndSleep writes the full health profile for one
// user, including water intake and the sleep schedule.
func (s *Store) UpdateHealthDataWithWaterAndSleep(userID int, gender, birthDate string, heightCm int, weightKg float64, activityLevel string, waterIntake int, sleepStart, sleepEnd string, sleepHours float64) error {
	err := s.db.Model(&UserAccount{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"gender":           gender,
		"birth_date":       birthDate,
		"height":           heightCm,
		"weight":           weightKg,
		"activity_level":   activityLevel,
		"water_intake":     waterIntake,
		"sleep_start_time": sleepStart,
		"sleep_end_time":   sleepEnd,
		"sleep_hours":      sleepHours,
	}).Error
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrStorage.Code, "failed to update health data")
	}
	return nil
}
