package store

import (
	"errors"

	"gorm.io/gorm"

	apperrors "github.com/mahmutgunduz1/MyHealth/internal/errors"
)

// ==================== Appointment Methods ====================

// CreateAppointment inserts a new appointment
func (s *Store) CreateAppointment(appt *Appointment) error {
	if err := s.db.Create(appt).Error; err != nil {
		return apperrors.Wrap(err, apperrors.ErrStorage.Code, "failed to create appointment")
	}
	return nil
}

// FindAppointmentByID retrieves an appointment by id
func (s *Store) FindAppointmentByID(id int) (*Appointment, error) {
	var appt Appointment
	err := s.db.First(&appt, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Wrap(err, apperrors.ErrAppointmentNotFound.Code, "appointment lookup by id")
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrStorage.Code, "appointment lookup by id")
	}
	return &appt, nil
}

// AppointmentsForUser retrieves every appointment owned by one user
func (s *Store) AppointmentsForUser(userID int) ([]Appointment, error) {
	var appts []Appointment
	if err := s.db.Where("user_id = ?", userID).Find(&appts).Error; err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrStorage.Code, "appointment list for user")
	}
	return appts, nil
}

// AppointmentsForDate retrieves a user's appointments on one formatted
// date string ("January 2, 2006").
func (s *Store) AppointmentsForDate(userID int, date string) ([]Appointment, error) {
	var appts []Appointment
	if err := s.db.Where("date = ? AND user_id = ?", date, userID).Find(&appts).Error; err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrStorage.Code, "appointment list for date")
	}
	return appts, nil
}

// UpdateAppointment saves the full appointment record. No observed flow
// updates appointments in place; this exists for storage-gateway parity.
func (s *Store) UpdateAppointment(appt *Appointment) error {
	if err := s.db.Save(appt).Error; err != nil {
		return apperrors.Wrap(err, apperrors.ErrStorage.Code, "failed to update appointment")
	}
	return nil
}

// DeleteAppointment removes an appointment
func (s *Store) DeleteAppointment(id int) error {
	if err := s.db.Where("id = ?", id).Delete(&Appointment{}).Error; err != nil {
		return apperrors.Wrap(err, apperrors.ErrStorage.Code, "failed to delete appointment")
	}
	return nil
}

// ==================== ScheduledNotification Methods ====================

// CreateScheduledNotification records a pending reminder
func (s *Store) CreateScheduledNotification(n *ScheduledNotification) error {
	if err := s.db.Create(n).Error; err != nil {
		return apperrors.Wrap(err, apperrors.ErrStorage.Code, "failed to record notification")
	}
	return nil
}

// DeleteScheduledNotification removes a recorded reminder. Deleting an
// unknown id is not an error.
func (s *Store) DeleteScheduledNotification(id string) error {
	if err := s.db.Where("id = ?", id).Delete(&ScheduledNotification{}).Error; err != nil {
		return apperrors.Wrap(err, apperrors.ErrStorage.Code, "failed to delete notification record")
	}
	return nil
}

// PendingScheduledNotifications lists every recorded reminder, soonest
// first. Elapsed entries are included; the caller prunes them.
func (s *Store) PendingScheduledNotifications() ([]ScheduledNotification, error) {
	var ns []ScheduledNotification
	if err := s.db.Order("fire_at ASC").Find(&ns).Error; err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrStorage.Code, "notification record list")
	}
	return ns, nil
}
