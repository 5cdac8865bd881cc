package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mahmutgunduz1/MyHealth/internal/config"
	apperrors "github.com/mahmutgunduz1/MyHealth/internal/errors"
)

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		Storage: config.StorageConfig{
			DataDir:       dir,
			SQLitePath:    filepath.Join(dir, "myhealth.db"),
			BadgerPath:    filepath.Join(dir, "badger"),
			SchemaVersion: 1,
		},
	}
}

func setupTestStore(t *testing.T) *Store {
	st, err := New(testConfig(t), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestStore_UserRoundTrip(t *testing.T) {
	st := setupTestStore(t)

	user := &UserAccount{
		Name:            "Ayse Yilmaz",
		Email:           "ayse@example.com",
		Password:        "secret123",
		ConfirmPassword: "secret123",
	}

	err := st.CreateUser(user)
	require.NoError(t, err)
	assert.Positive(t, user.ID)

	found, err := st.FindUserByEmail("ayse@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)
	assert.Equal(t, "Ayse Yilmaz", found.Name)
	assert.Equal(t, "secret123", found.Password)
	assert.Nil(t, found.HeightCm)
	assert.Nil(t, found.WeightKg)
}

func TestStore_FindUserNotFound(t *testing.T) {
	st := setupTestStore(t)

	_, err := st.FindUserByID(42)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUserNotFound))
	assert.True(t, apperrors.IsNotFound(err))

	_, err = st.FindUserByEmail("nobody@example.com")
	assert.True(t, errors.Is(err, apperrors.ErrUserNotFound))
}

func TestStore_FindUserByCredentials(t *testing.T) {
	st := setupTestStore(t)

	user := &UserAccount{Name: "Mehmet", Email: "mehmet@example.com", Password: "pw", ConfirmPassword: "pw"}
	require.NoError(t, st.CreateUser(user))

	found, err := st.FindUserByCredentials("mehmet@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	_, err = st.FindUserByCredentials("mehmet@example.com", "wrong")
	assert.True(t, errors.Is(err, apperrors.ErrUserNotFound))
}

func TestStore_UpdateHealthData(t *testing.T) {
	st := setupTestStore(t)

	user := &UserAccount{Name: "Zeynep", Email: "zeynep@example.com", Password: "pw", ConfirmPassword: "pw"}
	require.NoError(t, st.CreateUser(user))

	err := st.UpdateHealthData(user.ID, "female", "March 5, 1992", 165, 58.5, "moderate")
	require.NoError(t, err)

	found, err := st.FindUserByID(user.ID)
	require.NoError(t, err)
	require.NotNil(t, found.HeightCm)
	assert.Equal(t, 165, *found.HeightCm)
	require.NotNil(t, found.WeightKg)
	assert.InDelta(t, 58.5, *found.WeightKg, 0.001)
	// Water and sleep columns stay untouched
	assert.Nil(t, found.WaterIntake)
	assert.Nil(t, found.SleepHours)
}

func TestStore_UpdateHealthDataWithWaterAndSleep(t *testing.T) {
	st := setupTestStore(t)

	user := &UserAccount{Name: "Can", Email: "can@example.com", Password: "pw", ConfirmPassword: "pw"}
	require.NoError(t, st.CreateUser(user))

	err := st.UpdateHealthDataWithWaterAndSleep(user.ID, "male", "July 1, 1988", 180, 72.0, "active", 6, "23:00", "07:00", 8.0)
	require.NoError(t, err)

	found, err := st.FindUserByID(user.ID)
	require.NoError(t, err)
	require.NotNil(t, found.WaterIntake)
	assert.Equal(t, 6, *found.WaterIntake)
	require.NotNil(t, found.SleepStartTime)
	assert.Equal(t, "23:00", *found.SleepStartTime)
	require.NotNil(t, found.SleepHours)
	assert.InDelta(t, 8.0, *found.SleepHours, 0.001)
}

func TestStore_AppointmentsByUserAndDate(t *testing.T) {
	st := setupTestStore(t)

	for _, a := range []*Appointment{
		{DoctorName: "Dr. Demir", Specialty: "Cardiology", Date: "May 10, 2026", StartTime: "09:00", EndTime: "10:00", Location: "Clinic A", UserID: 1},
		{DoctorName: "Dr. Kaya", Specialty: "Dermatology", Date: "May 11, 2026", StartTime: "14:00", EndTime: "15:00", Location: "Clinic B", UserID: 1},
		{DoctorName: "Dr. Demir", Specialty: "Cardiology", Date: "May 10, 2026", StartTime: "11:00", EndTime: "12:00", Location: "Clinic A", UserID: 2},
	} {
		require.NoError(t, st.CreateAppointment(a))
	}

	all, err := st.AppointmentsForUser(1)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	byDate, err := st.AppointmentsForDate(1, "May 10, 2026")
	require.NoError(t, err)
	require.Len(t, byDate, 1)
	assert.Equal(t, "09:00", byDate[0].StartTime)
}

func TestStore_DeleteAppointment(t *testing.T) {
	st := setupTestStore(t)

	appt := &Appointment{DoctorName: "Dr. Demir", Specialty: "Cardiology", Date: "May 10, 2026", StartTime: "09:00", EndTime: "10:00", Location: "Clinic A", UserID: 1}
	require.NoError(t, st.CreateAppointment(appt))

	require.NoError(t, st.DeleteAppointment(appt.ID))

	_, err := st.FindAppointmentByID(appt.ID)
	assert.True(t, errors.Is(err, apperrors.ErrAppointmentNotFound))

	// Deleting again is harmless
	require.NoError(t, st.DeleteAppointment(appt.ID))
}

func TestStore_SchemaVersionReset(t *testing.T) {
	cfg := testConfig(t)

	st, err := New(cfg, zap.NewNop())
	require.NoError(t, err)

	user := &UserAccount{Name: "Eski", Email: "eski@example.com", Password: "pw", ConfirmPassword: "pw"}
	require.NoError(t, st.CreateUser(user))
	require.NoError(t, st.Close())

	// Reopen with a newer schema version: destructive reset
	cfg.Storage.SchemaVersion = 2
	st, err = New(cfg, zap.NewNop())
	require.NoError(t, err)
	defer st.Close()

	_, err = st.FindUserByEmail("eski@example.com")
	assert.True(t, errors.Is(err, apperrors.ErrUserNotFound))
}

func TestStore_ScheduledNotifications(t *testing.T) {
	st := setupTestStore(t)

	n := &ScheduledNotification{
		ID:      "appt-7",
		UserID:  1,
		FireAt:  time.Now().Add(time.Hour),
		Title:   "Appointment reminder",
		Message: "Dr. Demir at 09:00",
	}
	require.NoError(t, st.CreateScheduledNotification(n))

	pending, err := st.PendingScheduledNotifications()
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "appt-7", pending[0].ID)

	require.NoError(t, st.DeleteScheduledNotification("appt-7"))
	require.NoError(t, st.DeleteScheduledNotification("appt-7"))

	pending, err = st.PendingScheduledNotifications()
	require.NoError(t, err)
	assert.Empty(t, pending)
}
