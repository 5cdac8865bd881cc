package notify

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mahmutgunduz1/MyHealth/internal/config"
	apperrors "github.com/mahmutgunduz1/MyHealth/internal/errors"
	"github.com/mahmutgunduz1/MyHealth/internal/session"
	"github.com/mahmutgunduz1/MyHealth/internal/store"
)

type capturedNotification struct {
	ID      string
	Title   string
	Message string
}

// captureSink records deliveries for assertions.
type captureSink struct {
	mu        sync.Mutex
	delivered []capturedNotification
}

func (s *captureSink) Deliver(id, title, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delivered = append(s.delivered, capturedNotification{ID: id, Title: title, Message: message})
}

func (s *captureSink) all() []capturedNotification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]capturedNotification, len(s.delivered))
	copy(out, s.delivered)
	return out
}

func (s *captureSink) waitFor(t *testing.T, count int, timeout time.Duration) []capturedNotification {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if got := s.all(); len(got) >= count {
			return got
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d notifications, got %d", count, len(s.all()))
	return nil
}

func setupTestStore(t *testing.T) *store.Store {
	dir := t.TempDir()
	cfg := &config.Config{
		Storage: config.StorageConfig{
			DataDir:       dir,
			SQLitePath:    filepath.Join(dir, "myhealth.db"),
			BadgerPath:    filepath.Join(dir, "badger"),
			SchemaVersion: 1,
		},
	}
	st, err := store.New(cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func allowExact() bool { return true }
func denyExact() bool  { return false }

func TestScheduler_ScheduleAndFire(t *testing.T) {
	st := setupTestStore(t)
	sink := &captureSink{}
	sched := NewScheduler(st, sink, allowExact, zap.NewNop())
	defer sched.Close()

	err := sched.Schedule("appt-1", 1, time.Now().Add(30*time.Millisecond), "Appointment", "Dr. Kaya at 14:00")
	require.NoError(t, err)

	pending, err := st.PendingScheduledNotifications()
	require.NoError(t, err)
	require.Len(t, pending, 1)

	got := sink.waitFor(t, 1, 2*time.Second)
	assert.Equal(t, "appt-1", got[0].ID)
	assert.Equal(t, "Appointment", got[0].Title)

	// Fired notifications leave no record behind.
	require.Eventually(t, func() bool {
		pending, err := st.PendingScheduledNotifications()
		return err == nil && len(pending) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestScheduler_NoPermissionIsNoOp(t *testing.T) {
	st := setupTestStore(t)
	sink := &captureSink{}
	sched := NewScheduler(st, sink, denyExact, zap.NewNop())
	defer sched.Close()

	err := sched.Schedule("appt-1", 1, time.Now().Add(10*time.Millisecond), "Appointment", "msg")
	require.NoError(t, err)

	pending, err := st.PendingScheduledNotifications()
	require.NoError(t, err)
	assert.Empty(t, pending)

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, sink.all())
	assert.False(t, sched.CanScheduleExact())
}

func TestScheduler_PastTimeRejected(t *testing.T) {
	st := setupTestStore(t)
	sched := NewScheduler(st, &captureSink{}, allowExact, zap.NewNop())
	defer sched.Close()

	err := sched.Schedule("appt-1", 1, time.Now().Add(-time.Minute), "Appointment", "msg")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrValidation.Code, apperrors.GetCode(err))
}

func TestScheduler_CancelUnknownIDIsNoOp(t *testing.T) {
	st := setupTestStore(t)
	sched := NewScheduler(st, &captureSink{}, allowExact, zap.NewNop())
	defer sched.Close()

	// Must not error or panic.
	sched.Cancel("never-scheduled")
	sched.Cancel("never-scheduled")
}

func TestScheduler_CancelStopsDelivery(t *testing.T) {
	st := setupTestStore(t)
	sink := &captureSink{}
	sched := NewScheduler(st, sink, allowExact, zap.NewNop())
	defer sched.Close()

	require.NoError(t, sched.Schedule("appt-1", 1, time.Now().Add(60*time.Millisecond), "Appointment", "msg"))
	sched.Cancel("appt-1")

	pending, err := st.PendingScheduledNotifications()
	require.NoError(t, err)
	assert.Empty(t, pending)

	time.Sleep(120 * time.Millisecond)
	assert.Empty(t, sink.all())
}

func TestScheduler_RescheduleReplacesTimer(t *testing.T) {
	st := setupTestStore(t)
	sink := &captureSink{}
	sched := NewScheduler(st, sink, allowExact, zap.NewNop())
	defer sched.Close()

	require.NoError(t, sched.Schedule("appt-1", 1, time.Now().Add(time.Hour), "Appointment", "old"))
	require.NoError(t, sched.Schedule("appt-1", 1, time.Now().Add(30*time.Millisecond), "Appointment", "new"))

	pending, err := st.PendingScheduledNotifications()
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "new", pending[0].Message)

	got := sink.waitFor(t, 1, 2*time.Second)
	assert.Equal(t, "new", got[0].Message)
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, sink.all(), 1)
}

func TestScheduler_RestoreReArmsFutureAndPrunesElapsed(t *testing.T) {
	st := setupTestStore(t)

	require.NoError(t, st.CreateScheduledNotification(&store.ScheduledNotification{
		ID:      "elapsed",
		UserID:  1,
		FireAt:  time.Now().Add(-time.Hour),
		Title:   "Old",
		Message: "should be pruned",
	}))
	require.NoError(t, st.CreateScheduledNotification(&store.ScheduledNotification{
		ID:      "upcoming",
		UserID:  1,
		FireAt:  time.Now().Add(40 * time.Millisecond),
		Title:   "Appointment",
		Message: "should fire",
	}))

	sink := &captureSink{}
	sched := NewScheduler(st, sink, allowExact, zap.NewNop())
	defer sched.Close()

	armed, err := sched.Restore()
	require.NoError(t, err)
	assert.Equal(t, 1, armed)

	got := sink.waitFor(t, 1, 2*time.Second)
	assert.Equal(t, "upcoming", got[0].ID)

	require.Eventually(t, func() bool {
		pending, err := st.PendingScheduledNotifications()
		return err == nil && len(pending) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestScheduler_CloseStopsTimersButKeepsRecords(t *testing.T) {
	st := setupTestStore(t)
	sink := &captureSink{}
	sched := NewScheduler(st, sink, allowExact, zap.NewNop())

	require.NoError(t, sched.Schedule("appt-1", 1, time.Now().Add(40*time.Millisecond), "Appointment", "msg"))
	sched.Close()

	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, sink.all())

	pending, err := st.PendingScheduledNotifications()
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		value  string
		hour   int
		minute int
		ok     bool
	}{
		{"23:30", 23, 30, true},
		{"00:00", 0, 0, true},
		{"7:05", 7, 5, true},
		{"24:00", 0, 0, false},
		{"12:60", 0, 0, false},
		{"noon", 0, 0, false},
		{"", 0, 0, false},
	}

	for _, tt := range tests {
		hour, minute, ok := parseClock(tt.value)
		assert.Equal(t, tt.ok, ok, "value %q", tt.value)
		if tt.ok {
			assert.Equal(t, tt.hour, hour, "value %q", tt.value)
			assert.Equal(t, tt.minute, minute, "value %q", tt.value)
		}
	}
}

func TestReminderRunner_StartStop(t *testing.T) {
	st := setupTestStore(t)
	sess := session.NewManager(st.Badger(), zap.NewNop())
	sink := &captureSink{}

	runner := NewReminderRunner(config.NotificationsConfig{WaterReminderHour: 10}, st, sess, sink, zap.NewNop())

	require.NoError(t, runner.Start())
	assert.True(t, runner.IsRunning())

	err := runner.Start()
	require.Error(t, err)

	runner.Stop()
	assert.False(t, runner.IsRunning())
	runner.Stop()
}

func TestReminderRunner_WaterReminderSkipsSignedOut(t *testing.T) {
	st := setupTestStore(t)
	sess := session.NewManager(st.Badger(), zap.NewNop())
	sink := &captureSink{}

	runner := NewReminderRunner(config.NotificationsConfig{WaterReminderHour: 10}, st, sess, sink, zap.NewNop())
	runner.waterReminder()
	assert.Empty(t, sink.all())
}

func TestReminderRunner_WaterReminderNudgesLowIntake(t *testing.T) {
	st := setupTestStore(t)
	sess := session.NewManager(st.Badger(), zap.NewNop())
	sink := &captureSink{}

	user := &store.UserAccount{Name: "Ayse", Email: "ayse@example.com", Password: "pw", ConfirmPassword: "pw"}
	require.NoError(t, st.CreateUser(user))
	intake := 3
	user.WaterIntake = &intake
	require.NoError(t, st.UpdateUser(user))
	require.NoError(t, sess.CreateLoginSession(user.ID, user.Name, user.Email))
	require.NoError(t, sess.SetNotificationsEnabled(true))

	runner := NewReminderRunner(config.NotificationsConfig{WaterReminderHour: 10}, st, sess, sink, zap.NewNop())
	runner.waterReminder()

	got := sink.all()
	require.Len(t, got, 1)
	assert.Equal(t, "reminder:water", got[0].ID)
	assert.Contains(t, got[0].Message, "3 of 8")
}

func TestReminderRunner_WaterReminderQuietWhenGoalMet(t *testing.T) {
	st := setupTestStore(t)
	sess := session.NewManager(st.Badger(), zap.NewNop())
	sink := &captureSink{}

	user := &store.UserAccount{Name: "Ayse", Email: "ayse@example.com", Password: "pw", ConfirmPassword: "pw"}
	require.NoError(t, st.CreateUser(user))
	intake := 8
	user.WaterIntake = &intake
	require.NoError(t, st.UpdateUser(user))
	require.NoError(t, sess.CreateLoginSession(user.ID, user.Name, user.Email))
	require.NoError(t, sess.SetNotificationsEnabled(true))

	runner := NewReminderRunner(config.NotificationsConfig{WaterReminderHour: 10}, st, sess, sink, zap.NewNop())
	runner.waterReminder()
	assert.Empty(t, sink.all())
}

func TestReminderRunner_RespectsNotificationToggle(t *testing.T) {
	st := setupTestStore(t)
	sess := session.NewManager(st.Badger(), zap.NewNop())
	sink := &captureSink{}

	user := &store.UserAccount{Name: "Ayse", Email: "ayse@example.com", Password: "pw", ConfirmPassword: "pw"}
	require.NoError(t, st.CreateUser(user))
	require.NoError(t, sess.CreateLoginSession(user.ID, user.Name, user.Email))
	require.NoError(t, sess.SetNotificationsEnabled(false))

	runner := NewReminderRunner(config.NotificationsConfig{WaterReminderHour: 10}, st, sess, sink, zap.NewNop())
	runner.waterReminder()
	runner.sleepReminder()
	assert.Empty(t, sink.all())
}

func TestReminderRunner_SleepReminderSpec(t *testing.T) {
	st := setupTestStore(t)
	sess := session.NewManager(st.Badger(), zap.NewNop())

	user := &store.UserAccount{Name: "Ayse", Email: "ayse@example.com", Password: "pw", ConfirmPassword: "pw"}
	require.NoError(t, st.CreateUser(user))
	start := "23:30"
	user.SleepStartTime = &start
	require.NoError(t, st.UpdateUser(user))
	require.NoError(t, sess.CreateLoginSession(user.ID, user.Name, user.Email))
	require.NoError(t, sess.SetNotificationsEnabled(true))

	runner := NewReminderRunner(config.NotificationsConfig{SleepReminder: true}, st, sess, nil, zap.NewNop())
	spec, ok := runner.sleepReminderSpec()
	require.True(t, ok)
	assert.Equal(t, "30 23 * * *", spec)
}
