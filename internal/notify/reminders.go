package notify

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mahmutgunduz1/MyHealth/internal/config"
	"github.com/mahmutgunduz1/MyHealth/internal/session"
	"github.com/mahmutgunduz1/MyHealth/internal/store"
)

const recommendedGlasses = 8

// ReminderRunner drives the recurring daily reminders: a water nudge at
// the configured hour and a bedtime nudge at the user's sleep start time.
// Recurring reminders go straight to the sink; they do not need the exact
// alarm permission.
type ReminderRunner struct {
	cfg     config.NotificationsConfig
	store   *store.Store
	session *session.Manager
	sink    Sink
	log     *zap.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

func NewReminderRunner(cfg config.NotificationsConfig, st *store.Store, sess *session.Manager, sink Sink, log *zap.Logger) *ReminderRunner {
	return &ReminderRunner{
		cfg:     cfg,
		store:   st,
		session: sess,
		sink:    sink,
		log:     log,
	}
}

// Start registers the cron entries and begins running. The sleep reminder
// is only registered when the signed-in user has a sleep start time on
// record.
func (r *ReminderRunner) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return fmt.Errorf("reminder runner already running")
	}

	c := cron.New()

	waterSpec := "disabled"
	if r.cfg.WaterReminderHour >= 0 {
		waterSpec = fmt.Sprintf("0 %d * * *", r.cfg.WaterReminderHour)
		if _, err := c.AddFunc(waterSpec, r.waterReminder); err != nil {
			return fmt.Errorf("failed to schedule water reminder: %w", err)
		}
	}

	if r.cfg.SleepReminder {
		if spec, ok := r.sleepReminderSpec(); ok {
			if _, err := c.AddFunc(spec, r.sleepReminder); err != nil {
				return fmt.Errorf("failed to schedule sleep reminder: %w", err)
			}
		}
	}

	c.Start()
	r.cron = c
	r.running = true

	r.log.Info("Reminder runner started", zap.String("water_spec", waterSpec))
	return nil
}

// Stop halts the cron scheduler and waits for in-flight reminders.
func (r *ReminderRunner) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	c := r.cron
	r.cron = nil
	r.mu.Unlock()

	<-c.Stop().Done()
	r.log.Info("Reminder runner stopped")
}

// IsRunning returns whether the runner is active.
func (r *ReminderRunner) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// sleepReminderSpec derives a cron spec from the signed-in user's sleep
// start time, e.g. "23:30" becomes "30 23 * * *".
func (r *ReminderRunner) sleepReminderSpec() (string, bool) {
	account, ok := r.currentAccount()
	if !ok || account.SleepStartTime == nil {
		return "", false
	}

	hour, minute, ok := parseClock(*account.SleepStartTime)
	if !ok {
		r.log.Warn("Unparsable sleep start time, skipping sleep reminder",
			zap.String("value", *account.SleepStartTime))
		return "", false
	}
	return fmt.Sprintf("%d %d * * *", minute, hour), true
}

func (r *ReminderRunner) waterReminder() {
	account, ok := r.currentAccount()
	if !ok {
		return
	}

	intake := 0
	if account.WaterIntake != nil {
		intake = *account.WaterIntake
	}
	if intake >= recommendedGlasses {
		return
	}

	message := fmt.Sprintf("You have logged %d of %d glasses today. Time to drink some water!",
		intake, recommendedGlasses)
	r.sink.Deliver("reminder:water", "Water Reminder", message)
}

func (r *ReminderRunner) sleepReminder() {
	if _, ok := r.currentAccount(); !ok {
		return
	}
	r.sink.Deliver("reminder:sleep", "Bedtime", "Your bedtime is here. Put the screen down and rest well.")
}

// currentAccount resolves the signed-in user's account, honoring the
// notification toggle. Reminders fall silent when nobody is signed in or
// notifications are switched off.
func (r *ReminderRunner) currentAccount() (*store.UserAccount, bool) {
	if !r.session.NotificationsEnabled() {
		return nil, false
	}

	user, ok := r.session.Current()
	if !ok {
		return nil, false
	}

	account, err := r.store.FindUserByID(user.ID)
	if err != nil {
		r.log.Warn("Failed to load account for reminder", zap.Int("user_id", user.ID), zap.Error(err))
		return nil, false
	}
	return account, true
}

// parseClock splits a "HH:MM" string into hour and minute.
func parseClock(value string) (int, int, bool) {
	parts := strings.SplitN(value, ":", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, false
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, false
	}
	return hour, minute, true
}
