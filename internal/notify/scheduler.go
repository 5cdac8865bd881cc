// Package notify arranges best-effort local notifications: exact one-shot
// reminders and recurring daily nudges.
package notify

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/mahmutgunduz1/MyHealth/internal/errors"
	"github.com/mahmutgunduz1/MyHealth/internal/metrics"
	"github.com/mahmutgunduz1/MyHealth/internal/store"
)

// Sink receives a notification at delivery time.
type Sink interface {
	Deliver(id, title, message string)
}

// LogSink writes notifications to the logger. It stands in for the
// platform notification surface.
type LogSink struct {
	Log *zap.Logger
}

func (s *LogSink) Deliver(id, title, message string) {
	s.Log.Info("NOTIFICATION",
		zap.String("id", id),
		zap.String("title", title),
		zap.String("message", message),
	)
}

// PermissionChecker reports whether exact scheduling is currently allowed.
// It is consulted at every Schedule call, mirroring a runtime platform
// permission.
type PermissionChecker func() bool

// Scheduler arms one-shot wall-clock notifications. Scheduling without
// permission is a silent no-op: the caller checks CanScheduleExact first
// and surfaces the condition to the user, it is never an error from here.
// Armed notifications are recorded in the store so Restore can re-arm them
// after a process restart.
type Scheduler struct {
	store    *store.Store
	sink     Sink
	canExact PermissionChecker
	log      *zap.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
}

func NewScheduler(st *store.Store, sink Sink, canExact PermissionChecker, log *zap.Logger) *Scheduler {
	return &Scheduler{
		store:    st,
		sink:     sink,
		canExact: canExact,
		log:      log,
		timers:   make(map[string]*time.Timer),
	}
}

// CanScheduleExact exposes the permission check so callers can prompt the
// user before attempting to schedule.
func (s *Scheduler) CanScheduleExact() bool {
	return s.canExact()
}

// Schedule arms a one-shot notification for the given future instant.
// Without permission it does nothing. Re-scheduling an id replaces the
// previous timer.
func (s *Scheduler) Schedule(id string, userID int, at time.Time, title, message string) error {
	if !s.canExact() {
		s.log.Warn("Exact alarm permission absent, skipping schedule", zap.String("id", id))
		return nil
	}

	duration := time.Until(at)
	if duration <= 0 {
		return apperrors.New(apperrors.ErrValidation.Code, fmt.Sprintf("notification time %s is in the past", at.Format(time.RFC3339)))
	}

	record := &store.ScheduledNotification{
		ID:      id,
		UserID:  userID,
		FireAt:  at,
		Title:   title,
		Message: message,
	}
	if err := s.store.DeleteScheduledNotification(id); err != nil {
		return err
	}
	if err := s.store.CreateScheduledNotification(record); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if timer, exists := s.timers[id]; exists {
		timer.Stop()
	}
	s.timers[id] = time.AfterFunc(duration, func() {
		s.fire(id, title, message)
	})

	metrics.RecordNotificationScheduled()
	s.log.Info("Notification scheduled",
		zap.String("id", id),
		zap.Time("fire_at", at),
		zap.String("title", title),
	)
	return nil
}

// Cancel revokes a scheduled notification. Cancelling an id that was
// never scheduled, or already fired, is a no-op.
func (s *Scheduler) Cancel(id string) {
	s.mu.Lock()
	if timer, exists := s.timers[id]; exists {
		timer.Stop()
		delete(s.timers, id)
		metrics.RecordNotificationCancelled()
	}
	s.mu.Unlock()

	if err := s.store.DeleteScheduledNotification(id); err != nil {
		s.log.Warn("Failed to drop notification record", zap.String("id", id), zap.Error(err))
	}
}

// Restore re-arms recorded notifications after a restart. Elapsed entries
// are pruned without firing. Returns the number re-armed.
func (s *Scheduler) Restore() (int, error) {
	pending, err := s.store.PendingScheduledNotifications()
	if err != nil {
		return 0, err
	}

	now := time.Now()
	armed := 0
	for _, n := range pending {
		if !n.FireAt.After(now) {
			if err := s.store.DeleteScheduledNotification(n.ID); err != nil {
				s.log.Warn("Failed to prune elapsed notification", zap.String("id", n.ID), zap.Error(err))
			}
			continue
		}

		n := n
		s.mu.Lock()
		s.timers[n.ID] = time.AfterFunc(time.Until(n.FireAt), func() {
			s.fire(n.ID, n.Title, n.Message)
		})
		s.mu.Unlock()
		armed++
	}

	if armed > 0 {
		s.log.Info("Restored scheduled notifications", zap.Int("count", armed))
	}
	return armed, nil
}

// Close stops every armed timer without firing. Records stay in the store
// for the next Restore.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, timer := range s.timers {
		timer.Stop()
		delete(s.timers, id)
	}
}

func (s *Scheduler) fire(id, title, message string) {
	s.mu.Lock()
	delete(s.timers, id)
	s.mu.Unlock()

	s.sink.Deliver(id, title, message)
	metrics.RecordNotificationDelivered()

	if err := s.store.DeleteScheduledNotification(id); err != nil {
		s.log.Warn("Failed to drop fired notification record", zap.String("id", id), zap.Error(err))
	}
}
