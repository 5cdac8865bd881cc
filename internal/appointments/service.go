// Package appointments implements the scheduling flows: adding,
// listing, calendar lookup, and cancellation.
package appointments

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/mahmutgunduz1/MyHealth/internal/errors"
	"github.com/mahmutgunduz1/MyHealth/internal/gateway"
	"github.com/mahmutgunduz1/MyHealth/internal/schedule"
	"github.com/mahmutgunduz1/MyHealth/internal/session"
	"github.com/mahmutgunduz1/MyHealth/internal/store"
)

// Service owns the appointment flows for the session user. Storage reads
// and writes run on the dispatcher's worker pool; each call blocks only
// its own goroutine and honors its context.
type Service struct {
	store      *store.Store
	session    *session.Manager
	dispatcher *gateway.Dispatcher
	classifier *schedule.Classifier
	log        *zap.Logger
	now        func() time.Time
}

func NewService(st *store.Store, sess *session.Manager, d *gateway.Dispatcher, log *zap.Logger) *Service {
	return &Service{
		store:      st,
		session:    sess,
		dispatcher: d,
		classifier: schedule.NewClassifier(log),
		log:        log,
		now:        time.Now,
	}
}

// WithClock overrides the clock, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// AddInput carries the add-appointment form fields.
type AddInput struct {
	DoctorName string
	Specialty  string
	Date       string // "January 2, 2006"
	StartTime  string // "15:04"
	EndTime    string // "15:04"
	Location   string
}

// Add validates and stores a new appointment for the session user.
func (s *Service) Add(ctx context.Context, in AddInput) (*store.Appointment, error) {
	user, ok := s.session.Current()
	if !ok {
		return nil, apperrors.ErrNoSession
	}

	if err := validateAddInput(in); err != nil {
		return nil, err
	}

	appt := &store.Appointment{
		DoctorName: in.DoctorName,
		Specialty:  in.Specialty,
		Date:       in.Date,
		StartTime:  in.StartTime,
		EndTime:    in.EndTime,
		Location:   in.Location,
		UserID:     user.ID,
	}

	_, err := gateway.Await(ctx, gateway.Go(ctx, s.dispatcher, "appointment.create", func() (struct{}, error) {
		return struct{}{}, s.store.CreateAppointment(appt)
	}))
	if err != nil {
		return nil, err
	}

	s.log.Info("Appointment added",
		zap.Int("appointment_id", appt.ID),
		zap.Int("user_id", user.ID),
		zap.String("date", appt.Date),
	)
	return appt, nil
}

// Overview loads every appointment of the session user and partitions it
// into next / later / past relative to the current instant.
func (s *Service) Overview(ctx context.Context) (schedule.Classification, error) {
	user, ok := s.session.Current()
	if !ok {
		return schedule.Classification{}, apperrors.ErrNoSession
	}

	appts, err := gateway.Await(ctx, gateway.Go(ctx, s.dispatcher, "appointment.list", func() ([]store.Appointment, error) {
		return s.store.AppointmentsForUser(user.ID)
	}))
	if err != nil {
		return schedule.Classification{}, err
	}

	return s.classifier.Classify(appts, s.now()), nil
}

// ForDate returns the single soonest appointment on the given calendar
// day, or nil. For today, appointments that already ended are skipped.
func (s *Service) ForDate(ctx context.Context, day time.Time) (*store.Appointment, error) {
	user, ok := s.session.Current()
	if !ok {
		return nil, apperrors.ErrNoSession
	}

	formatted := day.Format(schedule.DateLayout)
	appts, err := gateway.Await(ctx, gateway.Go(ctx, s.dispatcher, "appointment.for_date", func() ([]store.Appointment, error) {
		return s.store.AppointmentsForDate(user.ID, formatted)
	}))
	if err != nil {
		return nil, err
	}

	return s.classifier.EarliestForDate(appts, day, s.now()), nil
}

// Details fetches one appointment by id.
func (s *Service) Details(ctx context.Context, id int) (*store.Appointment, error) {
	return gateway.Await(ctx, gateway.Go(ctx, s.dispatcher, "appointment.find", func() (*store.Appointment, error) {
		return s.store.FindAppointmentByID(id)
	}))
}

// Cancel removes an appointment. The find-then-delete pair is issued
// blindly, mirroring how every flow mutates this table.
func (s *Service) Cancel(ctx context.Context, id int) error {
	_, err := gateway.Await(ctx, gateway.Go(ctx, s.dispatcher, "appointment.cancel", func() (struct{}, error) {
		appt, err := s.store.FindAppointmentByID(id)
		if err != nil {
			return struct{}{}, err
		}
		return struct{}{}, s.store.DeleteAppointment(appt.ID)
	}))
	if err != nil {
		return err
	}

	s.log.Info("Appointment cancelled", zap.Int("appointment_id", id))
	return nil
}

func validateAddInput(in AddInput) error {
	switch {
	case strings.TrimSpace(in.DoctorName) == "":
		return apperrors.New(apperrors.ErrValidation.Code, "doctor name is required")
	case strings.TrimSpace(in.Specialty) == "":
		return apperrors.New(apperrors.ErrValidation.Code, "specialty is required")
	case strings.TrimSpace(in.Location) == "":
		return apperrors.New(apperrors.ErrValidation.Code, "location is required")
	}

	if _, err := time.Parse(schedule.DateLayout, in.Date); err != nil {
		return apperrors.New(apperrors.ErrValidation.Code, "date must look like \"May 10, 2026\"", err)
	}
	start, err := time.Parse(schedule.TimeLayout, in.StartTime)
	if err != nil {
		return apperrors.New(apperrors.ErrValidation.Code, "start time must be HH:MM", err)
	}
	end, err := time.Parse(schedule.TimeLayout, in.EndTime)
	if err != nil {
		return apperrors.New(apperrors.ErrValidation.Code, "end time must be HH:MM", err)
	}
	if !end.After(start) {
		return apperrors.New(apperrors.ErrValidation.Code, "end time must be after start time")
	}
	return nil
}
