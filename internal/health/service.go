package health

import (
	"strings"

	"go.uber.org/zap"

	apperrors "github.com/mahmutgunduz1/MyHealth/internal/errors"
	"github.com/mahmutgunduz1/MyHealth/internal/session"
	"github.com/mahmutgunduz1/MyHealth/internal/store"
)

// Service reads and writes the current user's health profile. All queries
// are scoped to the session user.
type Service struct {
	store   *store.Store
	session *session.Manager
	log     *zap.Logger
}

func NewService(st *store.Store, sess *session.Manager, log *zap.Logger) *Service {
	return &Service{store: st, session: sess, log: log}
}

// Profile returns the current user's account record. A missing row is an
// expected condition for freshly-registered users; it is recovered by
// substituting an empty profile carrying the session identity.
func (s *Service) Profile() (*store.UserAccount, error) {
	user, ok := s.session.Current()
	if !ok {
		return nil, apperrors.ErrNoSession
	}

	account, err := s.store.FindUserByID(user.ID)
	if apperrors.IsNotFound(err) {
		s.log.Warn("User row missing, substituting empty profile", zap.Int("user_id", user.ID))
		return &store.UserAccount{
			ID:    user.ID,
			Name:  user.Name,
			Email: user.Email,
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return account, nil
}

// Summary is the derived metric set shown on the profile screen.
type Summary struct {
	BMI         float64
	BMIDefined  bool
	BloodOxygen int
	Account     *store.UserAccount
}

// Summarize loads the profile and derives BMI and the blood-oxygen
// estimate from it.
func (s *Service) Summarize() (*Summary, error) {
	account, err := s.Profile()
	if err != nil {
		return nil, err
	}

	bmi, defined := BMI(account.HeightCm, account.WeightKg)
	return &Summary{
		BMI:         bmi,
		BMIDefined:  defined,
		BloodOxygen: BloodOxygen(account.WaterIntake),
		Account:     account,
	}, nil
}

// SetBasicData validates and writes the core health profile columns for
// the current user. Water and sleep columns are untouched.
func (s *Service) SetBasicData(gender, birthDate string, heightCm int, weightKg float64, activityLevel string) error {
	user, ok := s.session.Current()
	if !ok {
		return apperrors.ErrNoSession
	}

	if err := validateBasicData(gender, birthDate, heightCm, weightKg, activityLevel); err != nil {
		return err
	}

	return s.store.UpdateHealthData(user.ID, gender, birthDate, heightCm, weightKg, activityLevel)
}

// SetFullData validates and writes the complete health profile for the
// current user, deriving sleep hours from the given schedule.
func (s *Service) SetFullData(gender, birthDate string, heightCm int, weightKg float64, activityLevel string, waterIntake int, sleepStart, sleepEnd string) error {
	user, ok := s.session.Current()
	if !ok {
		return apperrors.ErrNoSession
	}

	if err := validateBasicData(gender, birthDate, heightCm, weightKg, activityLevel); err != nil {
		return err
	}
	if waterIntake < 0 {
		return apperrors.New(apperrors.ErrValidation.Code, "water intake cannot be negative")
	}
	sleepHours, ok := SleepHours(sleepStart, sleepEnd)
	if !ok {
		return apperrors.New(apperrors.ErrValidation.Code, "sleep times must be HH:MM")
	}

	return s.store.UpdateHealthDataWithWaterAndSleep(
		user.ID, gender, birthDate, heightCm, weightKg, activityLevel,
		waterIntake, sleepStart, sleepEnd, sleepHours,
	)
}

// UpdateProfile rewrites name and core health fields while preserving the
// rest of the record. This is a blind read-then-write: a concurrent writer
// between the read and the save loses its update. The flows issuing it are
// single-threaded in practice, so the race is tolerated rather than
// guarded with versioning.
func (s *Service) UpdateProfile(name, gender string, heightCm int, weightKg float64, activityLevel string) error {
	user, ok := s.session.Current()
	if !ok {
		return apperrors.ErrNoSession
	}

	if strings.TrimSpace(name) == "" {
		return apperrors.New(apperrors.ErrValidation.Code, "name is required")
	}
	if err := validateBasicData(gender, "-", heightCm, weightKg, activityLevel); err != nil {
		return err
	}

	account, err := s.store.FindUserByID(user.ID)
	if err != nil {
		return err
	}

	account.Name = name
	account.Gender = &gender
	account.HeightCm = &heightCm
	account.WeightKg = &weightKg
	account.ActivityLevel = &activityLevel

	if err := s.store.UpdateUser(account); err != nil {
		return err
	}

	return s.session.UpdateUserName(name)
}

func validateBasicData(gender, birthDate string, heightCm int, weightKg float64, activityLevel string) error {
	switch {
	case strings.TrimSpace(gender) == "":
		return apperrors.New(apperrors.ErrValidation.Code, "gender is required")
	case strings.TrimSpace(birthDate) == "":
		return apperrors.New(apperrors.ErrValidation.Code, "birth date is required")
	case heightCm <= 0:
		return apperrors.New(apperrors.ErrValidation.Code, "height must be positive")
	case weightKg <= 0:
		return apperrors.New(apperrors.ErrValidation.Code, "weight must be positive")
	case strings.TrimSpace(activityLevel) == "":
		return apperrors.New(apperrors.ErrValidation.Code, "activity level is required")
	}
	return nil
}
