// Package auth implements the registration, login, and logout flows.
package auth

import (
	"net/mail"
	"strings"

	"go.uber.org/zap"

	apperrors "github.com/mahmutgunduz1/MyHealth/internal/errors"
	"github.com/mahmutgunduz1/MyHealth/internal/metrics"
	"github.com/mahmutgunduz1/MyHealth/internal/session"
	"github.com/mahmutgunduz1/MyHealth/internal/store"
)

// Service owns the account lifecycle flows. Credentials are stored as
// given; login matches on the raw pair.
type Service struct {
	store   *store.Store
	session *session.Manager
	log     *zap.Logger
}

func NewService(st *store.Store, sess *session.Manager, log *zap.Logger) *Service {
	return &Service{store: st, session: sess, log: log}
}

// RegisterInput carries the registration form fields.
type RegisterInput struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
}

// Register validates the input, creates the account, and opens a login
// session for it. Validation failures never reach storage.
func (s *Service) Register(in RegisterInput) (*store.UserAccount, error) {
	if err := validateRegisterInput(in); err != nil {
		return nil, err
	}

	// Email uniqueness is checked here, not enforced by the schema.
	if _, err := s.store.FindUserByEmail(in.Email); err == nil {
		return nil, apperrors.ErrEmailTaken
	} else if !apperrors.IsNotFound(err) {
		return nil, err
	}

	user := &store.UserAccount{
		Name:            in.Name,
		Email:           in.Email,
		Password:        in.Password,
		ConfirmPassword: in.ConfirmPassword,
	}
	if err := s.store.CreateUser(user); err != nil {
		return nil, err
	}

	metrics.RecordRegistration()
	s.log.Info("User registered", zap.Int("user_id", user.ID), zap.String("email", user.Email))

	if err := s.session.CreateLoginSession(user.ID, user.Name, user.Email); err != nil {
		return nil, err
	}
	return user, nil
}

// Login authenticates the credential pair and opens a session. A lookup
// miss surfaces as invalid credentials, never as not-found. When
// rememberMe is set the credentials are cached for the next login form.
func (s *Service) Login(email, password string, rememberMe bool) (*store.UserAccount, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, apperrors.New(apperrors.ErrValidation.Code, "email and password are required")
	}

	user, err := s.store.FindUserByCredentials(email, password)
	if apperrors.IsNotFound(err) {
		metrics.RecordLogin(false)
		return nil, apperrors.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := s.session.CreateLoginSession(user.ID, user.Name, user.Email); err != nil {
		return nil, err
	}

	cachedPassword := ""
	if rememberMe {
		cachedPassword = password
	}
	if err := s.session.SetRememberMe(rememberMe, email, cachedPassword); err != nil {
		return nil, err
	}

	metrics.RecordLogin(true)
	s.log.Info("User logged in", zap.Int("user_id", user.ID), zap.String("email", user.Email))
	return user, nil
}

// Logout clears the session; the remember-me cache survives.
func (s *Service) Logout() error {
	return s.session.Logout()
}

func validateRegisterInput(in RegisterInput) error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return apperrors.New(apperrors.ErrValidation.Code, "name is required")
	case strings.TrimSpace(in.Email) == "":
		return apperrors.New(apperrors.ErrValidation.Code, "email is required")
	case in.Password == "":
		return apperrors.New(apperrors.ErrValidation.Code, "password is required")
	case in.ConfirmPassword == "":
		return apperrors.New(apperrors.ErrValidation.Code, "password confirmation is required")
	}

	if _, err := mail.ParseAddress(in.Email); err != nil {
		return apperrors.New(apperrors.ErrValidation.Code, "invalid email format")
	}
	if in.Password != in.ConfirmPassword {
		return apperrors.New(apperrors.ErrValidation.Code, "passwords do not match")
	}
	return nil
}
