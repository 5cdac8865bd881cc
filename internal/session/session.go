// Package session keeps the current-user identity and preference flags in
// the embedded key-value store. It survives process restarts but is not
// safe against concurrent writers; writes are rare and issued from a single
// flow in practice.
package session

import (
	"errors"
	"strconv"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

const (
	keyIsLoggedIn           = "session:isLoggedIn"
	keyID                   = "session:id"
	keyName                 = "session:name"
	keyEmail                = "session:email"
	keyNotificationsEnabled = "session:notificationsEnabled"
	keyRememberMe           = "session:rememberMe"
	keySavedEmail           = "session:savedEmail"
	keySavedPassword        = "session:savedPassword"
)

// User is the identity snapshot kept for the logged-in user.
type User struct {
	ID    int
	Name  string
	Email string
}

// Manager reads and writes session state. Construct one per process and
// inject it; there is no package-level instance.
type Manager struct {
	db  *badger.DB
	log *zap.Logger
}

func NewManager(db *badger.DB, log *zap.Logger) *Manager {
	return &Manager{db: db, log: log}
}

// CreateLoginSession records a successful login or registration. The
// logged-in flag is only ever true with id/name/email present.
func (m *Manager) CreateLoginSession(id int, name, email string) error {
	m.log.Debug("Creating login session", zap.Int("user_id", id), zap.String("email", email))
	return m.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(keyID), []byte(strconv.Itoa(id))); err != nil {
			return err
		}
		if err := txn.Set([]byte(keyName), []byte(name)); err != nil {
			return err
		}
		if err := txn.Set([]byte(keyEmail), []byte(email)); err != nil {
			return err
		}
		return txn.Set([]byte(keyIsLoggedIn), []byte("true"))
	})
}

// IsLoggedIn reports whether a login session exists.
func (m *Manager) IsLoggedIn() bool {
	return m.getBool(keyIsLoggedIn, false)
}

// Current returns the logged-in user's identity, or ok=false when no
// session exists.
func (m *Manager) Current() (User, bool) {
	if !m.IsLoggedIn() {
		return User{}, false
	}
	id, err := strconv.Atoi(m.getString(keyID, "-1"))
	if err != nil || id < 0 {
		return User{}, false
	}
	return User{
		ID:    id,
		Name:  m.getString(keyName, ""),
		Email: m.getString(keyEmail, ""),
	}, true
}

// Logout clears the session. The remember-me cache survives logout by
// design so the login form can be prefilled next time.
func (m *Manager) Logout() error {
	rememberMe := m.RememberMeEnabled()
	savedEmail, savedPassword := m.SavedCredentials()

	err := m.db.Update(func(txn *badger.Txn) error {
		for _, k := range []string{
			keyIsLoggedIn, keyID, keyName, keyEmail,
			keyNotificationsEnabled, keyRememberMe, keySavedEmail, keySavedPassword,
		} {
			if err := txn.Delete([]byte(k)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if rememberMe && savedEmail != "" && savedPassword != "" {
		return m.SetRememberMe(true, savedEmail, savedPassword)
	}
	return nil
}

// UpdateUserName refreshes the cached display name after a profile update.
func (m *Manager) UpdateUserName(name string) error {
	return m.setString(keyName, name)
}

// SetNotificationsEnabled records the notification preference.
func (m *Manager) SetNotificationsEnabled(enabled bool) error {
	return m.setBool(keyNotificationsEnabled, enabled)
}

// NotificationsEnabled returns the notification preference, defaulting to
// off.
func (m *Manager) NotificationsEnabled() bool {
	return m.getBool(keyNotificationsEnabled, false)
}

// SetRememberMe toggles the remember-me feature. Enabling it caches the
// credentials; disabling it drops them.
func (m *Manager) SetRememberMe(enabled bool, email, password string) error {
	return m.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(keyRememberMe), []byte(strconv.FormatBool(enabled))); err != nil {
			return err
		}
		if enabled && email != "" && password != "" {
			if err := txn.Set([]byte(keySavedEmail), []byte(email)); err != nil {
				return err
			}
			return txn.Set([]byte(keySavedPassword), []byte(password))
		}
		if err := txn.Delete([]byte(keySavedEmail)); err != nil {
			return err
		}
		return txn.Delete([]byte(keySavedPassword))
	})
}

// RememberMeEnabled reports whether remember-me is active.
func (m *Manager) RememberMeEnabled() bool {
	return m.getBool(keyRememberMe, false)
}

// SavedCredentials returns the cached email/password pair, empty strings
// when nothing is cached.
func (m *Manager) SavedCredentials() (string, string) {
	return m.getString(keySavedEmail, ""), m.getString(keySavedPassword, "")
}

func (m *Manager) getString(key, fallback string) string {
	var val string
	err := m.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			val = string(v)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return fallback
	}
	if err != nil {
		m.log.Warn("Session read failed", zap.String("key", key), zap.Error(err))
		return fallback
	}
	return val
}

func (m *Manager) setString(key, value string) error {
	return m.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), []byte(value))
	})
}

func (m *Manager) getBool(key string, fallback bool) bool {
	v := m.getString(key, strconv.FormatBool(fallback))
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func (m *Manager) setBool(key string, value bool) error {
	return m.setString(key, strconv.FormatBool(value))
}
