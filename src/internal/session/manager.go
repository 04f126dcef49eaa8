package session

import (
	"context"
	"fmt"
	"sync"

	"sigea-portal-svc/src/internal/models"

	"github.com/sirupsen/logrus"
)

// Manager holds the authentication state of one browser session: the raw
// token and the user derived from it. It is the single writer of that
// session's persisted keys.
type Manager struct {
	mu        sync.RWMutex
	store     Store
	sessionID string
	token     *string
	user      *User
}

func NewManager(store Store, sessionID string) *Manager {
	return &Manager{store: store, sessionID: sessionID}
}

// Bootstrap loads the persisted session. Equivalent to a first CheckAuth.
func (m *Manager) Bootstrap(ctx context.Context) error {
	return m.CheckAuth(ctx)
}

// CheckAuth re-reads the persisted token and user. A token that cannot be
// decoded is kept; only the user is left unset.
func (m *Manager) CheckAuth(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	token, found, err := m.store.Get(ctx, m.sessionID, TokenKey)
	if err != nil {
		return fmt.Errorf("failed to read session token: %w", err)
	}
	if !found || token == "" {
		m.token = nil
		m.user = nil
		return nil
	}

	m.token = &token
	m.user = m.cachedUser(ctx)
	if m.user != nil {
		return nil
	}

	user, err := DecodeToken(token)
	if err != nil {
		logrus.WithError(err).WithField("session_id", m.sessionID).Warn("Cannot decode session token, continuing without user")
		return nil
	}

	m.user = user
	return nil
}

func (m *Manager) cachedUser(ctx context.Context) *User {
	raw, found, err := m.store.Get(ctx, m.sessionID, UserKey)
	if err != nil {
		logrus.WithError(err).WithField("session_id", m.sessionID).Warn("Cannot read cached user")
		return nil
	}
	if !found || raw == "" {
		return nil
	}

	user, err := decodeUser(raw)
	if err != nil {
		logrus.WithError(err).WithField("session_id", m.sessionID).Warn("Discarding unreadable cached user")
		return nil
	}
	if user.Email == "" && user.UserID == "" {
		return nil
	}
	return user
}

// Login persists a fresh token and the user derived from it. A token that
// cannot be decoded is rejected.
func (m *Manager) Login(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, models.ErrSessionInvalid
	}

	user, err := DecodeToken(token)
	if err != nil {
		return nil, err
	}

	encoded, err := encodeUser(user)
	if err != nil {
		return nil, fmt.Errorf("failed to encode user: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Set(ctx, m.sessionID, TokenKey, token); err != nil {
		return nil, fmt.Errorf("failed to persist token: %w", err)
	}
	if err := m.store.Set(ctx, m.sessionID, UserKey, encoded); err != nil {
		return nil, fmt.Errorf("failed to persist user: %w", err)
	}

	m.token = &token
	m.user = user

	logrus.WithFields(logrus.Fields{
		"session_id": m.sessionID,
		"user_id":    user.UserID,
		"role":       user.Role,
	}).Debug("Session established")

	return user, nil
}

// Logout clears both persisted keys and the in-memory state. The in-memory
// state is reset even when the store fails.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.token = nil
	m.user = nil

	if err := m.store.Delete(ctx, m.sessionID, TokenKey, UserKey); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

func (m *Manager) SessionID() string {
	return m.sessionID
}

// User returns a copy of the current user, or nil.
func (m *Manager) User() *User {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

// Token returns the raw token, or "" when there is none.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.token == nil {
		return ""
	}
	return *m.token
}

func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token != nil
}

func (m *Manager) Role() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.user == nil {
		return ""
	}
	return m.user.Role
}
