package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mr1hm/go-disaster-admin/internal/models"
)

var ErrNotLoggedIn = errors.New("not logged in")

type Authenticator interface {
	Login(ctx context.Context, creds models.Credentials) (models.User, error)
}

// Session records the logged-in user. It is built once at startup from the
// store and handed to whatever needs the identity. There is no expiry; the
// user stays logged in until Logout or until the store is cleared.
type Session struct {
	store Store
	auth  Authenticator

	mu   sync.RWMutex
	user *models.User
}

// New restores the session from store. A record that cannot be decoded, or
// that names no user, is dropped and the session starts logged out.
func New(ctx context.Context, store Store, auth Authenticator) (*Session, error) {
	s := &Session{store: store, auth: auth}

	data, err := store.Load(ctx)
	if errors.Is(err, ErrNoSession) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("restore session: %w", err)
	}

	var u models.User
	err = json.Unmarshal(data, &u)
	if err == nil && u.ID == "" && u.Username == "" {
		err = errors.New("record has no user")
	}
	if err != nil {
		slog.Warn("discarding unreadable session record", "error", err)
		if err := store.Clear(ctx); err != nil {
			return nil, fmt.Errorf("restore session: %w", err)
		}
		return s, nil
	}
	s.user = &u
	slog.Debug("session restored", "user", u.Username)
	return s, nil
}

// Login authenticates and persists the returned user before it becomes the
// current identity.
func (s *Session) Login(ctx context.Context, username, password string) (models.User, error) {
	creds := models.Credentials{Username: username, Password: password}
	if err := creds.Validate(); err != nil {
		return models.User{}, err
	}

	u, err := s.auth.Login(ctx, creds)
	if err != nil {
		return models.User{}, fmt.Errorf("login: %w", err)
	}
	if u.Username == "" {
		u.Username = username
	}

	data, err := json.Marshal(u)
	if err != nil {
		return models.User{}, fmt.Errorf("login: encode session: %w", err)
	}
	if err := s.store.Save(ctx, data); err != nil {
		return models.User{}, fmt.Errorf("login: %w", err)
	}

	s.mu.Lock()
	s.user = &u
	s.mu.Unlock()

	slog.Info("logged in", "user", u.Username)
	return u, nil
}

// Logout clears both the persisted record and the in-memory identity.
func (s *Session) Logout(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()
	return nil
}

func (s *Session) User() (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return models.User{}, false
	}
	return *s.user, true
}

// Require returns the current user or ErrNotLoggedIn.
func (s *Session) Require() (models.User, error) {
	u, ok := s.User()
	if !ok {
		return models.User{}, ErrNotLoggedIn
	}
	return u, nil
}
