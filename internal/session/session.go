// Package session keeps the local view of the backend session: whether the
// user is believed to be signed in, who they are, and whether the sign-in
// should outlive the session TTL. The backend's HttpOnly cookie remains the
// only authority; the local flag is a hint that Verify can correct.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tidwall/gjson"

	"github.com/samvad-hq/bizdesk/internal/logger"
	"github.com/samvad-hq/bizdesk/internal/storage"
	"github.com/samvad-hq/bizdesk/pkg/apiclient"
)

const stateKey = "session/state"

// State is the persisted session hint.
type State struct {
	Authenticated bool            `json:"authenticated"`
	RememberMe    bool            `json:"remember_me"`
	User          json.RawMessage `json:"user,omitempty"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Authenticator is the subset of the auth resource the manager drives.
// *resources.AuthService implements it.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*apiclient.Response, error)
	Logout(ctx context.Context) (*apiclient.Response, error)
	Check(ctx context.Context) (*apiclient.Response, error)
}

// Manager loads and updates State in a storage.Store.
type Manager struct {
	store storage.Store
	ttl   time.Duration
	jar   *CookieJar
	log   logger.Logger
	now   func() time.Time
}

// Option customizes a Manager.
type Option func(*Manager)

// WithCookieJar makes Clear also drop the persisted session cookie.
func WithCookieJar(jar *CookieJar) Option {
	return func(m *Manager) { m.jar = jar }
}

// WithLogger sets the logger. The default discards output.
func WithLogger(log logger.Logger) Option {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// NewManager returns a manager whose non-remembered sessions are forgotten
// locally after ttl. A ttl <= 0 keeps every session until logout.
func NewManager(store storage.Store, ttl time.Duration, opts ...Option) *Manager {
	m := &Manager{
		store: store,
		ttl:   ttl,
		log:   logger.NopLogger{},
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Load returns the stored state, or the zero State when none is stored.
func (m *Manager) Load() (State, error) {
	raw, ok, err := m.store.Get(stateKey)
	if err != nil {
		return State{}, fmt.Errorf("load session: %w", err)
	}
	if !ok {
		return State{}, nil
	}
	var st State
	if err := json.Unmarshal(raw, &st); err != nil {
		m.log.WarnObj("discarding unreadable session state", "error", err.Error())
		return State{}, nil
	}
	return st, nil
}

// Save persists st. Sessions without RememberMe expire after the TTL.
func (m *Manager) Save(st State) error {
	st.UpdatedAt = m.now().UTC()
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	var ttl time.Duration
	if !st.RememberMe {
		ttl = m.ttl
	}
	if err := m.store.Set(stateKey, raw, ttl); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Clear forgets the local state and any persisted cookies.
func (m *Manager) Clear() error {
	var errs []error
	if err := m.store.Delete(stateKey); err != nil {
		errs = append(errs, fmt.Errorf("clear session: %w", err))
	}
	if m.jar != nil {
		if err := m.jar.Clear(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Login signs in and records the returned user. The session cookie itself is
// handled by the client's jar.
func (m *Manager) Login(ctx context.Context, auth Authenticator, email, password string, rememberMe bool) (State, error) {
	resp, err := auth.Login(ctx, email, password)
	if err != nil {
		return State{}, err
	}
	st := State{
		Authenticated: true,
		RememberMe:    rememberMe,
		User:          userFrom(resp),
	}
	if err := m.Save(st); err != nil {
		return State{}, err
	}
	m.log.InfoObj("session started", "session", map[string]any{
		"remember_me": rememberMe,
		"has_user":    len(st.User) > 0,
	})
	return st, nil
}

// Logout ends the backend session. Local state is cleared even when the call
// fails; the call's error is still returned.
func (m *Manager) Logout(ctx context.Context, auth Authenticator) error {
	_, callErr := auth.Logout(ctx)
	if err := m.Clear(); err != nil {
		m.log.ErrorObj("clear session after logout failed", "error", err.Error())
		if callErr == nil {
			return err
		}
	}
	if callErr != nil {
		m.log.WarnObj("logout call failed; local session cleared", "error", callErr.Error())
	}
	return callErr
}

// Verify asks the backend whether the cookie is still valid. A 2xx marks the
// session authenticated, a 401 clears it, and anything else leaves it as is.
func (m *Manager) Verify(ctx context.Context, auth Authenticator) (State, error) {
	st, err := m.Load()
	if err != nil {
		return State{}, err
	}
	if _, err := auth.Check(ctx); err != nil {
		if errors.Is(err, apiclient.ErrSessionExpired) {
			if clearErr := m.Clear(); clearErr != nil {
				return State{}, errors.Join(err, clearErr)
			}
			return State{}, err
		}
		return st, err
	}
	if !st.Authenticated {
		st.Authenticated = true
		if err := m.Save(st); err != nil {
			return st, err
		}
	}
	return st, nil
}

// userFrom picks the `user` member of a login response, falling back to the
// whole JSON body.
func userFrom(resp *apiclient.Response) json.RawMessage {
	if resp == nil || resp.Body.Kind == apiclient.BodyEmpty {
		return nil
	}
	raw := resp.Body.Raw
	if !gjson.ValidBytes(raw) {
		return nil
	}
	if user := gjson.GetBytes(raw, "user"); user.Exists() && user.Type != gjson.Null {
		return json.RawMessage(user.Raw)
	}
	return json.RawMessage(append([]byte(nil), raw...))
}
