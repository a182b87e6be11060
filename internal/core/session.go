package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tasknest/taskdeck/internal/remote"
	"github.com/tasknest/taskdeck/internal/storage"
	"github.com/tasknest/taskdeck/pkg/models"
)

// SessionState is the lifecycle state of the authentication session.
type SessionState string

const (
	StateLoggedOut      SessionState = "logged_out"
	StateAuthenticating SessionState = "authenticating"
	StateLoggedIn       SessionState = "logged_in"
)

// defaultLoginFailure is surfaced when the remote rejects a login without
// providing a detail message.
const defaultLoginFailure = "login failed, please check your credentials"

// ErrNotLoggedIn is returned when a protected operation is attempted with
// no credential. No network call is made.
var ErrNotLoggedIn = errors.New("not logged in")

// SessionManager owns the authentication lifecycle:
// LoggedOut -> Authenticating -> LoggedIn -> LoggedOut. The credential is
// persisted through the store so a session survives restarts; the cached
// profile is memory-only.
type SessionManager struct {
	client remote.Client
	creds  storage.CredentialStore

	mu      sync.Mutex
	state   SessionState
	token   string
	profile *models.UserProfile
}

// NewSessionManager creates a SessionManager, restoring any persisted
// credential. A stored token that has already expired is discarded.
func NewSessionManager(client remote.Client, creds storage.CredentialStore) (*SessionManager, error) {
	sm := &SessionManager{
		client: client,
		creds:  creds,
		state:  StateLoggedOut,
	}

	token, err := creds.Get()
	if err != nil {
		return nil, fmt.Errorf("restoring session: %w", err)
	}
	if token != "" && !tokenExpired(token) {
		sm.token = token
		sm.state = StateLoggedIn
	}

	return sm, nil
}

// State returns the current session state. An expired credential flips
// the session to logged out without a network call.
func (sm *SessionManager) State() SessionState {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.expireLocked()
	return sm.state
}

// Token returns the current bearer credential, or empty when logged out.
// It satisfies remote.TokenSource.
func (sm *SessionManager) Token() string {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.expireLocked()
	return sm.token
}

// Profile returns the cached profile summary, if one was fetched.
func (sm *SessionManager) Profile() *models.UserProfile {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.profile
}

// Login authenticates against the remote service. On success the
// credential is persisted and the session transitions to LoggedIn; on
// failure the session returns to LoggedOut with a non-empty message and
// nothing is persisted.
func (sm *SessionManager) Login(ctx context.Context, username, password string) error {
	if strings.TrimSpace(username) == "" {
		return &ValidationError{Field: "username", Reason: "must not be empty"}
	}
	if password == "" {
		return &ValidationError{Field: "password", Reason: "must not be empty"}
	}

	sm.mu.Lock()
	if sm.state == StateAuthenticating {
		sm.mu.Unlock()
		return errors.New("login already in progress")
	}
	sm.state = StateAuthenticating
	sm.mu.Unlock()

	token, err := sm.client.Login(ctx, username, password)
	if err != nil || token == "" {
		sm.mu.Lock()
		sm.state = StateLoggedOut
		sm.mu.Unlock()
		return loginFailure(err)
	}

	if err := sm.creds.Set(token); err != nil {
		sm.mu.Lock()
		sm.state = StateLoggedOut
		sm.mu.Unlock()
		return fmt.Errorf("persisting credential: %w", err)
	}

	sm.mu.Lock()
	sm.token = token
	sm.state = StateLoggedIn
	sm.mu.Unlock()

	// Best effort: a missing profile never fails a login.
	if profile, err := sm.client.Profile(ctx); err == nil {
		sm.mu.Lock()
		sm.profile = profile
		sm.mu.Unlock()
	}

	return nil
}

// Logout clears the credential and cached profile unconditionally. It
// requires no network call to succeed.
func (sm *SessionManager) Logout() error {
	sm.mu.Lock()
	sm.token = ""
	sm.profile = nil
	sm.state = StateLoggedOut
	sm.mu.Unlock()

	if err := sm.creds.Clear(); err != nil {
		return fmt.Errorf("logging out: %w", err)
	}
	return nil
}

// Expire drops the in-memory session after the remote rejected the
// credential, prompting the user to re-authenticate.
func (sm *SessionManager) Expire() {
	_ = sm.Logout()
}

// Register creates a new account. It is a side operation: the session
// state does not change, and on success control is expected to hand over
// to the login flow.
func (sm *SessionManager) Register(ctx context.Context, input models.RegisterInput, confirmPassword string) (*models.UserProfile, error) {
	if strings.TrimSpace(input.Username) == "" {
		return nil, &ValidationError{Field: "username", Reason: "must not be empty"}
	}
	if strings.TrimSpace(input.Email) == "" {
		return nil, &ValidationError{Field: "email", Reason: "must not be empty"}
	}
	if input.Password == "" {
		return nil, &ValidationError{Field: "password", Reason: "must not be empty"}
	}
	if input.Password != confirmPassword {
		return nil, &ValidationError{Field: "password", Reason: "passwords do not match"}
	}

	profile, err := sm.client.Register(ctx, input)
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// Guard returns ErrNotLoggedIn when no valid credential is held, so
// protected commands can refuse immediately without a network call.
func (sm *SessionManager) Guard() error {
	if sm.Token() == "" {
		return ErrNotLoggedIn
	}
	return nil
}

// expireLocked discards an expired credential. Callers hold the lock.
func (sm *SessionManager) expireLocked() {
	if sm.token != "" && tokenExpired(sm.token) {
		sm.token = ""
		sm.profile = nil
		sm.state = StateLoggedOut
		_ = sm.creds.Clear()
	}
}

// tokenExpired parses the bearer token's exp claim without verifying the
// signature; verification belongs to the service. Tokens that do not
// parse or carry no exp claim are left to the remote to reject.
func tokenExpired(token string) bool {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}

// loginFailure maps a login error to the message shown to the user,
// falling back to a default when the remote offers no detail.
func loginFailure(err error) error {
	var re *remote.RemoteError
	if errors.As(err, &re) {
		if re.Message != "" {
			return errors.New(re.Message)
		}
		return errors.New(defaultLoginFailure)
	}
	if err != nil {
		return err
	}
	return errors.New(defaultLoginFailure)
}
