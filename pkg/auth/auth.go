// Package auth owns the operator session: login, logout, forced expiry
// and persistence of the token across restarts.
package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ninja-pay/opsdash/pkg/errors"
	"github.com/ninja-pay/opsdash/pkg/transport"
)

// storageFile is the persisted session file, kept under the user config
// directory.
const storageFile = "ninja-dashboard-auth.json"

// User-facing messages, matching the dashboard's locale.
const (
	MsgInvalidCredentials = "Correo o contrasena no validos"
	MsgSessionExpired     = "Tu sesion expiro. Ingresa nuevamente."
	MsgUnsupportedToken   = "Tipo de token no soportado"
	MsgLoginFailed        = "No se pudo iniciar sesion"
)

// State is a snapshot of the session.
type State struct {
	Token string `json:"token"`
	Email string `json:"email"`
	// Error is the last user-facing auth message, never persisted.
	Error string `json:"-"`
}

// Store keeps the session and mirrors the token into the transport
// client. All methods are safe for concurrent use.
type Store struct {
	client *transport.Client
	logger *slog.Logger
	path   string

	mu    sync.RWMutex
	state State
}

// NewStore wires a store to the client. The client's 401 handler is
// installed here, so any unauthorized response expires the session.
func NewStore(client *transport.Client, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		client: client,
		logger: logger,
		path:   defaultStoragePath(),
	}
	client.OnUnauthorized(s.HandleUnauthorized)
	return s
}

func defaultStoragePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return storageFile
	}
	return filepath.Join(dir, "opsdash", storageFile)
}

// SetStoragePath overrides where the session file lives.
func (s *Store) SetStoragePath(path string) {
	s.mu.Lock()
	s.path = path
	s.mu.Unlock()
}

// Hydrate restores a persisted session. A missing or corrupt file reads
// as logged-out.
func (s *Store) Hydrate() {
	s.mu.Lock()
	path := s.path
	s.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil || state.Token == "" {
		return
	}

	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	s.client.SetAuthToken(state.Token)
}

// Login authenticates and stores the session. The email is normalized to
// lowercase before the request.
func (s *Store) Login(ctx context.Context, rawEmail, password string) error {
	email := strings.ToLower(strings.TrimSpace(rawEmail))

	token, tokenType, err := s.client.Login(ctx, email, password)
	if err != nil {
		message := MsgLoginFailed
		if errors.IsAuth(err) {
			message = MsgInvalidCredentials
		} else if detail := errors.Detail(err); detail != "" {
			message = detail
		}
		s.setError(message)
		return errors.NewWithDetail("login", errors.KindAuth, err, message)
	}
	if strings.ToLower(tokenType) != "bearer" {
		s.setError(MsgUnsupportedToken)
		return errors.NewWithDetail("login", errors.KindAuth, errors.ErrInvalidCredentials, MsgUnsupportedToken)
	}

	s.client.SetAuthToken(token)
	s.mu.Lock()
	s.state = State{Token: token, Email: email}
	s.mu.Unlock()
	s.persist()
	return nil
}

// Logout clears the session and the persisted file.
func (s *Store) Logout() {
	s.client.SetAuthToken("")
	s.mu.Lock()
	s.state = State{}
	path := s.path
	s.mu.Unlock()
	_ = os.Remove(path)
}

// HandleUnauthorized expires the session after a 401, leaving a message
// for the next render.
func (s *Store) HandleUnauthorized() {
	s.client.SetAuthToken("")
	s.mu.Lock()
	s.state = State{Error: MsgSessionExpired}
	path := s.path
	s.mu.Unlock()
	_ = os.Remove(path)
}

// ClearError drops the pending auth message.
func (s *Store) ClearError() {
	s.mu.Lock()
	s.state.Error = ""
	s.mu.Unlock()
}

// Current returns the session snapshot.
func (s *Store) Current() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// IsAuthenticated reports whether a token is held.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Token != ""
}

func (s *Store) setError(message string) {
	s.mu.Lock()
	s.state.Error = message
	s.mu.Unlock()
}

// persist writes token and email only.
func (s *Store) persist() {
	s.mu.RLock()
	state := s.state
	path := s.path
	s.mu.RUnlock()

	data, err := json.Marshal(State{Token: state.Token, Email: state.Email})
	if err != nil {
		return
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			s.logger.Warn("cannot create auth storage dir", "dir", dir, "error", err)
			return
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		s.logger.Warn("cannot persist session", "path", path, "error", err)
	}
}
