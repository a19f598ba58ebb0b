package state

import (
	"context"

	"github.com/supportdesk/apiserver/internal/client"
	"github.com/supportdesk/apiserver/internal/client/session"
)

// AuthSlice tracks the login/registration lifecycle and mirrors the current
// session into durable storage. Its initial state is seeded from the session
// file synchronously, so login status is known before any network call.
type AuthSlice struct {
	base *slice

	tracker  Tracker[session.Session]
	sessions *session.FileStore
}

func newAuthSlice(base *slice, sessions *session.FileStore) *AuthSlice {
	s := &AuthSlice{base: base, sessions: sessions}
	if sess, ok := sessions.Load(); ok {
		s.tracker.Succeed(sess)
		base.api.SetToken(sess.Token)
	}
	return s
}

// Register creates an account, stores the resulting session, and installs
// the token for subsequent requests. A pending register clears any previous
// session, matching the reset-on-start policy of the login flow.
func (s *AuthSlice) Register(ctx context.Context, name, email, password string) error {
	s.start()

	result, err := s.base.api.Register(ctx, name, email, password)
	if err != nil {
		s.fail(client.ErrorMessage(err))
		return err
	}
	return s.establish(result)
}

// Login authenticates, stores the resulting session, and installs the token.
func (s *AuthSlice) Login(ctx context.Context, email, password string) error {
	s.start()

	result, err := s.base.api.Login(ctx, email, password)
	if err != nil {
		s.fail(client.ErrorMessage(err))
		return err
	}
	return s.establish(result)
}

// Logout clears the persisted session and the in-memory state. Purely local:
// tokens are stateless, so the server is not consulted.
func (s *AuthSlice) Logout() error {
	s.base.mu.Lock()
	s.tracker.Reset()
	s.base.mu.Unlock()

	s.base.api.SetToken("")
	return s.sessions.Clear()
}

// Current returns the active session, if any.
func (s *AuthSlice) Current() (session.Session, bool) {
	s.base.mu.RLock()
	defer s.base.mu.RUnlock()
	view := s.tracker.Snapshot()
	return view.Payload, view.HasPayload
}

// View returns a snapshot of the auth state.
func (s *AuthSlice) View() View[session.Session] {
	s.base.mu.RLock()
	defer s.base.mu.RUnlock()
	return s.tracker.Snapshot()
}

func (s *AuthSlice) start() {
	s.base.mu.Lock()
	s.tracker.Start(true)
	s.base.mu.Unlock()
}

func (s *AuthSlice) fail(message string) {
	s.base.mu.Lock()
	s.tracker.Fail(message)
	s.base.mu.Unlock()
}

func (s *AuthSlice) establish(result client.AuthResult) error {
	sess := session.Session{
		ID:    result.User.ID,
		Name:  result.User.Name,
		Email: result.User.Email,
		Token: result.Token,
	}

	s.base.api.SetToken(sess.Token)
	err := s.sessions.Save(sess)

	s.base.mu.Lock()
	s.tracker.Succeed(sess)
	s.base.mu.Unlock()
	return err
}
