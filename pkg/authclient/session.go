package authclient

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const defaultStaleAfter = 5 * time.Minute

// ErrInProgress is returned when a mutating call starts while another one
// is still loading.
var ErrInProgress = errors.New("authclient: another auth operation is in progress")

// SyncState tracks the one-shot exchange of a provider session for a
// marketplace token.
type SyncState string

const (
	SyncIdle    SyncState = "idle"
	SyncSyncing SyncState = "syncing"
	SyncSynced  SyncState = "synced"
)

// Via records how the current session was established.
type Via string

const (
	ViaLocal    Via = "local"
	ViaExternal Via = "external"
)

// TokenStore persists the session token between runs.
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

type MemoryTokenStore struct {
	mu    sync.Mutex
	token string
}

func (m *MemoryTokenStore) Load() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *MemoryTokenStore) Save(token string) error {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
	return nil
}

func (m *MemoryTokenStore) Clear() error { return m.Save("") }

// ExternalProfile is what the provider's client SDK knows about the
// signed-in person.
type ExternalProfile struct {
	ExternalID string
	Email      string
	FirstName  string
	LastName   string
}

// ExternalSession adapts the provider's client SDK. Profile returns nil
// without error when no provider session is active.
type ExternalSession interface {
	Profile(ctx context.Context) (*ExternalProfile, error)
	SignOut(ctx context.Context) error
}

// State is a snapshot of the session.
type State struct {
	User          *User
	Token         string
	LastValidated time.Time
	Sync          SyncState
	Via           Via
	Loading       bool
	Error         string
}

// Session owns the client-side auth state. All methods are safe for
// concurrent use; validations are not cancelled, the last response wins.
type Session struct {
	client     *Client
	store      TokenStore
	external   ExternalSession
	log        zerolog.Logger
	now        func() time.Time
	staleAfter time.Duration

	mu    sync.Mutex
	state State
}

type SessionOption func(*Session)

func WithLogger(log zerolog.Logger) SessionOption {
	return func(s *Session) { s.log = log }
}

// WithStaleAfter sets how long a cached user is trusted before OnFocus
// revalidates it.
func WithStaleAfter(d time.Duration) SessionOption {
	return func(s *Session) { s.staleAfter = d }
}

// NewSession wires a session. external may be nil when the provider is not
// used.
func NewSession(client *Client, store TokenStore, external ExternalSession, opts ...SessionOption) *Session {
	if store == nil {
		store = &MemoryTokenStore{}
	}
	s := &Session{
		client:     client,
		store:      store,
		external:   external,
		log:        zerolog.Nop(),
		now:        time.Now,
		staleAfter: defaultStaleAfter,
		state:      State{Sync: SyncIdle},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state
	if st.User != nil {
		u := *st.User
		st.User = &u
	}
	return st
}

// NeedsOnboarding reports whether the signed-in user has not picked an
// account type yet.
func (s *Session) NeedsOnboarding() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.User != nil && s.state.User.AccountType == ""
}

// Init restores the session on start-up. An active provider session is
// synced once; otherwise a stored token is revalidated. A provider that
// cannot report its session does not discard the stored token.
func (s *Session) Init(ctx context.Context) error {
	if s.external != nil {
		active, err := s.syncExternal(ctx)
		if active {
			return err
		}
		if err != nil {
			s.log.Warn().Err(err).Msg("external session unavailable, using stored token")
		}
	}

	token, err := s.store.Load()
	if err != nil {
		return err
	}
	if token == "" {
		return nil
	}
	s.mu.Lock()
	s.state.Token = token
	if s.state.Via == "" {
		s.state.Via = ViaLocal
	}
	s.mu.Unlock()
	return s.Revalidate(ctx)
}

// SyncExternal exchanges the provider session for a marketplace token. It
// does nothing unless the sync state is idle.
func (s *Session) SyncExternal(ctx context.Context) error {
	_, err := s.syncExternal(ctx)
	return err
}

func (s *Session) syncExternal(ctx context.Context) (bool, error) {
	if s.external == nil {
		return false, nil
	}

	s.mu.Lock()
	if s.state.Sync != SyncIdle {
		s.mu.Unlock()
		return true, nil
	}
	s.state.Sync = SyncSyncing
	s.mu.Unlock()

	res, active, err := s.exchange(ctx)
	if err != nil || !active {
		s.mu.Lock()
		s.state.Sync = SyncIdle
		if err != nil {
			s.state.Error = err.Error()
		}
		s.mu.Unlock()
		return active, err
	}

	if err := s.store.Save(res.Token); err != nil {
		s.log.Warn().Err(err).Msg("persist token")
	}
	s.mu.Lock()
	s.state.Sync = SyncSynced
	s.state.Token = res.Token
	s.state.User = res.User
	s.state.Via = ViaExternal
	s.state.LastValidated = s.now()
	s.state.Error = ""
	s.mu.Unlock()
	return true, nil
}

func (s *Session) exchange(ctx context.Context) (*AuthResponse, bool, error) {
	profile, err := s.external.Profile(ctx)
	if err != nil {
		return nil, false, err
	}
	if profile == nil {
		return nil, false, nil
	}
	res, err := s.client.Callback(ctx, CallbackRequest{
		FirstName:  profile.FirstName,
		LastName:   profile.LastName,
		Email:      profile.Email,
		ExternalID: profile.ExternalID,
	})
	if err != nil {
		return nil, true, err
	}
	return res, true, nil
}

// Revalidate refreshes the cached user from GET /auth/me. A 401 signs the
// session out locally.
func (s *Session) Revalidate(ctx context.Context) error {
	s.mu.Lock()
	token := s.state.Token
	s.mu.Unlock()
	if token == "" {
		return nil
	}

	user, err := s.client.Me(ctx, token)
	if err != nil {
		if IsUnauthorized(err) {
			s.log.Info().Msg("session token rejected, clearing")
			s.purge()
			return nil
		}
		return err
	}

	s.mu.Lock()
	// A sign-out or new sign-in may have happened meanwhile.
	if s.state.Token == token {
		s.state.User = user
		s.state.LastValidated = s.now()
	}
	s.mu.Unlock()
	return nil
}

// StartRevalidation revalidates every interval until ctx is done.
func (s *Session) StartRevalidation(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.Revalidate(ctx); err != nil {
					s.log.Warn().Err(err).Msg("periodic revalidation failed")
				}
			}
		}
	}()
}

// OnFocus revalidates when the cached user is older than the stale threshold.
func (s *Session) OnFocus(ctx context.Context) error {
	s.mu.Lock()
	stale := s.state.Token != "" && s.now().Sub(s.state.LastValidated) > s.staleAfter
	s.mu.Unlock()
	if !stale {
		return nil
	}
	return s.Revalidate(ctx)
}

func (s *Session) SignIn(ctx context.Context, email, password string) error {
	return s.mutate(func() error {
		res, err := s.client.SignIn(ctx, email, password)
		if err != nil {
			return err
		}
		s.establish(res, ViaLocal)
		return nil
	})
}

func (s *Session) SignUp(ctx context.Context, req SignUpRequest) error {
	return s.mutate(func() error {
		res, err := s.client.SignUp(ctx, req)
		if err != nil {
			return err
		}
		s.establish(res, ViaLocal)
		return nil
	})
}

// UpdateUser applies a profile change and adopts the re-issued token, if any.
func (s *Session) UpdateUser(ctx context.Context, req UpdateUserRequest) error {
	return s.mutate(func() error {
		s.mu.Lock()
		token := s.state.Token
		s.mu.Unlock()

		res, err := s.client.UpdateUser(ctx, token, req)
		if err != nil {
			return err
		}
		if res.Token != "" {
			if err := s.store.Save(res.Token); err != nil {
				s.log.Warn().Err(err).Msg("persist token")
			}
		}
		s.mu.Lock()
		s.state.User = res.User
		if res.Token != "" {
			s.state.Token = res.Token
		}
		s.state.LastValidated = s.now()
		s.mu.Unlock()
		return nil
	})
}

// SignOut notifies the server, clears local state and ends the provider
// session when that is where the session came from.
func (s *Session) SignOut(ctx context.Context) error {
	s.mu.Lock()
	token, via := s.state.Token, s.state.Via
	s.mu.Unlock()

	if token != "" {
		if err := s.client.SignOut(ctx, token); err != nil {
			s.log.Warn().Err(err).Msg("server sign-out failed")
		}
	}
	s.purge()

	if via == ViaExternal && s.external != nil {
		return s.external.SignOut(ctx)
	}
	return nil
}

func (s *Session) mutate(fn func() error) error {
	s.mu.Lock()
	if s.state.Loading {
		s.mu.Unlock()
		return ErrInProgress
	}
	s.state.Loading = true
	s.state.Error = ""
	s.mu.Unlock()

	err := fn()

	s.mu.Lock()
	s.state.Loading = false
	if err != nil {
		s.state.Error = err.Error()
	}
	s.mu.Unlock()
	return err
}

func (s *Session) establish(res *AuthResponse, via Via) {
	if err := s.store.Save(res.Token); err != nil {
		s.log.Warn().Err(err).Msg("persist token")
	}
	s.mu.Lock()
	s.state.Token = res.Token
	s.state.User = res.User
	s.state.Via = via
	s.state.LastValidated = s.now()
	s.mu.Unlock()
}

func (s *Session) purge() {
	if err := s.store.Clear(); err != nil {
		s.log.Warn().Err(err).Msg("clear token")
	}
	s.mu.Lock()
	s.state = State{Sync: SyncIdle, Loading: s.state.Loading}
	s.mu.Unlock()
}
