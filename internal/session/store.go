package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fjod/go_cart/storefront-service/internal/domain"
	"github.com/fjod/go_cart/storefront-service/internal/kv"
	"github.com/fjod/go_cart/storefront-service/internal/metrics"
	"go.uber.org/zap"
)

// SessionKey holds the identity of the signed-in user.
const SessionKey = "ecommerce_user"

// DefaultLatency mimics a backend round trip.
const DefaultLatency = time.Second

// State is what subscribers observe.
type State struct {
	Status   domain.SessionStatus `json:"status"`
	Identity *domain.Identity     `json:"user,omitempty"`
}

type Option func(*Store)

func WithLatency(d time.Duration) Option {
	return func(s *Store) {
		s.latency = d
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

// Store tracks who is signed in for one client.
type Store struct {
	mu        sync.Mutex
	directory *Directory
	storage   kv.Storage
	logger    *zap.Logger
	metrics   *metrics.Metrics
	latency   time.Duration

	identity *domain.Identity
	restored bool
	inFlight int

	listeners map[int]func(State)
	nextID    int
	version   uint64

	notifyMu  sync.Mutex
	delivered uint64
}

func NewStore(directory *Directory, storage kv.Storage, logger *zap.Logger, opts ...Option) *Store {
	s := &Store{
		directory: directory,
		storage:   storage,
		logger:    logger,
		latency:   DefaultLatency,
		listeners: make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RestoreSession reads the persisted identity once at startup. A corrupt
// marker is removed and the store starts unauthenticated.
func (s *Store) RestoreSession(ctx context.Context) {
	identity, outcome := s.readMarker(ctx)
	s.metrics.Restore("session", outcome)

	s.mu.Lock()
	if identity != nil && s.identity == nil {
		s.identity = identity
	}
	s.restored = true
	state, listeners, version := s.stateLocked()
	s.mu.Unlock()

	s.deliver(version, listeners, state)
}

func (s *Store) readMarker(ctx context.Context) (*domain.Identity, string) {
	raw, ok, err := s.storage.Get(ctx, SessionKey)
	if err != nil {
		s.logger.Error("failed to read session from storage", zap.Error(err))
		return nil, metrics.OutcomeError
	}
	if !ok {
		return nil, metrics.OutcomeEmpty
	}

	var identity domain.Identity
	err = json.Unmarshal([]byte(raw), &identity)
	if err == nil && (identity.ID == "" || identity.Email == "") {
		err = errors.New("identity without id or email")
	}
	if err != nil {
		s.logger.Warn("error loading user from storage", zap.Error(err))
		if errRemove := s.storage.Remove(ctx, SessionKey); errRemove != nil {
			s.logger.Error("failed to remove corrupt session", zap.Error(errRemove))
		}
		return nil, metrics.OutcomeMalformed
	}
	return &identity, metrics.OutcomeRestored
}

// Register creates an account and signs it in. Input is assumed to be
// validated by the caller.
func (s *Store) Register(ctx context.Context, email, password string) (domain.Identity, error) {
	s.begin()
	time.Sleep(s.latency)

	user, err := s.directory.Create(ctx, email, password)
	if err != nil {
		s.metrics.AuthAttempt("register", outcome(err))
		s.end(nil)
		if errors.Is(err, ErrDuplicateAccount) {
			return domain.Identity{}, err
		}
		s.logger.Error("registration failed", zap.Error(err))
		return domain.Identity{}, fmt.Errorf("%w: %w", ErrRegistrationFailed, err)
	}

	identity := user.Identity()
	s.metrics.AuthAttempt("register", outcome(nil))
	s.signIn(ctx, identity)
	return identity, nil
}

// Login signs in the user whose email and password match exactly.
func (s *Store) Login(ctx context.Context, email, password string) (domain.Identity, error) {
	s.begin()
	time.Sleep(s.latency)

	user, err := s.directory.Authenticate(ctx, email, password)
	if err != nil {
		s.metrics.AuthAttempt("login", outcome(err))
		s.end(nil)
		if errors.Is(err, ErrInvalidCredentials) {
			return domain.Identity{}, err
		}
		s.logger.Error("login failed", zap.Error(err))
		return domain.Identity{}, fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}

	identity := user.Identity()
	s.metrics.AuthAttempt("login", outcome(nil))
	s.signIn(ctx, identity)
	return identity, nil
}

// Logout never fails; a storage error is only logged.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	s.identity = nil
	s.restored = true
	if err := s.storage.Remove(ctx, SessionKey); err != nil {
		s.logger.Error("failed to remove session from storage", zap.Error(err))
	}
	state, listeners, version := s.stateLocked()
	s.mu.Unlock()

	s.deliver(version, listeners, state)
}

// Identity returns the signed-in identity, if any.
func (s *Store) Identity() (domain.Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil {
		return domain.Identity{}, false
	}
	return *s.identity, true
}

func (s *Store) Status() domain.SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

func (s *Store) IsAuthenticated() bool {
	return s.Status() == domain.SessionAuthenticated
}

// Subscribe registers fn to receive the state after every change. fn never
// sees an older state after a newer one and must not call back into this store's
// mutating methods.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Store) begin() {
	s.mu.Lock()
	s.inFlight++
	state, listeners, version := s.stateLocked()
	s.mu.Unlock()

	s.deliver(version, listeners, state)
}

func (s *Store) end(identity *domain.Identity) {
	s.mu.Lock()
	s.inFlight--
	if identity != nil {
		s.identity = identity
		s.restored = true
	}
	state, listeners, version := s.stateLocked()
	s.mu.Unlock()

	s.deliver(version, listeners, state)
}

func (s *Store) signIn(ctx context.Context, identity domain.Identity) {
	data, err := json.Marshal(identity)
	if err == nil {
		err = s.storage.Set(ctx, SessionKey, string(data))
	}
	if err != nil {
		s.logger.Error("failed to save session to storage", zap.Error(err))
	}
	s.end(&identity)
}

func (s *Store) statusLocked() domain.SessionStatus {
	switch {
	case s.inFlight > 0:
		return domain.SessionAuthenticating
	case s.identity != nil:
		return domain.SessionAuthenticated
	case s.restored:
		return domain.SessionUnauthenticated
	default:
		return domain.SessionInitializing
	}
}

func (s *Store) stateLocked() (State, []func(State), uint64) {
	state := State{Status: s.statusLocked()}
	if s.identity != nil {
		identity := *s.identity
		state.Identity = &identity
	}
	listeners := make([]func(State), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.version++
	return state, listeners, s.version
}

// deliver serializes notifications and drops states older than one already
// delivered.
func (s *Store) deliver(version uint64, listeners []func(State), state State) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	if version <= s.delivered {
		return
	}
	s.delivered = version
	for _, fn := range listeners {
		fn(state)
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrDuplicateAccount):
		return "duplicate_account"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	default:
		return "error"
	}
}
