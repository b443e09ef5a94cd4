package registry

import (
	"container/list"
	"context"
	"errors"
	"regexp"
	"sync"
	"time"

	"github.com/fjod/go_cart/storefront-service/internal/cart"
	"github.com/fjod/go_cart/storefront-service/internal/domain"
	"github.com/fjod/go_cart/storefront-service/internal/kv"
	"github.com/fjod/go_cart/storefront-service/internal/metrics"
	"github.com/fjod/go_cart/storefront-service/internal/session"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var ErrInvalidClientID = errors.New("client id must be 1-64 characters of letters, digits, '-' or '_'")

var clientIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

const (
	evictCapacity = "capacity"
	evictIdle     = "idle"
)

// Client is everything one browser-equivalent owns: a cart and a session,
// both persisted under the client's own key prefix.
type Client struct {
	ID      string
	Cart    *cart.Store
	Session *session.Store
}

type entry struct {
	client   *Client
	lastUsed time.Time
	elem     *list.Element
}

type Option func(*Registry)

// WithMaxClients caps the clients held in memory; the least recently used
// one is dropped when the cap is exceeded. 0 means no cap.
func WithMaxClients(n int) Option {
	return func(r *Registry) {
		r.maxClients = n
	}
}

// WithIdleTTL makes Sweep drop clients unused for longer than d. 0 disables it.
func WithIdleTTL(d time.Duration) Option {
	return func(r *Registry) {
		r.idleTTL = d
	}
}

// Registry holds loaded clients. All client state is persisted, so an
// evicted client is rebuilt from storage on its next request. A request
// still holding an evicted *Client keeps working and persists as usual.
type Registry struct {
	storage   kv.Storage
	directory *session.Directory
	logger    *zap.Logger
	metrics   *metrics.Metrics
	latency   time.Duration

	maxClients int
	idleTTL    time.Duration
	now        func() time.Time

	mu      sync.Mutex
	clients map[string]*entry
	lru     *list.List         // front = most recently used client id
	sfg     singleflight.Group // first load of a client happens once
}

func New(storage kv.Storage, directory *session.Directory, logger *zap.Logger, m *metrics.Metrics, authLatency time.Duration, opts ...Option) *Registry {
	r := &Registry{
		storage:   storage,
		directory: directory,
		logger:    logger,
		metrics:   m,
		latency:   authLatency,
		now:       time.Now,
		clients:   make(map[string]*entry),
		lru:       list.New(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Client returns the stores of clientID, creating and restoring them from
// storage on first use.
func (r *Registry) Client(ctx context.Context, clientID string) (*Client, error) {
	if !clientIDPattern.MatchString(clientID) {
		return nil, ErrInvalidClientID
	}
	if c, ok := r.Lookup(clientID); ok {
		return c, nil
	}

	v, err, _ := r.sfg.Do(clientID, func() (interface{}, error) {
		if c, ok := r.Lookup(clientID); ok {
			return c, nil
		}

		c := r.newClient(clientID)
		// a caller giving up must not leave other waiters with a half-loaded client
		loadCtx := context.WithoutCancel(ctx)
		c.Cart.Load(loadCtx)
		c.Session.RestoreSession(loadCtx)

		r.mu.Lock()
		e := &entry{client: c, lastUsed: r.now()}
		e.elem = r.lru.PushFront(clientID)
		r.clients[clientID] = e
		r.evictOverCapacityLocked()
		r.mu.Unlock()

		r.metrics.ClientLoaded()
		r.logger.Debug("client loaded", zap.String("client_id", clientID))
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Client), nil
}

// Lookup returns a loaded client and marks it as recently used.
func (r *Registry) Lookup(clientID string) (*Client, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.clients[clientID]
	if !ok {
		return nil, false
	}
	e.lastUsed = r.now()
	r.lru.MoveToFront(e.elem)
	return e.client, true
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

// Sweep drops clients idle for longer than the configured TTL and returns
// how many were dropped.
func (r *Registry) Sweep() int {
	if r.idleTTL <= 0 {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.idleTTL)
	evicted := 0
	for elem := r.lru.Back(); elem != nil; {
		prev := elem.Prev()
		id := elem.Value.(string)
		e := r.clients[id]
		if !e.lastUsed.Before(cutoff) {
			break
		}
		if !busy(e.client) {
			r.evictLocked(id, evictIdle)
			evicted++
		}
		elem = prev
	}
	return evicted
}

// RunSweeper calls Sweep every interval until ctx is done.
func (r *Registry) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.logger.Info("idle clients evicted", zap.Int("count", n), zap.Int("remaining", r.Len()))
			}
		}
	}
}

func (r *Registry) evictOverCapacityLocked() {
	if r.maxClients <= 0 {
		return
	}
	for elem := r.lru.Back(); elem != nil && len(r.clients) > r.maxClients; {
		prev := elem.Prev()
		id := elem.Value.(string)
		if !busy(r.clients[id].client) {
			r.evictLocked(id, evictCapacity)
		}
		elem = prev
	}
}

func (r *Registry) evictLocked(clientID, reason string) {
	e := r.clients[clientID]
	r.lru.Remove(e.elem)
	delete(r.clients, clientID)

	r.metrics.ClientEvicted(reason)
	r.logger.Debug("client evicted",
		zap.String("client_id", clientID),
		zap.String("reason", reason))
}

// busy reports a client with a register or login in flight; dropping it would
// lose the AUTHENTICATING status other requests observe.
func busy(c *Client) bool {
	return c.Session.Status() == domain.SessionAuthenticating
}

func (r *Registry) newClient(clientID string) *Client {
	scoped := kv.Prefixed(r.storage, "client:"+clientID)
	logger := r.logger.With(zap.String("client_id", clientID))

	return &Client{
		ID:   clientID,
		Cart: cart.NewStore(scoped, logger, cart.WithMetrics(r.metrics)),
		Session: session.NewStore(r.directory, scoped, logger,
			session.WithLatency(r.latency),
			session.WithMetrics(r.metrics)),
	}
}
