package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/fjod/go_cart/storefront-service/internal/domain"
	"github.com/fjod/go_cart/storefront-service/internal/kv"
	"github.com/fjod/go_cart/storefront-service/internal/metrics"
	"go.uber.org/zap"
)

// StorageKey holds the JSON array of cart lines.
const StorageKey = "degimen-cart"

type Option func(*Store)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

// Store owns one shopping cart. Every mutation runs Reduce and then writes
// the resulting items to storage before returning.
type Store struct {
	mu      sync.Mutex
	storage kv.Storage
	logger  *zap.Logger
	metrics *metrics.Metrics

	state  domain.Cart
	toast  string
	isOpen bool

	listeners map[int]func(domain.Cart)
	nextID    int
	version   uint64

	notifyMu  sync.Mutex
	delivered uint64
}

func NewStore(storage kv.Storage, logger *zap.Logger, opts ...Option) *Store {
	s := &Store{
		storage:   storage,
		logger:    logger,
		state:     domain.NewCart(nil),
		listeners: make(map[int]func(domain.Cart)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads the persisted cart once at startup. A missing, unreadable or
// malformed value leaves the cart empty; Load never fails.
func (s *Store) Load(ctx context.Context) {
	raw, ok, err := s.storage.Get(ctx, StorageKey)
	if err != nil {
		s.logger.Error("failed to read cart from storage", zap.Error(err))
		s.metrics.Restore("cart", metrics.OutcomeError)
		return
	}
	if !ok {
		s.metrics.Restore("cart", metrics.OutcomeEmpty)
		return
	}

	items, err := decodeItems(raw)
	if err != nil {
		s.logger.Warn("failed to load cart from storage", zap.Error(err))
		s.metrics.Restore("cart", metrics.OutcomeMalformed)
		return
	}

	s.mu.Lock()
	s.state = Reduce(s.state, LoadCart{Items: items})
	snapshot, listeners, version := s.snapshotLocked()
	s.mu.Unlock()

	s.metrics.Restore("cart", metrics.OutcomeRestored)
	s.deliver(version, listeners, snapshot)
}

// AddItem adds quantity units of item. An existing line only has its
// quantity increased; its name and price stay as first added.
// A quantity below 1 adds a single unit.
func (s *Store) AddItem(ctx context.Context, item domain.CartItem, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}
	item.Quantity = quantity

	err := s.dispatch(ctx, AddItem{Item: item})
	s.ShowToast(fmt.Sprintf("Added %d x %s to cart!", quantity, item.Name))
	return err
}

func (s *Store) RemoveItem(ctx context.Context, id string) error {
	return s.dispatch(ctx, RemoveItem{ID: id})
}

func (s *Store) UpdateQuantity(ctx context.Context, id string, quantity int) error {
	return s.dispatch(ctx, UpdateQuantity{ID: id, Quantity: quantity})
}

func (s *Store) ClearCart(ctx context.Context) error {
	return s.dispatch(ctx, ClearCart{})
}

// Restore replaces the cart wholesale.
func (s *Store) Restore(ctx context.Context, items []domain.CartItem) error {
	if err := validateItems(items); err != nil {
		return err
	}
	return s.dispatch(ctx, LoadCart{Items: items})
}

// Snapshot returns a copy of the current cart.
func (s *Store) Snapshot() domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Subscribe registers fn to receive the cart after every change and returns
// a func that removes it. fn runs outside the store lock, never sees an older
// cart after a newer one, and must not mutate this store.
func (s *Store) Subscribe(fn func(domain.Cart)) func() {
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

// ShowToast replaces the pending notification.
func (s *Store) ShowToast(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.toast = message
}

func (s *Store) HideToast() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.toast = ""
}

// Toast returns the pending notification, if any.
func (s *Store) Toast() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.toast, s.toast != ""
}

func (s *Store) SetOpen(open bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isOpen = open
}

func (s *Store) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isOpen
}

func (s *Store) dispatch(ctx context.Context, action Action) error {
	s.mu.Lock()
	s.state = Reduce(s.state, action)
	err := s.persistLocked(ctx)
	snapshot, listeners, version := s.snapshotLocked()
	s.mu.Unlock()

	s.metrics.CartMutation(action.actionName())
	s.deliver(version, listeners, snapshot)

	if err != nil {
		s.logger.Error("failed to persist cart",
			zap.String("action", action.actionName()),
			zap.Error(err))
		return fmt.Errorf("%w: %w", ErrPersistFailed, err)
	}
	return nil
}

func (s *Store) persistLocked(ctx context.Context) error {
	data, err := json.Marshal(s.state.Items)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}
	return s.storage.Set(ctx, StorageKey, string(data))
}

func (s *Store) snapshotLocked() (domain.Cart, []func(domain.Cart), uint64) {
	listeners := make([]func(domain.Cart), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.version++
	return s.state.Clone(), listeners, s.version
}

// deliver hands the cart taken at version to listeners. Deliveries are
// serialized; a cart older than one already delivered is dropped.
func (s *Store) deliver(version uint64, listeners []func(domain.Cart), cart domain.Cart) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	if version <= s.delivered {
		return
	}
	s.delivered = version
	for _, fn := range listeners {
		fn(cart.Clone())
	}
}

func decodeItems(raw string) ([]domain.CartItem, error) {
	var items []domain.CartItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err)
	}
	if err := validateItems(items); err != nil {
		return nil, err
	}
	return items, nil
}

func validateItems(items []domain.CartItem) error {
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if item.ID == "" {
			return fmt.Errorf("%w: line without id", ErrInvalidSnapshot)
		}
		if _, dup := seen[item.ID]; dup {
			return fmt.Errorf("%w: duplicate line %q", ErrInvalidSnapshot, item.ID)
		}
		seen[item.ID] = struct{}{}
		if item.Quantity < 1 {
			return fmt.Errorf("%w: line %q has quantity %d", ErrInvalidSnapshot, item.ID, item.Quantity)
		}
		if item.Price.IsNegative() {
			return fmt.Errorf("%w: line %q has negative price", ErrInvalidSnapshot, item.ID)
		}
	}
	return nil
}
