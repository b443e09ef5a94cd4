package session

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/fjod/go_cart/storefront-service/internal/domain"
	"github.com/fjod/go_cart/storefront-service/internal/kv"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DirectoryKey holds the JSON array of registered users.
const DirectoryKey = "ecommerce_users"

// Directory is the simulated user backend. One Directory is shared by every
// session store; its mutex spans the uniqueness check and the write, so two
// registrations of the same email cannot both succeed.
type Directory struct {
	mu      sync.Mutex
	storage kv.Storage
	logger  *zap.Logger
	now     func() time.Time
}

func NewDirectory(storage kv.Storage, logger *zap.Logger) *Directory {
	return &Directory{
		storage: storage,
		logger:  logger,
		now:     time.Now,
	}
}

// Create registers a new user. The email is used as given, case-sensitive.
func (d *Directory) Create(ctx context.Context, email, password string) (domain.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	users, err := d.load(ctx)
	if err != nil {
		return domain.User{}, err
	}
	for _, u := range users {
		if u.Email == email {
			return domain.User{}, ErrDuplicateAccount
		}
	}

	user := domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		RegisteredAt: d.now().UTC(),
		Password:     password,
	}
	users = append(users, user)

	data, err := json.Marshal(users)
	if err != nil {
		return domain.User{}, fmt.Errorf("marshal users failed: %w", err)
	}
	if err := d.storage.Set(ctx, DirectoryKey, string(data)); err != nil {
		return domain.User{}, fmt.Errorf("failed to save users: %w", err)
	}
	return user, nil
}

// Authenticate returns the user whose email and password both match. Any
// mismatch yields ErrInvalidCredentials, whichever field was wrong.
func (d *Directory) Authenticate(ctx context.Context, email, password string) (domain.User, error) {
	users, err := d.Users(ctx)
	if err != nil {
		return domain.User{}, err
	}
	for _, u := range users {
		if u.Email == email && subtle.ConstantTimeCompare([]byte(u.Password), []byte(password)) == 1 {
			return u, nil
		}
	}
	return domain.User{}, ErrInvalidCredentials
}

func (d *Directory) Users(ctx context.Context) ([]domain.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.load(ctx)
}

// load fails with ErrMalformedDirectory when the stored value does not parse,
// so Create never writes over accounts it could not read.
func (d *Directory) load(ctx context.Context) ([]domain.User, error) {
	raw, ok, err := d.storage.Get(ctx, DirectoryKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read users: %w", err)
	}
	if !ok {
		return nil, nil
	}

	var users []domain.User
	if err := json.Unmarshal([]byte(raw), &users); err != nil {
		d.logger.Warn("malformed user directory", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrMalformedDirectory, err)
	}
	return users, nil
}
