package cart

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"
	"sync"

	"go.uber.org/zap"
	"storefront/internal/domain"
	"storefront/internal/repository/localstore"
)

var (
	ErrProductRequired = errors.New("product id required")
	ErrColorRequired   = errors.New("color required")
	ErrInvalidQuantity = errors.New("quantity must be positive")
)

const lockStripes = 64

// Service applies line operations to a session's cart. Each operation loads
// the cart, mutates it and saves it back before returning.
type Service struct {
	repo   localstore.Repository
	logger *zap.Logger
	locks  [lockStripes]sync.Mutex
}

func New(repo localstore.Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, logger: logger}
}

// Store exposes the persistent store for a session.
func (s *Service) Store(sessionID string) *Store {
	return NewStore(s.repo, sessionID, s.logger)
}

func (s *Service) Cart(ctx context.Context, sessionID string) (domain.Cart, error) {
	return s.Store(sessionID).Load(ctx)
}

func (s *Service) TotalQuantity(ctx context.Context, sessionID string) (int, error) {
	c, err := s.Cart(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	return c.TotalQuantity(), nil
}

// AddOrMerge adds line to the cart or merges its quantity into the existing
// line for the same product and color. Quantities above the maximum are capped.
func (s *Service) AddOrMerge(ctx context.Context, sessionID string, line domain.CartLine) (domain.CartLine, error) {
	line.ProductID = strings.TrimSpace(line.ProductID)
	if line.ProductID == "" {
		return domain.CartLine{}, ErrProductRequired
	}
	if line.Color == "" {
		return domain.CartLine{}, ErrColorRequired
	}
	if line.Quantity <= 0 {
		return domain.CartLine{}, ErrInvalidQuantity
	}

	var stored domain.CartLine
	err := s.mutate(ctx, sessionID, func(c *domain.Cart) error {
		stored = c.AddOrMerge(line)
		return nil
	})
	if err != nil {
		return domain.CartLine{}, err
	}
	s.logger.Debug("cart line added",
		zap.String("session", sessionID),
		zap.String("product_id", line.ProductID),
		zap.String("color", line.Color),
		zap.Int("quantity", stored.Quantity))
	return stored, nil
}

// SetQuantity stores a clamped quantity and returns the stored value.
// A missing line reports domain.ErrNotFound and leaves the cart untouched.
func (s *Service) SetQuantity(ctx context.Context, sessionID string, key domain.LineKey, quantity int) (int, error) {
	var stored int
	err := s.mutate(ctx, sessionID, func(c *domain.Cart) error {
		q, err := c.SetQuantity(key, quantity)
		stored = q
		return err
	})
	if err != nil {
		return 0, err
	}
	return stored, nil
}

// Remove deletes the matching line. A missing line reports domain.ErrNotFound.
func (s *Service) Remove(ctx context.Context, sessionID string, key domain.LineKey) error {
	return s.mutate(ctx, sessionID, func(c *domain.Cart) error {
		return c.Remove(key)
	})
}

// Clear drops the session's cart.
func (s *Service) Clear(ctx context.Context, sessionID string) error {
	mu := s.lockFor(sessionID)
	mu.Lock()
	defer mu.Unlock()
	return s.Store(sessionID).Clear(ctx)
}

// mutate runs fn between a load and a save. Nothing is written when fn fails.
func (s *Service) mutate(ctx context.Context, sessionID string, fn func(*domain.Cart) error) error {
	mu := s.lockFor(sessionID)
	mu.Lock()
	defer mu.Unlock()

	store := s.Store(sessionID)
	c, err := store.Load(ctx)
	if err != nil {
		return err
	}
	if err := fn(&c); err != nil {
		return err
	}
	return store.Save(ctx, c)
}

func (s *Service) lockFor(sessionID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sessionID))
	return &s.locks[h.Sum32()%lockStripes]
}
