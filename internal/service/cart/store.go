package cart

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"storefront/internal/domain"
	"storefront/internal/repository/localstore"
)

const keyPrefix = "cart:"

// Store persists one session's cart as a single value in the key-value
// repository. Every Save overwrites the whole cart.
type Store struct {
	repo   localstore.Repository
	key    string
	logger *zap.Logger
}

func NewStore(repo localstore.Repository, sessionID string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{repo: repo, key: keyPrefix + sessionID, logger: logger}
}

// Load returns the stored cart. A missing or unreadable value yields an
// empty cart; only repository failures are returned as errors.
func (s *Store) Load(ctx context.Context) (domain.Cart, error) {
	raw, err := s.repo.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Cart{}, nil
		}
		return domain.Cart{}, err
	}
	c, err := domain.DecodeCart(raw)
	if err != nil {
		s.logger.Warn("discarding malformed cart", zap.String("key", s.key), zap.Error(err))
		return domain.Cart{}, nil
	}
	return c, nil
}

func (s *Store) Save(ctx context.Context, c domain.Cart) error {
	raw, err := domain.EncodeCart(c)
	if err != nil {
		return err
	}
	return s.repo.Set(ctx, s.key, raw)
}

// Clear removes the stored value entirely.
func (s *Store) Clear(ctx context.Context) error {
	return s.repo.Delete(ctx, s.key)
}
