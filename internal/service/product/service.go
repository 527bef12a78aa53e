package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"storefront/internal/domain"
	productrepo "storefront/internal/repository/product"
)

var (
	ErrContactRequired  = errors.New("contact required")
	ErrProductsRequired = errors.New("products required")
	ErrUnknownProduct   = errors.New("unknown product")
)

type Service struct {
	repo productrepo.Repository
}

func New(repo productrepo.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]domain.ProductSnapshot, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []domain.ProductSnapshot{}
	}
	return products, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.ProductSnapshot, error) {
	return s.repo.GetByID(ctx, strings.TrimSpace(id))
}

// PlaceOrder accepts an order when every contact field is present and every
// product id resolves. Duplicate ids are kept. Nothing is persisted.
func (s *Service) PlaceOrder(ctx context.Context, order domain.Order) (*domain.OrderConfirmation, error) {
	if !contactComplete(order.Contact) {
		return nil, ErrContactRequired
	}
	if len(order.Products) == 0 {
		return nil, ErrProductsRequired
	}

	products := make([]domain.ProductSnapshot, 0, len(order.Products))
	for _, id := range order.Products {
		p, err := s.repo.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrUnknownProduct, id)
			}
			return nil, err
		}
		products = append(products, *p)
	}

	return &domain.OrderConfirmation{
		OrderID:  uuid.NewString(),
		Contact:  order.Contact,
		Products: products,
	}, nil
}

func contactComplete(c domain.ContactInfo) bool {
	for _, v := range []string{c.FirstName, c.LastName, c.Address, c.City, c.Email} {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}
