package order

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
	"storefront/internal/domain"
	"storefront/internal/service/checkout"
)

// ErrSubmitInProgress is returned when the session already has an order in
// flight.
var ErrSubmitInProgress = errors.New("order submission already in progress")

// ValidationError reports the contact fields that failed their rules.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return "contact validation failed"
}

type cartStore interface {
	Cart(ctx context.Context, sessionID string) (domain.Cart, error)
	Clear(ctx context.Context, sessionID string) error
}

type orderPlacer interface {
	PlaceOrder(ctx context.Context, order domain.Order) (*domain.OrderConfirmation, error)
}

type contactValidator interface {
	Validate(c domain.ContactInfo) checkout.Result
}

// Submitter turns a checkout into one order request. Each session is either
// idle or submitting.
type Submitter struct {
	carts     cartStore
	catalog   orderPlacer
	validator contactValidator
	logger    *zap.Logger

	mu         sync.Mutex
	submitting map[string]struct{}
}

func NewSubmitter(carts cartStore, catalog orderPlacer, validator contactValidator, logger *zap.Logger) *Submitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Submitter{
		carts:      carts,
		catalog:    catalog,
		validator:  validator,
		logger:     logger,
		submitting: make(map[string]struct{}),
	}
}

// BuildOrder projects the cart onto the order payload: one product id per
// line, quantities and colors dropped.
func BuildOrder(contact domain.ContactInfo, c domain.Cart) domain.Order {
	return domain.Order{Contact: contact, Products: c.ProductIDs()}
}

// Submit validates the contact, posts the order and clears the cart once the
// catalog has answered with an order id. On any failure the cart is left as
// it was.
func (s *Submitter) Submit(ctx context.Context, sessionID string, contact domain.ContactInfo) (string, error) {
	if res := s.validator.Validate(contact); !res.Valid() {
		return "", &ValidationError{Fields: res.Errors}
	}

	if !s.begin(sessionID) {
		return "", ErrSubmitInProgress
	}
	defer s.end(sessionID)

	c, err := s.carts.Cart(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if c.IsEmpty() {
		return "", domain.ErrEmptyCart
	}

	order := BuildOrder(contact, c)
	conf, err := s.catalog.PlaceOrder(ctx, order)
	if err != nil {
		s.logger.Error("order submission failed",
			zap.String("session", sessionID),
			zap.Int("products", len(order.Products)),
			zap.Error(err))
		return "", err
	}

	if err := s.carts.Clear(ctx, sessionID); err != nil {
		// The order exists upstream; a stale cart is the lesser failure.
		s.logger.Error("clear cart after order", zap.String("session", sessionID), zap.String("order_id", conf.OrderID), zap.Error(err))
	}
	s.logger.Info("order placed", zap.String("session", sessionID), zap.String("order_id", conf.OrderID), zap.Int("products", len(order.Products)))
	return conf.OrderID, nil
}

// Submitting reports whether the session has an order in flight.
func (s *Submitter) Submitting(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.submitting[sessionID]
	return ok
}

func (s *Submitter) begin(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.submitting[sessionID]; busy {
		return false
	}
	s.submitting[sessionID] = struct{}{}
	return true
}

func (s *Submitter) end(sessionID string) {
	s.mu.Lock()
	delete(s.submitting, sessionID)
	s.mu.Unlock()
}
