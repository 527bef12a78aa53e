package seed

import (
	"context"
	"errors"
	"testing"

	"storefront/internal/domain"
)

type stubWriter struct {
	items []domain.ProductSnapshot
	err   error
}

func (s *stubWriter) Upsert(_ context.Context, p domain.ProductSnapshot) (*domain.ProductSnapshot, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.items = append(s.items, p)
	return &p, nil
}

func TestProducts(t *testing.T) {
	products, err := Products()
	if err != nil {
		t.Fatalf("products: %v", err)
	}
	if len(products) != 8 {
		t.Fatalf("expected 8 products, got %d", len(products))
	}
	first := products[0]
	if first.ID != "107fb5b75607497b96722bda5b504926" || first.Price != 1849 {
		t.Fatalf("unexpected first product: %+v", first)
	}
	if !first.HasColor("White") {
		t.Fatalf("expected White among %v", first.Colors)
	}
}

func TestApply(t *testing.T) {
	w := &stubWriter{}
	n, err := Apply(context.Background(), w)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if n != 8 || len(w.items) != 8 {
		t.Fatalf("expected 8 upserts, got n=%d items=%d", n, len(w.items))
	}
}

func TestApply_WriterError(t *testing.T) {
	w := &stubWriter{err: errors.New("boom")}
	if _, err := Apply(context.Background(), w); err == nil {
		t.Fatalf("expected error")
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := parse([]byte("products:\n  - name: nameless\n")); err == nil {
		t.Fatalf("expected error for product without id")
	}
	if _, err := parse([]byte("products: [")); err == nil {
		t.Fatalf("expected decode error")
	}
}
