// Package view turns a stored cart into what the cart page displays. Product
// data is fetched first, then the rows and totals are built from it.
package view

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"storefront/internal/domain"
)

// EmptyCartMessage replaces the totals when the cart has no lines.
const EmptyCartMessage = "Votre panier est vide"

const fetchLimit = 4

// ProductLookup fetches display data for one product.
type ProductLookup interface {
	Get(ctx context.Context, id string) (*domain.ProductSnapshot, error)
}

type Row struct {
	Key         domain.LineKey `json:"-"`
	ProductID   string         `json:"id"`
	Color       string         `json:"color"`
	Name        string         `json:"name"`
	ImageURL    string         `json:"imageUrl"`
	AltText     string         `json:"altTxt"`
	UnitPrice   int64          `json:"price"`
	Quantity    int            `json:"quantity"`
	MinQuantity int            `json:"min"`
	MaxQuantity int            `json:"max"`
	DOMID       string         `json:"domId"`
}

// LineTotal is the row's quantity times its unit price.
func (r Row) LineTotal() int64 {
	return r.UnitPrice * int64(r.Quantity)
}

// CartView is the rendered cart. Failed lists the lines whose product could
// not be fetched; they are not part of Rows.
type CartView struct {
	Rows          []Row            `json:"rows"`
	TotalQuantity int              `json:"totalQuantity"`
	TotalPrice    int64            `json:"totalPrice"`
	Empty         bool             `json:"empty"`
	Message       string           `json:"message,omitempty"`
	Failed        []domain.LineKey `json:"failed,omitempty"`
}

// QuantityUpdate is returned after a quantity edit so the control can be
// resynchronized with the stored value.
type QuantityUpdate struct {
	Quantity      int   `json:"quantity"`
	Clamped       bool  `json:"clamped"`
	TotalQuantity int   `json:"totalQuantity"`
	TotalPrice    int64 `json:"totalPrice"`
}

// Fetched pairs each cart line with its product, in cart order. A nil
// product marks a failed fetch.
type Fetched struct {
	Line    domain.CartLine
	Product *domain.ProductSnapshot
	Err     error
}

type Renderer struct {
	products ProductLookup
	logger   *zap.Logger
}

func NewRenderer(products ProductLookup, logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{products: products, logger: logger}
}

// Fetch loads product data for every line. Lines sharing a product id are
// fetched once. Individual failures are recorded on the result instead of
// aborting the batch; only context cancellation is returned.
func (r *Renderer) Fetch(ctx context.Context, c domain.Cart) ([]Fetched, error) {
	ids := uniqueIDs(c)
	products := make([]*domain.ProductSnapshot, len(ids))
	errs := make([]error, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchLimit)
	for i, id := range ids {
		g.Go(func() error {
			p, err := r.products.Get(gctx, id)
			if err != nil {
				errs[i] = err
				return nil
			}
			products[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	byID := make(map[string]int, len(ids))
	for i, id := range ids {
		byID[id] = i
	}
	out := make([]Fetched, 0, len(c.Lines))
	for _, line := range c.Lines {
		i := byID[line.ProductID]
		out = append(out, Fetched{Line: line, Product: products[i], Err: errs[i]})
	}
	return out, nil
}

// Render builds the view from fetched lines. The total quantity counts every
// line; the total price only lines with a known price.
func (r *Renderer) Render(fetched []Fetched) CartView {
	if len(fetched) == 0 {
		return CartView{Empty: true, Message: EmptyCartMessage}
	}
	v := CartView{Rows: make([]Row, 0, len(fetched))}
	for _, f := range fetched {
		v.TotalQuantity += f.Line.Quantity
		if f.Product == nil {
			r.logger.Warn("cart line left out of view",
				zap.String("product_id", f.Line.ProductID),
				zap.String("color", f.Line.Color),
				zap.Error(f.Err))
			v.Failed = append(v.Failed, f.Line.Key())
			continue
		}
		row := Row{
			Key:         f.Line.Key(),
			ProductID:   f.Line.ProductID,
			Color:       f.Line.Color,
			Name:        f.Product.Name,
			ImageURL:    f.Product.ImageURL,
			AltText:     f.Product.AltText,
			UnitPrice:   f.Product.Price,
			Quantity:    f.Line.Quantity,
			MinQuantity: domain.MinQuantity,
			MaxQuantity: domain.MaxQuantity,
			DOMID:       DOMID(f.Line.Key()),
		}
		v.TotalPrice += row.LineTotal()
		v.Rows = append(v.Rows, row)
	}
	return v
}

// Cart fetches then renders.
func (r *Renderer) Cart(ctx context.Context, c domain.Cart) (CartView, error) {
	fetched, err := r.Fetch(ctx, c)
	if err != nil {
		return CartView{}, err
	}
	return r.Render(fetched), nil
}

// Quantity reports a quantity edit: requested is the raw input, stored what
// was persisted, c the cart after the edit.
func (r *Renderer) Quantity(ctx context.Context, requested, stored int, c domain.Cart) (QuantityUpdate, error) {
	v, err := r.Cart(ctx, c)
	if err != nil {
		return QuantityUpdate{}, err
	}
	return QuantityUpdate{
		Quantity:      stored,
		Clamped:       requested != stored,
		TotalQuantity: v.TotalQuantity,
		TotalPrice:    v.TotalPrice,
	}, nil
}

// DOMID derives a markup id from a line key. Characters outside [A-Za-z0-9]
// are hex-escaped so distinct keys never collide.
func DOMID(key domain.LineKey) string {
	return "line-" + escapeID(key.ProductID) + "--" + escapeID(key.Color)
}

func escapeID(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			fmt.Fprintf(&b, "_%x_", r)
		}
	}
	return b.String()
}

func uniqueIDs(c domain.Cart) []string {
	seen := make(map[string]struct{}, len(c.Lines))
	ids := make([]string, 0, len(c.Lines))
	for _, line := range c.Lines {
		if _, ok := seen[line.ProductID]; ok {
			continue
		}
		seen[line.ProductID] = struct{}{}
		ids = append(ids, line.ProductID)
	}
	return ids
}
