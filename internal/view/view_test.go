package view

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"storefront/internal/domain"
)

type stubLookup struct {
	mu       sync.Mutex
	products map[string]domain.ProductSnapshot
	calls    map[string]int
	inFlight int32
	maxSeen  int32
}

func (s *stubLookup) Get(_ context.Context, id string) (*domain.ProductSnapshot, error) {
	n := atomic.AddInt32(&s.inFlight, 1)
	defer atomic.AddInt32(&s.inFlight, -1)
	for {
		m := atomic.LoadInt32(&s.maxSeen)
		if n <= m || atomic.CompareAndSwapInt32(&s.maxSeen, m, n) {
			break
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls == nil {
		s.calls = map[string]int{}
	}
	s.calls[id]++
	p, ok := s.products[id]
	if !ok {
		return nil, errors.New("catalog unavailable")
	}
	return &p, nil
}

func newLookup() *stubLookup {
	return &stubLookup{products: map[string]domain.ProductSnapshot{
		"a": {ID: "a", Name: "Kanap Sinopé", Price: 10, ImageURL: "a.jpg", AltText: "canapé"},
		"b": {ID: "b", Name: "Kanap Cyllène", Price: 5},
	}}
}

func TestRenderEmptyCart(t *testing.T) {
	r := NewRenderer(newLookup(), nil)
	v, err := r.Cart(context.Background(), domain.Cart{})
	require.NoError(t, err)
	assert.True(t, v.Empty)
	assert.Equal(t, EmptyCartMessage, v.Message)
	assert.Empty(t, v.Rows)
	assert.Zero(t, v.TotalPrice)
}

func TestRenderTotals(t *testing.T) {
	r := NewRenderer(newLookup(), zaptest.NewLogger(t))
	c := domain.Cart{Lines: []domain.CartLine{
		{ProductID: "a", Color: "Blue", Quantity: 2},
		{ProductID: "b", Color: "Red", Quantity: 1},
	}}
	v, err := r.Cart(context.Background(), c)
	require.NoError(t, err)

	assert.False(t, v.Empty)
	assert.Equal(t, 3, v.TotalQuantity)
	assert.Equal(t, int64(25), v.TotalPrice)
	require.Len(t, v.Rows, 2)
	assert.Equal(t, "a", v.Rows[0].ProductID)
	assert.Equal(t, "Kanap Sinopé", v.Rows[0].Name)
	assert.Equal(t, int64(20), v.Rows[0].LineTotal())
	assert.Equal(t, domain.MaxQuantity, v.Rows[0].MaxQuantity)
	assert.Equal(t, "b", v.Rows[1].ProductID)
}

func TestRenderKeepsCartOrderAndFetchesOncePerProduct(t *testing.T) {
	lookup := newLookup()
	r := NewRenderer(lookup, nil)
	c := domain.Cart{Lines: []domain.CartLine{
		{ProductID: "b", Color: "Red", Quantity: 1},
		{ProductID: "a", Color: "Blue", Quantity: 1},
		{ProductID: "b", Color: "Green", Quantity: 1},
	}}
	v, err := r.Cart(context.Background(), c)
	require.NoError(t, err)

	require.Len(t, v.Rows, 3)
	assert.Equal(t, domain.LineKey{ProductID: "b", Color: "Red"}, v.Rows[0].Key)
	assert.Equal(t, domain.LineKey{ProductID: "a", Color: "Blue"}, v.Rows[1].Key)
	assert.Equal(t, domain.LineKey{ProductID: "b", Color: "Green"}, v.Rows[2].Key)
	assert.Equal(t, 1, lookup.calls["b"])
}

func TestRenderOmitsFailedLines(t *testing.T) {
	r := NewRenderer(newLookup(), zaptest.NewLogger(t))
	c := domain.Cart{Lines: []domain.CartLine{
		{ProductID: "a", Color: "Blue", Quantity: 1},
		{ProductID: "gone", Color: "Blue", Quantity: 3},
	}}
	v, err := r.Cart(context.Background(), c)
	require.NoError(t, err)

	require.Len(t, v.Rows, 1)
	assert.Equal(t, []domain.LineKey{{ProductID: "gone", Color: "Blue"}}, v.Failed)
	assert.Equal(t, 4, v.TotalQuantity)
	assert.Equal(t, int64(10), v.TotalPrice)
}

func TestFetchBoundedParallelism(t *testing.T) {
	lookup := &stubLookup{products: map[string]domain.ProductSnapshot{}}
	var c domain.Cart
	for i := 0; i < 20; i++ {
		id := string(rune('a' + i))
		lookup.products[id] = domain.ProductSnapshot{ID: id, Price: 1}
		c.Lines = append(c.Lines, domain.CartLine{ProductID: id, Color: "x", Quantity: 1})
	}
	r := NewRenderer(lookup, nil)
	fetched, err := r.Fetch(context.Background(), c)
	require.NoError(t, err)
	require.Len(t, fetched, 20)
	for i, f := range fetched {
		assert.Equal(t, c.Lines[i], f.Line)
	}
	assert.LessOrEqual(t, atomic.LoadInt32(&lookup.maxSeen), int32(fetchLimit))
}

func TestFetchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := NewRenderer(newLookup(), nil)
	_, err := r.Fetch(ctx, domain.Cart{Lines: []domain.CartLine{{ProductID: "a", Color: "x", Quantity: 1}}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestQuantityUpdateReportsClamp(t *testing.T) {
	r := NewRenderer(newLookup(), nil)
	c := domain.Cart{Lines: []domain.CartLine{{ProductID: "a", Color: "Blue", Quantity: 100}}}

	u, err := r.Quantity(context.Background(), 250, 100, c)
	require.NoError(t, err)
	assert.Equal(t, 100, u.Quantity)
	assert.True(t, u.Clamped)
	assert.Equal(t, 100, u.TotalQuantity)
	assert.Equal(t, int64(1000), u.TotalPrice)

	u, err = r.Quantity(context.Background(), 100, 100, c)
	require.NoError(t, err)
	assert.False(t, u.Clamped)
}

func TestDOMIDDistinct(t *testing.T) {
	a := DOMID(domain.LineKey{ProductID: "ab", Color: "c"})
	b := DOMID(domain.LineKey{ProductID: "a", Color: "bc"})
	c := DOMID(domain.LineKey{ProductID: "a", Color: "Black/Yellow"})
	assert.NotEqual(t, a, b)
	assert.Equal(t, "line-a--Black_2f_Yellow", c)
}
