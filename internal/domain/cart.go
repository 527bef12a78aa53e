package domain

const (
	MinQuantity = 1
	MaxQuantity = 100
)

// LineKey identifies a cart line. Matching is exact on both fields.
type LineKey struct {
	ProductID string
	Color     string
}

type CartLine struct {
	ProductID string `json:"id"`
	Color     string `json:"color"`
	Quantity  int    `json:"quantity"`
}

func (l CartLine) Key() LineKey {
	return LineKey{ProductID: l.ProductID, Color: l.Color}
}

// Cart is the ordered list of lines kept for one visitor.
type Cart struct {
	Lines []CartLine
}

// ClampQuantity constrains q to [MinQuantity, MaxQuantity].
func ClampQuantity(q int) int {
	if q < MinQuantity {
		return MinQuantity
	}
	if q > MaxQuantity {
		return MaxQuantity
	}
	return q
}

func (c Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// FindIndex returns the position of the first line matching key.
func (c Cart) FindIndex(key LineKey) (int, bool) {
	for i, line := range c.Lines {
		if line.ProductID == key.ProductID && line.Color == key.Color {
			return i, true
		}
	}
	return -1, false
}

// AddOrMerge appends line, or folds its quantity into an existing line with
// the same key. The resulting quantity is clamped. The incoming quantity is
// clamped before the sum so that huge inputs cannot overflow.
func (c *Cart) AddOrMerge(line CartLine) CartLine {
	line.Quantity = ClampQuantity(line.Quantity)
	if i, ok := c.FindIndex(line.Key()); ok {
		c.Lines[i].Quantity = ClampQuantity(ClampQuantity(c.Lines[i].Quantity) + line.Quantity)
		return c.Lines[i]
	}
	c.Lines = append(c.Lines, line)
	return line
}

// SetQuantity stores a clamped quantity on the matching line.
func (c *Cart) SetQuantity(key LineKey, q int) (int, error) {
	i, ok := c.FindIndex(key)
	if !ok {
		return 0, ErrNotFound
	}
	c.Lines[i].Quantity = ClampQuantity(q)
	return c.Lines[i].Quantity, nil
}

func (c *Cart) Remove(key LineKey) error {
	i, ok := c.FindIndex(key)
	if !ok {
		return ErrNotFound
	}
	c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
	return nil
}

func (c Cart) TotalQuantity() int {
	total := 0
	for _, line := range c.Lines {
		total += line.Quantity
	}
	return total
}

// TotalPrice sums quantity * unit price. Lines the lookup cannot price are
// skipped.
func (c Cart) TotalPrice(priceOf func(productID string) (int64, bool)) int64 {
	var total int64
	for _, line := range c.Lines {
		price, ok := priceOf(line.ProductID)
		if !ok {
			continue
		}
		total += price * int64(line.Quantity)
	}
	return total
}

// ProductIDs projects the cart onto one product id per line.
func (c Cart) ProductIDs() []string {
	ids := make([]string, 0, len(c.Lines))
	for _, line := range c.Lines {
		ids = append(ids, line.ProductID)
	}
	return ids
}

// Clone returns a copy that shares no backing array with c.
func (c Cart) Clone() Cart {
	if c.Lines == nil {
		return Cart{}
	}
	lines := make([]CartLine, len(c.Lines))
	copy(lines, c.Lines)
	return Cart{Lines: lines}
}
