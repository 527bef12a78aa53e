package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// storedLine is the persisted shape of a line. Quantity is written as a
// string-encoded integer.
type storedLine struct {
	ProductID string        `json:"id"`
	Quantity  storedInteger `json:"quantity"`
	Color     string        `json:"color"`
}

// storedInteger accepts both "3" and 3 when decoding.
type storedInteger int

func (n storedInteger) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.Itoa(int(n)))
}

func (n *storedInteger) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = strings.TrimSpace(unquoted)
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("quantity %s: %w", data, err)
	}
	*n = storedInteger(v)
	return nil
}

// EncodeCart serializes the whole cart to its persisted JSON array form.
func EncodeCart(c Cart) ([]byte, error) {
	lines := make([]storedLine, 0, len(c.Lines))
	for _, l := range c.Lines {
		lines = append(lines, storedLine{ProductID: l.ProductID, Quantity: storedInteger(l.Quantity), Color: l.Color})
	}
	return json.Marshal(lines)
}

// DecodeCart parses a persisted cart. Anything other than a JSON array of
// lines is an error; out-of-range quantities are clamped.
func DecodeCart(data []byte) (Cart, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return Cart{}, fmt.Errorf("decode cart: not a json array")
	}
	var lines []storedLine
	if err := json.Unmarshal(trimmed, &lines); err != nil {
		return Cart{}, fmt.Errorf("decode cart: %w", err)
	}
	var c Cart
	for _, l := range lines {
		if l.ProductID == "" {
			return Cart{}, fmt.Errorf("decode cart: line without product id")
		}
		c.Lines = append(c.Lines, CartLine{
			ProductID: l.ProductID,
			Color:     l.Color,
			Quantity:  ClampQuantity(int(l.Quantity)),
		})
	}
	return c, nil
}
