package domain

// ProductSnapshot is the display data the catalog returns for one product.
type ProductSnapshot struct {
	ID          string   `json:"_id"`
	Name        string   `json:"name"`
	Price       int64    `json:"price"`
	ImageURL    string   `json:"imageUrl"`
	AltText     string   `json:"altTxt"`
	Colors      []string `json:"colors"`
	Description string   `json:"description"`
}

// HasColor reports whether color is one of the product's options.
func (p ProductSnapshot) HasColor(color string) bool {
	for _, c := range p.Colors {
		if c == color {
			return true
		}
	}
	return false
}
