package seed

import (
	"context"
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
	"storefront/internal/domain"
)

//go:embed products.yaml
var productsYAML []byte

type ProductWriter interface {
	Upsert(ctx context.Context, product domain.ProductSnapshot) (*domain.ProductSnapshot, error)
}

type productSeed struct {
	ID          string   `yaml:"_id"`
	Name        string   `yaml:"name"`
	Price       int64    `yaml:"price"`
	ImageURL    string   `yaml:"imageUrl"`
	AltText     string   `yaml:"altTxt"`
	Colors      []string `yaml:"colors"`
	Description string   `yaml:"description"`
}

type seedFile struct {
	Products []productSeed `yaml:"products"`
}

// Products returns the demo catalog bundled with the binary.
func Products() ([]domain.ProductSnapshot, error) {
	return parse(productsYAML)
}

// Apply writes the demo catalog. It is idempotent: products are upserted by id.
func Apply(ctx context.Context, w ProductWriter) (int, error) {
	products, err := Products()
	if err != nil {
		return 0, err
	}
	for i, p := range products {
		if _, err := w.Upsert(ctx, p); err != nil {
			return i, fmt.Errorf("upsert product %s: %w", p.ID, err)
		}
	}
	return len(products), nil
}

func parse(raw []byte) ([]domain.ProductSnapshot, error) {
	var f seedFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	out := make([]domain.ProductSnapshot, 0, len(f.Products))
	for _, p := range f.Products {
		if p.ID == "" || p.Name == "" || len(p.Colors) == 0 {
			return nil, fmt.Errorf("invalid seed product %q", p.ID)
		}
		out = append(out, domain.ProductSnapshot{
			ID:          p.ID,
			Name:        p.Name,
			Price:       p.Price,
			ImageURL:    p.ImageURL,
			AltText:     p.AltText,
			Colors:      p.Colors,
			Description: p.Description,
		})
	}
	return out, nil
}
