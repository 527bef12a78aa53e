package httpserver

import (
	"strconv"
	"strings"

	"storefront/internal/domain"
	"storefront/internal/service/checkout"
	"storefront/internal/view"
)

// lineForm is posted by the product and cart pages.
type lineForm struct {
	ID       string `form:"id" binding:"required"`
	Color    string `form:"color"`
	Quantity string `form:"quantity"`
}

func (f lineForm) key() domain.LineKey {
	return domain.LineKey{ProductID: strings.TrimSpace(f.ID), Color: f.Color}
}

// quantity parses the raw control value. Non-numeric input is rejected;
// range is enforced by the cart.
func (f lineForm) quantity() (int, bool) {
	q, err := strconv.Atoi(strings.TrimSpace(f.Quantity))
	if err != nil {
		return 0, false
	}
	return q, true
}

type lineRequest struct {
	ID       string `json:"id" binding:"required"`
	Color    string `json:"color" binding:"required"`
	Quantity int    `json:"quantity"`
}

func (r lineRequest) key() domain.LineKey {
	return domain.LineKey{ProductID: strings.TrimSpace(r.ID), Color: r.Color}
}

type fieldRequest struct {
	Field string `json:"field" binding:"required"`
	Value string `json:"value"`
}

type fieldResponse struct {
	Field   string `json:"field"`
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

type lineResponse struct {
	Line          domain.CartLine `json:"line"`
	TotalQuantity int             `json:"totalQuantity"`
}

type orderResponse struct {
	OrderID string `json:"orderId"`
}

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// productPage feeds templates/product.html.
type productPage struct {
	Title     string
	CartCount int
	Product   *domain.ProductSnapshot
	Quantity  int
	Color     string
	Notice    string
	Error     string
}

// cartPage feeds templates/cart.html.
type cartPage struct {
	Title     string
	CartCount int
	View      view.CartView
	Form      []formField
	Banner    string
}

type formField struct {
	Name  string
	Label string
	Type  string
	Value string
	Error string
}

type indexPage struct {
	Title     string
	CartCount int
	Products  []domain.ProductSnapshot
	Error     string
}

type confirmationPage struct {
	Title     string
	CartCount int
	OrderID   string
}

type errorPage struct {
	Title     string
	CartCount int
	Message   string
}

var fieldLabels = map[string]string{
	checkout.FieldFirstName: "Prénom",
	checkout.FieldLastName:  "Nom",
	checkout.FieldAddress:   "Adresse",
	checkout.FieldCity:      "Ville",
	checkout.FieldEmail:     "Email",
}

// contactForm lays the checkout fields out for the template.
func contactForm(c domain.ContactInfo, errs map[string]string) []formField {
	values := map[string]string{
		checkout.FieldFirstName: c.FirstName,
		checkout.FieldLastName:  c.LastName,
		checkout.FieldAddress:   c.Address,
		checkout.FieldCity:      c.City,
		checkout.FieldEmail:     c.Email,
	}
	out := make([]formField, 0, len(checkout.Fields))
	for _, name := range checkout.Fields {
		typ := "text"
		if name == checkout.FieldEmail {
			typ = "email"
		}
		out = append(out, formField{
			Name:  name,
			Label: fieldLabels[name],
			Type:  typ,
			Value: values[name],
			Error: errs[name],
		})
	}
	return out
}

// addedNotice renders "1 produit ajouté au panier !" with French plurals.
func addedNotice(q int) string {
	s := ""
	if q > 1 {
		s = "s"
	}
	return strconv.Itoa(q) + " produit" + s + " ajouté" + s + " au panier !"
}
