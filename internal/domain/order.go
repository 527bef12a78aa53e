package domain

// ContactInfo holds the checkout form fields.
type ContactInfo struct {
	FirstName string `json:"firstName" form:"firstName"`
	LastName  string `json:"lastName" form:"lastName"`
	Address   string `json:"address" form:"address"`
	City      string `json:"city" form:"city"`
	Email     string `json:"email" form:"email"`
}

// Order is the payload posted to the catalog. Products carries one id per
// cart line; quantities and colors are not part of it.
type Order struct {
	Contact  ContactInfo `json:"contact"`
	Products []string    `json:"products"`
}

type OrderConfirmation struct {
	OrderID  string            `json:"orderId"`
	Contact  ContactInfo       `json:"contact"`
	Products []ProductSnapshot `json:"products,omitempty"`
}
