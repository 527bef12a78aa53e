package httpserver

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"storefront/internal/catalog"
	"storefront/internal/domain"
	cartsvc "storefront/internal/service/cart"
	"storefront/internal/service/order"
	"storefront/internal/session"
	"storefront/internal/view"
)

const (
	msgCatalogDown   = "Le catalogue est momentanément indisponible, veuillez réessayer."
	msgOrderFailed   = "La commande n'a pas pu être envoyée, veuillez réessayer."
	msgOrderPending  = "Une commande est déjà en cours d'envoi."
	msgChooseColor   = "Veuillez choisir une couleur"
	msgChooseQty     = "Veuillez choisir une quantité entre 1 et 100"
	msgProductAbsent = "Ce produit n'existe pas."
	msgInternal      = "Une erreur est survenue."
)

type handlers struct {
	deps   Deps
	logger *zap.Logger
}

func sessionID(c *gin.Context) (string, bool) {
	id, err := session.IDFrom(c.Request.Context())
	if err != nil {
		return "", false
	}
	return id, true
}

// cartCount is the header badge. Store errors only hide the badge.
func (h *handlers) cartCount(c *gin.Context, sid string) int {
	cart, err := h.deps.CartSvc.Cart(c.Request.Context(), sid)
	if err != nil {
		h.logger.Warn("load cart for header", zap.Error(err))
		return 0
	}
	return cart.TotalQuantity()
}

func (h *handlers) renderError(c *gin.Context, status int, sid, msg string) {
	c.HTML(status, "error.html", errorPage{Title: "Kanap", CartCount: h.cartCount(c, sid), Message: msg})
}

func (h *handlers) index(c *gin.Context) {
	sid, ok := sessionID(c)
	if !ok {
		c.Status(http.StatusInternalServerError)
		return
	}
	page := indexPage{Title: "Kanap", CartCount: h.cartCount(c, sid)}
	products, err := h.deps.Catalog.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list products", zap.Error(err))
		page.Error = msgCatalogDown
		c.HTML(http.StatusBadGateway, "index.html", page)
		return
	}
	page.Products = products
	c.HTML(http.StatusOK, "index.html", page)
}

func (h *handlers) product(c *gin.Context) {
	sid, ok := sessionID(c)
	if !ok {
		c.Status(http.StatusInternalServerError)
		return
	}
	p, status, msg := h.loadProduct(c, c.Query("id"))
	if p == nil {
		h.renderError(c, status, sid, msg)
		return
	}
	c.HTML(http.StatusOK, "product.html", productPage{
		Title:     p.Name,
		CartCount: h.cartCount(c, sid),
		Product:   p,
		Quantity:  domain.MinQuantity,
	})
}

func (h *handlers) addToCart(c *gin.Context) {
	sid, ok := sessionID(c)
	if !ok {
		c.Status(http.StatusInternalServerError)
		return
	}
	var form lineForm
	if err := c.ShouldBind(&form); err != nil {
		h.renderError(c, http.StatusBadRequest, sid, msgProductAbsent)
		return
	}
	p, status, msg := h.loadProduct(c, form.ID)
	if p == nil {
		h.renderError(c, status, sid, msg)
		return
	}

	page := productPage{Title: p.Name, Product: p, Color: form.Color, Quantity: domain.MinQuantity}
	q, ok := form.quantity()
	switch {
	case !p.HasColor(form.Color):
		page.Error = msgChooseColor
	case !ok || q < domain.MinQuantity:
		page.Error = msgChooseQty
	}
	if page.Error != "" {
		if ok {
			page.Quantity = q
		}
		page.CartCount = h.cartCount(c, sid)
		c.HTML(http.StatusUnprocessableEntity, "product.html", page)
		return
	}

	line := domain.CartLine{ProductID: p.ID, Color: form.Color, Quantity: q}
	if _, err := h.deps.CartSvc.AddOrMerge(c.Request.Context(), sid, line); err != nil {
		h.logger.Error("add to cart", zap.String("product_id", p.ID), zap.Error(err))
		h.renderError(c, http.StatusInternalServerError, sid, msgInternal)
		return
	}
	page.Quantity = q
	page.Notice = addedNotice(domain.ClampQuantity(q))
	page.CartCount = h.cartCount(c, sid)
	c.HTML(http.StatusOK, "product.html", page)
}

// loadProduct fetches a product for a page, mapping failures to a status and
// a message.
func (h *handlers) loadProduct(c *gin.Context, id string) (*domain.ProductSnapshot, int, string) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, http.StatusNotFound, msgProductAbsent
	}
	p, err := h.deps.Catalog.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, http.StatusNotFound, msgProductAbsent
		}
		h.logger.Error("get product", zap.String("product_id", id), zap.Error(err))
		return nil, http.StatusBadGateway, msgCatalogDown
	}
	return p, http.StatusOK, ""
}

func (h *handlers) cartPage(c *gin.Context) {
	sid, ok := sessionID(c)
	if !ok {
		c.Status(http.StatusInternalServerError)
		return
	}
	h.renderCart(c, http.StatusOK, sid, domain.ContactInfo{}, nil, "")
}

func (h *handlers) renderCart(c *gin.Context, status int, sid string, contact domain.ContactInfo, errs map[string]string, banner string) {
	ctx := c.Request.Context()
	cart, err := h.deps.CartSvc.Cart(ctx, sid)
	if err != nil {
		h.logger.Error("load cart", zap.Error(err))
		h.renderError(c, http.StatusInternalServerError, sid, msgInternal)
		return
	}
	v, err := h.deps.Renderer.Cart(ctx, cart)
	if err != nil {
		h.logger.Error("render cart", zap.Error(err))
		h.renderError(c, http.StatusInternalServerError, sid, msgInternal)
		return
	}
	if banner == "" && len(v.Failed) > 0 {
		banner = msgCatalogDown
	}
	c.HTML(status, "cart.html", cartPage{
		Title:     "Panier",
		CartCount: cart.TotalQuantity(),
		View:      v,
		Form:      contactForm(contact, errs),
		Banner:    banner,
	})
}

func (h *handlers) updateQuantity(c *gin.Context) {
	sid, ok := sessionID(c)
	if !ok {
		c.Status(http.StatusInternalServerError)
		return
	}
	var form lineForm
	if err := c.ShouldBind(&form); err != nil {
		c.Redirect(http.StatusSeeOther, "/cart")
		return
	}
	q, ok := form.quantity()
	if !ok {
		c.Redirect(http.StatusSeeOther, "/cart")
		return
	}
	if _, err := h.deps.CartSvc.SetQuantity(c.Request.Context(), sid, form.key(), q); err != nil && !errors.Is(err, domain.ErrNotFound) {
		h.logger.Error("set quantity", zap.String("product_id", form.ID), zap.Error(err))
		h.renderError(c, http.StatusInternalServerError, sid, msgInternal)
		return
	}
	c.Redirect(http.StatusSeeOther, "/cart")
}

func (h *handlers) deleteLine(c *gin.Context) {
	sid, ok := sessionID(c)
	if !ok {
		c.Status(http.StatusInternalServerError)
		return
	}
	var form lineForm
	if err := c.ShouldBind(&form); err != nil {
		c.Redirect(http.StatusSeeOther, "/cart")
		return
	}
	if err := h.deps.CartSvc.Remove(c.Request.Context(), sid, form.key()); err != nil && !errors.Is(err, domain.ErrNotFound) {
		h.logger.Error("remove line", zap.String("product_id", form.ID), zap.Error(err))
		h.renderError(c, http.StatusInternalServerError, sid, msgInternal)
		return
	}
	c.Redirect(http.StatusSeeOther, "/cart")
}

func (h *handlers) placeOrder(c *gin.Context) {
	sid, ok := sessionID(c)
	if !ok {
		c.Status(http.StatusInternalServerError)
		return
	}
	var contact domain.ContactInfo
	if err := c.ShouldBind(&contact); err != nil {
		h.renderCart(c, http.StatusBadRequest, sid, contact, nil, msgInternal)
		return
	}

	orderID, err := h.deps.Orders.Submit(c.Request.Context(), sid, contact)
	if err != nil {
		status, banner, fields := h.orderFailure(err)
		h.renderCart(c, status, sid, contact, fields, banner)
		return
	}
	c.Redirect(http.StatusSeeOther, "/confirmation?orderId="+url.QueryEscape(orderID))
}

// orderFailure maps a submission error to a status, a banner and field
// messages.
func (h *handlers) orderFailure(err error) (int, string, map[string]string) {
	var verr *order.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity, "", verr.Fields
	case errors.Is(err, domain.ErrEmptyCart):
		return http.StatusUnprocessableEntity, view.EmptyCartMessage, nil
	case errors.Is(err, order.ErrSubmitInProgress):
		return http.StatusConflict, msgOrderPending, nil
	case errors.Is(err, catalog.ErrUnavailable):
		return http.StatusBadGateway, msgOrderFailed, nil
	}
	h.logger.Error("place order", zap.Error(err))
	return http.StatusInternalServerError, msgInternal, nil
}

func (h *handlers) confirmation(c *gin.Context) {
	sid, ok := sessionID(c)
	if !ok {
		c.Status(http.StatusInternalServerError)
		return
	}
	orderID := strings.TrimSpace(c.Query("orderId"))
	if orderID == "" {
		c.Redirect(http.StatusSeeOther, "/cart")
		return
	}
	c.HTML(http.StatusOK, "confirmation.html", confirmationPage{
		Title:     "Confirmation",
		CartCount: h.cartCount(c, sid),
		OrderID:   orderID,
	})
}

// lineError maps cart service input errors for the JSON API.
func lineError(err error) (int, bool) {
	switch {
	case errors.Is(err, cartsvc.ErrProductRequired),
		errors.Is(err, cartsvc.ErrColorRequired),
		errors.Is(err, cartsvc.ErrInvalidQuantity):
		return http.StatusBadRequest, true
	}
	return 0, false
}
