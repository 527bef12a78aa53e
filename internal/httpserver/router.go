package httpserver

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"storefront/internal/domain"
	"storefront/internal/service/checkout"
	"storefront/internal/session"
	"storefront/internal/view"
)

//go:embed templates/*.html
var templatesFS embed.FS

type ProductCatalog interface {
	List(ctx context.Context) ([]domain.ProductSnapshot, error)
	Get(ctx context.Context, id string) (*domain.ProductSnapshot, error)
}

type CartService interface {
	Cart(ctx context.Context, sessionID string) (domain.Cart, error)
	AddOrMerge(ctx context.Context, sessionID string, line domain.CartLine) (domain.CartLine, error)
	SetQuantity(ctx context.Context, sessionID string, key domain.LineKey, quantity int) (int, error)
	Remove(ctx context.Context, sessionID string, key domain.LineKey) error
}

type CartRenderer interface {
	Cart(ctx context.Context, c domain.Cart) (view.CartView, error)
	Quantity(ctx context.Context, requested, stored int, c domain.Cart) (view.QuantityUpdate, error)
}

type ContactValidator interface {
	Validate(c domain.ContactInfo) checkout.Result
	ValidateField(field, value string) (string, error)
}

type OrderSubmitter interface {
	Submit(ctx context.Context, sessionID string, contact domain.ContactInfo) (string, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps groups the services the router depends on.
type Deps struct {
	Catalog   ProductCatalog
	CartSvc   CartService
	Renderer  CartRenderer
	Validator ContactValidator
	Orders    OrderSubmitter
	Sessions  *session.Manager
	Store     Pinger
	// CORSOrigins may send the session cookie to /api/cart. When empty, any
	// origin is allowed but without credentials, so each call starts a new
	// session.
	CORSOrigins []string
}

func (d Deps) validate() error {
	switch {
	case d.Catalog == nil:
		return errors.New("catalog required")
	case d.CartSvc == nil:
		return errors.New("cart service required")
	case d.Renderer == nil:
		return errors.New("renderer required")
	case d.Validator == nil:
		return errors.New("validator required")
	case d.Orders == nil:
		return errors.New("order submitter required")
	case d.Sessions == nil:
		return errors.New("session manager required")
	}
	return nil
}

// buildRouter wires the storefront pages, the cart API and health routes.
func buildRouter(logger *zap.Logger, deps Deps) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, fmt.Errorf("router deps: %w", err)
	}
	tmpl, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(gin.LoggerWithWriter(zap.NewStdLog(logger).Writer()), gin.Recovery())
	router.SetHTMLTemplate(tmpl)

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(deps.Store))

	h := &handlers{deps: deps, logger: logger}

	pages := router.Group("/", deps.Sessions.Middleware())
	pages.GET("/", h.index)
	pages.GET("/product", h.product)
	pages.POST("/product/add", h.addToCart)
	pages.GET("/cart", h.cartPage)
	pages.POST("/cart/quantity", h.updateQuantity)
	pages.POST("/cart/delete", h.deleteLine)
	pages.POST("/cart/order", h.placeOrder)
	pages.GET("/confirmation", h.confirmation)

	api := router.Group("/api/cart", corsMiddleware(deps.CORSOrigins), deps.Sessions.Middleware())
	api.GET("", h.apiCart)
	api.POST("/lines", h.apiAddLine)
	api.PATCH("/lines", h.apiSetQuantity)
	api.DELETE("/lines", h.apiRemoveLine)
	api.POST("/validate", h.apiValidateField)
	api.POST("/order", h.apiPlaceOrder)
	// Preflight requests only need to reach the CORS middleware.
	for _, path := range []string{"", "/lines", "/validate", "/order"} {
		api.OPTIONS(path, func(c *gin.Context) { c.Status(http.StatusNoContent) })
	}

	return router, nil
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

func parseTemplates() (*template.Template, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"euros": formatPrice,
	}).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return tmpl, nil
}

func formatPrice(v int64) string {
	return fmt.Sprintf("%d €", v)
}
