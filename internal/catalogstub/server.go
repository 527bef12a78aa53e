// Package catalogstub serves a local stand-in for the remote product API,
// with the same routes and JSON shapes.
package catalogstub

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"storefront/internal/domain"
	productsvc "storefront/internal/service/product"
)

type handler struct {
	products *productsvc.Service
	logger   *zap.Logger
}

// NewRouter builds the stub API under /api.
func NewRouter(products *productsvc.Service, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	router := gin.New()
	router.Use(gin.LoggerWithWriter(zap.NewStdLog(logger).Writer()), gin.Recovery())
	router.Use(cors.Default())

	h := &handler{products: products, logger: logger}
	api := router.Group("/api/products")
	api.GET("", h.list)
	api.POST("/order", h.order)
	api.GET("/:id", h.get)
	return router
}

func (h *handler) list(c *gin.Context) {
	products, err := h.products.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list products", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *handler) get(c *gin.Context) {
	p, err := h.products.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		h.logger.Error("get product", zap.String("id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *handler) order(c *gin.Context) {
	var req domain.Order
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	conf, err := h.products.PlaceOrder(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, productsvc.ErrContactRequired),
			errors.Is(err, productsvc.ErrProductsRequired),
			errors.Is(err, productsvc.ErrUnknownProduct):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.logger.Error("place order", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
		return
	}
	h.logger.Info("order accepted", zap.String("order_id", conf.OrderID), zap.Int("products", len(conf.Products)))
	c.JSON(http.StatusCreated, conf)
}
