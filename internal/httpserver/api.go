package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"storefront/internal/domain"
	"storefront/internal/service/checkout"
)

func (h *handlers) apiCart(c *gin.Context) {
	sid, ok := sessionID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "no session"})
		return
	}
	h.writeCartView(c, http.StatusOK, sid)
}

func (h *handlers) writeCartView(c *gin.Context, status int, sid string) {
	ctx := c.Request.Context()
	cart, err := h.deps.CartSvc.Cart(ctx, sid)
	if err != nil {
		h.logger.Error("load cart", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	v, err := h.deps.Renderer.Cart(ctx, cart)
	if err != nil {
		h.logger.Error("render cart", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	c.JSON(status, v)
}

func (h *handlers) apiAddLine(c *gin.Context) {
	sid, ok := sessionID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "no session"})
		return
	}
	var req lineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
		return
	}
	ctx := c.Request.Context()
	p, err := h.deps.Catalog.Get(ctx, strings.TrimSpace(req.ID))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, errorResponse{Error: "product not found"})
			return
		}
		h.logger.Error("get product", zap.String("product_id", req.ID), zap.Error(err))
		c.JSON(http.StatusBadGateway, errorResponse{Error: "catalog unavailable"})
		return
	}
	if !p.HasColor(req.Color) {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "unknown color"})
		return
	}

	line, err := h.deps.CartSvc.AddOrMerge(ctx, sid, domain.CartLine{ProductID: p.ID, Color: req.Color, Quantity: req.Quantity})
	if err != nil {
		if status, ok := lineError(err); ok {
			c.JSON(status, errorResponse{Error: err.Error()})
			return
		}
		h.logger.Error("add to cart", zap.String("product_id", p.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	cart, err := h.deps.CartSvc.Cart(ctx, sid)
	if err != nil {
		h.logger.Error("load cart", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	c.JSON(http.StatusCreated, lineResponse{Line: line, TotalQuantity: cart.TotalQuantity()})
}

// apiSetQuantity stores the clamped quantity and reports it back with the new
// totals. An absent line leaves the cart as is and returns the current view.
func (h *handlers) apiSetQuantity(c *gin.Context) {
	sid, ok := sessionID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "no session"})
		return
	}
	var req lineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
		return
	}
	ctx := c.Request.Context()
	stored, err := h.deps.CartSvc.SetQuantity(ctx, sid, req.key(), req.Quantity)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			h.writeCartView(c, http.StatusOK, sid)
			return
		}
		h.logger.Error("set quantity", zap.String("product_id", req.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	cart, err := h.deps.CartSvc.Cart(ctx, sid)
	if err != nil {
		h.logger.Error("load cart", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	update, err := h.deps.Renderer.Quantity(ctx, req.Quantity, stored, cart)
	if err != nil {
		h.logger.Error("render quantity", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	c.JSON(http.StatusOK, update)
}

func (h *handlers) apiRemoveLine(c *gin.Context) {
	sid, ok := sessionID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "no session"})
		return
	}
	key := domain.LineKey{ProductID: strings.TrimSpace(c.Query("id")), Color: c.Query("color")}
	if key.ProductID == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "id required"})
		return
	}
	if err := h.deps.CartSvc.Remove(c.Request.Context(), sid, key); err != nil && !errors.Is(err, domain.ErrNotFound) {
		h.logger.Error("remove line", zap.String("product_id", key.ProductID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	h.writeCartView(c, http.StatusOK, sid)
}

func (h *handlers) apiValidateField(c *gin.Context) {
	var req fieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
		return
	}
	msg, err := h.deps.Validator.ValidateField(req.Field, req.Value)
	if err != nil {
		if errors.Is(err, checkout.ErrUnknownField) {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "unknown field"})
			return
		}
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	c.JSON(http.StatusOK, fieldResponse{Field: req.Field, Valid: msg == "", Message: msg})
}

func (h *handlers) apiPlaceOrder(c *gin.Context) {
	sid, ok := sessionID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "no session"})
		return
	}
	var contact domain.ContactInfo
	if err := c.ShouldBindJSON(&contact); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
		return
	}
	orderID, err := h.deps.Orders.Submit(c.Request.Context(), sid, contact)
	if err != nil {
		status, msg, fields := h.orderFailure(err)
		if msg == "" {
			msg = "validation failed"
		}
		c.JSON(status, errorResponse{Error: msg, Fields: fields})
		return
	}
	c.JSON(http.StatusCreated, orderResponse{OrderID: orderID})
}
