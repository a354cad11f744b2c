package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/beautycare/backend/internal/domain"
)

// AddItemRequest adds a product to the cart; qty defaults to 1
type AddItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Qty       *int   `json:"qty,omitempty"`
}

// SetQtyRequest sets a line quantity; 0 removes the line
type SetQtyRequest struct {
	Qty *int `json:"qty" binding:"required"`
}

// SubstituteRequest replaces an out-of-stock line with an alternative
type SubstituteRequest struct {
	OldProductID string `json:"old_product_id" binding:"required"`
	NewProductID string `json:"new_product_id" binding:"required"`
}

// GetCart handles GET /api/v1/carts/:user_id
func (h *Handler) GetCart(c *gin.Context) {
	view, err := h.carts.View(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// ClearCart handles DELETE /api/v1/carts/:user_id
func (h *Handler) ClearCart(c *gin.Context) {
	if err := h.carts.Clear(c.Request.Context(), c.Param("user_id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AddItem handles POST /api/v1/carts/:user_id/items
func (h *Handler) AddItem(c *gin.Context) {
	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	qty := 1
	if req.Qty != nil {
		qty = *req.Qty
	}

	item, err := h.carts.Add(c.Request.Context(), c.Param("user_id"), req.ProductID, qty)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// SetItemQty handles PUT /api/v1/carts/:user_id/items/:product_id
func (h *Handler) SetItemQty(c *gin.Context) {
	var req SetQtyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	if err := h.carts.SetQty(c.Request.Context(), c.Param("user_id"), c.Param("product_id"), *req.Qty); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RemoveItem handles DELETE /api/v1/carts/:user_id/items/:product_id
func (h *Handler) RemoveItem(c *gin.Context) {
	if err := h.carts.Remove(c.Request.Context(), c.Param("user_id"), c.Param("product_id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RestoreItem handles POST /api/v1/carts/:user_id/restore
func (h *Handler) RestoreItem(c *gin.Context) {
	item, err := h.carts.RestoreLastRemoved(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// Substitute handles POST /api/v1/carts/:user_id/substitute
func (h *Handler) Substitute(c *gin.Context) {
	var req SubstituteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	item, err := h.carts.Substitute(c.Request.Context(), c.Param("user_id"), req.OldProductID, req.NewProductID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// Checkout handles POST /api/v1/carts/:user_id/checkout
func (h *Handler) Checkout(c *gin.Context) {
	links, err := h.carts.Checkout(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"links": links})
}

// CallbackRequest carries a token from a rendered chat button
type CallbackRequest struct {
	Token string `json:"token" binding:"required"`
}

// CallbackResponse echoes the action and carries whatever it produced
type CallbackResponse struct {
	Action domain.CallbackAction `json:"action"`
	Data   any                   `json:"data,omitempty"`
}

// ProductCard is the payload of rec:open
type ProductCard struct {
	Product  domain.Product `json:"product"`
	AddToken string         `json:"add_token,omitempty"`
}

// HandleCallback handles POST /api/v1/callbacks/:user_id
func (h *Handler) HandleCallback(c *gin.Context) {
	var req CallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	cb, err := domain.ParseCallback(req.Token)
	if err != nil {
		respondError(c, err)
		return
	}

	data, err := h.dispatch(c.Request.Context(), c.Param("user_id"), cb)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, CallbackResponse{Action: cb.Action, Data: data})
}

func (h *Handler) dispatch(ctx context.Context, userID string, cb domain.Callback) (any, error) {
	switch cb.Action {
	case domain.ActionCartAdd:
		return h.carts.Add(ctx, userID, cb.ProductID, 1)
	case domain.ActionCartInc:
		return h.carts.Increment(ctx, userID, cb.ProductID)
	case domain.ActionCartRemove:
		return nil, h.carts.Remove(ctx, userID, cb.ProductID)
	case domain.ActionCartDec:
		return nil, h.carts.Decrement(ctx, userID, cb.ProductID)
	case domain.ActionCartClear:
		return nil, h.carts.Clear(ctx, userID)
	case domain.ActionCartOpen:
		return h.carts.View(ctx, userID)
	case domain.ActionCartCheckout:
		links, err := h.carts.Checkout(ctx, userID)
		if err != nil {
			return nil, err
		}
		return gin.H{"links": links}, nil
	case domain.ActionRecOpen:
		p, ok := h.catalog.Snapshot().Get(cb.ProductID)
		if !ok {
			return nil, domain.ErrProductNotFound
		}
		token, _ := domain.CartAddToken(p.ID)
		return ProductCard{Product: p, AddToken: token}, nil
	case domain.ActionRecMore:
		return h.browse(ctx, userID, cb.Category, cb.Page)
	}
	return nil, domain.ErrInvalidCallback
}
