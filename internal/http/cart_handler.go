package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Remor1s/emerald/internal/cart"
	"github.com/Remor1s/emerald/internal/catalog"
	"github.com/Remor1s/emerald/internal/middleware"
)

type CartHandler struct {
	carts    *cart.Store
	products catalog.Repository
}

func NewCartHandler(carts *cart.Store, products catalog.Repository) *CartHandler {
	return &CartHandler{carts: carts, products: products}
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"items": h.carts.Get(userID)})
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var body struct {
		ProductID int64 `json:"productId"`
		Qty       int   `json:"qty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	// qty is optional and defaults to a single unit
	if body.Qty == 0 {
		body.Qty = 1
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	items, err := h.carts.Add(ctx, userID, body.ProductID, body.Qty, h.priceLookup)
	if err != nil {
		switch {
		case errors.Is(err, cart.ErrInvalidProduct):
			writeError(w, http.StatusBadRequest, "invalid productId")
		case errors.Is(err, cart.ErrInvalidQuantity):
			writeError(w, http.StatusBadRequest, "invalid quantity")
		default:
			writeError(w, http.StatusInternalServerError, "failed to update cart")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	productID, err := strconv.ParseInt(r.PathValue("productId"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid productId")
		return
	}

	items := h.carts.Remove(userID, productID)
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// priceLookup captures the catalog price at the moment a line is first
// added; later catalog changes do not reprice existing lines.
func (h *CartHandler) priceLookup(ctx context.Context, productID int64) (int64, error) {
	p, err := h.products.GetByID(ctx, productID)
	if err != nil {
		return 0, err
	}
	if p == nil {
		return 0, cart.ErrInvalidProduct
	}
	return p.Price, nil
}
