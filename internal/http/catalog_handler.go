package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/Remor1s/emerald/internal/catalog"
)

type CatalogHandler struct {
	products catalog.Repository
}

func NewCatalogHandler(products catalog.Repository) *CatalogHandler {
	return &CatalogHandler{products: products}
}

func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	items, err := h.products.List(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load products")
		return
	}
	if items == nil {
		items = []catalog.Product{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p, err := h.products.GetByID(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load product")
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}

	writeJSON(w, http.StatusOK, p)
}
