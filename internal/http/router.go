package http

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/Remor1s/emerald/internal/cart"
	"github.com/Remor1s/emerald/internal/catalog"
	"github.com/Remor1s/emerald/internal/metrics"
	"github.com/Remor1s/emerald/internal/middleware"
	"github.com/Remor1s/emerald/internal/order"
)

type RouterDeps struct {
	Carts    *cart.Store
	Products catalog.Repository
	Orders   *order.Service
	AdminKey string

	CORSAllowOrigins []string
	Metrics          *metrics.ServerMetrics
	Logger           *log.Logger
}

func NewRouter(deps RouterDeps) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", healthHandler)
	mux.Handle("GET /metrics", metrics.Handler())

	ch := NewCatalogHandler(deps.Products)
	mux.HandleFunc("GET /api/products", ch.ListProducts)
	mux.HandleFunc("GET /api/products/{id}", ch.GetProduct)

	carth := NewCartHandler(deps.Carts, deps.Products)
	mux.HandleFunc("GET /api/cart", carth.GetCart)
	mux.HandleFunc("POST /api/cart", carth.AddItem)
	mux.HandleFunc("DELETE /api/cart/{productId}", carth.RemoveItem)

	oh := NewOrderHandler(deps.Orders, deps.Logger)
	mux.HandleFunc("POST /api/orders/create", oh.Checkout)
	mux.HandleFunc("POST /api/orders/{orderId}/payment", oh.RequestPayment)
	mux.HandleFunc("POST /api/payments/webhook", oh.Webhook)
	mux.HandleFunc("GET /api/orders", oh.ListOrders)
	mux.HandleFunc("GET /api/orders/{orderId}", oh.GetOrder)
	mux.HandleFunc("POST /api/orders", oh.DeprecatedCreate)

	admin := NewAdminHandler(deps.Products)
	adminMux := http.NewServeMux()
	adminMux.HandleFunc("PUT /api/admin/products", admin.ReplaceProducts)
	adminMux.HandleFunc("POST /api/admin/products", admin.CreateProduct)
	adminMux.HandleFunc("PUT /api/admin/products/{id}", admin.UpdateProduct)
	adminMux.HandleFunc("DELETE /api/admin/products/{id}", admin.DeleteProduct)
	mux.Handle("/api/admin/", middleware.AdminKey(deps.AdminKey)(adminMux))

	var handler http.Handler = mux
	if deps.Metrics != nil {
		handler = deps.Metrics.Instrument(handler)
	}
	handler = middleware.UserID(handler)
	handler = middleware.CORS(deps.CORSAllowOrigins)(handler)
	handler = middleware.CorrelationID(handler)
	handler = middleware.Recover(deps.Logger)(handler)

	return handler
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "emerald",
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
