package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/Remor1s/emerald/internal/middleware"
	"github.com/Remor1s/emerald/internal/order"
	"github.com/Remor1s/emerald/internal/payment"
)

type OrderHandler struct {
	svc    *order.Service
	logger *log.Logger
}

func NewOrderHandler(svc *order.Service, logger *log.Logger) *OrderHandler {
	return &OrderHandler{svc: svc, logger: logger}
}

func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var body struct {
		CustomerName    string `json:"customerName"`
		CustomerPhone   string `json:"customerPhone"`
		DeliveryAddress string `json:"deliveryAddress"`
		PromoCode       string `json:"promoCode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.svc.Checkout(ctx, userID, order.CheckoutInput{
		CustomerName:    body.CustomerName,
		CustomerPhone:   body.CustomerPhone,
		DeliveryAddress: body.DeliveryAddress,
		PromoCode:       body.PromoCode,
	})
	if err != nil {
		var verr *order.ValidationError
		switch {
		case errors.As(err, &verr):
			writeJSON(w, http.StatusBadRequest, map[string]any{"errors": verr.Fields})
		case errors.Is(err, order.ErrEmptyCart):
			writeError(w, http.StatusBadRequest, "cart is empty")
		default:
			h.logger.Printf("checkout for user %s: %v", userID, err)
			writeError(w, http.StatusInternalServerError, "failed to create order")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"order": map[string]any{
			"id":          o.ID,
			"status":      o.Status,
			"totalAmount": o.TotalAmount,
			"finalAmount": o.FinalAmount,
		},
	})
}

func (h *OrderHandler) RequestPayment(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(r.PathValue("orderId"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid orderId")
		return
	}

	var body struct {
		ReturnURL string `json:"returnUrl"`
	}
	// Body is optional; a missing returnUrl falls back to configured default
	// inside the service wiring.
	_ = json.NewDecoder(r.Body).Decode(&body)

	// Generous timeout: the gateway call is bounded by its own client timeout.
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	o, session, err := h.svc.RequestPayment(ctx, orderID, body.ReturnURL)
	if err != nil {
		var gerr *payment.GatewayError
		switch {
		case errors.Is(err, order.ErrNotFound):
			writeError(w, http.StatusNotFound, "order not found")
		case errors.Is(err, payment.ErrConfig):
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error":   "config_error",
				"message": "payment credentials are not configured",
			})
		case errors.Is(err, order.ErrAlreadyPaid):
			writeError(w, http.StatusConflict, "order already paid")
		case errors.As(err, &gerr):
			// Mirror the provider's status so clients can distinguish
			// their own mistakes from provider refusals.
			writeJSON(w, gerr.StatusCode, map[string]any{
				"error":   "payment_error",
				"message": gerr.Message,
				"details": json.RawMessage(gerr.Raw),
			})
		default:
			h.logger.Printf("request payment for order %d: %v", orderID, err)
			writeError(w, http.StatusInternalServerError, "failed to create payment")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":               session.ProviderID,
		"status":           session.Status,
		"confirmation_url": session.ConfirmationURL,
		"orderId":          o.ID,
	})
}

func (h *OrderHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	var ev order.WebhookEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.svc.ConfirmPayment(ctx, ev); err != nil {
		// A genuine processing fault: return 500 so the provider redelivers.
		h.logger.Printf("webhook %s: %v", ev.Event, err)
		writeError(w, http.StatusInternalServerError, "webhook_error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}

func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	orders, err := h.svc.ListForUser(ctx, userID)
	if err != nil {
		h.logger.Printf("list orders for user %s: %v", userID, err)
		writeError(w, http.StatusInternalServerError, "failed to load orders")
		return
	}
	if orders == nil {
		orders = []order.Order{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(r.PathValue("orderId"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid orderId")
		return
	}

	userID := middleware.GetUserID(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.svc.GetForUser(ctx, orderID, userID)
	if err != nil {
		switch {
		case errors.Is(err, order.ErrNotFound):
			writeError(w, http.StatusNotFound, "order not found")
		case errors.Is(err, order.ErrForbidden):
			writeError(w, http.StatusForbidden, "access denied")
		default:
			h.logger.Printf("get order %d: %v", orderID, err)
			writeError(w, http.StatusInternalServerError, "failed to load order")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"order": o})
}

// DeprecatedCreate keeps the old endpoint alive for stale clients.
func (h *OrderHandler) DeprecatedCreate(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusGone, map[string]string{
		"error":    "deprecated",
		"message":  "use /api/orders/create",
		"redirect": "/api/orders/create",
	})
}
