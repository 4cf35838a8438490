package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Remor1s/emerald/internal/order"
	"github.com/Remor1s/emerald/internal/payment"
)

const checkoutBody = `{
	"customerName": "Ivan Petrov",
	"customerPhone": "+7 (900) 123-45-67",
	"deliveryAddress": "Moscow, Tverskaya 1",
	"promoCode": "SKIDKA"
}`

func TestCheckout_Success(t *testing.T) {
	env := newTestEnv()
	env.addToCart(t, "u1", 1, 2)

	req := withUser(httptest.NewRequest(http.MethodPost, "/api/orders/create",
		strings.NewReader(checkoutBody)), "u1")
	rr := routeThrough(env, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Order struct {
			ID          int64        `json:"id"`
			Status      order.Status `json:"status"`
			TotalAmount int64        `json:"totalAmount"`
			FinalAmount int64        `json:"finalAmount"`
		} `json:"order"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, int64(1), resp.Order.ID)
	assert.Equal(t, order.StatusCreated, resp.Order.Status)
	assert.Equal(t, int64(3980), resp.Order.TotalAmount)
	assert.Equal(t, int64(3582), resp.Order.FinalAmount)

	// the cart was consumed by the checkout
	assert.Empty(t, env.carts.Get("u1"))
}

func TestCheckout_EmptyCart(t *testing.T) {
	env := newTestEnv()

	req := withUser(httptest.NewRequest(http.MethodPost, "/api/orders/create",
		strings.NewReader(checkoutBody)), "u1")
	rr := routeThrough(env, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Empty(t, env.repo.orders())
}

func TestCheckout_ValidationErrors(t *testing.T) {
	env := newTestEnv()
	env.addToCart(t, "u1", 1, 1)

	req := withUser(httptest.NewRequest(http.MethodPost, "/api/orders/create",
		strings.NewReader(`{"customerName": "", "customerPhone": "12", "deliveryAddress": ""}`)), "u1")
	rr := routeThrough(env, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)

	var resp struct {
		Errors map[string]string `json:"errors"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Contains(t, resp.Errors, "customerName")
	assert.Contains(t, resp.Errors, "customerPhone")
	assert.Contains(t, resp.Errors, "deliveryAddress")

	// nothing committed
	assert.Empty(t, env.repo.orders())
	assert.Len(t, env.carts.Get("u1"), 1)
}

func TestCheckout_InvalidJSON(t *testing.T) {
	env := newTestEnv()

	req := withUser(httptest.NewRequest(http.MethodPost, "/api/orders/create",
		strings.NewReader(`{broken`)), "u1")
	rr := routeThrough(env, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func checkoutOrder(t *testing.T, env *testEnv, userID string) int64 {
	t.Helper()
	env.addToCart(t, userID, 1, 2)
	req := withUser(httptest.NewRequest(http.MethodPost, "/api/orders/create",
		strings.NewReader(checkoutBody)), userID)
	rr := routeThrough(env, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Order struct {
			ID int64 `json:"id"`
		} `json:"order"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	return resp.Order.ID
}

func TestRequestPayment_Success(t *testing.T) {
	env := newTestEnv()
	id := checkoutOrder(t, env, "u1")

	req := withUser(httptest.NewRequest(http.MethodPost, "/api/orders/1/payment",
		strings.NewReader(`{"returnUrl": "https://shop.example/return"}`)), "u1")
	rr := routeThrough(env, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		ID              string `json:"id"`
		Status          string `json:"status"`
		ConfirmationURL string `json:"confirmation_url"`
		OrderID         int64  `json:"orderId"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "pay-1", resp.ID)
	assert.Equal(t, "pending", resp.Status)
	assert.Equal(t, "https://pay.example/c", resp.ConfirmationURL)
	assert.Equal(t, id, resp.OrderID)

	stored := env.repo.get(id)
	assert.Equal(t, order.StatusPaymentPending, stored.Status)
	require.NotNil(t, stored.ProviderPaymentID)
	assert.Equal(t, "pay-1", *stored.ProviderPaymentID)
}

func TestRequestPayment_UnknownOrder(t *testing.T) {
	env := newTestEnv()

	req := withUser(httptest.NewRequest(http.MethodPost, "/api/orders/77/payment",
		strings.NewReader(`{}`)), "u1")
	rr := routeThrough(env, req)

	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRequestPayment_ConfigError(t *testing.T) {
	env := newTestEnv()
	env.gateway.err = payment.ErrConfig
	checkoutOrder(t, env, "u1")

	req := withUser(httptest.NewRequest(http.MethodPost, "/api/orders/1/payment",
		strings.NewReader(`{}`)), "u1")
	rr := routeThrough(env, req)

	require.Equal(t, http.StatusInternalServerError, rr.Code)

	var resp map[string]string
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "config_error", resp["error"])
}

func TestRequestPayment_MirrorsProviderStatus(t *testing.T) {
	env := newTestEnv()
	env.gateway.err = &payment.GatewayError{
		StatusCode: http.StatusUnauthorized,
		Message:    "Invalid credentials",
		Raw:        json.RawMessage(`{"description": "Invalid credentials"}`),
	}
	checkoutOrder(t, env, "u1")

	req := withUser(httptest.NewRequest(http.MethodPost, "/api/orders/1/payment",
		strings.NewReader(`{}`)), "u1")
	rr := routeThrough(env, req)

	require.Equal(t, http.StatusUnauthorized, rr.Code)

	var resp struct {
		Error   string          `json:"error"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "payment_error", resp.Error)
	assert.Equal(t, "Invalid credentials", resp.Message)
	assert.JSONEq(t, `{"description": "Invalid credentials"}`, string(resp.Details))

	// order keeps its prior status
	assert.Equal(t, order.StatusCreated, env.repo.get(1).Status)
}

func TestWebhook_PaymentSucceeded(t *testing.T) {
	env := newTestEnv()
	id := checkoutOrder(t, env, "u1")

	body := `{"event": "payment.succeeded", "object": {"id": "pay-5", "metadata": {"orderId": "1"}}}`
	req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", strings.NewReader(body))
	rr := routeThrough(env, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]bool
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.True(t, resp["received"])

	assert.Equal(t, order.StatusPaid, env.repo.get(id).Status)
}

func TestWebhook_RepeatedDeliveryIsNoOp(t *testing.T) {
	env := newTestEnv()
	id := checkoutOrder(t, env, "u1")

	body := `{"event": "payment.succeeded", "object": {"id": "pay-5", "metadata": {"orderId": "1"}}}`
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", strings.NewReader(body))
		rr := routeThrough(env, req)
		require.Equal(t, http.StatusOK, rr.Code)
	}

	assert.Equal(t, order.StatusPaid, env.repo.get(id).Status)
}

func TestWebhook_UnrecognizedEventAcknowledged(t *testing.T) {
	env := newTestEnv()
	id := checkoutOrder(t, env, "u1")

	body := `{"event": "refund.succeeded", "object": {"metadata": {"orderId": "1"}}}`
	req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", strings.NewReader(body))
	rr := routeThrough(env, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, order.StatusCreated, env.repo.get(id).Status)
}

func TestGetOrder_OwnerOnly(t *testing.T) {
	env := newTestEnv()
	checkoutOrder(t, env, "u1")

	req := withUser(httptest.NewRequest(http.MethodGet, "/api/orders/1", nil), "u1")
	rr := routeThrough(env, req)
	require.Equal(t, http.StatusOK, rr.Code)

	req = withUser(httptest.NewRequest(http.MethodGet, "/api/orders/1", nil), "intruder")
	rr = routeThrough(env, req)
	require.Equal(t, http.StatusForbidden, rr.Code)
}

func TestGetOrder_Unknown(t *testing.T) {
	env := newTestEnv()

	req := withUser(httptest.NewRequest(http.MethodGet, "/api/orders/123", nil), "u1")
	rr := routeThrough(env, req)

	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestListOrders_ForUser(t *testing.T) {
	env := newTestEnv()
	checkoutOrder(t, env, "u1")

	req := withUser(httptest.NewRequest(http.MethodGet, "/api/orders", nil), "u1")
	rr := routeThrough(env, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Orders []order.Order `json:"orders"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.Len(t, resp.Orders, 1)
	assert.Equal(t, "u1", resp.Orders[0].UserID)
}

func TestDeprecatedCreate_Gone(t *testing.T) {
	env := newTestEnv()

	req := withUser(httptest.NewRequest(http.MethodPost, "/api/orders",
		strings.NewReader(`{}`)), "u1")
	rr := routeThrough(env, req)

	require.Equal(t, http.StatusGone, rr.Code)

	var resp map[string]string
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "/api/orders/create", resp["redirect"])
}
