// Package payment talks to the YooKassa payments API. It creates
// redirect-confirmation payment sessions for orders; the asynchronous
// outcome comes back through the provider webhook, not through this client.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// ErrConfig is returned when the shop credentials are missing. This is
// checked before any network call is attempted.
var ErrConfig = errors.New("payment credentials not configured")

// GatewayError carries the provider's rejection back to the caller,
// including the raw payload for diagnostics.
type GatewayError struct {
	StatusCode int
	Message    string
	Raw        json.RawMessage
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("payment gateway: %s (http %d)", e.Message, e.StatusCode)
}

// SessionRequest carries everything the provider needs to open a payment
// session for an order. Amount is in integer minor currency units.
type SessionRequest struct {
	OrderID   int64
	UserID    string
	Amount    int64
	ReturnURL string
}

// Session is the provider-side payment session created for an order.
// ConfirmationURL may be empty on an otherwise successful response; callers
// must treat that as a degraded success, not a failure.
type Session struct {
	ProviderID      string
	Status          string
	ConfirmationURL string
}

type Client struct {
	baseURL          string
	shopID           string
	secretKey        string
	defaultReturnURL string
	http             *http.Client
}

// NewClient builds a YooKassa client. httpClient must carry a finite
// timeout; provider latency surfaces as a GatewayError, never as a hang.
func NewClient(baseURL, shopID, secretKey, defaultReturnURL string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:          strings.TrimRight(baseURL, "/"),
		shopID:           shopID,
		secretKey:        secretKey,
		defaultReturnURL: defaultReturnURL,
		http:             httpClient,
	}
}

// Configured reports whether both credentials are present.
func (c *Client) Configured() bool {
	return c.shopID != "" && c.secretKey != ""
}

type sessionRequest struct {
	Amount       amount            `json:"amount"`
	Capture      bool              `json:"capture"`
	Confirmation confirmation      `json:"confirmation"`
	Description  string            `json:"description"`
	Metadata     map[string]string `json:"metadata"`
}

type amount struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

type confirmation struct {
	Type            string `json:"type"`
	ReturnURL       string `json:"return_url,omitempty"`
	ConfirmationURL string `json:"confirmation_url,omitempty"`
}

type sessionResponse struct {
	ID           string        `json:"id"`
	Status       string        `json:"status"`
	Confirmation *confirmation `json:"confirmation"`
}

// CreateSession asks the provider for a redirect payment session covering
// the order's payable amount. Metadata values are flat strings only; the
// provider rejects nested structures.
func (c *Client) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	if !c.Configured() {
		return nil, ErrConfig
	}

	returnURL := req.ReturnURL
	if returnURL == "" {
		returnURL = c.defaultReturnURL
	}

	body := sessionRequest{
		Amount:       amount{Value: MajorUnits(req.Amount), Currency: "RUB"},
		Capture:      true,
		Confirmation: confirmation{Type: "redirect", ReturnURL: returnURL},
		Description:  fmt.Sprintf("Оплата заказа №%d", req.OrderID),
		Metadata: map[string]string{
			"orderId":     fmt.Sprintf("%d", req.OrderID),
			"userId":      req.UserID,
			"orderNumber": fmt.Sprintf("ORDER-%d", req.OrderID),
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal payment request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/payments", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build payment request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Idempotence-Key", idempotenceKey())
	httpReq.SetBasicAuth(c.shopID, c.secretKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, &GatewayError{StatusCode: http.StatusBadGateway, Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read payment response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &GatewayError{
			StatusCode: resp.StatusCode,
			Message:    extractMessage(raw),
			Raw:        raw,
		}
	}

	var data sessionResponse
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode payment response: %w", err)
	}

	s := &Session{ProviderID: data.ID, Status: data.Status}
	if data.Confirmation != nil {
		s.ConfirmationURL = data.Confirmation.ConfirmationURL
	}
	return s, nil
}

// MajorUnits renders integer minor units as the provider's two-decimal
// major-unit string, e.g. 3582 -> "35.82".
func MajorUnits(minor int64) string {
	if minor < 0 {
		minor = 0
	}
	return fmt.Sprintf("%d.%02d", minor/100, minor%100)
}

// idempotenceKey is unique per call within a process run.
func idempotenceKey() string {
	return uuid.NewString()
}

// errorBody is the provider's heterogeneous error shape. The human-readable
// message may live in description, message, or a list of sub-errors.
type errorBody struct {
	Description string `json:"description"`
	Message     string `json:"message"`
	Errors      []struct {
		Description string `json:"description"`
		Code        string `json:"code"`
	} `json:"errors"`
}

func extractMessage(raw []byte) string {
	var body errorBody
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Description != "" {
			return body.Description
		}
		if body.Message != "" {
			return body.Message
		}
		var parts []string
		for _, e := range body.Errors {
			switch {
			case e.Description != "":
				parts = append(parts, e.Description)
			case e.Code != "":
				parts = append(parts, e.Code)
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, "; ")
		}
	}
	return "payment provider error"
}
