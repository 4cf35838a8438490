package order

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/Remor1s/emerald/internal/cart"
	"github.com/Remor1s/emerald/internal/catalog"
	"github.com/Remor1s/emerald/internal/payment"
	"github.com/Remor1s/emerald/internal/pricing"
)

var (
	// ErrEmptyCart rejects a checkout with nothing to charge.
	ErrEmptyCart = errors.New("cart is empty")

	// ErrNotFound marks an unknown order id.
	ErrNotFound = errors.New("order not found")

	// ErrAlreadyPaid refuses a payment session for a terminal order.
	ErrAlreadyPaid = errors.New("order already paid")

	// ErrForbidden marks an order access by a non-owner.
	ErrForbidden = errors.New("order belongs to another user")
)

// ValidationError carries field-keyed problems with a checkout request.
// No partial order is created when it is returned.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	return "invalid checkout fields: " + strings.Join(keys, ", ")
}

// PaymentGateway is the slice of the payment client the service needs.
type PaymentGateway interface {
	CreateSession(ctx context.Context, req payment.SessionRequest) (*payment.Session, error)
}

// EventPublisher emits lifecycle events. Satisfied by events.Publisher.
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, o *Order) error
	PublishOrderPaid(ctx context.Context, o *Order) error
}

// CheckoutInput is the customer-supplied part of a checkout.
type CheckoutInput struct {
	CustomerName    string
	CustomerPhone   string
	DeliveryAddress string
	PromoCode       string
}

// WebhookEvent is the provider's asynchronous payment notification.
type WebhookEvent struct {
	Event  string        `json:"event"`
	Object WebhookObject `json:"object"`
}

type WebhookObject struct {
	ID       string            `json:"id"`
	Status   string            `json:"status"`
	Metadata map[string]string `json:"metadata"`
}

// Service drives the order lifecycle: cart to order at checkout, order to
// payment session on request, and webhook events to status transitions.
type Service struct {
	carts    *cart.Store
	products catalog.Repository
	repo     Repository
	gateway  PaymentGateway
	events   EventPublisher
	logger   *log.Logger
}

func NewService(carts *cart.Store, products catalog.Repository, repo Repository, gateway PaymentGateway, events EventPublisher, logger *log.Logger) *Service {
	return &Service{
		carts:    carts,
		products: products,
		repo:     repo,
		gateway:  gateway,
		events:   events,
		logger:   logger,
	}
}

// Checkout turns the user's mutable cart into an immutable priced order.
// Creating the order row is the commit point: the cart is cleared as soon
// as the row exists, and a later payment-creation failure does not restore
// it. Cart consumption is at-most-once.
func (s *Service) Checkout(ctx context.Context, userID string, in CheckoutInput) (*Order, error) {
	if err := validateCheckout(in); err != nil {
		return nil, err
	}

	lines := s.carts.Get(userID)
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	quote := pricing.Price(lines, in.PromoCode)

	items, err := s.snapshotItems(ctx, lines)
	if err != nil {
		return nil, err
	}

	o := &Order{
		UserID:          userID,
		TotalAmount:     quote.Total,
		DiscountAmount:  quote.Discount,
		FinalAmount:     quote.Payable,
		Items:           items,
		DeliveryAddress: in.DeliveryAddress,
		CustomerName:    in.CustomerName,
		CustomerPhone:   in.CustomerPhone,
	}
	if code := strings.TrimSpace(in.PromoCode); code != "" {
		o.PromoCode = &code
	}

	if err := s.repo.Create(ctx, o); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.carts.Clear(userID)

	if err := s.events.PublishOrderCreated(ctx, o); err != nil {
		s.logger.Printf("publish OrderCreated for order %d: %v", o.ID, err)
	}

	return o, nil
}

// RequestPayment opens a provider payment session for an existing order and
// moves it to PAYMENT_PENDING. On gateway failure the order keeps its prior
// status; the caller retries later, there is no automatic retry here.
func (s *Service) RequestPayment(ctx context.Context, orderID int64, returnURL string) (*Order, *payment.Session, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, nil, fmt.Errorf("load order: %w", err)
	}
	if o == nil {
		return nil, nil, ErrNotFound
	}
	if !o.Status.CanTransition(StatusPaymentPending) {
		return nil, nil, ErrAlreadyPaid
	}

	session, err := s.gateway.CreateSession(ctx, payment.SessionRequest{
		OrderID:   o.ID,
		UserID:    o.UserID,
		Amount:    o.FinalAmount,
		ReturnURL: returnURL,
	})
	if err != nil {
		return nil, nil, err
	}

	o, err = s.repo.SetStatus(ctx, o.ID, StatusPaymentPending, &session.ProviderID)
	if err != nil {
		return nil, nil, fmt.Errorf("mark payment pending: %w", err)
	}

	return o, session, nil
}

// ConfirmPayment consumes a provider webhook. Only payment.succeeded acts
// on an order; every other event kind is acknowledged and ignored so the
// provider does not retry-storm event types we never handle. PAID is set
// from any prior state, and a repeated delivery is a no-op.
func (s *Service) ConfirmPayment(ctx context.Context, ev WebhookEvent) error {
	if ev.Event != "payment.succeeded" {
		return nil
	}

	raw, ok := ev.Object.Metadata["orderId"]
	if !ok {
		return nil
	}
	orderID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		s.logger.Printf("webhook: unparseable orderId %q", raw)
		return nil
	}

	var providerID *string
	if ev.Object.ID != "" {
		providerID = &ev.Object.ID
	}

	o, err := s.repo.SetStatus(ctx, orderID, StatusPaid, providerID)
	if err != nil {
		return fmt.Errorf("mark paid: %w", err)
	}
	if o == nil {
		s.logger.Printf("webhook: payment.succeeded for unknown order %d", orderID)
		return nil
	}

	if err := s.events.PublishOrderPaid(ctx, o); err != nil {
		s.logger.Printf("publish OrderPaid for order %d: %v", o.ID, err)
	}

	return nil
}

// GetForUser loads one order, enforcing that the requester owns it.
func (s *Service) GetForUser(ctx context.Context, orderID int64, userID string) (*Order, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}
	if o == nil {
		return nil, ErrNotFound
	}
	if o.UserID != userID {
		return nil, ErrForbidden
	}
	return o, nil
}

// ListForUser returns the user's order history, most recent first.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]Order, error) {
	return s.repo.ListByUser(ctx, userID)
}

// snapshotItems resolves titles and skus at this instant; the snapshot no
// longer tracks later catalog edits.
func (s *Service) snapshotItems(ctx context.Context, lines []cart.Line) ([]Item, error) {
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	byID := make(map[int64]catalog.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	items := make([]Item, 0, len(lines))
	for _, l := range lines {
		it := Item{
			ProductID: l.ProductID,
			Qty:       l.Qty,
			UnitPrice: l.UnitPrice,
			Title:     fmt.Sprintf("Товар %d", l.ProductID),
			SKU:       fmt.Sprintf("SKU-%d", l.ProductID),
		}
		if p, ok := byID[l.ProductID]; ok {
			it.Title = p.Title
			it.SKU = p.SKU
		}
		items = append(items, it)
	}
	return items, nil
}

func validateCheckout(in CheckoutInput) error {
	fields := make(map[string]string)

	if strings.TrimSpace(in.CustomerName) == "" {
		fields["customerName"] = "required"
	}
	if strings.TrimSpace(in.DeliveryAddress) == "" {
		fields["deliveryAddress"] = "required"
	}
	switch {
	case strings.TrimSpace(in.CustomerPhone) == "":
		fields["customerPhone"] = "required"
	case !validPhone(in.CustomerPhone):
		fields["customerPhone"] = "invalid phone number"
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// validPhone accepts an optional leading +, then digits, spaces, hyphens
// and parentheses, requiring at least 10 digits overall.
func validPhone(phone string) bool {
	phone = strings.TrimSpace(phone)
	digits := 0
	for i, r := range phone {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '+':
			if i != 0 {
				return false
			}
		case r == ' ' || r == '-' || r == '(' || r == ')':
		default:
			return false
		}
	}
	return digits >= 10
}
