package events

import "time"

// OrderItem mirrors the order snapshot line so consumers never depend on
// internal model packages.
type OrderItem struct {
	ProductID int64  `json:"productId"`
	Qty       int    `json:"qty"`
	UnitPrice int64  `json:"price"`
	Title     string `json:"title"`
	SKU       string `json:"sku"`
}

type OrderCreated struct {
	EventType   string      `json:"eventType"`
	OrderID     int64       `json:"orderId"`
	UserID      string      `json:"userId"`
	TotalAmount int64       `json:"totalAmount"`
	FinalAmount int64       `json:"finalAmount"`
	Items       []OrderItem `json:"items"`
	Timestamp   time.Time   `json:"timestamp"`
}

type OrderPaid struct {
	EventType         string    `json:"eventType"`
	OrderID           int64     `json:"orderId"`
	UserID            string    `json:"userId"`
	ProviderPaymentID string    `json:"providerPaymentId,omitempty"`
	Timestamp         time.Time `json:"timestamp"`
}
