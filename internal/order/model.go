package order

import "time"

// Item is one snapshotted cart line, enriched with the product title and
// sku as they were at checkout. The snapshot is immutable once the order
// row exists.
type Item struct {
	ProductID int64  `json:"productId"`
	Qty       int    `json:"qty"`
	UnitPrice int64  `json:"price"`
	Title     string `json:"title"`
	SKU       string `json:"sku"`
}

// Order is one checkout, kept forever as an audit record. After creation
// only Status, ProviderPaymentID and UpdatedAt change.
type Order struct {
	ID                int64     `json:"id"`
	UserID            string    `json:"userId"`
	Status            Status    `json:"status"`
	TotalAmount       int64     `json:"totalAmount"`
	DiscountAmount    int64     `json:"discountAmount"`
	FinalAmount       int64     `json:"finalAmount"`
	Items             []Item    `json:"items"`
	DeliveryAddress   string    `json:"deliveryAddress"`
	CustomerName      string    `json:"customerName"`
	CustomerPhone     string    `json:"customerPhone"`
	PromoCode         *string   `json:"promoCode,omitempty"`
	ProviderPaymentID *string   `json:"providerPaymentId,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}
