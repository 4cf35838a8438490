package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrEmptyItems rejects orders created without a snapshot. The lifecycle
// service checks the cart first; this is the repository's own guard.
var ErrEmptyItems = errors.New("order has no items")

type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, orderID int64) (*Order, error)
	SetStatus(ctx context.Context, orderID int64, status Status, providerPaymentID *string) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
}

type repo struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repo{db: db}
}

const orderColumns = `id, user_id, status, total_amount, discount_amount, final_amount, items,
       delivery_address, customer_name, customer_phone, provider_payment_id, promo_code,
       created_at, updated_at`

func (r *repo) Create(ctx context.Context, o *Order) error {
	if len(o.Items) == 0 {
		return ErrEmptyItems
	}

	items, err := encodeItems(o.Items)
	if err != nil {
		return err
	}

	err = r.db.QueryRowContext(ctx,
		`INSERT INTO orders
           (user_id, status, total_amount, discount_amount, final_amount, items,
            delivery_address, customer_name, customer_phone, promo_code)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
         RETURNING id, status, created_at, updated_at`,
		o.UserID, StatusCreated, o.TotalAmount, o.DiscountAmount, o.FinalAmount, items,
		o.DeliveryAddress, o.CustomerName, o.CustomerPhone, o.PromoCode,
	).Scan(&o.ID, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *repo) GetByID(ctx context.Context, orderID int64) (*Order, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, orderID)

	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// caller (handler) turns this into 404
			return nil, nil
		}
		return nil, err
	}
	return o, nil
}

// SetStatus is the only mutation path after creation. It always stamps
// updated_at, and overwrites provider_payment_id only when a new value is
// supplied. Writing the current status again is a harmless no-op.
func (r *repo) SetStatus(ctx context.Context, orderID int64, status Status, providerPaymentID *string) (*Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("unknown status %q", status)
	}

	_, err := r.db.ExecContext(ctx,
		`UPDATE orders
         SET status = $1,
             provider_payment_id = COALESCE($2, provider_payment_id),
             updated_at = NOW()
         WHERE id = $3`,
		status, providerPaymentID, orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}

	return r.GetByID(ctx, orderID)
}

func (r *repo) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return orders, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*Order, error) {
	var o Order
	var items string
	err := row.Scan(&o.ID, &o.UserID, &o.Status, &o.TotalAmount, &o.DiscountAmount, &o.FinalAmount,
		&items, &o.DeliveryAddress, &o.CustomerName, &o.CustomerPhone,
		&o.ProviderPaymentID, &o.PromoCode, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}

	o.Items, err = decodeItems(items)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// The items snapshot is stored as one JSON column. Encoding and decoding
// happen only here so round-trip fidelity is a property of the repository,
// not of every caller.

func encodeItems(items []Item) (string, error) {
	b, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("marshal items: %w", err)
	}
	return string(b), nil
}

func decodeItems(blob string) ([]Item, error) {
	var items []Item
	if err := json.Unmarshal([]byte(blob), &items); err != nil {
		return nil, fmt.Errorf("unmarshal items: %w", err)
	}
	return items, nil
}
