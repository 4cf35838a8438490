package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned when a product id does not exist in the catalog.
var ErrNotFound = errors.New("product not found")

type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id int64) (*Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, id int64, p *Product) (*Product, error)
	Delete(ctx context.Context, id int64) error
	ReplaceAll(ctx context.Context, items []Product) error
	SeedIfEmpty(ctx context.Context, items []Product) error
}

type repo struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repo{db: db}
}

const productColumns = `id, sku, title, brand, price, old_price, volume, country, badges, category, image`

func (r *repo) List(ctx context.Context) ([]Product, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	defer rows.Close()

	var items []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return items, nil
}

func (r *repo) GetByID(ctx context.Context, id int64) (*Product, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id)

	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

func (r *repo) Create(ctx context.Context, p *Product) error {
	if p.ID == 0 {
		var max sql.NullInt64
		if err := r.db.QueryRowContext(ctx, `SELECT MAX(id) FROM products`).Scan(&max); err != nil {
			return fmt.Errorf("next product id: %w", err)
		}
		p.ID = max.Int64 + 1
	}
	if p.SKU == "" {
		p.SKU = fmt.Sprintf("NEW-%04d", p.ID)
	}

	badges, err := marshalBadges(p.Badges)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO products (`+productColumns+`)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		p.ID, p.SKU, p.Title, p.Brand, p.Price, p.OldPrice, p.Volume, p.Country, badges, p.Category, p.Image,
	)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *repo) Update(ctx context.Context, id int64, p *Product) (*Product, error) {
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrNotFound
	}

	next := merge(*current, *p)
	next.ID = id

	badges, err := marshalBadges(next.Badges)
	if err != nil {
		return nil, err
	}

	_, err = r.db.ExecContext(ctx,
		`UPDATE products
         SET sku=$1, title=$2, brand=$3, price=$4, old_price=$5, volume=$6, country=$7, badges=$8, category=$9, image=$10
         WHERE id=$11`,
		next.SKU, next.Title, next.Brand, next.Price, next.OldPrice, next.Volume, next.Country, badges, next.Category, next.Image, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	return &next, nil
}

func (r *repo) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}

func (r *repo) ReplaceAll(ctx context.Context, items []Product) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM products`); err != nil {
		return fmt.Errorf("clear products: %w", err)
	}

	for _, p := range items {
		badges, err := marshalBadges(p.Badges)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO products (`+productColumns+`)
             VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			p.ID, p.SKU, p.Title, p.Brand, p.Price, p.OldPrice, p.Volume, p.Country, badges, p.Category, p.Image,
		)
		if err != nil {
			return fmt.Errorf("insert product: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// SeedIfEmpty inserts the default catalog on first start only.
func (r *repo) SeedIfEmpty(ctx context.Context, items []Product) error {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM products`).Scan(&count); err != nil {
		return fmt.Errorf("count products: %w", err)
	}
	if count > 0 {
		return nil
	}
	return r.ReplaceAll(ctx, items)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*Product, error) {
	var p Product
	var badges string
	err := row.Scan(&p.ID, &p.SKU, &p.Title, &p.Brand, &p.Price, &p.OldPrice,
		&p.Volume, &p.Country, &badges, &p.Category, &p.Image)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan product: %w", err)
	}

	// Malformed badges degrade to an empty list rather than failing the read.
	if err := json.Unmarshal([]byte(badges), &p.Badges); err != nil {
		p.Badges = []string{}
	}
	return &p, nil
}

func marshalBadges(badges []string) (string, error) {
	if badges == nil {
		badges = []string{}
	}
	b, err := json.Marshal(badges)
	if err != nil {
		return "", fmt.Errorf("marshal badges: %w", err)
	}
	return string(b), nil
}

// merge overlays non-zero fields of patch onto base, matching the
// partial-update semantics of the admin panel.
func merge(base, patch Product) Product {
	next := base
	if patch.SKU != "" {
		next.SKU = patch.SKU
	}
	if patch.Title != "" {
		next.Title = patch.Title
	}
	if patch.Brand != "" {
		next.Brand = patch.Brand
	}
	if patch.Price != 0 {
		next.Price = patch.Price
	}
	if patch.OldPrice != 0 {
		next.OldPrice = patch.OldPrice
	}
	if patch.Volume != "" {
		next.Volume = patch.Volume
	}
	if patch.Country != "" {
		next.Country = patch.Country
	}
	if patch.Badges != nil {
		next.Badges = patch.Badges
	}
	if patch.Category != "" {
		next.Category = patch.Category
	}
	if patch.Image != "" {
		next.Image = patch.Image
	}
	return next
}
