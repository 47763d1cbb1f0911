package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/safar/go-cart-store/internal/database"
	"github.com/safar/go-cart-store/internal/models"
	"github.com/shopspring/decimal"
)

// Products is the price-lookup collaborator for the cart core. Stock is
// carried on the row but never enforced here; availability checks belong
// to order placement.
type Products struct {
	DB *sql.DB
}

func NewProducts(db *sql.DB) *Products {
	return &Products{DB: db}
}

func (s *Products) Create(ctx context.Context, sku, name, description string, price decimal.Decimal, stock int) (*models.Product, error) {
	product := &models.Product{}

	query := `
		INSERT INTO products (sku, name, description, price, stock_quantity, created_at, updated_at, version)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW(), 1)
		RETURNING id, sku, name, description, price, stock_quantity, created_at, updated_at, version`

	err := s.DB.QueryRowContext(ctx, query, sku, name, description, price, stock).Scan(
		&product.ID,
		&product.SKU,
		&product.Name,
		&product.Description,
		&product.Price,
		&product.StockQuantity,
		&product.CreatedAt,
		&product.UpdatedAt,
		&product.Version,
	)
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	return product, nil
}

func (s *Products) Get(ctx context.Context, id int64) (*models.Product, error) {
	product := &models.Product{}

	query := `
		SELECT id, sku, name, description, price, stock_quantity, created_at, updated_at, version
		FROM products
		WHERE id = $1`

	err := s.DB.QueryRowContext(ctx, query, id).Scan(
		&product.ID,
		&product.SKU,
		&product.Name,
		&product.Description,
		&product.Price,
		&product.StockQuantity,
		&product.CreatedAt,
		&product.UpdatedAt,
		&product.Version,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrProductNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	return product, nil
}

// Delete removes a product. Cart items keep their product references; a
// cart holding a deleted product surfaces it as a stale item at total time.
func (s *Products) Delete(ctx context.Context, id int64) error {
	if _, err := s.DB.ExecContext(ctx,
		`DELETE FROM products WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}

// PriceOf resolves a single product's current unit price. Returns
// database.ErrPriceUnavailable when the product no longer exists.
func (s *Products) PriceOf(ctx context.Context, productID int64) (decimal.Decimal, error) {
	var price decimal.Decimal
	err := s.DB.QueryRowContext(ctx,
		`SELECT price FROM products WHERE id = $1`, productID).Scan(&price)
	if err != nil {
		if err == sql.ErrNoRows {
			return decimal.Decimal{}, database.ErrPriceUnavailable
		}
		return decimal.Decimal{}, fmt.Errorf("look up price: %w", err)
	}
	return price, nil
}

// PricesFor resolves current unit prices for the given product ids. Ids
// that no longer resolve are simply absent from the result; the caller
// decides how to surface them.
func (s *Products) PricesFor(ctx context.Context, productIDs []int64) (map[int64]decimal.Decimal, error) {
	prices := make(map[int64]decimal.Decimal, len(productIDs))
	if len(productIDs) == 0 {
		return prices, nil
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, price FROM products WHERE id = ANY($1)`,
		pq.Array(productIDs))
	if err != nil {
		return nil, fmt.Errorf("look up prices: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var price decimal.Decimal
		if err := rows.Scan(&id, &price); err != nil {
			return nil, fmt.Errorf("scan price: %w", err)
		}
		prices[id] = price
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return prices, nil
}
