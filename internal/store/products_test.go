package store

import (
	"context"
	"errors"
	"testing"

	"github.com/safar/go-cart-store/internal/database"
	"github.com/safar/go-cart-store/internal/models"
	"github.com/shopspring/decimal"
)

func TestProducts_CreateAndGet(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	products := NewProducts(db)

	created, err := products.Create(ctx, "TEST-001", "Test Product", "Test", decimal.RequireFromString("19.99"), 10)
	if err != nil {
		t.Fatalf("Create product: %v", err)
	}

	got, err := products.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get product: %v", err)
	}
	if !got.Price.Equal(decimal.RequireFromString("19.99")) {
		t.Errorf("expected price 19.99, got %s", got.Price)
	}
	if got.StockQuantity != 10 {
		t.Errorf("expected stock 10, got %d", got.StockQuantity)
	}
}

func TestProducts_GetMissing(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	products := NewProducts(db)

	if _, err := products.Get(context.Background(), 99999); !errors.Is(err, database.ErrProductNotFound) {
		t.Errorf("expected ErrProductNotFound, got %v", err)
	}
}

func TestProducts_PricesFor(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	products := NewProducts(db)

	p1, err := products.Create(ctx, "TEST-P1", "Product 1", "", decimal.NewFromInt(100), 5)
	if err != nil {
		t.Fatalf("Create product: %v", err)
	}
	p2, err := products.Create(ctx, "TEST-P2", "Product 2", "", decimal.RequireFromString("2.50"), 5)
	if err != nil {
		t.Fatalf("Create product: %v", err)
	}

	prices, err := products.PricesFor(ctx, []int64{p1.ID, p2.ID, 99999})
	if err != nil {
		t.Fatalf("PricesFor: %v", err)
	}

	if len(prices) != 2 {
		t.Fatalf("expected 2 resolved prices, got %d", len(prices))
	}
	if !prices[p1.ID].Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected 100 for product 1, got %s", prices[p1.ID])
	}
	if !prices[p2.ID].Equal(decimal.RequireFromString("2.50")) {
		t.Errorf("expected 2.50 for product 2, got %s", prices[p2.ID])
	}
	if _, ok := prices[99999]; ok {
		t.Error("expected unknown product absent from result")
	}
}

func TestProducts_PriceOf(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	products := NewProducts(db)

	p, err := products.Create(ctx, "TEST-PO", "Product", "", decimal.RequireFromString("7.25"), 5)
	if err != nil {
		t.Fatalf("Create product: %v", err)
	}

	price, err := products.PriceOf(ctx, p.ID)
	if err != nil {
		t.Fatalf("PriceOf: %v", err)
	}
	if !price.Equal(decimal.RequireFromString("7.25")) {
		t.Errorf("expected 7.25, got %s", price)
	}

	if _, err := products.PriceOf(ctx, 99999); !errors.Is(err, database.ErrPriceUnavailable) {
		t.Errorf("expected ErrPriceUnavailable, got %v", err)
	}
}

func TestProducts_DeleteLeavesCartItems(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	products := NewProducts(db)
	carts := NewCarts(db)

	p, err := products.Create(ctx, "TEST-DEL", "Doomed Product", "", decimal.NewFromInt(10), 1)
	if err != nil {
		t.Fatalf("Create product: %v", err)
	}

	cart, err := carts.GetOrCreate(ctx, models.Anonymous("s1"))
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	cart.Items = append(cart.Items, models.CartItem{ProductID: p.ID, Quantity: 1})
	if err := carts.Save(ctx, cart); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := products.Delete(ctx, p.ID); err != nil {
		t.Fatalf("Delete product: %v", err)
	}

	// The cart item survives as a stale reference.
	reloaded, err := carts.Find(ctx, models.Anonymous("s1"))
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if reloaded.ItemFor(p.ID) == nil {
		t.Error("expected cart item to outlive its product")
	}

	prices, err := products.PricesFor(ctx, []int64{p.ID})
	if err != nil {
		t.Fatalf("PricesFor: %v", err)
	}
	if len(prices) != 0 {
		t.Errorf("expected no price for deleted product, got %v", prices)
	}
}
