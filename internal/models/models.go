package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int       `json:"version"`
}

type Product struct {
	ID            int64           `json:"id"`
	SKU           string          `json:"sku"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Version       int             `json:"version"`
}

// Cart is owned by exactly one identity: UserID > 0 for an authenticated
// cart, SessionID != "" for an anonymous one, never both.
type Cart struct {
	ID        string     `json:"id"`
	UserID    int64      `json:"user_id,omitempty"`
	SessionID string     `json:"session_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	Items     []CartItem `json:"items"`
}

// CartItem holds one product line in a cart. Quantity is always >= 1; an
// item whose quantity drops to zero is removed, not stored. The unit price
// is looked up from the product at read time, never cached on the item.
type CartItem struct {
	ProductID int64     `json:"product_id"`
	Quantity  int       `json:"quantity"`
	AddedAt   time.Time `json:"added_at"`
}

func (c *Cart) Owner() Identity {
	if c.UserID > 0 {
		return Authenticated(c.UserID)
	}
	return Anonymous(c.SessionID)
}

// ItemFor returns a pointer into Items for the given product, or nil.
func (c *Cart) ItemFor(productID int64) *CartItem {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return &c.Items[i]
		}
	}
	return nil
}
