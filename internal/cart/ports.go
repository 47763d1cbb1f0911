package cart

import (
	"context"

	"github.com/safar/go-cart-store/internal/models"
	"github.com/shopspring/decimal"
)

// CartStore is the persistence contract the service consumes. The Postgres
// implementation lives in internal/store; tests substitute an in-memory one.
type CartStore interface {
	// GetOrCreate returns the identity's cart, creating an empty one if
	// needed. Atomic under concurrent calls for the same identity.
	GetOrCreate(ctx context.Context, identity models.Identity) (*models.Cart, error)
	// Find is the non-creating lookup; database.ErrCartNotFound when absent.
	Find(ctx context.Context, identity models.Identity) (*models.Cart, error)
	// Save persists the item sets of all given carts in one transaction.
	Save(ctx context.Context, carts ...*models.Cart) error
	// Delete removes a cart and its items; idempotent.
	Delete(ctx context.Context, cartID string) error
}

// PriceLookup resolves current unit prices. Unresolvable ids are absent
// from the returned map rather than an error.
type PriceLookup interface {
	PricesFor(ctx context.Context, productIDs []int64) (map[int64]decimal.Decimal, error)
}
