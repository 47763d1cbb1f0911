package cache

import (
	"context"
	"errors"

	"github.com/safar/go-cart-store/internal/models"
)

// CartCache is a read-side snapshot cache keyed by cart owner. Losing the
// cache is never an operation failure; callers log and fall through to the
// store.
type CartCache interface {
	Get(ctx context.Context, ownerKey string) (*models.Cart, error)
	Set(ctx context.Context, ownerKey string, cart *models.Cart) error
	Delete(ctx context.Context, ownerKey string) error
}

var ErrCacheMiss = errors.New("cache miss")
