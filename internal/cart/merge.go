package cart

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/safar/go-cart-store/internal/database"
	"github.com/safar/go-cart-store/internal/models"
)

// Merge consolidates an anonymous session cart into the authenticated
// user's cart on login. Quantities for products present in both carts are
// summed; products present in only one keep their quantity. The session
// cart is deleted once its items are safely persisted on the user's cart.
//
// Merging when no session cart exists (including a repeat call after a
// completed merge) is a no-op returning the user's current cart. Merges
// for the same user are serialized, so two devices logging in with two
// stale session carts each consume their own source exactly once.
func (s *Service) Merge(ctx context.Context, target models.Identity, sessionID string) (*models.Cart, error) {
	if !target.IsAuthenticated() {
		return nil, database.ErrIdentityConflict
	}

	unlock := s.locks.lock(target.Key())
	defer unlock()

	targetCart, err := s.store.GetOrCreate(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("get or create user cart: %w", err)
	}

	if sessionID == "" {
		return targetCart, nil
	}

	source := models.Anonymous(sessionID)
	sourceCart, err := s.store.Find(ctx, source)
	if errors.Is(err, database.ErrCartNotFound) {
		// Already consumed or never existed.
		return targetCart, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find session cart: %w", err)
	}

	for _, item := range sourceCart.Items {
		if existing := targetCart.ItemFor(item.ProductID); existing != nil {
			existing.Quantity += item.Quantity
		} else {
			targetCart.Items = append(targetCart.Items, item)
		}
	}
	sourceCart.Items = nil

	// One transaction moves the items: if it fails, the session cart still
	// holds them and a retried merge completes the move. After it commits,
	// the session cart is an empty leftover, so a retry merges nothing even
	// if the delete below never lands.
	if err := s.store.Save(ctx, targetCart, sourceCart); err != nil {
		return nil, fmt.Errorf("save merged cart: %w", err)
	}

	if err := s.store.Delete(ctx, sourceCart.ID); err != nil {
		log.Printf("delete session cart %s after merge: %v", sourceCart.ID, err)
	}

	s.invalidate(target)
	s.invalidate(source)
	return targetCart, nil
}

// keyedMutex hands out one mutex per key. Entries are kept for the process
// lifetime; the population is bounded by distinct active owners.
type keyedMutex struct {
	mu sync.Mutex
	m  map[string]*sync.Mutex
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.m == nil {
		k.m = make(map[string]*sync.Mutex)
	}
	l, ok := k.m[key]
	if !ok {
		l = &sync.Mutex{}
		k.m[key] = l
	}
	k.mu.Unlock()

	l.Lock()
	return l.Unlock
}
