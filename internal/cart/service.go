package cart

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/safar/go-cart-store/internal/cache"
	"github.com/safar/go-cart-store/internal/database"
	"github.com/safar/go-cart-store/internal/models"
	"golang.org/x/sync/singleflight"
)

var ErrInvalidQuantity = errors.New("quantity must be at least 1")

// Service is the cart core: per-identity cart access, item mutations, the
// login-time merge and total computation. All persistence goes through the
// CartStore; carts returned to callers are snapshots.
type Service struct {
	store  CartStore
	prices PriceLookup
	cache  cache.CartCache // optional
	sfg    singleflight.Group
	locks  keyedMutex
}

func NewService(store CartStore, prices PriceLookup, cartCache cache.CartCache) *Service {
	return &Service{
		store:  store,
		prices: prices,
		cache:  cartCache,
	}
}

// GetCart returns the identity's cart, creating an empty one on first
// access. Reads go through the snapshot cache; singleflight collapses
// concurrent misses for the same owner.
func (s *Service) GetCart(ctx context.Context, identity models.Identity) (*models.Cart, error) {
	if !identity.Valid() {
		return nil, database.ErrIdentityConflict
	}

	v, err, _ := s.sfg.Do(identity.Key(), func() (interface{}, error) {
		if s.cache != nil {
			cached, err := s.cache.Get(ctx, identity.Key())
			if err == nil {
				return cached, nil
			}
			if !errors.Is(err, cache.ErrCacheMiss) {
				log.Printf("cache get error: %v", err)
			}
		}

		cart, err := s.store.GetOrCreate(ctx, identity)
		if err != nil {
			return nil, err
		}

		s.fillCache(identity, cart)
		return cart, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*models.Cart), nil
}

// AddItem adds quantity of a product to the identity's cart, creating the
// cart if needed. Adding a product already in the cart increments its
// quantity.
func (s *Service) AddItem(ctx context.Context, identity models.Identity, productID int64, quantity int) (*models.Cart, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	if !identity.Valid() {
		return nil, database.ErrIdentityConflict
	}

	unlock := s.locks.lock(identity.Key())
	defer unlock()

	cart, err := s.store.GetOrCreate(ctx, identity)
	if err != nil {
		return nil, err
	}

	if item := cart.ItemFor(productID); item != nil {
		item.Quantity += quantity
	} else {
		cart.Items = append(cart.Items, models.CartItem{
			ProductID: productID,
			Quantity:  quantity,
			AddedAt:   time.Now(),
		})
	}

	if err := s.store.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}

	s.invalidate(identity)
	return cart, nil
}

// SetQuantity sets the quantity for a product in the cart. Zero or
// negative removes the item; zero-quantity items are never stored.
func (s *Service) SetQuantity(ctx context.Context, identity models.Identity, productID int64, quantity int) (*models.Cart, error) {
	if !identity.Valid() {
		return nil, database.ErrIdentityConflict
	}

	unlock := s.locks.lock(identity.Key())
	defer unlock()

	cart, err := s.store.GetOrCreate(ctx, identity)
	if err != nil {
		return nil, err
	}

	if quantity < 1 {
		removeItem(cart, productID)
	} else if item := cart.ItemFor(productID); item != nil {
		item.Quantity = quantity
	} else {
		cart.Items = append(cart.Items, models.CartItem{
			ProductID: productID,
			Quantity:  quantity,
			AddedAt:   time.Now(),
		})
	}

	if err := s.store.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}

	s.invalidate(identity)
	return cart, nil
}

// RemoveItem drops a product from the cart. Removing a product that is not
// in the cart is a no-op.
func (s *Service) RemoveItem(ctx context.Context, identity models.Identity, productID int64) (*models.Cart, error) {
	return s.SetQuantity(ctx, identity, productID, 0)
}

// Clear deletes the identity's cart entirely. Clearing an identity that
// owns no cart is a no-op.
func (s *Service) Clear(ctx context.Context, identity models.Identity) error {
	if !identity.Valid() {
		return database.ErrIdentityConflict
	}

	unlock := s.locks.lock(identity.Key())
	defer unlock()

	cart, err := s.store.Find(ctx, identity)
	if errors.Is(err, database.ErrCartNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, cart.ID); err != nil {
		return err
	}

	s.invalidate(identity)
	return nil
}

func removeItem(cart *models.Cart, productID int64) {
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
			return
		}
	}
}

func (s *Service) fillCache(identity models.Identity, cart *models.Cart) {
	if s.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Set(ctx, identity.Key(), cart); err != nil {
		log.Printf("cache set error: %v", err)
	}
}

func (s *Service) invalidate(identity models.Identity) {
	if s.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, identity.Key()); err != nil {
		log.Printf("cache invalidate error: %v", err)
	}
}
