package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/safar/go-cart-store/internal/database"
	"github.com/safar/go-cart-store/internal/models"
)

// Carts persists cart aggregates. Each identity owns at most one cart,
// enforced by unique constraints on carts.user_id and carts.session_id.
type Carts struct {
	DB *sql.DB
}

func NewCarts(db *sql.DB) *Carts {
	return &Carts{DB: db}
}

// GetOrCreate returns the cart owned by identity, creating an empty one if
// none exists. Safe under concurrent calls for the same identity: creation
// is INSERT ... ON CONFLICT DO NOTHING, and the loser of the race re-reads
// the row the winner created.
func (s *Carts) GetOrCreate(ctx context.Context, identity models.Identity) (*models.Cart, error) {
	cart, err := s.Find(ctx, identity)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, database.ErrCartNotFound) {
		return nil, err
	}

	id := uuid.NewString()
	if identity.IsAuthenticated() {
		_, err = s.DB.ExecContext(ctx,
			`INSERT INTO carts (id, user_id, created_at, updated_at)
			 VALUES ($1, $2, NOW(), NOW())
			 ON CONFLICT (user_id) DO NOTHING`,
			id, identity.UserID)
	} else {
		_, err = s.DB.ExecContext(ctx,
			`INSERT INTO carts (id, session_id, created_at, updated_at)
			 VALUES ($1, $2, NOW(), NOW())
			 ON CONFLICT (session_id) DO NOTHING`,
			id, identity.SessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("create cart: %w", err)
	}

	return s.Find(ctx, identity)
}

// Find is the non-creating lookup. Returns database.ErrCartNotFound when
// the identity owns no cart.
func (s *Carts) Find(ctx context.Context, identity models.Identity) (*models.Cart, error) {
	if !identity.Valid() {
		return nil, database.ErrIdentityConflict
	}

	query := `
		SELECT id, user_id, session_id, created_at, updated_at
		FROM carts
		WHERE `
	var arg interface{}
	if identity.IsAuthenticated() {
		query += `user_id = $1`
		arg = identity.UserID
	} else {
		query += `session_id = $1`
		arg = identity.SessionID
	}

	cart := &models.Cart{}
	var userID sql.NullInt64
	var sessionID sql.NullString

	err := s.DB.QueryRowContext(ctx, query, arg).Scan(
		&cart.ID,
		&userID,
		&sessionID,
		&cart.CreatedAt,
		&cart.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrCartNotFound
		}
		return nil, fmt.Errorf("find cart: %w", err)
	}
	cart.UserID = userID.Int64
	cart.SessionID = sessionID.String

	if err := s.loadItems(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *Carts) loadItems(ctx context.Context, cart *models.Cart) error {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT product_id, quantity, added_at
		 FROM cart_items
		 WHERE cart_id = $1
		 ORDER BY added_at, product_id`,
		cart.ID)
	if err != nil {
		return fmt.Errorf("load cart items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.CartItem
		if err := rows.Scan(&item.ProductID, &item.Quantity, &item.AddedAt); err != nil {
			return fmt.Errorf("scan cart item: %w", err)
		}
		cart.Items = append(cart.Items, item)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows error: %w", err)
	}
	return nil
}

// Save replaces the persisted item sets of the given carts in a single
// transaction. Passing several carts gives multi-cart operations (the login
// merge moves items between two carts) an all-or-nothing commit. Items with
// quantity below 1 are dropped, not stored.
func (s *Carts) Save(ctx context.Context, carts ...*models.Cart) error {
	return database.WithRetry(ctx, s.DB, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		for _, cart := range carts {
			result, err := tx.ExecContext(ctx,
				`UPDATE carts SET updated_at = NOW() WHERE id = $1`, cart.ID)
			if err != nil {
				return fmt.Errorf("touch cart: %w", err)
			}
			affected, err := result.RowsAffected()
			if err != nil {
				return fmt.Errorf("get rows affected: %w", err)
			}
			if affected == 0 {
				return database.ErrCartNotFound
			}

			if _, err := tx.ExecContext(ctx,
				`DELETE FROM cart_items WHERE cart_id = $1`, cart.ID); err != nil {
				return fmt.Errorf("clear cart items: %w", err)
			}

			for _, item := range cart.Items {
				if item.Quantity < 1 {
					continue
				}
				addedAt := item.AddedAt
				if addedAt.IsZero() {
					addedAt = time.Now()
				}
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO cart_items (cart_id, product_id, quantity, added_at)
					 VALUES ($1, $2, $3, $4)`,
					cart.ID, item.ProductID, item.Quantity, addedAt); err != nil {
					return fmt.Errorf("save cart item: %w", err)
				}
			}
		}
		return nil
	})
}

// Delete removes a cart and all its items. Idempotent: deleting a cart that
// no longer exists is not an error.
func (s *Carts) Delete(ctx context.Context, cartID string) error {
	if _, err := s.DB.ExecContext(ctx,
		`DELETE FROM carts WHERE id = $1`, cartID); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}
