package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/safar/go-cart-store/internal/database"
	"github.com/safar/go-cart-store/internal/models"
)

// Users exists so authenticated carts have an owner row to reference.
// Registration, activation and login mechanics live in the auth front.
type Users struct {
	DB *sql.DB
}

func NewUsers(db *sql.DB) *Users {
	return &Users{DB: db}
}

func (s *Users) Create(ctx context.Context, email, name string) (*models.User, error) {
	user := &models.User{}

	query := `
		INSERT INTO users (email, name, created_at, updated_at, version)
		VALUES ($1, $2, NOW(), NOW(), 1)
		RETURNING id, email, name, created_at, updated_at, version`

	err := s.DB.QueryRowContext(ctx, query, email, name).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.Version,
	)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	return user, nil
}

func (s *Users) Get(ctx context.Context, id int64) (*models.User, error) {
	user := &models.User{}

	query := `
		SELECT id, email, name, created_at, updated_at, version
		FROM users
		WHERE id = $1`

	err := s.DB.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.Version,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return user, nil
}
