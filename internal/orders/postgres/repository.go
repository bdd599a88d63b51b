// Package postgres provides PostgreSQL implementation of the orders repository.
package postgres

import (
	"context"
	"fmt"

	"github.com/dandy1414/user-api/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository implements the orders.Repository interface using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// ListUserIDs returns the IDs of all users, active or not.
func (r *Repository) ListUserIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list user ids: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("scan user ids: %w", err)
	}
	return ids, nil
}

// CreateOrder inserts an order. A zero CreatedAt is stored as the current time.
func (r *Repository) CreateOrder(ctx context.Context, order *domain.Order) error {
	var createdAt any
	if !order.CreatedAt.IsZero() {
		createdAt = order.CreatedAt
	}

	query := `
		INSERT INTO orders (user_id, created_at)
		VALUES ($1, COALESCE($2, NOW()))
		RETURNING id, created_at
	`
	if err := r.db.QueryRow(ctx, query, order.UserID, createdAt).Scan(&order.ID, &order.CreatedAt); err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}
