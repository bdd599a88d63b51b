// Package orders manages the orders owned by users. Orders are only counted
// by the API; this package exists to produce them.
package orders

import (
	"context"

	"github.com/dandy1414/user-api/internal/domain"
)

// Repository defines the interface for order data operations.
type Repository interface {
	ListUserIDs(ctx context.Context) ([]int64, error)
	// CreateOrder inserts the order and fills its ID.
	CreateOrder(ctx context.Context, order *domain.Order) error
}
