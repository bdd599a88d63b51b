package users

import (
	"context"

	"github.com/dandy1414/user-api/internal/domain"
)

// Repository defines the interface for user data operations.
type Repository interface {
	// CreateUser inserts the user and fills ID and CreatedAt.
	// Returns ErrEmailExists if the email is already taken.
	CreateUser(ctx context.Context, user *domain.User) error
	EmailExists(ctx context.Context, email string) (bool, error)

	ListActiveUsers(ctx context.Context, filter ListFilter) ([]domain.UserWithOrders, error)
	CountActiveUsers(ctx context.Context, filter ListFilter) (int64, error)
}

// SortField is a column active users can be ordered by.
type SortField string

// Sortable fields.
const (
	SortByName      SortField = "name"
	SortByEmail     SortField = "email"
	SortByCreatedAt SortField = "created_at"
)

// ListFilter represents filter criteria for listing active users.
type ListFilter struct {
	// Search is matched case-insensitively as a literal substring of name or email.
	Search string
	SortBy SortField
	Limit  int
	Offset int64
}
