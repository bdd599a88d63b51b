// Package postgres provides PostgreSQL implementation of the users repository.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/dandy1414/user-api/internal/domain"
	"github.com/dandy1414/user-api/internal/pkg/postgres"
	"github.com/dandy1414/user-api/internal/users"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// emailConstraint is the unique constraint on users.email.
const emailConstraint = "users_email_key"

var sortColumns = map[users.SortField]string{
	users.SortByName:      "u.name",
	users.SortByEmail:     "u.email",
	users.SortByCreatedAt: "u.created_at",
}

// Repository implements the users.Repository interface using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CreateUser inserts a user and fills its ID and CreatedAt.
func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (name, email, password_hash, role, active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.Active,
	).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		if postgres.IsUniqueViolation(err, emailConstraint) {
			return users.ErrEmailExists
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// EmailExists reports whether any user, active or not, has the email.
func (r *Repository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check email exists: %w", err)
	}
	return exists, nil
}

// ListActiveUsers returns one page of active users with their order counts.
func (r *Repository) ListActiveUsers(ctx context.Context, filter users.ListFilter) ([]domain.UserWithOrders, error) {
	query, args, err := buildListQuery(filter)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list active users: %w", err)
	}

	result, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.UserWithOrders, error) {
		var u domain.UserWithOrders
		err := row.Scan(
			&u.ID,
			&u.Name,
			&u.Email,
			&u.Role,
			&u.Active,
			&u.CreatedAt,
			&u.OrdersCount,
		)
		return u, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan active users: %w", err)
	}

	return result, nil
}

// CountActiveUsers returns how many active users match the filter, ignoring
// limit and offset.
func (r *Repository) CountActiveUsers(ctx context.Context, filter users.ListFilter) (int64, error) {
	where, args := buildWhere(filter.Search)

	var total int64
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM users u WHERE "+where, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count active users: %w", err)
	}
	return total, nil
}

func buildListQuery(filter users.ListFilter) (string, []any, error) {
	column, ok := sortColumns[filter.SortBy]
	if !ok {
		return "", nil, fmt.Errorf("unsupported sort field %q", filter.SortBy)
	}

	where, args := buildWhere(filter.Search)
	args = append(args, filter.Limit, filter.Offset)

	query := fmt.Sprintf(`
		SELECT u.id, u.name, u.email, u.role, u.active, u.created_at,
			(SELECT COUNT(*) FROM orders o WHERE o.user_id = u.id) AS orders_count
		FROM users u
		WHERE %s
		ORDER BY %s ASC, u.id ASC
		LIMIT $%d OFFSET $%d
	`, where, column, len(args)-1, len(args))

	return query, args, nil
}

// buildWhere returns the predicate selecting active users, narrowed to a
// case-insensitive substring match on name or email when search is set.
func buildWhere(search string) (string, []any) {
	where := "u.active = TRUE"
	if search == "" {
		return where, nil
	}

	where += ` AND (u.name ILIKE $1 ESCAPE '\' OR u.email ILIKE $1 ESCAPE '\')`
	return where, []any{"%" + escapeLike(search) + "%"}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes LIKE wildcards in s match literally.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
