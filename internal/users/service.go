// Package users provides HTTP handlers and business logic for creating and listing users.
package users

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/dandy1414/user-api/internal/domain"
	"github.com/dandy1414/user-api/internal/pkg/ctxlog"
	"github.com/dandy1414/user-api/internal/pkg/metrics"
	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

// Service implements business logic for users.
type Service struct {
	repo      Repository
	hash      PasswordHasher
	validator *validator.Validate
}

// Option configures a Service.
type Option func(*Service)

// WithPasswordHasher replaces the default bcrypt hasher.
func WithPasswordHasher(h PasswordHasher) Option {
	return func(s *Service) {
		s.hash = h
	}
}

// NewService creates a new users service.
func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		hash:      BcryptHasher(bcrypt.DefaultCost),
		validator: newValidator(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateUser validates req and stores a new user. On any failed rule a
// *ValidationError listing all of them is returned and nothing is written.
func (s *Service) CreateUser(ctx context.Context, req CreateUserRequest) (*domain.User, error) {
	fields, err := validateStruct(s.validator, req, req.typeErrors)
	if err != nil {
		return nil, fmt.Errorf("validate create user: %w", err)
	}

	// Uniqueness is only worth asking the database about for a well-formed email.
	if !hasField(fields, "email") {
		exists, err := s.repo.EmailExists(ctx, req.Email)
		if err != nil {
			return nil, fmt.Errorf("check email: %w", err)
		}
		if exists {
			fields = append(fields, FieldError{Field: "email", Rule: "unique"})
		}
	}

	if len(fields) > 0 {
		metrics.ValidationFailures.WithLabelValues("create_user").Inc()
		return nil, &ValidationError{Fields: fields}
	}

	hash, err := s.hash(req.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.RoleOrDefault(),
		Active:       req.ActiveOrDefault(),
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, ErrEmailExists) {
			// Lost a race with a concurrent insert of the same email.
			metrics.ValidationFailures.WithLabelValues("create_user").Inc()
			return nil, &ValidationError{Fields: []FieldError{{Field: "email", Rule: "unique"}}}
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	metrics.UsersCreated.Inc()
	ctxlog.FromContext(ctx).Info("user created", "user_id", user.ID, "role", user.Role)

	return user, nil
}

// UserListItem is a single row of a user listing.
type UserListItem struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	Email       string      `json:"email"`
	Role        domain.Role `json:"role"`
	Active      bool        `json:"active"`
	CreatedAt   time.Time   `json:"created_at"`
	OrdersCount int64       `json:"orders_count"`
	CanEdit     bool        `json:"can_edit"`
}

// UserPage is one page of active users plus the data needed to paginate.
type UserPage struct {
	Items       []UserListItem
	Total       int64
	CurrentPage int
	PerPage     int
}

// LastPage returns the number of the last page, at least 1.
func (p *UserPage) LastPage() int {
	if p.Total == 0 {
		return 1
	}
	last := (p.Total + int64(p.PerPage) - 1) / int64(p.PerPage)
	if last > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(last)
}

// From returns the 1-based position of the first item on the page, nil when empty.
func (p *UserPage) From() *int64 {
	if len(p.Items) == 0 {
		return nil
	}
	from := int64(p.CurrentPage-1)*int64(p.PerPage) + 1
	return &from
}

// To returns the 1-based position of the last item on the page, nil when empty.
func (p *UserPage) To() *int64 {
	from := p.From()
	if from == nil {
		return nil
	}
	to := *from + int64(len(p.Items)) - 1
	return &to
}

// ListUsers returns one page of active users matching q, each annotated
// with its order count and whether q's viewer could edit it.
func (s *Service) ListUsers(ctx context.Context, q ListUsersQuery) (*UserPage, error) {
	fields, err := validateStruct(s.validator, q, q.typeErrors)
	if err != nil {
		return nil, fmt.Errorf("validate list users: %w", err)
	}
	if len(fields) > 0 {
		metrics.ValidationFailures.WithLabelValues("list_users").Inc()
		return nil, &ValidationError{Fields: fields}
	}

	filter := ListFilter{
		Search: q.Search,
		SortBy: SortField(q.SortBy),
		Limit:  q.Limit,
	}

	total, err := s.repo.CountActiveUsers(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count active users: %w", err)
	}

	page := &UserPage{
		Items:       make([]UserListItem, 0, q.Limit),
		Total:       total,
		CurrentPage: q.Page,
		PerPage:     q.Limit,
	}

	// Pages past the end are empty; skipping the query also keeps the offset from overflowing.
	if int64(q.Page-1) >= (total+int64(q.Limit)-1)/int64(q.Limit) {
		return page, nil
	}
	filter.Offset = int64(q.Page-1) * int64(q.Limit)

	rows, err := s.repo.ListActiveUsers(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list active users: %w", err)
	}

	viewer := q.Viewer()
	for _, row := range rows {
		page.Items = append(page.Items, UserListItem{
			ID:          row.ID,
			Name:        row.Name,
			Email:       row.Email,
			Role:        row.Role,
			Active:      row.Active,
			CreatedAt:   row.CreatedAt,
			OrdersCount: row.OrdersCount,
			CanEdit:     CanEdit(viewer, row.User),
		})
	}

	return page, nil
}
