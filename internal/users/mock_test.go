package users

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/dandy1414/user-api/internal/domain"
)

// mockRepository implements Repository in memory for testing.
type mockRepository struct {
	users  []domain.User
	orders map[int64]int64
	nextID int64

	createUserErr error
	emailErr      error
	listErr       error
	countErr      error

	createCalls int
	listCalls   int
	lastFilter  ListFilter
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		orders: make(map[int64]int64),
		nextID: 1,
	}
}

func (m *mockRepository) seed(name, email string, role domain.Role, active bool) domain.User {
	u := domain.User{
		ID:        m.nextID,
		Name:      name,
		Email:     email,
		Role:      role,
		Active:    active,
		CreatedAt: time.Date(2026, 1, 1, 0, 0, int(m.nextID), 0, time.UTC),
	}
	m.nextID++
	m.users = append(m.users, u)
	return u
}

func (m *mockRepository) CreateUser(_ context.Context, user *domain.User) error {
	m.createCalls++
	if m.createUserErr != nil {
		return m.createUserErr
	}
	user.ID = m.nextID
	user.CreatedAt = time.Now()
	m.nextID++
	m.users = append(m.users, *user)
	return nil
}

func (m *mockRepository) EmailExists(_ context.Context, email string) (bool, error) {
	if m.emailErr != nil {
		return false, m.emailErr
	}
	for _, u := range m.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepository) matching(filter ListFilter) []domain.User {
	var result []domain.User
	term := strings.ToLower(filter.Search)
	for _, u := range m.users {
		if !u.Active {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(u.Name), term) &&
			!strings.Contains(strings.ToLower(u.Email), term) {
			continue
		}
		result = append(result, u)
	}
	return result
}

func (m *mockRepository) ListActiveUsers(_ context.Context, filter ListFilter) ([]domain.UserWithOrders, error) {
	m.listCalls++
	m.lastFilter = filter
	if m.listErr != nil {
		return nil, m.listErr
	}

	matched := m.matching(filter)
	sort.SliceStable(matched, func(i, j int) bool {
		switch filter.SortBy {
		case SortByName:
			return matched[i].Name < matched[j].Name
		case SortByEmail:
			return matched[i].Email < matched[j].Email
		default:
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
	})

	start := int(filter.Offset)
	if start > len(matched) {
		start = len(matched)
	}
	end := start + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}

	result := make([]domain.UserWithOrders, 0, end-start)
	for _, u := range matched[start:end] {
		result = append(result, domain.UserWithOrders{User: u, OrdersCount: m.orders[u.ID]})
	}
	return result, nil
}

func (m *mockRepository) CountActiveUsers(_ context.Context, filter ListFilter) (int64, error) {
	if m.countErr != nil {
		return 0, m.countErr
	}
	return int64(len(m.matching(filter))), nil
}

// plainHasher avoids bcrypt cost in tests.
func plainHasher(password string) (string, error) {
	return "hashed:" + password, nil
}
