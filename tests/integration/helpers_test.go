//go:build integration

package integration

import (
	"context"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/dandy1414/user-api/internal/domain"
	orderspostgres "github.com/dandy1414/user-api/internal/orders/postgres"
	"github.com/dandy1414/user-api/internal/testutil"
	"github.com/stretchr/testify/require"
)

type createdUser struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type listedUser struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	OrdersCount int64     `json:"orders_count"`
	CanEdit     bool      `json:"can_edit"`
}

type userPage struct {
	CurrentPage  int          `json:"current_page"`
	Data         []listedUser `json:"data"`
	FirstPageURL string       `json:"first_page_url"`
	From         *int64       `json:"from"`
	LastPage     int          `json:"last_page"`
	LastPageURL  string       `json:"last_page_url"`
	Links        []pageLink   `json:"links"`
	NextPageURL  *string      `json:"next_page_url"`
	Path         string       `json:"path"`
	PerPage      int          `json:"per_page"`
	PrevPageURL  *string      `json:"prev_page_url"`
	To           *int64       `json:"to"`
	Total        int64        `json:"total"`
}

type pageLink struct {
	URL    *string `json:"url"`
	Label  string  `json:"label"`
	Active bool    `json:"active"`
}

type validationResponse struct {
	Error struct {
		Message string `json:"message"`
		Details []struct {
			Field   string `json:"field"`
			Message string `json:"message"`
		} `json:"details"`
	} `json:"error"`
}

// fields returns the failed rule of every reported field.
func (v validationResponse) fields() map[string]string {
	result := make(map[string]string, len(v.Error.Details))
	for _, d := range v.Error.Details {
		result[d.Field] = d.Message
	}
	return result
}

type userOption func(map[string]interface{})

func withRole(role string) userOption {
	return func(m map[string]interface{}) {
		m["role"] = role
	}
}

func withActive(active bool) userOption {
	return func(m map[string]interface{}) {
		m["active"] = active
	}
}

func withEmail(email string) userOption {
	return func(m map[string]interface{}) {
		m["email"] = email
	}
}

// createTestUser creates a user through the API and returns it.
func createTestUser(t *testing.T, client *testutil.Client, name string, opts ...userOption) createdUser {
	t.Helper()

	payload := map[string]interface{}{
		"name":     name,
		"email":    testutil.RandomEmail("user"),
		"password": "password123",
	}
	for _, opt := range opts {
		opt(payload)
	}

	resp, err := client.POST("/api/users", payload)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var result struct {
		Message string      `json:"message"`
		Data    createdUser `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &result)
	return result.Data
}

// addOrders stores count orders for the user directly in the database.
func addOrders(t *testing.T, userID int64, count int) {
	t.Helper()

	repo := orderspostgres.NewRepository(testDB)
	for i := 0; i < count; i++ {
		require.NoError(t, repo.CreateOrder(context.Background(), &domain.Order{UserID: userID}))
	}
}

// listUsers fetches one page and fails the test on a non-200 response.
func listUsers(t *testing.T, client *testutil.Client, query url.Values) userPage {
	t.Helper()

	resp, err := client.GET("/api/users", query)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var page userPage
	testutil.DecodeJSON(t, resp, &page)
	return page
}

func userIDs(page userPage) []int64 {
	ids := make([]int64, 0, len(page.Data))
	for _, u := range page.Data {
		ids = append(ids, u.ID)
	}
	return ids
}
