package orders

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/dandy1414/user-api/internal/domain"
	"github.com/dandy1414/user-api/internal/pkg/ctxlog"
)

// Seeding bounds.
const (
	MinOrdersPerUser = 1
	MaxOrdersPerUser = 5
	MaxOrderAgeDays  = 90
)

// Seeder gives every stored user a few orders spread over the recent past.
type Seeder struct {
	repo Repository
	rand *rand.Rand
	now  func() time.Time
}

// NewSeeder creates a seeder drawing from the given random source.
func NewSeeder(repo Repository, src rand.Source) *Seeder {
	return &Seeder{
		repo: repo,
		rand: rand.New(src),
		now:  time.Now,
	}
}

// Seed creates between MinOrdersPerUser and MaxOrdersPerUser orders for each
// user and returns how many were created.
func (s *Seeder) Seed(ctx context.Context) (int, error) {
	logger := ctxlog.FromContext(ctx)

	userIDs, err := s.repo.ListUserIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}
	if len(userIDs) == 0 {
		logger.Warn("no users found, seed users first")
		return 0, nil
	}

	created := 0
	for _, userID := range userIDs {
		count := MinOrdersPerUser + s.rand.IntN(MaxOrdersPerUser-MinOrdersPerUser+1)
		for i := 0; i < count; i++ {
			order := &domain.Order{
				UserID:    userID,
				CreatedAt: s.randomTime(),
			}
			if err := s.repo.CreateOrder(ctx, order); err != nil {
				return created, fmt.Errorf("create order for user %d: %w", userID, err)
			}
			created++
		}
	}

	logger.Info("orders seeded", "users", len(userIDs), "orders", created)
	return created, nil
}

// randomTime picks a day within the last MaxOrderAgeDays and a random time
// of day on it.
func (s *Seeder) randomTime() time.Time {
	day := s.now().AddDate(0, 0, -s.rand.IntN(MaxOrderAgeDays+1))
	y, m, d := day.Date()
	return time.Date(y, m, d,
		s.rand.IntN(24),
		s.rand.IntN(60),
		s.rand.IntN(60),
		0, day.Location())
}
