package domain

import "time"

// Order is owned by a user. Only its count per user is exposed by the API.
type Order struct {
	ID        int64
	UserID    int64
	CreatedAt time.Time
}
