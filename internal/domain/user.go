package domain

import "time"

// Role determines what a user may edit.
type Role string

const (
	RoleAdministrator Role = "administrator"
	RoleManager       Role = "manager"
	RoleUser          Role = "user"
)

type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Active       bool
	CreatedAt    time.Time
}

// UserWithOrders is a user row annotated with the number of orders it owns.
type UserWithOrders struct {
	User
	OrdersCount int64
}
