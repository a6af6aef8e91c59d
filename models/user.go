package models

import "time"

const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
)

// User is a member of bakery staff who can sign in
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:50;uniqueIndex:idx_users_username;not null" json:"username"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Role         string    `gorm:"size:20;not null;default:'manager'" json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}

// IsAdmin reports whether the user may manage the catalog, staff and reports
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// ValidRole reports whether role is one the application understands
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleManager
}
