package models

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdvisor  Role = "advisor"
	RoleReviewer Role = "reviewer"
	RoleStudent  Role = "student"
)

// User is a read-only view of the accounts table. Accounts are provisioned by the
// identity service; this service only looks them up.
type User struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	FullName string    `gorm:"size:255;not null" json:"full_name"`
	Email    string    `gorm:"size:255;not null;unique" json:"email"`
	Role     Role      `gorm:"size:20;not null;default:'student'" json:"role"`
	IsActive bool      `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Actor is the identity attached to every call into the core.
type Actor struct {
	ID   uuid.UUID
	Role Role
}
