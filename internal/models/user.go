package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role names the duty a user performs in the system
type Role string

const (
	RoleOfficer    Role = "officer"    // creates and closes partes from the field
	RoleCallCenter Role = "callcenter" // reviews aggregations from the console
	RoleAdmin      Role = "admin"
)

// User represents an officer or console operator
type User struct {
	ID        string     `gorm:"primaryKey;type:uuid" json:"id"`
	Username  string     `gorm:"unique;not null" json:"username"`
	Password  string     `gorm:"not null" json:"-"`
	Email     string     `gorm:"unique;not null" json:"email"`
	Name      string     `json:"name,omitempty"`
	Role      Role       `gorm:"default:'officer'" json:"role"`
	IsActive  bool       `gorm:"default:true" json:"is_active"`
	LastLogin *time.Time `json:"last_login,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for User model
func (User) TableName() string {
	return "users"
}

// BeforeCreate assigns a UUID so ids do not depend on a database extension
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// DisplayName prefers the full name and falls back to the username
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}

// IsValidRole reports whether r is one of the known roles
func IsValidRole(r Role) bool {
	return r == RoleOfficer || r == RoleCallCenter || r == RoleAdmin
}
