package model

import (
	"time"

	"github.com/google/uuid"
)

// Closed set of role names. Route guards and the seeder reference these
// constants instead of scattering string literals per route.
const (
	RoleCISO       = "CISO"
	RoleAdmin      = "ADMIN"
	RoleGRCAnalyst = "GRC_ANALYST"
	RoleSOCManager = "SOC_MANAGER"
	RoleAnalyst    = "ANALYST"
	RoleViewer     = "VIEWER"
)

// AllRoles lists every valid role name.
var AllRoles = []string{RoleCISO, RoleAdmin, RoleGRCAnalyst, RoleSOCManager, RoleAnalyst, RoleViewer}

// IsValidRole reports whether name belongs to the closed role set.
func IsValidRole(name string) bool {
	for _, r := range AllRoles {
		if r == name {
			return true
		}
	}
	return false
}

// Role represents a named aggregate of permissions. A user references exactly
// one role; the role's permission set is flattened into the session token at
// login and not re-read until the token is re-issued.
type Role struct {
	ID          uuid.UUID    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string       `gorm:"type:varchar(50);uniqueIndex;not null" json:"name"`
	Description string       `gorm:"type:text" json:"description"`
	IsSystem    bool         `gorm:"default:false" json:"is_system"` // Prevent deletion of built-in roles
	Permissions []Permission `gorm:"many2many:role_permissions;" json:"permissions"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Permission is an atomic named capability in "resource:action" form
type Permission struct {
	ID    uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name  string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"` // e.g. "risk:read"
	Group string    `gorm:"type:varchar(50);not null;index" json:"group"`       // "risk", "policy", "user"...
}
