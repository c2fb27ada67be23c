package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionLogin           = "LOGIN"
	ActionCreateRisk      = "CREATE_RISK"
	ActionUpdateRisk      = "UPDATE_RISK"
	ActionCreatePolicy    = "CREATE_POLICY"
	ActionUpdatePolicy    = "UPDATE_POLICY"
	ActionCreateObjective = "CREATE_OBJECTIVE"
	ActionUpdateObjective = "UPDATE_OBJECTIVE"
	ActionCreateUser      = "CREATE_USER"
	ActionUpdateUser      = "UPDATE_USER"
	ActionDeleteUser      = "DELETE_USER"
)

// AuditLog is the append-only record of who did what. Entries are never
// mutated or deleted by the application.
type AuditLog struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nullable for system actions
	User      *User      `gorm:"foreignKey:UserID" json:"user"`
	Action    string     `gorm:"type:varchar(50);not null;index" json:"action"`
	Resource  string     `gorm:"type:varchar(50);not null;index" json:"resource"` // "auth", "risk", "policy"...
	Details   string     `gorm:"type:jsonb" json:"details"`                       // Serialized JSON payload of the action
	CreatedAt time.Time  `gorm:"index" json:"created_at"`
}
