package model

import (
	"time"

	"github.com/google/uuid"
)

// Objective statuses
const (
	ObjectiveNotStarted = "NOT_STARTED"
	ObjectiveOnTrack    = "ON_TRACK"
	ObjectiveAtRisk     = "AT_RISK"
	ObjectiveDelayed    = "DELAYED"
	ObjectiveCompleted  = "COMPLETED"
	ObjectiveCancelled  = "CANCELLED"
)

// Objective priorities
const (
	PriorityCritical = "CRITICAL"
	PriorityHigh     = "HIGH"
	PriorityMedium   = "MEDIUM"
	PriorityLow      = "LOW"
)

// Objective represents a strategy objective tracked by the strategy health
// dashboard
type Objective struct {
	ID              uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code            string     `gorm:"type:varchar(20);uniqueIndex;not null" json:"code"` // OBJ-001
	Title           string     `gorm:"type:varchar(200);not null" json:"title"`
	Description     string     `gorm:"type:text" json:"description"`
	Category        string     `gorm:"type:varchar(100)" json:"category"`
	Priority        string     `gorm:"type:varchar(20);not null;default:'MEDIUM'" json:"priority"`
	Status          string     `gorm:"type:varchar(20);not null;index" json:"status"`
	ProgressPercent int        `gorm:"not null;default:0" json:"progress_percent"` // 0-100
	FiscalYear      string     `gorm:"type:varchar(10)" json:"fiscal_year"`
	Quarter         string     `gorm:"type:varchar(5)" json:"quarter"`
	TargetDate      *time.Time `json:"target_date"`
	OwnerID         *uuid.UUID `gorm:"type:uuid;index" json:"owner_id"`
	Owner           *User      `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	CreatedAt       time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
