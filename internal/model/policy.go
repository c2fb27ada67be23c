package model

import (
	"time"

	"github.com/google/uuid"
)

// Policy lifecycle statuses
const (
	PolicyDraft       = "DRAFT"
	PolicyUnderReview = "UNDER_REVIEW"
	PolicyApproved    = "APPROVED"
	PolicyPublished   = "PUBLISHED"
	PolicyRetired     = "RETIRED"
)

// Policy represents a governance policy document tracked by the policy
// mapper and risk/policy hub
type Policy struct {
	ID              uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code            string     `gorm:"type:varchar(30);uniqueIndex;not null" json:"code"` // POL-SEC-001
	Title           string     `gorm:"type:varchar(200);not null" json:"title"`
	Description     string     `gorm:"type:text" json:"description"`
	Version         string     `gorm:"type:varchar(20);not null;default:'1.0'" json:"version"`
	Status          string     `gorm:"type:varchar(20);not null;index" json:"status"`
	Category        string     `gorm:"type:varchar(100);index" json:"category"`
	Department      string     `gorm:"type:varchar(100)" json:"department"`
	FrameworkSource string     `gorm:"type:varchar(100)" json:"framework_source"` // e.g. "ISO 27001", "NIST CSF"
	MaturityLevel   int        `gorm:"default:1" json:"maturity_level"`           // 1-5
	EffectiveDate   *time.Time `json:"effective_date"`
	ReviewDate      *time.Time `json:"review_date"`
	OwnerID         *uuid.UUID `gorm:"type:uuid;index" json:"owner_id"`
	Owner           *User      `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	CreatedAt       time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
