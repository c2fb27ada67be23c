package model

import (
	"time"

	"github.com/google/uuid"
)

// Risk lifecycle statuses
const (
	RiskIdentified = "IDENTIFIED"
	RiskAssessing  = "ASSESSING"
	RiskTreating   = "TREATING"
	RiskMonitoring = "MONITORING"
	RiskAccepted   = "ACCEPTED"
	RiskClosed     = "CLOSED"
)

// Treatment statuses
const (
	TreatmentNotStarted = "NOT_STARTED"
	TreatmentInProgress = "IN_PROGRESS"
	TreatmentCompleted  = "COMPLETED"
	TreatmentOnHold     = "ON_HOLD"
)

// Risk represents an identified security risk with inherent and residual
// scoring on a 5x5 likelihood/impact matrix
type Risk struct {
	ID                 uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code               string     `gorm:"type:varchar(20);uniqueIndex;not null" json:"code"` // RSK-001
	Title              string     `gorm:"type:varchar(200);not null" json:"title"`
	Description        string     `gorm:"type:text" json:"description"`
	Category           string     `gorm:"type:varchar(100);index" json:"category"`
	Source             string     `gorm:"type:varchar(100)" json:"source"`
	InherentLikelihood int        `gorm:"not null" json:"inherent_likelihood"` // 1-5
	InherentImpact     int        `gorm:"not null" json:"inherent_impact"`     // 1-5
	InherentRiskScore  int        `gorm:"not null" json:"inherent_risk_score"` // likelihood * impact
	ResidualLikelihood *int       `json:"residual_likelihood"`
	ResidualImpact     *int       `json:"residual_impact"`
	ResidualRiskScore  *int       `json:"residual_risk_score"`
	Status             string     `gorm:"type:varchar(20);not null;index" json:"status"`
	TreatmentPlan      string     `gorm:"type:text" json:"treatment_plan"`
	TreatmentStatus    string     `gorm:"type:varchar(20);not null" json:"treatment_status"`
	Priority           int        `gorm:"not null;default:3" json:"priority"` // 1 = highest
	TargetDate         *time.Time `json:"target_date"`
	OwnerID            *uuid.UUID `gorm:"type:uuid;index" json:"owner_id"`
	Owner              *User      `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	CreatedAt          time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt          time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// RiskScore multiplies likelihood by impact on the 5x5 matrix.
func RiskScore(likelihood, impact int) int {
	return likelihood * impact
}

// RiskLevel buckets a score into the standard severity bands.
func RiskLevel(score int) string {
	switch {
	case score >= 20:
		return "CRITICAL"
	case score >= 12:
		return "HIGH"
	case score >= 6:
		return "MEDIUM"
	default:
		return "LOW"
	}
}

// RiskPriority maps a score onto the 1-3 priority bands used by the
// executive dashboard.
func RiskPriority(score int) int {
	switch {
	case score >= 20:
		return 1
	case score >= 12:
		return 2
	default:
		return 3
	}
}
