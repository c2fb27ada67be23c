package service

import (
	"context"

	"aegisciso/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PostureResponse aggregates the executive dashboard's bounded percentage
// scores. Every score is clamped to [0,100].
type PostureResponse struct {
	RiskPosture        float64        `json:"risk_posture"`        // share of risks under control
	ComplianceCoverage float64        `json:"compliance_coverage"` // published policies / all policies
	ObjectiveHealth    float64        `json:"objective_health"`    // mean objective progress
	MaturityScore      float64        `json:"maturity_score"`      // mean policy maturity, scaled to 100
	TotalRisks         int64          `json:"total_risks"`
	OpenCriticalRisks  int64          `json:"open_critical_risks"`
	RisksByLevel       map[string]int `json:"risks_by_level"`
	TotalPolicies      int64          `json:"total_policies"`
	PublishedPolicies  int64          `json:"published_policies"`
	TotalObjectives    int64          `json:"total_objectives"`
}

type PostureService interface {
	GetPosture(ctx context.Context) (*PostureResponse, error)
}

type postureService struct {
	db *gorm.DB
}

func NewPostureService(db *gorm.DB) PostureService {
	return &postureService{db: db}
}

// controlledStatuses are risk states considered "under control" for the
// posture score.
var controlledStatuses = []string{model.RiskMonitoring, model.RiskAccepted, model.RiskClosed}

// GetPosture computes the dashboard aggregates. Percentages use decimal
// arithmetic rounded to one place so repeated reads are stable.
func (s *postureService) GetPosture(ctx context.Context) (*PostureResponse, error) {
	res := &PostureResponse{RisksByLevel: map[string]int{}}

	db := s.db.WithContext(ctx)

	if err := db.Model(&model.Risk{}).Count(&res.TotalRisks).Error; err != nil {
		return nil, err
	}

	var controlled int64
	if err := db.Model(&model.Risk{}).Where("status IN ?", controlledStatuses).Count(&controlled).Error; err != nil {
		return nil, err
	}

	if err := db.Model(&model.Risk{}).
		Where("inherent_risk_score >= ? AND status NOT IN ?", 20, controlledStatuses).
		Count(&res.OpenCriticalRisks).Error; err != nil {
		return nil, err
	}

	var levelRows []struct {
		Level string
		Count int
	}
	if err := db.Model(&model.Risk{}).
		Select(`CASE
			WHEN inherent_risk_score >= 20 THEN 'CRITICAL'
			WHEN inherent_risk_score >= 12 THEN 'HIGH'
			WHEN inherent_risk_score >= 6 THEN 'MEDIUM'
			ELSE 'LOW' END AS level, COUNT(*) AS count`).
		Group("level").
		Scan(&levelRows).Error; err != nil {
		return nil, err
	}
	for _, row := range levelRows {
		res.RisksByLevel[row.Level] = row.Count
	}

	if err := db.Model(&model.Policy{}).Count(&res.TotalPolicies).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Policy{}).Where("status = ?", model.PolicyPublished).Count(&res.PublishedPolicies).Error; err != nil {
		return nil, err
	}

	var maturitySum struct {
		Value int64
	}
	if err := db.Model(&model.Policy{}).Select("COALESCE(SUM(maturity_level), 0) as value").Scan(&maturitySum).Error; err != nil {
		return nil, err
	}

	if err := db.Model(&model.Objective{}).Count(&res.TotalObjectives).Error; err != nil {
		return nil, err
	}
	var progressSum struct {
		Value int64
	}
	if err := db.Model(&model.Objective{}).Select("COALESCE(SUM(progress_percent), 0) as value").Scan(&progressSum).Error; err != nil {
		return nil, err
	}

	res.RiskPosture = boundedPercent(controlled, res.TotalRisks)
	res.ComplianceCoverage = boundedPercent(res.PublishedPolicies, res.TotalPolicies)
	res.ObjectiveHealth = boundedRatio(progressSum.Value, res.TotalObjectives)
	// Maturity is 1-5 per policy; scale the mean onto 0-100.
	res.MaturityScore = boundedRatio(maturitySum.Value*20, res.TotalPolicies)

	return res, nil
}

// boundedPercent returns part/total as a percentage in [0,100], 0 when the
// denominator is empty.
func boundedPercent(part, total int64) float64 {
	if total <= 0 {
		return 0
	}
	pct := decimal.NewFromInt(part).
		Div(decimal.NewFromInt(total)).
		Mul(decimal.NewFromInt(100)).
		Round(1)
	return clampPercent(pct)
}

// boundedRatio returns sum/count clamped to [0,100].
func boundedRatio(sum, count int64) float64 {
	if count <= 0 {
		return 0
	}
	val := decimal.NewFromInt(sum).
		Div(decimal.NewFromInt(count)).
		Round(1)
	return clampPercent(val)
}

func clampPercent(d decimal.Decimal) float64 {
	if d.IsNegative() {
		return 0
	}
	if d.GreaterThan(decimal.NewFromInt(100)) {
		return 100
	}
	f, _ := d.Float64()
	return f
}
