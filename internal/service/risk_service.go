package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"aegisciso/internal/model"
	"aegisciso/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ActivityPublisher pushes activity events to connected dashboards. The
// websocket hub satisfies it; services tolerate a nil publisher.
type ActivityPublisher interface {
	PublishActivity(action, resource, code string)
}

// --- DTOs ---

type CreateRiskRequest struct {
	Title              string `json:"title" binding:"required,min=3,max=200"`
	Description        string `json:"description"`
	Category           string `json:"category"`
	Source             string `json:"source"`
	InherentLikelihood int    `json:"inherent_likelihood" binding:"required,min=1,max=5"`
	InherentImpact     int    `json:"inherent_impact" binding:"required,min=1,max=5"`
	TreatmentPlan      string `json:"treatment_plan"`
}

type UpdateRiskRequest struct {
	Title              *string `json:"title" binding:"omitempty,min=3,max=200"`
	Description        *string `json:"description"`
	Category           *string `json:"category"`
	Status             *string `json:"status"`
	TreatmentPlan      *string `json:"treatment_plan"`
	TreatmentStatus    *string `json:"treatment_status"`
	ResidualLikelihood *int    `json:"residual_likelihood" binding:"omitempty,min=1,max=5"`
	ResidualImpact     *int    `json:"residual_impact" binding:"omitempty,min=1,max=5"`
}

type RiskResponse struct {
	ID                 string `json:"id"`
	Code               string `json:"code"`
	Title              string `json:"title"`
	Description        string `json:"description"`
	Category           string `json:"category"`
	Source             string `json:"source"`
	InherentLikelihood int    `json:"inherent_likelihood"`
	InherentImpact     int    `json:"inherent_impact"`
	InherentRiskScore  int    `json:"inherent_risk_score"`
	ResidualRiskScore  *int   `json:"residual_risk_score"`
	Level              string `json:"level"`
	Status             string `json:"status"`
	TreatmentPlan      string `json:"treatment_plan"`
	TreatmentStatus    string `json:"treatment_status"`
	Priority           int    `json:"priority"`
	OwnerName          string `json:"owner_name,omitempty"`
	CreatedAt          string `json:"created_at"`
	UpdatedAt          string `json:"updated_at"`
}

// RiskService implements the risk register behind the executive dashboard
// and risk/policy hub
type RiskService interface {
	CreateRisk(ctx context.Context, ownerID string, req CreateRiskRequest) (*RiskResponse, error)
	GetRisk(ctx context.Context, id string) (*RiskResponse, error)
	ListRisks(ctx context.Context, status string, page, limit int) ([]RiskResponse, int64, error)
	UpdateRisk(ctx context.Context, id string, req UpdateRiskRequest) (*RiskResponse, error)
}

type riskService struct {
	repo      repository.RiskRepository
	audits    repository.AuditRepository
	txManager repository.TransactionManager
	activity  ActivityPublisher
}

func NewRiskService(repo repository.RiskRepository, audits repository.AuditRepository, txManager repository.TransactionManager, activity ActivityPublisher) RiskService {
	return &riskService{repo: repo, audits: audits, txManager: txManager, activity: activity}
}

// CreateRisk generates the next RSK-NNN code and persists the risk in one
// transaction. The code column is unique, so the rare collision on an empty
// table (nothing to row-lock yet) surfaces as a duplicate-key error and is
// retried once with a fresh sequence read.
func (s *riskService) CreateRisk(ctx context.Context, ownerID string, req CreateRiskRequest) (*RiskResponse, error) {
	score := model.RiskScore(req.InherentLikelihood, req.InherentImpact)
	treatmentStatus := model.TreatmentNotStarted
	if req.TreatmentPlan != "" {
		treatmentStatus = model.TreatmentInProgress
	}

	risk := &model.Risk{
		Title:              req.Title,
		Description:        req.Description,
		Category:           req.Category,
		Source:             req.Source,
		InherentLikelihood: req.InherentLikelihood,
		InherentImpact:     req.InherentImpact,
		InherentRiskScore:  score,
		Status:             model.RiskIdentified,
		TreatmentPlan:      req.TreatmentPlan,
		TreatmentStatus:    treatmentStatus,
		Priority:           model.RiskPriority(score),
	}
	if owner, err := uuid.Parse(ownerID); err == nil {
		risk.OwnerID = &owner
	}

	var err error
	for attempt := 0; attempt < 2; attempt++ {
		err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
			code, codeErr := s.nextRiskCode(txCtx)
			if codeErr != nil {
				return codeErr
			}
			risk.Code = code
			return s.repo.Create(txCtx, risk)
		})
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create risk: %w", err)
	}

	s.recordActivity(ctx, risk.OwnerID, model.ActionCreateRisk, "risk", risk.Code, risk.Title)

	res := toRiskResponse(risk)
	return &res, nil
}

func (s *riskService) nextRiskCode(ctx context.Context) (string, error) {
	last, err := s.repo.LastCode(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read last risk code: %w", err)
	}

	next := 1
	if last != "" {
		n, parseErr := strconv.Atoi(strings.TrimPrefix(last, "RSK-"))
		if parseErr != nil {
			return "", fmt.Errorf("malformed risk code %q: %w", last, parseErr)
		}
		next = n + 1
	}
	return fmt.Sprintf("RSK-%03d", next), nil
}

func (s *riskService) GetRisk(ctx context.Context, id string) (*RiskResponse, error) {
	riskID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid risk id: %w", err)
	}

	risk, err := s.repo.FindByID(ctx, riskID)
	if err != nil {
		return nil, errors.New("risk not found")
	}

	res := toRiskResponse(risk)
	return &res, nil
}

func (s *riskService) ListRisks(ctx context.Context, status string, page, limit int) ([]RiskResponse, int64, error) {
	risks, total, err := s.repo.List(ctx, status, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch risks: %w", err)
	}

	res := make([]RiskResponse, 0, len(risks))
	for i := range risks {
		res = append(res, toRiskResponse(&risks[i]))
	}
	return res, total, nil
}

func (s *riskService) UpdateRisk(ctx context.Context, id string, req UpdateRiskRequest) (*RiskResponse, error) {
	riskID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid risk id: %w", err)
	}

	risk, err := s.repo.FindByID(ctx, riskID)
	if err != nil {
		return nil, errors.New("risk not found")
	}

	if req.Title != nil {
		risk.Title = *req.Title
	}
	if req.Description != nil {
		risk.Description = *req.Description
	}
	if req.Category != nil {
		risk.Category = *req.Category
	}
	if req.Status != nil {
		switch *req.Status {
		case model.RiskIdentified, model.RiskAssessing, model.RiskTreating, model.RiskMonitoring, model.RiskAccepted, model.RiskClosed:
			risk.Status = *req.Status
		default:
			return nil, fmt.Errorf("invalid risk status %q", *req.Status)
		}
	}
	if req.TreatmentPlan != nil {
		risk.TreatmentPlan = *req.TreatmentPlan
	}
	if req.TreatmentStatus != nil {
		switch *req.TreatmentStatus {
		case model.TreatmentNotStarted, model.TreatmentInProgress, model.TreatmentCompleted, model.TreatmentOnHold:
			risk.TreatmentStatus = *req.TreatmentStatus
		default:
			return nil, fmt.Errorf("invalid treatment status %q", *req.TreatmentStatus)
		}
	}
	if req.ResidualLikelihood != nil && req.ResidualImpact != nil {
		risk.ResidualLikelihood = req.ResidualLikelihood
		risk.ResidualImpact = req.ResidualImpact
		residual := model.RiskScore(*req.ResidualLikelihood, *req.ResidualImpact)
		risk.ResidualRiskScore = &residual
	}

	if err := s.repo.Update(ctx, risk); err != nil {
		return nil, fmt.Errorf("failed to update risk: %w", err)
	}

	s.recordActivity(ctx, risk.OwnerID, model.ActionUpdateRisk, "risk", risk.Code, risk.Title)

	res := toRiskResponse(risk)
	return &res, nil
}

// recordActivity writes the audit entry and pushes the live event. Both are
// best-effort.
func (s *riskService) recordActivity(ctx context.Context, userID *uuid.UUID, action, resource, code, title string) {
	details, _ := json.Marshal(map[string]string{"code": code, "title": title})
	entry := &model.AuditLog{
		UserID:   userID,
		Action:   action,
		Resource: resource,
		Details:  string(details),
	}
	if err := s.audits.Log(ctx, entry); err != nil {
		log.Printf("WARNING: failed to write audit entry for %s %s: %v", action, code, err)
	}
	if s.activity != nil {
		s.activity.PublishActivity(action, resource, code)
	}
}

func toRiskResponse(r *model.Risk) RiskResponse {
	res := RiskResponse{
		ID:                 r.ID.String(),
		Code:               r.Code,
		Title:              r.Title,
		Description:        r.Description,
		Category:           r.Category,
		Source:             r.Source,
		InherentLikelihood: r.InherentLikelihood,
		InherentImpact:     r.InherentImpact,
		InherentRiskScore:  r.InherentRiskScore,
		ResidualRiskScore:  r.ResidualRiskScore,
		Level:              model.RiskLevel(r.InherentRiskScore),
		Status:             r.Status,
		TreatmentPlan:      r.TreatmentPlan,
		TreatmentStatus:    r.TreatmentStatus,
		Priority:           r.Priority,
		CreatedAt:          r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:          r.UpdatedAt.Format(time.RFC3339),
	}
	if r.Owner != nil {
		res.OwnerName = r.Owner.Name
	}
	return res
}
