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

// --- DTOs ---

type CreateObjectiveRequest struct {
	Title       string `json:"title" binding:"required,min=3,max=200"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Priority    string `json:"priority" binding:"omitempty,oneof=CRITICAL HIGH MEDIUM LOW"`
	FiscalYear  string `json:"fiscal_year"`
	Quarter     string `json:"quarter"`
	TargetDate  string `json:"target_date"` // RFC 3339, optional
}

type UpdateObjectiveRequest struct {
	Title           *string `json:"title" binding:"omitempty,min=3,max=200"`
	Description     *string `json:"description"`
	Status          *string `json:"status"`
	Priority        *string `json:"priority" binding:"omitempty,oneof=CRITICAL HIGH MEDIUM LOW"`
	ProgressPercent *int    `json:"progress_percent" binding:"omitempty,min=0,max=100"`
}

type ObjectiveResponse struct {
	ID              string `json:"id"`
	Code            string `json:"code"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	Category        string `json:"category"`
	Priority        string `json:"priority"`
	Status          string `json:"status"`
	ProgressPercent int    `json:"progress_percent"`
	FiscalYear      string `json:"fiscal_year"`
	Quarter         string `json:"quarter"`
	TargetDate      string `json:"target_date,omitempty"`
	OwnerName       string `json:"owner_name,omitempty"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

// ObjectiveService implements the strategy objectives behind the strategy
// health dashboard
type ObjectiveService interface {
	CreateObjective(ctx context.Context, ownerID string, req CreateObjectiveRequest) (*ObjectiveResponse, error)
	GetObjective(ctx context.Context, id string) (*ObjectiveResponse, error)
	ListObjectives(ctx context.Context, status string, page, limit int) ([]ObjectiveResponse, int64, error)
	UpdateObjective(ctx context.Context, id string, req UpdateObjectiveRequest) (*ObjectiveResponse, error)
}

type objectiveService struct {
	repo      repository.ObjectiveRepository
	audits    repository.AuditRepository
	txManager repository.TransactionManager
	activity  ActivityPublisher
}

func NewObjectiveService(repo repository.ObjectiveRepository, audits repository.AuditRepository, txManager repository.TransactionManager, activity ActivityPublisher) ObjectiveService {
	return &objectiveService{repo: repo, audits: audits, txManager: txManager, activity: activity}
}

func (s *objectiveService) CreateObjective(ctx context.Context, ownerID string, req CreateObjectiveRequest) (*ObjectiveResponse, error) {
	priority := req.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}

	objective := &model.Objective{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    priority,
		Status:      model.ObjectiveNotStarted,
		FiscalYear:  req.FiscalYear,
		Quarter:     req.Quarter,
	}
	if req.TargetDate != "" {
		target, parseErr := time.Parse(time.RFC3339, req.TargetDate)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid target_date: %w", parseErr)
		}
		objective.TargetDate = &target
	}
	if owner, err := uuid.Parse(ownerID); err == nil {
		objective.OwnerID = &owner
	}

	var err error
	for attempt := 0; attempt < 2; attempt++ {
		err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
			code, codeErr := s.nextObjectiveCode(txCtx)
			if codeErr != nil {
				return codeErr
			}
			objective.Code = code
			return s.repo.Create(txCtx, objective)
		})
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create objective: %w", err)
	}

	s.recordActivity(ctx, objective.OwnerID, model.ActionCreateObjective, objective.Code, objective.Title)

	res := toObjectiveResponse(objective)
	return &res, nil
}

func (s *objectiveService) nextObjectiveCode(ctx context.Context) (string, error) {
	last, err := s.repo.LastCode(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read last objective code: %w", err)
	}

	next := 1
	if last != "" {
		n, parseErr := strconv.Atoi(strings.TrimPrefix(last, "OBJ-"))
		if parseErr != nil {
			return "", fmt.Errorf("malformed objective code %q: %w", last, parseErr)
		}
		next = n + 1
	}
	return fmt.Sprintf("OBJ-%03d", next), nil
}

func (s *objectiveService) GetObjective(ctx context.Context, id string) (*ObjectiveResponse, error) {
	objectiveID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid objective id: %w", err)
	}

	objective, err := s.repo.FindByID(ctx, objectiveID)
	if err != nil {
		return nil, errors.New("objective not found")
	}

	res := toObjectiveResponse(objective)
	return &res, nil
}

func (s *objectiveService) ListObjectives(ctx context.Context, status string, page, limit int) ([]ObjectiveResponse, int64, error) {
	objectives, total, err := s.repo.List(ctx, status, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch objectives: %w", err)
	}

	res := make([]ObjectiveResponse, 0, len(objectives))
	for i := range objectives {
		res = append(res, toObjectiveResponse(&objectives[i]))
	}
	return res, total, nil
}

func (s *objectiveService) UpdateObjective(ctx context.Context, id string, req UpdateObjectiveRequest) (*ObjectiveResponse, error) {
	objectiveID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid objective id: %w", err)
	}

	objective, err := s.repo.FindByID(ctx, objectiveID)
	if err != nil {
		return nil, errors.New("objective not found")
	}

	if req.Title != nil {
		objective.Title = *req.Title
	}
	if req.Description != nil {
		objective.Description = *req.Description
	}
	if req.Status != nil {
		switch *req.Status {
		case model.ObjectiveNotStarted, model.ObjectiveOnTrack, model.ObjectiveAtRisk, model.ObjectiveDelayed, model.ObjectiveCompleted, model.ObjectiveCancelled:
			objective.Status = *req.Status
		default:
			return nil, fmt.Errorf("invalid objective status %q", *req.Status)
		}
	}
	if req.Priority != nil {
		objective.Priority = *req.Priority
	}
	if req.ProgressPercent != nil {
		objective.ProgressPercent = *req.ProgressPercent
		if objective.ProgressPercent == 100 {
			objective.Status = model.ObjectiveCompleted
		}
	}

	if err := s.repo.Update(ctx, objective); err != nil {
		return nil, fmt.Errorf("failed to update objective: %w", err)
	}

	s.recordActivity(ctx, objective.OwnerID, model.ActionUpdateObjective, objective.Code, objective.Title)

	res := toObjectiveResponse(objective)
	return &res, nil
}

func (s *objectiveService) recordActivity(ctx context.Context, userID *uuid.UUID, action, code, title string) {
	details, _ := json.Marshal(map[string]string{"code": code, "title": title})
	entry := &model.AuditLog{
		UserID:   userID,
		Action:   action,
		Resource: "objective",
		Details:  string(details),
	}
	if err := s.audits.Log(ctx, entry); err != nil {
		log.Printf("WARNING: failed to write audit entry for %s %s: %v", action, code, err)
	}
	if s.activity != nil {
		s.activity.PublishActivity(action, "objective", code)
	}
}

func toObjectiveResponse(o *model.Objective) ObjectiveResponse {
	res := ObjectiveResponse{
		ID:              o.ID.String(),
		Code:            o.Code,
		Title:           o.Title,
		Description:     o.Description,
		Category:        o.Category,
		Priority:        o.Priority,
		Status:          o.Status,
		ProgressPercent: o.ProgressPercent,
		FiscalYear:      o.FiscalYear,
		Quarter:         o.Quarter,
		CreatedAt:       o.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       o.UpdatedAt.Format(time.RFC3339),
	}
	if o.TargetDate != nil {
		res.TargetDate = o.TargetDate.Format(time.RFC3339)
	}
	if o.Owner != nil {
		res.OwnerName = o.Owner.Name
	}
	return res
}
