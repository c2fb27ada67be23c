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

type CreatePolicyRequest struct {
	Title           string `json:"title" binding:"required,min=3,max=200"`
	Description     string `json:"description"`
	Category        string `json:"category" binding:"required,min=3,max=100"`
	Department      string `json:"department"`
	FrameworkSource string `json:"framework_source"`
	MaturityLevel   int    `json:"maturity_level" binding:"omitempty,min=1,max=5"`
}

type UpdatePolicyRequest struct {
	Title         *string `json:"title" binding:"omitempty,min=3,max=200"`
	Description   *string `json:"description"`
	Status        *string `json:"status"`
	Version       *string `json:"version"`
	Department    *string `json:"department"`
	MaturityLevel *int    `json:"maturity_level" binding:"omitempty,min=1,max=5"`
}

type PolicyResponse struct {
	ID              string `json:"id"`
	Code            string `json:"code"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	Version         string `json:"version"`
	Status          string `json:"status"`
	Category        string `json:"category"`
	Department      string `json:"department"`
	FrameworkSource string `json:"framework_source"`
	MaturityLevel   int    `json:"maturity_level"`
	OwnerName       string `json:"owner_name,omitempty"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

// PolicyService implements the policy register behind the policy mapper
type PolicyService interface {
	CreatePolicy(ctx context.Context, ownerID string, req CreatePolicyRequest) (*PolicyResponse, error)
	GetPolicy(ctx context.Context, id string) (*PolicyResponse, error)
	ListPolicies(ctx context.Context, status string, page, limit int) ([]PolicyResponse, int64, error)
	UpdatePolicy(ctx context.Context, id string, req UpdatePolicyRequest) (*PolicyResponse, error)
}

type policyService struct {
	repo      repository.PolicyRepository
	audits    repository.AuditRepository
	txManager repository.TransactionManager
	activity  ActivityPublisher
}

func NewPolicyService(repo repository.PolicyRepository, audits repository.AuditRepository, txManager repository.TransactionManager, activity ActivityPublisher) PolicyService {
	return &policyService{repo: repo, audits: audits, txManager: txManager, activity: activity}
}

// CreatePolicy assigns the next POL-XXX-NNN code (XXX from the category,
// NNN a global sequence) inside a transaction, retrying once on a
// duplicate-key collision.
func (s *policyService) CreatePolicy(ctx context.Context, ownerID string, req CreatePolicyRequest) (*PolicyResponse, error) {
	maturity := req.MaturityLevel
	if maturity == 0 {
		maturity = 1
	}

	policy := &model.Policy{
		Title:           req.Title,
		Description:     req.Description,
		Category:        req.Category,
		Department:      req.Department,
		FrameworkSource: req.FrameworkSource,
		MaturityLevel:   maturity,
		Status:          model.PolicyDraft,
		Version:         "1.0",
	}
	if owner, err := uuid.Parse(ownerID); err == nil {
		policy.OwnerID = &owner
	}

	var err error
	for attempt := 0; attempt < 2; attempt++ {
		err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
			code, codeErr := s.nextPolicyCode(txCtx, req.Category)
			if codeErr != nil {
				return codeErr
			}
			policy.Code = code
			return s.repo.Create(txCtx, policy)
		})
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create policy: %w", err)
	}

	s.recordActivity(ctx, policy.OwnerID, model.ActionCreatePolicy, policy.Code, policy.Title)

	res := toPolicyResponse(policy)
	return &res, nil
}

func (s *policyService) nextPolicyCode(ctx context.Context, category string) (string, error) {
	last, err := s.repo.LastCode(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read last policy code: %w", err)
	}

	next := 1
	if last != "" {
		parts := strings.Split(last, "-")
		n, parseErr := strconv.Atoi(parts[len(parts)-1])
		if parseErr != nil {
			return "", fmt.Errorf("malformed policy code %q: %w", last, parseErr)
		}
		next = n + 1
	}

	prefix := strings.ToUpper(category)
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}
	return fmt.Sprintf("POL-%s-%03d", prefix, next), nil
}

func (s *policyService) GetPolicy(ctx context.Context, id string) (*PolicyResponse, error) {
	policyID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid policy id: %w", err)
	}

	policy, err := s.repo.FindByID(ctx, policyID)
	if err != nil {
		return nil, errors.New("policy not found")
	}

	res := toPolicyResponse(policy)
	return &res, nil
}

func (s *policyService) ListPolicies(ctx context.Context, status string, page, limit int) ([]PolicyResponse, int64, error) {
	policies, total, err := s.repo.List(ctx, status, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch policies: %w", err)
	}

	res := make([]PolicyResponse, 0, len(policies))
	for i := range policies {
		res = append(res, toPolicyResponse(&policies[i]))
	}
	return res, total, nil
}

func (s *policyService) UpdatePolicy(ctx context.Context, id string, req UpdatePolicyRequest) (*PolicyResponse, error) {
	policyID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid policy id: %w", err)
	}

	policy, err := s.repo.FindByID(ctx, policyID)
	if err != nil {
		return nil, errors.New("policy not found")
	}

	if req.Title != nil {
		policy.Title = *req.Title
	}
	if req.Description != nil {
		policy.Description = *req.Description
	}
	if req.Status != nil {
		switch *req.Status {
		case model.PolicyDraft, model.PolicyUnderReview, model.PolicyApproved, model.PolicyPublished, model.PolicyRetired:
			policy.Status = *req.Status
		default:
			return nil, fmt.Errorf("invalid policy status %q", *req.Status)
		}
	}
	if req.Version != nil {
		policy.Version = *req.Version
	}
	if req.Department != nil {
		policy.Department = *req.Department
	}
	if req.MaturityLevel != nil {
		policy.MaturityLevel = *req.MaturityLevel
	}

	if err := s.repo.Update(ctx, policy); err != nil {
		return nil, fmt.Errorf("failed to update policy: %w", err)
	}

	s.recordActivity(ctx, policy.OwnerID, model.ActionUpdatePolicy, policy.Code, policy.Title)

	res := toPolicyResponse(policy)
	return &res, nil
}

func (s *policyService) recordActivity(ctx context.Context, userID *uuid.UUID, action, code, title string) {
	details, _ := json.Marshal(map[string]string{"code": code, "title": title})
	entry := &model.AuditLog{
		UserID:   userID,
		Action:   action,
		Resource: "policy",
		Details:  string(details),
	}
	if err := s.audits.Log(ctx, entry); err != nil {
		log.Printf("WARNING: failed to write audit entry for %s %s: %v", action, code, err)
	}
	if s.activity != nil {
		s.activity.PublishActivity(action, "policy", code)
	}
}

func toPolicyResponse(p *model.Policy) PolicyResponse {
	res := PolicyResponse{
		ID:              p.ID.String(),
		Code:            p.Code,
		Title:           p.Title,
		Description:     p.Description,
		Version:         p.Version,
		Status:          p.Status,
		Category:        p.Category,
		Department:      p.Department,
		FrameworkSource: p.FrameworkSource,
		MaturityLevel:   p.MaturityLevel,
		CreatedAt:       p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       p.UpdatedAt.Format(time.RFC3339),
	}
	if p.Owner != nil {
		res.OwnerName = p.Owner.Name
	}
	return res
}
