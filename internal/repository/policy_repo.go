package repository

import (
	"context"
	"errors"

	"aegisciso/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PolicyRepository defines data access for Policy entities
type PolicyRepository interface {
	Create(ctx context.Context, policy *model.Policy) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Policy, error)
	List(ctx context.Context, status string, page, limit int) ([]model.Policy, int64, error)
	Update(ctx context.Context, policy *model.Policy) error
	LastCode(ctx context.Context) (string, error)
}

type policyRepository struct {
	db *gorm.DB
}

func NewPolicyRepository(db *gorm.DB) PolicyRepository {
	return &policyRepository{db: db}
}

func (r *policyRepository) Create(ctx context.Context, policy *model.Policy) error {
	return GetDB(ctx, r.db).Create(policy).Error
}

func (r *policyRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Policy, error) {
	var policy model.Policy
	if err := GetDB(ctx, r.db).Preload("Owner").First(&policy, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &policy, nil
}

func (r *policyRepository) List(ctx context.Context, status string, page, limit int) ([]model.Policy, int64, error) {
	var policies []model.Policy
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.Policy{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	fetchQuery := db.Preload("Owner")
	if status != "" {
		fetchQuery = fetchQuery.Where("status = ?", status)
	}
	if err := fetchQuery.Order("created_at desc").Offset(offset).Limit(limit).Find(&policies).Error; err != nil {
		return nil, 0, err
	}

	return policies, total, nil
}

func (r *policyRepository) Update(ctx context.Context, policy *model.Policy) error {
	return GetDB(ctx, r.db).Save(policy).Error
}

// LastCode returns the highest existing policy code under a row lock.
// Policy codes embed a category prefix (POL-SEC-001) but the trailing
// sequence is global, so ordering by the numeric suffix is done in SQL.
func (r *policyRepository) LastCode(ctx context.Context) (string, error) {
	var policy model.Policy
	err := GetDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Order("substring(code from '[0-9]+$')::int desc").
		First(&policy).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return policy.Code, nil
}
