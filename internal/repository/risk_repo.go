package repository

import (
	"context"
	"errors"

	"aegisciso/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RiskRepository defines data access for Risk entities
type RiskRepository interface {
	Create(ctx context.Context, risk *model.Risk) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Risk, error)
	List(ctx context.Context, status string, page, limit int) ([]model.Risk, int64, error)
	Update(ctx context.Context, risk *model.Risk) error
	LastCode(ctx context.Context) (string, error)
}

type riskRepository struct {
	db *gorm.DB
}

func NewRiskRepository(db *gorm.DB) RiskRepository {
	return &riskRepository{db: db}
}

func (r *riskRepository) Create(ctx context.Context, risk *model.Risk) error {
	return GetDB(ctx, r.db).Create(risk).Error
}

func (r *riskRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Risk, error) {
	var risk model.Risk
	if err := GetDB(ctx, r.db).Preload("Owner").First(&risk, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &risk, nil
}

func (r *riskRepository) List(ctx context.Context, status string, page, limit int) ([]model.Risk, int64, error) {
	var risks []model.Risk
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.Risk{})
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
	if err := fetchQuery.Order("created_at desc").Offset(offset).Limit(limit).Find(&risks).Error; err != nil {
		return nil, 0, err
	}

	return risks, total, nil
}

func (r *riskRepository) Update(ctx context.Context, risk *model.Risk) error {
	return GetDB(ctx, r.db).Save(risk).Error
}

// LastCode returns the highest existing risk code, locking the row so that
// two concurrent creates inside transactions cannot read the same value.
// Returns "" when no risks exist yet.
func (r *riskRepository) LastCode(ctx context.Context) (string, error) {
	var risk model.Risk
	err := GetDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Order("code desc").
		First(&risk).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return risk.Code, nil
}
