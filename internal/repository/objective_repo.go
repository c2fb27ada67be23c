package repository

import (
	"context"
	"errors"

	"aegisciso/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ObjectiveRepository defines data access for strategy Objective entities
type ObjectiveRepository interface {
	Create(ctx context.Context, objective *model.Objective) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Objective, error)
	List(ctx context.Context, status string, page, limit int) ([]model.Objective, int64, error)
	Update(ctx context.Context, objective *model.Objective) error
	LastCode(ctx context.Context) (string, error)
}

type objectiveRepository struct {
	db *gorm.DB
}

func NewObjectiveRepository(db *gorm.DB) ObjectiveRepository {
	return &objectiveRepository{db: db}
}

func (r *objectiveRepository) Create(ctx context.Context, objective *model.Objective) error {
	return GetDB(ctx, r.db).Create(objective).Error
}

func (r *objectiveRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Objective, error) {
	var objective model.Objective
	if err := GetDB(ctx, r.db).Preload("Owner").First(&objective, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &objective, nil
}

func (r *objectiveRepository) List(ctx context.Context, status string, page, limit int) ([]model.Objective, int64, error) {
	var objectives []model.Objective
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.Objective{})
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
	if err := fetchQuery.Order("created_at desc").Offset(offset).Limit(limit).Find(&objectives).Error; err != nil {
		return nil, 0, err
	}

	return objectives, total, nil
}

func (r *objectiveRepository) Update(ctx context.Context, objective *model.Objective) error {
	return GetDB(ctx, r.db).Save(objective).Error
}

// LastCode returns the highest existing objective code under a row lock.
// Returns "" when no objectives exist yet.
func (r *objectiveRepository) LastCode(ctx context.Context) (string, error) {
	var objective model.Objective
	err := GetDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Order("code desc").
		First(&objective).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return objective.Code, nil
}
