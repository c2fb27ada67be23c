package service

import (
	"context"
	"testing"

	"aegisciso/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type memObjectiveRepo struct {
	objectives []*model.Objective
}

func (m *memObjectiveRepo) Create(ctx context.Context, objective *model.Objective) error {
	objective.ID = uuid.New()
	stored := *objective
	m.objectives = append(m.objectives, &stored)
	return nil
}

func (m *memObjectiveRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Objective, error) {
	for _, o := range m.objectives {
		if o.ID == id {
			copied := *o
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memObjectiveRepo) List(ctx context.Context, status string, page, limit int) ([]model.Objective, int64, error) {
	var out []model.Objective
	for _, o := range m.objectives {
		if status == "" || o.Status == status {
			out = append(out, *o)
		}
	}
	return out, int64(len(out)), nil
}

func (m *memObjectiveRepo) Update(ctx context.Context, objective *model.Objective) error {
	for i, o := range m.objectives {
		if o.ID == objective.ID {
			stored := *objective
			m.objectives[i] = &stored
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *memObjectiveRepo) LastCode(ctx context.Context) (string, error) {
	if len(m.objectives) == 0 {
		return "", nil
	}
	return m.objectives[len(m.objectives)-1].Code, nil
}

func TestCreateObjectiveSequentialCodes(t *testing.T) {
	repo := &memObjectiveRepo{}
	svc := NewObjectiveService(repo, &stubAuditRepo{}, stubTxManager{}, nil)

	first, err := svc.CreateObjective(context.Background(), uuid.NewString(), CreateObjectiveRequest{
		Title: "Achieve ISO 27001 certification",
	})
	require.NoError(t, err)
	assert.Equal(t, "OBJ-001", first.Code)
	assert.Equal(t, model.ObjectiveNotStarted, first.Status)
	assert.Equal(t, model.PriorityMedium, first.Priority)

	second, err := svc.CreateObjective(context.Background(), uuid.NewString(), CreateObjectiveRequest{
		Title:    "Roll out phishing-resistant MFA",
		Priority: model.PriorityHigh,
	})
	require.NoError(t, err)
	assert.Equal(t, "OBJ-002", second.Code)
	assert.Equal(t, model.PriorityHigh, second.Priority)
}

func TestCreateObjectiveRejectsBadTargetDate(t *testing.T) {
	svc := NewObjectiveService(&memObjectiveRepo{}, &stubAuditRepo{}, stubTxManager{}, nil)

	_, err := svc.CreateObjective(context.Background(), uuid.NewString(), CreateObjectiveRequest{
		Title:      "Achieve ISO 27001 certification",
		TargetDate: "next quarter",
	})
	assert.Error(t, err)
}

func TestUpdateObjectiveFullProgressCompletes(t *testing.T) {
	repo := &memObjectiveRepo{}
	svc := NewObjectiveService(repo, &stubAuditRepo{}, stubTxManager{}, nil)

	created, err := svc.CreateObjective(context.Background(), uuid.NewString(), CreateObjectiveRequest{
		Title: "Achieve ISO 27001 certification",
	})
	require.NoError(t, err)

	progress := 100
	res, err := svc.UpdateObjective(context.Background(), created.ID, UpdateObjectiveRequest{ProgressPercent: &progress})
	require.NoError(t, err)
	assert.Equal(t, 100, res.ProgressPercent)
	assert.Equal(t, model.ObjectiveCompleted, res.Status)
}

func TestUpdateObjectivePartialProgressKeepsStatus(t *testing.T) {
	repo := &memObjectiveRepo{}
	svc := NewObjectiveService(repo, &stubAuditRepo{}, stubTxManager{}, nil)

	created, err := svc.CreateObjective(context.Background(), uuid.NewString(), CreateObjectiveRequest{
		Title: "Achieve ISO 27001 certification",
	})
	require.NoError(t, err)

	onTrack := model.ObjectiveOnTrack
	progress := 60
	res, err := svc.UpdateObjective(context.Background(), created.ID, UpdateObjectiveRequest{
		Status:          &onTrack,
		ProgressPercent: &progress,
	})
	require.NoError(t, err)
	assert.Equal(t, model.ObjectiveOnTrack, res.Status)
	assert.Equal(t, 60, res.ProgressPercent)
}
