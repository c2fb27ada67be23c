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

type memPolicyRepo struct {
	policies []*model.Policy
}

func (m *memPolicyRepo) Create(ctx context.Context, policy *model.Policy) error {
	policy.ID = uuid.New()
	stored := *policy
	m.policies = append(m.policies, &stored)
	return nil
}

func (m *memPolicyRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Policy, error) {
	for _, p := range m.policies {
		if p.ID == id {
			copied := *p
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memPolicyRepo) List(ctx context.Context, status string, page, limit int) ([]model.Policy, int64, error) {
	var out []model.Policy
	for _, p := range m.policies {
		if status == "" || p.Status == status {
			out = append(out, *p)
		}
	}
	return out, int64(len(out)), nil
}

func (m *memPolicyRepo) Update(ctx context.Context, policy *model.Policy) error {
	for i, p := range m.policies {
		if p.ID == policy.ID {
			stored := *policy
			m.policies[i] = &stored
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *memPolicyRepo) LastCode(ctx context.Context) (string, error) {
	if len(m.policies) == 0 {
		return "", nil
	}
	return m.policies[len(m.policies)-1].Code, nil
}

func TestCreatePolicyCategoryPrefix(t *testing.T) {
	svc := NewPolicyService(&memPolicyRepo{}, &stubAuditRepo{}, stubTxManager{}, nil)

	res, err := svc.CreatePolicy(context.Background(), uuid.NewString(), CreatePolicyRequest{
		Title:    "Access Control Policy",
		Category: "Access Control",
	})
	require.NoError(t, err)

	assert.Equal(t, "POL-ACC-001", res.Code)
	assert.Equal(t, model.PolicyDraft, res.Status)
	assert.Equal(t, "1.0", res.Version)
	assert.Equal(t, 1, res.MaturityLevel)
}

func TestCreatePolicyShortCategory(t *testing.T) {
	svc := NewPolicyService(&memPolicyRepo{}, &stubAuditRepo{}, stubTxManager{}, nil)

	res, err := svc.CreatePolicy(context.Background(), uuid.NewString(), CreatePolicyRequest{
		Title:    "HR Screening Policy",
		Category: "HR",
	})
	require.NoError(t, err)
	assert.Equal(t, "POL-HR-001", res.Code)
}

func TestCreatePolicySequenceIsGlobalAcrossCategories(t *testing.T) {
	repo := &memPolicyRepo{}
	svc := NewPolicyService(repo, &stubAuditRepo{}, stubTxManager{}, nil)

	first, err := svc.CreatePolicy(context.Background(), uuid.NewString(), CreatePolicyRequest{
		Title:    "Access Control Policy",
		Category: "Access Control",
	})
	require.NoError(t, err)
	assert.Equal(t, "POL-ACC-001", first.Code)

	second, err := svc.CreatePolicy(context.Background(), uuid.NewString(), CreatePolicyRequest{
		Title:    "Data Retention Policy",
		Category: "Data Governance",
	})
	require.NoError(t, err)
	assert.Equal(t, "POL-DAT-002", second.Code)
}

func TestUpdatePolicyStatusTransitions(t *testing.T) {
	repo := &memPolicyRepo{}
	svc := NewPolicyService(repo, &stubAuditRepo{}, stubTxManager{}, nil)

	created, err := svc.CreatePolicy(context.Background(), uuid.NewString(), CreatePolicyRequest{
		Title:    "Access Control Policy",
		Category: "Access Control",
	})
	require.NoError(t, err)

	published := model.PolicyPublished
	res, err := svc.UpdatePolicy(context.Background(), created.ID, UpdatePolicyRequest{Status: &published})
	require.NoError(t, err)
	assert.Equal(t, model.PolicyPublished, res.Status)

	bogus := "ARCHIVED"
	_, err = svc.UpdatePolicy(context.Background(), created.ID, UpdatePolicyRequest{Status: &bogus})
	assert.Error(t, err)
}
