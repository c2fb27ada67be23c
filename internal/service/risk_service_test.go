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

// --- stubs ---

// stubTxManager runs the function on the bare context; the in-memory repos
// below have nothing to lock.
type stubTxManager struct{}

func (stubTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

type stubActivity struct {
	events []model.AuditLog
}

func (s *stubActivity) PublishActivity(action, resource, code string) {
	s.events = append(s.events, model.AuditLog{Action: action, Resource: resource, Details: code})
}

type memRiskRepo struct {
	risks            []*model.Risk
	duplicateCreates int
}

func (m *memRiskRepo) Create(ctx context.Context, risk *model.Risk) error {
	if m.duplicateCreates > 0 {
		m.duplicateCreates--
		return gorm.ErrDuplicatedKey
	}
	risk.ID = uuid.New()
	stored := *risk
	m.risks = append(m.risks, &stored)
	return nil
}

func (m *memRiskRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Risk, error) {
	for _, r := range m.risks {
		if r.ID == id {
			copied := *r
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memRiskRepo) List(ctx context.Context, status string, page, limit int) ([]model.Risk, int64, error) {
	var out []model.Risk
	for _, r := range m.risks {
		if status == "" || r.Status == status {
			out = append(out, *r)
		}
	}
	return out, int64(len(out)), nil
}

func (m *memRiskRepo) Update(ctx context.Context, risk *model.Risk) error {
	for i, r := range m.risks {
		if r.ID == risk.ID {
			stored := *risk
			m.risks[i] = &stored
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *memRiskRepo) LastCode(ctx context.Context) (string, error) {
	if len(m.risks) == 0 {
		return "", nil
	}
	return m.risks[len(m.risks)-1].Code, nil
}

// --- tests ---

func newRiskRequest(title string, likelihood, impact int) CreateRiskRequest {
	return CreateRiskRequest{
		Title:              title,
		InherentLikelihood: likelihood,
		InherentImpact:     impact,
	}
}

func TestCreateRiskSequentialCodes(t *testing.T) {
	repo := &memRiskRepo{}
	svc := NewRiskService(repo, &stubAuditRepo{}, stubTxManager{}, nil)

	first, err := svc.CreateRisk(context.Background(), uuid.NewString(), newRiskRequest("Unpatched edge servers", 3, 3))
	require.NoError(t, err)
	assert.Equal(t, "RSK-001", first.Code)

	second, err := svc.CreateRisk(context.Background(), uuid.NewString(), newRiskRequest("Expired TLS certificates", 2, 4))
	require.NoError(t, err)
	assert.Equal(t, "RSK-002", second.Code)
}

func TestCreateRiskRetriesOnDuplicateCode(t *testing.T) {
	repo := &memRiskRepo{duplicateCreates: 1}
	svc := NewRiskService(repo, &stubAuditRepo{}, stubTxManager{}, nil)

	res, err := svc.CreateRisk(context.Background(), uuid.NewString(), newRiskRequest("Shadow IT SaaS usage", 4, 3))
	require.NoError(t, err)
	assert.Equal(t, "RSK-001", res.Code)
	assert.Len(t, repo.risks, 1)
}

func TestCreateRiskGivesUpAfterSecondDuplicate(t *testing.T) {
	repo := &memRiskRepo{duplicateCreates: 2}
	svc := NewRiskService(repo, &stubAuditRepo{}, stubTxManager{}, nil)

	_, err := svc.CreateRisk(context.Background(), uuid.NewString(), newRiskRequest("Shadow IT SaaS usage", 4, 3))
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestCreateRiskDerivesScoreAndPriority(t *testing.T) {
	svc := NewRiskService(&memRiskRepo{}, &stubAuditRepo{}, stubTxManager{}, nil)

	res, err := svc.CreateRisk(context.Background(), uuid.NewString(), newRiskRequest("Ransomware on file shares", 5, 4))
	require.NoError(t, err)

	assert.Equal(t, 20, res.InherentRiskScore)
	assert.Equal(t, "CRITICAL", res.Level)
	assert.Equal(t, 1, res.Priority)
	assert.Equal(t, model.RiskIdentified, res.Status)
	assert.Equal(t, model.TreatmentNotStarted, res.TreatmentStatus)
}

func TestCreateRiskWithTreatmentPlanStartsTreatment(t *testing.T) {
	svc := NewRiskService(&memRiskRepo{}, &stubAuditRepo{}, stubTxManager{}, nil)

	req := newRiskRequest("Weak vendor access controls", 3, 3)
	req.TreatmentPlan = "Quarterly vendor access review"

	res, err := svc.CreateRisk(context.Background(), uuid.NewString(), req)
	require.NoError(t, err)
	assert.Equal(t, model.TreatmentInProgress, res.TreatmentStatus)
}

func TestCreateRiskRecordsAuditAndActivity(t *testing.T) {
	audits := &stubAuditRepo{}
	activity := &stubActivity{}
	svc := NewRiskService(&memRiskRepo{}, audits, stubTxManager{}, activity)

	_, err := svc.CreateRisk(context.Background(), uuid.NewString(), newRiskRequest("Unpatched edge servers", 3, 3))
	require.NoError(t, err)

	require.Len(t, audits.entries, 1)
	assert.Equal(t, model.ActionCreateRisk, audits.entries[0].Action)
	assert.Equal(t, "risk", audits.entries[0].Resource)

	require.Len(t, activity.events, 1)
	assert.Equal(t, "RSK-001", activity.events[0].Details)
}

func TestUpdateRiskComputesResidualScore(t *testing.T) {
	repo := &memRiskRepo{}
	svc := NewRiskService(repo, &stubAuditRepo{}, stubTxManager{}, nil)

	created, err := svc.CreateRisk(context.Background(), uuid.NewString(), newRiskRequest("Ransomware on file shares", 5, 4))
	require.NoError(t, err)

	likelihood, impact := 2, 2
	status := model.RiskTreating
	res, err := svc.UpdateRisk(context.Background(), created.ID, UpdateRiskRequest{
		Status:             &status,
		ResidualLikelihood: &likelihood,
		ResidualImpact:     &impact,
	})
	require.NoError(t, err)
	require.NotNil(t, res.ResidualRiskScore)
	assert.Equal(t, 4, *res.ResidualRiskScore)
	assert.Equal(t, model.RiskTreating, res.Status)
}

func TestUpdateRiskRejectsUnknownStatus(t *testing.T) {
	repo := &memRiskRepo{}
	svc := NewRiskService(repo, &stubAuditRepo{}, stubTxManager{}, nil)

	created, err := svc.CreateRisk(context.Background(), uuid.NewString(), newRiskRequest("Unpatched edge servers", 3, 3))
	require.NoError(t, err)

	bogus := "ESCALATED"
	_, err = svc.UpdateRisk(context.Background(), created.ID, UpdateRiskRequest{Status: &bogus})
	assert.Error(t, err)
}
