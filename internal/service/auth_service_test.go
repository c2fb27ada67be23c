package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"aegisciso/internal/auth"
	"aegisciso/internal/config"
	"aegisciso/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// --- stubs ---

type stubUserRepo struct {
	user            *model.User
	passwordWrites  []string
	lastLoginWrites int
	failLastLogin   bool
}

func (s *stubUserRepo) Create(ctx context.Context, user *model.User) error { return nil }

func (s *stubUserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	if s.user != nil && s.user.ID.String() == id {
		return s.user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	if s.user != nil && s.user.Email == email {
		return s.user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepo) GetByEmailWithPermissions(ctx context.Context, email string) (*model.User, error) {
	return s.GetByEmail(ctx, email)
}

func (s *stubUserRepo) GetByIDWithPermissions(ctx context.Context, id string) (*model.User, error) {
	return s.GetByID(ctx, id)
}

func (s *stubUserRepo) List(ctx context.Context, page, limit int) ([]model.User, int64, error) {
	return nil, 0, nil
}

func (s *stubUserRepo) Update(ctx context.Context, user *model.User) error { return nil }

func (s *stubUserRepo) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	s.passwordWrites = append(s.passwordWrites, hash)
	s.user.PasswordHash = hash
	return nil
}

func (s *stubUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	if s.failLastLogin {
		return errors.New("db unavailable")
	}
	s.lastLoginWrites++
	return nil
}

func (s *stubUserRepo) Delete(ctx context.Context, id string) error { return nil }

type stubRefreshRepo struct {
	tokens map[string]*model.RefreshToken
}

func newStubRefreshRepo() *stubRefreshRepo {
	return &stubRefreshRepo{tokens: make(map[string]*model.RefreshToken)}
}

func (s *stubRefreshRepo) Create(ctx context.Context, token *model.RefreshToken) error {
	s.tokens[token.Token] = token
	return nil
}

func (s *stubRefreshRepo) FindByToken(ctx context.Context, token string) (*model.RefreshToken, error) {
	if t, ok := s.tokens[token]; ok {
		return t, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRefreshRepo) DeleteByToken(ctx context.Context, token string) error {
	delete(s.tokens, token)
	return nil
}

func (s *stubRefreshRepo) DeleteForUser(ctx context.Context, userID uuid.UUID) error { return nil }

func (s *stubRefreshRepo) DeleteExpired(ctx context.Context) error { return nil }

type stubAuditRepo struct {
	entries []model.AuditLog
	failLog bool
}

func (s *stubAuditRepo) Log(ctx context.Context, entry *model.AuditLog) error {
	if s.failLog {
		return errors.New("db unavailable")
	}
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *stubAuditRepo) List(ctx context.Context, page, limit int) ([]model.AuditLog, int64, error) {
	return s.entries, int64(len(s.entries)), nil
}

// --- helpers ---

const testSecret = "test-signing-secret"

func testConfig() config.Config {
	return config.Config{
		JWTSecret:  testSecret,
		SessionTTL: 24 * time.Hour,
		RefreshTTL: 168 * time.Hour,
	}
}

func newTestUser(t *testing.T, passwordHash string) *model.User {
	t.Helper()
	return &model.User{
		ID:           uuid.New(),
		Name:         "Sarah Al-Rashid",
		Email:        "ciso@aegisciso.com",
		PasswordHash: passwordHash,
		IsActive:     true,
		Role: model.Role{
			Name: model.RoleCISO,
			Permissions: []model.Permission{
				{Name: "risk:read"},
				{Name: "risk:create"},
				{Name: "policy:read"},
			},
		},
	}
}

func parseClaims(t *testing.T, tokenString string) jwt.MapClaims {
	t.Helper()
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	require.True(t, token.Valid)
	claims, ok := token.Claims.(jwt.MapClaims)
	require.True(t, ok)
	return claims
}

// --- tests ---

func TestLoginLegacyHashMigration(t *testing.T) {
	users := &stubUserRepo{user: newTestUser(t, auth.LegacyDigest("SecurePass123!"))}
	audits := &stubAuditRepo{}
	svc := NewAuthService(users, newStubRefreshRepo(), audits, nil, testConfig())

	res, err := svc.Login(context.Background(), LoginRequest{Email: "ciso@aegisciso.com", Password: "SecurePass123!"})
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)

	// Exactly one hash rewrite, and the new hash is bcrypt
	require.Len(t, users.passwordWrites, 1)
	assert.True(t, auth.IsBcryptHash(users.passwordWrites[0]))

	// One last-login update and one login audit entry
	assert.Equal(t, 1, users.lastLoginWrites)
	require.Len(t, audits.entries, 1)
	assert.Equal(t, model.ActionLogin, audits.entries[0].Action)

	// Second login takes the bcrypt path: no further rewrites
	_, err = svc.Login(context.Background(), LoginRequest{Email: "ciso@aegisciso.com", Password: "SecurePass123!"})
	require.NoError(t, err)
	assert.Len(t, users.passwordWrites, 1)
}

func TestLoginWrongPassword(t *testing.T) {
	users := &stubUserRepo{user: newTestUser(t, auth.LegacyDigest("SecurePass123!"))}
	audits := &stubAuditRepo{}
	svc := NewAuthService(users, newStubRefreshRepo(), audits, nil, testConfig())

	_, err := svc.Login(context.Background(), LoginRequest{Email: "ciso@aegisciso.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// A failed login leaves no trace
	assert.Empty(t, users.passwordWrites)
	assert.Zero(t, users.lastLoginWrites)
	assert.Empty(t, audits.entries)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc := NewAuthService(&stubUserRepo{}, newStubRefreshRepo(), &stubAuditRepo{}, nil, testConfig())

	_, err := svc.Login(context.Background(), LoginRequest{Email: "nobody@aegisciso.com", Password: "SecurePass123!"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginInactiveAccount(t *testing.T) {
	user := newTestUser(t, auth.LegacyDigest("SecurePass123!"))
	user.IsActive = false
	svc := NewAuthService(&stubUserRepo{user: user}, newStubRefreshRepo(), &stubAuditRepo{}, nil, testConfig())

	_, err := svc.Login(context.Background(), LoginRequest{Email: "ciso@aegisciso.com", Password: "SecurePass123!"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginSucceedsWhenSideEffectsFail(t *testing.T) {
	users := &stubUserRepo{user: newTestUser(t, auth.LegacyDigest("SecurePass123!")), failLastLogin: true}
	audits := &stubAuditRepo{failLog: true}
	svc := NewAuthService(users, newStubRefreshRepo(), audits, nil, testConfig())

	res, err := svc.Login(context.Background(), LoginRequest{Email: "ciso@aegisciso.com", Password: "SecurePass123!"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
}

func TestLoginTokenSnapshotsRoleAndPermissions(t *testing.T) {
	user := newTestUser(t, auth.LegacyDigest("SecurePass123!"))
	svc := NewAuthService(&stubUserRepo{user: user}, newStubRefreshRepo(), &stubAuditRepo{}, nil, testConfig())

	res, err := svc.Login(context.Background(), LoginRequest{Email: "ciso@aegisciso.com", Password: "SecurePass123!"})
	require.NoError(t, err)

	claims := parseClaims(t, res.Token)
	assert.Equal(t, user.ID.String(), claims["sub"])
	assert.Equal(t, model.RoleCISO, claims["role"])

	perms, ok := claims["permissions"].([]interface{})
	require.True(t, ok)
	assert.Len(t, perms, 3)
	assert.Contains(t, perms, "risk:read")
}

func TestRefreshRotatesToken(t *testing.T) {
	user := newTestUser(t, auth.LegacyDigest("SecurePass123!"))
	refresh := newStubRefreshRepo()
	svc := NewAuthService(&stubUserRepo{user: user}, refresh, &stubAuditRepo{}, nil, testConfig())

	login, err := svc.Login(context.Background(), LoginRequest{Email: "ciso@aegisciso.com", Password: "SecurePass123!"})
	require.NoError(t, err)

	rotated, err := svc.Refresh(context.Background(), RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, rotated.RefreshToken)

	// The consumed token is gone
	_, err = svc.Refresh(context.Background(), RefreshTokenRequest{RefreshToken: login.RefreshToken})
	assert.Error(t, err)
}

func TestRefreshExpiredToken(t *testing.T) {
	user := newTestUser(t, auth.LegacyDigest("SecurePass123!"))
	refresh := newStubRefreshRepo()
	refresh.tokens["stale"] = &model.RefreshToken{
		UserID:    user.ID,
		Token:     "stale",
		ExpiresAt: time.Now().Add(-time.Hour),
	}
	svc := NewAuthService(&stubUserRepo{user: user}, refresh, &stubAuditRepo{}, nil, testConfig())

	_, err := svc.Refresh(context.Background(), RefreshTokenRequest{RefreshToken: "stale"})
	assert.Error(t, err)
	assert.Empty(t, refresh.tokens)
}
