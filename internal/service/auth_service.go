package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"aegisciso/internal/auth"
	"aegisciso/internal/config"
	"aegisciso/internal/model"
	"aegisciso/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidCredentials covers unknown user, wrong password and inactive
// account alike, so responses cannot be used to enumerate accounts.
var ErrInvalidCredentials = errors.New("invalid email or password")

// --- DTOs ---

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type TokenResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    string `json:"expires_at"`
}

type SessionUserResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
	LastLoginAt string   `json:"last_login_at,omitempty"`
}

// AuthService verifies credentials and issues session tokens carrying a
// snapshot of the user's role and permissions.
type AuthService interface {
	Login(ctx context.Context, req LoginRequest) (*TokenResponse, error)
	Refresh(ctx context.Context, req RefreshTokenRequest) (*TokenResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	Me(ctx context.Context, userID string) (*SessionUserResponse, error)
}

type authService struct {
	users     repository.UserRepository
	refresh   repository.RefreshTokenRepository
	audits    repository.AuditRepository
	activity  ActivityPublisher
	secret    []byte
	tokenTTL  time.Duration
	refreshTT time.Duration
}

// NewAuthService wires the session issuer with its collaborators. The
// activity publisher may be nil.
func NewAuthService(users repository.UserRepository, refresh repository.RefreshTokenRepository, audits repository.AuditRepository, activity ActivityPublisher, cfg config.Config) AuthService {
	return &authService{
		users:     users,
		refresh:   refresh,
		audits:    audits,
		activity:  activity,
		secret:    []byte(cfg.JWTSecret),
		tokenTTL:  cfg.SessionTTL,
		refreshTT: cfg.RefreshTTL,
	}
}

// Login runs the full credential exchange: verify the password (supporting
// the legacy digest during migration), rewrite legacy hashes with bcrypt,
// then issue a signed token snapshotting the role and permission set.
func (s *authService) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	user, err := s.users.GetByEmailWithPermissions(ctx, req.Email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	if !auth.VerifyPassword(req.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	// One-shot migration: a successful login against a legacy digest
	// rewrites the stored hash so every later verification takes the
	// bcrypt path.
	if auth.NeedsRehash(user.PasswordHash) {
		newHash, hashErr := auth.HashPassword(req.Password)
		if hashErr != nil {
			return nil, errors.New("failed to migrate password hash")
		}
		if err := s.users.UpdatePasswordHash(ctx, user.ID, newHash); err != nil {
			return nil, errors.New("failed to migrate password hash")
		}
	}

	tokenRes, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	// Best-effort side effects: a failed audit write or last-login update
	// does not invalidate the login.
	now := time.Now()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		log.Printf("WARNING: failed to update last login for %s: %v", user.Email, err)
	}
	details, _ := json.Marshal(map[string]string{"method": "credentials"})
	entry := &model.AuditLog{
		UserID:   &user.ID,
		Action:   model.ActionLogin,
		Resource: "auth",
		Details:  string(details),
	}
	if err := s.audits.Log(ctx, entry); err != nil {
		log.Printf("WARNING: failed to write login audit entry for %s: %v", user.Email, err)
	}
	if s.activity != nil {
		s.activity.PublishActivity(model.ActionLogin, "auth", user.Email)
	}

	return tokenRes, nil
}

func (s *authService) issueTokens(ctx context.Context, user *model.User) (*TokenResponse, error) {
	permissions := make([]string, 0, len(user.Role.Permissions))
	for _, p := range user.Role.Permissions {
		permissions = append(permissions, p.Name)
	}

	expiresAt := time.Now().Add(s.tokenTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":         user.ID.String(),
		"email":       user.Email,
		"name":        user.Name,
		"role":        user.Role.Name,
		"permissions": permissions,
		"iat":         time.Now().Unix(),
		"exp":         expiresAt.Unix(),
	})

	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return nil, errors.New("failed to generate token")
	}

	refreshToken := &model.RefreshToken{
		UserID:    user.ID,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(s.refreshTT),
	}
	if err := s.refresh.Create(ctx, refreshToken); err != nil {
		return nil, errors.New("failed to persist refresh token")
	}

	return &TokenResponse{
		Token:        tokenString,
		RefreshToken: refreshToken.Token,
		ExpiresAt:    expiresAt.Format(time.RFC3339),
	}, nil
}

// Refresh exchanges a valid refresh token for a fresh token pair. The new
// access token re-snapshots the role and permissions, which is the only
// point where server-side permission changes reach a live session.
func (s *authService) Refresh(ctx context.Context, req RefreshTokenRequest) (*TokenResponse, error) {
	stored, err := s.refresh.FindByToken(ctx, req.RefreshToken)
	if err != nil {
		return nil, errors.New("invalid refresh token")
	}
	if time.Now().After(stored.ExpiresAt) {
		_ = s.refresh.DeleteByToken(ctx, stored.Token)
		return nil, errors.New("refresh token expired")
	}

	user, err := s.users.GetByIDWithPermissions(ctx, stored.UserID.String())
	if err != nil || !user.IsActive {
		return nil, errors.New("invalid refresh token")
	}

	// Rotate: the old refresh token is consumed.
	if err := s.refresh.DeleteByToken(ctx, stored.Token); err != nil {
		return nil, errors.New("failed to rotate refresh token")
	}

	return s.issueTokens(ctx, user)
}

// Logout revokes the refresh token. The access token stays valid until its
// expiry field; cookie clearing is the handler's job.
func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.refresh.DeleteByToken(ctx, refreshToken)
}

// Me returns the current user's profile with a freshly loaded permission
// set for the profile pages.
func (s *authService) Me(ctx context.Context, userID string) (*SessionUserResponse, error) {
	user, err := s.users.GetByIDWithPermissions(ctx, userID)
	if err != nil {
		return nil, errors.New("user not found")
	}

	permissions := make([]string, 0, len(user.Role.Permissions))
	for _, p := range user.Role.Permissions {
		permissions = append(permissions, p.Name)
	}

	res := &SessionUserResponse{
		ID:          user.ID.String(),
		Name:        user.Name,
		Email:       user.Email,
		Role:        user.Role.Name,
		Permissions: permissions,
	}
	if user.LastLoginAt != nil {
		res.LastLoginAt = user.LastLoginAt.Format(time.RFC3339)
	}
	return res, nil
}
