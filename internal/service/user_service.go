package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"aegisciso/internal/auth"
	"aegisciso/internal/model"
	"aegisciso/internal/repository"
)

// --- DTOs ---

type CreateUserRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=255"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"required"`
}

type UpdateUserRequest struct {
	Name     *string `json:"name" binding:"omitempty,min=2,max=255"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Role     *string `json:"role"`
	IsActive *bool   `json:"is_active"`
}

type UserResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	IsActive    bool   `json:"is_active"`
	LastLoginAt string `json:"last_login_at,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// UserService defines the administrative operations on user accounts.
// Login itself lives in AuthService.
type UserService interface {
	CreateUser(ctx context.Context, actorID string, req CreateUserRequest) (*UserResponse, error)
	GetUserByID(ctx context.Context, id string) (*UserResponse, error)
	ListUsers(ctx context.Context, page, limit int) ([]UserResponse, int64, error)
	UpdateUser(ctx context.Context, actorID, id string, req UpdateUserRequest) (*UserResponse, error)
	DeactivateUser(ctx context.Context, actorID, id string) error
}

type userService struct {
	repo   repository.UserRepository
	roles  RoleService
	audits repository.AuditRepository
}

// NewUserService returns a new instance of UserService
func NewUserService(repo repository.UserRepository, roles RoleService, audits repository.AuditRepository) UserService {
	return &userService{repo: repo, roles: roles, audits: audits}
}

func (s *userService) CreateUser(ctx context.Context, actorID string, req CreateUserRequest) (*UserResponse, error) {
	if !model.IsValidRole(req.Role) {
		return nil, fmt.Errorf("invalid role %q", req.Role)
	}

	role, err := s.roles.GetRoleByName(ctx, req.Role)
	if err != nil {
		return nil, fmt.Errorf("role %q not found: %w", req.Role, err)
	}

	if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
		return nil, errors.New("email already exists")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, errors.New("failed to hash password")
	}

	user := &model.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		IsActive:     true,
		RoleID:       role.ID,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	user.Role = *role

	s.recordUserAction(ctx, actorID, model.ActionCreateUser, user.Email)

	res := toUserResponse(user)
	return &res, nil
}

func (s *userService) GetUserByID(ctx context.Context, id string) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, errors.New("user not found")
	}
	res := toUserResponse(user)
	return &res, nil
}

func (s *userService) ListUsers(ctx context.Context, page, limit int) ([]UserResponse, int64, error) {
	users, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch users: %w", err)
	}

	res := make([]UserResponse, 0, len(users))
	for i := range users {
		res = append(res, toUserResponse(&users[i]))
	}
	return res, total, nil
}

func (s *userService) UpdateUser(ctx context.Context, actorID, id string, req UpdateUserRequest) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, errors.New("user not found")
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Email != nil && *req.Email != user.Email {
		if _, err := s.repo.GetByEmail(ctx, *req.Email); err == nil {
			return nil, errors.New("email already exists")
		}
		user.Email = *req.Email
	}
	if req.Role != nil {
		if !model.IsValidRole(*req.Role) {
			return nil, fmt.Errorf("invalid role %q", *req.Role)
		}
		role, roleErr := s.roles.GetRoleByName(ctx, *req.Role)
		if roleErr != nil {
			return nil, fmt.Errorf("role %q not found: %w", *req.Role, roleErr)
		}
		user.RoleID = role.ID
		user.Role = *role
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	s.recordUserAction(ctx, actorID, model.ActionUpdateUser, user.Email)

	res := toUserResponse(user)
	return &res, nil
}

// DeactivateUser soft-deletes the account. Existing session tokens stay
// valid until expiry, but refresh is blocked by the IsActive check.
func (s *userService) DeactivateUser(ctx context.Context, actorID, id string) error {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return errors.New("user not found")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.recordUserAction(ctx, actorID, model.ActionDeleteUser, user.Email)
	return nil
}

func (s *userService) recordUserAction(ctx context.Context, actorID, action, targetEmail string) {
	details, _ := json.Marshal(map[string]string{"email": targetEmail})
	entry := &model.AuditLog{
		Action:   action,
		Resource: "user",
		Details:  string(details),
	}
	if actor, err := s.repo.GetByID(ctx, actorID); err == nil {
		entry.UserID = &actor.ID
	}
	if err := s.audits.Log(ctx, entry); err != nil {
		log.Printf("WARNING: failed to write audit entry for %s %s: %v", action, targetEmail, err)
	}
}

func toUserResponse(user *model.User) UserResponse {
	res := UserResponse{
		ID:        user.ID.String(),
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role.Name,
		IsActive:  user.IsActive,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
		UpdatedAt: user.UpdatedAt.Format(time.RFC3339),
	}
	if user.LastLoginAt != nil {
		res.LastLoginAt = user.LastLoginAt.Format(time.RFC3339)
	}
	return res
}
