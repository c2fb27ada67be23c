package service

import (
	"context"
	"fmt"
	"log"

	"aegisciso/internal/auth"
	"aegisciso/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type RoleResponse struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	IsSystem    bool                 `json:"is_system"`
	Permissions []PermissionResponse `json:"permissions"`
	CreatedAt   string               `json:"created_at"`
}

type PermissionResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Group string `json:"group"`
}

type UpdateRolePermissionsRequest struct {
	PermissionIDs []string `json:"permission_ids" binding:"required"`
}

// RoleService manages the role/permission matrix and seeds the built-in
// GRC roles
type RoleService interface {
	ListRoles(ctx context.Context) ([]RoleResponse, error)
	GetRole(ctx context.Context, id string) (*RoleResponse, error)
	GetRoleByName(ctx context.Context, name string) (*model.Role, error)
	ListPermissions(ctx context.Context) ([]PermissionResponse, error)
	UpdateRolePermissions(ctx context.Context, roleID string, req UpdateRolePermissionsRequest) (*RoleResponse, error)
	SeedDefaults(ctx context.Context) error
	SeedDemoUsers(ctx context.Context) error
}

type roleService struct {
	db *gorm.DB
}

func NewRoleService(db *gorm.DB) RoleService {
	return &roleService{db: db}
}

// --- Implementation ---

func (s *roleService) ListRoles(ctx context.Context) ([]RoleResponse, error) {
	var roles []model.Role
	if err := s.db.WithContext(ctx).Preload("Permissions").Order("name ASC").Find(&roles).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch roles: %w", err)
	}

	res := make([]RoleResponse, 0, len(roles))
	for _, r := range roles {
		res = append(res, toRoleResponse(r))
	}
	return res, nil
}

func (s *roleService) GetRole(ctx context.Context, id string) (*RoleResponse, error) {
	roleID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid role id: %w", err)
	}

	var role model.Role
	if err := s.db.WithContext(ctx).Preload("Permissions").First(&role, "id = ?", roleID).Error; err != nil {
		return nil, fmt.Errorf("role not found: %w", err)
	}

	resp := toRoleResponse(role)
	return &resp, nil
}

func (s *roleService) GetRoleByName(ctx context.Context, name string) (*model.Role, error) {
	var role model.Role
	if err := s.db.WithContext(ctx).Preload("Permissions").Where("name = ?", name).First(&role).Error; err != nil {
		return nil, fmt.Errorf("role %q not found: %w", name, err)
	}
	return &role, nil
}

func (s *roleService) ListPermissions(ctx context.Context) ([]PermissionResponse, error) {
	var perms []model.Permission
	if err := s.db.WithContext(ctx).Order("\"group\" ASC, name ASC").Find(&perms).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch permissions: %w", err)
	}

	res := make([]PermissionResponse, 0, len(perms))
	for _, p := range perms {
		res = append(res, toPermissionResponse(p))
	}
	return res, nil
}

func (s *roleService) UpdateRolePermissions(ctx context.Context, roleID string, req UpdateRolePermissionsRequest) (*RoleResponse, error) {
	id, err := uuid.Parse(roleID)
	if err != nil {
		return nil, fmt.Errorf("invalid role id: %w", err)
	}

	var role model.Role
	if err := s.db.WithContext(ctx).First(&role, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("role not found: %w", err)
	}

	var perms []model.Permission
	if len(req.PermissionIDs) > 0 {
		permIDs := make([]uuid.UUID, 0, len(req.PermissionIDs))
		for _, pid := range req.PermissionIDs {
			parsed, parseErr := uuid.Parse(pid)
			if parseErr != nil {
				return nil, fmt.Errorf("invalid permission id '%s': %w", pid, parseErr)
			}
			permIDs = append(permIDs, parsed)
		}
		if err := s.db.WithContext(ctx).Where("id IN ?", permIDs).Find(&perms).Error; err != nil {
			return nil, fmt.Errorf("failed to fetch permissions: %w", err)
		}
	}

	if err := s.db.WithContext(ctx).Model(&role).Association("Permissions").Replace(perms); err != nil {
		return nil, fmt.Errorf("failed to update permissions: %w", err)
	}

	return s.GetRole(ctx, roleID)
}

// grcResources are the entities subject to the resource:action permission
// matrix.
var grcResources = []string{"policy", "risk", "framework", "objective", "finding", "exception", "user", "audit"}

var grcActions = []string{"create", "read", "update", "delete"}

// roleGrants declares the capability set per built-in role as
// resource -> allowed actions. "*" grants all four actions.
var roleGrants = map[string]struct {
	Description string
	Grants      map[string][]string
}{
	model.RoleCISO: {
		Description: "Chief Information Security Officer — full control",
		Grants:      map[string][]string{"*": grcActions},
	},
	model.RoleAdmin: {
		Description: "Platform administrator — full control",
		Grants:      map[string][]string{"*": grcActions},
	},
	model.RoleGRCAnalyst: {
		Description: "GRC analyst — manages policies, risks and compliance mappings",
		Grants: map[string][]string{
			"policy":    {"create", "read", "update"},
			"risk":      {"create", "read", "update"},
			"framework": {"read"},
			"objective": {"create", "read", "update"},
			"finding":   {"create", "read", "update"},
			"exception": {"create", "read", "update"},
			"user":      {"read"},
			"audit":     {"read"},
		},
	},
	model.RoleSOCManager: {
		Description: "SOC manager — operates findings and risk treatment",
		Grants: map[string][]string{
			"policy":    {"read"},
			"risk":      {"create", "read", "update"},
			"framework": {"read"},
			"objective": {"read"},
			"finding":   {"create", "read", "update", "delete"},
			"exception": {"create", "read", "update"},
			"user":      {"read"},
			"audit":     {"read"},
		},
	},
	model.RoleAnalyst: {
		Description: "Analyst — contributes risks and findings",
		Grants: map[string][]string{
			"policy":    {"create", "read", "update"},
			"risk":      {"create", "read", "update"},
			"framework": {"read"},
			"objective": {"create", "read", "update"},
			"finding":   {"create", "read", "update"},
			"exception": {"create", "read", "update"},
			"user":      {"read"},
			"audit":     {"read"},
		},
	},
	model.RoleViewer: {
		Description: "Viewer — read-only access to every register",
		Grants: map[string][]string{
			"policy":    {"read"},
			"risk":      {"read"},
			"framework": {"read"},
			"objective": {"read"},
			"finding":   {"read"},
			"exception": {"read"},
			"user":      {"read"},
			"audit":     {"read"},
		},
	},
}

// SeedDefaults creates the resource:action permissions and the built-in GRC
// roles if not already present. Idempotent; safe to run on every startup.
func (s *roleService) SeedDefaults(ctx context.Context) error {
	permByName := make(map[string]model.Permission)
	for _, resource := range grcResources {
		for _, action := range grcActions {
			name := resource + ":" + action
			var existing model.Permission
			result := s.db.WithContext(ctx).Where("name = ?", name).First(&existing)
			if result.Error != nil {
				existing = model.Permission{Name: name, Group: resource}
				if err := s.db.WithContext(ctx).Create(&existing).Error; err != nil {
					return fmt.Errorf("failed to seed permission '%s': %w", name, err)
				}
			}
			permByName[name] = existing
		}
	}

	for roleName, def := range roleGrants {
		var role model.Role
		result := s.db.WithContext(ctx).Where("name = ?", roleName).First(&role)
		if result.Error != nil {
			role = model.Role{
				Name:        roleName,
				Description: def.Description,
				IsSystem:    true,
			}
			if err := s.db.WithContext(ctx).Create(&role).Error; err != nil {
				return fmt.Errorf("failed to seed role '%s': %w", roleName, err)
			}
		}

		var perms []model.Permission
		for resource, actions := range def.Grants {
			resources := []string{resource}
			if resource == "*" {
				resources = grcResources
			}
			for _, r := range resources {
				for _, a := range actions {
					if p, ok := permByName[r+":"+a]; ok {
						perms = append(perms, p)
					}
				}
			}
		}
		if err := s.db.WithContext(ctx).Model(&role).Association("Permissions").Replace(perms); err != nil {
			return fmt.Errorf("failed to assign permissions to role '%s': %w", roleName, err)
		}
	}

	return nil
}

// SeedDemoUsers creates the demo accounts used by the dashboards in demo
// mode. The CISO account is deliberately stored with the legacy SHA-256
// digest so the first login exercises the hash migration path.
func (s *roleService) SeedDemoUsers(ctx context.Context) error {
	demoUsers := []struct {
		Name     string
		Email    string
		Role     string
		Password string
		Legacy   bool
	}{
		{Name: "Sarah Al-Rashid", Email: "ciso@aegisciso.com", Role: model.RoleCISO, Password: "SecurePass123!", Legacy: true},
		{Name: "Omar Hassan", Email: "admin@aegisciso.com", Role: model.RoleAdmin, Password: "SecurePass123!"},
		{Name: "Lina Farouk", Email: "analyst@aegisciso.com", Role: model.RoleGRCAnalyst, Password: "SecurePass123!"},
		{Name: "Khalid Mansour", Email: "viewer@aegisciso.com", Role: model.RoleViewer, Password: "SecurePass123!"},
	}

	for _, du := range demoUsers {
		var existing model.User
		if err := s.db.WithContext(ctx).Where("email = ?", du.Email).First(&existing).Error; err == nil {
			continue
		}

		role, err := s.GetRoleByName(ctx, du.Role)
		if err != nil {
			return err
		}

		var hash string
		if du.Legacy {
			hash = auth.LegacyDigest(du.Password)
		} else {
			hash, err = auth.HashPassword(du.Password)
			if err != nil {
				return fmt.Errorf("failed to hash demo password: %w", err)
			}
		}

		user := model.User{
			Name:         du.Name,
			Email:        du.Email,
			PasswordHash: hash,
			IsActive:     true,
			RoleID:       role.ID,
		}
		if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
			return fmt.Errorf("failed to seed demo user '%s': %w", du.Email, err)
		}
		log.Printf("Seeded demo user %s (%s)", du.Email, du.Role)
	}

	return nil
}

// --- Helpers ---

func toRoleResponse(r model.Role) RoleResponse {
	perms := make([]PermissionResponse, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		perms = append(perms, toPermissionResponse(p))
	}

	return RoleResponse{
		ID:          r.ID.String(),
		Name:        r.Name,
		Description: r.Description,
		IsSystem:    r.IsSystem,
		Permissions: perms,
		CreatedAt:   r.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

func toPermissionResponse(p model.Permission) PermissionResponse {
	return PermissionResponse{
		ID:    p.ID.String(),
		Name:  p.Name,
		Group: p.Group,
	}
}
