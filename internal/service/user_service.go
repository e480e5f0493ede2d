package service

import (
	"context"
	"errors"
	"strings"

	"salon-inventory/internal/model"
	"salon-inventory/internal/repository"
	"salon-inventory/pkg/apperror"
	"salon-inventory/pkg/config"
	"salon-inventory/pkg/database"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

var (
	ErrEmailExists       = apperror.New(apperror.CodeDuplicateKey, "email already exists")
	ErrRoleNotAssignable = apperror.Validation("role must be one of ADMIN, MANAGER, STAFF")
)

type UserService interface {
	CreateUser(ctx context.Context, actor Actor, req *CreateUserRequest) (*model.User, error)
	UpdateUser(ctx context.Context, actor Actor, userID uuid.UUID, req *UpdateUserRequest) (*model.User, error)
	ResetPassword(ctx context.Context, actor Actor, userID uuid.UUID, newPassword string) error
	ResetPasswordByEmail(ctx context.Context, email, newPassword string) error
	GetAllUsers(ctx context.Context) ([]model.UserResponse, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*model.UserResponse, error)
	ListRoles(ctx context.Context) ([]model.Role, error)
	ListPrivileges(ctx context.Context) ([]model.Privilege, error)
	// SeedAccessControl creates default privileges and roles.
	SeedAccessControl(ctx context.Context) error
	// EnsureAdminSeed creates the first ADMIN when none exists and credentials are configured.
	EnsureAdminSeed(ctx context.Context, seed config.SeedConfig) (*model.User, error)
}

type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	FullName string `json:"full_name" validate:"required"`
	Role     string `json:"role" validate:"required"`
}

type UpdateUserRequest struct {
	FullName *string `json:"full_name" validate:"omitempty,min=1"`
	Role     *string `json:"role"`
	IsActive *bool   `json:"is_active"`
}

type userService struct {
	userRepo      repository.UserRepository
	privilegeRepo repository.PrivilegeRepository
	roleRepo      repository.RoleRepository
	log           zerolog.Logger
}

func NewUserService(userRepo repository.UserRepository, privilegeRepo repository.PrivilegeRepository, roleRepo repository.RoleRepository, log zerolog.Logger) UserService {
	return &userService{
		userRepo:      userRepo,
		privilegeRepo: privilegeRepo,
		roleRepo:      roleRepo,
		log:           log.With().Str("component", "users").Logger(),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *userService) CreateUser(ctx context.Context, actor Actor, req *CreateUserRequest) (*model.User, error) {
	// 1. Validate request
	req.Email = normalizeEmail(req.Email)
	req.Role = strings.ToUpper(strings.TrimSpace(req.Role))
	if err := validate(req); err != nil {
		return nil, err
	}
	if !model.IsAssignableRole(req.Role) {
		return nil, ErrRoleNotAssignable
	}

	// 2. Create user
	user := &model.User{
		Email:    req.Email,
		FullName: strings.TrimSpace(req.FullName),
		Role:     req.Role,
		IsActive: true,
	}
	user.CreatedBy = actor.ID
	user.UpdatedBy = actor.ID

	// 3. Set password
	if err := user.SetPassword(req.Password); err != nil {
		return nil, apperror.Internal(err, "failed to hash password")
	}

	// 4. Save; the unique index on email decides duplicates
	if err := s.userRepo.Create(ctx, user); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrEmailExists
		}
		return nil, storeError(err, "user")
	}

	s.log.Info().Str("user_id", user.ID.String()).Str("role", user.Role).Str("actor", actor.ID).Msg("user created")
	return user, nil
}

func (s *userService) UpdateUser(ctx context.Context, actor Actor, userID uuid.UUID, req *UpdateUserRequest) (*model.User, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, storeError(err, "user")
	}

	if req.FullName != nil {
		user.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.Role != nil {
		role := strings.ToUpper(strings.TrimSpace(*req.Role))
		if !model.IsAssignableRole(role) {
			return nil, ErrRoleNotAssignable
		}
		user.Role = role
	}
	if req.IsActive != nil {
		if !*req.IsActive && user.ID.String() == actor.ID {
			return nil, apperror.PolicyViolation("you cannot deactivate your own account")
		}
		user.IsActive = *req.IsActive
		if !user.IsActive {
			// End the current session immediately.
			user.TokenVersion = ""
		}
	}
	user.UpdatedBy = actor.ID

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, storeError(err, "user")
	}
	s.log.Info().Str("user_id", user.ID.String()).Str("role", user.Role).Bool("active", user.IsActive).Str("actor", actor.ID).Msg("user updated")
	return user, nil
}

func (s *userService) ResetPassword(ctx context.Context, actor Actor, userID uuid.UUID, newPassword string) error {
	if len(newPassword) < 6 {
		return apperror.Validation("password must be at least 6 characters")
	}
	var user model.User
	if err := user.SetPassword(newPassword); err != nil {
		return apperror.Internal(err, "failed to hash password")
	}
	if err := s.userRepo.UpdatePassword(ctx, userID, user.Password); err != nil {
		return storeError(err, "user")
	}
	s.log.Info().Str("user_id", userID.String()).Str("actor", actor.ID).Msg("password reset")
	return nil
}

func (s *userService) ResetPasswordByEmail(ctx context.Context, email, newPassword string) error {
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return storeError(err, "user")
	}
	return s.ResetPassword(ctx, SystemActor, user.ID, newPassword)
}

func (s *userService) GetAllUsers(ctx context.Context) ([]model.UserResponse, error) {
	users, err := s.userRepo.FindAll(ctx)
	if err != nil {
		return nil, storeError(err, "user")
	}

	responses := make([]model.UserResponse, len(users))
	for i, user := range users {
		responses[i] = user.ToResponse()
	}
	return responses, nil
}

func (s *userService) GetUserByID(ctx context.Context, id uuid.UUID) (*model.UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "user")
	}
	response := user.ToResponse()
	return &response, nil
}

func (s *userService) ListRoles(ctx context.Context) ([]model.Role, error) {
	roles, err := s.roleRepo.FindAll(ctx)
	if err != nil {
		return nil, storeError(err, "role")
	}
	return roles, nil
}

func (s *userService) ListPrivileges(ctx context.Context) ([]model.Privilege, error) {
	privileges, err := s.privilegeRepo.FindAll(ctx)
	if err != nil {
		return nil, storeError(err, "privilege")
	}
	return privileges, nil
}

func (s *userService) SeedAccessControl(ctx context.Context) error {
	// Privileges first, roles link to them
	if err := s.privilegeRepo.SeedDefaults(ctx); err != nil {
		return apperror.Internal(err, "failed to seed privileges")
	}
	if err := s.roleRepo.SeedDefaults(ctx); err != nil {
		return apperror.Internal(err, "failed to seed roles")
	}
	return nil
}

func (s *userService) EnsureAdminSeed(ctx context.Context, seed config.SeedConfig) (*model.User, error) {
	if !seed.Enabled() {
		s.log.Debug().Msg("admin seed not configured")
		return nil, nil
	}
	admins, err := s.userRepo.CountByRole(ctx, model.RoleAdmin)
	if err != nil {
		return nil, storeError(err, "user")
	}
	if admins > 0 {
		return nil, nil
	}

	email := normalizeEmail(seed.AdminEmail)
	if existing, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		s.log.Warn().Str("email", email).Msg("seed email belongs to a non-admin user, skipping admin seed")
		return existing, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storeError(err, "user")
	}

	name := seed.AdminName
	if name == "" {
		name = "Admin"
	}
	admin, err := s.CreateUser(ctx, SystemActor, &CreateUserRequest{
		Email:    email,
		Password: seed.AdminPassword,
		FullName: name,
		Role:     model.RoleAdmin,
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("email", admin.Email).Msg("admin user seeded")
	return admin, nil
}
