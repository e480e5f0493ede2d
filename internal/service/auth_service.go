package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"salon-inventory/internal/model"
	"salon-inventory/internal/repository"
	"salon-inventory/internal/ws"
	"salon-inventory/pkg/apperror"
	"salon-inventory/pkg/jwt"
)

var (
	ErrInvalidCredentials = apperror.New(apperror.CodeUnauthorized, "invalid email or password")
	ErrUserInactive       = apperror.New(apperror.CodeUnauthorized, "user account is inactive")
	ErrWrongPassword      = apperror.Validation("current password is incorrect")
	ErrSessionReplaced    = apperror.New(apperror.CodeUnauthorized, "session expired (logged in on another device)")
)

type AuthService interface {
	Login(ctx context.Context, email, password string) (*LoginResponse, error)
	ChangePassword(ctx context.Context, email, oldPassword, newPassword string) error
	ValidateToken(ctx context.Context, tokenString string) (*TokenValidationResponse, error)
	// Authenticate resolves a bearer token to its live user, enforcing the single-session rule.
	Authenticate(ctx context.Context, tokenString string) (*model.User, error)
	Heartbeat(ctx context.Context, userID uuid.UUID) error
}

type LoginResponse struct {
	Token      string             `json:"token"`
	User       model.UserResponse `json:"user"`
	Role       string             `json:"role"`
	Privileges []string           `json:"privileges"` // Flat privileges array for easy checking
}

type TokenValidationResponse struct {
	User       model.UserResponse `json:"user"`
	Role       string             `json:"role"`
	Privileges []string           `json:"privileges"`
}

type authService struct {
	userRepo repository.UserRepository
	tokens   *jwt.Manager
	wsHub    *ws.Hub
	log      zerolog.Logger
}

func NewAuthService(userRepo repository.UserRepository, tokens *jwt.Manager, hub *ws.Hub, log zerolog.Logger) AuthService {
	return &authService{
		userRepo: userRepo,
		tokens:   tokens,
		wsHub:    hub,
		log:      log.With().Str("component", "auth").Logger(),
	}
}

func (s *authService) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	// 1. Find user by email
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, storeError(err, "user")
	}

	// 2. Check if user is active
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	// 3. Verify password
	if !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}

	// 4. Single session: a new token version invalidates older tokens
	now := time.Now()
	user.TokenVersion = uuid.New().String()
	user.LastSeenAt = &now
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, apperror.Internal(err, "failed to update session")
	}

	// 5. Generate JWT token with TokenVersion
	token, err := s.tokens.GenerateToken(user.ID, user.Email, user.FullName, user.Role, user.TokenVersion)
	if err != nil {
		return nil, apperror.Internal(err, "failed to generate token")
	}

	s.log.Info().Str("user_id", user.ID.String()).Str("role", user.Role).Msg("user logged in")
	return &LoginResponse{
		Token:      token,
		User:       user.ToResponse(),
		Role:       user.Role,
		Privileges: user.PrivilegeCodes(),
	}, nil
}

func (s *authService) ChangePassword(ctx context.Context, email, oldPassword, newPassword string) error {
	if len(newPassword) < 6 {
		return apperror.Validation("new password must be at least 6 characters")
	}
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return storeError(err, "user")
	}
	if !user.CheckPassword(oldPassword) {
		return ErrWrongPassword
	}
	if err := user.SetPassword(newPassword); err != nil {
		return apperror.Internal(err, "failed to hash new password")
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, user.Password); err != nil {
		return storeError(err, "user")
	}
	s.log.Info().Str("user_id", user.ID.String()).Msg("password changed")
	return nil
}

func (s *authService) Authenticate(ctx context.Context, tokenString string) (*model.User, error) {
	claims, err := s.tokens.ValidateToken(tokenString)
	if err != nil {
		return nil, apperror.Wrap(apperror.CodeUnauthorized, err, "invalid or expired token")
	}
	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(apperror.CodeUnauthorized, "user not found")
		}
		return nil, storeError(err, "user")
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	if user.TokenVersion == "" || user.TokenVersion != claims.TokenVersion {
		return nil, ErrSessionReplaced
	}
	return user, nil
}

func (s *authService) ValidateToken(ctx context.Context, tokenString string) (*TokenValidationResponse, error) {
	user, err := s.Authenticate(ctx, tokenString)
	if err != nil {
		return nil, err
	}
	return &TokenValidationResponse{
		User:       user.ToResponse(),
		Role:       user.Role,
		Privileges: user.PrivilegeCodes(),
	}, nil
}

func (s *authService) Heartbeat(ctx context.Context, userID uuid.UUID) error {
	if err := s.userRepo.UpdateLastSeen(ctx, userID); err != nil {
		return storeError(err, "user")
	}

	s.wsHub.Publish(map[string]interface{}{
		"type":         "user_status_update",
		"user_id":      userID.String(),
		"status":       "online",
		"last_seen_at": time.Now(),
	})
	return nil
}
