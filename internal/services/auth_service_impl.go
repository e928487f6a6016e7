package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/ajharbinger/freight-ops-api/internal/auth"
	apperrors "github.com/ajharbinger/freight-ops-api/internal/errors"
	"github.com/ajharbinger/freight-ops-api/internal/models"
	"github.com/ajharbinger/freight-ops-api/internal/repository"
	"github.com/ajharbinger/freight-ops-api/pkg/config"
)

// authServiceImpl implements AuthService
type authServiceImpl struct {
	repos      *repository.Repositories
	jwtService *auth.JWTService
}

// newAuthService creates a new auth service implementation
func newAuthService(repos *repository.Repositories, cfg *config.Config) AuthService {
	return &authServiceImpl{
		repos:      repos,
		jwtService: auth.NewJWTService(cfg.JWTSecret),
	}
}

// Login authenticates a user and returns a token pair
func (s *authServiceImpl) Login(ctx context.Context, email, password string) (*repository.LoginResponse, error) {
	user, err := s.repos.User.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Unauthorized("invalid credentials", nil)
		}
		return nil, apperrors.DatabaseError("failed to get user", err).WithOperation("Login")
	}

	if !auth.CheckPassword(password, user.PasswordHash) {
		return nil, apperrors.Unauthorized("invalid credentials", nil)
	}

	return s.issue(user)
}

// Register creates a new user account. The role defaults to agent.
func (s *authServiceImpl) Register(ctx context.Context, req *repository.RegisterRequest) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	_, err := s.repos.User.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, apperrors.Conflict("user already exists", nil).WithDetails(email)
	case !errors.Is(err, repository.ErrNotFound):
		return nil, apperrors.DatabaseError("failed to check existing user", err).WithOperation("Register")
	}

	role := req.Role
	if role == "" {
		role = string(models.RoleAgent)
	}
	if role != string(models.RoleAgent) && role != string(models.RoleAdmin) {
		return nil, apperrors.ValidationError("invalid role", nil).WithDetails(role)
	}

	if err := auth.ValidatePassword(req.Password); err != nil {
		return nil, apperrors.ValidationError("invalid password", err).WithDetails(err.Error())
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.InternalError("failed to hash password", err)
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.repos.User.Create(ctx, user); err != nil {
		return nil, apperrors.DatabaseError("failed to create user", err).WithOperation("Register")
	}

	user.PasswordHash = ""
	return user, nil
}

// ValidateToken validates a JWT token and returns the user
func (s *authServiceImpl) ValidateToken(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.jwtService.ValidateToken(token)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid token", err)
	}
	return s.lookup(ctx, claims.UserID)
}

// RefreshToken generates a new token pair from a refresh token
func (s *authServiceImpl) RefreshToken(ctx context.Context, refreshToken string) (*repository.LoginResponse, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid refresh token", err)
	}

	user, err := s.lookup(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

func (s *authServiceImpl) lookup(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.repos.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Unauthorized("user no longer exists", nil)
		}
		return nil, apperrors.DatabaseError("failed to get user", err)
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *authServiceImpl) issue(user *models.User) (*repository.LoginResponse, error) {
	claims := auth.Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	}

	token, expiresAt, err := s.jwtService.GenerateToken(claims)
	if err != nil {
		return nil, apperrors.InternalError("failed to generate token", err)
	}
	refreshToken, _, err := s.jwtService.GenerateRefreshToken(claims)
	if err != nil {
		return nil, apperrors.InternalError("failed to generate refresh token", err)
	}

	return &repository.LoginResponse{
		Token:        token,
		RefreshToken: refreshToken,
		User: models.User{
			ID:        user.ID,
			Email:     user.Email,
			Role:      user.Role,
			CreatedAt: user.CreatedAt,
			UpdatedAt: user.UpdatedAt,
		},
		ExpiresAt: expiresAt,
	}, nil
}
