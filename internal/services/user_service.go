package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"lpg-backend/internal/apperr"
	"lpg-backend/internal/auth"
	"lpg-backend/internal/models"
)

// UserStore persists login accounts. Accounts are not tenant-scoped reads:
// login happens before any scope exists.
type UserStore interface {
	CreateAdmin(ctx context.Context, user *models.User) error
	CreateStaff(ctx context.Context, adminID int, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Get(ctx context.Context, id int) (*models.User, error)
}

type UserService struct {
	Users      UserStore
	JWTManager *auth.JWTManager
	Log        *zap.Logger
}

func NewUserService(users UserStore, jwtManager *auth.JWTManager, log *zap.Logger) *UserService {
	return &UserService{Users: users, JWTManager: jwtManager, Log: log}
}

// Signup registers a new distributor admin and anchors their tenant partition.
func (s *UserService) Signup(ctx context.Context, req *models.SignupRequest) (*models.LoginResponse, error) {
	if req.Name == "" || req.Email == "" {
		return nil, apperr.Validationf("name and email are required")
	}
	if len(req.Password) < 8 {
		return nil, apperr.Validationf("password must be at least 8 characters")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperr.Internal("failed to hash password", err)
	}

	user := &models.User{
		Name:         req.Name,
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
	}
	if err := s.Users.CreateAdmin(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.JWTManager.GenerateToken(user)
	if err != nil {
		return nil, apperr.Internal("failed to issue token", err)
	}
	s.Log.Info("admin registered", zap.Int("user_id", user.ID))
	return &models.LoginResponse{Token: token, User: user}, nil
}

// Login authenticates an account. Invalid email and invalid password flatten
// to the same message so accounts cannot be enumerated.
func (s *UserService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	user, err := s.Users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return nil, apperr.Validationf("invalid email or password")
		}
		return nil, err
	}
	if !auth.VerifyPassword(user.PasswordHash, req.Password) {
		return nil, apperr.Validationf("invalid email or password")
	}
	if !user.IsActive {
		return nil, apperr.Forbiddenf("account suspended; contact your administrator")
	}

	token, err := s.JWTManager.GenerateToken(user)
	if err != nil {
		return nil, apperr.Internal("failed to issue token", err)
	}
	return &models.LoginResponse{Token: token, User: user}, nil
}

// CreateStaff adds a staff account under the calling admin's tenancy.
func (s *UserService) CreateStaff(ctx context.Context, adminID int, req *models.CreateStaffRequest) (*models.User, error) {
	if req.Name == "" || req.Email == "" {
		return nil, apperr.Validationf("name and email are required")
	}
	if len(req.Password) < 8 {
		return nil, apperr.Validationf("password must be at least 8 characters")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperr.Internal("failed to hash password", err)
	}

	user := &models.User{
		Name:         req.Name,
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
	}
	if err := s.Users.CreateStaff(ctx, adminID, user); err != nil {
		return nil, err
	}
	s.Log.Info("staff account created", zap.Int("admin_id", adminID), zap.Int("user_id", user.ID))
	return user, nil
}

// GetUser loads one account by id for the auth middleware's active check.
func (s *UserService) GetUser(ctx context.Context, id int) (*models.User, error) {
	return s.Users.Get(ctx, id)
}
