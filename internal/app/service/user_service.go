package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"library_lending/internal/common"
	"library_lending/internal/common/security"
	"library_lending/internal/domain/model"
	"library_lending/internal/domain/repository"
)

type UserService struct {
	userRepo  repository.UserRepository
	elevation security.ElevationPolicy
}

func NewUserService(userRepo repository.UserRepository, elevation security.ElevationPolicy) *UserService {
	return &UserService{userRepo: userRepo, elevation: elevation}
}

type RegisterRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Name      string `json:"name"`
	Age       *int   `json:"age"`
	AccessKey string `json:"access_key,omitempty"` // optional elevation secret
}

// UpdateUserRequest is shared by self-service and admin updates.
type UpdateUserRequest struct {
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
	Name     *string `json:"name,omitempty"`
	Age      *int    `json:"age,omitempty"`
}

type ElevateRequest struct {
	AccessKey string `json:"access_key"`
}

func (s *UserService) Register(ctx context.Context, req RegisterRequest) (*model.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if req.Username == "" || req.Email == "" || req.Password == "" || req.Name == "" || req.Age == nil {
		return nil, common.ErrMissingField
	}

	hashedPassword, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Username:       req.Username,
		Email:          req.Email,
		HashedPassword: hashedPassword,
		Name:           req.Name,
		Age:            *req.Age,
		IsAdmin:        req.AccessKey != "" && s.elevation.Permits(req.AccessKey),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	slog.Info("user registered", "user_id", user.ID, "is_admin", user.IsAdmin)
	return user, nil
}

// VerifyCredentials reports ErrInvalidCredentials for both unknown users and
// wrong passwords, spending one bcrypt comparison either way.
// VerifyCredentials normalizes the username the same way Register does.
func (s *UserService) VerifyCredentials(ctx context.Context, username, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, common.ErrMissingField
	}
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			security.BurnPasswordCheck(password)
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if !security.CheckPasswordHash(password, user.HashedPassword) {
		return nil, common.ErrInvalidCredentials
	}
	return user, nil
}

func (s *UserService) GetProfile(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, userErr(err)
	}
	return user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID int64, req UpdateUserRequest) (*model.User, error) {
	upd := model.UserUpdate{
		Username: req.Username,
		Email:    req.Email,
		Name:     req.Name,
		Age:      req.Age,
	}
	if (upd.Username != nil && strings.TrimSpace(*upd.Username) == "") ||
		(upd.Email != nil && strings.TrimSpace(*upd.Email) == "") {
		return nil, fmt.Errorf("username and email cannot be blank: %w", common.ErrValidation)
	}
	user, err := s.userRepo.Update(ctx, userID, upd)
	if err != nil {
		return nil, userErr(err)
	}
	return user, nil
}

func (s *UserService) DeleteUser(ctx context.Context, userID int64) error {
	if err := s.userRepo.Delete(ctx, userID); err != nil {
		return userErr(err)
	}
	slog.Info("user deleted", "user_id", userID)
	return nil
}

// Elevate grants the admin role when the policy accepts secret. A rejected
// secret leaves the user unchanged and returns false without error.
func (s *UserService) Elevate(ctx context.Context, userID int64, secret string) (bool, error) {
	if !s.elevation.Permits(secret) {
		if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
			return false, userErr(err)
		}
		return false, nil
	}
	if err := s.userRepo.SetAdmin(ctx, userID, true); err != nil {
		return false, userErr(err)
	}
	slog.Info("user elevated to admin", "user_id", userID)
	return true, nil
}

func (s *UserService) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.userRepo.List(ctx)
}

func userErr(err error) error {
	if errors.Is(err, common.ErrNotFound) && !errors.Is(err, common.ErrUserNotFound) {
		return common.ErrUserNotFound
	}
	return err
}
