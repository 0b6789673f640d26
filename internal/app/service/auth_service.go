package service

import (
	"context"
	"fmt"
	"time"

	"library_lending/internal/common/security"
)

type AuthService struct {
	users   *UserService
	issuer  *security.TokenIssuer
	revoker security.TokenRevoker
	now     func() time.Time
}

func NewAuthService(users *UserService, issuer *security.TokenIssuer, revoker security.TokenRevoker) *AuthService {
	return &AuthService{users: users, issuer: issuer, revoker: revoker, now: time.Now}
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	user, err := s.users.VerifyCredentials(ctx, req.Username, req.Password)
	if err != nil {
		return nil, err
	}
	token, err := s.issuer.GenerateToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &LoginResponse{AccessToken: token}, nil
}

// Logout revokes the presented token for the rest of its lifetime.
func (s *AuthService) Logout(ctx context.Context, identity security.Identity) error {
	ttl := identity.ExpiresAt.Sub(s.now())
	if err := s.revoker.Revoke(ctx, identity.TokenID, ttl); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}
