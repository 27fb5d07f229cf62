package application

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/splitcrew/splitcrew/internal/domain"
	"github.com/splitcrew/splitcrew/internal/ports"
)

func (s *Service) Register(ctx context.Context, req RegisterRequest) (RegisterResponse, error) {
	username := strings.ToLower(strings.TrimSpace(req.Username))
	if username == "" {
		return RegisterResponse{}, fmt.Errorf("%w: username is required", domain.ErrInvalidInput)
	}
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return RegisterResponse{}, err
	}
	if err := domain.ValidatePassword(req.Password); err != nil {
		return RegisterResponse{}, err
	}

	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return RegisterResponse{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, ports.CreateUserParams{
		Username:     username,
		Email:        email,
		FullName:     strings.TrimSpace(req.FullName),
		PasswordHash: passwordHash,
		RegisteredAt: s.nowFn(),
	})
	if err != nil {
		return RegisterResponse{}, err
	}

	return RegisterResponse{UserID: user.UserID}, nil
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (LoginResponse, error) {
	username := strings.ToLower(strings.TrimSpace(req.Username))
	if username == "" || req.Password == "" {
		return LoginResponse{}, fmt.Errorf("%w: username and password are required", domain.ErrInvalidInput)
	}

	lockKey := "login:" + username
	lockState, err := s.lockouts.Get(ctx, lockKey)
	if err == nil && lockState.LockedUntil != nil && lockState.LockedUntil.After(s.nowFn()) {
		return LoginResponse{}, domain.ErrAccountLocked
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return LoginResponse{}, domain.ErrInvalidCredentials
	}
	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		_, _ = s.lockouts.RecordFailure(ctx, lockKey, s.nowFn(), s.cfg.FailedLoginThreshold, s.cfg.LockoutDuration)
		return LoginResponse{}, domain.ErrInvalidCredentials
	}

	_ = s.lockouts.Clear(ctx, lockKey)

	now := s.nowFn()
	session, err := s.sessions.Create(ctx, ports.SessionCreateParams{
		UserID:    user.UserID,
		IPAddress: req.IPAddress,
		UserAgent: req.UserAgent,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.SessionTTL),
	})
	if err != nil {
		return LoginResponse{}, err
	}

	if err := s.users.UpdateLastLogin(ctx, user.UserID, now); err != nil {
		return LoginResponse{}, err
	}
	user.LastLoginAt = &now

	expiresAt := now.Add(s.cfg.TokenTTL)
	token, err := s.tokenSigner.Sign(ports.AuthClaims{
		UserID:    user.UserID,
		Username:  user.Username,
		SessionID: session.SessionID,
		IssuedAt:  now,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		return LoginResponse{}, fmt.Errorf("sign token: %w", err)
	}

	return LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      toUserProfile(user),
	}, nil
}

// ValidateToken is the auth middleware entrypoint: it parses the bearer
// token and rejects revoked or expired sessions before any handler runs.
func (s *Service) ValidateToken(ctx context.Context, rawToken string) (ports.AuthClaims, error) {
	claims, err := s.tokenSigner.ParseAndValidate(rawToken)
	if err != nil {
		return ports.AuthClaims{}, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	if !claims.ExpiresAt.After(s.nowFn()) {
		return ports.AuthClaims{}, domain.ErrSessionExpired
	}
	revoked, err := s.revocations.IsRevoked(ctx, claims.SessionID)
	if err == nil && revoked {
		return ports.AuthClaims{}, domain.ErrSessionRevoked
	}
	return claims, nil
}

func (s *Service) Logout(ctx context.Context, claims ports.AuthClaims) error {
	now := s.nowFn()
	if err := s.sessions.RevokeByID(ctx, claims.SessionID, now); err != nil {
		return err
	}
	return s.revocations.MarkRevoked(ctx, claims.SessionID, claims.ExpiresAt)
}

func (s *Service) CurrentUser(ctx context.Context, claims ports.AuthClaims) (UserProfile, error) {
	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return UserProfile{}, err
	}
	return toUserProfile(user), nil
}

func (s *Service) ChangePassword(ctx context.Context, claims ports.AuthClaims, req ChangePasswordRequest) error {
	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return err
	}
	if err := s.hasher.Compare(user.PasswordHash, req.CurrentPassword); err != nil {
		return domain.ErrInvalidCredentials
	}
	if err := domain.ValidatePassword(req.NewPassword); err != nil {
		return err
	}
	newHash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.users.UpdatePasswordHash(ctx, user.UserID, newHash, s.nowFn())
}

func (s *Service) GetUser(ctx context.Context, userID uuid.UUID) (UserProfile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return UserProfile{}, err
	}
	return toUserProfile(user), nil
}

func (s *Service) ListUsers(ctx context.Context, limit, offset int) ([]UserProfile, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	users, err := s.users.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	profiles := make([]UserProfile, 0, len(users))
	for _, u := range users {
		profiles = append(profiles, toUserProfile(u))
	}
	return profiles, nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", fmt.Errorf("%w: invalid email", domain.ErrInvalidInput)
	}
	return email, nil
}
