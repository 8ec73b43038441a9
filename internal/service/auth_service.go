package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/triage-service/internal/auth"
	"github.com/spec-kit/triage-service/internal/config"
	"github.com/spec-kit/triage-service/internal/domain"
	"github.com/spec-kit/triage-service/internal/repository"
	apperrors "github.com/spec-kit/triage-service/pkg/util"
)

// AuthService handles staff registration and login.
type AuthService struct {
	staff      repository.StaffRepository
	tokens     *auth.TokenManager
	bcryptCost int
}

// NewAuthService constructs the service.
func NewAuthService(cfg config.AuthConfig, staffRepo repository.StaffRepository) *AuthService {
	return &AuthService{
		staff:      staffRepo,
		tokens:     auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		bcryptCost: cfg.BcryptCost,
	}
}

// TokenManager exposes the manager for middleware wiring.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokens
}

// StaffSession is the result of a successful login or registration.
type StaffSession struct {
	Staff     *domain.StaffMember
	Token     string
	ExpiresAt time.Time
}

// RegisterStaff creates a staff account and issues a token.
func (s *AuthService) RegisterStaff(ctx context.Context, email, displayName, password string) (*StaffSession, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	displayName = strings.TrimSpace(displayName)

	fieldErrors := map[string]any{}
	if email == "" || !strings.Contains(email, "@") {
		fieldErrors["email"] = "valid email required"
	}
	if displayName == "" {
		fieldErrors["display_name"] = "display name required"
	}
	if len(password) < 8 {
		fieldErrors["password"] = "password must be at least 8 characters"
	}
	if len(fieldErrors) > 0 {
		return nil, apperrors.NewValidationError("invalid registration payload", fieldErrors)
	}

	if _, err := s.staff.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	staff := &domain.StaffMember{
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := s.staff.Create(ctx, staff); err != nil {
		return nil, err
	}
	return s.issueSession(staff)
}

// LoginStaff verifies credentials and issues a token.
func (s *AuthService) LoginStaff(ctx context.Context, email, password string) (*StaffSession, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	staff, err := s.staff.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, err
	}
	if !staff.IsActive {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	if err := auth.ComparePassword(staff.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	return s.issueSession(staff)
}

func (s *AuthService) issueSession(staff *domain.StaffMember) (*StaffSession, error) {
	token, expiresAt, err := s.tokens.GenerateToken(staff.ID, staff.Email)
	if err != nil {
		return nil, err
	}
	return &StaffSession{Staff: staff, Token: token, ExpiresAt: expiresAt}, nil
}
