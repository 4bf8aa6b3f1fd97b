package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"farmer-admin/internal/model"
	"farmer-admin/internal/repository"
	"farmer-admin/pkg/jwt"
)

var ErrSessionRevoked = errors.New("session expired (logged out or logged in elsewhere)")

type AuthService interface {
	Login(ctx context.Context, email, password string) (*LoginResponse, error)
	Logout(ctx context.Context, actor Actor) error
	RefreshToken(ctx context.Context, actor Actor) (*LoginResponse, error)
	// Authenticate turns a bearer token into the Actor it was issued to.
	Authenticate(ctx context.Context, token string) (*Actor, error)
	Me(ctx context.Context, actor Actor) (*model.UserResponse, error)
	ResetPassword(ctx context.Context, email, newPassword string) error
	// SeedAdmin creates the first admin when no user exists yet.
	SeedAdmin(ctx context.Context, email, password, name string) (bool, error)
}

type LoginResponse struct {
	AccessToken string             `json:"access_token"`
	TokenType   string             `json:"token_type"`
	ExpiresIn   int64              `json:"expires_in"`
	User        model.UserResponse `json:"user"`
}

type authService struct {
	userRepo repository.UserRepository
	tokens   *jwt.Manager
	log      *zap.Logger
	now      func() time.Time
}

func NewAuthService(userRepo repository.UserRepository, tokens *jwt.Manager, log *zap.Logger) AuthService {
	return &authService{
		userRepo: userRepo,
		tokens:   tokens,
		log:      log.Named("auth"),
		now:      time.Now,
	}
}

func (s *authService) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive() {
		return nil, ErrUserInactive
	}

	// Single session: a new version invalidates tokens issued before.
	version := uuid.New().String()
	if err := s.userRepo.UpdateTokenVersion(ctx, user.ID, version); err != nil {
		return nil, err
	}
	now := s.now()
	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, err
	}
	user.TokenVersion = version
	user.LastLogin = &now

	s.log.Info("user logged in", zap.String("user_id", user.ID.String()))
	return s.issue(user)
}

func (s *authService) issue(user *model.User) (*LoginResponse, error) {
	token, err := s.tokens.GenerateToken(user.ID, user.Email, user.Name, string(user.Role), user.TokenVersion)
	if err != nil {
		return nil, err
	}
	return &LoginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int64(s.tokens.Expiration().Seconds()),
		User:        user.ToResponse(),
	}, nil
}

func (s *authService) Logout(ctx context.Context, actor Actor) error {
	return s.userRepo.UpdateTokenVersion(ctx, actor.ID, uuid.New().String())
}

// RefreshToken re-issues a token for the current session version.
func (s *authService) RefreshToken(ctx context.Context, actor Actor) (*LoginResponse, error) {
	user, err := s.userRepo.FindByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return s.issue(user)
}

func (s *authService) Authenticate(ctx context.Context, token string) (*Actor, error) {
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !user.IsActive() {
		return nil, ErrUserInactive
	}
	if user.TokenVersion != claims.TokenVersion {
		return nil, ErrSessionRevoked
	}

	return &Actor{ID: user.ID, Name: user.Name, Email: user.Email, Role: user.Role}, nil
}

func (s *authService) Me(ctx context.Context, actor Actor) (*model.UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	resp := user.ToResponse()
	return &resp, nil
}

// ResetPassword sets a new password and revokes every existing session.
func (s *authService) ResetPassword(ctx context.Context, email, newPassword string) error {
	if len(newPassword) < 6 {
		return &ValidationError{Field: "password", Reason: "must be at least 6"}
	}
	user, err := s.userRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if err := user.SetPassword(newPassword); err != nil {
		return err
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, user.Password); err != nil {
		return err
	}
	return s.userRepo.UpdateTokenVersion(ctx, user.ID, uuid.New().String())
}

func (s *authService) SeedAdmin(ctx context.Context, email, password, name string) (bool, error) {
	count, err := s.userRepo.Count(ctx)
	if err != nil || count > 0 {
		return false, err
	}

	admin := &model.User{
		Email:  strings.ToLower(strings.TrimSpace(email)),
		Name:   name,
		Role:   model.RoleAdmin,
		Status: model.UserActive,
	}
	admin.CreatedBy = "system"
	admin.UpdatedBy = "system"
	if err := admin.SetPassword(password); err != nil {
		return false, err
	}
	if err := s.userRepo.Create(ctx, admin); err != nil {
		return false, err
	}
	s.log.Info("admin user created", zap.String("email", email))
	return true, nil
}
