package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/velora-shop/storefront-backend/internal/app/model"
	"github.com/velora-shop/storefront-backend/internal/app/repository"
	"github.com/velora-shop/storefront-backend/pkg/logger"
	"github.com/velora-shop/storefront-backend/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrAccountBlocked     = errors.New("account is blocked")

	// Refresh failures, in the order they are checked.
	ErrUnauthenticated = errors.New("refresh token missing")
	ErrInvalidToken    = errors.New("refresh token invalid")
	ErrInvalidSession  = errors.New("session invalid")
)

type AuthService interface {
	Login(email, password string) (*model.User, *util.TokenPair, error)
	Refresh(refreshToken string) (*model.User, string, error)
	GetUserByID(id uint) (*model.User, error)
	Logout(userID uint) error
	EnsureAdmin(email, password, name string) (bool, error)
}

type authService struct {
	userRepo      repository.UserRepository
	accessSecret  string
	refreshSecret string
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

func NewAuthService(
	userRepo repository.UserRepository,
	accessSecret, refreshSecret string,
	accessExpiry, refreshExpiry time.Duration,
) AuthService {
	return &authService{
		userRepo:      userRepo,
		accessSecret:  accessSecret,
		refreshSecret: refreshSecret,
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
	}
}

func (s *authService) Login(email, password string) (*model.User, *util.TokenPair, error) {
	logger.Info("Login attempt", map[string]interface{}{
		"email": email,
	})

	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Login failed: user not found", map[string]interface{}{
				"email": email,
			})
			return nil, nil, ErrInvalidCredentials
		}
		logger.Error("Failed to find user", err, map[string]interface{}{
			"email": email,
		})
		return nil, nil, err
	}

	if !util.VerifyPassword(user.PasswordHash, password) {
		logger.Warn("Login failed: invalid password", map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, nil, ErrInvalidCredentials
	}

	if user.IsBlocked {
		logger.Warn("Login failed: account blocked", map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, nil, ErrAccountBlocked
	}

	tokens, err := util.GenerateTokenPair(
		user.ID,
		user.Email,
		string(user.Role),
		s.accessSecret,
		s.refreshSecret,
		s.accessExpiry,
		s.refreshExpiry,
	)
	if err != nil {
		logger.Error("Failed to generate tokens", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, nil, err
	}

	if err := s.userRepo.UpdateRefreshToken(user.ID, tokens.RefreshToken); err != nil {
		logger.Error("Failed to store refresh token", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, nil, err
	}
	user.RefreshToken = tokens.RefreshToken

	logger.Info("User logged in successfully", map[string]interface{}{
		"user_id": user.ID,
		"role":    user.Role,
	})
	return user, tokens, nil
}

// Refresh issues a new access token for a refresh token that verifies, is
// the one stored on the user record, and belongs to an unblocked user. The
// refresh token itself is kept.
func (s *authService) Refresh(refreshToken string) (*model.User, string, error) {
	if refreshToken == "" {
		return nil, "", ErrUnauthenticated
	}

	claims, err := util.ValidateRefreshToken(refreshToken, s.refreshSecret)
	if err != nil {
		logger.Warn("Refresh failed: token did not verify", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, "", ErrInvalidToken
	}

	user, err := s.userRepo.FindByID(claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Refresh failed: user no longer exists", map[string]interface{}{
				"user_id": claims.UserID,
			})
			return nil, "", ErrInvalidSession
		}
		logger.Error("Failed to load user for refresh", err, map[string]interface{}{
			"user_id": claims.UserID,
		})
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}

	if user.RefreshToken == "" || user.RefreshToken != refreshToken {
		logger.Warn("Refresh failed: token does not match stored session", map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, "", ErrInvalidSession
	}
	if user.IsBlocked {
		logger.Warn("Refresh failed: account blocked", map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, "", ErrInvalidSession
	}

	accessToken, err := util.GenerateAccessToken(user.ID, user.Email, string(user.Role), s.accessSecret, s.accessExpiry)
	if err != nil {
		logger.Error("Failed to generate access token", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}

	logger.Info("Access token refreshed", map[string]interface{}{
		"user_id": user.ID,
	})
	return user, accessToken, nil
}

func (s *authService) GetUserByID(id uint) (*model.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		logger.Error("Failed to get user", err, map[string]interface{}{
			"user_id": id,
		})
		return nil, err
	}
	return user, nil
}

// Logout revokes the stored refresh token.
func (s *authService) Logout(userID uint) error {
	if err := s.userRepo.UpdateRefreshToken(userID, ""); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		logger.Error("Failed to revoke refresh token", err, map[string]interface{}{
			"user_id": userID,
		})
		return err
	}

	logger.Info("User logged out", map[string]interface{}{
		"user_id": userID,
	})
	return nil
}

// EnsureAdmin creates the first admin account unless a user with that email
// already exists. It reports whether an account was created.
func (s *authService) EnsureAdmin(email, password, name string) (bool, error) {
	if email == "" || password == "" {
		logger.Debug("No bootstrap admin configured, skipping")
		return false, nil
	}

	existing, err := s.userRepo.FindByEmail(email)
	if err == nil {
		logger.Info("Bootstrap admin already exists, skipping", map[string]interface{}{
			"user_id": existing.ID,
			"email":   email,
		})
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, fmt.Errorf("failed to look up bootstrap admin: %w", err)
	}

	hash, err := util.HashPassword(password)
	if err != nil {
		return false, fmt.Errorf("failed to hash bootstrap admin password: %w", err)
	}

	admin := &model.User{
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Role:         model.RoleAdmin,
	}
	if err := s.userRepo.Create(admin); err != nil {
		return false, fmt.Errorf("failed to create bootstrap admin: %w", err)
	}

	logger.Info("Bootstrap admin created", map[string]interface{}{
		"user_id": admin.ID,
		"email":   admin.Email,
	})
	return true, nil
}
