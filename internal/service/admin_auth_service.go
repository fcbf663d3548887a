package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/GTDGit/repair_api/internal/models"
	"github.com/GTDGit/repair_api/internal/repository"
	"github.com/GTDGit/repair_api/internal/utils"
)

// AdminUserStore is the persistence the admin login needs.
type AdminUserStore interface {
	GetByEmail(ctx context.Context, email string) (*models.AdminUser, error)
	Create(ctx context.Context, user *models.AdminUser) error
	TouchLastLogin(ctx context.Context, id int) error
}

type AdminAuthService struct {
	adminRepo AdminUserStore
}

func NewAdminAuthService(adminRepo AdminUserStore) *AdminAuthService {
	return &AdminAuthService{adminRepo: adminRepo}
}

func (s *AdminAuthService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.adminRepo.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			log.Error().Err(err).Str("email", email).Msg("Failed to get user by email")
		}
		return "", utils.ErrInvalidCredentials
	}

	if !user.IsActive {
		log.Warn().Str("email", email).Msg("Account is inactive")
		return "", utils.ErrInactiveAccount
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		log.Warn().Str("email", email).Msg("Password verification failed")
		return "", utils.ErrInvalidCredentials
	}

	if err := s.adminRepo.TouchLastLogin(ctx, user.ID); err != nil {
		log.Warn().Err(err).Int("user_id", user.ID).Msg("Failed to record last login")
	}

	log.Info().Str("email", email).Msg("Login successful")
	return utils.GenerateJWT(user.ID, user.Email)
}

// EnsureAdmin creates the admin account when no account with that email exists.
func (s *AdminAuthService) EnsureAdmin(ctx context.Context, email, password, name string) (bool, error) {
	if _, err := s.adminRepo.GetByEmail(ctx, email); err == nil {
		return false, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return false, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, err
	}

	user := &models.AdminUser{
		Email:        email,
		PasswordHash: string(hashedPassword),
		Name:         name,
		IsActive:     true,
	}
	if err := s.adminRepo.Create(ctx, user); err != nil {
		return false, err
	}
	return true, nil
}
