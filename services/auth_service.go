package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"nutrilens/models"
	"nutrilens/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	resetTokenTTL  = 15 * time.Minute
	mfaCodeTTL     = 10 * time.Minute
	maxMFAAttempts = 5
)

type AuthService struct {
	db     *gorm.DB
	mailer utils.Mailer
}

func NewAuthService(db *gorm.DB, mailer utils.Mailer) *AuthService {
	return &AuthService{db: db, mailer: mailer}
}

// LoginResult carries either a token or the fact that an MFA code was sent.
type LoginResult struct {
	Token       string `json:"token,omitempty"`
	MFARequired bool   `json:"mfa_required,omitempty"`
	Message     string `json:"message,omitempty"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Register(ctx context.Context, fullName, email, password string) (*models.User, string, error) {
	email = normalizeEmail(email)
	if len(password) < 8 {
		return nil, "", fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, "", err
	}
	if count > 0 {
		return nil, "", ErrEmailTaken
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		return nil, "", err
	}
	user := &models.User{Email: email, Password: hashed, FullName: strings.TrimSpace(fullName)}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, "", ErrEmailTaken
		}
		return nil, "", err
	}

	token, err := utils.GenerateJWT(user.ID, user.Email)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.findByEmail(ctx, email)
	if err != nil || !utils.CheckPasswordHash(password, user.Password) {
		return nil, ErrInvalidCredentials
	}

	if user.MFAEnabled {
		code := utils.GenerateNumericCode(6)
		if err := s.db.WithContext(ctx).Model(user).Updates(map[string]any{
			"mfa_code":     code,
			"mfa_code_exp": time.Now().Add(mfaCodeTTL),
			"mfa_attempts": 0,
		}).Error; err != nil {
			return nil, err
		}
		if err := utils.SendMFAEmail(ctx, s.mailer, user.Email, code); err != nil {
			return nil, fmt.Errorf("failed to send MFA code: %w", err)
		}
		return &LoginResult{MFARequired: true, Message: "MFA code sent to email"}, nil
	}

	token, err := utils.GenerateJWT(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token}, nil
}

// VerifyMFA exchanges a pending login code for a token. A code is single
// use, expires after mfaCodeTTL and is burned after maxMFAAttempts misses.
func (s *AuthService) VerifyMFA(ctx context.Context, email, code string) (string, error) {
	user, err := s.findByEmail(ctx, email)
	if err != nil || user.MFACode == "" {
		return "", ErrInvalidMFACode
	}
	db := s.db.WithContext(ctx).Model(user)
	if time.Now().After(user.MFACodeExp) {
		if err := db.Update("mfa_code", "").Error; err != nil {
			return "", err
		}
		return "", ErrInvalidMFACode
	}
	if subtle.ConstantTimeCompare([]byte(user.MFACode), []byte(strings.TrimSpace(code))) != 1 {
		updates := map[string]any{"mfa_attempts": gorm.Expr("mfa_attempts + 1")}
		if user.MFAAttempts+1 >= maxMFAAttempts {
			updates["mfa_code"] = ""
		}
		if err := db.Updates(updates).Error; err != nil {
			return "", err
		}
		return "", ErrInvalidMFACode
	}
	if err := db.Updates(map[string]any{
		"mfa_code":     "",
		"mfa_attempts": 0,
		"mfa_code_exp": time.Time{},
	}).Error; err != nil {
		return "", err
	}
	return utils.GenerateJWT(user.ID, user.Email)
}

// ForgotPassword emails a reset code if the address belongs to an active
// user. Unknown addresses are not reported.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return nil
	}
	token := utils.GenerateRandomToken(6)
	if err := s.db.WithContext(ctx).Model(user).Updates(map[string]interface{}{
		"reset_token":     token,
		"reset_token_exp": time.Now().Add(resetTokenTTL),
	}).Error; err != nil {
		return err
	}
	if err := utils.SendResetEmail(ctx, s.mailer, user.Email, token); err != nil {
		utils.Log.Warn("reset email failed", zap.Uint("user_id", user.ID), zap.Error(err))
	}
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}
	if strings.TrimSpace(token) == "" {
		return ErrInvalidResetToken
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("reset_token = ? AND disabled = ?", token, false).First(&user).Error
	if err != nil || time.Now().After(user.ResetTokenExp) {
		return ErrInvalidResetToken
	}

	hashed, err := utils.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(&user).Updates(map[string]interface{}{
		"password":        hashed,
		"reset_token":     "",
		"reset_token_exp": time.Time{},
	}).Error
}

func (s *AuthService) findByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ? AND disabled = ?", normalizeEmail(email), false).First(&user).Error
	if err != nil {
		return nil, ErrUserNotFound
	}
	return &user, nil
}
