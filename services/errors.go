package services

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrUserNotFound       = errors.New("user not found or disabled")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidMFACode     = errors.New("invalid MFA code")
	ErrInvalidResetToken  = errors.New("invalid or expired token")
	ErrValidation         = errors.New("validation failed")
)
