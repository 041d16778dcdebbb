package usecase

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrEmailInUse           = errors.New("email already in use by a verified account")
	ErrUserNotFound         = errors.New("user not found")
	ErrInvalidOrExpiredOTP  = errors.New("invalid or expired otp")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrUserNotVerified      = errors.New("account is not verified")
	ErrNoteNotFound         = errors.New("note not found")
	ErrNoFieldsToUpdate     = errors.New("no fields to update")
	ErrInvalidGoogleToken   = errors.New("invalid google token")
	ErrGoogleSignInDisabled = errors.New("google sign-in is not configured")
)

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
