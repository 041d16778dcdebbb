package usecase

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"html"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/vasapolrittideah/notes-api/services/notes-service/internal/model"
	"github.com/vasapolrittideah/notes-api/services/notes-service/internal/repository"
)

var (
	ErrResetTokenNotFound = errors.New("password reset token not found")
	ErrResetTokenUsed     = errors.New("password reset token has already been used")
	ErrResetTokenExpired  = errors.New("password reset token has expired")
)

// PasswordResetConfig holds the password reset policy.
type PasswordResetConfig struct {
	ExpiresIn time.Duration
	// ResetURL is the page that receives the emailed token as its token query parameter.
	ResetURL string
}

// PasswordResetNotifier delivers the reset link and the password change notice.
type PasswordResetNotifier interface {
	Notifier
	SendSimple(to []string, subject, body string) error
}

// PasswordResetUsecase defines the business logic for password reset token operations.
type PasswordResetUsecase interface {
	// RequestPasswordReset emails a reset link to the verified account of email.
	// It succeeds without sending anything when no such account exists.
	RequestPasswordReset(ctx context.Context, email string) error

	// ValidatePasswordResetToken checks that token is known, unused and unexpired.
	ValidatePasswordResetToken(ctx context.Context, token string) error

	// ResetPassword consumes token and replaces the account password.
	ResetPassword(ctx context.Context, token, newPassword string) error
}

// PasswordResetOption configures a PasswordResetUsecase.
type PasswordResetOption func(*passwordResetUsecase)

// WithPasswordResetClock overrides the time source used for expiry.
func WithPasswordResetClock(now func() time.Time) PasswordResetOption {
	return func(u *passwordResetUsecase) {
		u.now = now
	}
}

type passwordResetUsecase struct {
	userRepo  repository.UserRepository
	tokenRepo repository.PasswordResetTokenRepository
	hasher    PasswordHasher
	notifier  PasswordResetNotifier
	cfg       PasswordResetConfig
	logger    *zerolog.Logger
	now       func() time.Time
}

func NewPasswordResetUsecase(
	userRepo repository.UserRepository,
	tokenRepo repository.PasswordResetTokenRepository,
	hasher PasswordHasher,
	notifier PasswordResetNotifier,
	cfg PasswordResetConfig,
	logger *zerolog.Logger,
	opts ...PasswordResetOption,
) PasswordResetUsecase {
	u := &passwordResetUsecase{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		hasher:    hasher,
		notifier:  notifier,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(u)
	}

	return u
}

func (u *passwordResetUsecase) RequestPasswordReset(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	if email == "" {
		return invalidInput("email is required")
	}

	user, err := u.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			u.logger.Debug().Msg("password reset requested for unknown email")
			return nil
		}
		return err
	}

	if !user.Verified {
		u.logger.Debug().Str("user_id", user.ID.Hex()).Msg("password reset requested for unverified account")
		return nil
	}

	if err := u.tokenRepo.InvalidateUserTokens(ctx, user.ID); err != nil {
		return err
	}

	token, err := generateResetToken()
	if err != nil {
		return fmt.Errorf("failed to generate password reset token: %w", err)
	}

	if _, err := u.tokenRepo.CreateToken(ctx, &model.PasswordResetToken{
		UserID:    user.ID,
		TokenHash: hashResetToken(token),
		Email:     user.Email,
		ExpiresAt: u.now().Add(u.cfg.ExpiresIn),
	}); err != nil {
		return err
	}

	resetLink, err := u.resetLink(token)
	if err != nil {
		return err
	}

	htmlBody := fmt.Sprintf(`
		<p>Hi %s,</p>
		<p>We received a request to reset the password for your account.</p>
		<p>If you made this request, please click the link below to create a new password:</p>

		<p><a href="%s">%s</a></p>

		<p>This link will expire in %s.</p>
		<p>If you did not request a password reset, you can safely ignore this email.</p>

		<p>Thank you,</p>
		<p>Notes App Team</p>
	`, html.EscapeString(user.Name), html.EscapeString(resetLink), html.EscapeString(resetLink), formatValidity(u.cfg.ExpiresIn))

	if err := u.notifier.SendHTML([]string{user.Email}, "Password Reset Request", htmlBody); err != nil {
		return fmt.Errorf("failed to send password reset email: %w", err)
	}

	return nil
}

func (u *passwordResetUsecase) ValidatePasswordResetToken(ctx context.Context, token string) error {
	_, err := u.usableToken(ctx, token)
	return err
}

func (u *passwordResetUsecase) ResetPassword(ctx context.Context, token, newPassword string) error {
	if utf8.RuneCountInString(newPassword) < minPasswordLength {
		return invalidInput("password must be at least %d characters", minPasswordLength)
	}

	resetToken, err := u.usableToken(ctx, token)
	if err != nil {
		return err
	}

	passwordHash, err := u.hasher.HashPassword(newPassword)
	if err != nil {
		return err
	}

	if err := u.tokenRepo.MarkTokenAsUsed(ctx, resetToken.TokenHash); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrResetTokenUsed
		}
		return err
	}

	user, err := u.userRepo.UpdatePassword(ctx, resetToken.UserID.Hex(), passwordHash)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrUserNotFound
		}
		return err
	}

	u.logger.Info().Str("user_id", user.ID.Hex()).Msg("password reset")

	body := fmt.Sprintf(
		"Hi %s,\n\nThe password for your Notes account was just changed.\n"+
			"If this was not you, request a new password reset immediately.\n\nNotes App Team\n",
		user.Name,
	)
	if err := u.notifier.SendSimple([]string{user.Email}, "Your password was changed", body); err != nil {
		u.logger.Warn().Err(err).Str("user_id", user.ID.Hex()).Msg("failed to send password change notice")
	}

	return nil
}

func (u *passwordResetUsecase) usableToken(ctx context.Context, token string) (*model.PasswordResetToken, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, invalidInput("token is required")
	}

	resetToken, err := u.tokenRepo.GetTokenByHash(ctx, hashResetToken(token))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrResetTokenNotFound
		}
		return nil, err
	}

	if resetToken.Used {
		return nil, ErrResetTokenUsed
	}

	if !u.now().Before(resetToken.ExpiresAt) {
		return nil, ErrResetTokenExpired
	}

	return resetToken, nil
}

func (u *passwordResetUsecase) resetLink(token string) (string, error) {
	link, err := url.Parse(u.cfg.ResetURL)
	if err != nil {
		return "", fmt.Errorf("invalid password reset url: %w", err)
	}

	query := link.Query()
	query.Set("token", token)
	link.RawQuery = query.Encode()

	return link.String(), nil
}

func generateResetToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
