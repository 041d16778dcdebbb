package usecase

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/vasapolrittideah/notes-api/services/notes-service/internal/repository"
)

const (
	otpMin   = 100000
	otpRange = 900000
)

// Notifier delivers emails to users.
type Notifier interface {
	SendHTML(to []string, subject, htmlBody string) error
}

// OTPConfig holds the verification code policy.
type OTPConfig struct {
	ExpiresIn time.Duration
	// MaxAttempts is the number of wrong codes after which the code is discarded.
	// Zero disables the limit.
	MaxAttempts int
}

// OTPUsecase issues and checks one-time email verification codes.
type OTPUsecase interface {
	// Issue stores a fresh code on the pending account and emails it.
	Issue(ctx context.Context, email string) error

	// Verify checks code against the pending account of email.
	Verify(ctx context.Context, email, code string) error
}

// OTPOption configures an OTPUsecase.
type OTPOption func(*otpUsecase)

// WithClock overrides the time source used for expiry.
func WithClock(now func() time.Time) OTPOption {
	return func(u *otpUsecase) {
		u.now = now
	}
}

type otpUsecase struct {
	userRepo repository.UserRepository
	notifier Notifier
	cfg      OTPConfig
	logger   *zerolog.Logger
	now      func() time.Time
}

func NewOTPUsecase(
	userRepo repository.UserRepository,
	notifier Notifier,
	cfg OTPConfig,
	logger *zerolog.Logger,
	opts ...OTPOption,
) OTPUsecase {
	u := &otpUsecase{
		userRepo: userRepo,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(u)
	}

	return u
}

func (u *otpUsecase) Issue(ctx context.Context, email string) error {
	email = NormalizeEmail(email)

	code, err := generateOTP()
	if err != nil {
		return fmt.Errorf("failed to generate verification code: %w", err)
	}

	if _, err := u.userRepo.SetVerificationCode(ctx, email, repository.SetVerificationCodeParams{
		Code:      code,
		ExpiresAt: u.now().Add(u.cfg.ExpiresIn),
	}); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrUserNotFound
		}
		return err
	}

	htmlBody := fmt.Sprintf(`
		<p>Hi,</p>
		<p>Use the code below to verify your email address:</p>

		<h2 style="letter-spacing: 4px;">%s</h2>

		<p>This code is valid for %s.</p>
		<p>If you did not sign up, you can safely ignore this email.</p>

		<p>Thank you,</p>
		<p>Notes App Team</p>
	`, code, formatValidity(u.cfg.ExpiresIn))

	if err := u.notifier.SendHTML([]string{email}, "Your verification code", htmlBody); err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}

	return nil
}

func (u *otpUsecase) Verify(ctx context.Context, email, code string) error {
	email = NormalizeEmail(email)
	code = strings.TrimSpace(code)

	user, err := u.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrUserNotFound
		}
		return err
	}

	if user.Verified || user.VerificationCode == "" || user.VerificationCodeExpiresAt == nil {
		return ErrInvalidOrExpiredOTP
	}

	if !u.now().Before(*user.VerificationCodeExpiresAt) {
		return ErrInvalidOrExpiredOTP
	}

	if subtle.ConstantTimeCompare([]byte(code), []byte(user.VerificationCode)) != 1 {
		u.recordFailedAttempt(ctx, email)
		return ErrInvalidOrExpiredOTP
	}

	return nil
}

func (u *otpUsecase) recordFailedAttempt(ctx context.Context, email string) {
	attempts, err := u.userRepo.IncrementVerificationAttempts(ctx, email)
	if err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			u.logger.Error().Err(err).Msg("failed to record verification attempt")
		}
		return
	}

	if u.cfg.MaxAttempts <= 0 || attempts < u.cfg.MaxAttempts {
		return
	}

	u.logger.Info().Str("email", email).Int("attempts", attempts).Msg("verification code discarded")

	if err := u.userRepo.ClearVerificationCode(ctx, email); err != nil {
		u.logger.Error().Err(err).Msg("failed to discard verification code")
	}
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpRange))
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%06d", n.Int64()+otpMin), nil
}

func formatValidity(d time.Duration) string {
	if d > 0 && d%time.Minute == 0 {
		minutes := int(d / time.Minute)
		if minutes == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", minutes)
	}

	return d.String()
}
