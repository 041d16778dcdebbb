package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/vasapolrittideah/notes-api/services/notes-service/internal/model"
	"github.com/vasapolrittideah/notes-api/services/notes-service/internal/repository"
	"github.com/vasapolrittideah/notes-api/services/notes-service/pkg/types"
	"github.com/vasapolrittideah/notes-api/shared/provider"
)

// AuthUsecase defines the interface for authentication-related use cases.
type AuthUsecase interface {
	// Signup registers a pending account and emails it a verification code.
	Signup(ctx context.Context, params SignupParams) error
	VerifyOTP(ctx context.Context, params VerifyOTPParams) error
	Login(ctx context.Context, params LoginParams) (*types.Session, error)
	GetProfile(ctx context.Context, userID string) (*model.User, error)
	SignInWithGoogle(ctx context.Context, idToken string) (*types.Session, error)
}

// SignupParams defines the parameters for user signup.
type SignupParams struct {
	Name     string
	Email    string
	Password string
}

// VerifyOTPParams defines the parameters for email verification.
type VerifyOTPParams struct {
	Email string
	Code  string
}

// LoginParams defines the parameters for user login.
type LoginParams struct {
	Email      string
	Password   string
	RememberMe bool
}

// SessionConfig holds the lifetimes of issued session tokens.
type SessionConfig struct {
	ExpiresIn     time.Duration
	LongExpiresIn time.Duration
}

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	IssueToken(userID, email string, ttl time.Duration) (string, time.Time, error)
}

// GoogleTokenVerifier verifies Google ID tokens.
type GoogleTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*provider.GoogleIdentity, error)
}

type authUsecase struct {
	credentials  CredentialUsecase
	otp          OTPUsecase
	userRepo     repository.UserRepository
	identityRepo repository.IdentityRepository
	tokens       TokenIssuer
	google       GoogleTokenVerifier
	sessionCfg   SessionConfig
	logger       *zerolog.Logger
}

// NewAuthUsecase creates an AuthUsecase. google may be nil, which disables
// Google sign-in.
func NewAuthUsecase(
	credentials CredentialUsecase,
	otp OTPUsecase,
	userRepo repository.UserRepository,
	identityRepo repository.IdentityRepository,
	tokens TokenIssuer,
	google GoogleTokenVerifier,
	sessionCfg SessionConfig,
	logger *zerolog.Logger,
) AuthUsecase {
	return &authUsecase{
		credentials:  credentials,
		otp:          otp,
		userRepo:     userRepo,
		identityRepo: identityRepo,
		tokens:       tokens,
		google:       google,
		sessionCfg:   sessionCfg,
		logger:       logger,
	}
}

func (u *authUsecase) Signup(ctx context.Context, params SignupParams) error {
	user, err := u.credentials.RegisterPending(ctx, RegisterPendingParams(params))
	if err != nil {
		return err
	}

	return u.otp.Issue(ctx, user.Email)
}

func (u *authUsecase) VerifyOTP(ctx context.Context, params VerifyOTPParams) error {
	if err := u.otp.Verify(ctx, params.Email, params.Code); err != nil {
		return err
	}

	if _, err := u.credentials.MarkVerified(ctx, params.Email, params.Code); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			// The code was consumed or replaced by a concurrent verification or signup.
			return ErrInvalidOrExpiredOTP
		}
		return err
	}

	return nil
}

func (u *authUsecase) Login(ctx context.Context, params LoginParams) (*types.Session, error) {
	if strings.TrimSpace(params.Email) == "" || params.Password == "" {
		return nil, invalidInput("email and password are required")
	}

	user, err := u.credentials.FindByEmail(ctx, params.Email)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			return nil, err
		}
		user = nil
	}

	if !u.credentials.VerifyPassword(user, params.Password) {
		return nil, ErrInvalidCredentials
	}

	if !user.Verified {
		return nil, ErrUserNotVerified
	}

	ttl := u.sessionCfg.ExpiresIn
	if params.RememberMe {
		ttl = u.sessionCfg.LongExpiresIn
	}

	return u.createSession(user, ttl)
}

func (u *authUsecase) GetProfile(ctx context.Context, userID string) (*model.User, error) {
	user, err := u.userRepo.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) || errors.Is(err, repository.ErrInvalidObjectID) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if !user.Verified {
		return nil, ErrUserNotFound
	}

	return user, nil
}

func (u *authUsecase) SignInWithGoogle(ctx context.Context, idToken string) (*types.Session, error) {
	if u.google == nil {
		return nil, ErrGoogleSignInDisabled
	}

	if strings.TrimSpace(idToken) == "" {
		return nil, invalidInput("id_token is required")
	}

	googleIdentity, err := u.google.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidGoogleToken, err)
	}

	email := NormalizeEmail(googleIdentity.Email)

	user, err := u.resolveGoogleUser(ctx, googleIdentity.Subject, email)
	if err != nil {
		return nil, err
	}

	if _, err := u.identityRepo.LinkIdentity(ctx, repository.LinkIdentityParams{
		UserID:   user.ID,
		Provider: model.IdentityProviderGoogle,
		Subject:  googleIdentity.Subject,
		Email:    email,
	}); err != nil {
		return nil, err
	}

	u.logger.Info().Str("user_id", user.ID.Hex()).Msg("user signed in with google")

	return u.createSession(user, u.sessionCfg.ExpiresIn)
}

// resolveGoogleUser finds the account of a Google subject, first through a
// linked identity and then by its verified email, creating the account when
// neither exists.
func (u *authUsecase) resolveGoogleUser(ctx context.Context, subject, email string) (*model.User, error) {
	linked, err := u.identityRepo.GetIdentityByProvider(ctx, model.IdentityProviderGoogle, subject)
	switch {
	case err == nil:
		user, err := u.userRepo.GetUser(ctx, linked.UserID.Hex())
		if err != nil {
			return nil, err
		}
		return user, nil
	case !errors.Is(err, mongo.ErrNoDocuments):
		return nil, err
	}

	user, err := u.userRepo.GetUserByEmail(ctx, email)
	switch {
	case err == nil && user.Verified:
		return user, nil
	case err != nil && !errors.Is(err, mongo.ErrNoDocuments):
		return nil, err
	}

	user, err = u.userRepo.UpsertVerifiedUser(ctx, repository.UpsertVerifiedUserParams{
		Name:  displayNameFromEmail(email),
		Email: email,
	})
	if err != nil {
		if !mongo.IsDuplicateKeyError(err) {
			return nil, err
		}

		// Verified concurrently by another sign-in.
		return u.userRepo.GetUserByEmail(ctx, email)
	}

	return user, nil
}

func (u *authUsecase) createSession(user *model.User, ttl time.Duration) (*types.Session, error) {
	userID := user.ID.Hex()

	token, expiresAt, err := u.tokens.IssueToken(userID, user.Email, ttl)
	if err != nil {
		return nil, err
	}

	return &types.Session{
		Token:     token,
		ExpiresAt: expiresAt,
		User: types.SessionUser{
			ID:    userID,
			Name:  user.Name,
			Email: user.Email,
		},
	}, nil
}

func displayNameFromEmail(email string) string {
	name, _, _ := strings.Cut(email, "@")
	if len(name) > maxNameLength {
		name = name[:maxNameLength]
	}
	return name
}
