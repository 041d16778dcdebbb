package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/vasapolrittideah/notes-api/services/notes-service/internal/model"
	"github.com/vasapolrittideah/notes-api/services/notes-service/internal/repository"
	"github.com/vasapolrittideah/notes-api/shared/validation"
)

const (
	maxNameLength     = 50
	minPasswordLength = 6
)

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	HashPassword(password string) (string, error)
	VerifyPassword(password, encodedHash string) (bool, error)
}

// CredentialUsecase defines the operations on stored user credentials.
type CredentialUsecase interface {
	// RegisterPending creates or replaces the unverified account for an email.
	RegisterPending(ctx context.Context, params RegisterPendingParams) (*model.User, error)

	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// MarkVerified verifies the pending account for an email if its stored
	// code is still code, and clears the code.
	MarkVerified(ctx context.Context, email, code string) (*model.User, error)

	// VerifyPassword reports whether password matches the user's hash. A nil
	// user is checked against a throwaway hash so the call costs the same.
	VerifyPassword(user *model.User, password string) bool
}

// RegisterPendingParams defines the parameters of a signup.
type RegisterPendingParams struct {
	Name     string
	Email    string
	Password string
}

type credentialUsecase struct {
	userRepo  repository.UserRepository
	hasher    PasswordHasher
	validator *validation.Validator
	logger    *zerolog.Logger

	dummyHashOnce sync.Once
	dummyHash     string
}

func NewCredentialUsecase(
	userRepo repository.UserRepository,
	hasher PasswordHasher,
	validator *validation.Validator,
	logger *zerolog.Logger,
) CredentialUsecase {
	return &credentialUsecase{
		userRepo:  userRepo,
		hasher:    hasher,
		validator: validator,
		logger:    logger,
	}
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (u *credentialUsecase) RegisterPending(
	ctx context.Context,
	params RegisterPendingParams,
) (*model.User, error) {
	name := strings.TrimSpace(params.Name)
	email := NormalizeEmail(params.Email)

	if n := utf8.RuneCountInString(name); n == 0 || n > maxNameLength {
		return nil, invalidInput("name must be between 1 and %d characters", maxNameLength)
	}
	if err := u.validator.Var(email, "required,email"); err != nil {
		return nil, invalidInput("email must be a valid email address")
	}
	if utf8.RuneCountInString(params.Password) < minPasswordLength {
		return nil, invalidInput("password must be at least %d characters", minPasswordLength)
	}

	verified, err := u.hasVerifiedOwner(ctx, email)
	if err != nil {
		return nil, err
	}
	if verified {
		return nil, ErrEmailInUse
	}

	passwordHash, err := u.hasher.HashPassword(params.Password)
	if err != nil {
		return nil, err
	}

	upsertParams := repository.UpsertPendingUserParams{
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
	}

	user, err := u.userRepo.UpsertPendingUser(ctx, upsertParams)
	if err == nil {
		return user, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return nil, err
	}

	// A concurrent signup or verification for the same email won the insert.
	verified, err = u.hasVerifiedOwner(ctx, email)
	if err != nil {
		return nil, err
	}
	if verified {
		return nil, ErrEmailInUse
	}

	user, err = u.userRepo.UpsertPendingUser(ctx, upsertParams)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrEmailInUse
		}
		return nil, err
	}

	return user, nil
}

func (u *credentialUsecase) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := u.userRepo.GetUserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return user, nil
}

func (u *credentialUsecase) MarkVerified(ctx context.Context, email, code string) (*model.User, error) {
	user, err := u.userRepo.MarkVerified(ctx, NormalizeEmail(email), strings.TrimSpace(code))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return user, nil
}

func (u *credentialUsecase) VerifyPassword(user *model.User, password string) bool {
	// Accounts without a password still pay for one argon2 verification.
	usable := user != nil && user.PasswordHash != ""

	encodedHash := u.throwawayHash()
	if usable {
		encodedHash = user.PasswordHash
	}

	ok, err := u.hasher.VerifyPassword(password, encodedHash)
	if err != nil {
		u.logger.Warn().Err(err).Msg("failed to verify password hash")
		return false
	}

	return ok && usable
}

func (u *credentialUsecase) hasVerifiedOwner(ctx context.Context, email string) (bool, error) {
	user, err := u.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, err
	}

	return user.Verified, nil
}

func (u *credentialUsecase) throwawayHash() string {
	u.dummyHashOnce.Do(func() {
		hash, err := u.hasher.HashPassword("not-a-real-password")
		if err != nil {
			u.logger.Warn().Err(err).Msg("failed to prepare throwaway password hash")
			return
		}
		u.dummyHash = hash
	})

	return u.dummyHash
}
