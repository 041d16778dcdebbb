package usecase

import (
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/vasapolrittideah/notes-api/services/notes-service/internal/repository/repositorytest"
	"github.com/vasapolrittideah/notes-api/shared/auth"
	"github.com/vasapolrittideah/notes-api/shared/security"
	"github.com/vasapolrittideah/notes-api/shared/validation"
)

var otpPattern = regexp.MustCompile(`>(\d{6})<`)

type sentEmail struct {
	To      []string
	Subject string
	Body    string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentEmail
	err  error
}

func (n *recordingNotifier) SendHTML(to []string, subject, htmlBody string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.err != nil {
		return n.err
	}

	n.sent = append(n.sent, sentEmail{To: to, Subject: subject, Body: htmlBody})
	return nil
}

func (n *recordingNotifier) SendSimple(to []string, subject, body string) error {
	return n.SendHTML(to, subject, body)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()

	return len(n.sent)
}

func (n *recordingNotifier) last(t *testing.T) sentEmail {
	t.Helper()

	n.mu.Lock()
	defer n.mu.Unlock()

	require.NotEmpty(t, n.sent, "no email was sent")
	return n.sent[len(n.sent)-1]
}

func (n *recordingNotifier) lastCode(t *testing.T) string {
	t.Helper()

	match := otpPattern.FindStringSubmatch(n.last(t).Body)
	require.Len(t, match, 2, "no code in email body")
	return match[1]
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

type fixture struct {
	users      *repositorytest.UserRepository
	notes      *repositorytest.NoteRepository
	identities *repositorytest.IdentityRepository
	resets     *repositorytest.PasswordResetTokenRepository
	notifier   *recordingNotifier
	clock      *fakeClock
	hasher     *security.Argon2Hasher
	tokens     *auth.JWTAuthenticator

	credentials   CredentialUsecase
	otp           OTPUsecase
	auth          AuthUsecase
	passwordReset PasswordResetUsecase
	noteUC        NoteUsecase
}

type fixtureOption func(*fixtureConfig)

type fixtureConfig struct {
	otp    OTPConfig
	google GoogleTokenVerifier
}

func withMaxAttempts(n int) fixtureOption {
	return func(c *fixtureConfig) { c.otp.MaxAttempts = n }
}

func withGoogle(v GoogleTokenVerifier) fixtureOption {
	return func(c *fixtureConfig) { c.google = v }
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()

	cfg := fixtureConfig{otp: OTPConfig{ExpiresIn: 10 * time.Minute, MaxAttempts: 5}}
	for _, opt := range opts {
		opt(&cfg)
	}

	f := &fixture{
		users:      repositorytest.NewUserRepository(),
		notes:      repositorytest.NewNoteRepository(),
		identities: repositorytest.NewIdentityRepository(),
		resets:     repositorytest.NewPasswordResetTokenRepository(),
		notifier:   &recordingNotifier{},
		clock:      newFakeClock(),
		hasher:     security.NewArgon2HasherWithCost(1, 8*1024),
		tokens:     auth.NewJWTAuthenticator(auth.JWTConfig{Secret: "test-secret", Issuer: "notes-api"}),
	}

	logger := nopLogger()

	f.credentials = NewCredentialUsecase(f.users, f.hasher, mustValidator(t), logger)
	f.otp = NewOTPUsecase(f.users, f.notifier, cfg.otp, logger, WithClock(f.clock.Now))
	f.auth = NewAuthUsecase(
		f.credentials,
		f.otp,
		f.users,
		f.identities,
		f.tokens,
		cfg.google,
		SessionConfig{ExpiresIn: 24 * time.Hour, LongExpiresIn: 30 * 24 * time.Hour},
		logger,
	)
	f.passwordReset = NewPasswordResetUsecase(
		f.users,
		f.resets,
		f.hasher,
		f.notifier,
		PasswordResetConfig{ExpiresIn: 15 * time.Minute, ResetURL: "https://notes.example.com/reset-password"},
		logger,
		WithPasswordResetClock(f.clock.Now),
	)
	f.noteUC = NewNoteUsecase(f.notes)

	return f
}

func nopLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

func mustValidator(t *testing.T) *validation.Validator {
	t.Helper()

	v, err := validation.New()
	require.NoError(t, err)
	return v
}
