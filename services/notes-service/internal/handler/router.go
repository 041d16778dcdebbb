package handler

import (
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/notes-api/services/notes-service/internal/usecase"
	"github.com/vasapolrittideah/notes-api/shared/middleware"
	"github.com/vasapolrittideah/notes-api/shared/utilities"
	"github.com/vasapolrittideah/notes-api/shared/validation"
)

// HealthPath is the liveness endpoint used by service discovery checks.
const HealthPath = "/healthz"

const healthCheckTimeout = 2 * time.Second

// HealthCheckFunc reports whether the service dependencies are reachable.
type HealthCheckFunc func(ctx context.Context) error

// RouterParams holds the dependencies of the HTTP router.
type RouterParams struct {
	AuthUsecase          usecase.AuthUsecase
	PasswordResetUsecase usecase.PasswordResetUsecase
	NoteUsecase          usecase.NoteUsecase
	AuthGateway          *middleware.AuthGateway
	Validator            *validation.Validator
	HealthCheck          HealthCheckFunc
	AllowedOrigins       []string
	Logger               *zerolog.Logger
}

// NewRouter builds the HTTP API of the notes service.
func NewRouter(p RouterParams) http.Handler {
	authHandler := newAuthHTTPHandler(p.AuthUsecase, p.Validator, p.Logger)
	passwordResetHandler := newPasswordResetHTTPHandler(p.PasswordResetUsecase, p.Validator, p.Logger)
	noteHandler := newNoteHTTPHandler(p.NoteUsecase, p.Validator, p.Logger)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(p.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   p.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: !slices.Contains(p.AllowedOrigins, "*"),
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		utilities.WriteError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		utilities.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get(HealthPath, healthHandler(p.HealthCheck, p.Logger))

	r.Post("/signup", authHandler.Signup)
	r.Post("/verify-otp", authHandler.VerifyOTP)
	r.Post("/login", authHandler.Login)
	r.Post("/auth/google", authHandler.GoogleSignIn)
	r.Get("/user", p.AuthGateway.Require(authHandler.GetProfile))

	r.Route("/password-reset", func(r chi.Router) {
		r.Post("/request", passwordResetHandler.RequestPasswordReset)
		r.Post("/validate", passwordResetHandler.ValidatePasswordResetToken)
		r.Post("/confirm", passwordResetHandler.ResetPassword)
	})

	r.Route("/notes", func(r chi.Router) {
		r.Get("/", p.AuthGateway.Require(noteHandler.ListNotes))
		r.Post("/", p.AuthGateway.Require(noteHandler.CreateNote))
		r.Put("/{id}", p.AuthGateway.Require(noteHandler.UpdateNote))
		r.Delete("/{id}", p.AuthGateway.Require(noteHandler.DeleteNote))
	})

	return r
}

func healthHandler(check HealthCheckFunc, logger *zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
			defer cancel()

			if err := check(ctx); err != nil {
				logger.Warn().Err(err).Msg("health check failed")
				utilities.WriteError(w, http.StatusServiceUnavailable, "service unavailable")
				return
			}
		}

		utilities.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
