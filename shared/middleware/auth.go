package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/notes-api/shared/auth"
	"github.com/vasapolrittideah/notes-api/shared/utilities"
)

var ErrMissingToken = errors.New("missing bearer token")

// TokenVerifier verifies session tokens.
type TokenVerifier interface {
	VerifyToken(token string) (*auth.Claims, error)
}

// AuthenticatedHandlerFunc is an HTTP handler that receives the verified caller.
type AuthenticatedHandlerFunc func(w http.ResponseWriter, r *http.Request, identity auth.Identity)

// AuthGateway guards protected routes with bearer token authentication.
type AuthGateway struct {
	verifier TokenVerifier
	logger   *zerolog.Logger
}

func NewAuthGateway(verifier TokenVerifier, logger *zerolog.Logger) *AuthGateway {
	return &AuthGateway{verifier: verifier, logger: logger}
}

// Require rejects requests without a bearer token (401) or with a token that
// fails verification (403). Otherwise next runs with the token's identity.
func (g *AuthGateway) Require(next AuthenticatedHandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenString, err := extractBearerToken(r.Header.Get("Authorization"))
		if err != nil {
			utilities.WriteError(w, http.StatusUnauthorized, "Access token missing")
			return
		}

		claims, err := g.verifier.VerifyToken(tokenString)
		if err != nil {
			g.logger.Debug().Err(err).Msg("rejected session token")
			utilities.WriteError(w, http.StatusForbidden, "Invalid or expired token")
			return
		}

		next(w, r, claims.Identity())
	}
}

func extractBearerToken(header string) (string, error) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", ErrMissingToken
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", ErrMissingToken
	}

	return token, nil
}
