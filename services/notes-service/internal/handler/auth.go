package handler

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/notes-api/services/notes-service/internal/payload"
	"github.com/vasapolrittideah/notes-api/services/notes-service/internal/usecase"
	"github.com/vasapolrittideah/notes-api/services/notes-service/pkg/types"
	"github.com/vasapolrittideah/notes-api/shared/auth"
	"github.com/vasapolrittideah/notes-api/shared/utilities"
	"github.com/vasapolrittideah/notes-api/shared/validation"
)

type authHTTPHandler struct {
	authUsecase usecase.AuthUsecase
	validator   *validation.Validator
	logger      *zerolog.Logger
}

func newAuthHTTPHandler(
	authUsecase usecase.AuthUsecase,
	validator *validation.Validator,
	logger *zerolog.Logger,
) *authHTTPHandler {
	return &authHTTPHandler{
		authUsecase: authUsecase,
		validator:   validator,
		logger:      logger,
	}
}

func (h *authHTTPHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req payload.SignupRequest
	if !decodeRequest(w, r, h.validator, &req) {
		return
	}

	err := h.authUsecase.Signup(r.Context(), usecase.SignupParams{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidInput):
			utilities.WriteError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, usecase.ErrEmailInUse):
			utilities.WriteError(w, http.StatusBadRequest, "Email already in use by a verified account")
		default:
			writeInternalError(w, h.logger, err, "failed to sign up")
		}
		return
	}

	utilities.WriteMessage(w, http.StatusOK, "OTP sent to your email. Please verify.")
}

func (h *authHTTPHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req payload.VerifyOTPRequest
	if !decodeRequest(w, r, h.validator, &req) {
		return
	}

	err := h.authUsecase.VerifyOTP(r.Context(), usecase.VerifyOTPParams{
		Email: req.Email,
		Code:  req.OTP,
	})
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrUserNotFound):
			utilities.WriteError(w, http.StatusBadRequest, "User not found.")
		case errors.Is(err, usecase.ErrInvalidOrExpiredOTP):
			utilities.WriteError(w, http.StatusBadRequest, "Invalid or expired OTP.")
		default:
			writeInternalError(w, h.logger, err, "failed to verify otp")
		}
		return
	}

	utilities.WriteMessage(w, http.StatusOK, "Account verified successfully. Please log in.")
}

func (h *authHTTPHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req payload.LoginRequest
	if !decodeRequest(w, r, h.validator, &req) {
		return
	}

	session, err := h.authUsecase.Login(r.Context(), usecase.LoginParams{
		Email:      req.Email,
		Password:   req.Password,
		RememberMe: req.RememberMe,
	})
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidInput):
			utilities.WriteError(w, http.StatusBadRequest, "Email and password required")
		case errors.Is(err, usecase.ErrInvalidCredentials):
			utilities.WriteError(w, http.StatusBadRequest, "Invalid email or password")
		case errors.Is(err, usecase.ErrUserNotVerified):
			utilities.WriteError(w, http.StatusBadRequest, "Please verify your email before logging in")
		default:
			writeInternalError(w, h.logger, err, "failed to log in")
		}
		return
	}

	utilities.WriteJSON(w, http.StatusOK, newLoginResponse(session))
}

func (h *authHTTPHandler) GoogleSignIn(w http.ResponseWriter, r *http.Request) {
	var req payload.GoogleSignInRequest
	if !decodeRequest(w, r, h.validator, &req) {
		return
	}

	session, err := h.authUsecase.SignInWithGoogle(r.Context(), req.IDToken)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrGoogleSignInDisabled):
			utilities.WriteError(w, http.StatusNotFound, "Google sign-in is not available")
		case errors.Is(err, usecase.ErrInvalidInput):
			utilities.WriteError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, usecase.ErrInvalidGoogleToken):
			h.logger.Warn().Err(err).Msg("rejected google id token")
			utilities.WriteError(w, http.StatusUnauthorized, "Invalid Google token")
		default:
			writeInternalError(w, h.logger, err, "failed to sign in with google")
		}
		return
	}

	utilities.WriteJSON(w, http.StatusOK, newLoginResponse(session))
}

func (h *authHTTPHandler) GetProfile(w http.ResponseWriter, r *http.Request, identity auth.Identity) {
	user, err := h.authUsecase.GetProfile(r.Context(), identity.UserID)
	if err != nil {
		if errors.Is(err, usecase.ErrUserNotFound) {
			utilities.WriteError(w, http.StatusNotFound, "User not found")
			return
		}

		writeInternalError(w, h.logger, err, "failed to get user profile")
		return
	}

	utilities.WriteJSON(w, http.StatusOK, payload.UserResponse{
		ID:    user.ID.Hex(),
		Name:  user.Name,
		Email: user.Email,
	})
}

func newLoginResponse(session *types.Session) payload.LoginResponse {
	return payload.LoginResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		User: payload.UserResponse{
			ID:    session.User.ID,
			Name:  session.User.Name,
			Email: session.User.Email,
		},
	}
}
