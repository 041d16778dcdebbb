package handler

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/notes-api/services/notes-service/internal/payload"
	"github.com/vasapolrittideah/notes-api/services/notes-service/internal/usecase"
	"github.com/vasapolrittideah/notes-api/shared/utilities"
	"github.com/vasapolrittideah/notes-api/shared/validation"
)

const passwordResetRequestedMessage = "If a verified account exists for this email, a password reset link has been sent."

type passwordResetHTTPHandler struct {
	passwordResetUsecase usecase.PasswordResetUsecase
	validator            *validation.Validator
	logger               *zerolog.Logger
}

func newPasswordResetHTTPHandler(
	passwordResetUsecase usecase.PasswordResetUsecase,
	validator *validation.Validator,
	logger *zerolog.Logger,
) *passwordResetHTTPHandler {
	return &passwordResetHTTPHandler{
		passwordResetUsecase: passwordResetUsecase,
		validator:            validator,
		logger:               logger,
	}
}

func (h *passwordResetHTTPHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req payload.RequestPasswordResetRequest
	if !decodeRequest(w, r, h.validator, &req) {
		return
	}

	if err := h.passwordResetUsecase.RequestPasswordReset(r.Context(), req.Email); err != nil {
		if errors.Is(err, usecase.ErrInvalidInput) {
			utilities.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}

		writeInternalError(w, h.logger, err, "failed to request password reset")
		return
	}

	utilities.WriteMessage(w, http.StatusOK, passwordResetRequestedMessage)
}

func (h *passwordResetHTTPHandler) ValidatePasswordResetToken(w http.ResponseWriter, r *http.Request) {
	var req payload.ValidatePasswordResetTokenRequest
	if !decodeRequest(w, r, h.validator, &req) {
		return
	}

	if err := h.passwordResetUsecase.ValidatePasswordResetToken(r.Context(), req.Token); err != nil {
		h.writeResetError(w, err, "failed to validate password reset token")
		return
	}

	utilities.WriteMessage(w, http.StatusOK, "Password reset token is valid")
}

func (h *passwordResetHTTPHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req payload.ResetPasswordRequest
	if !decodeRequest(w, r, h.validator, &req) {
		return
	}

	if err := h.passwordResetUsecase.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		h.writeResetError(w, err, "failed to reset password")
		return
	}

	utilities.WriteMessage(w, http.StatusOK, "Password has been reset. Please log in.")
}

func (h *passwordResetHTTPHandler) writeResetError(w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, usecase.ErrInvalidInput):
		utilities.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, usecase.ErrResetTokenNotFound):
		utilities.WriteError(w, http.StatusNotFound, "Password reset token not found")
	case errors.Is(err, usecase.ErrResetTokenUsed):
		utilities.WriteError(w, http.StatusConflict, "Password reset token has already been used")
	case errors.Is(err, usecase.ErrResetTokenExpired):
		utilities.WriteError(w, http.StatusBadRequest, "Password reset token has expired")
	case errors.Is(err, usecase.ErrUserNotFound):
		utilities.WriteError(w, http.StatusNotFound, "User not found")
	default:
		writeInternalError(w, h.logger, err, msg)
	}
}
