package handler

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/notes-api/shared/utilities"
	"github.com/vasapolrittideah/notes-api/shared/validation"
)

const internalErrorMessage = "something went wrong"

// decodeRequest decodes and validates a JSON request body into req. On failure
// it writes a 400 response and returns false.
func decodeRequest(w http.ResponseWriter, r *http.Request, validator *validation.Validator, req any) bool {
	if err := utilities.DecodeJSON(w, r, req); err != nil {
		utilities.WriteError(w, http.StatusBadRequest, utilities.ErrInvalidRequestBody.Error())
		return false
	}

	if err := validator.Struct(req); err != nil {
		var validationErr *validation.ValidationError
		if errors.As(err, &validationErr) {
			utilities.WriteError(w, http.StatusBadRequest, validationErr.Error())
			return false
		}

		utilities.WriteError(w, http.StatusBadRequest, utilities.ErrInvalidRequestBody.Error())
		return false
	}

	return true
}

func writeInternalError(w http.ResponseWriter, logger *zerolog.Logger, err error, msg string) {
	logger.Error().Err(err).Msg(msg)
	utilities.WriteError(w, http.StatusInternalServerError, internalErrorMessage)
}
