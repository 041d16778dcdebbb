package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/notes-api/services/notes-service/internal/payload"
	"github.com/vasapolrittideah/notes-api/services/notes-service/internal/usecase"
	"github.com/vasapolrittideah/notes-api/shared/auth"
	"github.com/vasapolrittideah/notes-api/shared/utilities"
	"github.com/vasapolrittideah/notes-api/shared/validation"
)

type noteHTTPHandler struct {
	noteUsecase usecase.NoteUsecase
	validator   *validation.Validator
	logger      *zerolog.Logger
}

func newNoteHTTPHandler(
	noteUsecase usecase.NoteUsecase,
	validator *validation.Validator,
	logger *zerolog.Logger,
) *noteHTTPHandler {
	return &noteHTTPHandler{
		noteUsecase: noteUsecase,
		validator:   validator,
		logger:      logger,
	}
}

func (h *noteHTTPHandler) ListNotes(w http.ResponseWriter, r *http.Request, identity auth.Identity) {
	notes, err := h.noteUsecase.ListByOwner(r.Context(), identity.UserID)
	if err != nil {
		writeInternalError(w, h.logger, err, "failed to list notes")
		return
	}

	utilities.WriteJSON(w, http.StatusOK, payload.NewNoteListResponse(notes))
}

func (h *noteHTTPHandler) CreateNote(w http.ResponseWriter, r *http.Request, identity auth.Identity) {
	var req payload.CreateNoteRequest
	if !decodeRequest(w, r, h.validator, &req) {
		return
	}

	note, err := h.noteUsecase.Create(r.Context(), identity.UserID, usecase.CreateNoteParams{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidInput) {
			utilities.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}

		writeInternalError(w, h.logger, err, "failed to create note")
		return
	}

	utilities.WriteJSON(w, http.StatusCreated, payload.NewNoteResponse(note))
}

func (h *noteHTTPHandler) UpdateNote(w http.ResponseWriter, r *http.Request, identity auth.Identity) {
	var req payload.UpdateNoteRequest
	if !decodeRequest(w, r, h.validator, &req) {
		return
	}

	note, err := h.noteUsecase.Update(r.Context(), identity.UserID, chi.URLParam(r, "id"), usecase.UpdateNoteParams{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrNoFieldsToUpdate):
			utilities.WriteError(w, http.StatusBadRequest, "Please provide a title or description to update")
		case errors.Is(err, usecase.ErrInvalidInput):
			utilities.WriteError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, usecase.ErrNoteNotFound):
			utilities.WriteError(w, http.StatusNotFound, "Note not found or you do not have permission to edit it")
		default:
			writeInternalError(w, h.logger, err, "failed to update note")
		}
		return
	}

	utilities.WriteJSON(w, http.StatusOK, payload.NewNoteResponse(note))
}

func (h *noteHTTPHandler) DeleteNote(w http.ResponseWriter, r *http.Request, identity auth.Identity) {
	err := h.noteUsecase.Delete(r.Context(), identity.UserID, chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, usecase.ErrNoteNotFound) {
			utilities.WriteError(w, http.StatusNotFound, "Note not found or you do not have permission to delete it")
			return
		}

		writeInternalError(w, h.logger, err, "failed to delete note")
		return
	}

	utilities.WriteMessage(w, http.StatusOK, "Note deleted successfully")
}
