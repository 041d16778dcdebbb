package payload

import (
	"time"

	"github.com/vasapolrittideah/notes-api/services/notes-service/internal/model"
)

type CreateNoteRequest struct {
	Title       string `json:"title"       validate:"required"`
	Description string `json:"description" validate:"required"`
}

// UpdateNoteRequest is a partial update; absent fields are left unchanged.
type UpdateNoteRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

type NoteResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	OwnerID     string    `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func NewNoteResponse(note *model.Note) NoteResponse {
	return NoteResponse{
		ID:          note.ID.Hex(),
		Title:       note.Title,
		Description: note.Description,
		OwnerID:     note.OwnerID.Hex(),
		CreatedAt:   note.CreatedAt,
		UpdatedAt:   note.UpdatedAt,
	}
}

func NewNoteListResponse(notes []*model.Note) []NoteResponse {
	resp := make([]NoteResponse, 0, len(notes))
	for _, note := range notes {
		resp = append(resp, NewNoteResponse(note))
	}
	return resp
}
