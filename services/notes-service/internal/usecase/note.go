package usecase

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/vasapolrittideah/notes-api/services/notes-service/internal/model"
	"github.com/vasapolrittideah/notes-api/services/notes-service/internal/repository"
)

const (
	maxTitleLength       = 200
	maxDescriptionLength = 1000
)

// NoteUsecase defines the owner-scoped note operations. A note owned by
// someone else is reported as ErrNoteNotFound.
type NoteUsecase interface {
	Create(ctx context.Context, ownerID string, params CreateNoteParams) (*model.Note, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*model.Note, error)
	Update(ctx context.Context, ownerID, noteID string, params UpdateNoteParams) (*model.Note, error)
	Delete(ctx context.Context, ownerID, noteID string) error
}

// CreateNoteParams defines the parameters for creating a note.
type CreateNoteParams struct {
	Title       string
	Description string
}

// UpdateNoteParams defines a partial note update. Nil fields are left unchanged.
type UpdateNoteParams struct {
	Title       *string
	Description *string
}

type noteUsecase struct {
	noteRepo repository.NoteRepository
}

func NewNoteUsecase(noteRepo repository.NoteRepository) NoteUsecase {
	return &noteUsecase{noteRepo: noteRepo}
}

func (u *noteUsecase) Create(ctx context.Context, ownerID string, params CreateNoteParams) (*model.Note, error) {
	title, err := normalizeTitle(params.Title)
	if err != nil {
		return nil, err
	}

	description, err := normalizeDescription(params.Description)
	if err != nil {
		return nil, err
	}

	return u.noteRepo.CreateNote(ctx, ownerID, repository.CreateNoteParams{
		Title:       title,
		Description: description,
	})
}

func (u *noteUsecase) ListByOwner(ctx context.Context, ownerID string) ([]*model.Note, error) {
	return u.noteRepo.ListNotesByOwner(ctx, ownerID)
}

func (u *noteUsecase) Update(
	ctx context.Context,
	ownerID, noteID string,
	params UpdateNoteParams,
) (*model.Note, error) {
	if params.Title == nil && params.Description == nil {
		return nil, ErrNoFieldsToUpdate
	}

	var updateParams repository.UpdateNoteParams

	if params.Title != nil {
		title, err := normalizeTitle(*params.Title)
		if err != nil {
			return nil, err
		}
		updateParams.Title = &title
	}

	if params.Description != nil {
		description, err := normalizeDescription(*params.Description)
		if err != nil {
			return nil, err
		}
		updateParams.Description = &description
	}

	note, err := u.noteRepo.UpdateNote(ctx, ownerID, noteID, updateParams)
	if err != nil {
		return nil, noteError(err)
	}

	return note, nil
}

func (u *noteUsecase) Delete(ctx context.Context, ownerID, noteID string) error {
	if err := u.noteRepo.DeleteNote(ctx, ownerID, noteID); err != nil {
		return noteError(err)
	}

	return nil
}

func noteError(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) || errors.Is(err, repository.ErrInvalidObjectID) {
		return ErrNoteNotFound
	}
	return err
}

func normalizeTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if n := utf8.RuneCountInString(title); n == 0 || n > maxTitleLength {
		return "", invalidInput("title must be between 1 and %d characters", maxTitleLength)
	}
	return title, nil
}

func normalizeDescription(description string) (string, error) {
	description = strings.TrimSpace(description)
	if n := utf8.RuneCountInString(description); n == 0 || n > maxDescriptionLength {
		return "", invalidInput("description must be between 1 and %d characters", maxDescriptionLength)
	}
	return description, nil
}
