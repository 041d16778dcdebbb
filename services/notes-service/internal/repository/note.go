package repository

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/vasapolrittideah/notes-api/services/notes-service/internal/model"
)

// NoteRepository defines the interface for note-related database operations.
// Every operation is scoped to the owner; a note of another owner behaves
// exactly like a missing note and yields mongo.ErrNoDocuments.
type NoteRepository interface {
	CreateNote(ctx context.Context, ownerID string, params CreateNoteParams) (*model.Note, error)
	ListNotesByOwner(ctx context.Context, ownerID string) ([]*model.Note, error)
	UpdateNote(ctx context.Context, ownerID, noteID string, params UpdateNoteParams) (*model.Note, error)
	DeleteNote(ctx context.Context, ownerID, noteID string) error
}

// CreateNoteParams defines the fields of a new note.
type CreateNoteParams struct {
	Title       string
	Description string
}

// UpdateNoteParams defines the optional parameters for updating a note.
// Only the fields that are not nil will be updated.
type UpdateNoteParams struct {
	Title       *string
	Description *string
}

const noteCollection = "notes"

type noteMongoRepository struct {
	db *mongo.Database
}

func NewNoteMongoRepository(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) NoteRepository {
	collection := db.Collection(noteCollection)

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "created_at", Value: -1}},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create note indexes")
	}

	return &noteMongoRepository{db: db}
}

func (r *noteMongoRepository) CreateNote(
	ctx context.Context,
	ownerID string,
	params CreateNoteParams,
) (*model.Note, error) {
	ownerObjectID, err := parseObjectID(ownerID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	note := &model.Note{
		Title:       params.Title,
		Description: params.Description,
		OwnerID:     ownerObjectID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	result, err := r.db.Collection(noteCollection).InsertOne(ctx, note)
	if err != nil {
		return nil, err
	}

	if objectID, ok := result.InsertedID.(bson.ObjectID); ok {
		note.ID = objectID
	} else {
		return nil, errors.New("failed to convert inserted ID to ObjectID")
	}

	return note, nil
}

func (r *noteMongoRepository) ListNotesByOwner(ctx context.Context, ownerID string) ([]*model.Note, error) {
	ownerObjectID, err := parseObjectID(ownerID)
	if err != nil {
		return nil, err
	}

	findOptions := options.Find().SetSort(bson.D{
		{Key: "created_at", Value: -1},
		{Key: "_id", Value: -1},
	})

	cursor, err := r.db.Collection(noteCollection).Find(ctx, bson.M{"owner_id": ownerObjectID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	notes := make([]*model.Note, 0)
	for cursor.Next(ctx) {
		var note model.Note
		if err := cursor.Decode(&note); err != nil {
			return nil, err
		}
		notes = append(notes, &note)
	}

	if err := cursor.Err(); err != nil {
		return nil, err
	}

	return notes, nil
}

func (r *noteMongoRepository) UpdateNote(
	ctx context.Context,
	ownerID, noteID string,
	params UpdateNoteParams,
) (*model.Note, error) {
	filter, err := ownedNoteFilter(ownerID, noteID)
	if err != nil {
		return nil, err
	}

	updateMap := bson.M{}
	if params.Title != nil {
		updateMap["title"] = *params.Title
	}
	if params.Description != nil {
		updateMap["description"] = *params.Description
	}

	if len(updateMap) == 0 {
		return nil, errors.New("no note fields to update")
	}

	updateMap["updated_at"] = time.Now()

	result := r.db.Collection(noteCollection).FindOneAndUpdate(
		ctx,
		filter,
		bson.M{"$set": updateMap},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	if result.Err() != nil {
		return nil, result.Err()
	}

	var note model.Note
	if err := result.Decode(&note); err != nil {
		return nil, err
	}

	return &note, nil
}

func (r *noteMongoRepository) DeleteNote(ctx context.Context, ownerID, noteID string) error {
	filter, err := ownedNoteFilter(ownerID, noteID)
	if err != nil {
		return err
	}

	result, err := r.db.Collection(noteCollection).DeleteOne(ctx, filter)
	if err != nil {
		return err
	}

	if result.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}

	return nil
}

func ownedNoteFilter(ownerID, noteID string) (bson.M, error) {
	ownerObjectID, err := parseObjectID(ownerID)
	if err != nil {
		return nil, err
	}

	noteObjectID, err := parseObjectID(noteID)
	if err != nil {
		return nil, err
	}

	return bson.M{"_id": noteObjectID, "owner_id": ownerObjectID}, nil
}
