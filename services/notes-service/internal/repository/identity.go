package repository

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/vasapolrittideah/notes-api/services/notes-service/internal/model"
)

// IdentityRepository defines the interface for external identity operations.
type IdentityRepository interface {
	GetIdentityByProvider(ctx context.Context, provider, subject string) (*model.Identity, error)

	// LinkIdentity records a sign-in with an external identity, creating the
	// link to the user on first use.
	LinkIdentity(ctx context.Context, params LinkIdentityParams) (*model.Identity, error)
}

// LinkIdentityParams defines an external identity that signed in as a user.
type LinkIdentityParams struct {
	UserID   bson.ObjectID
	Provider string
	Subject  string
	Email    string
}

const identityCollection = "identities"

type identityMongoRepository struct {
	db *mongo.Database
}

func NewIdentityMongoRepository(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) IdentityRepository {
	collection := db.Collection(identityCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "provider", Value: 1}, {Key: "subject", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create identity indexes")
	}

	return &identityMongoRepository{db: db}
}

func (r *identityMongoRepository) GetIdentityByProvider(
	ctx context.Context,
	provider, subject string,
) (*model.Identity, error) {
	var identity model.Identity
	err := r.db.Collection(identityCollection).
		FindOne(ctx, bson.M{"provider": provider, "subject": subject}).
		Decode(&identity)
	if err != nil {
		return nil, err
	}

	return &identity, nil
}

func (r *identityMongoRepository) LinkIdentity(
	ctx context.Context,
	params LinkIdentityParams,
) (*model.Identity, error) {
	now := time.Now()

	filter := bson.M{"provider": params.Provider, "subject": params.Subject}
	update := bson.M{
		"$set": bson.M{
			"email":         params.Email,
			"last_login_at": now,
			"updated_at":    now,
		},
		"$setOnInsert": bson.M{
			"user_id":    params.UserID,
			"created_at": now,
		},
	}

	result := r.db.Collection(identityCollection).FindOneAndUpdate(
		ctx,
		filter,
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After).SetUpsert(true),
	)
	if result.Err() != nil {
		return nil, result.Err()
	}

	var identity model.Identity
	if err := result.Decode(&identity); err != nil {
		return nil, err
	}

	return &identity, nil
}
