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

// UserRepository defines the interface for user-related database operations.
// Lookups that match nothing return mongo.ErrNoDocuments.
type UserRepository interface {
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)

	// UpsertPendingUser creates or overwrites the unverified user for an email
	// and clears any previous verification code.
	UpsertPendingUser(ctx context.Context, params UpsertPendingUserParams) (*model.User, error)

	// SetVerificationCode stores a fresh code on the unverified user and resets
	// the failed attempt counter.
	SetVerificationCode(ctx context.Context, email string, params SetVerificationCodeParams) (*model.User, error)

	// IncrementVerificationAttempts records a failed verification and returns
	// the updated number of failed attempts.
	IncrementVerificationAttempts(ctx context.Context, email string) (int, error)

	ClearVerificationCode(ctx context.Context, email string) error

	// MarkVerified verifies the unverified user for an email whose stored code
	// is still code, and clears the code.
	MarkVerified(ctx context.Context, email, code string) (*model.User, error)

	// UpsertVerifiedUser verifies the account for an email whose ownership was
	// proven elsewhere. Any pending password is discarded.
	UpsertVerifiedUser(ctx context.Context, params UpsertVerifiedUserParams) (*model.User, error)

	// UpdatePassword replaces the password hash of a verified user.
	UpdatePassword(ctx context.Context, id string, passwordHash string) (*model.User, error)
}

// UpsertPendingUserParams defines the data of a signup attempt.
type UpsertPendingUserParams struct {
	Name         string
	Email        string
	PasswordHash string
}

// SetVerificationCodeParams defines a newly issued verification code.
type SetVerificationCodeParams struct {
	Code      string
	ExpiresAt time.Time
}

// UpsertVerifiedUserParams defines an account created by an external identity provider.
type UpsertVerifiedUserParams struct {
	Name  string
	Email string
}

const userCollection = "users"

var clearVerificationFields = bson.M{
	"verification_code":            "",
	"verification_code_expires_at": "",
	"verification_attempts":        "",
}

type userMongoRepository struct {
	db *mongo.Database
}

func NewUserMongoRepository(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) UserRepository {
	collection := db.Collection(userCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create user indexes")
	}

	return &userMongoRepository{db: db}
}

func (r *userMongoRepository) GetUser(ctx context.Context, id string) (*model.User, error) {
	objectID, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}

	var user model.User
	if err := r.db.Collection(userCollection).FindOne(ctx, bson.M{"_id": objectID}).Decode(&user); err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *userMongoRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.Collection(userCollection).FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *userMongoRepository) UpsertPendingUser(
	ctx context.Context,
	params UpsertPendingUserParams,
) (*model.User, error) {
	now := time.Now()

	filter := bson.M{"email": params.Email, "verified": false}
	update := bson.M{
		"$set": bson.M{
			"name":          params.Name,
			"password_hash": params.PasswordHash,
			"updated_at":    now,
		},
		"$unset":       clearVerificationFields,
		"$setOnInsert": bson.M{"created_at": now},
	}

	return r.findOneAndUpdate(ctx, filter, update, true)
}

func (r *userMongoRepository) SetVerificationCode(
	ctx context.Context,
	email string,
	params SetVerificationCodeParams,
) (*model.User, error) {
	filter := bson.M{"email": email, "verified": false}
	update := bson.M{
		"$set": bson.M{
			"verification_code":            params.Code,
			"verification_code_expires_at": params.ExpiresAt,
			"verification_attempts":        0,
			"updated_at":                   time.Now(),
		},
	}

	return r.findOneAndUpdate(ctx, filter, update, false)
}

func (r *userMongoRepository) IncrementVerificationAttempts(ctx context.Context, email string) (int, error) {
	filter := bson.M{"email": email, "verified": false}
	update := bson.M{
		"$inc": bson.M{"verification_attempts": 1},
		"$set": bson.M{"updated_at": time.Now()},
	}

	user, err := r.findOneAndUpdate(ctx, filter, update, false)
	if err != nil {
		return 0, err
	}

	return user.VerificationAttempts, nil
}

func (r *userMongoRepository) ClearVerificationCode(ctx context.Context, email string) error {
	_, err := r.db.Collection(userCollection).UpdateOne(
		ctx,
		bson.M{"email": email, "verified": false},
		bson.M{
			"$unset": clearVerificationFields,
			"$set":   bson.M{"updated_at": time.Now()},
		},
	)
	return err
}

func (r *userMongoRepository) MarkVerified(ctx context.Context, email, code string) (*model.User, error) {
	filter := bson.M{"email": email, "verified": false, "verification_code": code}
	update := bson.M{
		"$set": bson.M{
			"verified":   true,
			"updated_at": time.Now(),
		},
		"$unset": clearVerificationFields,
	}

	return r.findOneAndUpdate(ctx, filter, update, false)
}

func (r *userMongoRepository) UpsertVerifiedUser(
	ctx context.Context,
	params UpsertVerifiedUserParams,
) (*model.User, error) {
	now := time.Now()

	filter := bson.M{"email": params.Email, "verified": false}
	update := bson.M{
		"$set": bson.M{
			"name":          params.Name,
			"password_hash": "",
			"verified":      true,
			"updated_at":    now,
		},
		"$unset":       clearVerificationFields,
		"$setOnInsert": bson.M{"created_at": now},
	}

	return r.findOneAndUpdate(ctx, filter, update, true)
}

func (r *userMongoRepository) UpdatePassword(
	ctx context.Context,
	id string,
	passwordHash string,
) (*model.User, error) {
	objectID, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}

	filter := bson.M{"_id": objectID, "verified": true}
	update := bson.M{
		"$set": bson.M{
			"password_hash": passwordHash,
			"updated_at":    time.Now(),
		},
	}

	return r.findOneAndUpdate(ctx, filter, update, false)
}

func (r *userMongoRepository) findOneAndUpdate(
	ctx context.Context,
	filter bson.M,
	update bson.M,
	upsert bool,
) (*model.User, error) {
	result := r.db.Collection(userCollection).FindOneAndUpdate(
		ctx,
		filter,
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After).SetUpsert(upsert),
	)
	if result.Err() != nil {
		return nil, result.Err()
	}

	var user model.User
	if err := result.Decode(&user); err != nil {
		return nil, err
	}

	return &user, nil
}
