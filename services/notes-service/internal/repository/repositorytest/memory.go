// Package repositorytest provides in-memory repositories with the same
// observable semantics as the MongoDB implementations, for use in tests.
package repositorytest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/vasapolrittideah/notes-api/services/notes-service/internal/model"
	"github.com/vasapolrittideah/notes-api/services/notes-service/internal/repository"
)

var duplicateEmailErr = mongo.WriteException{
	WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "E11000 duplicate key error collection: users index: email_1"}},
}

// UserRepository is an in-memory repository.UserRepository. Emails are unique,
// as with the unique index of the MongoDB collection.
type UserRepository struct {
	mu    sync.Mutex
	users map[string]*model.User // keyed by email

	// Err, when set, is returned by every operation.
	Err error
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]*model.User)}
}

// Put stores a copy of user, assigning an ID when missing.
func (r *UserRepository) Put(user *model.User) *model.User {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *user
	if stored.ID.IsZero() {
		stored.ID = bson.NewObjectID()
	}
	r.users[stored.Email] = &stored

	return copyUser(&stored)
}

// Snapshot returns a copy of the stored user for email, or nil.
func (r *UserRepository) Snapshot(email string) *model.User {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[email]
	if !ok {
		return nil
	}

	return copyUser(user)
}

func (r *UserRepository) GetUser(_ context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return nil, r.Err
	}

	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", repository.ErrInvalidObjectID, id)
	}

	for _, user := range r.users {
		if user.ID == objectID {
			return copyUser(user), nil
		}
	}

	return nil, mongo.ErrNoDocuments
}

func (r *UserRepository) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return nil, r.Err
	}

	user, ok := r.users[email]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}

	return copyUser(user), nil
}

func (r *UserRepository) UpsertPendingUser(
	_ context.Context,
	params repository.UpsertPendingUserParams,
) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return nil, r.Err
	}

	now := time.Now()

	user, ok := r.users[params.Email]
	if ok && user.Verified {
		return nil, duplicateEmailErr
	}
	if !ok {
		user = &model.User{ID: bson.NewObjectID(), Email: params.Email, CreatedAt: now}
		r.users[params.Email] = user
	}

	user.Name = params.Name
	user.PasswordHash = params.PasswordHash
	user.UpdatedAt = now
	clearVerification(user)

	return copyUser(user), nil
}

func (r *UserRepository) SetVerificationCode(
	_ context.Context,
	email string,
	params repository.SetVerificationCodeParams,
) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, err := r.pendingLocked(email)
	if err != nil {
		return nil, err
	}

	expiresAt := params.ExpiresAt
	user.VerificationCode = params.Code
	user.VerificationCodeExpiresAt = &expiresAt
	user.VerificationAttempts = 0
	user.UpdatedAt = time.Now()

	return copyUser(user), nil
}

func (r *UserRepository) IncrementVerificationAttempts(_ context.Context, email string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, err := r.pendingLocked(email)
	if err != nil {
		return 0, err
	}

	user.VerificationAttempts++
	user.UpdatedAt = time.Now()

	return user.VerificationAttempts, nil
}

func (r *UserRepository) ClearVerificationCode(_ context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, err := r.pendingLocked(email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil
		}
		return err
	}

	clearVerification(user)
	user.UpdatedAt = time.Now()

	return nil
}

func (r *UserRepository) MarkVerified(_ context.Context, email, code string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, err := r.pendingLocked(email)
	if err != nil {
		return nil, err
	}
	if code == "" || user.VerificationCode != code {
		return nil, mongo.ErrNoDocuments
	}

	user.Verified = true
	user.UpdatedAt = time.Now()
	clearVerification(user)

	return copyUser(user), nil
}

func (r *UserRepository) UpsertVerifiedUser(
	_ context.Context,
	params repository.UpsertVerifiedUserParams,
) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return nil, r.Err
	}

	now := time.Now()

	user, ok := r.users[params.Email]
	if ok && user.Verified {
		return nil, duplicateEmailErr
	}
	if !ok {
		user = &model.User{ID: bson.NewObjectID(), Email: params.Email, CreatedAt: now}
		r.users[params.Email] = user
	}

	user.Name = params.Name
	user.PasswordHash = ""
	user.Verified = true
	user.UpdatedAt = now
	clearVerification(user)

	return copyUser(user), nil
}

func (r *UserRepository) UpdatePassword(_ context.Context, id string, passwordHash string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return nil, r.Err
	}

	objectID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	for _, user := range r.users {
		if user.ID == objectID && user.Verified {
			user.PasswordHash = passwordHash
			user.UpdatedAt = time.Now()
			return copyUser(user), nil
		}
	}

	return nil, mongo.ErrNoDocuments
}

func (r *UserRepository) pendingLocked(email string) (*model.User, error) {
	if r.Err != nil {
		return nil, r.Err
	}

	user, ok := r.users[email]
	if !ok || user.Verified {
		return nil, mongo.ErrNoDocuments
	}

	return user, nil
}

func clearVerification(user *model.User) {
	user.VerificationCode = ""
	user.VerificationCodeExpiresAt = nil
	user.VerificationAttempts = 0
}

func copyUser(user *model.User) *model.User {
	c := *user
	if user.VerificationCodeExpiresAt != nil {
		expiresAt := *user.VerificationCodeExpiresAt
		c.VerificationCodeExpiresAt = &expiresAt
	}
	return &c
}

// NoteRepository is an in-memory repository.NoteRepository.
type NoteRepository struct {
	mu    sync.Mutex
	notes map[bson.ObjectID]*model.Note

	// Err, when set, is returned by every operation.
	Err error
}

func NewNoteRepository() *NoteRepository {
	return &NoteRepository{notes: make(map[bson.ObjectID]*model.Note)}
}

func (r *NoteRepository) CreateNote(
	_ context.Context,
	ownerID string,
	params repository.CreateNoteParams,
) (*model.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return nil, r.Err
	}

	ownerObjectID, err := parseID(ownerID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	note := &model.Note{
		ID:          bson.NewObjectID(),
		Title:       params.Title,
		Description: params.Description,
		OwnerID:     ownerObjectID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.notes[note.ID] = note

	c := *note
	return &c, nil
}

func (r *NoteRepository) ListNotesByOwner(_ context.Context, ownerID string) ([]*model.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return nil, r.Err
	}

	ownerObjectID, err := parseID(ownerID)
	if err != nil {
		return nil, err
	}

	notes := make([]*model.Note, 0)
	for _, note := range r.notes {
		if note.OwnerID == ownerObjectID {
			c := *note
			notes = append(notes, &c)
		}
	}

	sort.Slice(notes, func(i, j int) bool {
		if !notes[i].CreatedAt.Equal(notes[j].CreatedAt) {
			return notes[i].CreatedAt.After(notes[j].CreatedAt)
		}
		return notes[i].ID.Hex() > notes[j].ID.Hex()
	})

	return notes, nil
}

func (r *NoteRepository) UpdateNote(
	_ context.Context,
	ownerID, noteID string,
	params repository.UpdateNoteParams,
) (*model.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	note, err := r.ownedLocked(ownerID, noteID)
	if err != nil {
		return nil, err
	}

	if params.Title == nil && params.Description == nil {
		return nil, errors.New("no note fields to update")
	}

	if params.Title != nil {
		note.Title = *params.Title
	}
	if params.Description != nil {
		note.Description = *params.Description
	}
	note.UpdatedAt = time.Now()

	c := *note
	return &c, nil
}

func (r *NoteRepository) DeleteNote(_ context.Context, ownerID, noteID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	note, err := r.ownedLocked(ownerID, noteID)
	if err != nil {
		return err
	}

	delete(r.notes, note.ID)

	return nil
}

func (r *NoteRepository) ownedLocked(ownerID, noteID string) (*model.Note, error) {
	if r.Err != nil {
		return nil, r.Err
	}

	ownerObjectID, err := parseID(ownerID)
	if err != nil {
		return nil, err
	}

	noteObjectID, err := parseID(noteID)
	if err != nil {
		return nil, err
	}

	note, ok := r.notes[noteObjectID]
	if !ok || note.OwnerID != ownerObjectID {
		return nil, mongo.ErrNoDocuments
	}

	return note, nil
}

func parseID(id string) (bson.ObjectID, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return bson.ObjectID{}, fmt.Errorf("%w: %q", repository.ErrInvalidObjectID, id)
	}

	return objectID, nil
}

// IdentityRepository is an in-memory repository.IdentityRepository.
type IdentityRepository struct {
	mu         sync.Mutex
	identities map[string]*model.Identity // keyed by provider and subject

	// Err, when set, is returned by every operation.
	Err error
}

func NewIdentityRepository() *IdentityRepository {
	return &IdentityRepository{identities: make(map[string]*model.Identity)}
}

func (r *IdentityRepository) GetIdentityByProvider(
	_ context.Context,
	provider, subject string,
) (*model.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return nil, r.Err
	}

	identity, ok := r.identities[identityKey(provider, subject)]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}

	c := *identity
	return &c, nil
}

func (r *IdentityRepository) LinkIdentity(
	_ context.Context,
	params repository.LinkIdentityParams,
) (*model.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return nil, r.Err
	}

	now := time.Now()
	key := identityKey(params.Provider, params.Subject)

	identity, ok := r.identities[key]
	if !ok {
		identity = &model.Identity{
			ID:        bson.NewObjectID(),
			UserID:    params.UserID,
			Provider:  params.Provider,
			Subject:   params.Subject,
			CreatedAt: now,
		}
		r.identities[key] = identity
	}

	identity.Email = params.Email
	identity.LastLoginAt = now
	identity.UpdatedAt = now

	c := *identity
	return &c, nil
}

func identityKey(provider, subject string) string {
	return provider + "|" + subject
}

// PasswordResetTokenRepository is an in-memory repository.PasswordResetTokenRepository.
type PasswordResetTokenRepository struct {
	mu     sync.Mutex
	tokens map[string]*model.PasswordResetToken // keyed by token hash

	// Err, when set, is returned by every operation.
	Err error
}

func NewPasswordResetTokenRepository() *PasswordResetTokenRepository {
	return &PasswordResetTokenRepository{tokens: make(map[string]*model.PasswordResetToken)}
}

// Tokens returns copies of every stored token.
func (r *PasswordResetTokenRepository) Tokens() []model.PasswordResetToken {
	r.mu.Lock()
	defer r.mu.Unlock()

	tokens := make([]model.PasswordResetToken, 0, len(r.tokens))
	for _, token := range r.tokens {
		tokens = append(tokens, *token)
	}

	return tokens
}

func (r *PasswordResetTokenRepository) CreateToken(
	_ context.Context,
	token *model.PasswordResetToken,
) (*model.PasswordResetToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return nil, r.Err
	}

	now := time.Now()
	stored := *token
	stored.ID = bson.NewObjectID()
	stored.Used = false
	stored.CreatedAt = now
	stored.UpdatedAt = now
	r.tokens[stored.TokenHash] = &stored

	c := stored
	return &c, nil
}

func (r *PasswordResetTokenRepository) GetTokenByHash(
	_ context.Context,
	tokenHash string,
) (*model.PasswordResetToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return nil, r.Err
	}

	token, ok := r.tokens[tokenHash]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}

	c := *token
	return &c, nil
}

func (r *PasswordResetTokenRepository) MarkTokenAsUsed(_ context.Context, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return r.Err
	}

	token, ok := r.tokens[tokenHash]
	if !ok || token.Used {
		return mongo.ErrNoDocuments
	}

	token.Used = true
	token.UpdatedAt = time.Now()

	return nil
}

func (r *PasswordResetTokenRepository) InvalidateUserTokens(_ context.Context, userID bson.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return r.Err
	}

	for _, token := range r.tokens {
		if token.UserID == userID && !token.Used {
			token.Used = true
			token.UpdatedAt = time.Now()
		}
	}

	return nil
}

var (
	_ repository.UserRepository               = (*UserRepository)(nil)
	_ repository.NoteRepository               = (*NoteRepository)(nil)
	_ repository.IdentityRepository           = (*IdentityRepository)(nil)
	_ repository.PasswordResetTokenRepository = (*PasswordResetTokenRepository)(nil)
)
