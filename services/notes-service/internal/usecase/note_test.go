package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func ptr[T any](v T) *T {
	return &v
}

func TestNoteCreate_TrimsFields(t *testing.T) {
	f := newFixture(t)
	owner := bson.NewObjectID().Hex()

	note, err := f.noteUC.Create(context.Background(), owner, CreateNoteParams{
		Title:       "  Shopping ",
		Description: "\tMilk, eggs\n",
	})
	require.NoError(t, err)
	assert.Equal(t, "Shopping", note.Title)
	assert.Equal(t, "Milk, eggs", note.Description)
	assert.Equal(t, owner, note.OwnerID.Hex())
	assert.False(t, note.CreatedAt.IsZero())
}

func TestNoteCreate_InvalidInput(t *testing.T) {
	f := newFixture(t)
	owner := bson.NewObjectID().Hex()

	tests := []struct {
		name   string
		params CreateNoteParams
	}{
		{"missing title", CreateNoteParams{Description: "d"}},
		{"blank title", CreateNoteParams{Title: "   ", Description: "d"}},
		{"missing description", CreateNoteParams{Title: "t"}},
		{"long title", CreateNoteParams{Title: strings.Repeat("t", 201), Description: "d"}},
		{"long description", CreateNoteParams{Title: "t", Description: strings.Repeat("d", 1001)}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.noteUC.Create(context.Background(), owner, tc.params)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}

	notes, err := f.noteUC.ListByOwner(context.Background(), owner)
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestNoteCreate_LengthCountsCharacters(t *testing.T) {
	f := newFixture(t)

	_, err := f.noteUC.Create(context.Background(), bson.NewObjectID().Hex(), CreateNoteParams{
		Title:       strings.Repeat("é", 200),
		Description: strings.Repeat("ü", 1000),
	})
	assert.NoError(t, err)
}

func TestNoteListByOwner_NewestFirstAndScoped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := bson.NewObjectID().Hex()
	bob := bson.NewObjectID().Hex()

	for _, title := range []string{"first", "second", "third"} {
		_, err := f.noteUC.Create(ctx, alice, CreateNoteParams{Title: title, Description: "d"})
		require.NoError(t, err)
	}
	_, err := f.noteUC.Create(ctx, bob, CreateNoteParams{Title: "bob's", Description: "d"})
	require.NoError(t, err)

	notes, err := f.noteUC.ListByOwner(ctx, alice)
	require.NoError(t, err)
	require.Len(t, notes, 3)
	assert.Equal(t, "third", notes[0].Title)
	assert.Equal(t, "second", notes[1].Title)
	assert.Equal(t, "first", notes[2].Title)

	empty, err := f.noteUC.ListByOwner(ctx, bson.NewObjectID().Hex())
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestNoteUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := bson.NewObjectID().Hex()

	note, err := f.noteUC.Create(ctx, owner, CreateNoteParams{Title: "T", Description: "D"})
	require.NoError(t, err)

	updated, err := f.noteUC.Update(ctx, owner, note.ID.Hex(), UpdateNoteParams{Title: ptr(" T2 ")})
	require.NoError(t, err)
	assert.Equal(t, "T2", updated.Title)
	assert.Equal(t, "D", updated.Description)
	assert.Equal(t, note.CreatedAt, updated.CreatedAt)

	updated, err = f.noteUC.Update(ctx, owner, note.ID.Hex(), UpdateNoteParams{Description: ptr("D2")})
	require.NoError(t, err)
	assert.Equal(t, "T2", updated.Title)
	assert.Equal(t, "D2", updated.Description)
}

func TestNoteUpdate_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := bson.NewObjectID().Hex()
	intruder := bson.NewObjectID().Hex()

	note, err := f.noteUC.Create(ctx, owner, CreateNoteParams{Title: "T", Description: "D"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		ownerID string
		noteID  string
		params  UpdateNoteParams
		wantErr error
	}{
		{"no fields", owner, note.ID.Hex(), UpdateNoteParams{}, ErrNoFieldsToUpdate},
		{"blank title", owner, note.ID.Hex(), UpdateNoteParams{Title: ptr("  ")}, ErrInvalidInput},
		{"long description", owner, note.ID.Hex(), UpdateNoteParams{Description: ptr(strings.Repeat("d", 1001))}, ErrInvalidInput},
		{"other owner", intruder, note.ID.Hex(), UpdateNoteParams{Title: ptr("hacked")}, ErrNoteNotFound},
		{"missing note", owner, bson.NewObjectID().Hex(), UpdateNoteParams{Title: ptr("x")}, ErrNoteNotFound},
		{"malformed id", owner, "not-an-id", UpdateNoteParams{Title: ptr("x")}, ErrNoteNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.noteUC.Update(ctx, tc.ownerID, tc.noteID, tc.params)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}

	notes, err := f.noteUC.ListByOwner(ctx, owner)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "T", notes[0].Title)
	assert.Equal(t, "D", notes[0].Description)
}

func TestNoteDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := bson.NewObjectID().Hex()
	intruder := bson.NewObjectID().Hex()

	note, err := f.noteUC.Create(ctx, owner, CreateNoteParams{Title: "T", Description: "D"})
	require.NoError(t, err)

	assert.ErrorIs(t, f.noteUC.Delete(ctx, intruder, note.ID.Hex()), ErrNoteNotFound)
	assert.ErrorIs(t, f.noteUC.Delete(ctx, owner, "nope"), ErrNoteNotFound)

	require.NoError(t, f.noteUC.Delete(ctx, owner, note.ID.Hex()))
	assert.ErrorIs(t, f.noteUC.Delete(ctx, owner, note.ID.Hex()), ErrNoteNotFound)

	notes, err := f.noteUC.ListByOwner(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, notes)
}
