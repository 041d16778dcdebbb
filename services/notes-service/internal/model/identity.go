package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// IdentityProviderGoogle names identities verified with Google ID tokens.
const IdentityProviderGoogle = "google"

// Identity links an account to a subject of an external identity provider,
// so a returning sign-in resolves to the same account even after the
// provider-side email changes.
type Identity struct {
	ID          bson.ObjectID `bson:"_id,omitempty"`
	UserID      bson.ObjectID `bson:"user_id"`
	Provider    string        `bson:"provider"`
	Subject     string        `bson:"subject"`
	Email       string        `bson:"email"`
	LastLoginAt time.Time     `bson:"last_login_at"`
	CreatedAt   time.Time     `bson:"created_at"`
	UpdatedAt   time.Time     `bson:"updated_at"`
}
