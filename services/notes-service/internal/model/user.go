package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// User represents an account of the notes service. An account stays
// unverified until the emailed verification code is confirmed.
type User struct {
	ID                        bson.ObjectID `bson:"_id,omitempty"`
	Name                      string        `bson:"name"`
	Email                     string        `bson:"email"`
	PasswordHash              string        `bson:"password_hash"`
	Verified                  bool          `bson:"verified"`
	VerificationCode          string        `bson:"verification_code,omitempty"`
	VerificationCodeExpiresAt *time.Time    `bson:"verification_code_expires_at,omitempty"`
	VerificationAttempts      int           `bson:"verification_attempts,omitempty"`
	CreatedAt                 time.Time     `bson:"created_at"`
	UpdatedAt                 time.Time     `bson:"updated_at"`
}
