package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Note is a personal text note. OwnerID never changes after creation.
type Note struct {
	ID          bson.ObjectID `bson:"_id,omitempty"`
	Title       string        `bson:"title"`
	Description string        `bson:"description"`
	OwnerID     bson.ObjectID `bson:"owner_id"`
	CreatedAt   time.Time     `bson:"created_at"`
	UpdatedAt   time.Time     `bson:"updated_at"`
}
