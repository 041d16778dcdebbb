package repository

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// ErrInvalidObjectID is returned when an identifier is not a valid ObjectID hex string.
var ErrInvalidObjectID = errors.New("invalid object id")

func parseObjectID(id string) (bson.ObjectID, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return bson.ObjectID{}, fmt.Errorf("%w: %q", ErrInvalidObjectID, id)
	}

	return objectID, nil
}
