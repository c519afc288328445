package mesto

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ID is the canonical identifier of users and cards. It is the 24 character
// lowercase hex form of a document-store object id, whatever store backs it.
type ID string

// NewID mints a fresh identifier.
func NewID() ID {
	return ID(primitive.NewObjectID().Hex())
}

// ParseID normalises s and checks that it is a well formed identifier.
func ParseID(s string) (ID, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if _, err := primitive.ObjectIDFromHex(s); err != nil {
		return "", BadRequest("Передан некорректный _id.")
	}
	return ID(s), nil
}

func (id ID) String() string { return string(id) }

// IsZero reports whether id is unset.
func (id ID) IsZero() bool { return id == "" }
