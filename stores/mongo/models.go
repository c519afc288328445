package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/panyam/mesto"
)

// userDoc is a document in the users collection.
type userDoc struct {
	ID       primitive.ObjectID `bson:"_id"`
	Name     string             `bson:"name"`
	About    string             `bson:"about"`
	Avatar   string             `bson:"avatar"`
	Email    string             `bson:"email"`
	Password string             `bson:"password"`
}

func (d *userDoc) toUser(withHash bool) *mesto.User {
	u := &mesto.User{
		ID:     mesto.ID(d.ID.Hex()),
		Name:   d.Name,
		About:  d.About,
		Avatar: d.Avatar,
		Email:  d.Email,
	}
	if withHash {
		u.PasswordHash = d.Password
	}
	return u
}

// cardDoc is a document in the cards collection. Likes is a set maintained
// with $addToSet and $pull.
type cardDoc struct {
	ID        primitive.ObjectID   `bson:"_id"`
	Name      string               `bson:"name"`
	Link      string               `bson:"link"`
	Owner     primitive.ObjectID   `bson:"owner"`
	Likes     []primitive.ObjectID `bson:"likes"`
	CreatedAt time.Time            `bson:"createdAt"`
}

func (d *cardDoc) toCard() *mesto.Card {
	c := &mesto.Card{
		ID:        mesto.ID(d.ID.Hex()),
		Name:      d.Name,
		Link:      d.Link,
		Owner:     mesto.ID(d.Owner.Hex()),
		Likes:     make([]mesto.ID, 0, len(d.Likes)),
		CreatedAt: d.CreatedAt,
	}
	for _, l := range d.Likes {
		c.Likes = append(c.Likes, mesto.ID(l.Hex()))
	}
	return c
}

// objectID converts a canonical id. Ids reaching the store have already
// passed mesto.ParseID, so a failure here means a programming error.
func objectID(id mesto.ID) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(id.String())
}
