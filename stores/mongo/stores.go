// Package mongo implements the Mesto stores on MongoDB.
//
// Users live in the "users" collection with a unique index on email, cards
// in "cards". Like toggles are single $addToSet/$pull updates so concurrent
// likes never lose each other.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/panyam/mesto"
	"github.com/panyam/mesto/stores"
)

const (
	usersCollection = "users"
	cardsCollection = "cards"
)

// Connect dials uri and pings the primary, retrying with backoff for up to
// budget.
func Connect(ctx context.Context, logger *zap.Logger, uri string, budget time.Duration) (*mongo.Client, error) {
	return stores.Connect(ctx, logger, "mongo", budget, func(ctx context.Context) (*mongo.Client, error) {
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
		if err != nil {
			return nil, err
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		return client, nil
	})
}

// EnsureIndexes creates the unique email index.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique"),
	})
	if err != nil {
		return fmt.Errorf("creating email index: %w", err)
	}
	return nil
}

// UserStore implements mesto.UserStore.
type UserStore struct {
	coll *mongo.Collection
}

func NewUserStore(db *mongo.Database) *UserStore {
	return &UserStore{coll: db.Collection(usersCollection)}
}

func (s *UserStore) CreateUser(ctx context.Context, user *mesto.User) (*mesto.User, error) {
	if user.ID.IsZero() {
		user.ID = mesto.NewID()
	}
	oid, err := objectID(user.ID)
	if err != nil {
		return nil, err
	}
	doc := &userDoc{
		ID:       oid,
		Name:     user.Name,
		About:    user.About,
		Avatar:   user.Avatar,
		Email:    user.Email,
		Password: user.PasswordHash,
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("email %q: %w", user.Email, mesto.ErrDuplicate)
		}
		return nil, err
	}
	return doc.toUser(false), nil
}

func (s *UserStore) findOne(ctx context.Context, filter bson.D, what string) (*userDoc, error) {
	var doc userDoc
	if err := s.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("user %s: %w", what, mesto.ErrNotFound)
		}
		return nil, err
	}
	return &doc, nil
}

func (s *UserStore) GetUserByID(ctx context.Context, id mesto.ID) (*mesto.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	doc, err := s.findOne(ctx, bson.D{{Key: "_id", Value: oid}}, id.String())
	if err != nil {
		return nil, err
	}
	return doc.toUser(false), nil
}

func (s *UserStore) GetUserByEmail(ctx context.Context, email string) (*mesto.User, error) {
	doc, err := s.findOne(ctx, bson.D{{Key: "email", Value: email}}, fmt.Sprintf("%q", email))
	if err != nil {
		return nil, err
	}
	return doc.toUser(true), nil
}

func (s *UserStore) ListUsers(ctx context.Context) ([]*mesto.User, error) {
	cur, err := s.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*mesto.User, len(docs))
	for i := range docs {
		out[i] = docs[i].toUser(false)
	}
	return out, nil
}

func (s *UserStore) UpdateUser(ctx context.Context, id mesto.ID, update mesto.ProfileUpdate) (*mesto.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	set := bson.D{}
	if update.Name != nil {
		set = append(set, bson.E{Key: "name", Value: *update.Name})
	}
	if update.About != nil {
		set = append(set, bson.E{Key: "about", Value: *update.About})
	}
	if update.Avatar != nil {
		set = append(set, bson.E{Key: "avatar", Value: *update.Avatar})
	}
	if len(set) == 0 {
		return s.GetUserByID(ctx, id)
	}

	var doc userDoc
	err = s.coll.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: oid}},
		bson.D{{Key: "$set", Value: set}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("user %s: %w", id, mesto.ErrNotFound)
	} else if err != nil {
		return nil, err
	}
	return doc.toUser(false), nil
}

// CardStore implements mesto.CardStore.
type CardStore struct {
	coll *mongo.Collection
}

func NewCardStore(db *mongo.Database) *CardStore {
	return &CardStore{coll: db.Collection(cardsCollection)}
}

func (s *CardStore) CreateCard(ctx context.Context, card *mesto.Card) (*mesto.Card, error) {
	if card.ID.IsZero() {
		card.ID = mesto.NewID()
	}
	oid, err := objectID(card.ID)
	if err != nil {
		return nil, err
	}
	owner, err := objectID(card.Owner)
	if err != nil {
		return nil, err
	}
	doc := &cardDoc{
		ID:        oid,
		Name:      card.Name,
		Link:      card.Link,
		Owner:     owner,
		Likes:     []primitive.ObjectID{},
		CreatedAt: card.CreatedAt,
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return nil, err
	}
	return doc.toCard(), nil
}

func (s *CardStore) GetCard(ctx context.Context, id mesto.ID) (*mesto.Card, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var doc cardDoc
	if err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("card %s: %w", id, mesto.ErrNotFound)
		}
		return nil, err
	}
	return doc.toCard(), nil
}

func (s *CardStore) ListCards(ctx context.Context) ([]*mesto.Card, error) {
	cur, err := s.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []cardDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*mesto.Card, len(docs))
	for i := range docs {
		out[i] = docs[i].toCard()
	}
	return out, nil
}

func (s *CardStore) DeleteCard(ctx context.Context, id mesto.ID) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := s.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("card %s: %w", id, mesto.ErrNotFound)
	}
	return nil
}

func (s *CardStore) AddLike(ctx context.Context, cardID, userID mesto.ID) (*mesto.Card, error) {
	return s.updateLikes(ctx, cardID, userID, "$addToSet")
}

func (s *CardStore) RemoveLike(ctx context.Context, cardID, userID mesto.ID) (*mesto.Card, error) {
	return s.updateLikes(ctx, cardID, userID, "$pull")
}

func (s *CardStore) updateLikes(ctx context.Context, cardID, userID mesto.ID, op string) (*mesto.Card, error) {
	cid, err := objectID(cardID)
	if err != nil {
		return nil, err
	}
	uid, err := objectID(userID)
	if err != nil {
		return nil, err
	}
	var doc cardDoc
	err = s.coll.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: cid}},
		bson.D{{Key: op, Value: bson.D{{Key: "likes", Value: uid}}}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("card %s: %w", cardID, mesto.ErrNotFound)
	} else if err != nil {
		return nil, err
	}
	return doc.toCard(), nil
}
