package mesto

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// CardService holds the card operations and their access rules. Only the
// owner may delete a card; any authenticated caller may like it.
type CardService struct {
	Cards CardStore

	// Now stamps createdAt. Defaults to time.Now.
	Now func() time.Time
}

func NewCardService(cards CardStore) *CardService {
	return &CardService{Cards: cards, Now: time.Now}
}

// List returns every card. An empty collection is reported as NotFound.
func (s *CardService) List(ctx context.Context) ([]*Card, error) {
	cards, err := s.Cards.ListCards(ctx)
	if err != nil {
		return nil, Internal(err)
	}
	if len(cards) == 0 {
		return nil, NotFound(MsgNoCards)
	}
	return cards, nil
}

// Create stores a new card owned by the caller.
func (s *CardService) Create(ctx context.Context, id Identity, req CardRequest) (*Card, error) {
	if id.IsZero() {
		return nil, Unauthorized(MsgAuthRequired)
	}
	if err := Validate(req); err != nil {
		return nil, err
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	card := &Card{
		ID:        NewID(),
		Name:      req.Name,
		Link:      req.Link,
		Owner:     id.Subject(),
		Likes:     []ID{},
		CreatedAt: now().UTC(),
	}
	created, err := s.Cards.CreateCard(ctx, card)
	if err != nil {
		return nil, Internal(fmt.Errorf("creating card: %w", err))
	}
	return created, nil
}

// Delete removes the card if the caller owns it and returns what was removed.
func (s *CardService) Delete(ctx context.Context, id Identity, rawCardID string) (*Card, error) {
	if id.IsZero() {
		return nil, Unauthorized(MsgAuthRequired)
	}
	cardID, err := ParseID(rawCardID)
	if err != nil {
		return nil, err
	}

	card, err := s.Cards.GetCard(ctx, cardID)
	if err != nil {
		return nil, s.translate(err)
	}
	if card.Owner != id.Subject() {
		return nil, Forbidden(MsgForeignCard)
	}
	if err := s.Cards.DeleteCard(ctx, cardID); err != nil {
		// lost a race with another delete
		return nil, s.translate(err)
	}
	return card, nil
}

// Like adds the caller to the card's likes. Liking twice is a no-op.
func (s *CardService) Like(ctx context.Context, id Identity, rawCardID string) (*Card, error) {
	return s.toggle(ctx, id, rawCardID, s.Cards.AddLike)
}

// Dislike removes the caller from the card's likes.
func (s *CardService) Dislike(ctx context.Context, id Identity, rawCardID string) (*Card, error) {
	return s.toggle(ctx, id, rawCardID, s.Cards.RemoveLike)
}

func (s *CardService) toggle(ctx context.Context, id Identity, rawCardID string,
	op func(ctx context.Context, cardID, userID ID) (*Card, error)) (*Card, error) {
	if id.IsZero() {
		return nil, Unauthorized(MsgAuthRequired)
	}
	cardID, err := ParseID(rawCardID)
	if err != nil {
		return nil, err
	}
	card, err := op(ctx, cardID, id.Subject())
	if err != nil {
		return nil, s.translate(err)
	}
	return card, nil
}

func (s *CardService) translate(err error) error {
	if errors.Is(err, ErrNotFound) {
		return NotFound(MsgCardNotFound)
	}
	return Internal(err)
}
