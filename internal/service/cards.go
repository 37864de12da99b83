package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/aliskhannn/flashcards-engine/internal/domain/entities"
	"github.com/aliskhannn/flashcards-engine/internal/domain/srs"
)

// CardService creates cards and lists what is due.
type CardService struct {
	store     Store
	scheduler *srs.Scheduler
}

func NewCardService(store Store, scheduler *srs.Scheduler) *CardService {
	return &CardService{store: store, scheduler: scheduler}
}

// CreateCard adds a new card to a deck, due immediately.
func (s *CardService) CreateCard(
	ctx context.Context,
	userID int64,
	deckID uuid.UUID,
	content entities.CardContent,
	now time.Time,
) (*entities.Card, error) {
	card := s.scheduler.NewCard(userID, deckID, content, now)
	if err := s.store.Cards().Create(ctx, card); err != nil {
		return nil, persistenceError("create card", err)
	}
	return card, nil
}

// GetDueCards returns the user's due cards, optionally from one deck, ordered
// by due time and then card ID.
func (s *CardService) GetDueCards(ctx context.Context, userID int64, deckID *uuid.UUID, now time.Time) ([]*entities.Card, error) {
	cards, err := s.store.Cards().ListDue(ctx, userID, deckID, now)
	if err != nil {
		return nil, persistenceError("get due cards", err)
	}
	return cards, nil
}

// PreviewCard shows what each rating would do to the card without saving.
func (s *CardService) PreviewCard(ctx context.Context, userID int64, cardID uuid.UUID, now time.Time) (map[entities.Rating]*entities.Card, error) {
	card, err := s.store.Cards().Get(ctx, cardID)
	if err != nil {
		return nil, persistenceError("preview card", err)
	}
	if card.UserID != userID {
		return nil, persistenceError("preview card", entities.ErrUnauthorized)
	}
	return s.scheduler.Preview(card, now)
}
