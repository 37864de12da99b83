package telegram

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"github.com/aliskhannn/flashcards-engine/internal/domain/entities"
	"github.com/aliskhannn/flashcards-engine/internal/domain/stats"
	"github.com/aliskhannn/flashcards-engine/internal/service"
)

// Sender is the part of *tgbotapi.BotAPI used to talk to chats.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type UserService interface {
	EnsureUser(ctx context.Context, userID, chatID int64) (*entities.User, error)
	SetTimezone(ctx context.Context, userID int64, tz string) error
	SetReminders(ctx context.Context, userID int64, enabled bool, hour int) error
}

type CardService interface {
	CreateCard(ctx context.Context, userID int64, deckID uuid.UUID, content entities.CardContent, now time.Time) (*entities.Card, error)
	GetDueCards(ctx context.Context, userID int64, deckID *uuid.UUID, now time.Time) ([]*entities.Card, error)
	PreviewCard(ctx context.Context, userID int64, cardID uuid.UUID, now time.Time) (map[entities.Rating]*entities.Card, error)
}

type GradingService interface {
	GradeCard(ctx context.Context, userID int64, cardID uuid.UUID, rating entities.Rating, now time.Time) (*service.GradeResult, error)
}

type StatsService interface {
	GetStats(ctx context.Context, userID int64, kind stats.Kind, w stats.Window) (*stats.View, error)
}

type ProgressionService interface {
	GetProgression(ctx context.Context, userID int64, now time.Time) (*service.ProgressionView, error)
}
