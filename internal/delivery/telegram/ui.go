package telegram

import (
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"github.com/aliskhannn/flashcards-engine/internal/domain/entities"
)

// buildRevealKeyboard builds the single button under a card's front side.
func buildRevealKeyboard(cardID uuid.UUID) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👀 Показать ответ", buildShowCallback(cardID)),
		),
	)
}

// buildRatingKeyboard builds the rating buttons, each labelled with the
// interval it would schedule.
func buildRatingKeyboard(cardID uuid.UUID, preview map[entities.Rating]*entities.Card, now time.Time) tgbotapi.InlineKeyboardMarkup {
	var row []tgbotapi.InlineKeyboardButton
	for _, r := range entities.Ratings {
		label := ratingLabel(r)
		if next, ok := preview[r]; ok {
			label = fmt.Sprintf("%s · %s", label, formatInterval(next.DueAt.Sub(now)))
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, buildRateCallback(cardID, r)))
	}

	return tgbotapi.NewInlineKeyboardMarkup(row[:2], row[2:])
}

// buildProgressKeyboard builds keyboard for progress screen.
func buildProgressKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 Обновить", buildProgressCallback()),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📚 Повторять", buildNextCallback()),
		),
	)
}

// buildStudyKeyboard builds keyboard attached to due-card reminders.
func buildStudyKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📚 Начать повторение", buildNextCallback()),
		),
	)
}
