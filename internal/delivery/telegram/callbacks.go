package telegram

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/aliskhannn/flashcards-engine/internal/domain/entities"
)

var errBadCallback = errors.New("malformed callback data")

func (h *Handler) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil || cb.From == nil {
		return
	}

	data := decodeCallback(cb.Data)
	var err error
	switch data.Action {
	case actionShow:
		err = h.handleShowCallback(ctx, cb, data)
	case actionRate:
		err = h.handleRateCallback(ctx, cb, data)
	case actionNext:
		err = h.showNextCard(ctx, cb.Message.Chat.ID, cb.From.ID, nil)
	case actionProgress:
		err = h.handleProgressCallback(ctx, cb)
	default:
		h.logger.Debug("unknown callback action", zap.String("data", cb.Data))
	}

	if err != nil {
		h.logger.Error("callback error",
			zap.Int64("user_id", cb.From.ID),
			zap.String("data", cb.Data),
			zap.Error(err),
		)
		_ = h.send(newPlainMessage(cb.Message.Chat.ID, msgInternalError))
	}

	// Remove the user's "clock".
	if _, err := h.sender.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		h.logger.Debug("callback answer error", zap.Error(err))
	}
}

// handleShowCallback reveals the back of the card with the rating buttons.
func (h *Handler) handleShowCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, data callbackData) error {
	cardID, ok := data.cardID()
	if !ok {
		return fmt.Errorf("%w: %q", errBadCallback, data.Raw)
	}

	now := h.now()
	preview, err := h.cards.PreviewCard(ctx, cb.From.ID, cardID, now)
	if err != nil {
		if errors.Is(err, entities.ErrCardNotFound) || errors.Is(err, entities.ErrUnauthorized) {
			return h.send(newPlainMessage(cb.Message.Chat.ID, msgCardUnavailable))
		}
		return err
	}

	edit := newEdit(cb.Message.Chat.ID, cb.Message.MessageID, formatCardAnswer(preview[entities.RatingGood].Content))
	kb := buildRatingKeyboard(cardID, preview, now)
	edit.ReplyMarkup = &kb
	return h.send(edit)
}

// handleRateCallback grades the card and moves on to the next one.
func (h *Handler) handleRateCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, data callbackData) error {
	cardID, ok := data.cardID()
	if !ok {
		return fmt.Errorf("%w: %q", errBadCallback, data.Raw)
	}
	rating, ok := data.rating()
	if !ok {
		return fmt.Errorf("%w: %q", errBadCallback, data.Raw)
	}

	chatID := cb.Message.Chat.ID
	now := h.now()
	res, err := h.grading.GradeCard(ctx, cb.From.ID, cardID, rating, now)
	switch {
	case errors.Is(err, entities.ErrConcurrencyConflict):
		return h.send(newPlainMessage(chatID, msgGradeConflict))
	case errors.Is(err, entities.ErrCardNotFound), errors.Is(err, entities.ErrUnauthorized):
		return h.send(newPlainMessage(chatID, msgCardUnavailable))
	case err != nil:
		return err
	}

	h.logger.Debug("card graded",
		zap.Int64("user_id", cb.From.ID),
		zap.String("card_id", cardID.String()),
		zap.Stringer("rating", rating),
		zap.Stringer("state", res.Card.State),
	)

	if err := h.send(newEdit(chatID, cb.Message.MessageID, formatGraded(res, now))); err != nil {
		return err
	}
	return h.showNextCard(ctx, chatID, cb.From.ID, &res.Card.DeckID)
}

func (h *Handler) handleProgressCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	view, err := h.progression.GetProgression(ctx, cb.From.ID, h.now())
	if err != nil {
		return err
	}

	edit := newEdit(cb.Message.Chat.ID, cb.Message.MessageID, formatProgression(view))
	kb := buildProgressKeyboard()
	edit.ReplyMarkup = &kb
	return h.send(edit)
}
