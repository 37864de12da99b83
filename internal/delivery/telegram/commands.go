package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aliskhannn/flashcards-engine/internal/domain/entities"
	"github.com/aliskhannn/flashcards-engine/internal/domain/stats"
)

// deckNamespace derives stable deck IDs from a user and a deck name.
var deckNamespace = uuid.MustParse("6f1c8a52-3b1e-4f0a-9d55-2c7e0b8f4a11")

const defaultDeck = "default"

// deckID returns the ID of the user's deck called name.
func deckID(userID int64, name string) uuid.UUID {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = defaultDeck
	}
	return uuid.NewSHA1(deckNamespace, []byte(fmt.Sprintf("%d:%s", userID, name)))
}

// splitDeck splits a leading "#deck" token off args.
func splitDeck(args string) (deck, rest string) {
	args = strings.TrimSpace(args)
	if !strings.HasPrefix(args, "#") {
		return "", args
	}
	deck, rest, _ = strings.Cut(args[1:], " ")
	return deck, strings.TrimSpace(rest)
}

// parseCardText parses "front | back".
func parseCardText(s string) (front, back string, ok bool) {
	front, back, found := strings.Cut(s, "|")
	front, back = strings.TrimSpace(front), strings.TrimSpace(back)
	if !found || front == "" || back == "" {
		return "", "", false
	}
	return front, back, true
}

// handleAdd creates a card from "/add [#deck] front | back".
func (h *Handler) handleAdd(userID int64, args string) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		deck, rest := splitDeck(args)
		front, back, ok := parseCardText(rest)
		if !ok {
			return h.send(newPlainMessage(chatID, msgUseAdd))
		}

		card, err := h.cards.CreateCard(ctx, userID, deckID(userID, deck), entities.CardContent{Front: front, Back: back}, h.now())
		if err != nil {
			return err
		}

		h.logger.Info("card created",
			zap.Int64("user_id", userID),
			zap.String("card_id", card.ID.String()),
			zap.String("deck", deck),
		)
		return h.send(newMessage(chatID, formatCardCreated(deck)))
	}
}

// handleDue shows the first due card, optionally from "/due #deck".
func (h *Handler) handleDue(userID int64, args string) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		var filter *uuid.UUID
		if deck, _ := splitDeck(args); deck != "" {
			id := deckID(userID, deck)
			filter = &id
		}
		return h.showNextCard(ctx, chatID, userID, filter)
	}
}

func (h *Handler) showNextCard(ctx context.Context, chatID, userID int64, deck *uuid.UUID) error {
	due, err := h.cards.GetDueCards(ctx, userID, deck, h.now())
	if err != nil {
		return err
	}
	if len(due) == 0 {
		return h.send(newPlainMessage(chatID, msgNoDueCards))
	}

	card := due[0]
	msg := newMessage(chatID, formatCardFront(card, len(due)))
	msg.ReplyMarkup = buildRevealKeyboard(card.ID)
	return h.send(msg)
}

// handleStats renders one stats view, "/stats [kind]".
func (h *Handler) handleStats(userID int64, args string) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		name := strings.TrimSpace(args)
		if name == "" {
			name = string(stats.KindHeatmap)
		}
		kind, err := stats.ParseKind(name)
		if err != nil {
			return h.send(newPlainMessage(chatID, msgUseStats))
		}

		view, err := h.stats.GetStats(ctx, userID, kind, stats.Window{Now: h.now()})
		if err != nil {
			return err
		}
		return h.send(newMessage(chatID, formatStats(view)))
	}
}

func (h *Handler) handleProgress(userID int64) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		view, err := h.progression.GetProgression(ctx, userID, h.now())
		if err != nil {
			return err
		}
		msg := newMessage(chatID, formatProgression(view))
		msg.ReplyMarkup = buildProgressKeyboard()
		return h.send(msg)
	}
}

// handleTimezone stores the zone from "/timezone Europe/Moscow" or "/timezone UTC+3".
func (h *Handler) handleTimezone(userID int64, args string) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		tz := strings.TrimSpace(args)
		if tz == "" {
			return h.send(newPlainMessage(chatID, msgUseTimezone))
		}

		if err := h.users.SetTimezone(ctx, userID, tz); err != nil {
			if errors.Is(err, entities.ErrPersistenceFailure) || errors.Is(err, entities.ErrUserNotFound) {
				return err
			}
			return h.send(newPlainMessage(chatID, msgInvalidTimezone))
		}
		return h.send(newMessage(chatID, md(fmt.Sprintf("🕒 Часовой пояс сохранён: %s", tz))))
	}
}

// handleReminders handles "/reminders on|off|<hour>".
func (h *Handler) handleReminders(userID, chatID int64, args string) HandlerFunc {
	return func(ctx context.Context, _ int64) error {
		user, err := h.users.EnsureUser(ctx, userID, chatID)
		if err != nil {
			return err
		}

		enabled, hour := user.RemindersEnabled, user.ReminderHour
		switch arg := strings.ToLower(strings.TrimSpace(args)); arg {
		case "":
			return h.send(newMessage(chatID, formatReminders(enabled, hour)))
		case "on":
			enabled = true
		case "off":
			enabled = false
		default:
			n, err := strconv.Atoi(arg)
			if err != nil || n < 0 || n > 23 {
				return h.send(newPlainMessage(chatID, msgUseReminders))
			}
			enabled, hour = true, n
		}

		if err := h.users.SetReminders(ctx, userID, enabled, hour); err != nil {
			return err
		}
		return h.send(newMessage(chatID, formatReminders(enabled, hour)))
	}
}
