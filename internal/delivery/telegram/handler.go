package telegram

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Services groups what the handler needs from the service layer.
type Services struct {
	Users       UserService
	Cards       CardService
	Grading     GradingService
	Stats       StatsService
	Progression ProgressionService
}

type Handler struct {
	bot         *tgbotapi.BotAPI
	sender      Sender
	logger      *zap.Logger
	users       UserService
	cards       CardService
	grading     GradingService
	stats       StatsService
	progression ProgressionService
	now         func() time.Time
}

func NewHandler(bot *tgbotapi.BotAPI, logger *zap.Logger, services Services) *Handler {
	h := newHandler(bot, logger, services)
	h.bot = bot
	return h
}

func newHandler(sender Sender, logger *zap.Logger, services Services) *Handler {
	return &Handler{
		sender:      sender,
		logger:      logger,
		users:       services.Users,
		cards:       services.Cards,
		grading:     services.Grading,
		stats:       services.Stats,
		progression: services.Progression,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Run polls for updates until ctx is cancelled.
func (h *Handler) Run(ctx context.Context) error {
	h.logger.Info("telegram handler started")
	defer h.logger.Info("telegram handler stopped")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := h.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			h.bot.StopReceivingUpdates()
			return nil
		case update := <-updates:
			h.handleUpdate(ctx, update)
		}
	}
}

func (h *Handler) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		h.logger.Debug("callback received",
			zap.Int64("user_id", update.CallbackQuery.From.ID),
			zap.String("data", update.CallbackQuery.Data),
		)
		h.handleCallback(ctx, update.CallbackQuery)
		return
	}

	if update.Message == nil || update.Message.From == nil {
		h.logger.Debug("update without message and callback")
		return
	}

	h.logger.Debug("update received",
		zap.Int64("chat_id", update.Message.Chat.ID),
		zap.String("text", update.Message.Text),
	)

	from := update.Message.From
	chatID := update.Message.Chat.ID
	if _, err := h.users.EnsureUser(ctx, from.ID, chatID); err != nil {
		h.logger.Error("failed to ensure user",
			zap.Int64("user_id", from.ID),
			zap.Error(err),
		)
	}

	if !update.Message.IsCommand() {
		_ = h.send(newPlainMessage(chatID, msgUnknownCommand))
		return
	}

	args := update.Message.CommandArguments()
	switch update.Message.Command() {
	case "start", "help":
		_ = h.send(newMessage(chatID, welcomeMarkdownV2()))

	case "add":
		_ = h.withErrorHandling(h.handleAdd(from.ID, args))(ctx, chatID)

	case "due":
		_ = h.withErrorHandling(h.handleDue(from.ID, args))(ctx, chatID)

	case "stats":
		_ = h.withErrorHandling(h.handleStats(from.ID, args))(ctx, chatID)

	case "progress":
		_ = h.withErrorHandling(h.handleProgress(from.ID))(ctx, chatID)

	case "timezone":
		_ = h.withErrorHandling(h.handleTimezone(from.ID, args))(ctx, chatID)

	case "reminders":
		_ = h.withErrorHandling(h.handleReminders(from.ID, chatID, args))(ctx, chatID)

	default:
		_ = h.send(newPlainMessage(chatID, msgUnknownCommand))
	}
}

func (h *Handler) send(c tgbotapi.Chattable) error {
	if _, err := h.sender.Send(c); err != nil {
		h.logger.Error("failed to send telegram message",
			zap.Error(err),
		)
		return err
	}
	return nil
}
