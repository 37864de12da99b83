// messages.go contains message templates and formatting functions for Telegram.

package telegram

import (
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aliskhannn/flashcards-engine/internal/domain/entities"
	"github.com/aliskhannn/flashcards-engine/internal/domain/progression"
	"github.com/aliskhannn/flashcards-engine/internal/domain/stats"
	"github.com/aliskhannn/flashcards-engine/internal/service"
)

// Error and hint messages.
const (
	msgUseAdd          = "Используйте: /add передняя сторона | обратная сторона\nКолода указывается так: /add #english cat | кошка"
	msgUseStats        = "Используйте: /stats heatmap | accuracy | retention | forecast"
	msgUseTimezone     = "Используйте: /timezone Europe/Moscow или /timezone UTC+3"
	msgInvalidTimezone = "Не удалось распознать часовой пояс. Пример: Europe/Moscow или UTC+3."
	msgUseReminders    = "Используйте: /reminders on, /reminders off или /reminders 9 (час от 0 до 23)."
	msgNoDueCards      = "На сейчас карточек для повторения нет 🎉\nДобавьте новые через /add или загляните позже."
	msgCardUnavailable = "Карточка недоступна. Откройте следующую через /due."
	msgGradeConflict   = "Карточку только что оценили в другом окне. Откройте её снова через /due."
	msgInternalError   = "Что‑то пошло не так. Попробуйте позже."
	msgUnknownCommand  = "Неизвестная команда. Список доступных команд:\n\n/add — добавить карточку\n/due — повторять карточки\n/stats — статистика\n/progress — уровень, серия и задания\n/timezone — часовой пояс\n/reminders — напоминания"
)

// md escapes plain text for MarkdownV2.
func md(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdownV2, s)
}

func bold(s string) string {
	return "*" + md(s) + "*"
}

// newMessage creates a message with MarkdownV2 parse mode.
func newMessage(chatID int64, text string) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	return msg
}

// newPlainMessage creates a plain message without MarkdownV2 parse mode.
func newPlainMessage(chatID int64, text string) tgbotapi.MessageConfig {
	return tgbotapi.NewMessage(chatID, text)
}

// newEdit creates an edit with MarkdownV2 parse mode.
func newEdit(chatID int64, msgID int, text string) tgbotapi.EditMessageTextConfig {
	edit := tgbotapi.NewEditMessageText(chatID, msgID, text)
	edit.ParseMode = tgbotapi.ModeMarkdownV2
	return edit
}

// welcomeMarkdownV2 builds welcome message safely for MarkdownV2.
func welcomeMarkdownV2() string {
	var sb strings.Builder

	sb.WriteString(bold("Flashcards"))
	sb.WriteString(md(" помогает запоминать что угодно с помощью интервальных повторений."))
	sb.WriteString("\n\n")

	sb.WriteString(md("Чтобы начать:"))
	sb.WriteString("\n\n")
	sb.WriteString(md("1. Добавьте карточку: /add cat | кошка"))
	sb.WriteString("\n")
	sb.WriteString(md("2. Повторяйте то, что пора повторить: /due"))
	sb.WriteString("\n")
	sb.WriteString(md("3. Оценивайте ответ честно: «Снова», «Трудно», «Хорошо» или «Легко»."))
	sb.WriteString("\n\n")

	sb.WriteString(md("📊 /stats и /progress покажут статистику, уровень и серию дней."))
	sb.WriteString("\n")
	sb.WriteString(md("⏰ /timezone и /reminders настроят ежедневные напоминания."))

	return sb.String()
}

// ratingLabel returns the button label of a rating.
func ratingLabel(r entities.Rating) string {
	switch r {
	case entities.RatingAgain:
		return "🔁 Снова"
	case entities.RatingHard:
		return "😓 Трудно"
	case entities.RatingGood:
		return "👍 Хорошо"
	case entities.RatingEasy:
		return "🚀 Легко"
	default:
		return r.String()
	}
}

// formatInterval renders the time until the next review.
func formatInterval(d time.Duration) string {
	switch {
	case d < time.Hour:
		return fmt.Sprintf("%d мин", max(1, int(d.Round(time.Minute)/time.Minute)))
	case d < 24*time.Hour:
		return fmt.Sprintf("%d ч", int(d.Round(time.Hour)/time.Hour))
	default:
		return fmt.Sprintf("%d дн", int(d.Round(24*time.Hour)/(24*time.Hour)))
	}
}

func formatCardCreated(deck string) string {
	if deck == "" {
		deck = defaultDeck
	}
	return md("✅ Карточка добавлена в колоду ") + bold(deck) + md(". Повторить: /due")
}

func formatCardFront(card *entities.Card, remaining int) string {
	return fmt.Sprintf("%s\n\n%s\n\n%s",
		md(fmt.Sprintf("📚 К повторению: %d", remaining)),
		bold(card.Content.Front),
		md("Вспомните ответ и нажмите кнопку."),
	)
}

func formatCardAnswer(content entities.CardContent) string {
	return fmt.Sprintf("%s\n\n%s\n\n%s",
		bold(content.Front),
		md(content.Back),
		md("Насколько легко было вспомнить?"),
	)
}

// formatGraded renders the card after grading, with the XP it earned.
func formatGraded(res *service.GradeResult, now time.Time) string {
	var sb strings.Builder
	sb.WriteString(bold(res.Card.Content.Front))
	sb.WriteString("\n")
	sb.WriteString(md(res.Card.Content.Back))
	sb.WriteString("\n\n")
	sb.WriteString(md(fmt.Sprintf("%s · следующий показ через %s",
		ratingLabel(res.LogEntry.Rating), formatInterval(res.Card.DueAt.Sub(now)))))

	if res.Progression != nil && res.Progression.XPGained > 0 {
		sb.WriteString("\n")
		sb.WriteString(md(fmt.Sprintf("✨ +%d XP", res.Progression.XPGained)))
	}
	return sb.String()
}

// formatDelta renders a progression notification.
func formatDelta(d progression.Delta) string {
	var lines []string
	for _, l := range d.LevelsCrossed {
		lines = append(lines, bold(fmt.Sprintf("🎉 Новый уровень: %d!", l)))
	}
	for _, t := range d.CompletedTasks {
		lines = append(lines, md(fmt.Sprintf("✅ Задание дня «%s» выполнено: +%d XP", taskTitle(t), t.XPReward)))
	}
	for _, a := range d.Unlocked {
		lines = append(lines, md(fmt.Sprintf("🏆 Достижение «%s»: +%d XP", a.Title, a.XPReward)))
	}
	if d.StreakChanged && d.Streak.CurrentStreak > 1 {
		lines = append(lines, md(fmt.Sprintf("🔥 Серия: %d дн. подряд", d.Streak.CurrentStreak)))
	}
	lines = append(lines, md(fmt.Sprintf("Уровень %d · %d XP", d.Level, d.TotalXP)))
	return strings.Join(lines, "\n")
}

// formatDueReminder renders the daily reminder.
func formatDueReminder(day stats.ForecastDay) string {
	return fmt.Sprintf("%s\n\n%s",
		bold(fmt.Sprintf("⏰ Сегодня к повторению: %d", day.Total)),
		md(fmt.Sprintf("Новых: %d · изучаемых: %d · на повторении: %d\nЭто займёт около %d мин.",
			day.New, day.Learning+day.Relearning, day.Review, day.EstimatedMinutes)),
	)
}

func formatReminders(enabled bool, hour int) string {
	if !enabled {
		return md("🔕 Напоминания выключены. Включить: /reminders on")
	}
	return md(fmt.Sprintf("🔔 Напоминания включены, каждый день в %02d:00 по вашему времени.", hour))
}

func taskTitle(t entities.DailyTask) string {
	switch t.Kind {
	case entities.TaskReviewCount:
		return fmt.Sprintf("повторить %d карточек", t.Target)
	case entities.TaskCorrectCount:
		return fmt.Sprintf("%d правильных ответов", t.Target)
	case entities.TaskAccuracy:
		return fmt.Sprintf("точность %.0f%% на %d карточках", t.MinAccuracy*100, t.Target)
	default:
		return t.Key
	}
}

func formatProgression(v *service.ProgressionView) string {
	var sb strings.Builder
	sb.WriteString(bold("📊 Ваш прогресс"))
	sb.WriteString("\n\n")
	sb.WriteString(md(fmt.Sprintf("⭐ Уровень %d · %d XP (до следующего: %d XP)", v.Level, v.TotalXP, v.NextLevelXP-v.TotalXP)))
	sb.WriteString("\n")
	sb.WriteString(md(buildProgressBar(int(v.Progress), 100, 20)))
	sb.WriteString("\n\n")
	sb.WriteString(md(fmt.Sprintf("🔥 Серия: %d дн. (рекорд: %d)", v.CurrentStreak, v.LongestStreak)))
	sb.WriteString("\n")
	sb.WriteString(md(fmt.Sprintf("🎯 Точность: %.1f%% (%d из %d)", v.Accuracy*100, v.CorrectReviews, v.TotalReviews)))

	if len(v.Tasks) > 0 {
		sb.WriteString("\n\n")
		sb.WriteString(bold("Задания на сегодня"))
		for _, t := range v.Tasks {
			mark := "▫️"
			if t.Completed {
				mark = "✅"
			}
			sb.WriteString("\n")
			sb.WriteString(md(fmt.Sprintf("%s %s (%d/%d)", mark, taskTitle(t), min(t.Progress, t.Target), t.Target)))
		}
	}

	if len(v.Achievements) > 0 {
		sb.WriteString("\n\n")
		sb.WriteString(md(fmt.Sprintf("🏆 Достижений: %d", len(v.Achievements))))
	}
	return sb.String()
}

// formatStats renders any stats view.
func formatStats(v *stats.View) string {
	var sb strings.Builder
	switch v.Kind {
	case stats.KindHeatmap:
		total, best := 0, stats.HeatmapDay{}
		for _, d := range v.Heatmap {
			total += d.Count
			if d.Count > best.Count {
				best = d
			}
		}
		sb.WriteString(bold(fmt.Sprintf("🗓 Активность за %d дн.", v.Window.Days)))
		sb.WriteString("\n\n")
		sb.WriteString(md(fmt.Sprintf("Повторений: %d\nДней с занятиями: %d", total, len(v.Heatmap))))
		if best.Count > 0 {
			sb.WriteString("\n")
			sb.WriteString(md(fmt.Sprintf("Лучший день: %s (%d)", best.Date.Format("02.01.2006"), best.Count)))
		}

	case stats.KindAccuracy:
		sb.WriteString(bold(fmt.Sprintf("🎯 Точность за %d дн.", v.Window.Days)))
		sb.WriteString("\n")
		for _, d := range v.Accuracy {
			if d.ReviewCount == 0 {
				continue
			}
			sb.WriteString("\n")
			sb.WriteString(md(fmt.Sprintf("%s: %.0f%% (%d/%d)", d.Date.Format("02.01"), d.Accuracy*100, d.CorrectCount, d.ReviewCount)))
		}

	case stats.KindRetention:
		sb.WriteString(bold(fmt.Sprintf("🧠 Удержание за %d дн.", v.Window.Days)))
		sb.WriteString("\n")
		for _, b := range v.Retention {
			label := "интервал до недели"
			if b.Bucket == stats.Bucket7d {
				label = "интервал от недели"
			}
			sb.WriteString("\n")
			sb.WriteString(md(fmt.Sprintf("%s: %.0f%% (%d/%d)", label, b.Retention*100, b.Correct, b.Reviews)))
		}

	case stats.KindForecast:
		sb.WriteString(bold(fmt.Sprintf("📅 Прогноз на %d дн.", v.Window.Days)))
		sb.WriteString("\n")
		for _, d := range v.Forecast {
			sb.WriteString("\n")
			sb.WriteString(md(fmt.Sprintf("%s: %d карт. (~%d мин)", d.Date.Format("02.01"), d.Total, d.EstimatedMinutes)))
		}
	}

	if v.Stale {
		sb.WriteString("\n\n")
		sb.WriteString(md("⚠️ Данные могут быть устаревшими."))
	}
	return sb.String()
}

// buildProgressBar creates ASCII progress bar.
func buildProgressBar(current, total, length int) string {
	if total == 0 {
		return "[" + strings.Repeat("░", length) + "]"
	}

	filled := min(length, int(float64(current)/float64(total)*float64(length)))
	filled = max(0, filled)
	empty := length - filled

	bar := strings.Repeat("█", filled) + strings.Repeat("░", empty)
	return fmt.Sprintf("[%s]", bar)
}
