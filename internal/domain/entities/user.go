package entities

import "time"

// DefaultReminderHour is the local hour at which due-card reminders are sent.
const DefaultReminderHour = 9

// User is the study account as seen by the engine.
type User struct {
	ID               int64 // Telegram user ID
	ChatID           int64
	Timezone         string // IANA name or UTC offset, see ParseTimezoneLocation
	RemindersEnabled bool
	ReminderHour     int // local hour, 0-23
	CreatedAt        time.Time
}

func NewUser(id, chatID int64) *User {
	return &User{
		ID:               id,
		ChatID:           chatID,
		Timezone:         "UTC",
		RemindersEnabled: true,
		ReminderHour:     DefaultReminderHour,
		CreatedAt:        time.Now().UTC(),
	}
}

// Location resolves the user's timezone, falling back to UTC.
func (u *User) Location() *time.Location {
	loc, err := ParseTimezoneLocation(u.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
