package service

import (
	"context"
	"errors"
	"time"

	"github.com/aliskhannn/flashcards-engine/internal/domain/entities"
)

// UserTimezones resolves a user's location from the stored profile. Unknown
// users and unparsable zones fall back to UTC.
type UserTimezones struct {
	users UserRepository
}

func NewUserTimezones(users UserRepository) *UserTimezones {
	return &UserTimezones{users: users}
}

func (t *UserTimezones) Location(ctx context.Context, userID int64) (*time.Location, error) {
	user, err := t.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, entities.ErrUserNotFound) {
			return time.UTC, nil
		}
		return nil, err
	}
	return user.Location(), nil
}
