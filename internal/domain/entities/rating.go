package entities

import (
	"fmt"
	"strconv"
	"strings"
)

// Rating is the user's self-assessed recall quality.
type Rating int

const (
	RatingAgain Rating = iota + 1 // failed to recall
	RatingHard                    // recalled with significant effort
	RatingGood                    // recalled with some effort
	RatingEasy                    // recalled effortlessly
)

var ratingNames = [...]string{RatingAgain: "again", RatingHard: "hard", RatingGood: "good", RatingEasy: "easy"}

// Ratings lists every valid rating in ascending order.
var Ratings = []Rating{RatingAgain, RatingHard, RatingGood, RatingEasy}

// IsValid reports whether r is one of again, hard, good or easy.
func (r Rating) IsValid() bool {
	return r >= RatingAgain && r <= RatingEasy
}

// IsCorrect reports whether the rating counts as a correct answer (good or easy).
func (r Rating) IsCorrect() bool {
	return r >= RatingGood
}

func (r Rating) String() string {
	if r.IsValid() {
		return ratingNames[r]
	}
	return fmt.Sprintf("Rating(%d)", int(r))
}

// MarshalText implements encoding.TextMarshaler.
func (r Rating) MarshalText() ([]byte, error) {
	if !r.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRating, int(r))
	}
	return []byte(ratingNames[r]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
// It accepts both names ("good") and numbers ("3").
func (r *Rating) UnmarshalText(text []byte) error {
	parsed, err := ParseRating(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// ParseRating parses a rating name or its numeric value.
func ParseRating(s string) (Rating, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, r := range Ratings {
		if ratingNames[r] == s {
			return r, nil
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil || !Rating(n).IsValid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidRating, s)
	}
	return Rating(n), nil
}
