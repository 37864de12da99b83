package entities

import (
	"errors"
	"testing"
)

func TestParseRating(t *testing.T) {
	tests := []struct {
		in      string
		want    Rating
		wantErr bool
	}{
		{"again", RatingAgain, false},
		{"Hard", RatingHard, false},
		{" good ", RatingGood, false},
		{"4", RatingEasy, false},
		{"0", 0, true},
		{"5", 0, true},
		{"perfect", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseRating(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidRating) {
				t.Errorf("ParseRating(%q) error = %v, want ErrInvalidRating", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseRating(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
}

func TestRatingText(t *testing.T) {
	for _, r := range Ratings {
		text, err := r.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%v): %v", r, err)
		}
		var back Rating
		if err := back.UnmarshalText(text); err != nil || back != r {
			t.Errorf("round trip %v -> %q -> %v (%v)", r, text, back, err)
		}
	}
	if _, err := Rating(7).MarshalText(); !errors.Is(err, ErrInvalidRating) {
		t.Errorf("MarshalText(7) error = %v", err)
	}
	if Rating(9).String() != "Rating(9)" {
		t.Errorf("String = %q", Rating(9).String())
	}
}

func TestRatingIsCorrect(t *testing.T) {
	want := map[Rating]bool{RatingAgain: false, RatingHard: false, RatingGood: true, RatingEasy: true}
	for r, ok := range want {
		if r.IsCorrect() != ok {
			t.Errorf("%v.IsCorrect() = %v", r, !ok)
		}
	}
}

func TestStateIsValid(t *testing.T) {
	for _, s := range States {
		if !s.IsValid() {
			t.Errorf("%v should be valid", s)
		}
	}
	if State("mastered").IsValid() {
		t.Error("mastered should be invalid")
	}
}
