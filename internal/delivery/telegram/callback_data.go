package telegram

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/aliskhannn/flashcards-engine/internal/domain/entities"
)

// Callback action constants.
const (
	actionShow     = "show"
	actionRate     = "rate"
	actionNext     = "next"
	actionProgress = "progress"
)

// callbackData represents structured callback data.
type callbackData struct {
	Action string
	Params []string
	Raw    string
}

// encode creates callback string.
func (cd callbackData) encode() string {
	if len(cd.Params) == 0 {
		return cd.Action
	}
	return cd.Action + ":" + strings.Join(cd.Params, ":")
}

// decodeCallback parses callback data string.
func decodeCallback(data string) callbackData {
	parts := strings.Split(data, ":")
	return callbackData{
		Action: parts[0],
		Params: parts[1:],
		Raw:    data,
	}
}

// cardID returns the card referenced by the first parameter.
func (cd callbackData) cardID() (uuid.UUID, bool) {
	if len(cd.Params) == 0 {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(cd.Params[0])
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// rating returns the rating carried by a rate callback.
func (cd callbackData) rating() (entities.Rating, bool) {
	if len(cd.Params) < 2 {
		return 0, false
	}
	r, err := entities.ParseRating(cd.Params[1])
	if err != nil {
		return 0, false
	}
	return r, true
}

// buildShowCallback builds callback data for revealing the back of a card.
func buildShowCallback(cardID uuid.UUID) string {
	return callbackData{Action: actionShow, Params: []string{cardID.String()}}.encode()
}

// buildRateCallback builds callback data for grading a card.
// Ratings are sent as digits to stay within Telegram's 64-byte limit.
func buildRateCallback(cardID uuid.UUID, r entities.Rating) string {
	return callbackData{
		Action: actionRate,
		Params: []string{cardID.String(), strconv.Itoa(int(r))},
	}.encode()
}

// buildNextCallback builds callback data for opening the next due card.
func buildNextCallback() string {
	return actionNext
}

// buildProgressCallback builds callback data for refreshing the progress view.
func buildProgressCallback() string {
	return actionProgress
}
