package board

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidBoard is returned when external data does not have the shape
// of a Board.
var ErrInvalidBoard = errors.New("invalid board data")

// Validate reports whether data, as produced by decoding JSON into an
// interface value, has the shape of a Board: a list of lanes, each with a
// string id, a string title and a list of cards, each card with a string id,
// title and info. Ids are not checked for uniqueness.
func Validate(data any) bool {
	lanes, ok := data.([]any)
	if !ok {
		return false
	}
	for _, l := range lanes {
		lane, ok := l.(map[string]any)
		if !ok {
			return false
		}
		if !isString(lane, "id") || !isString(lane, "title") {
			return false
		}
		cards, ok := lane["cards"].([]any)
		if !ok {
			return false
		}
		for _, c := range cards {
			card, ok := c.(map[string]any)
			if !ok {
				return false
			}
			if !isString(card, "id") || !isString(card, "title") || !isString(card, "info") {
				return false
			}
		}
	}
	return true
}

func isString(obj map[string]any, field string) bool {
	_, ok := obj[field].(string)
	return ok
}

// Decode parses JSON text into a Board. The text must pass Validate; any
// failure is reported as ErrInvalidBoard. The Board is built from the same
// decoded value Validate checked, reading only the exact keys it checked.
func Decode(data []byte) (Board, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBoard, err)
	}
	if !Validate(raw) {
		return nil, fmt.Errorf("%w: unexpected structure", ErrInvalidBoard)
	}
	return fromValidated(raw), nil
}

// fromValidated converts a value that passed Validate.
func fromValidated(raw any) Board {
	lanes := raw.([]any)
	b := make(Board, 0, len(lanes))
	for _, l := range lanes {
		lane := l.(map[string]any)
		rawCards := lane["cards"].([]any)
		cards := make([]Card, 0, len(rawCards))
		for _, c := range rawCards {
			card := c.(map[string]any)
			cards = append(cards, Card{
				ID:    card["id"].(string),
				Title: card["title"].(string),
				Info:  card["info"].(string),
			})
		}
		b = append(b, Lane{
			ID:    lane["id"].(string),
			Title: lane["title"].(string),
			Cards: cards,
		})
	}
	return b
}
