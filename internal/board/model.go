// Package board holds the kanban data model and the pure operations on it:
// structural validation, lane/card edits and the drag-and-drop move engine.
//
// Every operation takes a Board and returns a Board. Inputs are never
// modified; lanes that an operation does not touch are shared between the
// input and the result.
package board

import "encoding/json"

type Card struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Info  string `json:"info"`
}

type Lane struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Cards []Card `json:"cards"`
}

// Board is the ordered list of lanes. It is the whole persisted state.
type Board []Lane

// MarshalJSON keeps an empty lane encoded as "cards": [] so that exported
// data always passes Validate.
func (l Lane) MarshalJSON() ([]byte, error) {
	type plain Lane
	if l.Cards == nil {
		l.Cards = []Card{}
	}
	return json.Marshal(plain(l))
}

func (b Board) MarshalJSON() ([]byte, error) {
	if b == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Lane(b))
}

// Clone returns a deep copy of the board.
func (b Board) Clone() Board {
	out := make(Board, len(b))
	for i, l := range b {
		out[i] = l.clone()
	}
	return out
}

func (l Lane) clone() Lane {
	cards := make([]Card, len(l.Cards))
	copy(cards, l.Cards)
	l.Cards = cards
	return l
}

// LaneIndex returns the position of the lane with the given id, or -1.
func (b Board) LaneIndex(id string) int {
	for i, l := range b {
		if l.ID == id {
			return i
		}
	}
	return -1
}

// Lane looks a lane up by id.
func (b Board) Lane(id string) (Lane, bool) {
	i := b.LaneIndex(id)
	if i == -1 {
		return Lane{}, false
	}
	return b[i], true
}

func (l Lane) CardIndex(id string) int {
	for i, c := range l.Cards {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// CardCount is the number of cards across all lanes.
func (b Board) CardCount() int {
	n := 0
	for _, l := range b {
		n += len(l.Cards)
	}
	return n
}

// Same reports whether a and b are the same board value, i.e. an operation
// returned its input untouched.
func Same(a, b Board) bool {
	if len(a) != len(b) || (a == nil) != (b == nil) {
		return false
	}
	return len(a) == 0 || &a[0] == &b[0]
}
