package board

// Location is a position inside a lane.
type Location struct {
	LaneID string `json:"laneId"`
	Index  int    `json:"index"`
}

// DropResult describes the end of a drag gesture. Destination is nil when the
// card was dropped outside any lane. CardID, when set, names the dragged card
// and must match the card found at Source.
type DropResult struct {
	CardID      string    `json:"cardId,omitempty"`
	Source      Location  `json:"source"`
	Destination *Location `json:"destination,omitempty"`
}

// Move applies a drop to the board.
//
// Source.Index addresses the lane before the card is removed, and
// Destination.Index the target lane after removal: the card is inserted
// before the element currently at that position. A destination index past
// the end appends. Cancelled drops, drops onto the starting position and
// drops that reference unknown lanes or positions leave the board as is.
func Move(b Board, r DropResult) Board {
	src, dst := r.Source, r.Destination
	if dst == nil {
		return b
	}
	if dst.LaneID == src.LaneID && dst.Index == src.Index {
		return b
	}
	if dst.Index < 0 {
		return b
	}
	si := b.LaneIndex(src.LaneID)
	di := b.LaneIndex(dst.LaneID)
	if si == -1 || di == -1 {
		return b
	}
	srcLane := b[si]
	if src.Index < 0 || src.Index >= len(srcLane.Cards) {
		return b
	}
	card := srcLane.Cards[src.Index]
	if r.CardID != "" && r.CardID != card.ID {
		return b
	}

	remaining := remove(srcLane.Cards, src.Index)
	if si == di {
		srcLane.Cards = insert(remaining, dst.Index, card)
		return replaceLane(b, si, srcLane)
	}

	dstLane := b[di]
	srcLane.Cards = remaining
	dstLane.Cards = insert(dstLane.Cards, dst.Index, card)
	out := replaceLane(b, si, srcLane)
	out[di] = dstLane
	return out
}

// remove returns a new slice without the element at i.
func remove(cards []Card, i int) []Card {
	out := make([]Card, 0, len(cards))
	out = append(out, cards[:i]...)
	return append(out, cards[i+1:]...)
}

// insert returns a new slice with c placed at i, clamped to the end.
func insert(cards []Card, i int, c Card) []Card {
	if i > len(cards) {
		i = len(cards)
	}
	out := make([]Card, 0, len(cards)+1)
	out = append(out, cards[:i]...)
	out = append(out, c)
	return append(out, cards[i:]...)
}
