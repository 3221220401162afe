package board

const (
	DefaultLaneTitle = "New Lane"
	DefaultCardTitle = "New Card"
)

// AddLane appends an empty lane titled "New Lane".
func AddLane(b Board, id string) Board {
	out := make(Board, len(b), len(b)+1)
	copy(out, b)
	return append(out, Lane{ID: id, Title: DefaultLaneTitle, Cards: []Card{}})
}

// DeleteLane removes the lane with the given id.
func DeleteLane(b Board, laneID string) Board {
	i := b.LaneIndex(laneID)
	if i == -1 {
		return b
	}
	out := make(Board, 0, len(b)-1)
	out = append(out, b[:i]...)
	return append(out, b[i+1:]...)
}

func EditLaneTitle(b Board, laneID, title string) Board {
	i := b.LaneIndex(laneID)
	if i == -1 {
		return b
	}
	lane := b[i]
	lane.Title = title
	return replaceLane(b, i, lane)
}

// AddCard appends a card titled "New Card" to the first lane. A board
// without lanes is returned as is.
func AddCard(b Board, id string) Board {
	if len(b) == 0 {
		return b
	}
	lane := b[0]
	cards := make([]Card, len(lane.Cards), len(lane.Cards)+1)
	copy(cards, lane.Cards)
	lane.Cards = append(cards, Card{ID: id, Title: DefaultCardTitle})
	return replaceLane(b, 0, lane)
}

func DeleteCard(b Board, laneID, cardID string) Board {
	i := b.LaneIndex(laneID)
	if i == -1 {
		return b
	}
	lane := b[i]
	j := lane.CardIndex(cardID)
	if j == -1 {
		return b
	}
	cards := make([]Card, 0, len(lane.Cards)-1)
	cards = append(cards, lane.Cards[:j]...)
	lane.Cards = append(cards, lane.Cards[j+1:]...)
	return replaceLane(b, i, lane)
}

// EditCard replaces the title and info of a card.
func EditCard(b Board, laneID, cardID, title, info string) Board {
	i := b.LaneIndex(laneID)
	if i == -1 {
		return b
	}
	lane := b[i]
	j := lane.CardIndex(cardID)
	if j == -1 {
		return b
	}
	cards := make([]Card, len(lane.Cards))
	copy(cards, lane.Cards)
	cards[j].Title = title
	cards[j].Info = info
	lane.Cards = cards
	return replaceLane(b, i, lane)
}

// replaceLane returns a copy of b with the lane at index i swapped for lane.
func replaceLane(b Board, i int, lane Lane) Board {
	out := make(Board, len(b))
	copy(out, b)
	out[i] = lane
	return out
}
