// Package state holds the single current board of a running application
// and serializes every change to it.
package state

import (
	"sync"

	"github.com/gmllt/kban/internal/board"
)

// Observer is called with the new board after every change. It runs while
// the container is locked and must not call back into it.
type Observer func(board.Board)

// Container owns the current board. Mutations run one at a time, each one
// replacing the board with the result of a pure board operation.
type Container struct {
	mu        sync.Mutex
	board     board.Board
	ids       board.IDGenerator
	observers []Observer
}

// New returns a container holding an empty board.
func New(ids board.IDGenerator) *Container {
	if ids == nil {
		ids = board.NewTimestampGenerator()
	}
	return &Container{board: board.Board{}, ids: ids}
}

// Subscribe registers an observer for subsequent changes.
func (c *Container) Subscribe(o Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, o)
}

// Board returns a copy of the current board.
func (c *Container) Board() board.Board {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.board.Clone()
}

// Apply runs fn on the current board and stores its result. Observers are
// notified unless fn returned the board unchanged.
func (c *Container) Apply(fn func(board.Board) board.Board) board.Board {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := fn(c.board)
	if board.Same(c.board, next) {
		return c.board.Clone()
	}
	c.board = next
	for _, o := range c.observers {
		o(next)
	}
	return next.Clone()
}

// Replace swaps the whole board, as a successful load or import does.
func (c *Container) Replace(b board.Board) board.Board {
	if b == nil {
		b = board.Board{}
	}
	b = b.Clone()
	return c.Apply(func(board.Board) board.Board { return b })
}

func (c *Container) AddLane() board.Board {
	return c.Apply(func(b board.Board) board.Board {
		return board.AddLane(b, c.ids.NewID(board.KindLane))
	})
}

func (c *Container) DeleteLane(laneID string) board.Board {
	return c.Apply(func(b board.Board) board.Board { return board.DeleteLane(b, laneID) })
}

func (c *Container) EditLaneTitle(laneID, title string) board.Board {
	return c.Apply(func(b board.Board) board.Board { return board.EditLaneTitle(b, laneID, title) })
}

// AddCard adds a card to the first lane. No id is consumed when the board
// has no lanes.
func (c *Container) AddCard() board.Board {
	return c.Apply(func(b board.Board) board.Board {
		if len(b) == 0 {
			return b
		}
		return board.AddCard(b, c.ids.NewID(board.KindCard))
	})
}

func (c *Container) DeleteCard(laneID, cardID string) board.Board {
	return c.Apply(func(b board.Board) board.Board { return board.DeleteCard(b, laneID, cardID) })
}

func (c *Container) EditCard(laneID, cardID, title, info string) board.Board {
	return c.Apply(func(b board.Board) board.Board { return board.EditCard(b, laneID, cardID, title, info) })
}

func (c *Container) Move(r board.DropResult) board.Board {
	return c.Apply(func(b board.Board) board.Board { return board.Move(b, r) })
}
