package board

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind prefixes generated ids.
type Kind string

const (
	KindLane Kind = "lane"
	KindCard Kind = "card"
)

// IDGenerator hands out fresh lane and card ids.
type IDGenerator interface {
	NewID(kind Kind) string
}

// TimestampGenerator produces "<kind>-<epochMillis>" ids. When two ids are
// requested within the same millisecond the counter is bumped past the last
// value handed out, so a generator never returns the same id twice.
type TimestampGenerator struct {
	mu   sync.Mutex
	now  func() time.Time
	last int64
}

func NewTimestampGenerator() *TimestampGenerator {
	return &TimestampGenerator{now: time.Now}
}

func (g *TimestampGenerator) NewID(kind Kind) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	ms := g.now().UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	return fmt.Sprintf("%s-%d", kind, ms)
}

// UUIDGenerator produces "<kind>-<uuid>" ids.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID(kind Kind) string {
	return fmt.Sprintf("%s-%s", kind, uuid.NewString())
}

// NewIDGenerator returns the generator for a configured strategy name.
func NewIDGenerator(strategy string) (IDGenerator, error) {
	switch strategy {
	case "", "timestamp":
		return NewTimestampGenerator(), nil
	case "uuid":
		return UUIDGenerator{}, nil
	default:
		return nil, fmt.Errorf("unknown id strategy %q", strategy)
	}
}
