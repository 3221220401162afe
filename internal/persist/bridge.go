// Package persist writes the board to durable storage after a quiet period
// and restores it once at startup.
package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gmllt/kban/internal/board"
	"github.com/gmllt/kban/internal/logger"
	"github.com/gmllt/kban/internal/storage"
)

// DefaultQuietPeriod is how long the board must stay unchanged before it is
// saved.
const DefaultQuietPeriod = 5 * time.Second

// Bridge debounces saves of the board to one storage key. At most one save
// is pending at any time; scheduling a new one cancels the previous one.
//
// mu guards the timer state only and is never held across a storage call,
// so scheduling never waits on a slow write. writeMu orders the writes
// themselves.
type Bridge struct {
	store storage.Store
	key   string
	quiet time.Duration
	log   *slog.Logger

	mu      sync.Mutex
	timer   *time.Timer
	pending board.Board
	gen     uint64

	writeMu sync.Mutex
	written uint64
}

func NewBridge(store storage.Store, key string, quiet time.Duration, log *slog.Logger) *Bridge {
	if quiet <= 0 {
		quiet = DefaultQuietPeriod
	}
	return &Bridge{store: store, key: key, quiet: quiet, log: logger.OrDefault(log)}
}

// Restore reads the stored board. A missing record, undecodable or
// malformed data yields an empty board and false; that failure is only
// logged. An error is returned only when the store itself could not be
// read, since starting empty then would overwrite a board that still exists.
func (b *Bridge) Restore(ctx context.Context) (board.Board, bool, error) {
	data, err := b.store.Get(ctx, b.key)
	if errors.Is(err, storage.ErrNotFound) {
		b.log.Info("no stored board, starting empty", "key", b.key)
		return board.Board{}, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading stored board: %w", err)
	}
	restored, err := board.Decode(data)
	if err != nil {
		b.log.Warn("stored board rejected, starting empty", "key", b.key, "error", err)
		return board.Board{}, false, nil
	}
	b.log.Info("board restored", "key", b.key, "lanes", len(restored), "cards", restored.CardCount())
	return restored, true, nil
}

// Schedule arranges for snapshot to be saved once the quiet period passes
// without another call. It is meant to be subscribed to the state container.
func (b *Bridge) Schedule(snapshot board.Board) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.timer != nil {
		b.timer.Stop()
	}
	b.gen++
	gen := b.gen
	b.pending = snapshot
	b.timer = time.AfterFunc(b.quiet, func() { b.fire(gen) })
}

// fire saves the pending snapshot if no later Schedule or Stop superseded
// the timer that called it.
func (b *Bridge) fire(gen uint64) {
	b.mu.Lock()
	if gen != b.gen || b.timer == nil {
		b.mu.Unlock()
		return
	}
	snapshot := b.pending
	b.timer = nil
	b.pending = nil
	b.mu.Unlock()

	if err := b.write(context.Background(), gen, snapshot); err != nil {
		b.log.Error("failed to save board", "key", b.key, "error", err)
		return
	}
	b.log.Debug("board saved", "key", b.key, "lanes", len(snapshot))
}

// Pending reports whether a save is scheduled.
func (b *Bridge) Pending() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.timer != nil
}

// Stop cancels the pending save, if any. The unsaved change is lost.
func (b *Bridge) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cancelLocked()
}

// cancelLocked drops the pending save and returns a generation newer than
// any snapshot handed out so far. b.mu must be held.
func (b *Bridge) cancelLocked() uint64 {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
		b.pending = nil
	}
	b.gen++
	return b.gen
}

// Flush writes the pending snapshot now instead of waiting.
func (b *Bridge) Flush(ctx context.Context) error {
	b.mu.Lock()
	if b.timer == nil {
		b.mu.Unlock()
		return nil
	}
	snapshot := b.pending
	gen := b.cancelLocked()
	b.mu.Unlock()
	return b.write(ctx, gen, snapshot)
}

// SaveNow writes snapshot immediately, cancelling any pending save.
func (b *Bridge) SaveNow(ctx context.Context, snapshot board.Board) error {
	b.mu.Lock()
	gen := b.cancelLocked()
	b.mu.Unlock()
	return b.write(ctx, gen, snapshot)
}

// write stores snapshot unless a newer generation has already been
// written.
func (b *Bridge) write(ctx context.Context, gen uint64, snapshot board.Board) error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	if gen <= b.written {
		return nil
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encoding board: %w", err)
	}
	if err := b.store.Put(ctx, b.key, data); err != nil {
		return fmt.Errorf("saving board: %w", err)
	}
	b.written = gen
	return nil
}
