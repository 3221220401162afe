// Package transfer exports the board as a JSON file and imports it back.
package transfer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/tidwall/jsonc"

	"github.com/gmllt/kban/internal/board"
	"github.com/gmllt/kban/internal/logger"
	"github.com/gmllt/kban/internal/state"
)

// Filename is the name offered for downloaded exports.
const Filename = "data.json"

// ContentType of exported files.
const ContentType = "application/json"

// Export writes b as JSON to w.
func Export(w io.Writer, b board.Board) error {
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("encoding board: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}
	return nil
}

// Options tune how import files are read.
type Options struct {
	// AllowComments accepts JSON with comments and trailing commas (JSONC).
	// Off by default: such files are rejected like any other bad JSON.
	AllowComments bool
}

// Import reads a whole board file from r. Anything that is not strict JSON
// or does not validate is rejected with board.ErrInvalidBoard.
func Import(r io.Reader) (board.Board, error) {
	return ImportWith(r, Options{})
}

// ImportWith is Import with options.
func ImportWith(r io.Reader, opts Options) (board.Board, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading import: %w", err)
	}
	if opts.AllowComments {
		data = jsonc.ToJSON(data)
	}
	return board.Decode(data)
}

// Importer replaces the board of a container with imported files.
type Importer struct {
	state *state.Container
	opts  Options
	log   *slog.Logger
}

func NewImporter(c *state.Container, opts Options, log *slog.Logger) *Importer {
	return &Importer{state: c, opts: opts, log: logger.OrDefault(log)}
}

// ImportFrom reads r and, if it holds a valid board, replaces the current
// board with it. On failure the current board is left untouched and the
// error is returned.
func (im *Importer) ImportFrom(ctx context.Context, r io.Reader) (board.Board, error) {
	b, err := ImportWith(r, im.opts)
	if err != nil {
		im.log.WarnContext(ctx, "import rejected", "error", err)
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	im.log.InfoContext(ctx, "board imported", "lanes", len(b), "cards", b.CardCount())
	return im.state.Replace(b), nil
}

// ImportAsync runs ImportFrom in its own goroutine and calls done with the
// outcome. Edits made meanwhile are overwritten if the import succeeds.
func (im *Importer) ImportAsync(ctx context.Context, r io.Reader, done func(board.Board, error)) {
	go func() {
		b, err := im.ImportFrom(ctx, r)
		if done != nil {
			done(b, err)
		}
	}()
}
