package cli

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gmllt/kban/internal/board"
)

const boardJSON = `[{"id":"lane-1","title":"Todo","cards":[{"id":"card-1","title":"Write docs","info":"README\nand help"}]},{"id":"lane-2","title":"Done","cards":[]}]`

// writeConfig points a file store at a temp directory.
func writeConfig(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yml")
	cfg := fmt.Sprintf("log:\n  level: error\nstorage:\n  backend: file\n  file:\n    dir: %s\n", filepath.Join(dir, "store"))
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))
	return dir, cfgPath
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestImportExport(t *testing.T) {
	dir, cfgPath := writeConfig(t)
	in := filepath.Join(dir, "in.json")
	require.NoError(t, os.WriteFile(in, []byte(boardJSON), 0o644))

	out, err := run(t, "--config", cfgPath, "import", in)
	require.NoError(t, err)
	assert.Contains(t, out, "imported 2 lanes, 1 cards")

	exported := filepath.Join(dir, "data.json")
	out, err = run(t, "--config", cfgPath, "export", "--out", exported)
	require.NoError(t, err)
	assert.Contains(t, out, "exported 2 lanes, 1 cards")

	data, err := os.ReadFile(exported)
	require.NoError(t, err)
	assert.JSONEq(t, boardJSON, string(data))

	out, err = run(t, "--config", cfgPath, "export", "-o", "-")
	require.NoError(t, err)
	assert.JSONEq(t, boardJSON, out)
}

func TestImportRejectsInvalidFile(t *testing.T) {
	dir, cfgPath := writeConfig(t)
	in := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(in, []byte(`{"foo": "bar"}`), 0o644))

	_, err := run(t, "--config", cfgPath, "import", in)
	require.Error(t, err)
	assert.ErrorIs(t, err, board.ErrInvalidBoard)

	out, err := run(t, "--config", cfgPath, "export", "-o", "-")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, out)
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.json")
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(good, []byte(boardJSON), 0o644))
	require.NoError(t, os.WriteFile(bad, []byte(`[{"id":"lane-1"}]`), 0o644))

	out, err := run(t, "validate", good)
	require.NoError(t, err)
	assert.Contains(t, out, "valid board, 2 lanes, 1 cards")

	_, err = run(t, "validate", bad)
	assert.ErrorIs(t, err, board.ErrInvalidBoard)

	_, err = run(t, "validate", filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	commented := filepath.Join(dir, "commented.json")
	require.NoError(t, os.WriteFile(commented, []byte("// notes\n"+boardJSON), 0o644))
	_, err = run(t, "validate", commented)
	assert.ErrorIs(t, err, board.ErrInvalidBoard)
	out, err = run(t, "validate", "--jsonc", commented)
	require.NoError(t, err)
	assert.Contains(t, out, "valid board, 2 lanes, 1 cards")
}

func TestShow(t *testing.T) {
	dir, cfgPath := writeConfig(t)
	in := filepath.Join(dir, "in.json")
	require.NoError(t, os.WriteFile(in, []byte(boardJSON), 0o644))
	_, err := run(t, "--config", cfgPath, "import", in)
	require.NoError(t, err)

	t.Cleanup(func() { color.NoColor = true })
	out, err := run(t, "--config", cfgPath, "show", "--no-color")
	require.NoError(t, err)
	assert.Contains(t, out, "Todo lane-1 (1)")
	assert.Contains(t, out, "  - Write docs card-1")
	assert.Contains(t, out, "      and help")
	assert.Contains(t, out, "Done lane-2 (0)")
}

func TestPrintEmptyBoard(t *testing.T) {
	var buf bytes.Buffer
	printBoard(&buf, nil)
	assert.Equal(t, "(empty board)\n", buf.String())
}

func TestBadConfig(t *testing.T) {
	_, err := run(t, "--config", filepath.Join(t.TempDir(), "nope.yml"), "show")
	assert.Error(t, err)
}

func TestServeStopsOnCancel(t *testing.T) {
	dir, _ := writeConfig(t)
	cfgPath := filepath.Join(dir, "serve.yml")
	cfg := fmt.Sprintf("server:\n  addr: 127.0.0.1:0\n  static_dir: \"\"\nlog:\n  level: error\nstorage:\n  backend: file\n  file:\n    dir: %s\npersistence:\n  flush_on_exit: true\n", filepath.Join(dir, "store"))
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))

	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, runServe(ctx, &globalFlags{configPath: cfgPath}))
}

func TestServeRefusesUnreadableStore(t *testing.T) {
	dir, _ := writeConfig(t)
	// A directory where the record should be makes every read fail with
	// something other than not-found.
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "store", "data.json"), 0o755))
	cfgPath := filepath.Join(dir, "serve.yml")
	cfg := fmt.Sprintf("server:\n  addr: 127.0.0.1:0\n  static_dir: \"\"\nlog:\n  level: error\nstorage:\n  backend: file\n  file:\n    dir: %s\n", filepath.Join(dir, "store"))
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))

	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	err := runServe(context.Background(), &globalFlags{configPath: cfgPath})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refusing to start")

	_, err = run(t, "--config", cfgPath, "export", "-o", "-")
	assert.Error(t, err)
}
