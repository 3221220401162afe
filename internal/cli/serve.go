package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gmllt/kban/internal/board"
	"github.com/gmllt/kban/internal/server"
	"github.com/gmllt/kban/internal/state"
)

func newServeCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the board over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, flags)
		},
	}
}

func runServe(ctx context.Context, flags *globalFlags) error {
	e, err := setup(ctx, flags, os.Stderr)
	if err != nil {
		return err
	}
	defer e.Close()

	ids, err := board.NewIDGenerator(e.cfg.IDs.Strategy)
	if err != nil {
		return err
	}
	c := state.New(ids)
	restored, ok, err := e.bridge.Restore(ctx)
	if err != nil {
		return fmt.Errorf("refusing to start: %w", err)
	}
	if ok {
		c.Replace(restored)
	}
	// Subscribed after the restore so loading does not trigger a save.
	c.Subscribe(e.bridge.Schedule)

	srv := server.New(server.Options{
		Addr:              e.cfg.Server.Addr,
		StaticDir:         e.cfg.Server.StaticDir,
		ReadTimeout:       e.cfg.Server.ReadTimeout,
		ShutdownTimeout:   e.cfg.Server.ShutdownTimeout,
		AllowJSONComments: e.cfg.Server.ImportJSONC,
	}, c, e.log)
	runErr := srv.Run(ctx)

	if e.cfg.Persistence.FlushOnExit {
		if err := e.bridge.Flush(context.Background()); err != nil {
			e.log.Error("failed to flush board on exit", "error", err)
		}
	} else {
		if e.bridge.Pending() {
			e.log.Warn("exiting with an unsaved change")
		}
		e.bridge.Stop()
	}
	return runErr
}
