package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/gmllt/kban/internal/board"
)

func newShowCommand(flags *globalFlags) *cobra.Command {
	var noColor bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the stored board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd.Context(), flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer e.Close()

			if noColor {
				color.NoColor = true
			}
			b, _, err := e.bridge.Restore(cmd.Context())
			if err != nil {
				return err
			}
			printBoard(cmd.OutOrStdout(), b)
			return nil
		},
	}
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable coloured output")
	return cmd
}

var (
	laneColor = color.New(color.FgCyan, color.Bold)
	idColor   = color.New(color.FgHiBlack)
)

func printBoard(w io.Writer, b board.Board) {
	if len(b) == 0 {
		fmt.Fprintln(w, "(empty board)")
		return
	}
	for i, lane := range b {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s %s (%d)\n", laneColor.Sprint(lane.Title), idColor.Sprint(lane.ID), len(lane.Cards))
		for _, c := range lane.Cards {
			fmt.Fprintf(w, "  - %s %s\n", c.Title, idColor.Sprint(c.ID))
			if c.Info != "" {
				for _, line := range strings.Split(c.Info, "\n") {
					fmt.Fprintf(w, "      %s\n", line)
				}
			}
		}
	}
}
