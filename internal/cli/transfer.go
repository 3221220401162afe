package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gmllt/kban/internal/board"
	"github.com/gmllt/kban/internal/transfer"
)

func newExportCommand(flags *globalFlags) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the stored board to a JSON file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd.Context(), flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer e.Close()

			b, _, err := e.bridge.Restore(cmd.Context())
			if err != nil {
				return err
			}
			if out == "-" {
				return transfer.Export(cmd.OutOrStdout(), b)
			}
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("creating %s: %w", out, err)
			}
			if err := transfer.Export(f, b); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d lanes, %d cards to %s\n", len(b), b.CardCount(), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", transfer.Filename, `output file, "-" for stdout`)
	return cmd
}

func newImportCommand(flags *globalFlags) *cobra.Command {
	var opts transfer.Options
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the stored board with a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := readBoardFile(args[0], opts)
			if err != nil {
				return err
			}
			e, err := setup(cmd.Context(), flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.bridge.SaveNow(cmd.Context(), b); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d lanes, %d cards\n", len(b), b.CardCount())
			return nil
		},
	}
	cmd.Flags().BoolVar(&opts.AllowComments, "jsonc", false, "accept comments and trailing commas")
	return cmd
}

func newValidateCommand() *cobra.Command {
	var opts transfer.Options
	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Check that a JSON file is a valid board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := readBoardFile(args[0], opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: valid board, %d lanes, %d cards\n", args[0], len(b), b.CardCount())
			return nil
		},
	}
	cmd.Flags().BoolVar(&opts.AllowComments, "jsonc", false, "accept comments and trailing commas")
	return cmd
}

func readBoardFile(path string, opts transfer.Options) (board.Board, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	b, err := transfer.ImportWith(f, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return b, nil
}
