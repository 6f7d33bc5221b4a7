package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/bryanwahyu/dao-advisor/internal/extract"
)

// =============================================================================
// EXTRACT COMMAND - parse saved provider output
// =============================================================================

func newExtractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract [file|-]",
		Short: "Extract an analysis result from raw provider text",
		Long: `Reads provider output from a file (or stdin when the argument is "-" or missing)
and prints the extracted analysis as JSON. Failures print the reason code and exit non-zero.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runExtract,
	}
}

func runExtract(cmd *cobra.Command, args []string) error {
	raw, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	result, err := extract.Extract(string(raw))
	if err != nil {
		var xerr *extract.Error
		if errors.As(err, &xerr) {
			return fmt.Errorf("%s: %w", xerr.Kind.Code(), err)
		}
		return err
	}
	return printJSON(cmd.OutOrStdout(), result)
}

func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", args[0], err)
	}
	return raw, nil
}
