// Command advisorctl runs the proposal analysis pipeline from a terminal:
// extracting results from saved provider output, previewing prompts and
// fallbacks, and analyzing a proposal against the configured provider.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
	timeout    time.Duration
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "advisorctl",
		Short:         "DAO proposal advisor tooling",
		Long:          `Inspect and exercise the proposal analysis pipeline without running the HTTP server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: $CONFIG_PATH or config.yaml)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level for provider calls")
	root.PersistentFlags().DurationVar(&timeout, "timeout", 0, "Provider timeout (default: from config)")

	root.AddCommand(newExtractCmd())
	root.AddCommand(newFallbackCmd())
	root.AddCommand(newPromptCmd())
	root.AddCommand(newAnalyzeCmd())
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
