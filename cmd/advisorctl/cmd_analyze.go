package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bryanwahyu/dao-advisor/internal/application"
	"github.com/bryanwahyu/dao-advisor/internal/application/analysis"
	"github.com/bryanwahyu/dao-advisor/internal/config"
	"github.com/bryanwahyu/dao-advisor/internal/infra/ai/provider"
	"github.com/bryanwahyu/dao-advisor/internal/logger"
)

// =============================================================================
// ANALYZE COMMAND - one proposal through the configured provider
// =============================================================================

type analyzeReport struct {
	ID         string `json:"id"`
	Provider   string `json:"provider"`
	Model      string `json:"model"`
	Fallback   bool   `json:"fallback"`
	Reason     string `json:"reason,omitempty"`
	DurationMS int64  `json:"durationMs"`
	Analysis   any    `json:"analysis"`
}

func newAnalyzeCmd() *cobra.Command {
	var flags requestFlags
	var verbose bool
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a proposal with the configured AI provider",
		Long: `Loads the server configuration, calls the provider once and prints the analysis.
Provider failures print the fallback analysis, like the HTTP API does.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAnalyze(cmd, flags, verbose)
		},
	}
	flags.bind(cmd, true)
	cmd.Flags().BoolVar(&verbose, "verbose", false, "Print provider, timing and fallback reason with the analysis")
	return cmd
}

func runAnalyze(cmd *cobra.Command, flags requestFlags, verbose bool) error {
	path := configPath
	if path == "" {
		path = config.PathFromEnv()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if timeout > 0 {
		cfg.AI.Timeout = timeout
	}

	log := logger.NewStructured(logLevel, "console")
	defer func() { _ = log.Sync() }()

	ctx := cmd.Context()
	client, err := provider.New(ctx, cfg.AI)
	if err != nil {
		return fmt.Errorf("ai provider: %w", err)
	}

	svc := &analysis.Service{
		Client:  client,
		Clock:   application.SystemClock{},
		Timeout: cfg.AI.Timeout,
		Logger:  log,
	}
	out, err := svc.Analyze(ctx, flags.request())
	if err != nil {
		return err
	}

	if !verbose {
		return printJSON(cmd.OutOrStdout(), out.Analysis)
	}
	return printJSON(cmd.OutOrStdout(), analyzeReport{
		ID:         string(out.ID),
		Provider:   out.Provider,
		Model:      out.Model,
		Fallback:   out.Fallback,
		Reason:     out.ReasonCode(),
		DurationMS: out.Duration.Milliseconds(),
		Analysis:   out.Analysis,
	})
}
