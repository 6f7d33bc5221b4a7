package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bryanwahyu/dao-advisor/internal/domain/proposal"
	"github.com/bryanwahyu/dao-advisor/internal/extract"
	"github.com/bryanwahyu/dao-advisor/internal/infra/ai/prompt"
)

type requestFlags struct {
	title       string
	description string
	kind        string
}

func (f *requestFlags) bind(cmd *cobra.Command, needDescription bool) {
	cmd.Flags().StringVarP(&f.title, "title", "t", "", "Proposal title")
	cmd.Flags().StringVarP(&f.description, "description", "d", "", "Proposal description")
	cmd.Flags().StringVar(&f.kind, "type", "", "Proposal type (default: governance)")
	_ = cmd.MarkFlagRequired("title")
	if needDescription {
		_ = cmd.MarkFlagRequired("description")
	}
}

func (f *requestFlags) request() proposal.AnalysisRequest {
	return proposal.AnalysisRequest{
		Title:        f.title,
		Description:  f.description,
		ProposalType: f.kind,
	}
}

// =============================================================================
// PROMPT / FALLBACK COMMANDS - preview what the service would send or return
// =============================================================================

func newPromptCmd() *cobra.Command {
	var flags requestFlags
	var system bool
	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Print the prompt sent to the provider for a proposal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if system {
				fmt.Fprintln(out, prompt.GetSystemPrompt())
				fmt.Fprintln(out)
			}
			fmt.Fprintln(out, prompt.GetUserPrompt(flags.request()))
			return nil
		},
	}
	flags.bind(cmd, true)
	cmd.Flags().BoolVar(&system, "system", false, "Also print the system prompt")
	return cmd
}

func newFallbackCmd() *cobra.Command {
	var flags requestFlags
	cmd := &cobra.Command{
		Use:   "fallback",
		Short: "Print the fallback analysis served when the provider fails",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printJSON(cmd.OutOrStdout(), extract.BuildFallback(flags.request()))
		},
	}
	flags.bind(cmd, false)
	return cmd
}
