package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/comply/internal/api"
	"github.com/jackzampolin/comply/internal/compliance"
	"github.com/jackzampolin/comply/internal/providers"
)

var (
	checkProvider string
	checkDryRun   bool
	checkShowText bool
)

// checkOutput adds the rendered prompt to the verdict on request.
type checkOutput struct {
	URL             string             `json:"url" yaml:"url"`
	Provider        providers.Provider `json:"llm_provider" yaml:"llm_provider"`
	Model           string             `json:"model" yaml:"model"`
	IsCompliant     bool               `json:"is_compliant" yaml:"is_compliant"`
	Reasoning       string             `json:"reasoning" yaml:"reasoning"`
	ConfidenceScore float64            `json:"confidence_score" yaml:"confidence_score"`
	InputMsg        string             `json:"input_msg,omitempty" yaml:"input_msg,omitempty"`
}

var checkCmd = &cobra.Command{
	Use:   "check <url>",
	Short: "Check a page for compliance without a server",
	Long: `Fetch a page, extract its text and ask the configured model for a verdict.

API keys are read from OPENAI_API_KEY / ANTHROPIC_API_KEY or from the
secrets directory at call time.

Examples:
  comply check https://example.com
  comply check https://example.com --provider anthropic -o json
  comply check https://example.com --dry-run --show-prompt`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger(os.Stderr)
		if err != nil {
			return err
		}

		a, err := loadApp(logger)
		if err != nil {
			return err
		}

		var clients compliance.ClientSource
		switch {
		case checkDryRun:
			clients = compliance.Fixed(providers.NewMockClient())
		case checkProvider != "":
			client, err := a.registry.Get(checkProvider)
			if err != nil {
				return err
			}
			clients = compliance.Fixed(client)
		}

		checker, err := a.checker(clients)
		if err != nil {
			return err
		}

		result, err := checker.Check(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		out := checkOutput{
			URL:             args[0],
			Provider:        result.Provider,
			Model:           result.Model,
			IsCompliant:     result.IsCompliant,
			Reasoning:       result.Reasoning,
			ConfidenceScore: result.ConfidenceScore,
		}
		if checkShowText {
			out.InputMsg = result.InputMsg
		}
		return api.Output(out)
	},
}

func init() {
	checkCmd.Flags().StringVar(&checkProvider, "provider", "", "Provider name from llm_providers (default: defaults.llm_provider)")
	checkCmd.Flags().BoolVar(&checkDryRun, "dry-run", false, "Use a canned verdict instead of calling a model")
	checkCmd.Flags().BoolVar(&checkShowText, "show-prompt", false, "Include the rendered user prompt in the output")

	rootCmd.AddCommand(checkCmd)
}
