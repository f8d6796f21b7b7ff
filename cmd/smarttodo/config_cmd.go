package main

import (
	"fmt"
	"io"
	"time"

	"smarttodo/internal/config"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
)

func newConfigCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration with secrets masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			masked := a.cfg.Masked()
			if asJSON {
				data, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(masked, "", "  ")
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return err
			}
			printConfig(cmd.OutOrStdout(), a, masked)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}

func printConfig(out io.Writer, a *app, cfg config.Config) {
	ai := cfg.AI
	provider := config.NormalizeProvider(ai.Provider)
	fmt.Fprintf(out, "%s: %s\n", a.tr.T("config.provider"), provider)

	var pc config.ProviderConfig
	switch provider {
	case config.ProviderOpenAI:
		pc = ai.OpenAI
	case config.ProviderAnthropic:
		pc = ai.Anthropic
	case config.ProviderLMStudio:
		pc = ai.LMStudio
	}
	if provider != config.ProviderNone {
		fmt.Fprintf(out, "%s: %s\n", a.tr.T("config.model"), pc.Model)
		fmt.Fprintf(out, "%s: %s\n", a.tr.T("config.base_url"), pc.BaseURL)
		fmt.Fprintf(out, "%s: %s\n", a.tr.T("config.api_key"), pc.APIKey)
	}
	fmt.Fprintf(out, "%s: %s\n", a.tr.T("config.timeout"), time.Duration(ai.TimeoutMS)*time.Millisecond)
	budget := a.tr.T("config.unlimited")
	if ai.MaxPromptTokens > 0 {
		budget = fmt.Sprint(ai.MaxPromptTokens)
	}
	fmt.Fprintf(out, "%s: %s\n", a.tr.T("config.max_tokens"), budget)
	if ai.MaxPromptTokens > 0 {
		fmt.Fprintf(out, "%s: %t\n", a.tr.T("config.estimate_tokens"), ai.EstimateTokens)
	}
	fmt.Fprintf(out, "%s: %t\n", a.tr.T("config.repair_json"), ai.RepairJSON)
}
