package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"smarttodo/internal/orchestrator"
	"smarttodo/internal/tui"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
)

const defaultWidth = 80

func newSuggestCmd(a *app) *cobra.Command {
	var (
		input   string
		asJSON  bool
		nowFlag string
	)

	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Generate a suggestion for one request payload",
		Long: `Suggest reads one JSON request payload and prints the suggestion.

The payload shape is:
  {"task": {"title": "...", "description": "...", "category": "..."},
   "daily_context": [{"source_type": "email", "content": "..."}],
   "user_prefs": {}, "current_task_load": 3}

Examples:
  # Read from a file and print a card
  smarttodo suggest --input task.json

  # Read from stdin and print the response JSON
  echo '{"task":{"title":"Submit invoice ASAP"}}' | smarttodo suggest --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := readPayload(cmd.InOrStdin(), input)
			if err != nil {
				return err
			}
			now, err := parseNow(nowFlag)
			if err != nil {
				return err
			}

			s, err := a.suggester(now)
			if err != nil {
				return err
			}
			resp, err := s.Generate(cmd.Context(), payload)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				data, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(resp, "", "  ")
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, string(data))
				return err
			}
			_, err = fmt.Fprintln(out, tui.RenderSuggestion(resp, a.tr, tui.DarkTheme(), defaultWidth, orchestrator.FellBack(resp)))
			return err
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "-", "Request payload file, - for stdin")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the response JSON instead of a card")
	cmd.Flags().StringVar(&nowFlag, "now", "", "Fixed current time (RFC3339) for reproducible deadlines")
	return cmd
}

func readPayload(stdin io.Reader, path string) ([]byte, error) {
	path = strings.TrimSpace(path)
	if path == "" || path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return data, nil
}

// parseNow returns nil for an empty value so the suggester keeps its real clock.
func parseNow(v string) (func() time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, fmt.Errorf("invalid --now %q: %w", v, err)
	}
	return func() time.Time { return t }, nil
}
