package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"smarttodo/internal/contract"
	"smarttodo/internal/i18n"
	"smarttodo/internal/orchestrator"
	"smarttodo/internal/tui"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
)

const defaultSourceType = "note"

func newInteractiveCmd(a *app) *cobra.Command {
	var basic bool

	cmd := &cobra.Command{
		Use:   "interactive",
		Short: "Describe tasks at a prompt and get suggestions one by one",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.suggester(nil)
			if err != nil {
				return err
			}

			var in lineInput
			if basic {
				in = newBasicLineInput(cmd.InOrStdin(), cmd.OutOrStdout())
			} else {
				var inputErr error
				in, inputErr = newLineInput(defaultHistoryPath(), cmd.InOrStdin(), cmd.OutOrStdout())
				if inputErr != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "line editor unavailable, fallback to basic input: %v\n", inputErr)
				}
			}
			defer in.Close()

			return runInteractive(cmd.Context(), session{
				in:        in,
				out:       cmd.OutOrStdout(),
				suggester: s,
				tr:        a.tr,
				theme:     tui.DarkTheme(),
			})
		},
	}
	cmd.Flags().BoolVar(&basic, "basic", false, "Plain stdin input without line editing")
	return cmd
}

type session struct {
	in        lineInput
	out       io.Writer
	suggester *orchestrator.Suggester
	tr        *i18n.I18n
	theme     tui.Theme
}

func runInteractive(ctx context.Context, s session) error {
	fmt.Fprintln(s.out, s.tr.T("interactive.welcome"))
	for {
		req, err := s.readRequest()
		if err != nil {
			if isEndOfInput(err) {
				fmt.Fprintln(s.out, s.tr.T("interactive.bye"))
				return nil
			}
			return err
		}

		fmt.Fprintln(s.out, s.theme.MutedStyle.Render(s.tr.T("interactive.working", s.suggester.ProviderName())))
		resp, err := s.suggester.Suggest(ctx, req)
		if err != nil {
			fmt.Fprintln(s.out, s.theme.ErrorStyle.Render(s.tr.T("error.suggest", err)))
		} else {
			fmt.Fprintln(s.out, tui.RenderSuggestion(resp, s.tr, s.theme, defaultWidth, orchestrator.FellBack(resp)))
		}

		again, err := s.in.ReadLine(s.tr.T("prompt.again"))
		if err != nil || strings.HasPrefix(strings.ToLower(strings.TrimSpace(again)), "n") {
			fmt.Fprintln(s.out, s.tr.T("interactive.bye"))
			if err != nil && !isEndOfInput(err) {
				return err
			}
			return nil
		}
	}
}

func (s session) readRequest() (contract.Request, error) {
	var req contract.Request

	for {
		title, err := s.in.ReadLine(s.tr.T("prompt.title"))
		if err != nil {
			return req, err
		}
		if req.Task.Title = strings.TrimSpace(title); req.Task.Title != "" {
			break
		}
		fmt.Fprintln(s.out, s.theme.WarningStyle.Render(s.tr.T("error.title_required")))
	}

	description, err := s.in.ReadLine(s.tr.T("prompt.description"))
	if err != nil {
		return req, err
	}
	req.Task.Description = strings.TrimSpace(description)

	category, err := s.in.ReadLine(s.tr.T("prompt.category"))
	if err != nil {
		return req, err
	}
	if category = strings.TrimSpace(category); category != "" {
		req.Task.Category = &category
	}

	for {
		raw, err := s.in.ReadLine(s.tr.T("prompt.load"))
		if err != nil {
			return req, err
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			break
		}
		load, convErr := strconv.Atoi(raw)
		if convErr != nil || load < 0 {
			fmt.Fprintln(s.out, s.theme.WarningStyle.Render(s.tr.T("error.load", raw)))
			continue
		}
		req.CurrentTaskLoad = &load
		break
	}

	for {
		line, err := s.in.ReadLine(s.tr.T("prompt.context"))
		if err != nil {
			return req, err
		}
		if strings.TrimSpace(line) == "" {
			break
		}
		req.DailyContext = append(req.DailyContext, parseContextLine(line))
	}
	return req, nil
}

// parseContextLine splits "source: content"; lines without a source become notes.
func parseContextLine(line string) contract.ContextItem {
	line = strings.TrimSpace(line)
	source, content, ok := strings.Cut(line, ":")
	source = strings.TrimSpace(source)
	if !ok || source == "" || strings.ContainsAny(source, " \t") {
		return contract.ContextItem{SourceType: defaultSourceType, Content: line}
	}
	return contract.ContextItem{SourceType: strings.ToLower(source), Content: strings.TrimSpace(content)}
}

func isEndOfInput(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, readline.ErrInterrupt)
}
