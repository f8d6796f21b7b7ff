package main

import (
	"io"
	"time"

	"smarttodo/internal/config"
	"smarttodo/internal/i18n"
	"smarttodo/internal/logging"
	"smarttodo/internal/orchestrator"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

type app struct {
	configPath string
	envFile    string
	lang       string

	cfg       config.Config
	logger    *logrus.Logger
	logCloser io.Closer
	tr        *i18n.I18n
}

func newRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:           "smarttodo",
		Short:         "Task suggestions: priority, deadlines, categories and a clearer description",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.logCloser != nil {
				return a.logCloser.Close()
			}
			return nil
		},
		RunE: func(c *cobra.Command, _ []string) error { return c.Help() },
	}
	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to config JSON/JSONC")
	cmd.PersistentFlags().StringVar(&a.envFile, "env-file", "", "Path to a .env file (default ./.env when present)")
	cmd.PersistentFlags().StringVar(&a.lang, "lang", "", "Output language (en, zh-CN)")

	cmd.AddCommand(newSuggestCmd(a))
	cmd.AddCommand(newInteractiveCmd(a))
	cmd.AddCommand(newConfigCmd(a))
	cmd.AddCommand(newVersionCmd())
	return cmd
}

func (a *app) init() error {
	cfg, err := config.LoadFrom(a.configPath, a.envFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logger, closer, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	a.logger, a.logCloser = logger, closer

	lang := a.lang
	if lang == "" {
		lang = cfg.Lang
	}
	a.tr = i18n.New(lang)
	return nil
}

func (a *app) suggester(now func() time.Time) (*orchestrator.Suggester, error) {
	return orchestrator.New(a.cfg.AI, orchestrator.Options{
		Now:    now,
		Logger: a.logger,
	})
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := io.WriteString(cmd.OutOrStdout(), "smarttodo "+version+"\n")
			return err
		},
	}
}
