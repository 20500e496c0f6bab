package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dunamismax/easyconvert/internal/config"
	"github.com/dunamismax/easyconvert/internal/logger"
	"github.com/dunamismax/easyconvert/internal/pipeline"
)

// commandContext carries the settings shared by every subcommand.
type commandContext struct {
	cfg      config.Config
	log      *slog.Logger
	logLevel string
	locale   string
}

func (c *commandContext) policy() pipeline.Policy {
	return pipeline.Policy(c.cfg.Policy)
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "easyconvert",
		Short:         "Convert HEIC and other images to JPEG the way the bot does",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}
			ctx.cfg = config.Load()
			if ctx.locale != "" {
				ctx.cfg.Locale = ctx.locale
			}
			level := ctx.logLevel
			if level == "" {
				level = ctx.cfg.Log.Level
			}
			ctx.log = logger.New(cmd.ErrOrStderr(), level, ctx.cfg.Log.Format)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&ctx.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&ctx.locale, "locale", "", "Message language (ru or en)")

	rootCmd.AddCommand(newConvertCommand(ctx))
	rootCmd.AddCommand(newValidateCommand(ctx))
	return rootCmd
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
