package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ayusman/goldenreps/internal/config"
	"github.com/ayusman/goldenreps/internal/logging"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// env carries what every command needs after flag parsing.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
}

var (
	configPath string
	current    env
)

var rootCmd = &cobra.Command{
	Use:   "goldenreps",
	Short: "Golden Reps - push-up counter",
	Long: `Golden Reps watches you through the webcam, counts push-ups from your
shoulder and nose movement and keeps your best session.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		logger, err := logging.New(cfg.Logging)
		if err != nil {
			return err
		}
		current = env{cfg: cfg, logger: logger}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if current.logger != nil {
			_ = current.logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("GOLDENREPS_CONFIG"), "path to config.yaml")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(bestCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(hooksCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "goldenreps %s\n", version)
	},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if current.logger != nil {
			current.logger.Error("command failed", zap.Error(err))
		} else {
			fmt.Fprintf(os.Stderr, "goldenreps: %v\n", err)
		}
		stop()
		os.Exit(1)
	}
}
