package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/dayplan/app"
	"github.com/kilianp07/dayplan/config"
	"github.com/kilianp07/dayplan/infra/logger"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Watch the configured plan file and resolve it on every edit",
	RunE:  run,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func run(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()
	logger.New("main").Infof("watching %s", cfg.Plan.Path)
	return svc.Run(ctx)
}
