package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/heatplan/heatplan/app"
	"github.com/heatplan/heatplan/config"
	"github.com/heatplan/heatplan/infra/logger"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "heatplan",
	Short: "Booking-driven heating dispatch service",
	Long: `heatplan keeps room heating in step with the booking calendar. It polls
the booking service, scales each room's lead and lag times with the outside
temperature and pushes the resulting on/off commands to the CMIs over CoE.`,
	RunE: runService,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
}

// Execute runs the root command.
func Execute() error { return rootCmd.Execute() }

// loadConfig reads the file behind --config. Shared by every subcommand.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func runService(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("cli").Errorf("service close: %v", err)
		}
	}()
	return svc.Run(ctx)
}
