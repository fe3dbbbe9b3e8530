package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/heatplan/heatplan/core/holdover"
	"github.com/heatplan/heatplan/infra/churchtools"
	"github.com/heatplan/heatplan/infra/logger"
	"github.com/heatplan/heatplan/pkg/export"
)

var (
	planFormat string
	planTemp   float64
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Print the upcoming heat windows per room",
	Long: `plan fetches the bookings over the configured lookahead and prints the
heat window each booking expands to. Without --temperature the configured
maximum lead and lag times apply, as they would with a stale sensor.`,
	RunE: runPlan,
}

func init() {
	planCmd.Flags().StringVar(&planFormat, "format", "csv", "output format: csv or json")
	planCmd.Flags().Float64Var(&planTemp, "temperature", 0, "assume this external temperature, °C")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if planFormat != "csv" && planFormat != "json" {
		return fmt.Errorf("format must be csv or json, got %q", planFormat)
	}

	client, err := churchtools.NewClient(
		churchtools.Config{Host: cfg.CT.Host, LoginToken: cfg.CT.LoginToken},
		logger.New("plan-command"),
	)
	if err != nil {
		return fmt.Errorf("churchtools client: %w", err)
	}
	scaler, err := holdover.New(cfg.Holdover)
	if err != nil {
		return err
	}

	var temp *float64
	if cmd.Flags().Changed("temperature") {
		temp = &planTemp
	}

	now := time.Now().UTC()
	lookahead := time.Duration(cfg.CT.LookaheadHours) * time.Hour
	reqTimeout := time.Duration(cfg.CT.RequestTimeoutSeconds) * time.Second

	var entries []export.Entry
	for _, r := range cfg.ResolveRooms() {
		lead, lag := scaler.Effective(r.Preheat, r.Preshutdown, temp)
		reqCtx, cancel := context.WithTimeout(ctx, reqTimeout)
		bookings, err := client.Bookings(reqCtx, r.ChurchToolsID, now.Add(-r.Preshutdown), now.Add(lookahead))
		cancel()
		if err != nil {
			return fmt.Errorf("bookings for %s: %w", r.Name, err)
		}
		for _, b := range bookings {
			from, to := b.HeatWindow(lead, lag)
			entries = append(entries, export.Entry{
				Room:      r.Name,
				Start:     b.Start,
				End:       b.End,
				HeatFrom:  from,
				HeatUntil: to,
			})
		}
	}

	if planFormat == "json" {
		return export.WriteJSON(cmd.OutOrStdout(), entries)
	}
	return export.WriteCSV(cmd.OutOrStdout(), entries)
}
