package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/heatplan/heatplan/infra/coe"
	"github.com/heatplan/heatplan/infra/logger"
)

var (
	sendRoom  string
	sendState string
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send a one-shot heating command to every slot of a room",
	RunE:  runSend,
}

func init() {
	sendCmd.Flags().StringVar(&sendRoom, "room", "", "room name as configured")
	sendCmd.Flags().StringVar(&sendState, "state", "", "on or off")
	_ = sendCmd.MarkFlagRequired("room")
	_ = sendCmd.MarkFlagRequired("state")
	rootCmd.AddCommand(sendCmd)
}

func runSend(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var on bool
	switch strings.ToLower(sendState) {
	case "on":
		on = true
	case "off":
	default:
		return fmt.Errorf("state must be on or off, got %q", sendState)
	}

	logg := logger.New("send-command")
	emitter, err := coe.NewEmitter(cfg.Global.EmiterBindAddr, logg)
	if err != nil {
		return fmt.Errorf("coe emitter: %w", err)
	}

	timeout := time.Duration(cfg.Dispatch.SendTimeoutSeconds) * time.Second
	var sent, failed int
	for _, t := range cfg.ResolveTargets() {
		for _, s := range t.Slots {
			if s.Room != sendRoom {
				continue
			}
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			err := emitter.SendDigital(ctx, t.Host, t.VirtualCANID, s.PDOIndex, on)
			cancel()
			if err != nil {
				logg.Errorf("send %s pdo=%d: %v", t, s.PDOIndex+1, err)
				failed++
				continue
			}
			fmt.Printf("%s pdo=%d <- %s\n", t, s.PDOIndex+1, sendState)
			sent++
		}
	}
	if sent == 0 && failed == 0 {
		return fmt.Errorf("room %q has no controller slots", sendRoom)
	}
	if failed > 0 {
		return fmt.Errorf("send encountered errors")
	}
	return nil
}
