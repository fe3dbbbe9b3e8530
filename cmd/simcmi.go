package cmd

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/heatplan/heatplan/infra/coe"
	"github.com/heatplan/heatplan/infra/logger"
)

var (
	simBind  string
	simTo    string
	simTemp  float64
	simEvery time.Duration
)

var simcmiCmd = &cobra.Command{
	Use:   "simcmi",
	Short: "Run a fake CMI for commissioning",
	Long: `simcmi listens on the CoE port and prints every payload it receives.
With --to it also replays a fixed external temperature towards the service,
using the sensor node and slot from the configuration.`,
	RunE: runSimCMI,
}

func init() {
	simcmiCmd.Flags().StringVar(&simBind, "bind", "0.0.0.0", "address to listen on")
	simcmiCmd.Flags().StringVar(&simTo, "to", "", "host to send the temperature to (enables sending)")
	simcmiCmd.Flags().Float64Var(&simTemp, "temperature", 12.0, "external temperature to send, °C")
	simcmiCmd.Flags().DurationVar(&simEvery, "every", time.Minute, "temperature send interval")
	rootCmd.AddCommand(simcmiCmd)
}

func runSimCMI(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logg := logger.New("simcmi")

	if simTo != "" {
		emitter, err := coe.NewEmitter("", logg)
		if err != nil {
			return fmt.Errorf("coe emitter: %w", err)
		}
		node := uint8(cfg.Sensor.CANID)
		pdo := cfg.Sensor.WirePDO()
		go func() {
			ticker := time.NewTicker(simEvery)
			defer ticker.Stop()
			send := func() {
				sctx, cancel := context.WithTimeout(ctx, 5*time.Second)
				defer cancel()
				if err := emitter.SendCelsius(sctx, simTo, node, pdo, simTemp); err != nil {
					logg.Errorf("send temperature: %v", err)
					return
				}
				logg.Infof("sent %.1f°C to %s (node %d, pdo %d)", simTemp, simTo, node, pdo+1)
			}
			send()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					send()
				}
			}
		}()
	}

	addr := net.JoinHostPort(simBind, strconv.Itoa(coe.Port))
	var lc net.ListenConfig
	pc, err := lc.ListenPacket(ctx, "udp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	go func() {
		<-ctx.Done()
		pc.Close()
	}()
	logg.Infof("fake CMI listening on %s", addr)

	buf := make([]byte, 1024)
	for {
		n, from, err := pc.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logg.Warnf("read: %v", err)
			continue
		}
		pkt, err := coe.Decode(buf[:n])
		if err != nil {
			logg.Warnf("drop packet from %s: %v", from, err)
			continue
		}
		for _, p := range pkt.Payloads {
			fmt.Printf("%s %s\n", from, describePayload(p))
		}
	}
}

// describePayload renders a payload the way a commissioning user reads it:
// pdo indexes one-based, as the CMI web interface and the config show them.
func describePayload(p coe.Payload) string {
	if on, ok := p.Digital(); ok {
		state := "off"
		if on {
			state = "on"
		}
		return fmt.Sprintf("digital node=%d pdo=%d %s", p.Node, p.PDOIndex+1, state)
	}
	if c, ok := p.Celsius(); ok {
		return fmt.Sprintf("analog node=%d pdo=%d %.1f°C", p.Node, p.PDOIndex+1, c)
	}
	return fmt.Sprintf("node=%d pdo=%d format=%d unit=%d value=%d",
		p.Node, p.PDOIndex+1, p.Format, p.Unit, p.Value)
}
