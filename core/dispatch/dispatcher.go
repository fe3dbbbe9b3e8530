// Package dispatch pushes the latched room commands to every configured
// controller on a fixed cadence. Targets are independent: one unreachable
// controller never delays or suppresses sends to the others, and within a
// target a failed slot does not stop the remaining slots.
package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/heatplan/heatplan/core/events"
	"github.com/heatplan/heatplan/core/logger"
	coremetrics "github.com/heatplan/heatplan/core/metrics"
	"github.com/heatplan/heatplan/core/model"
	"github.com/heatplan/heatplan/internal/eventbus"
)

// Transport sends one digital CoE value to a controller. Implemented by
// coe.Emitter.
type Transport interface {
	SendDigital(ctx context.Context, host string, node, pdo uint8, on bool) error
}

// CommandSource yields the latched command for a room. Implemented by
// store.Store.
type CommandSource interface {
	Command(room string) model.Command
}

// Config defines dispatch-related settings.
type Config struct {
	PushCadenceMinutes int `json:"push_cadence_minutes"`
	SendTimeoutSeconds int `json:"send_timeout_seconds"`
}

// SetDefaults applies the default per-send timeout.
func (c *Config) SetDefaults() {
	if c.SendTimeoutSeconds == 0 {
		c.SendTimeoutSeconds = 5
	}
}

// Validate rejects cadences below the controllers' one-minute floor.
func (c Config) Validate() error {
	if c.PushCadenceMinutes < 1 {
		return fmt.Errorf("dispatch: push_cadence_minutes must be at least 1, got %d", c.PushCadenceMinutes)
	}
	if c.SendTimeoutSeconds < 1 {
		return fmt.Errorf("dispatch: send_timeout_seconds must be at least 1, got %d", c.SendTimeoutSeconds)
	}
	return nil
}

// Dispatcher fans the latched commands out to all controller targets.
type Dispatcher struct {
	cadence   time.Duration
	timeout   time.Duration
	transport Transport
	commands  CommandSource
	targets   []model.ControllerTarget
	bus       *eventbus.Bus
	sink      coremetrics.MetricsSink
	log       logger.Logger
}

// NewDispatcher validates cfg and builds a dispatcher over the configured
// targets. bus and sink may be nil.
func NewDispatcher(cfg Config, tr Transport, cmds CommandSource, targets []model.ControllerTarget, bus *eventbus.Bus, sink coremetrics.MetricsSink, log logger.Logger) (*Dispatcher, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if tr == nil || cmds == nil {
		return nil, fmt.Errorf("dispatch: nil parameter provided to NewDispatcher")
	}
	return &Dispatcher{
		cadence:   time.Duration(cfg.PushCadenceMinutes) * time.Minute,
		timeout:   time.Duration(cfg.SendTimeoutSeconds) * time.Second,
		transport: tr,
		commands:  cmds,
		targets:   targets,
		bus:       bus,
		sink:      sink,
		log:       log,
	}, nil
}

// Run pushes immediately, then on every cadence tick until the context is
// cancelled. Controllers fall back to their configured timeout value when
// pushes stop, so the loop itself is the keep-alive.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.DispatchAll(ctx)
	ticker := time.NewTicker(d.cadence)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			d.DispatchAll(ctx)
		}
	}
}

// DispatchAll performs one pass: every known room command is sent to every
// slot mapping it, one goroutine per target, slots in order within a
// target. Rooms still Unknown are skipped. The pass result is returned and
// fed to the metrics sink.
func (d *Dispatcher) DispatchAll(ctx context.Context) []coremetrics.CommandSend {
	tickID := uuid.New().String()
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		sends []coremetrics.CommandSend
	)
	record := func(cs coremetrics.CommandSend) {
		mu.Lock()
		sends = append(sends, cs)
		mu.Unlock()
	}
	for _, target := range d.targets {
		wg.Add(1)
		go func(t model.ControllerTarget) {
			defer wg.Done()
			d.dispatchTarget(ctx, tickID, t, record)
		}(target)
	}
	wg.Wait()

	if d.sink != nil && len(sends) > 0 {
		if err := d.sink.RecordCommandSends(sends); err != nil {
			d.log.Errorf("metrics error: %v", err)
		}
	}
	return sends
}

func (d *Dispatcher) dispatchTarget(ctx context.Context, tickID string, t model.ControllerTarget, record func(coremetrics.CommandSend)) {
	label := t.String()
	attempted, failed := 0, 0
	for _, slot := range t.Slots {
		if ctx.Err() != nil {
			return
		}
		cmd := d.commands.Command(slot.Room)
		if !cmd.Known() {
			d.log.Debugf("skip %s pdo %d: room %s undecided", label, slot.PDOIndex, slot.Room)
			continue
		}
		on := cmd.Bool()

		start := time.Now()
		sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
		err := d.transport.SendDigital(sendCtx, t.Host, t.VirtualCANID, slot.PDOIndex, on)
		cancel()
		latency := time.Since(start)

		attempted++
		result := "ok"
		if err != nil {
			failed++
			result = "error"
			d.log.Errorf("send %s pdo %d room %s on=%v: %v", label, slot.PDOIndex, slot.Room, on, err)
		} else {
			d.log.Debugf("sent %s pdo %d room %s on=%v in %s", label, slot.PDOIndex, slot.Room, on, latency)
		}
		commandsSent.WithLabelValues(label, result).Inc()
		sendLatency.WithLabelValues(label).Observe(latency.Seconds())

		if d.bus != nil {
			d.bus.Publish(events.SendEvent{
				TickID:  tickID,
				Target:  label,
				Room:    slot.Room,
				PDO:     slot.PDOIndex,
				On:      on,
				Err:     err,
				Latency: latency,
				At:      start.UTC(),
			})
		}
		cs := coremetrics.CommandSend{
			TickID:   tickID,
			Target:   label,
			Room:     slot.Room,
			PDOIndex: slot.PDOIndex,
			On:       on,
			Sent:     err == nil,
			Latency:  latency,
			Time:     start,
		}
		if err != nil {
			cs.Error = err.Error()
		}
		record(cs)
	}
	if attempted > 0 {
		sendFailureRate.WithLabelValues(label).Set(float64(failed) / float64(attempted))
	}
}
