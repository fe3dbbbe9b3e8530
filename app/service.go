// Package app wires the configuration into the running service: room store,
// temperature monitor, poll/decision/dispatch loops, CoE sockets, metrics
// sinks, the ops HTTP server and the optional MQTT mirror.
package app

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	apidispatch "github.com/heatplan/heatplan/api/dispatch"
	"github.com/heatplan/heatplan/api/rooms"
	"github.com/heatplan/heatplan/config"
	"github.com/heatplan/heatplan/core/booking"
	"github.com/heatplan/heatplan/core/dispatch"
	"github.com/heatplan/heatplan/core/engine"
	"github.com/heatplan/heatplan/core/holdover"
	coremetrics "github.com/heatplan/heatplan/core/metrics"
	"github.com/heatplan/heatplan/core/store"
	"github.com/heatplan/heatplan/core/temperature"
	"github.com/heatplan/heatplan/infra/churchtools"
	"github.com/heatplan/heatplan/infra/coe"
	"github.com/heatplan/heatplan/infra/logger"
	"github.com/heatplan/heatplan/infra/metrics"
	"github.com/heatplan/heatplan/infra/mqtt"
	"github.com/heatplan/heatplan/internal/eventbus"
)

// Service orchestrates the loops and owns the resources they share.
type Service struct {
	cfg         *config.Config
	bus         *eventbus.Bus
	store       *store.Store
	monitor     *temperature.Monitor
	poller      *booking.Poller
	dispatcher  *dispatch.Dispatcher
	listener    *coe.Listener
	mirror      *mqtt.Mirror
	sinks       []coremetrics.MetricsSink
	dispatchLog *apidispatch.Log
	roomsAPI    http.Handler
	logsAPI     http.Handler
	log         logger.Logger
}

// New creates a Service from the configuration. Every failure here is a
// startup failure: the process refuses to run on a broken config or an
// unreachable mandatory collaborator.
func New(cfg *config.Config) (*Service, error) {
	if err := logger.SetLevel(cfg.Global.LogLevel); err != nil {
		return nil, err
	}
	log := logger.New("service")

	roomList := cfg.ResolveRooms()
	targets := cfg.ResolveTargets()
	st := store.New(roomList)
	bus := eventbus.New()

	var sinks []coremetrics.MetricsSink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink(cfg.Metrics)
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(cfg.Metrics))
	}
	var sink coremetrics.MetricsSink = coremetrics.NopSink{}
	if len(sinks) == 1 {
		sink = sinks[0]
	} else if len(sinks) > 1 {
		sink = metrics.NewMultiSink(sinks...)
	}
	var (
		pollRec coremetrics.PollRecorder
		tempRec coremetrics.TemperatureRecorder
		cmdRec  coremetrics.CommandRecorder
	)
	if r, ok := sink.(coremetrics.PollRecorder); ok {
		pollRec = r
	}
	if r, ok := sink.(coremetrics.TemperatureRecorder); ok {
		tempRec = r
	}
	if r, ok := sink.(coremetrics.CommandRecorder); ok {
		cmdRec = r
	}

	monitor := temperature.New(logger.New("temperature"), bus, tempRec)

	scaler, err := holdover.New(cfg.Holdover)
	if err != nil {
		return nil, err
	}

	client, err := churchtools.NewClient(
		churchtools.Config{Host: cfg.CT.Host, LoginToken: cfg.CT.LoginToken},
		logger.New("churchtools"),
	)
	if err != nil {
		return nil, fmt.Errorf("churchtools client: %w", err)
	}

	eng := engine.New(st, roomList, monitor, scaler, cfg.Sensor.StaleAfter(), bus, cmdRec, logger.New("engine"))

	poller, err := booking.NewPoller(cfg.BookingConfig(), client, st, roomList, eng, bus, pollRec, logger.New("booking"))
	if err != nil {
		return nil, err
	}

	emitter, err := coe.NewEmitter(cfg.Global.EmiterBindAddr, logger.New("coe-emitter"))
	if err != nil {
		return nil, err
	}

	dispatcher, err := dispatch.NewDispatcher(cfg.DispatcherConfig(), emitter, st, targets, bus, sink, logger.New("dispatch"))
	if err != nil {
		return nil, err
	}

	listener := coe.NewListener(cfg.Sensor.BindAddr, uint8(cfg.Sensor.CANID), cfg.Sensor.WirePDO(), monitor, logger.New("coe-listener"))

	svc := &Service{
		cfg:        cfg,
		bus:        bus,
		store:      st,
		monitor:    monitor,
		poller:     poller,
		dispatcher: dispatcher,
		listener:   listener,
		sinks:      sinks,
		log:        log,
	}
	svc.roomsAPI = rooms.NewStatusHandler(st, roomList, scaler, monitor, cfg.Sensor.StaleAfter())
	if cfg.Metrics.PrometheusEnabled {
		svc.dispatchLog = apidispatch.NewLog(0, bus)
		svc.logsAPI = apidispatch.NewLogHandler(svc.dispatchLog, cfg.Metrics.OpsToken)
	}

	if cfg.MQTT.Enabled {
		mirror, err := mqtt.NewMirror(cfg.MQTT, bus)
		if err != nil {
			return nil, fmt.Errorf("mqtt mirror: %w", err)
		}
		svc.mirror = mirror
	}
	return svc, nil
}

// Run starts all loops and blocks until the context is cancelled and every
// loop has finished its in-flight pass.
func (s *Service) Run(ctx context.Context) error {
	s.log.Infof("starting: %d rooms, %d controller targets", len(s.store.Rooms()), len(s.cfg.CMIs))

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		// A bind failure is not fatal: the feed stays stale and the
		// configured maxima keep applying.
		if err := s.listener.Run(ctx); err != nil {
			s.log.Errorf("coe listener: %v", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := s.poller.Run(ctx); err != nil {
			s.log.Errorf("booking poller: %v", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := s.dispatcher.Run(ctx); err != nil {
			s.log.Errorf("dispatcher: %v", err)
		}
	}()

	if s.cfg.Metrics.PrometheusEnabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := metrics.StartOpsServer(ctx, s.cfg.Metrics.PrometheusAddr, s.roomsAPI, s.logsAPI); err != nil {
				s.log.Errorf("ops server: %v", err)
			}
		}()
	}

	if s.dispatchLog != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.dispatchLog.Run(ctx)
		}()
	}

	if s.mirror != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.mirror.Run(ctx)
		}()
	}

	<-ctx.Done()
	wg.Wait()
	return nil
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	if s.mirror != nil {
		s.mirror.Disconnect()
	}
	if s.dispatchLog != nil {
		s.dispatchLog.Close()
	}
	s.bus.Close()
	for _, sink := range s.sinks {
		if c, ok := sink.(interface{ Close() }); ok {
			c.Close()
		}
	}
	return nil
}
