package coe

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/heatplan/heatplan/core/logger"
)

// Recorder consumes decoded external-temperature readings. Implemented by
// temperature.Monitor.
type Recorder interface {
	Record(celsius float64, now time.Time)
}

// Listener receives CoE datagrams on the fixed port and forwards analog
// temperature payloads matching the configured (node, pdo index) to the
// recorder. Everything else is ignored; malformed packets are dropped and
// logged without touching the stored reading.
type Listener struct {
	bindAddr string
	node     uint8
	pdo      uint8
	rec      Recorder
	log      logger.Logger
}

// NewListener builds a listener bound to bindAddr (host only, e.g.
// "0.0.0.0") that accepts readings from the given sender node and slot.
func NewListener(bindAddr string, node, pdo uint8, rec Recorder, log logger.Logger) *Listener {
	return &Listener{bindAddr: bindAddr, node: node, pdo: pdo, rec: rec, log: log}
}

// Run binds the socket and reads until the context is cancelled.
func (l *Listener) Run(ctx context.Context) error {
	addr := net.JoinHostPort(l.bindAddr, strconv.Itoa(Port))
	var lc net.ListenConfig
	pc, err := lc.ListenPacket(ctx, "udp", addr)
	if err != nil {
		return fmt.Errorf("coe: listen %s: %w", addr, err)
	}
	l.log.Infof("listening for CoE packets on %s (node %d, pdo %d)", addr, l.node, l.pdo)
	return l.serve(ctx, pc)
}

func (l *Listener) serve(ctx context.Context, pc net.PacketConn) error {
	go func() {
		<-ctx.Done()
		pc.Close()
	}()

	// One extra byte so oversized datagrams are detected instead of
	// silently truncated to a parseable prefix.
	buf := make([]byte, maxPacketLen+1)
	for {
		n, from, err := pc.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			l.log.Warnf("coe read: %v", err)
			continue
		}
		pkt, err := Decode(buf[:n])
		if err != nil {
			l.log.Warnf("drop packet from %s: %v", from, err)
			continue
		}
		now := time.Now().UTC()
		for _, p := range pkt.Payloads {
			if p.Node != l.node || p.PDOIndex != l.pdo {
				continue
			}
			celsius, ok := p.Celsius()
			if !ok {
				l.log.Warnf("drop payload from %s: node %d pdo %d carries format %d unit %d, not a temperature",
					from, p.Node, p.PDOIndex, p.Format, p.Unit)
				continue
			}
			l.rec.Record(celsius, now)
			l.log.Debugf("external temperature %.1f°C from %s", celsius, from)
		}
	}
}
