package coe

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/heatplan/heatplan/core/logger"
)

// Emitter sends CoE datagrams to controllers. Heating commands go out one
// payload per packet: a resend of an unchanged command is bit-identical,
// and a slot's failure can never take other slots down with it.
type Emitter struct {
	local *net.UDPAddr
	log   logger.Logger
}

// NewEmitter builds an emitter whose outbound sockets bind to bindAddr
// (an address like "0.0.0.0"; the port is always ephemeral).
func NewEmitter(bindAddr string, log logger.Logger) (*Emitter, error) {
	e := &Emitter{log: log}
	if bindAddr != "" && bindAddr != "0.0.0.0" {
		ip := net.ParseIP(bindAddr)
		if ip == nil {
			return nil, fmt.Errorf("coe: invalid bind address %q", bindAddr)
		}
		e.local = &net.UDPAddr{IP: ip}
	}
	return e, nil
}

// SendDigital sends one on/off command to a controller output slot.
func (e *Emitter) SendDigital(ctx context.Context, host string, node, pdo uint8, on bool) error {
	return e.send(ctx, host, DigitalPayload(node, pdo, on))
}

// SendCelsius sends one temperature value, as a sensor-side CMI would.
func (e *Emitter) SendCelsius(ctx context.Context, host string, node, pdo uint8, celsius float64) error {
	return e.send(ctx, host, AnalogCelsiusPayload(node, pdo, celsius))
}

func (e *Emitter) send(ctx context.Context, host string, p Payload) error {
	b, err := Encode([]Payload{p})
	if err != nil {
		return err
	}
	addr := EnsurePort(host)
	d := net.Dialer{LocalAddr: e.local}
	conn, err := d.DialContext(ctx, "udp", addr)
	if err != nil {
		return fmt.Errorf("coe: dial %s: %w", addr, err)
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetWriteDeadline(deadline); err != nil {
			return fmt.Errorf("coe: set deadline: %w", err)
		}
	}
	if _, err := conn.Write(b); err != nil {
		return fmt.Errorf("coe: send to %s: %w", addr, err)
	}
	return nil
}

// EnsurePort appends the CoE port to addresses given without one.
func EnsurePort(host string) string {
	if _, _, err := net.SplitHostPort(host); err == nil {
		return host
	}
	return net.JoinHostPort(host, strconv.Itoa(Port))
}
