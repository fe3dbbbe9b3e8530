// Package coe implements the CAN-over-Ethernet datagram format spoken by
// CMI-style controllers, an emitter for outbound heating commands and a
// listener for the inbound external temperature feed.
//
// A datagram is a 4-byte header {version 2, 0, payload count, 0} followed
// by up to 31 payloads of 8 bytes each: {node, pdo index, format, unit,
// little-endian int32 value}. The largest well-formed packet is 252 bytes.
package coe

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Port is the fixed UDP port CMI-style controllers send and receive on.
const Port = 5442

const (
	versionMajor = 0x02
	versionMinor = 0x00

	headerLen  = 4
	payloadLen = 8

	// MaxPayloads is the per-packet payload limit.
	MaxPayloads = 31

	maxPacketLen = headerLen + MaxPayloads*payloadLen
)

// Payload formats.
const (
	formatDigital = 0
	formatAnalog  = 1
)

// Payload units (the controller-side "Einheit" codes).
const (
	// UnitCelsius marks an analog value in tenths of a degree Celsius.
	UnitCelsius = 1
	// UnitOnOff marks a digital on/off value.
	UnitOnOff = 43
)

// Payload is one value addressed to (node, pdo index). PDO indexes are
// zero-based on the wire.
type Payload struct {
	Node     uint8
	PDOIndex uint8
	Format   uint8
	Unit     uint8
	Value    int32
}

// DigitalPayload builds an on/off payload for a controller output slot.
func DigitalPayload(node, pdo uint8, on bool) Payload {
	var v int32
	if on {
		v = 1
	}
	return Payload{Node: node, PDOIndex: pdo, Format: formatDigital, Unit: UnitOnOff, Value: v}
}

// AnalogCelsiusPayload builds a temperature payload in tenths of a degree.
func AnalogCelsiusPayload(node, pdo uint8, celsius float64) Payload {
	return Payload{
		Node:     node,
		PDOIndex: pdo,
		Format:   formatAnalog,
		Unit:     UnitCelsius,
		Value:    int32(math.Round(celsius * 10)),
	}
}

// Digital returns the on/off value if the payload is digital.
func (p Payload) Digital() (on, ok bool) {
	if p.Format != formatDigital {
		return false, false
	}
	return p.Value != 0, true
}

// Celsius returns the temperature if the payload is an analog value in
// degrees Celsius.
func (p Payload) Celsius() (float64, bool) {
	if p.Format != formatAnalog || p.Unit != UnitCelsius {
		return 0, false
	}
	return float64(p.Value) / 10, true
}

// Packet is a decoded CoE datagram.
type Packet struct {
	Payloads []Payload
}

// DecodeError describes why an inbound datagram was rejected. Such packets
// are dropped and logged; they never reach the temperature monitor.
type DecodeError struct {
	Reason string
	Length int
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("coe: %s (packet length %d)", e.Reason, e.Length)
}

// Encode serializes payloads into one datagram.
func Encode(payloads []Payload) ([]byte, error) {
	if len(payloads) == 0 {
		return nil, fmt.Errorf("coe: encode empty packet")
	}
	if len(payloads) > MaxPayloads {
		return nil, fmt.Errorf("coe: %d payloads exceed the %d per-packet limit", len(payloads), MaxPayloads)
	}
	b := make([]byte, headerLen, headerLen+len(payloads)*payloadLen)
	b[0] = versionMajor
	b[1] = versionMinor
	b[2] = uint8(len(payloads))
	b[3] = 0
	for _, p := range payloads {
		b = append(b, p.Node, p.PDOIndex, p.Format, p.Unit)
		b = binary.LittleEndian.AppendUint32(b, uint32(p.Value))
	}
	return b, nil
}

// Decode parses one datagram. The fourth header byte is ignored on input.
func Decode(b []byte) (Packet, error) {
	switch {
	case len(b) < headerLen+payloadLen:
		return Packet{}, &DecodeError{Reason: "packet too short", Length: len(b)}
	case len(b) > maxPacketLen:
		return Packet{}, &DecodeError{Reason: "packet too long", Length: len(b)}
	case b[0] != versionMajor || b[1] != versionMinor:
		return Packet{}, &DecodeError{
			Reason: fmt.Sprintf("unsupported version %d.%d", b[0], b[1]),
			Length: len(b),
		}
	case (len(b)-headerLen)%payloadLen != 0:
		return Packet{}, &DecodeError{Reason: "truncated payload", Length: len(b)}
	}
	count := (len(b) - headerLen) / payloadLen
	if int(b[2]) != count {
		return Packet{}, &DecodeError{
			Reason: fmt.Sprintf("header says %d payloads, packet carries %d", b[2], count),
			Length: len(b),
		}
	}
	pkt := Packet{Payloads: make([]Payload, 0, count)}
	for i := 0; i < count; i++ {
		off := headerLen + i*payloadLen
		pkt.Payloads = append(pkt.Payloads, Payload{
			Node:     b[off],
			PDOIndex: b[off+1],
			Format:   b[off+2],
			Unit:     b[off+3],
			Value:    int32(binary.LittleEndian.Uint32(b[off+4 : off+8])),
		})
	}
	return pkt, nil
}
