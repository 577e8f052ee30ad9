// Package packet implements the on-air packet codec: a closed set of
// packet types, a 5-bit sequence counter, and the synthetic ACK packets
// used to drive and end a conversation.
package packet

import (
	"errors"
	"fmt"

	"podexchange/crc"
)

// Type is a closed enumeration of on-air packet types.
type Type byte

const (
	// PDM is a controller-to-pod, data-carrying packet.
	PDM Type = iota
	// POD is the pod's first (or only) response fragment.
	POD
	// ACK is a one-byte acknowledgement, sent by either side.
	ACK
	// CON is a pod-to-controller continuation fragment.
	CON
)

func (t Type) String() string {
	switch t {
	case PDM:
		return "PDM"
	case POD:
		return "POD"
	case ACK:
		return "ACK"
	case CON:
		return "CON"
	default:
		return fmt.Sprintf("Type(%d)", byte(t))
	}
}

// SequenceMod is the modulus of the packet sequence counter.
const SequenceMod = 32

// ErrInvalidType is returned when a decoded byte does not map to a known Type.
var ErrInvalidType = errors.New("packet: invalid type byte")

// ErrShort is returned when a buffer is too short to contain a packet.
var ErrShort = errors.New("packet: buffer too short")

// ErrCRC is returned when a packet's trailing CRC-8 does not match.
var ErrCRC = errors.New("packet: CRC mismatch")

// Packet is one on-air unit: address, 5-bit sequence, type, and payload.
type Packet struct {
	Address  uint32
	Sequence uint8 // 0..31
	Type     Type
	Payload  []byte
}

// wire layout (before CRC framing):
//
//	[address(4) | type(1) | sequence(1) | payload(...)]
const headerSize = 6

// typeByte maps a Type to its on-air encoding. Kept distinct from the Go
// Type enumeration per spec: the wire encoding is owned by the packet
// codec, not exposed to callers.
func typeByte(t Type) (byte, bool) {
	switch t {
	case PDM:
		return 0x1, true
	case POD:
		return 0x2, true
	case ACK:
		return 0x3, true
	case CON:
		return 0x4, true
	default:
		return 0, false
	}
}

func typeFromByte(b byte) (Type, bool) {
	switch b {
	case 0x1:
		return PDM, true
	case 0x2:
		return POD, true
	case 0x3:
		return ACK, true
	case 0x4:
		return CON, true
	default:
		return 0, false
	}
}

// Encode serialises p into an unframed wire buffer (no trailing CRC).
func (p Packet) Encode() []byte {
	tb, ok := typeByte(p.Type)
	if !ok {
		tb = 0
	}
	buf := make([]byte, 0, headerSize+len(p.Payload))
	buf = append(buf,
		byte(p.Address>>24), byte(p.Address>>16), byte(p.Address>>8), byte(p.Address),
		tb,
		p.Sequence&0x1F,
	)
	return append(buf, p.Payload...)
}

// Decode parses an unframed wire buffer (payload only, CRC already
// stripped and verified by the caller) into a Packet.
func Decode(data []byte) (Packet, error) {
	if len(data) < headerSize {
		return Packet{}, ErrShort
	}
	t, ok := typeFromByte(data[4])
	if !ok {
		return Packet{}, fmt.Errorf("%w: 0x%02x", ErrInvalidType, data[4])
	}
	return Packet{
		Address:  uint32(data[0])<<24 | uint32(data[1])<<16 | uint32(data[2])<<8 | uint32(data[3]),
		Type:     t,
		Sequence: data[5] & 0x1F,
		Payload:  append([]byte(nil), data[6:]...),
	}, nil
}

// Frame returns the on-air bytes for p: encoded payload plus trailing CRC-8.
func (p Packet) Frame() []byte {
	return crc.Append(p.Encode())
}

// DecodeFramed verifies the trailing CRC-8 on framed and decodes the
// remainder, per spec.md §4.5/§8.4: any CRC mismatch is reported as
// ErrCRC so the caller treats the packet as illegal and keeps listening.
// framed is the on-air form [packet_payload(≥1) | crc8(1)] — what a
// Packet's own Frame() produces. It carries no radio-adapter framing
// metadata; driver-returned bytes do, and must go through
// DecodeDriverResponse instead.
func DecodeFramed(framed []byte) (Packet, error) {
	if !crc.Check(framed) {
		return Packet{}, ErrCRC
	}
	return Decode(framed[:len(framed)-1])
}

// adapterMetaSize is the width of the radio-adapter framing metadata
// (e.g. signal/timing info the adapter firmware stamps on a packet it
// captured) that precedes every driver-returned packet, per spec.md §6.
const adapterMetaSize = 2

// DecodeDriverResponse unpacks bytes as returned by radio.Driver's
// SendAndReceivePacket/GetPacket: [adapter_meta(2) | packet_payload(≥1)
// | crc8(1)], per spec.md §4.5/§6. It discards the leading adapter_meta
// bytes and hands the remainder to DecodeFramed, mirroring the
// retrieved original implementation's _get_packet, which computes its
// CRC over data[2:-1] and compares it against the trailing data[-1].
func DecodeDriverResponse(raw []byte) (Packet, error) {
	if len(raw) < adapterMetaSize+1+1 {
		return Packet{}, ErrShort
	}
	return DecodeFramed(raw[adapterMetaSize:])
}

// Ack builds the synthetic ACK packet used to request the next
// continuation fragment (final=false) or to end the conversation
// (final=true). Its sequence is stamped by the caller before sending.
func Ack(address uint32, final bool) Packet {
	payload := []byte{0x00}
	if final {
		payload = []byte{0x01}
	}
	return Packet{Address: address, Type: ACK, Payload: payload}
}
