// Package message implements the message assembler: splitting an
// outgoing logical message into packets, and reassembling an incoming
// message from a POD packet followed by zero or more CON packets.
package message

import (
	"errors"
	"fmt"

	"podexchange/packet"
)

// State is a closed enumeration of assembly states.
type State byte

const (
	// Incomplete means more CON packets are expected.
	Incomplete State = iota
	// Complete means the message is fully assembled.
	Complete
	// Invalid means assembly failed (malformed framing or mismatched
	// message sequence across fragments).
	Invalid
)

func (s State) String() string {
	switch s {
	case Incomplete:
		return "Incomplete"
	case Complete:
		return "Complete"
	case Invalid:
		return "Invalid"
	default:
		return fmt.Sprintf("State(%d)", byte(s))
	}
}

// SequenceMod is the modulus of the message sequence counter.
const SequenceMod = 16

// MaxFragmentPayload is the largest chunk of message body carried by a
// single packet, leaving one byte for the fragment header.
const MaxFragmentPayload = 31

// ErrWrongType is returned by FromPacket/AddConPacket when handed a
// packet of the wrong type.
var ErrWrongType = errors.New("message: unexpected packet type")

// ErrEmptyPayload is returned when a packet carries no fragment header byte.
var ErrEmptyPayload = errors.New("message: packet payload too short for fragment header")

// FragmentHeader packs a fragment's message sequence and continuation
// flag into the first byte of its payload: bits 7..4 = message
// sequence, bit 0 = "more fragments follow". Exported so collaborators
// outside this package (e.g. radio/simulator's Pod responder) can speak
// the same fragmentation format without re-deriving it.
func FragmentHeader(sequence uint8, more bool) byte {
	h := (sequence & 0x0F) << 4
	if more {
		h |= 0x01
	}
	return h
}

// ParseFragmentHeader is the inverse of FragmentHeader.
func ParseFragmentHeader(h byte) (sequence uint8, more bool) {
	return (h >> 4) & 0x0F, h&0x01 != 0
}

// Message is one logical command or response.
type Message struct {
	Address  uint32
	Sequence uint8 // 0..15
	State    State
	body     []byte
}

// Body returns the assembled (or to-be-sent) payload.
func (m *Message) Body() []byte { return m.body }

// SetBody sets the outgoing payload to send, for use before Split.
func (m *Message) SetBody(body []byte) { m.body = body }

// NewOutgoing builds a message ready for Split, with sequence to be
// stamped by the caller (the exchange engine, per spec.md §4.1 step 1).
func NewOutgoing(address uint32, body []byte) *Message {
	return &Message{Address: address, body: body}
}

// Split fragments an outgoing message into an ordered, non-empty list of
// packets. Every packet is type PDM; the sequence field of each is left
// zero for the exchange engine to stamp per spec.md §4.2 step 1.
func (m *Message) Split() []packet.Packet {
	body := m.body
	if len(body) == 0 {
		return []packet.Packet{{
			Address: m.Address,
			Type:    packet.PDM,
			Payload: []byte{FragmentHeader(m.Sequence, false)},
		}}
	}

	var packets []packet.Packet
	for offset := 0; offset < len(body); offset += MaxFragmentPayload {
		end := offset + MaxFragmentPayload
		if end > len(body) {
			end = len(body)
		}
		more := end < len(body)
		payload := append([]byte{FragmentHeader(m.Sequence, more)}, body[offset:end]...)
		packets = append(packets, packet.Packet{
			Address: m.Address,
			Type:    packet.PDM,
			Payload: payload,
		})
	}
	return packets
}

// FromPacket seeds an incoming response message from the initial POD
// packet, per spec.md §4.4.
func FromPacket(p packet.Packet) (*Message, error) {
	if p.Type != packet.POD {
		return nil, fmt.Errorf("%w: FromPacket expects POD, got %s", ErrWrongType, p.Type)
	}
	if len(p.Payload) == 0 {
		return nil, ErrEmptyPayload
	}

	seq, more := ParseFragmentHeader(p.Payload[0])
	m := &Message{
		Address:  p.Address,
		Sequence: seq,
		body:     append([]byte(nil), p.Payload[1:]...),
	}
	if more {
		m.State = Incomplete
	} else {
		m.State = Complete
	}
	return m, nil
}

// AddConPacket appends a CON continuation fragment, per spec.md §4.4.
// It is only valid to call while m.State == Incomplete; the caller (the
// exchange engine) enforces that invariant by looping on State.
func (m *Message) AddConPacket(p packet.Packet) {
	if p.Type != packet.CON {
		m.State = Invalid
		return
	}
	if len(p.Payload) == 0 {
		m.State = Invalid
		return
	}

	seq, more := ParseFragmentHeader(p.Payload[0])
	if seq != m.Sequence {
		m.State = Invalid
		return
	}

	m.body = append(m.body, p.Payload[1:]...)
	if more {
		m.State = Incomplete
	} else {
		m.State = Complete
	}
}
