// Package simulator implements an in-process stand-in for a Pod, for
// exercising the exchange engine without real RileyLink-compatible
// hardware. It speaks the controller side of the protocol from the
// other direction: it receives framed PDM/ACK packets and answers with
// POD/CON/ACK packets built the same way message.Split builds an
// outgoing request, per spec.md §4.1-§4.4.
package simulator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"podexchange/message"
	"podexchange/packet"
	"podexchange/radio"
)

// Handler computes a response body for a fully reassembled request body.
type Handler func(requestBody []byte) []byte

// Pod is a radio.Driver that plays the Pod's half of the conversation
// in-process, for use by tests and the podexchange-sim command.
type Pod struct {
	Address uint32
	Handle  Handler

	mu          sync.Mutex
	reqBody     []byte
	reqActive   bool
	msgSeq      uint8
	pending     []packet.Packet // staged CON fragments awaiting ACK pull
	disconnects int
}

// New builds a Pod ready to answer requests addressed to address.
func New(address uint32, handle Handler) *Pod {
	return &Pod{Address: address, Handle: handle}
}

// SendAndReceivePacket decodes framed as a packet addressed to the pod
// and returns its reply, framed the same way, or nil for silence.
func (p *Pod) SendAndReceivePacket(_ context.Context, framed []byte, _ radio.TimingProfile) ([]byte, error) {
	pkt, err := packet.DecodeFramed(framed)
	if err != nil {
		return nil, fmt.Errorf("simulator: decode: %w", err)
	}
	if pkt.Address != p.Address {
		return nil, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	switch pkt.Type {
	case packet.PDM:
		return p.handlePDM(pkt)
	case packet.ACK:
		return p.handleACK(pkt)
	default:
		return nil, fmt.Errorf("simulator: unexpected packet type %s from controller", pkt.Type)
	}
}

// handlePDM accumulates one request fragment. While more fragments are
// signalled it replies with a non-final ACK requesting the next one;
// once the request is complete it invokes Handle and stages the
// response, returning its first fragment (type POD).
func (p *Pod) handlePDM(pkt packet.Packet) ([]byte, error) {
	if len(pkt.Payload) == 0 {
		return nil, message.ErrEmptyPayload
	}
	_, more := message.ParseFragmentHeader(pkt.Payload[0])
	p.reqBody = append(p.reqBody, pkt.Payload[1:]...)
	p.reqActive = true

	if more {
		ack := packet.Ack(p.Address, false)
		ack.Sequence = (pkt.Sequence + 1) % packet.SequenceMod
		return driverBytes(ack.Frame()), nil
	}

	body := p.reqBody
	p.reqBody = nil
	p.reqActive = false

	var respBody []byte
	if p.Handle != nil {
		respBody = p.Handle(body)
	}

	out := message.NewOutgoing(p.Address, respBody)
	out.Sequence = p.msgSeq
	p.msgSeq = (p.msgSeq + 1) % message.SequenceMod

	fragments := out.Split()
	fragments[0].Type = packet.POD
	for i := 1; i < len(fragments); i++ {
		fragments[i].Type = packet.CON
	}
	p.pending = fragments[1:]

	head := fragments[0]
	head.Sequence = (pkt.Sequence + 1) % packet.SequenceMod
	return driverBytes(head.Frame()), nil
}

// handleACK pops the next staged continuation fragment (non-final ACK)
// or resets conversation state (final ACK, ending it with silence).
func (p *Pod) handleACK(pkt packet.Packet) ([]byte, error) {
	if len(pkt.Payload) == 0 {
		return nil, message.ErrEmptyPayload
	}
	final := pkt.Payload[0] == 0x01
	if final {
		p.pending = nil
		return nil, nil
	}
	if len(p.pending) == 0 {
		return nil, nil
	}
	next := p.pending[0]
	p.pending = p.pending[1:]
	next.Sequence = (pkt.Sequence + 1) % packet.SequenceMod
	return driverBytes(next.Frame()), nil
}

// GetPacket is never used by this Pod: it only ever answers in
// response to a transmission, so passive listening always finds silence.
func (p *Pod) GetPacket(_ context.Context, _ time.Duration) ([]byte, error) {
	return nil, nil
}

// Disconnect just counts the call; there is no real link to release.
func (p *Pod) Disconnect(_ bool) error {
	p.mu.Lock()
	p.disconnects++
	p.mu.Unlock()
	return nil
}

// driverBytes prepends the 2-byte radio-adapter framing metadata every
// radio.Driver return value carries per spec.md §6. The pod has no
// real adapter reporting signal/timing info, so it stands in zero bytes.
func driverBytes(framed []byte) []byte {
	return append([]byte{0x00, 0x00}, framed...)
}
