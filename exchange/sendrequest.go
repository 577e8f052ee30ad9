package exchange

import (
	"context"
	"errors"

	"podexchange/message"
	"podexchange/packet"
)

// SendRequestGetResponse fragments msg, drives the request/ACK/continuation
// sub-protocol, ends the conversation, and returns the assembled response
// message, per spec.md §4.1. It is the engine's sole public operation.
//
// On success the response's State is always message.Complete.
//
// On failure it returns either ErrOutOfSync (counters already rewound,
// link left connected — retry at the message layer) or a *ProtocolError
// (link disconnected with errors ignored before returning). When
// stayConnected is false and the exchange succeeds, a failed disconnect
// is itself returned as a *ProtocolError.
func (e *Engine) SendRequestGetResponse(ctx context.Context, msg *message.Message, stayConnected bool) (*message.Message, error) {
	resp, err := e.sendRequest(ctx, msg)
	if err != nil {
		if errors.Is(err, ErrOutOfSync) {
			e.log.Warn("transmission out of sync, radio needs resyncing")
			return nil, err
		}
		_ = e.driver.Disconnect(true)
		return nil, err
	}

	if !stayConnected {
		if discErr := e.driver.Disconnect(false); discErr != nil {
			return nil, wrapProtocolError("failed to disconnect", discErr)
		}
	}
	return resp, nil
}

func (e *Engine) sendRequest(ctx context.Context, msg *message.Message) (*message.Message, error) {
	msg.Sequence = e.messageSequence
	e.log.Debug("sending message", "address", msg.Address, "sequence", msg.Sequence)

	packets := msg.Split()
	var received packet.Packet
	for i, p := range packets {
		want := packet.ACK
		if i == len(packets)-1 {
			want = packet.POD
		}

		var err error
		received, err = e.exchangePacket(ctx, p, want)
		if err != nil {
			return nil, err
		}
	}

	response, err := message.FromPacket(received)
	if err != nil {
		return nil, wrapProtocolError("invalid initial response packet", err)
	}

	for response.State == message.Incomplete {
		ackPacket := packet.Ack(msg.Address, false)
		con, err := e.exchangePacket(ctx, ackPacket, packet.CON)
		if err != nil {
			return nil, err
		}
		response.AddConPacket(con)
	}

	if response.State == message.Invalid {
		return nil, protocolError("received message is not valid")
	}

	e.log.Debug("received message", "address", response.Address, "sequence", response.Sequence)

	e.log.Debug("sending end of conversation")
	finalAck := packet.Ack(msg.Address, true)
	if err := e.sendFinal(ctx, finalAck); err != nil {
		return nil, err
	}
	e.log.Debug("conversation ended")

	e.messageSequence = (response.Sequence + 1) % message.SequenceMod
	return response, nil
}
