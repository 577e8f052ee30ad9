package exchange

import (
	"context"

	"podexchange/packet"
	"podexchange/radio"
)

// sendFinal transmits the end-of-conversation ACK, per spec.md §4.3. No
// reply is expected; silence (active send, then a passive listen)
// terminates the conversation normally. Any other valid, non-duplicate
// reply means the peer did not hear the final ACK and triggers a resync.
func (e *Engine) sendFinal(ctx context.Context, s packet.Packet) error {
	s.Sequence = e.packetSequence
	expectedAddress := s.Address
	framed := s.Frame()

	for {
		if e.stopRequested() {
			return protocolError("stop requested")
		}

		e.log.Debug("sending final packet", "sequence", s.Sequence)

		raw, err := e.driver.SendAndReceivePacket(ctx, framed, radio.ProfileFinal)
		if err != nil {
			return wrapProtocolError("radio error during sending", err)
		}

		if raw == nil {
			raw, err = e.driver.GetPacket(ctx, radio.FinalPassiveReceiveTimeout)
			if err != nil {
				return wrapProtocolError("radio error during sending", err)
			}
			if raw == nil {
				e.log.Debug("silence has fallen")
				break
			}
		}

		p, err := packet.DecodeDriverResponse(raw)
		if err != nil {
			e.log.Debug("received illegal packet", "error", err)
			continue
		}

		if p.Address != expectedAddress {
			e.log.Debug("received packet for a different address", "address", p.Address)
			continue
		}

		if e.isDuplicateOfLastReceived(p) {
			e.log.Debug("received previous response")
			continue
		}

		e.log.Warn("resynchronization requested", "observed_sequence", p.Sequence, "observed_type", p.Type)
		e.advancePacketSequence(1)
		e.messageSequence = 0
		return ErrOutOfSync
	}

	e.advancePacketSequence(1)
	e.log.Debug("send final complete")
	return nil
}
