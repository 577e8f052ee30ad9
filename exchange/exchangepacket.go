package exchange

import (
	"context"

	"podexchange/packet"
	"podexchange/radio"
)

// pdmRetryBudget is the number of PDM-type silences after which the
// exchange gives up: the pdmRetryBudget-th silence ends it with
// "exceeded retry count", per spec.md §4.2 step 3. Retries following silence on an
// ACK/CON-sourced exchange are free and do not consume this budget.
const pdmRetryBudget = 3

// exchangePacket sends s (stamping its sequence from the engine's
// packet-sequence counter) and waits for a reply of type want, per
// spec.md §4.2. On success it returns the accepted reply and has
// already advanced packetSequence and lastPacketReceived. On resync it
// returns ErrOutOfSync with counters already rewound. Any other failure
// returns a *ProtocolError.
func (e *Engine) exchangePacket(ctx context.Context, s packet.Packet, want packet.Type) (packet.Packet, error) {
	s.Sequence = e.packetSequence
	expectedSequence := (e.packetSequence + 1) % packet.SequenceMod
	expectedAddress := s.Address

	profile := radio.ProfileACK
	if s.Type == packet.PDM {
		profile = radio.ProfilePDM
	}

	retriesRemaining := pdmRetryBudget
	framed := s.Frame()

	for {
		if e.stopRequested() {
			return packet.Packet{}, protocolError("stop requested")
		}

		e.log.Debug("sending packet expecting reply", "type", s.Type, "sequence", s.Sequence, "want", want)

		raw, err := e.driver.SendAndReceivePacket(ctx, framed, profile)
		if err != nil {
			return packet.Packet{}, wrapProtocolError("radio error during send and receive", err)
		}

		if raw == nil {
			e.log.Debug("received nothing")
			if s.Type == packet.PDM {
				retriesRemaining--
				if retriesRemaining <= 0 {
					return packet.Packet{}, protocolError("exceeded retry count")
				}
			}
			continue
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

		if p.Type != want || p.Sequence != expectedSequence {
			if e.isDuplicateOfLastReceived(p) {
				e.log.Debug("received previous response")
				continue
			}

			e.log.Warn("resynchronization requested", "observed_sequence", p.Sequence, "observed_type", p.Type)
			e.packetSequence = (p.Sequence + 1) % packet.SequenceMod
			e.messageSequence = 0
			return packet.Packet{}, ErrOutOfSync
		}

		e.advancePacketSequence(2)
		e.rememberReceived(p)
		e.log.Debug("send and receive complete")
		return p, nil
	}
}
