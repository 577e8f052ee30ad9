package exchange

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"podexchange/message"
	"podexchange/packet"
)

// buildSuccessfulConversationReplies scripts a fakeDriver reply sequence
// for a conversation with nOutgoing outgoing packets and nContinuations
// CON fragments on the way back, starting from packet sequence
// startPacketSeq and message sequence msgSeq, assuming every exchange
// succeeds on the first try (no silence, no resync).
func buildSuccessfulConversationReplies(address uint32, startPacketSeq uint8, msgSeq uint8, nOutgoing, nContinuations int) []scriptedReply {
	var replies []scriptedReply
	seq := startPacketSeq

	for i := 0; i < nOutgoing; i++ {
		expected := (seq + 1) % packet.SequenceMod
		want := packet.ACK
		if i == nOutgoing-1 {
			want = packet.POD
		}
		header := (msgSeq & 0x0F) << 4
		if want == packet.POD && nContinuations > 0 {
			header |= 0x01
		}
		payload := []byte{0x00}
		if want == packet.POD {
			payload = []byte{header}
		}
		replies = append(replies, scriptedReply{framed: driverBytes(packet.Packet{
			Address: address, Sequence: expected, Type: want, Payload: payload,
		}.Frame())})
		seq = (seq + 2) % packet.SequenceMod
	}

	for i := 0; i < nContinuations; i++ {
		expected := (seq + 1) % packet.SequenceMod
		header := (msgSeq & 0x0F) << 4
		if i < nContinuations-1 {
			header |= 0x01
		}
		replies = append(replies, scriptedReply{framed: driverBytes(packet.Packet{
			Address: address, Sequence: expected, Type: packet.CON, Payload: []byte{header},
		}.Frame())})
		seq = (seq + 2) % packet.SequenceMod
	}

	// End-of-conversation ACK: silence terminates.
	replies = append(replies, scriptedReply{framed: nil})
	return replies
}

// TestPropertyCounterDiscipline checks spec.md §8 invariant 1, generalised
// to conversations that include continuation fragments: a successful
// exchange advances packet_sequence by 2*(outgoing packets) +
// 2*(continuation fragments) + 1, mod 32 — spec.md's stated formula
// 2n+1 is the zero-continuation special case of this.
func TestPropertyCounterDiscipline(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		startPacketSeq := uint8(rapid.IntRange(0, 31).Draw(t, "startPacketSeq"))
		msgSeq := uint8(rapid.IntRange(0, 15).Draw(t, "msgSeq"))
		nOutgoing := rapid.IntRange(1, 4).Draw(t, "nOutgoing")
		nContinuations := rapid.IntRange(0, 4).Draw(t, "nContinuations")

		replies := buildSuccessfulConversationReplies(testAddress, startPacketSeq, msgSeq, nOutgoing, nContinuations)
		driver := &fakeDriver{replies: replies}
		e := New(driver, WithPacketSequenceSeed(startPacketSeq), WithMessageSequenceSeed(msgSeq))

		// Large enough body to force nOutgoing fragments.
		body := make([]byte, (nOutgoing-1)*message.MaxFragmentPayload+1)
		msg := message.NewOutgoing(testAddress, body)

		resp, err := e.SendRequestGetResponse(context.Background(), msg, true)
		require.NoError(t, err)

		want := (uint32(startPacketSeq) + 2*uint32(nOutgoing) + 2*uint32(nContinuations) + 1) % packet.SequenceMod
		assert.Equal(t, want, uint32(e.PacketSequence()))
		assert.Equal(t, msgSeq, resp.Sequence)
		assert.Equal(t, (msgSeq+1)%message.SequenceMod, e.MessageSequence())
	})
}
