package packet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	p := Packet{Address: 0x1F00EE01, Sequence: 17, Type: CON, Payload: []byte("hello")}
	decoded, err := Decode(p.Encode())
	require.NoError(t, err)
	assert.Equal(t, p.Address, decoded.Address)
	assert.Equal(t, p.Sequence, decoded.Sequence)
	assert.Equal(t, p.Type, decoded.Type)
	assert.Equal(t, p.Payload, decoded.Payload)
}

func TestSequenceIsMaskedTo5Bits(t *testing.T) {
	p := Packet{Address: 1, Sequence: 0xFF, Type: ACK}
	decoded, err := Decode(p.Encode())
	require.NoError(t, err)
	assert.Equal(t, uint8(0x1F), decoded.Sequence)
}

func TestFrameDecodeFramedRoundTrip(t *testing.T) {
	for _, typ := range []Type{PDM, POD, ACK, CON} {
		p := Packet{Address: 0xDEADBEEF, Sequence: 3, Type: typ, Payload: []byte{1, 2, 3}}
		decoded, err := DecodeFramed(p.Frame())
		require.NoError(t, err)
		assert.Equal(t, p, decoded)
	}
}

func TestDecodeFramedRejectsCorruptCRC(t *testing.T) {
	p := Packet{Address: 1, Sequence: 1, Type: POD, Payload: []byte{0xAA}}
	framed := p.Frame()
	framed[len(framed)-1] ^= 0x01
	_, err := DecodeFramed(framed)
	assert.ErrorIs(t, err, ErrCRC)
}

func TestDecodeDriverResponseStripsAdapterMeta(t *testing.T) {
	p := Packet{Address: 0xDEADBEEF, Sequence: 9, Type: POD, Payload: []byte{1, 2, 3}}
	raw := append([]byte{0xAA, 0xBB}, p.Frame()...)
	decoded, err := DecodeDriverResponse(raw)
	require.NoError(t, err)
	assert.Equal(t, p, decoded)
}

func TestDecodeDriverResponseRejectsShortBuffer(t *testing.T) {
	_, err := DecodeDriverResponse([]byte{0xAA, 0xBB, 0x00})
	assert.ErrorIs(t, err, ErrShort)
}

func TestDecodeDriverResponseRejectsCorruptCRC(t *testing.T) {
	p := Packet{Address: 1, Sequence: 1, Type: POD, Payload: []byte{0xAA}}
	framed := p.Frame()
	framed[len(framed)-1] ^= 0x01
	raw := append([]byte{0x00, 0x00}, framed...)
	_, err := DecodeDriverResponse(raw)
	assert.ErrorIs(t, err, ErrCRC)
}

func TestDecodeRejectsUnknownType(t *testing.T) {
	p := Packet{Address: 1, Sequence: 1, Type: POD}
	enc := p.Encode()
	enc[4] = 0x7F
	_, err := Decode(enc)
	assert.ErrorIs(t, err, ErrInvalidType)
}

func TestDecodeRejectsShortBuffer(t *testing.T) {
	_, err := Decode([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrShort)
}

func TestAckPayloadDistinguishesFinal(t *testing.T) {
	ack := Ack(0x1234, false)
	final := Ack(0x1234, true)
	assert.Equal(t, ACK, ack.Type)
	assert.Equal(t, ACK, final.Type)
	assert.NotEqual(t, ack.Payload, final.Payload)
}

func TestTypeString(t *testing.T) {
	assert.Equal(t, "PDM", PDM.String())
	assert.Equal(t, "POD", POD.String())
	assert.Equal(t, "ACK", ACK.String())
	assert.Equal(t, "CON", CON.String())
	assert.Contains(t, Type(99).String(), "Type(99)")
}
