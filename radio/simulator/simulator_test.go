package simulator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"podexchange/exchange"
	"podexchange/message"
)

func TestPodEchoesUppercasedBody(t *testing.T) {
	const address = 0x1234ABCD
	pod := New(address, func(req []byte) []byte {
		out := make([]byte, len(req))
		for i, b := range req {
			if b >= 'a' && b <= 'z' {
				b -= 'a' - 'A'
			}
			out[i] = b
		}
		return out
	})

	eng := exchange.New(pod)
	ctx := context.Background()

	req := message.NewOutgoing(address, []byte("hello pod"))
	resp, err := eng.SendRequestGetResponse(ctx, req, true)
	require.NoError(t, err)
	assert.Equal(t, []byte("HELLO POD"), resp.Body())
}

func TestPodHandlesMultiFragmentRequestAndResponse(t *testing.T) {
	const address = 0xCAFEF00D
	pod := New(address, func(req []byte) []byte {
		// echo back at triple length to force a multi-fragment response.
		out := make([]byte, 0, len(req)*3)
		out = append(out, req...)
		out = append(out, req...)
		out = append(out, req...)
		return out
	})

	eng := exchange.New(pod)
	ctx := context.Background()

	body := make([]byte, message.MaxFragmentPayload*2+3)
	for i := range body {
		body[i] = byte('a' + i%26)
	}
	req := message.NewOutgoing(address, body)
	resp, err := eng.SendRequestGetResponse(ctx, req, true)
	require.NoError(t, err)
	assert.Equal(t, message.Complete, resp.State)

	want := append(append(append([]byte{}, body...), body...), body...)
	assert.Equal(t, want, resp.Body())
}

func TestPodIgnoresWrongAddress(t *testing.T) {
	pod := New(0x1, func(req []byte) []byte { return req })
	eng := exchange.New(pod)
	req := message.NewOutgoing(0x2, []byte("hi"))
	_, err := eng.SendRequestGetResponse(context.Background(), req, true)
	assert.Error(t, err)
}
