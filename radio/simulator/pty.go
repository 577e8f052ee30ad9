package simulator

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/creack/pty"

	"podexchange/radio"
	"podexchange/radio/serialdriver"
)

// AdapterOverPty exposes a Pod on a pseudo-terminal speaking the exact
// adapter wire protocol that radio/serialdriver.Driver drives, the way
// the retrieved teacher's kiss.go exposes its virtual TNC on a pty for
// another process to open directly. Any tool that opens SlaveName()
// with serialdriver.Open (or just speaks the same bytes) drives this
// simulated Pod as if it were real RileyLink-compatible hardware.
type AdapterOverPty struct {
	pod    radio.Driver
	master *os.File
	slave  *os.File
}

// OpenPty creates the pty, starts serving pod's protocol on it, and
// returns the adapter. Callers read SlaveName() to find the device a
// client should open, and call Close when done.
func OpenPty(pod radio.Driver) (*AdapterOverPty, error) {
	master, slave, err := pty.Open()
	if err != nil {
		return nil, fmt.Errorf("simulator: open pty: %w", err)
	}
	a := &AdapterOverPty{pod: pod, master: master, slave: slave}
	go a.serve()
	return a, nil
}

// SlaveName is the path a client opens to reach the simulated adapter.
func (a *AdapterOverPty) SlaveName() string { return a.slave.Name() }

// Close releases both ends of the pty.
func (a *AdapterOverPty) Close() error {
	slaveErr := a.slave.Close()
	masterErr := a.master.Close()
	if slaveErr != nil {
		return slaveErr
	}
	return masterErr
}

// serve reads adapter commands from the master side until the pty
// closes or an unrecognised opcode arrives.
func (a *AdapterOverPty) serve() {
	ctx := context.Background()
	for {
		op := make([]byte, 1)
		if _, err := io.ReadFull(a.master, op); err != nil {
			return
		}
		switch op[0] {
		case serialdriver.OpSendAndReceive:
			if !a.serveSendAndReceive(ctx) {
				return
			}
		case serialdriver.OpGetPacket:
			if !a.serveGetPacket(ctx) {
				return
			}
		default:
			return
		}
	}
}

func (a *AdapterOverPty) serveSendAndReceive(ctx context.Context) bool {
	header := make([]byte, 8)
	if _, err := io.ReadFull(a.master, header); err != nil {
		return false
	}
	profile := radio.TimingProfile{
		PreambleMS:    int(binary.BigEndian.Uint16(header[1:3])),
		ListenMS:      int(binary.BigEndian.Uint16(header[3:5])),
		Repeat:        int(header[5]),
		ListenChannel: int(header[6]),
	}
	framed := make([]byte, header[7])
	if _, err := io.ReadFull(a.master, framed); err != nil {
		return false
	}

	reply, err := a.pod.SendAndReceivePacket(ctx, framed, profile)
	return a.writeResponse(reply, err)
}

func (a *AdapterOverPty) serveGetPacket(ctx context.Context) bool {
	header := make([]byte, 3)
	if _, err := io.ReadFull(a.master, header); err != nil {
		return false
	}
	timeout := time.Duration(binary.BigEndian.Uint16(header[0:2])) * time.Millisecond

	reply, err := a.pod.GetPacket(ctx, timeout)
	return a.writeResponse(reply, err)
}

func (a *AdapterOverPty) writeResponse(reply []byte, err error) bool {
	var resp []byte
	switch {
	case err != nil:
		msg := []byte(err.Error())
		resp = append([]byte{serialdriver.StatusError, byte(len(msg))}, msg...)
	case reply == nil:
		resp = []byte{serialdriver.StatusSilence, 0}
	default:
		resp = append([]byte{serialdriver.StatusReply, byte(len(reply))}, reply...)
	}
	_, writeErr := a.master.Write(resp)
	return writeErr == nil
}
