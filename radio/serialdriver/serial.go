// Package serialdriver implements radio.Driver over a RileyLink-style
// USB/Bluetooth-serial adapter, talking raw bytes through a port opened
// in raw mode, following the retrieved teacher's serial_port_open
// convention (github.com/pkg/term in raw mode, explicit baud selection).
package serialdriver

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/pkg/term"

	"podexchange/radio"
)

// Adapter command opcodes, owned entirely by this module's wire protocol
// between the PDM process and the serial adapter firmware. Exported so
// other implementations of the adapter side (radio/simulator's pty
// adapter) can speak the identical protocol without redefining it.
const (
	OpSendAndReceive byte = 0x01
	OpGetPacket      byte = 0x02
)

// Adapter response status bytes.
const (
	StatusReply   byte = 0x00
	StatusSilence byte = 0x01
	StatusError   byte = 0x02
)

// Driver talks to the adapter over a raw-mode serial line.
type Driver struct {
	port io.ReadWriteCloser
}

// Open opens device at baud (0 leaves the current speed alone, mirroring
// the retrieved teacher's serial_port_open) and puts it into raw mode.
func Open(device string, baud int) (*Driver, error) {
	t, err := term.Open(device, term.RawMode)
	if err != nil {
		return nil, radio.Wrap("open serial port", err)
	}
	if baud != 0 {
		if err := t.SetSpeed(baud); err != nil {
			_ = t.Close()
			return nil, radio.Wrap("set serial speed", err)
		}
	}
	return &Driver{port: t}, nil
}

// New wraps an already-open port, for tests and for non-term.Term
// transports (e.g. a simulator's pty slave).
func New(port io.ReadWriteCloser) *Driver {
	return &Driver{port: port}
}

func (d *Driver) SendAndReceivePacket(ctx context.Context, framed []byte, profile radio.TimingProfile) ([]byte, error) {
	cmd := make([]byte, 0, 9+len(framed))
	cmd = append(cmd, OpSendAndReceive, 0 /* channel */)
	cmd = binary.BigEndian.AppendUint16(cmd, uint16(profile.PreambleMS))
	cmd = binary.BigEndian.AppendUint16(cmd, uint16(profile.ListenMS))
	cmd = append(cmd, byte(profile.Repeat), byte(profile.ListenChannel), byte(len(framed)))
	cmd = append(cmd, framed...)

	if err := d.write(ctx, cmd); err != nil {
		return nil, err
	}
	return d.readResponse(ctx)
}

func (d *Driver) GetPacket(ctx context.Context, timeout time.Duration) ([]byte, error) {
	cmd := make([]byte, 0, 4)
	cmd = append(cmd, OpGetPacket)
	cmd = binary.BigEndian.AppendUint16(cmd, uint16(timeout.Milliseconds()))
	cmd = append(cmd, 0)

	if err := d.write(ctx, cmd); err != nil {
		return nil, err
	}
	return d.readResponse(ctx)
}

func (d *Driver) Disconnect(ignoreErrors bool) error {
	if d.port == nil {
		return nil
	}
	err := d.port.Close()
	if err != nil && !ignoreErrors {
		return radio.Wrap("disconnect", err)
	}
	return nil
}

func (d *Driver) write(_ context.Context, cmd []byte) error {
	if _, err := d.port.Write(cmd); err != nil {
		return radio.Wrap("write command", err)
	}
	return nil
}

// readResponse reads one [status(1) | len(1) | payload(len)] frame from
// the adapter. StatusSilence yields (nil, nil); StatusError yields a
// wrapped radio.LinkError carrying the adapter's message.
func (d *Driver) readResponse(_ context.Context) ([]byte, error) {
	header := make([]byte, 2)
	if _, err := io.ReadFull(d.port, header); err != nil {
		return nil, radio.Wrap("read response header", err)
	}

	status, length := header[0], header[1]
	payload := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(d.port, payload); err != nil {
			return nil, radio.Wrap("read response payload", err)
		}
	}

	switch status {
	case StatusSilence:
		return nil, nil
	case StatusReply:
		return payload, nil
	case StatusError:
		return nil, radio.Wrap("adapter reported error", fmt.Errorf("%s", payload))
	default:
		return nil, radio.Wrap("read response", fmt.Errorf("unknown status byte 0x%02x", status))
	}
}
