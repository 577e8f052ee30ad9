// Package exchange implements the send_request/get_response state
// machine described in spec.md: message fragmentation, the
// ACK/continuation/end-of-conversation sub-protocol, dual sequence
// counters, and out-of-sync recovery.
package exchange

import (
	"sync/atomic"

	"podexchange/message"
	"podexchange/packet"
	"podexchange/radio"
)

// Logger is the minimal subset of github.com/charmbracelet/log's
// *log.Logger that the engine needs, so tests can supply a no-op/capturing
// double without pulling in the real sink.
type Logger interface {
	Debug(msg interface{}, keyvals ...interface{})
	Warn(msg interface{}, keyvals ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debug(interface{}, ...interface{}) {}
func (nopLogger) Warn(interface{}, ...interface{})  {}

// Engine owns one conversation's worth of state: the two sequence
// counters, the last-received-packet memo, and the radio link. It is
// not safe for concurrent SendRequestGetResponse calls (spec.md §5); a
// caller-level mutex is required if multiple producers exist.
type Engine struct {
	driver radio.Driver
	log    Logger

	messageSequence uint8 // 0..15
	packetSequence  uint8 // 0..31

	lastPacketReceived     packet.Packet
	haveLastPacketReceived bool

	stopped atomic.Bool
}

// Option configures a new Engine.
type Option func(*Engine)

// WithLogger overrides the default no-op logger.
func WithLogger(l Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithMessageSequenceSeed seeds the message-sequence counter (0..15).
func WithMessageSequenceSeed(seed uint8) Option {
	return func(e *Engine) { e.messageSequence = seed % message.SequenceMod }
}

// WithPacketSequenceSeed seeds the packet-sequence counter (0..31).
func WithPacketSequenceSeed(seed uint8) Option {
	return func(e *Engine) { e.packetSequence = seed % packet.SequenceMod }
}

// New creates an Engine bound to driver. By default both counters seed
// at zero; use WithMessageSequenceSeed/WithPacketSequenceSeed to resume a
// prior conversation's counters (spec.md §3 lifecycle).
func New(driver radio.Driver, opts ...Option) *Engine {
	e := &Engine{driver: driver, log: nopLogger{}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Stop requests that any loop polling the stop flag at a boundary abort.
// Per spec.md §5 this is advisory only: aborting mid-exchange leaves the
// peer in an indeterminate sequence state and requires a subsequent
// resync.
func (e *Engine) Stop() { e.stopped.Store(true) }

func (e *Engine) stopRequested() bool { return e.stopped.Load() }

// PacketSequence returns the current packet-sequence counter, for tests
// and for callers that persist counters across process restarts.
func (e *Engine) PacketSequence() uint8 { return e.packetSequence }

// MessageSequence returns the current message-sequence counter.
func (e *Engine) MessageSequence() uint8 { return e.messageSequence }

func (e *Engine) advancePacketSequence(delta uint8) {
	e.packetSequence = (e.packetSequence + delta) % packet.SequenceMod
}

func (e *Engine) rememberReceived(p packet.Packet) {
	e.lastPacketReceived = p
	e.haveLastPacketReceived = true
}

func (e *Engine) isDuplicateOfLastReceived(p packet.Packet) bool {
	return e.haveLastPacketReceived &&
		p.Type == e.lastPacketReceived.Type &&
		p.Sequence == e.lastPacketReceived.Sequence
}
