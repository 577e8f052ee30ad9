// Package radio defines the contract between the exchange engine and the
// radio adapter that bridges it to the Pod (spec.md §6), plus the timing
// profiles the engine must use verbatim.
package radio

import (
	"context"
	"time"
)

// Driver is the blocking radio-adapter primitive the exchange engine
// consumes. Implementations live in the radio/* subpackages.
type Driver interface {
	// SendAndReceivePacket transmits one framed packet and listens for
	// one reply using the given timing profile on the fixed channel 0.
	// A nil, nil return means silence: no reply arrived within the
	// profile's listen window.
	SendAndReceivePacket(ctx context.Context, framed []byte, profile TimingProfile) ([]byte, error)

	// GetPacket passively listens for a reply with no preceding
	// transmission, for up to timeout. A nil, nil return means silence.
	GetPacket(ctx context.Context, timeout time.Duration) ([]byte, error)

	// Disconnect releases the link. When ignoreErrors is true the
	// implementation should suppress and log, rather than return,
	// secondary errors encountered while tearing down.
	Disconnect(ignoreErrors bool) error
}

// TimingProfile parameterises one SendAndReceivePacket call, per
// spec.md §6's table. Units are milliseconds and counts, preserved
// verbatim from the spec.
type TimingProfile struct {
	PreambleMS    int
	ListenMS      int
	Repeat        int
	ListenChannel int
}

// Named timing profiles, fixed by spec.md §6 — never tune these per call site.
var (
	// ProfilePDM is used when sending a PDM packet that expects a reply.
	ProfilePDM = TimingProfile{PreambleMS: 300, ListenMS: 300, Repeat: 10, ListenChannel: 80}
	// ProfileACK is used when sending an ACK/CON-expecting packet that expects a reply.
	ProfileACK = TimingProfile{PreambleMS: 20, ListenMS: 300, Repeat: 10, ListenChannel: 20}
	// ProfileFinal is used for the end-of-conversation ACK, no reply expected.
	ProfileFinal = TimingProfile{PreambleMS: 20, ListenMS: 1000, Repeat: 2, ListenChannel: 40}
)

// FinalPassiveReceiveTimeout is the single-shot passive listen window
// used after ProfileFinal returns silence, per spec.md §4.3 step 2.
const FinalPassiveReceiveTimeout = 2500 * time.Millisecond
