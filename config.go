package nn

import (
	"context"

	"github.com/ev3kit/nn/internal/constants"
	"github.com/ev3kit/nn/internal/interfaces"
)

// Config holds the node-level knobs for Initialize.
type Config struct {
	UUID [16]byte // node identity; caller generates it (e.g. with google/uuid)

	Port          int    // UDP port all nodes share
	Group         string // multicast group override; "" uses constants.MulticastGroup
	InterfaceName string // network interface to join on; "" lets the OS pick

	SendQueueDepth int // sizes the Node's internal work channel, which is made SendQueueDepth+8 deep; <= 0 uses 64
}

// DefaultConfig returns sensible defaults, including DefaultPort;
// callers must still set UUID.
func DefaultConfig() Config {
	return Config{
		Port:           constants.DefaultPort,
		Group:          constants.MulticastGroup,
		InterfaceName:  constants.DefaultInterfaceName,
		SendQueueDepth: 64,
	}
}

// Options holds cross-cutting collaborators. All fields are optional;
// zero values fall back to no-op behavior.
type Options struct {
	// Context governs the node's event loop goroutine; cancelling it
	// stops the event loop the same way Stop does. It does not release
	// the socket; Close does that.
	Context context.Context

	// Logger receives lifecycle and error-path log lines.
	Logger interfaces.Logger

	// Observer receives per-operation metrics events.
	Observer interfaces.Observer

	// Socket overrides the transport; nil opens a real multicast
	// internal/socket.Driver. Tests pass an nntest.FakeSocket here.
	Socket interfaces.Socket
}
