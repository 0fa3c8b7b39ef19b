package nn

import "github.com/ev3kit/nn/internal/constants"

// Re-exported limits, so callers don't need to import internal/constants.
const (
	MTU          = constants.MTU
	MaxObjects   = constants.MaxObjects
	DefaultGroup = constants.MulticastGroup
)
