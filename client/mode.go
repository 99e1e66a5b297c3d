package client

// ChannelState is the position of a channel in its frame state machine.
type ChannelState int

const (
	StateReady ChannelState = iota
	StateAwaitingHeader
	StateAwaitingBody
	StateClosing
	StateClosed
	StateError
)

func (s ChannelState) String() string {
	switch s {
	case StateReady:
		return "READY"
	case StateAwaitingHeader:
		return "AWAITING_HEADER"
	case StateAwaitingBody:
		return "AWAITING_BODY"
	case StateClosing:
		return "CLOSING"
	case StateClosed:
		return "CLOSED"
	case StateError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether no further frames are accepted.
func (s ChannelState) Terminal() bool {
	return s == StateClosed || s == StateError
}

// ChannelMode selects how publishes on a channel are acknowledged. A channel
// leaves ModeRegular at most once.
type ChannelMode int

const (
	ModeRegular ChannelMode = iota
	ModeTransactional
	ModeConfirm
)

func (m ChannelMode) String() string {
	switch m {
	case ModeRegular:
		return "regular"
	case ModeTransactional:
		return "transactional"
	case ModeConfirm:
		return "confirm"
	default:
		return "unknown"
	}
}
