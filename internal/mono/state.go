package mono

// State is the population state of an instantiation shell.
type State uint8

const (
	// StateUnregistered: no shell exists for the canonical name.
	StateUnregistered State = iota
	// StateRegistered: the shell is visible but nobody started filling it.
	StateRegistered
	// StatePopulating: members are being cloned and substituted.
	StatePopulating
	// StatePopulated: the shell is complete.
	StatePopulated
	// StateFailed: population hit an internal consistency error.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateRegistered:
		return "registered"
	case StatePopulating:
		return "populating"
	case StatePopulated:
		return "populated"
	case StateFailed:
		return "failed"
	default:
		return "unregistered"
	}
}

// Done reports whether population finished, successfully or not.
func (s State) Done() bool {
	return s == StatePopulated || s == StateFailed
}
