package order

// State is the checkout phase of a session
type State string

const (
	StateBrowsing      State = "browsing"
	StateOrdering      State = "ordering"
	StatePaymentPrompt State = "payment_prompt"
	StateSubmitted     State = "submitted"
)

// IsTerminal reports whether no further transition can leave s
func IsTerminal(s State) bool {
	return s == StateSubmitted
}

// acceptsItems reports whether add/remove are allowed in s
func acceptsItems(s State) bool {
	return s == StateBrowsing || s == StateOrdering
}

func isAllowedTransition(from, to State) bool {
	switch from {
	case StateBrowsing:
		return to == StateOrdering
	case StateOrdering:
		return to == StatePaymentPrompt
	case StatePaymentPrompt:
		return to == StateSubmitted || to == StateOrdering
	default:
		return false
	}
}

// transition moves the session to "to" if the state machine allows it
func (s *Session) transition(to State) error {
	if !isAllowedTransition(s.state, to) {
		return &TransitionError{From: s.state, To: to}
	}
	s.state = to
	return nil
}

func (s State) String() string {
	return string(s)
}
