package router

// State is a node of the retrieval state machine.
type State int

const (
	FAQCheck State = iota
	DocRetrieval
	GenerativeFallback
	HumanHandoff
	done
)

var stateNames = [...]string{"FAQ_CHECK", "DOC_RETRIEVAL", "GENERATIVE_FALLBACK", "HUMAN_HANDOFF"}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "DONE"
}

// next is the single transition function: states are visited in fixed
// priority order and HumanHandoff is terminal.
func next(s State) State {
	if s >= HumanHandoff {
		return done
	}
	return s + 1
}

// States lists the states in visiting order.
func States() []State {
	return []State{FAQCheck, DocRetrieval, GenerativeFallback, HumanHandoff}
}

// Step records one visited state.
type Step struct {
	State    State  `json:"state"`
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
	Backend  string `json:"backend,omitempty"`
}

// MarshalText renders the state name in JSON traces.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
