package state

// Expectation is a claim, pushed before a state-mutating call, about
// which transition should result and which Source is responsible for it.
//
// ToStates maps the state being entered to the responsible source,
// FromStates maps the state being left. FromStates exists because
// leaving an overlay state (ATTENTION back to READY, say) tells more
// about who acted than the generic target state does. DefaultSource is
// the fallback when neither map resolves.
//
// CommandID ties the transition to an in-flight command; it is carried
// into the resulting Transition only when the expectation matched.
type Expectation struct {
	CommandID     string
	ToStates      map[State]Source
	FromStates    map[State]Source
	DefaultSource Source
}

// Matches reports whether the observed transition is one this
// expectation anticipated: the new state is a ToStates key, the old
// state is a FromStates key, or a default source is carried.
func (e *Expectation) Matches(last, current State) bool {
	if e == nil {
		return false
	}
	_, to := e.ToStates[current]
	_, from := e.FromStates[last]
	return to || from || e.DefaultSource != sourceNone
}

// ResolveSource attributes a source to the transition (last, current).
//
// Resolution is deterministic: when both the from-side and the to-side
// resolve and disagree, the from-side wins. When only one resolves, it
// is used. Otherwise DefaultSource applies, which may itself be empty.
func (e *Expectation) ResolveSource(last, current State) Source {
	if e == nil {
		return sourceNone
	}

	from := e.FromStates[last]
	to := e.ToStates[current]

	switch {
	case from != sourceNone && to != sourceNone && from != to:
		return from
	case from != sourceNone:
		return from
	case to != sourceNone:
		return to
	default:
		return e.DefaultSource
	}
}
