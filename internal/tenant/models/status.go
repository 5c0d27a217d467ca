package models

// Status enumerates tenant lifecycle states.
type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
)

var transitions = map[Status][]Status{
	StatusActive:    {StatusSuspended},
	StatusSuspended: {StatusActive},
}

// CanTransitionTo reports whether the transition is allowed.
func (s Status) CanTransitionTo(target Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}
