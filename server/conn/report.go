package conn

// Status describes the outcome of an action. Rejection is a normal, defined
// outcome and never a fault.
type Status string

const (
	// StatusAccepted means the action performed its effect. This includes
	// no-op actions which leave the state unchanged.
	StatusAccepted Status = "accepted"

	// StatusRejected means the current state does not allow the action. The
	// state is left unchanged and no data is considered transmitted.
	StatusRejected Status = "rejected"
)

// Report is the observable outcome of a single action. It is always returned
// as a value so the caller can format, log, or assert on it.
type Report struct {
	// Action is the kind of action that produced this report.
	Action ActionKind `json:"action"`

	// From is the state the connection was in when the action was applied.
	From State `json:"from"`

	// To is the state the connection committed before the action returned.
	// Equal to From unless the action caused a transition.
	To State `json:"to"`

	// Status tells whether the action was accepted or rejected.
	Status Status `json:"status"`

	// Message is a human-readable description of what happened.
	Message string `json:"message"`
}

// Accepted returns true when the action performed its effect.
func (r Report) Accepted() bool {
	return r.Status == StatusAccepted
}

// Rejected returns true when the action was not allowed in the state it was
// applied in.
func (r Report) Rejected() bool {
	return r.Status == StatusRejected
}

// Transitioned returns true when the action moved the connection to a
// different state.
func (r Report) Transitioned() bool {
	return r.From != r.To
}
