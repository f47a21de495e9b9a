package conn

import "fmt"

// Step applies a single action to a state and returns the report together
// with the next state. It is a pure function: the complete transition table
// lives here and every (state, action) pair has defined behavior. Callers
// commit the returned state themselves, see Conn.
func Step(state State, action Action) (Report, State) {
	report := Report{
		Action: action.Kind,
		From:   state,
		To:     state,
		Status: StatusAccepted,
	}

	switch state {
	case StateClosed:
		switch action.Kind {
		case ActionOpen:
			report.To = StateListening
			report.Message = "Transitioning from Closed to Listening state."
		case ActionClose:
			report.Message = "Already in Closed state."
		case ActionSend:
			report.Status = StatusRejected
			report.Message = "Cannot send data. Connection is closed."
		case ActionReceive:
			report.Status = StatusRejected
			report.Message = "Cannot receive data. Connection is closed."
		default:
			report.Status = StatusRejected
			report.Message = unknownActionMessage(action.Kind)
		}
	case StateListening:
		switch action.Kind {
		case ActionOpen:
			report.Message = "Already in Listening state."
		case ActionClose:
			report.To = StateClosed
			report.Message = "Transitioning from Listening to Closed state."
		case ActionSend:
			report.Status = StatusRejected
			report.Message = "Cannot send data. Connection is in Listening state."
		case ActionReceive:
			// Receiving data while listening completes the handshake. The
			// payload content is not validated.
			report.To = StateEstablished
			report.Message = "Transitioning from Listening to Established state."
		default:
			report.Status = StatusRejected
			report.Message = unknownActionMessage(action.Kind)
		}
	case StateEstablished:
		switch action.Kind {
		case ActionOpen:
			report.Message = "Already in Established state."
		case ActionClose:
			report.To = StateClosed
			report.Message = "Transitioning from Established to Closed state."
		case ActionSend:
			report.Message = fmt.Sprintf("Sending data: %s", action.Payload)
		case ActionReceive:
			report.Message = fmt.Sprintf("Receiving data: %s", action.Payload)
		default:
			report.Status = StatusRejected
			report.Message = unknownActionMessage(action.Kind)
		}
	default:
		report.Status = StatusRejected
		report.Message = fmt.Sprintf("Unknown state: %d.", state)
	}

	return report, report.To
}

func unknownActionMessage(kind ActionKind) string {
	return fmt.Sprintf("Unknown action: %d.", kind)
}
