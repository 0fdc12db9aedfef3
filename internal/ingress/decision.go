package ingress

import "mediareport/pkg/models"

type Outcome int

const (
	Proceed Outcome = iota
	Skip
	Abort
)

func (o Outcome) String() string {
	switch o {
	case Proceed:
		return "proceed"
	case Skip:
		return "skip"
	case Abort:
		return "abort"
	default:
		return "unknown"
	}
}

// Skip and abort reasons.
const (
	ReasonNotReportRequest = "not a report request"
	ReasonSelfSent         = "self-sent"
	ReasonAgentOriginated  = "agent-originated"
	ReasonRejectedByRule   = "rejected by rule"
	ReasonDuplicate        = "duplicate delivery"
	ReasonMissingSender    = "missing sender"
	ReasonMissingThread    = "missing thread id"
)

// Decision is the result of evaluating one event. Params and SenderAddress
// are set for Proceed; Reason, Message and Details for Skip and Abort.
type Decision struct {
	Outcome       Outcome
	Reason        string
	Message       string
	Details       map[string]interface{}
	Params        models.RequestParameters
	SenderAddress string
}

func proceed(params models.RequestParameters, sender string) Decision {
	return Decision{Outcome: Proceed, Params: params, SenderAddress: sender}
}

func skip(reason, message string, details map[string]interface{}) Decision {
	return Decision{Outcome: Skip, Reason: reason, Message: message, Details: details}
}

func abort(reason, message string) Decision {
	return Decision{Outcome: Abort, Reason: reason, Message: message}
}
