// Package apierr implements the error taxonomy from spec.md §7: a closed
// set of reason codes returned to clients for validation and business-rule
// rejections, as opposed to protocol errors (which drop the session) or
// internal errors (which are logged and swallowed per-object).
package apierr

import "fmt"

// Reason is a stable code sent back to a client alongside a rejection.
type Reason string

const (
	ReasonInsufficientFunds    Reason = "INSUFFICIENT_FUNDS"
	ReasonInsufficientResource Reason = "INSUFFICIENT_RESOURCE"
	ReasonCapacityExceeded     Reason = "CAPACITY_EXCEEDED"
	ReasonNotMember            Reason = "NOT_MEMBER"
	ReasonNotController        Reason = "NOT_CONTROLLER"
	ReasonAlreadyControlled    Reason = "ALREADY_CONTROLLED"
	ReasonNotLanded            Reason = "NOT_LANDED"
	ReasonSeatsFull            Reason = "SEATS_FULL"
	ReasonNotFound             Reason = "NOT_FOUND"
	ReasonUnknownResource      Reason = "UNKNOWN_RESOURCE"
)

// Rejection is a validation or business-rule failure: it carries no stack,
// only a reason code and a human-readable message, and never mutates state
// before being returned.
type Rejection struct {
	Reason  Reason
	Message string
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("%s: %s", r.Reason, r.Message)
}

// Reject builds a Rejection.
func Reject(reason Reason, format string, args ...any) *Rejection {
	return &Rejection{Reason: reason, Message: fmt.Sprintf(format, args...)}
}

// Protocol errors are distinct from Rejection: they indicate the peer
// sent an unparsable frame or unknown opcode, and the session-owning
// caller is expected to close the session on receipt, not reply politely.
type Protocol struct {
	Message string
}

func (p *Protocol) Error() string { return "protocol: " + p.Message }

// ProtocolError builds a Protocol error.
func ProtocolError(format string, args ...any) *Protocol {
	return &Protocol{Message: fmt.Sprintf(format, args...)}
}
