// Package codes centralizes the 1000-block error-code taxonomy shared by
// every subsystem, grounded on internal/escrow's typed-error-with-behavior
// pattern in the teacher repository.
package codes

// Code is a taxonomy error code, grouped by 1000-block.
type Code int

const (
	// 1xxx Physics
	VelocityExceeded     Code = 1001
	AccelerationExceeded Code = 1002
	JerkExceeded         Code = 1003
	CollisionPredicted   Code = 1004
	GeofenceViolation    Code = 1005

	// 2xxx Ticket
	InvalidTicket Code = 2001
	TicketExpired Code = 2002
	VTSViolation  Code = 2003

	// 3xxx Network
	NetworkDisconnected Code = 3001
	EdgeUnavailable     Code = 3002
	PTPSyncLost         Code = 3003
	PacketParseError    Code = 3004

	// 4xxx Economy
	InsufficientStake Code = 4001
	LowReputation     Code = 4002
	AuctionFailed     Code = 4003
	BidHashMismatch   Code = 4004

	// 5xxx Security
	SignatureVerificationFailed Code = 5001
	ReplayAttackDetected        Code = 5002
	InvalidSequence             Code = 5003
	MessageExpired              Code = 5004
	UnknownSigner               Code = 5005

	// 6xxx Handoff
	HandoffRejected      Code = 6001
	ZoneCapacityExceeded Code = 6002

	// 9xxx General
	SerializationError Code = 9001
	InternalError      Code = 9002
)

var names = map[Code]string{
	VelocityExceeded:     "VelocityExceeded",
	AccelerationExceeded: "AccelerationExceeded",
	JerkExceeded:         "JerkExceeded",
	CollisionPredicted:   "CollisionPredicted",
	GeofenceViolation:    "GeofenceViolation",

	InvalidTicket: "InvalidTicket",
	TicketExpired: "TicketExpired",
	VTSViolation:  "VTSViolation",

	NetworkDisconnected: "NetworkDisconnected",
	EdgeUnavailable:     "EdgeUnavailable",
	PTPSyncLost:         "PTPSyncLost",
	PacketParseError:    "PacketParseError",

	InsufficientStake: "InsufficientStake",
	LowReputation:     "LowReputation",
	AuctionFailed:     "AuctionFailed",
	BidHashMismatch:   "BidHashMismatch",

	SignatureVerificationFailed: "SignatureVerificationFailed",
	ReplayAttackDetected:        "ReplayAttackDetected",
	InvalidSequence:             "InvalidSequence",
	MessageExpired:              "MessageExpired",
	UnknownSigner:               "UnknownSigner",

	HandoffRejected:      "HandoffRejected",
	ZoneCapacityExceeded: "ZoneCapacityExceeded",

	SerializationError: "SerializationError",
	InternalError:      "InternalError",
}

// String renders the taxonomy name, e.g. "CollisionPredicted".
func (c Code) String() string {
	if n, ok := names[c]; ok {
		return n
	}
	return "Unknown"
}

// IsRetryable reports whether c is one of the transient 3xxx transport errors.
func (c Code) IsRetryable() bool {
	return c >= 3000 && c < 4000
}

// IsFatal reports whether c means the robot must be physically protected
// before any retry: only CollisionPredicted and GeofenceViolation.
func (c Code) IsFatal() bool {
	return c == CollisionPredicted || c == GeofenceViolation
}

// Error is the taxonomy-tagged error type threaded through every subsystem.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

// New builds a tagged Error with no wrapped cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap builds a tagged Error that wraps cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Code.String() + ": " + e.Message + ": " + e.Cause.Error()
	}
	return e.Code.String() + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// IsRetryable reports whether the wrapped code is retryable.
func (e *Error) IsRetryable() bool { return e.Code.IsRetryable() }

// IsFatal reports whether the wrapped code is fatal.
func (e *Error) IsFatal() bool { return e.Code.IsFatal() }
