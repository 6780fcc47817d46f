// Package arenaerr defines the core's error taxonomy as typed grpc status
// errors, matching the status.Errorf idiom the matchmaker, fog enforcer,
// simulator boundary, and session manager use for their failures. The
// order validator reports plain reason strings instead.
package arenaerr

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Kind names the taxonomy entries from the error handling design. Each
// kind maps to a grpc code, and only that code is carried on the error,
// so callers can branch on it without parsing status messages. Kinds
// that share a code (client_protocol and validation; rate_limit and
// matchmaker_full) are not told apart by Is.
type Kind string

const (
	KindClientProtocol     Kind = "client_protocol"
	KindValidation         Kind = "validation"
	KindOwnershipViolation Kind = "ownership_violation"
	KindRateLimit          Kind = "rate_limit"
	KindConnectTimeout     Kind = "connect_timeout"
	KindAgentDisconnect    Kind = "agent_disconnect"
	KindSimulatorFault     Kind = "simulator_fault"
	KindMatchmakerFull     Kind = "matchmaker_full"
	KindAlreadyQueued      Kind = "already_queued"
)

var kindCodes = map[Kind]codes.Code{
	KindClientProtocol:     codes.InvalidArgument,
	KindValidation:         codes.InvalidArgument,
	KindOwnershipViolation: codes.PermissionDenied,
	KindRateLimit:          codes.ResourceExhausted,
	KindConnectTimeout:     codes.DeadlineExceeded,
	KindAgentDisconnect:    codes.Aborted,
	KindSimulatorFault:     codes.Unavailable,
	KindMatchmakerFull:     codes.ResourceExhausted,
	KindAlreadyQueued:      codes.AlreadyExists,
}

// New builds a status error tagged with kind, following the same
// status.Errorf(codes.X, msg, args...) call shape used throughout the
// lobby and matchmaker registries this package is modeled on.
func New(kind Kind, format string, args ...interface{}) error {
	return status.Errorf(kindCodes[kind], format, args...)
}

// Is reports whether err carries the grpc code associated with kind.
func Is(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	return status.Code(err) == kindCodes[kind]
}

var (
	// ErrAlreadyQueued is returned by Matchmaker.Enqueue when the agent
	// already holds an active entry in the requested mode.
	ErrAlreadyQueued = New(KindAlreadyQueued, "agent already queued for this mode")

	// ErrMatchmakerFull is returned when a mode's configured queue cap
	// is reached.
	ErrMatchmakerFull = New(KindMatchmakerFull, "matchmaker queue is full")

	// ErrUnknownAgentInSnapshot is the Fog Enforcer's failure mode when
	// the authoritative snapshot has no record for the requested agent.
	ErrUnknownAgentInSnapshot = New(KindValidation, "snapshot has no record for requested agent")

	// ErrConnectTimeout describes fewer than two agents identifying
	// before the connect deadline. The session manager's watchdog does
	// not return it; it records the same text as the cancelled
	// session's termination reason.
	ErrConnectTimeout = New(KindConnectTimeout, "agent connect timeout")
)
