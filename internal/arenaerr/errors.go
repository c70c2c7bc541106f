// Package arenaerr defines the typed error kinds carried across package
// boundaries so transport layers can map them to wire reason strings
// without matching on error text.
package arenaerr

import "fmt"

// Code enumerates the error kinds produced by the simulation core.
type Code string

const (
	NotFound     Code = "not_found"
	Duplicate    Code = "duplicate"
	Capacity     Code = "capacity"
	State        Code = "state"
	Precondition Code = "precondition"
	InvalidInput Code = "invalid_input"
	Transient    Code = "transient"
	Fatal        Code = "fatal"
)

// Reason strings mirrored on the wire per spec section 6/7.
const (
	ReasonNotFound            = "not_found"
	ReasonGameFull            = "game_full"
	ReasonAlreadyJoined       = "already_joined"
	ReasonMatchFinished       = "match_finished"
	ReasonSpectatorsFull      = "spectators_full"
	ReasonNotInQueue          = "not_in_queue"
	ReasonAlreadyQueued       = "already_queued"
	ReasonQueueExpired        = "queue_expired"
	ReasonMatchCreateFailed   = "match_create_failed"
	ReasonOnCooldown          = "on_cooldown"
	ReasonInsufficientResource = "insufficient_resource"
	ReasonOutOfRange          = "out_of_range"
	ReasonInvalidInput        = "invalid_input"
	ReasonOperationPending    = "operation_pending"
	ReasonTemporarilyUnavail  = "temporarily_unavailable"
	ReasonUnknown             = "unknown"
)

// Error wraps a Code and a wire-visible reason with an underlying cause.
type Error struct {
	Code   Code
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Reason)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New constructs an Error with the given code and reason.
func New(code Code, reason string) *Error {
	return &Error{Code: code, Reason: reason}
}

// Wrap constructs an Error carrying an underlying cause.
func Wrap(code Code, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	var e *Error
	for err != nil {
		if as, ok := err.(*Error); ok {
			e = as
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return e != nil && e.Code == code
}

// ReasonOf extracts the wire reason string from err, falling back to
// ReasonUnknown when err is not (or does not wrap) an *Error.
func ReasonOf(err error) string {
	var e *Error
	cur := err
	for cur != nil {
		if as, ok := cur.(*Error); ok {
			e = as
			break
		}
		u, ok := cur.(interface{ Unwrap() error })
		if !ok {
			break
		}
		cur = u.Unwrap()
	}
	if e == nil {
		return ReasonUnknown
	}
	return e.Reason
}
