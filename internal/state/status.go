package state

import (
	"fmt"

	"github.com/five82/onair/internal/history"
)

// Kind tags which variant a Status holds.
type Kind int

const (
	KindInitializing Kind = iota
	KindSuccess
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindInitializing:
		return "initializing"
	case KindSuccess:
		return "success"
	case KindError:
		return "error"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ErrorVariant classifies why the last poll did not produce a track.
type ErrorVariant int

const (
	// NoInternetConnection: no usable network transport.
	NoInternetConnection ErrorVariant = iota + 1
	// ResponseError: the radio API call failed or answered non-success.
	ResponseError
)

func (e ErrorVariant) String() string {
	switch e {
	case NoInternetConnection:
		return "no internet connection"
	case ResponseError:
		return "response error"
	default:
		return "none"
	}
}

// Status is the published engine state. It is a small comparable value:
// two statuses are equal when they have the same variant, error and
// history handle, which is what lets a publisher skip no-op transitions.
type Status struct {
	kind    Kind
	err     ErrorVariant
	history *history.View
}

// Initializing is the state before the first poll completes.
func Initializing() Status {
	return Status{kind: KindInitializing}
}

// Success is the state after a successful poll.
func Success(h *history.View) Status {
	return Status{kind: KindSuccess, history: h}
}

// Failure is the state after a failed poll.
func Failure(variant ErrorVariant, h *history.View) Status {
	return Status{kind: KindError, err: variant, history: h}
}

// Kind reports the variant.
func (s Status) Kind() Kind { return s.kind }

// Error returns the failure classification and whether s is an error state.
func (s Status) Error() (ErrorVariant, bool) {
	return s.err, s.kind == KindError
}

// History returns the live history handle carried by Success and Error.
func (s Status) History() (*history.View, bool) {
	if s.kind == KindInitializing || s.history == nil {
		return nil, false
	}
	return s.history, true
}

// IsError reports whether s is exactly the given error state.
func (s Status) IsError(variant ErrorVariant) bool {
	return s.kind == KindError && s.err == variant
}

func (s Status) String() string {
	if s.kind == KindError {
		return "error: " + s.err.String()
	}
	return s.kind.String()
}
