// Package counter implements the signature-counter anti-clone protocol
// from spec.md §4.2 step 11: a monotonicity check over the caller-owned
// Authenticator record, with a pluggable policy for what happens when it
// fails.
package counter

import (
	"fmt"

	"github.com/go-webauthn/core/webauthn/werrors"
)

// MaliciousCounterValueHandler reacts to a signature counter that failed
// the monotonicity check. Implementations may log-and-continue (treating
// the condition as a warning) or escalate.
//
// https://www.w3.org/TR/webauthn-3/#sctn-sign-counter
type MaliciousCounterValueHandler interface {
	Handle(presented, stored uint32) error
}

// RejectOnMaliciousCounter is the default handler: any non-monotonic
// counter aborts the ceremony with MaliciousCounterValue.
type RejectOnMaliciousCounter struct{}

func (RejectOnMaliciousCounter) Handle(presented, stored uint32) error {
	return werrors.New(werrors.CodeMaliciousCounterValue, fmt.Errorf("presented signature counter %d did not exceed stored value %d", presented, stored))
}

// IgnoreMaliciousCounter downgrades the condition to a no-op, for RPs that
// have decided clone detection via counters is too noisy (common with
// synced/multi-device credentials that don't maintain a counter
// consistently) to enforce as a hard failure.
type IgnoreMaliciousCounter struct{}

func (IgnoreMaliciousCounter) Handle(presented, stored uint32) error {
	return nil
}

// Evaluate implements the full step: given the presented and stored
// counter values, either accept (returning the presented value as the new
// value to persist), skip (both zero — authenticator doesn't maintain a
// counter), or defer to handler.
//
// Returns the value the caller should persist as the new stored counter.
// When the handler returns nil despite a non-monotonic counter (i.e. the
// RP downgraded to a warning), the stored value is left unchanged.
func Evaluate(presented, stored uint32, handler MaliciousCounterValueHandler) (newStored uint32, err error) {
	if presented == 0 && stored == 0 {
		return stored, nil
	}
	if presented > stored {
		return presented, nil
	}
	if handler == nil {
		handler = RejectOnMaliciousCounter{}
	}
	if err := handler.Handle(presented, stored); err != nil {
		return stored, err
	}
	return stored, nil
}
