// Package werrors implements the flat error taxonomy required by the
// ceremony validators (spec.md §7): every failure mode is a distinct,
// matchable variant, and no crypto-library exception ever leaks to a
// caller unwrapped.
package werrors

import (
	"errors"
	"fmt"

	"github.com/gravitational/trace"
)

// Code names one variant of the taxonomy. Codes are stable identifiers
// suitable for metrics/logging; they never carry secret material.
type Code string

const (
	CodeBadChallenge                Code = "bad_challenge"
	CodeBadOrigin                   Code = "bad_origin"
	CodeBadRpID                     Code = "bad_rp_id"
	CodeBadSignature                Code = "bad_signature"
	CodeBadStatus                   Code = "bad_status"
	CodeInconsistentClientDataType  Code = "inconsistent_client_data_type"
	CodeCrossOrigin                 Code = "cross_origin"
	CodeTokenBinding                Code = "token_binding_exception"
	CodeUserNotPresent              Code = "user_not_present"
	CodeUserNotVerified             Code = "user_not_verified"
	CodeNotAllowedCredentialID      Code = "not_allowed_credential_id"
	CodeNotAllowedAlgorithm         Code = "not_allowed_algorithm"
	CodeBadAttestationStatement     Code = "bad_attestation_statement"
	CodeCertificate                 Code = "certificate_exception"
	CodeTrustAnchorNotFound         Code = "trust_anchor_not_found"
	CodeMaliciousCounterValue       Code = "malicious_counter_value"
	CodeConstraintViolation         Code = "constraint_violation"
)

// CeremonyError is the concrete error type returned by every validator
// step. It carries the taxonomy Code alongside a trace-wrapped cause so the
// underlying detail (a certificate subject, a mismatched hash, a decode
// failure) is available for logging without being baked into a plain
// string that every caller has to parse.
type CeremonyError struct {
	Code  Code
	cause error
}

func (e *CeremonyError) Error() string {
	if e.cause == nil {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %v", e.Code, e.cause)
}

func (e *CeremonyError) Unwrap() error { return e.cause }

// New builds a CeremonyError wrapping cause under code.
func New(code Code, cause error) *CeremonyError {
	return &CeremonyError{Code: code, cause: trace.Wrap(cause)}
}

// Newf builds a CeremonyError from a format string, mirroring
// trace.Errorf's stack-capturing behavior.
func Newf(code Code, format string, args ...interface{}) *CeremonyError {
	return &CeremonyError{Code: code, cause: trace.Errorf(format, args...)}
}

// Is reports whether err is a CeremonyError of the given code, looking
// through any wrapping.
func Is(err error, code Code) bool {
	var ce *CeremonyError
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}

// CodeOf extracts the taxonomy code from err, if any.
func CodeOf(err error) (Code, bool) {
	var ce *CeremonyError
	if errors.As(err, &ce) {
		return ce.Code, true
	}
	return "", false
}
