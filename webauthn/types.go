// Package webauthn implements the core WebAuthn Level 2 ceremony
// validators: RegistrationValidator (spec.md §4.1) and
// AuthenticationValidator (spec.md §4.2). Both consume already-decoded
// structures — this package never parses CBOR, COSE, or clientDataJSON
// bytes itself (spec.md §1) — and return a typed werrors.CeremonyError on
// any deviation from the spec-mandated check order.
package webauthn

import (
	"github.com/go-webauthn/core/webauthn/attestation"
	"github.com/go-webauthn/core/webauthn/authdata"
	"github.com/go-webauthn/core/webauthn/clientdata"
	"github.com/go-webauthn/core/webauthn/cose"
)

// ServerProperty is the relying party's configuration for one ceremony.
//
// https://www.w3.org/TR/webauthn-3/#sctn-rp-operations
type ServerProperty struct {
	// Origins is the set of fully qualified origins the RP accepts.
	Origins []string
	// RPID is the effective domain; rpIdHash in every AuthenticatorData
	// must equal SHA-256(RPID).
	RPID string
	// Challenge is the exact byte value handed to the authenticator.
	Challenge []byte
	// TokenBindingID is the server-side token binding identifier, if the
	// RP negotiates token binding with the client. Nil if unused.
	TokenBindingID []byte
}

// RegistrationData is the immutable input bundle for one registration
// ceremony, per spec.md §3.
type RegistrationData struct {
	// RawAuthenticatorData is the exact authenticator data bytes; the
	// attestation statement's signature covers these followed by
	// clientDataHash (authData || clientDataHash).
	RawAuthenticatorData []byte
	// RawClientDataJSON is the exact clientDataJSON bytes; SHA-256 of this
	// is what the attestation signature actually covers.
	RawClientDataJSON []byte

	ClientData clientdata.CollectedClientData
	AuthData   authdata.AuthenticatorData

	// Attestation is the decoded attestationObject: format tag plus the
	// per-format statement arm.
	Attestation attestation.Object
}

// RegistrationParameters carries the per-call policy the
// RegistrationValidator enforces alongside the config baked into it at
// construction.
type RegistrationParameters struct {
	// PubKeyCredParams is the set of acceptable COSE algorithms. An empty
	// slice means "accept any algorithm" (spec.md §4.1 step 4).
	PubKeyCredParams []cose.Algorithm
	// UserVerificationRequired, if true, requires the UV flag set in
	// authData (spec.md §4.1 step 3).
	UserVerificationRequired bool
	// UserPresenceRequired, if true, requires the UP flag set in authData.
	UserPresenceRequired bool
}

// AuthenticationData is the immutable input bundle for one authentication
// ceremony, per spec.md §3.
type AuthenticationData struct {
	// RawAuthenticatorData is authenticatorDataBytes, the first half of
	// the assertion's signed data.
	RawAuthenticatorData []byte
	// RawClientDataJSON is clientDataJSONBytes; SHA-256 of this is the
	// second half of the assertion's signed data.
	RawClientDataJSON []byte

	ClientData clientdata.CollectedClientData
	AuthData   authdata.AuthenticatorData

	// CredentialID identifies which Authenticator record this assertion
	// claims to come from.
	CredentialID []byte
	// Signature is the raw assertion signature bytes.
	Signature []byte
	// UserHandle is the optional userHandle returned by the authenticator,
	// opaque to this package.
	UserHandle []byte
}

// AuthenticationParameters carries the per-call policy the
// AuthenticationValidator enforces.
type AuthenticationParameters struct {
	// AllowCredentials, if non-empty, restricts acceptance to these
	// credential IDs (spec.md §4.2 step 1). A public allow-list; the
	// comparison need not be constant-time.
	AllowCredentials [][]byte
	// UserVerificationRequired, UserPresenceRequired mirror
	// RegistrationParameters' fields (spec.md §4.2 step 8).
	UserVerificationRequired bool
	UserPresenceRequired     bool
	// CrossOriginAllowed controls spec.md §4.2 step 5: whether a
	// crossOrigin=true clientData is acceptable.
	CrossOriginAllowed bool
}

// Authenticator is the caller-owned record identifying a previously
// registered credential, supplied to AuthenticationValidator.Validate and
// mutated in place (SignCount only) on success, per spec.md §3 and §5.
type Authenticator struct {
	CredentialID []byte
	AAGUID       authdata.AAGUID
	Key          cose.Key
	// SignCount is read before the call and, on success, updated in place
	// to the new value the caller must persist.
	SignCount uint32
	// Transports is caller-supplied metadata, unused by the validators.
	Transports []string
}
