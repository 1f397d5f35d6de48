package authdata

import (
	"github.com/go-webauthn/core/webauthn/cose"
	"github.com/go-webauthn/core/webauthn/extensions"
)

// AttestedCredentialData is present in authenticator data during
// registration (and MUST be absent during authentication, per spec.md §3's
// invariants).
//
// https://www.w3.org/TR/webauthn-3/#attested-credential-data
type AttestedCredentialData struct {
	AAGUID       AAGUID
	CredentialID []byte
	Key          cose.Key
}

// AuthenticatorData is the decoded authenticator data structure consumed
// by both ceremony validators. The core never parses this from
// authData bytes; callers hand it in already decoded (spec.md §1 scopes
// byte-level CBOR/COSE decoding out of the core) alongside the raw bytes,
// which are still needed verbatim for the signed-data concatenations in
// spec.md §6.
//
// https://www.w3.org/TR/webauthn-3/#authenticator-data
type AuthenticatorData struct {
	RPIDHash                [32]byte
	Flags                   Flags
	SignCount               uint32
	AttestedCredentialData  *AttestedCredentialData
	Extensions              extensions.Outputs
	Raw                     []byte
}

// HasAttestedCredentialData reports whether the AT flag and the attested
// credential data payload are both present and consistent.
func (d *AuthenticatorData) HasAttestedCredentialData() bool {
	return d.Flags.AttestedCredentialDataIncluded() && d.AttestedCredentialData != nil
}
