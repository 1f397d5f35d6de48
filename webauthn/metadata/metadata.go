// Package metadata models the caller-supplied FIDO Metadata Service (MDS)
// contract the core consults when resolving trust anchors by AAGUID
// (spec.md §4.4). The core never fetches metadata over the network; it
// only iterates over what a MetadataProvider hands it.
package metadata

import (
	"crypto/x509"

	"github.com/go-webauthn/core/webauthn/authdata"
)

// StatusReport is one of the FIDO MDS AuthenticatorStatus values. Only the
// subset spec.md §4.4 treats as disqualifying is named here; unrecognized
// values are treated as informational and don't block trust.
type StatusReport string

const (
	StatusAttestationKeyCompromise StatusReport = "ATTESTATION_KEY_COMPROMISE"
	StatusUserVerificationBypass   StatusReport = "USER_VERIFICATION_BYPASS"
	StatusUserKeyRemoteCompromise  StatusReport = "USER_KEY_REMOTE_COMPROMISE"
	StatusUserKeyPhysicalComp      StatusReport = "USER_KEY_PHYSICAL_COMPROMISE"
	StatusRevoked                  StatusReport = "REVOKED"
)

// disqualifying is the exact set spec.md §4.4 names as mapping to
// BadStatus.
var disqualifying = map[StatusReport]bool{
	StatusAttestationKeyCompromise: true,
	StatusUserVerificationBypass:   true,
	StatusUserKeyRemoteCompromise:  true,
	StatusUserKeyPhysicalComp:      true,
	StatusRevoked:                  true,
}

// IsDisqualifying reports whether any status in reports triggers BadStatus.
func IsDisqualifying(reports []StatusReport) (StatusReport, bool) {
	for _, r := range reports {
		if disqualifying[r] {
			return r, true
		}
	}
	return "", false
}

// Statement is a single FIDO Metadata Statement entry.
//
// https://fidoalliance.org/specs/mds/fido-metadata-statement-v3.0-ps-20210518.html#metadata-keys
type Statement struct {
	AAGUID                      authdata.AAGUID
	Description                 string
	AttestationRootCertificates []*x509.Certificate
	StatusReports               []StatusReport
	// AttestationTypes lists the ecdaa/basic/etc attestation types this
	// authenticator model is allowed to present, per the metadata
	// statement's "attestationTypes" field. It is carried for callers only:
	// trust anchor resolution and the ceremony validators do not read it,
	// so it does not restrict which attestation types are accepted.
	AttestationTypes []string
}

// Provider streams metadata statements. Implementations are expected to be
// backed by a cached, periodically refreshed FIDO MDS blob. The core calls
// Provide once per anchor lookup — so up to twice per ceremony, when the
// AAGUID lookup finds nothing and the key-identifier lookup follows — and
// treats each result as immutable for the duration of that lookup.
type Provider interface {
	Provide() ([]*Statement, error)
}

// StaticProvider is a Provider backed by a fixed, in-memory slice, useful
// for tests and for RPs that pin a small allow-list of authenticator
// models instead of consuming the full FIDO MDS blob.
type StaticProvider struct {
	Statements []*Statement
}

func (p *StaticProvider) Provide() ([]*Statement, error) {
	return p.Statements, nil
}
