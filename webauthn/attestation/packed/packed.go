// Package packed implements the "packed" attestation statement format,
// WebAuthn's catch-all format for authenticators without a more specific
// attestation scheme.
//
// https://www.w3.org/TR/webauthn-3/#sctn-packed-attestation
package packed

import (
	"crypto/x509"
	"fmt"

	"github.com/go-webauthn/core/webauthn/attestation/attkind"
	"github.com/go-webauthn/core/webauthn/authdata"
	"github.com/go-webauthn/core/webauthn/cose"
	"github.com/go-webauthn/core/webauthn/trust/certconstraints"
	"github.com/go-webauthn/core/webauthn/werrors"
)

// Statement is the decoded "packed" attStmt. X5C is nil for the
// self-attestation case.
type Statement struct {
	Alg cose.Algorithm
	Sig []byte
	X5C []*x509.Certificate
}

// Verify implements spec.md §4.3 "packed", both the full (X5C present) and
// self (X5C absent) sub-cases.
func Verify(stmt *Statement, authData *authdata.AuthenticatorData, rawAuthData []byte, clientDataHash [32]byte) (attkind.Type, error) {
	if stmt == nil {
		return 0, werrors.New(werrors.CodeBadAttestationStatement, fmt.Errorf("packed: missing attestation statement"))
	}
	if authData == nil || authData.AttestedCredentialData == nil {
		return 0, werrors.New(werrors.CodeConstraintViolation, fmt.Errorf("packed: authenticator data has no attested credential data"))
	}

	signedData := append(append([]byte{}, rawAuthData...), clientDataHash[:]...)

	if len(stmt.X5C) > 0 {
		return verifyFull(stmt, authData, signedData)
	}
	return verifySelf(stmt, authData, signedData)
}

func verifyFull(stmt *Statement, authData *authdata.AuthenticatorData, signedData []byte) (attkind.Type, error) {
	leaf := stmt.X5C[0]

	sigAlg, err := cose.X509SignatureAlgorithm(stmt.Alg)
	if err != nil {
		return 0, werrors.New(werrors.CodeBadAttestationStatement, err)
	}
	if err := leaf.CheckSignature(sigAlg, signedData, stmt.Sig); err != nil {
		return 0, werrors.New(werrors.CodeBadSignature, fmt.Errorf("packed: attestation signature: %w", err))
	}

	if err := verifyAttestationCertRequirements(leaf, authData.AttestedCredentialData.AAGUID); err != nil {
		return 0, err
	}

	return attkind.Basic, nil
}

// verifyAttestationCertRequirements enforces WebAuthn §8.2's attestation
// certificate requirements.
//
// https://www.w3.org/TR/webauthn-3/#sctn-packed-attestation-cert-requirements
func verifyAttestationCertRequirements(leaf *x509.Certificate, aaguid authdata.AAGUID) error {
	if leaf.Version != 3 {
		return werrors.New(werrors.CodeCertificate, fmt.Errorf("packed: attestation certificate version must be 3, got %d", leaf.Version))
	}
	if !containsOU(leaf.Subject.OrganizationalUnit, "Authenticator Attestation") {
		return werrors.New(werrors.CodeCertificate, fmt.Errorf("packed: attestation certificate subject OU must be %q", "Authenticator Attestation"))
	}
	if leaf.IsCA {
		return werrors.New(werrors.CodeCertificate, fmt.Errorf("packed: attestation certificate must have Basic Constraints CA=false"))
	}
	if raw, ok := certconstraints.FindExtension(leaf, certconstraints.OIDFIDOGenCEAAGUID); ok {
		certAAGUID, err := certconstraints.UnwrapOctetString(raw)
		if err != nil {
			return werrors.New(werrors.CodeCertificate, fmt.Errorf("packed: id-fido-gen-ce-aaguid extension: %w", err))
		}
		if len(certAAGUID) != 16 || authdata.AAGUID(certAAGUID[:16]) != aaguid {
			return werrors.New(werrors.CodeCertificate, fmt.Errorf("packed: id-fido-gen-ce-aaguid extension does not match authData AAGUID"))
		}
	}
	return nil
}

func containsOU(ous []string, want string) bool {
	for _, ou := range ous {
		if ou == want {
			return true
		}
	}
	return false
}

func verifySelf(stmt *Statement, authData *authdata.AuthenticatorData, signedData []byte) (attkind.Type, error) {
	key := authData.AttestedCredentialData.Key
	if key == nil {
		return 0, werrors.New(werrors.CodeConstraintViolation, fmt.Errorf("packed: no credential public key to verify self-attestation against"))
	}
	if stmt.Alg != key.Algorithm() {
		return 0, werrors.New(werrors.CodeBadAttestationStatement, fmt.Errorf("packed: self attestation algorithm %s does not match credential algorithm %s", stmt.Alg, key.Algorithm()))
	}
	pub, err := key.PublicKey()
	if err != nil {
		return 0, werrors.New(werrors.CodeConstraintViolation, err)
	}
	if err := cose.VerifySignature(pub, stmt.Alg, signedData, stmt.Sig); err != nil {
		return 0, werrors.New(werrors.CodeBadSignature, fmt.Errorf("packed: self attestation signature: %w", err))
	}
	return attkind.Self, nil
}
