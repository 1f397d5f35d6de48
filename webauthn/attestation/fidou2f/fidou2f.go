// Package fidou2f implements the "fido-u2f" attestation statement format,
// used by legacy U2F security keys participating in the WebAuthn
// ceremony. This format dominates the core's algorithmic complexity
// alongside tpm (spec.md §2) because the signed data isn't simply
// authData‖clientDataHash — it's a bespoke U2F "key registration
// response" reconstruction.
//
// https://www.w3.org/TR/webauthn-3/#sctn-fido-u2f-attestation
package fidou2f

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"crypto/x509"
	"fmt"

	"github.com/go-webauthn/core/webauthn/attestation/attkind"
	"github.com/go-webauthn/core/webauthn/authdata"
	"github.com/go-webauthn/core/webauthn/cose"
	"github.com/go-webauthn/core/webauthn/werrors"
)

// Statement is the decoded "fido-u2f" attStmt.
type Statement struct {
	Sig []byte
	X5C []*x509.Certificate
}

// Verify implements spec.md §4.3 "fido-u2f".
//
// Per spec.md §9 open question (a): the signed-data length calculation
// assumes a 65-byte uncompressed P-256 point. Credentials using any other
// curve are rejected before the U2F-specific reconstruction runs, rather
// than silently truncating or padding a differently sized point.
func Verify(stmt *Statement, authData *authdata.AuthenticatorData, rpID string, clientDataHash [32]byte) (attkind.Type, error) {
	if stmt == nil {
		return 0, werrors.New(werrors.CodeBadAttestationStatement, fmt.Errorf("fido-u2f: missing attestation statement"))
	}
	if len(stmt.X5C) != 1 {
		return 0, werrors.New(werrors.CodeBadAttestationStatement, fmt.Errorf("fido-u2f: expected exactly one certificate, got %d", len(stmt.X5C)))
	}
	if authData == nil || authData.AttestedCredentialData == nil {
		return 0, werrors.New(werrors.CodeConstraintViolation, fmt.Errorf("fido-u2f: authenticator data has no attested credential data"))
	}

	ec2, ok := authData.AttestedCredentialData.Key.(*cose.EC2Key)
	if !ok || ec2.Curve != cose.CurveP256 {
		return 0, werrors.New(werrors.CodeBadAttestationStatement, fmt.Errorf("fido-u2f: credential key must be an EC2 P-256 key"))
	}

	cert := stmt.X5C[0]
	certPub, ok := cert.PublicKey.(*ecdsa.PublicKey)
	if !ok || certPub.Curve.Params().Name != "P-256" {
		return 0, werrors.New(werrors.CodeBadAttestationStatement, fmt.Errorf("fido-u2f: attestation certificate public key must be EC P-256"))
	}

	u2fPoint, err := uncompressedPoint(ec2)
	if err != nil {
		return 0, werrors.New(werrors.CodeBadAttestationStatement, err)
	}

	rpIDHash := sha256.Sum256([]byte(rpID))

	signedData := make([]byte, 0, 1+32+32+len(authData.AttestedCredentialData.CredentialID)+65)
	signedData = append(signedData, 0x00)
	signedData = append(signedData, rpIDHash[:]...)
	signedData = append(signedData, clientDataHash[:]...)
	signedData = append(signedData, authData.AttestedCredentialData.CredentialID...)
	signedData = append(signedData, u2fPoint...)

	if ok := ecdsa.VerifyASN1(certPub, hashSHA256(signedData), stmt.Sig); !ok {
		return 0, werrors.New(werrors.CodeBadSignature, fmt.Errorf("fido-u2f: invalid ECDSA-SHA256 signature over U2F signed data"))
	}

	// Per spec.md §9 open question (c): fido-u2f always reports Basic,
	// even when the certificate chain actually roots at an Attestation CA.
	// The wire format doesn't disambiguate; callers deriving risk
	// decisions from AttestationType should treat U2F as "Basic-or-better".
	return attkind.Basic, nil
}

// uncompressedPoint renders an EC2 key's (X, Y) coordinates as the
// uncompressed SEC1 point format `0x04 ‖ X(32) ‖ Y(32)`, per spec.md §6.
func uncompressedPoint(key *cose.EC2Key) ([]byte, error) {
	x := leftPad32(key.X)
	y := leftPad32(key.Y)
	if len(x) != 32 || len(y) != 32 {
		return nil, fmt.Errorf("fido-u2f: P-256 coordinate too large")
	}
	point := make([]byte, 0, 65)
	point = append(point, 0x04)
	point = append(point, x...)
	point = append(point, y...)
	return point, nil
}

func leftPad32(b []byte) []byte {
	if len(b) >= 32 {
		return b[len(b)-32:]
	}
	padded := make([]byte, 32)
	copy(padded[32-len(b):], b)
	return padded
}

func hashSHA256(data []byte) []byte {
	sum := sha256.Sum256(data)
	return sum[:]
}
