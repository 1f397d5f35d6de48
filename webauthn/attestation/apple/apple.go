// Package apple implements the "apple" anonymous attestation statement
// format used by Secure Enclave-backed credentials on iOS/macOS.
//
// https://www.w3.org/TR/webauthn-3/#sctn-apple-anonymous-attestation
package apple

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"fmt"
	"math/big"

	"github.com/go-webauthn/core/webauthn/attestation/attkind"
	"github.com/go-webauthn/core/webauthn/authdata"
	"github.com/go-webauthn/core/webauthn/cose"
	"github.com/go-webauthn/core/webauthn/trust/certconstraints"
	"github.com/go-webauthn/core/webauthn/werrors"
)

// Statement is the decoded "apple" attStmt.
type Statement struct {
	X5C []*x509.Certificate
}

// Verify implements spec.md §4.3 "apple".
func Verify(stmt *Statement, authData *authdata.AuthenticatorData, rawAuthData []byte, clientDataHash [32]byte) (attkind.Type, error) {
	if stmt == nil || len(stmt.X5C) == 0 {
		return 0, werrors.New(werrors.CodeBadAttestationStatement, fmt.Errorf("apple: x5c must contain at least one certificate"))
	}
	if authData == nil || authData.AttestedCredentialData == nil {
		return 0, werrors.New(werrors.CodeConstraintViolation, fmt.Errorf("apple: authenticator data has no attested credential data"))
	}

	nonceInput := append(append([]byte{}, rawAuthData...), clientDataHash[:]...)
	wantNonce := sha256.Sum256(nonceInput)

	leaf := stmt.X5C[0]
	raw, ok := certconstraints.FindExtension(leaf, certconstraints.OIDAppleNonce)
	if !ok {
		return 0, werrors.New(werrors.CodeCertificate, fmt.Errorf("apple: leaf certificate is missing the Apple anonymous attestation extension"))
	}
	gotNonce, err := certconstraints.UnwrapAppleNonce(raw)
	if err != nil {
		return 0, werrors.New(werrors.CodeCertificate, fmt.Errorf("apple: %w", err))
	}
	if !bytes.Equal(gotNonce, wantNonce[:]) {
		return 0, werrors.New(werrors.CodeCertificate, fmt.Errorf("apple: nonce extension does not match sha256(authData || clientDataHash)"))
	}

	if err := leafPublicKeyMatchesCredential(leaf, authData.AttestedCredentialData.Key); err != nil {
		return 0, err
	}

	// Apple's CA chain anchors the credential's trustworthiness; the core
	// delegates that chain walk to trust.CertPathValidator. This format's
	// own verification is limited to the nonce binding and key match.
	return attkind.AnonCA, nil
}

func leafPublicKeyMatchesCredential(leaf *x509.Certificate, key cose.Key) error {
	switch k := key.(type) {
	case *cose.EC2Key:
		pub, ok := leaf.PublicKey.(*ecdsa.PublicKey)
		if !ok {
			return werrors.New(werrors.CodeBadAttestationStatement, fmt.Errorf("apple: leaf certificate key type %T does not match EC2 credential key", leaf.PublicKey))
		}
		if pub.X.Cmp(new(big.Int).SetBytes(k.X)) != 0 || pub.Y.Cmp(new(big.Int).SetBytes(k.Y)) != 0 {
			return werrors.New(werrors.CodeBadAttestationStatement, fmt.Errorf("apple: leaf certificate public key does not match credentialPublicKey"))
		}
	case *cose.RSAKey:
		pub, ok := leaf.PublicKey.(*rsa.PublicKey)
		if !ok {
			return werrors.New(werrors.CodeBadAttestationStatement, fmt.Errorf("apple: leaf certificate key type %T does not match RSA credential key", leaf.PublicKey))
		}
		exp := k.E
		if exp == 0 {
			exp = 65537
		}
		if pub.N.Cmp(new(big.Int).SetBytes(k.N)) != 0 || pub.E != exp {
			return werrors.New(werrors.CodeBadAttestationStatement, fmt.Errorf("apple: leaf certificate public key does not match credentialPublicKey"))
		}
	case *cose.OKPKey:
		pub, ok := leaf.PublicKey.(ed25519.PublicKey)
		if !ok || !bytes.Equal(pub, k.X) {
			return werrors.New(werrors.CodeBadAttestationStatement, fmt.Errorf("apple: leaf certificate public key does not match credentialPublicKey"))
		}
	default:
		return werrors.New(werrors.CodeBadAttestationStatement, fmt.Errorf("apple: unsupported credential key type %T", key))
	}
	return nil
}
