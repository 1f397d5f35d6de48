// Package androidkey implements the "android-key" attestation statement
// format, backed by the Android Keystore hardware attestation extension.
//
// https://www.w3.org/TR/webauthn-3/#sctn-android-key-attestation
package androidkey

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/x509"
	"encoding/asn1"
	"fmt"
	"math/big"

	"github.com/go-webauthn/core/webauthn/attestation/attkind"
	"github.com/go-webauthn/core/webauthn/authdata"
	"github.com/go-webauthn/core/webauthn/cose"
	"github.com/go-webauthn/core/webauthn/trust/certconstraints"
	"github.com/go-webauthn/core/webauthn/werrors"
)

// Statement is the decoded "android-key" attStmt.
type Statement struct {
	Alg cose.Algorithm
	Sig []byte
	X5C []*x509.Certificate
}

// keyDescription mirrors the fixed-position prefix of the ASN.1
// KeyDescription SEQUENCE carried by the Android Key Attestation extension
// (OID 1.3.6.1.4.1.11129.2.1.17): attestationVersion, securityLevel,
// keymasterVersion, keymasterSecurityLevel, attestationChallenge, and
// uniqueId are simple, always-present, low-tag fields that decode cleanly
// through encoding/asn1's struct mapping. The two AuthorizationList
// SEQUENCEs that follow are NOT mapped the same way: their fields use
// context tag numbers up to 706, appear in varying subsets depending on
// authenticator, and golang.org/x/crypto/cryptobyte's Tag type can't
// represent tags above 31 either — so they're walked generically by
// authorizationList below instead of declared as struct fields.
type keyDescriptionPrefix struct {
	AttestationVersion       int
	AttestationSecurityLevel asn1.Enumerated
	KeymasterVersion         int
	KeymasterSecurityLevel   asn1.Enumerated
	AttestationChallenge     []byte
	UniqueID                 []byte
	SoftwareEnforced         asn1.RawValue
	TeeEnforced              asn1.RawValue
}

// authorizationList is the subset of an AuthorizationList SEQUENCE's
// [tag] EXPLICIT elements the ceremony inspects, keyed by tag number
// regardless of position — see keyDescriptionPrefix.
type authorizationList struct {
	purpose         []int
	hasPurpose      bool
	allApplications bool
	origin          int
	hasOrigin       bool
}

// parseAuthorizationList walks every top-level [N] EXPLICIT element of an
// AuthorizationList SEQUENCE, extracting only the tags the ceremony cares
// about (purpose=1, allApplications=600, origin=702) and ignoring the rest.
func parseAuthorizationList(raw asn1.RawValue) (authorizationList, error) {
	var out authorizationList
	rest := raw.Bytes
	for len(rest) > 0 {
		var elem asn1.RawValue
		next, err := asn1.Unmarshal(rest, &elem)
		if err != nil {
			return out, fmt.Errorf("android-key: malformed AuthorizationList element: %w", err)
		}
		rest = next

		switch elem.Tag {
		case 1: // purpose, a SET OF INTEGER
			purposes, err := parseIntSet(elem.Bytes)
			if err != nil {
				return out, fmt.Errorf("android-key: malformed purpose field: %w", err)
			}
			out.purpose = purposes
			out.hasPurpose = true
		case 600: // allApplications
			out.allApplications = true
		case 702: // origin
			if _, err := asn1.Unmarshal(elem.Bytes, &out.origin); err != nil {
				return out, fmt.Errorf("android-key: malformed origin field: %w", err)
			}
			out.hasOrigin = true
		}
	}
	return out, nil
}

// parseIntSet decodes a DER-encoded SET OF INTEGER. The purpose field is
// SET-tagged, not SEQUENCE-tagged, so it can't go through encoding/asn1's
// struct-based slice unmarshaling, which always expects universal tag 16
// unless told otherwise via a struct field tag that Unmarshal's top-level
// call (with no enclosing struct) has no way to supply.
func parseIntSet(der []byte) ([]int, error) {
	var set asn1.RawValue
	if _, err := asn1.Unmarshal(der, &set); err != nil {
		return nil, err
	}
	var values []int
	rest := set.Bytes
	for len(rest) > 0 {
		var v int
		next, err := asn1.Unmarshal(rest, &v)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
		rest = next
	}
	return values, nil
}

// Options configures the injected android-key-specific policy knobs.
type Options struct {
	// TeeEnforcedOnly requires origin and purpose to be attested in the
	// TEE-enforced authorization list specifically, rejecting a leaf
	// certificate that only carries them in softwareEnforced. Unset (the
	// default), either list satisfies the check — spec.md §4.3
	// "android-key" only mandates the TEE-only restriction when an RP
	// opts into it.
	TeeEnforcedOnly bool
}

// Verify implements spec.md §4.3 "android-key".
func Verify(stmt *Statement, authData *authdata.AuthenticatorData, rawAuthData []byte, clientDataHash [32]byte, opts Options) (attkind.Type, error) {
	if stmt == nil {
		return 0, werrors.New(werrors.CodeBadAttestationStatement, fmt.Errorf("android-key: missing attestation statement"))
	}
	if len(stmt.X5C) == 0 {
		return 0, werrors.New(werrors.CodeBadAttestationStatement, fmt.Errorf("android-key: x5c must contain at least one certificate"))
	}
	if authData == nil || authData.AttestedCredentialData == nil {
		return 0, werrors.New(werrors.CodeConstraintViolation, fmt.Errorf("android-key: authenticator data has no attested credential data"))
	}

	signedData := append(append([]byte{}, rawAuthData...), clientDataHash[:]...)
	leaf := stmt.X5C[0]
	sigAlg, err := cose.X509SignatureAlgorithm(stmt.Alg)
	if err != nil {
		return 0, werrors.New(werrors.CodeBadAttestationStatement, err)
	}
	if err := leaf.CheckSignature(sigAlg, signedData, stmt.Sig); err != nil {
		return 0, werrors.New(werrors.CodeBadSignature, fmt.Errorf("android-key: signature over authData||clientDataHash: %w", err))
	}

	if err := leafPublicKeyMatchesCredential(leaf, authData.AttestedCredentialData.Key); err != nil {
		return 0, err
	}

	raw, ok := certconstraints.FindExtension(leaf, certconstraints.OIDAndroidKeyAttestation)
	if !ok {
		return 0, werrors.New(werrors.CodeCertificate, fmt.Errorf("android-key: leaf certificate is missing the Android Key Attestation extension"))
	}
	var kd keyDescriptionPrefix
	if rest, err := asn1.Unmarshal(raw, &kd); err != nil {
		return 0, werrors.New(werrors.CodeCertificate, fmt.Errorf("android-key: decoding KeyDescription: %w", err))
	} else if len(rest) != 0 {
		return 0, werrors.New(werrors.CodeCertificate, fmt.Errorf("android-key: trailing data after KeyDescription"))
	}

	if !bytes.Equal(kd.AttestationChallenge, clientDataHash[:]) {
		return 0, werrors.New(werrors.CodeCertificate, fmt.Errorf("android-key: attestationChallenge does not match clientDataHash"))
	}

	softwareEnforced, err := parseAuthorizationList(kd.SoftwareEnforced)
	if err != nil {
		return 0, werrors.New(werrors.CodeCertificate, err)
	}
	teeEnforced, err := parseAuthorizationList(kd.TeeEnforced)
	if err != nil {
		return 0, werrors.New(werrors.CodeCertificate, err)
	}

	if softwareEnforced.allApplications || teeEnforced.allApplications {
		return 0, werrors.New(werrors.CodeCertificate, fmt.Errorf("android-key: allApplications must be absent (credential key must not be shared across apps)"))
	}

	if opts.TeeEnforcedOnly {
		if softwareEnforced.hasOrigin || softwareEnforced.hasPurpose {
			return 0, werrors.New(werrors.CodeCertificate, fmt.Errorf("android-key: origin/purpose must appear only in teeEnforced, but softwareEnforced carries one"))
		}
		if !teeEnforced.hasOrigin || teeEnforced.origin != 0 {
			return 0, werrors.New(werrors.CodeCertificate, fmt.Errorf("android-key: teeEnforced.origin must be KM_ORIGIN_GENERATED"))
		}
		if !teeEnforced.hasPurpose || len(teeEnforced.purpose) != 1 || teeEnforced.purpose[0] != 2 {
			return 0, werrors.New(werrors.CodeCertificate, fmt.Errorf("android-key: teeEnforced.purpose must be exactly [KM_PURPOSE_SIGN]"))
		}
		return attkind.Basic, nil
	}

	// origin MUST be KM_ORIGIN_GENERATED (0); accepted from either
	// authorization list when teeEnforcedOnly isn't configured.
	origin, hasOrigin := teeEnforced.origin, teeEnforced.hasOrigin
	if !hasOrigin {
		origin, hasOrigin = softwareEnforced.origin, softwareEnforced.hasOrigin
	}
	if !hasOrigin || origin != 0 {
		return 0, werrors.New(werrors.CodeCertificate, fmt.Errorf("android-key: origin must be KM_ORIGIN_GENERATED"))
	}
	// purpose MUST be exactly [KM_PURPOSE_SIGN] (2), from either list.
	purpose, hasPurpose := teeEnforced.purpose, teeEnforced.hasPurpose
	if !hasPurpose {
		purpose, hasPurpose = softwareEnforced.purpose, softwareEnforced.hasPurpose
	}
	if !hasPurpose || len(purpose) != 1 || purpose[0] != 2 {
		return 0, werrors.New(werrors.CodeCertificate, fmt.Errorf("android-key: purpose must be exactly [KM_PURPOSE_SIGN]"))
	}

	return attkind.Basic, nil
}

func leafPublicKeyMatchesCredential(leaf *x509.Certificate, key cose.Key) error {
	switch k := key.(type) {
	case *cose.EC2Key:
		pub, ok := leaf.PublicKey.(*ecdsa.PublicKey)
		if !ok {
			return werrors.New(werrors.CodeBadAttestationStatement, fmt.Errorf("android-key: leaf certificate key type %T does not match EC2 credential key", leaf.PublicKey))
		}
		if pub.X.Cmp(new(big.Int).SetBytes(k.X)) != 0 || pub.Y.Cmp(new(big.Int).SetBytes(k.Y)) != 0 {
			return werrors.New(werrors.CodeBadAttestationStatement, fmt.Errorf("android-key: leaf certificate public key does not match credentialPublicKey"))
		}
	case *cose.RSAKey:
		pub, ok := leaf.PublicKey.(*rsa.PublicKey)
		if !ok {
			return werrors.New(werrors.CodeBadAttestationStatement, fmt.Errorf("android-key: leaf certificate key type %T does not match RSA credential key", leaf.PublicKey))
		}
		exp := k.E
		if exp == 0 {
			exp = 65537
		}
		if pub.N.Cmp(new(big.Int).SetBytes(k.N)) != 0 || pub.E != exp {
			return werrors.New(werrors.CodeBadAttestationStatement, fmt.Errorf("android-key: leaf certificate public key does not match credentialPublicKey"))
		}
	case *cose.OKPKey:
		pub, ok := leaf.PublicKey.(ed25519.PublicKey)
		if !ok || !bytes.Equal(pub, k.X) {
			return werrors.New(werrors.CodeBadAttestationStatement, fmt.Errorf("android-key: leaf certificate public key does not match credentialPublicKey"))
		}
	default:
		return werrors.New(werrors.CodeBadAttestationStatement, fmt.Errorf("android-key: unsupported credential key type %T", key))
	}
	return nil
}
