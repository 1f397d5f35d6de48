// Package tpm implements the "tpm" attestation statement format used by
// Windows Hello and other TPM 2.0-backed authenticators. Alongside
// fido-u2f, this is the format spec.md §2 calls out as dominating the
// core's algorithmic complexity: verifying it means cross-checking a
// TPMT_PUBLIC structure against the COSE key, validating a TPMS_ATTEST
// certify structure, and (when present) an AIK certificate chain.
//
// https://www.w3.org/TR/webauthn-3/#sctn-tpm-attestation
package tpm

import (
	"bytes"
	"crypto/x509"
	"fmt"

	legacytpm2 "github.com/google/go-tpm/legacy/tpm2"

	"github.com/go-webauthn/core/webauthn/attestation/attkind"
	"github.com/go-webauthn/core/webauthn/authdata"
	"github.com/go-webauthn/core/webauthn/cose"
	"github.com/go-webauthn/core/webauthn/trust/certconstraints"
	"github.com/go-webauthn/core/webauthn/werrors"
)

// tpmGeneratedValue is TPM_GENERATED_VALUE, the magic number every genuine
// TPMS_ATTEST structure begins with.
const tpmGeneratedValue uint32 = 0xff544347

// Statement is the decoded "tpm" attStmt.
type Statement struct {
	Ver      string
	Alg      cose.Algorithm
	Sig      []byte
	CertInfo []byte // raw TPMS_ATTEST bytes
	PubArea  []byte // raw TPMT_PUBLIC bytes
	X5C      []*x509.Certificate
}

// DeviceProperty is the decoded TCG EK Credential Profile Subject
// Alternative Name payload: TPM manufacturer/model/firmware version.
type DeviceProperty struct {
	Manufacturer string
	Model        string
	Version      string
}

// DevicePropertyDecoder decodes the raw SAN extension value of an AIK
// certificate into a DeviceProperty. The core does not implement TCG's
// SAN encoding itself — per spec.md §6, this is an injected collaborator.
type DevicePropertyDecoder interface {
	Decode(sanExtensionValue []byte) (*DeviceProperty, error)
}

// DevicePropertyValidator approves or rejects a decoded DeviceProperty
// (e.g. checking the manufacturer against a known TCG vendor ID list).
type DevicePropertyValidator interface {
	Validate(prop *DeviceProperty) error
}

// Options configures the injected TPM-specific collaborators.
type Options struct {
	DevicePropertyDecoder   DevicePropertyDecoder
	DevicePropertyValidator DevicePropertyValidator
}

// Verify implements spec.md §4.3 "tpm".
func Verify(stmt *Statement, authData *authdata.AuthenticatorData, rawAuthData []byte, clientDataHash [32]byte, opts Options) (attkind.Type, error) {
	if stmt == nil {
		return 0, werrors.New(werrors.CodeBadAttestationStatement, fmt.Errorf("tpm: missing attestation statement"))
	}
	if stmt.Ver != "2.0" {
		return 0, werrors.New(werrors.CodeBadAttestationStatement, fmt.Errorf("tpm: unsupported version %q, only \"2.0\" is supported", stmt.Ver))
	}
	if authData == nil || authData.AttestedCredentialData == nil {
		return 0, werrors.New(werrors.CodeConstraintViolation, fmt.Errorf("tpm: authenticator data has no attested credential data"))
	}

	pubArea, err := legacytpm2.DecodePublic(stmt.PubArea)
	if err != nil {
		return 0, werrors.New(werrors.CodeBadAttestationStatement, fmt.Errorf("tpm: decoding pubArea: %w", err))
	}
	if err := pubAreaMatchesCOSEKey(pubArea, authData.AttestedCredentialData.Key); err != nil {
		return 0, err
	}

	certInfo, err := legacytpm2.DecodeAttestationData(stmt.CertInfo)
	if err != nil {
		return 0, werrors.New(werrors.CodeBadAttestationStatement, fmt.Errorf("tpm: decoding certInfo: %w", err))
	}
	if certInfo.Magic != tpmGeneratedValue {
		return 0, werrors.New(werrors.CodeBadAttestationStatement, fmt.Errorf("tpm: certInfo magic is not TPM_GENERATED_VALUE"))
	}
	if certInfo.Type != legacytpm2.TagAttestCertify {
		return 0, werrors.New(werrors.CodeBadAttestationStatement, fmt.Errorf("tpm: certInfo type is not TPM_ST_ATTEST_CERTIFY"))
	}

	attToBeSigned := append(append([]byte{}, rawAuthData...), clientDataHash[:]...)
	wantExtraData, err := cose.Digest(stmt.Alg, attToBeSigned)
	if err != nil {
		return 0, werrors.New(werrors.CodeBadAttestationStatement, err)
	}
	if !bytes.Equal(certInfo.ExtraData, wantExtraData) {
		return 0, werrors.New(werrors.CodeBadAttestationStatement, fmt.Errorf("tpm: certInfo.extraData does not match hash of attToBeSigned"))
	}

	if certInfo.AttestedCertifyInfo == nil {
		return 0, werrors.New(werrors.CodeBadAttestationStatement, fmt.Errorf("tpm: certInfo is missing attested certify info"))
	}
	matches, err := certInfo.AttestedCertifyInfo.Name.MatchesPublic(pubArea)
	if err != nil {
		return 0, werrors.New(werrors.CodeBadAttestationStatement, fmt.Errorf("tpm: computing pubArea name: %w", err))
	}
	if !matches {
		return 0, werrors.New(werrors.CodeBadAttestationStatement, fmt.Errorf("tpm: attested name does not match pubArea"))
	}

	if len(stmt.X5C) == 0 {
		// ECDAA is deprecated by the WebAuthn WG; an x5c-less tpm
		// statement has no supported verification path.
		return 0, werrors.New(werrors.CodeBadAttestationStatement, fmt.Errorf("tpm: ECDAA attestation (no x5c) is not supported"))
	}

	aikCert := stmt.X5C[0]
	sigAlg, err := cose.X509SignatureAlgorithm(stmt.Alg)
	if err != nil {
		return 0, werrors.New(werrors.CodeBadAttestationStatement, err)
	}
	if err := aikCert.CheckSignature(sigAlg, stmt.CertInfo, stmt.Sig); err != nil {
		return 0, werrors.New(werrors.CodeBadSignature, fmt.Errorf("tpm: aikCert signature over certInfo: %w", err))
	}

	if err := verifyAIKCertRequirements(aikCert, authData.AttestedCredentialData.AAGUID, opts); err != nil {
		return 0, err
	}

	return attkind.AttCA, nil
}

func pubAreaMatchesCOSEKey(pubArea legacytpm2.Public, key cose.Key) error {
	switch k := key.(type) {
	case *cose.EC2Key:
		if pubArea.ECCParameters == nil {
			return werrors.New(werrors.CodeBadAttestationStatement, fmt.Errorf("tpm: pubArea has no ECC parameters for an EC2 credential key"))
		}
		if !bytes.Equal(pubArea.ECCParameters.Point.XRaw, k.X) || !bytes.Equal(pubArea.ECCParameters.Point.YRaw, k.Y) {
			return werrors.New(werrors.CodeBadAttestationStatement, fmt.Errorf("tpm: pubArea ECC point does not match credentialPublicKey"))
		}
		return nil
	case *cose.RSAKey:
		if pubArea.RSAParameters == nil {
			return werrors.New(werrors.CodeBadAttestationStatement, fmt.Errorf("tpm: pubArea has no RSA parameters for an RSA credential key"))
		}
		exp := k.E
		if exp == 0 {
			exp = 65537
		}
		if !bytes.Equal(pubArea.RSAParameters.ModulusRaw, k.N) || pubArea.RSAParameters.Exponent() != uint32(exp) {
			return werrors.New(werrors.CodeBadAttestationStatement, fmt.Errorf("tpm: pubArea RSA parameters do not match credentialPublicKey"))
		}
		return nil
	default:
		return werrors.New(werrors.CodeBadAttestationStatement, fmt.Errorf("tpm: unsupported credential key type %T", key))
	}
}

// verifyAIKCertRequirements implements spec.md §4.3's AIK certificate
// requirements (WebAuthn §8.3.1).
func verifyAIKCertRequirements(cert *x509.Certificate, aaguid authdata.AAGUID, opts Options) error {
	if cert.Version != 3 {
		return werrors.New(werrors.CodeCertificate, fmt.Errorf("tpm: AIK certificate version must be 3, got %d", cert.Version))
	}
	if !certconstraints.SubjectIsEmpty(cert.Subject) {
		return werrors.New(werrors.CodeCertificate, fmt.Errorf("tpm: AIK certificate subject must be empty"))
	}
	if cert.IsCA {
		return werrors.New(werrors.CodeCertificate, fmt.Errorf("tpm: AIK certificate must have Basic Constraints CA=false"))
	}
	if !certconstraints.HasEKU(cert, certconstraints.OIDTCGKPAIKCertificate) {
		return werrors.New(werrors.CodeCertificate, fmt.Errorf("tpm: AIK certificate EKU must contain tcg-kp-AIKCertificate (2.23.133.8.3)"))
	}

	san, ok := certconstraints.FindExtension(cert, certconstraints.OIDSubjectAltName)
	if !ok {
		return werrors.New(werrors.CodeCertificate, fmt.Errorf("tpm: AIK certificate is missing a Subject Alternative Name"))
	}
	if opts.DevicePropertyDecoder == nil {
		return werrors.New(werrors.CodeConstraintViolation, fmt.Errorf("tpm: no TPMDevicePropertyDecoder configured to validate AIK SAN"))
	}
	prop, err := opts.DevicePropertyDecoder.Decode(san)
	if err != nil {
		return werrors.New(werrors.CodeCertificate, fmt.Errorf("tpm: decoding AIK SAN device property: %w", err))
	}
	if opts.DevicePropertyValidator != nil {
		if err := opts.DevicePropertyValidator.Validate(prop); err != nil {
			return werrors.New(werrors.CodeCertificate, fmt.Errorf("tpm: AIK device property rejected: %w", err))
		}
	}

	if raw, ok := certconstraints.FindExtension(cert, certconstraints.OIDFIDOGenCEAAGUID); ok {
		certAAGUID, err := certconstraints.UnwrapOctetString(raw)
		if err != nil {
			return werrors.New(werrors.CodeCertificate, fmt.Errorf("tpm: id-fido-gen-ce-aaguid extension: %w", err))
		}
		if len(certAAGUID) != 16 || authdata.AAGUID(certAAGUID[:16]) != aaguid {
			return werrors.New(werrors.CodeCertificate, fmt.Errorf("tpm: id-fido-gen-ce-aaguid extension does not match authData AAGUID"))
		}
	}

	return nil
}
