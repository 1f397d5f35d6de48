package webauthn

import (
	"crypto/sha256"
	"crypto/x509"
	"fmt"

	"github.com/go-webauthn/core/webauthn/attestation"
	"github.com/go-webauthn/core/webauthn/attestation/attkind"
	"github.com/go-webauthn/core/webauthn/werrors"
)

// Validate runs the registration ceremony pipeline of spec.md §4.1 over
// data under params, in strict spec order. The first failing step aborts
// with a typed *werrors.CeremonyError; there are no partial effects.
func (v *RegistrationValidator) Validate(data *RegistrationData, params RegistrationParameters) (attkind.Type, error) {
	if data == nil {
		return 0, werrors.New(werrors.CodeConstraintViolation, fmt.Errorf("registration: nil RegistrationData"))
	}

	// Step 1: attestedCredentialData present, coseKey non-null.
	if !data.AuthData.HasAttestedCredentialData() {
		return 0, werrors.New(werrors.CodeConstraintViolation, fmt.Errorf("registration: authenticator data has no attested credential data"))
	}
	credKey := data.AuthData.AttestedCredentialData.Key
	if credKey == nil {
		return 0, werrors.New(werrors.CodeConstraintViolation, fmt.Errorf("registration: attested credential data has no credentialPublicKey"))
	}

	// Step 2: rpIdHash == SHA-256(rpId).
	wantRPIDHash := sha256.Sum256([]byte(v.serverProperty.RPID))
	if data.AuthData.RPIDHash != wantRPIDHash {
		return 0, werrors.New(werrors.CodeBadRpID, fmt.Errorf("registration: authenticator data rpIdHash does not match configured rpId"))
	}

	// Step 3: UV/UP policy.
	if params.UserVerificationRequired && !data.AuthData.Flags.UserVerified() {
		return 0, werrors.New(werrors.CodeUserNotVerified, fmt.Errorf("registration: user verification required but UV flag unset"))
	}
	if params.UserPresenceRequired && !data.AuthData.Flags.UserPresent() {
		return 0, werrors.New(werrors.CodeUserNotPresent, fmt.Errorf("registration: user presence required but UP flag unset"))
	}

	// Step 4: algorithm membership. Empty list means "accept any".
	if len(params.PubKeyCredParams) > 0 {
		alg := credKey.Algorithm()
		allowed := false
		for _, a := range params.PubKeyCredParams {
			if a == alg {
				allowed = true
				break
			}
		}
		if !allowed {
			return 0, werrors.New(werrors.CodeNotAllowedAlgorithm, fmt.Errorf("registration: credential algorithm %s is not in the configured pubKeyCredParams", alg))
		}
	}

	// Step 5: authenticator extension outputs.
	if err := v.extensions.Validate(data.AuthData.Extensions); err != nil {
		return 0, werrors.New(werrors.CodeConstraintViolation, fmt.Errorf("registration: %w", err))
	}

	// Step 6: dispatch attestation.
	clientDataHash := sha256.Sum256(data.RawClientDataJSON)
	data.Attestation.AuthData = &data.AuthData
	attType, err := attestation.Dispatch(&data.Attestation, data.RawAuthenticatorData, clientDataHash, v.attestationOpts)
	if err != nil {
		return 0, err
	}
	v.log.WithField("format", string(data.Attestation.Format)).WithField("attestation_type", attType.String()).Debug("registration: attestation verified")

	// Step 7: trust evaluation keyed by AttestationType.
	switch attType {
	case attkind.Basic, attkind.AttCA, attkind.AnonCA:
		// android-safetynet already validated its JWS header certificate
		// chain against ExpectedHostname/Roots inside the format
		// validator itself (spec.md §4.3 "android-safetynet"); it carries
		// no exported x5c for a second AAGUID/SKI-keyed trust-anchor walk.
		if data.Attestation.Format == attestation.FormatAndroidSafetyNet {
			break
		}
		if v.certPath == nil {
			return 0, werrors.New(werrors.CodeTrustAnchorNotFound, fmt.Errorf("registration: attestation type %s requires a configured certificate-path trust validator", attType))
		}
		x5c := attestationCertificateChain(&data.Attestation)
		aaguid := data.AuthData.AttestedCredentialData.AAGUID
		var ski []byte
		if len(x5c) > 0 {
			ski = x5c[0].SubjectKeyId
		}
		if err := v.certPath.Validate(x5c, &aaguid, ski); err != nil {
			return 0, err
		}
	case attkind.Self:
		if err := v.selfAttestation.Validate(attType); err != nil {
			return 0, err
		}
	case attkind.None:
		// No trust claim made; nothing further to validate.
	}

	// Step 8: custom validators, in registration order.
	for _, cv := range v.customValidators {
		if err := cv.Validate(data); err != nil {
			return 0, werrors.New(werrors.CodeConstraintViolation, fmt.Errorf("registration: custom validator: %w", err))
		}
	}

	return attType, nil
}

// attestationCertificateChain extracts the leaf-first x5c slice carried by
// whichever statement arm obj.Format selects. Formats with no certificate
// chain (none, packed-self) yield nil, which is unreachable from step 7's
// switch since those can only produce AttestationType None or Self.
func attestationCertificateChain(obj *attestation.Object) []*x509.Certificate {
	switch obj.Format {
	case attestation.FormatPacked:
		if obj.Statement.Packed != nil {
			return obj.Statement.Packed.X5C
		}
	case attestation.FormatTPM:
		if obj.Statement.TPM != nil {
			return obj.Statement.TPM.X5C
		}
	case attestation.FormatAndroidKey:
		if obj.Statement.AndroidKey != nil {
			return obj.Statement.AndroidKey.X5C
		}
	case attestation.FormatApple:
		if obj.Statement.Apple != nil {
			return obj.Statement.Apple.X5C
		}
	case attestation.FormatFidoU2F:
		if obj.Statement.FidoU2F != nil {
			return obj.Statement.FidoU2F.X5C
		}
	}
	return nil
}
