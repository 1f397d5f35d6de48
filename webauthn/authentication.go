package webauthn

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	"github.com/go-webauthn/core/webauthn/cose"
	"github.com/go-webauthn/core/webauthn/counter"
	"github.com/go-webauthn/core/webauthn/werrors"
)

// Validate runs the authentication ceremony pipeline of spec.md §4.2 over
// data under params against authenticator, in strict spec order. On
// success, authenticator.SignCount is updated in place (spec.md §5); the
// caller owns persisting it. The first failing step aborts with a typed
// *werrors.CeremonyError and leaves authenticator unmodified.
func (v *AuthenticationValidator) Validate(data *AuthenticationData, params AuthenticationParameters, authenticator *Authenticator) error {
	if data == nil {
		return werrors.New(werrors.CodeConstraintViolation, fmt.Errorf("authentication: nil AuthenticationData"))
	}
	if authenticator == nil {
		return werrors.New(werrors.CodeConstraintViolation, fmt.Errorf("authentication: nil Authenticator record"))
	}

	// Step 1: allow-credentials membership, if configured. Public
	// allow-list; timing-safe comparison is not required.
	if len(params.AllowCredentials) > 0 {
		allowed := false
		for _, c := range params.AllowCredentials {
			if bytes.Equal(c, data.CredentialID) {
				allowed = true
				break
			}
		}
		if !allowed {
			return werrors.New(werrors.CodeNotAllowedCredentialID, fmt.Errorf("authentication: credential id is not in the configured allowCredentials list"))
		}
	}

	// Step 2: clientData.type.
	if data.ClientData.Type != "webauthn.get" {
		return werrors.New(werrors.CodeInconsistentClientDataType, fmt.Errorf("authentication: expected clientData.type %q, got %q", "webauthn.get", data.ClientData.Type))
	}

	// Step 3: challenge equality, constant-time.
	if !cose.ConstantTimeEqual(data.ClientData.Challenge, v.serverProperty.Challenge) {
		return werrors.New(werrors.CodeBadChallenge, fmt.Errorf("authentication: clientData.challenge does not match the expected challenge"))
	}

	// Step 4: origin validation.
	if err := v.origin.Validate(data.ClientData.Origin, v.serverProperty.Origins); err != nil {
		return err
	}

	// Step 5: cross-origin policy.
	if data.ClientData.CrossOrigin && !params.CrossOriginAllowed {
		return werrors.New(werrors.CodeCrossOrigin, fmt.Errorf("authentication: clientData.crossOrigin is true but cross-origin requests are not permitted"))
	}

	// Step 6: token binding.
	if err := validateTokenBinding(data.ClientData.TokenBinding, v.serverProperty.TokenBindingID); err != nil {
		return err
	}

	// Step 7: rpIdHash equality.
	wantRPIDHash := sha256.Sum256([]byte(v.serverProperty.RPID))
	if data.AuthData.RPIDHash != wantRPIDHash {
		return werrors.New(werrors.CodeBadRpID, fmt.Errorf("authentication: authenticator data rpIdHash does not match configured rpId"))
	}

	// Step 8: UV/UP policy.
	if params.UserVerificationRequired && !data.AuthData.Flags.UserVerified() {
		return werrors.New(werrors.CodeUserNotVerified, fmt.Errorf("authentication: user verification required but UV flag unset"))
	}
	if params.UserPresenceRequired && !data.AuthData.Flags.UserPresent() {
		return werrors.New(werrors.CodeUserNotPresent, fmt.Errorf("authentication: user presence required but UP flag unset"))
	}

	// Step 9: attestedCredentialData must be absent; extension outputs
	// validated against the registered identifiers.
	if data.AuthData.HasAttestedCredentialData() {
		return werrors.New(werrors.CodeConstraintViolation, fmt.Errorf("authentication: authenticator data must not carry attested credential data"))
	}
	if err := v.extensions.Validate(data.AuthData.Extensions); err != nil {
		return werrors.New(werrors.CodeConstraintViolation, fmt.Errorf("authentication: %w", err))
	}

	// Step 10: assertion signature.
	clientDataHash := sha256.Sum256(data.RawClientDataJSON)
	signedData := append(append([]byte{}, data.RawAuthenticatorData...), clientDataHash[:]...)
	pub, err := authenticator.Key.PublicKey()
	if err != nil {
		return werrors.New(werrors.CodeBadSignature, fmt.Errorf("authentication: resolving stored credential public key: %w", err))
	}
	if err := cose.VerifySignature(pub, authenticator.Key.Algorithm(), signedData, data.Signature); err != nil {
		return werrors.New(werrors.CodeBadSignature, fmt.Errorf("authentication: %w", err))
	}

	// Step 11: signature counter anti-clone.
	newCount, err := counter.Evaluate(data.AuthData.SignCount, authenticator.SignCount, v.counterHandler)
	if err != nil {
		return err
	}
	previousCount := authenticator.SignCount
	authenticator.SignCount = newCount
	v.log.WithField("credential_id", fmt.Sprintf("%x", data.CredentialID)).WithField("sign_count", newCount).Debug("authentication: assertion verified")

	// Step 12: custom validators, in registration order.
	for _, cv := range v.customValidators {
		if err := cv.Validate(data, authenticator); err != nil {
			authenticator.SignCount = previousCount
			return werrors.New(werrors.CodeConstraintViolation, fmt.Errorf("authentication: custom validator: %w", err))
		}
	}

	return nil
}
