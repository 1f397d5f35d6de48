// Package attestation implements spec.md §4.3's AttestationDispatcher: a
// tagged sum type over the seven WebAuthn attestation statement formats
// and a dispatch function keyed by fmt, replacing the inheritance/runtime
// reflection the teacher's source would otherwise reach for (spec.md §9
// "Polymorphism over attestation formats").
package attestation

import (
	"fmt"

	"github.com/go-webauthn/core/webauthn/attestation/androidkey"
	"github.com/go-webauthn/core/webauthn/attestation/androidsafetynet"
	"github.com/go-webauthn/core/webauthn/attestation/apple"
	"github.com/go-webauthn/core/webauthn/attestation/attkind"
	"github.com/go-webauthn/core/webauthn/attestation/fidou2f"
	"github.com/go-webauthn/core/webauthn/attestation/none"
	"github.com/go-webauthn/core/webauthn/attestation/packed"
	"github.com/go-webauthn/core/webauthn/attestation/tpm"
	"github.com/go-webauthn/core/webauthn/authdata"
	"github.com/go-webauthn/core/webauthn/werrors"
)

// Format names the seven statement formats spec.md §4.3 defines.
type Format string

const (
	FormatPacked           Format = "packed"
	FormatTPM              Format = "tpm"
	FormatAndroidKey       Format = "android-key"
	FormatAndroidSafetyNet Format = "android-safetynet"
	FormatApple            Format = "apple"
	FormatFidoU2F          Format = "fido-u2f"
	FormatNone             Format = "none"
)

// Statement is the tagged sum type over per-format attStmt payloads.
// Exactly the field matching Format is non-nil; Dispatch does not
// inspect any other field.
type Statement struct {
	Packed           *packed.Statement
	TPM              *tpm.Statement
	AndroidKey       *androidkey.Statement
	AndroidSafetyNet *androidsafetynet.Statement
	Apple            *apple.Statement
	FidoU2F          *fidou2f.Statement
	None             *none.Statement
}

// Object is the decoded attestationObject: a format tag, the already
// decoded authenticatorData, and the matching Statement arm.
type Object struct {
	Format    Format
	AuthData  *authdata.AuthenticatorData
	Statement Statement
}

// Options carries the per-format collaborators that don't fit the
// uniform (authData, rawAuthData, clientDataHash) call shape: TPM AIK SAN
// decoding/validation, android-safetynet's JWS trust roots/clock, and
// android-key's teeEnforcedOnly policy.
type Options struct {
	TPM              tpm.Options
	AndroidSafetyNet androidsafetynet.Options
	AndroidKey       androidkey.Options

	// RPID is required by fido-u2f's signed-data reconstruction
	// (spec.md §6).
	RPID string
}

// Dispatch implements spec.md §4.3: select the per-format validator by
// obj.Format and run it, returning the resulting AttestationType.
func Dispatch(obj *Object, rawAuthData []byte, clientDataHash [32]byte, opts Options) (attkind.Type, error) {
	if obj == nil {
		return 0, werrors.New(werrors.CodeBadAttestationStatement, fmt.Errorf("attestation: missing attestation object"))
	}

	switch obj.Format {
	case FormatPacked:
		return packed.Verify(obj.Statement.Packed, obj.AuthData, rawAuthData, clientDataHash)
	case FormatTPM:
		return tpm.Verify(obj.Statement.TPM, obj.AuthData, rawAuthData, clientDataHash, opts.TPM)
	case FormatAndroidKey:
		return androidkey.Verify(obj.Statement.AndroidKey, obj.AuthData, rawAuthData, clientDataHash, opts.AndroidKey)
	case FormatAndroidSafetyNet:
		return androidsafetynet.Verify(obj.Statement.AndroidSafetyNet, rawAuthData, clientDataHash, opts.AndroidSafetyNet)
	case FormatApple:
		return apple.Verify(obj.Statement.Apple, obj.AuthData, rawAuthData, clientDataHash)
	case FormatFidoU2F:
		return fidou2f.Verify(obj.Statement.FidoU2F, obj.AuthData, opts.RPID, clientDataHash)
	case FormatNone:
		return none.Verify(obj.Statement.None)
	default:
		return 0, werrors.New(werrors.CodeBadAttestationStatement, fmt.Errorf("attestation: unrecognized format %q", obj.Format))
	}
}
