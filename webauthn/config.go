package webauthn

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/go-webauthn/core/webauthn/attestation"
	"github.com/go-webauthn/core/webauthn/counter"
	"github.com/go-webauthn/core/webauthn/extensions"
	"github.com/go-webauthn/core/webauthn/trust"
)

// RegistrationValidatorConfig is consumed once by NewRegistrationValidator
// to build an immutable *RegistrationValidator. Per spec.md §9's "Global
// mutable configuration" redesign flag, there is no setter that mutates a
// validator after construction — a reconfiguration means building a new
// one.
type RegistrationValidatorConfig struct {
	ServerProperty ServerProperty

	// Extensions recognizes authenticator extension output identifiers
	// (spec.md §4.1 step 5). Nil is treated as a registry that accepts
	// nothing, rejecting any authenticator extension output.
	Extensions *extensions.Registry

	// CertPath validates x5c chains for Basic/AttCA/AnonCA attestation
	// types (spec.md §4.1 step 7, §4.4). Required if any accepted
	// attestation format can return one of those types.
	CertPath *trust.CertPathValidator
	// SelfAttestation governs whether AttestationType Self is accepted
	// (spec.md §4.1 step 7, §4.5). The zero value rejects Self.
	SelfAttestation trust.SelfAttestationPolicy

	// Attestation carries per-format options (TPM AIK SAN decoding,
	// android-safetynet JWS trust roots/clock) threaded through to
	// attestation.Dispatch.
	Attestation attestation.Options

	// CustomValidators run in order after every built-in step succeeds
	// (spec.md §4.1 step 8).
	CustomValidators []CustomRegistrationValidator

	// Logger receives debug-level ceremony step logs (attestation format,
	// resulting AttestationType, credential ID) — never challenge bytes,
	// signatures, or key material. Defaults to logrus.StandardLogger().
	Logger logrus.FieldLogger
}

// RegistrationValidator implements spec.md §4.1. Construct with
// NewRegistrationValidator; all fields are unexported and fixed at
// construction.
type RegistrationValidator struct {
	serverProperty   ServerProperty
	extensions       *extensions.Registry
	certPath         *trust.CertPathValidator
	selfAttestation  trust.SelfAttestationPolicy
	attestationOpts  attestation.Options
	customValidators []CustomRegistrationValidator
	log              logrus.FieldLogger
}

// NewRegistrationValidator builds an immutable RegistrationValidator from
// cfg. Returns an error if cfg is structurally incomplete (empty RPID).
func NewRegistrationValidator(cfg RegistrationValidatorConfig) (*RegistrationValidator, error) {
	if cfg.ServerProperty.RPID == "" {
		return nil, fmt.Errorf("webauthn: RegistrationValidatorConfig.ServerProperty.RPID must not be empty")
	}
	log := cfg.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &RegistrationValidator{
		serverProperty:   cfg.ServerProperty,
		extensions:       cfg.Extensions,
		certPath:         cfg.CertPath,
		selfAttestation:  cfg.SelfAttestation,
		attestationOpts:  cfg.Attestation,
		customValidators: append([]CustomRegistrationValidator(nil), cfg.CustomValidators...),
		log:              log.WithField("component", "webauthn.registration"),
	}, nil
}

// AuthenticationValidatorConfig is consumed once by
// NewAuthenticationValidator.
type AuthenticationValidatorConfig struct {
	ServerProperty ServerProperty

	// Origin validates clientData.origin against ServerProperty.Origins
	// (spec.md §4.2 step 4). Defaults to exact string match.
	Origin OriginValidator

	// Extensions recognizes authenticator extension output identifiers
	// (spec.md §4.2 step 9). Nil rejects any authenticator extension
	// output.
	Extensions *extensions.Registry

	// MaliciousCounterValueHandler reacts to a non-monotonic signature
	// counter (spec.md §4.2 step 11). Defaults to
	// counter.RejectOnMaliciousCounter.
	MaliciousCounterValueHandler counter.MaliciousCounterValueHandler

	CustomValidators []CustomAuthenticationValidator

	Logger logrus.FieldLogger
}

// AuthenticationValidator implements spec.md §4.2.
type AuthenticationValidator struct {
	serverProperty   ServerProperty
	origin           OriginValidator
	extensions       *extensions.Registry
	counterHandler   counter.MaliciousCounterValueHandler
	customValidators []CustomAuthenticationValidator
	log              logrus.FieldLogger
}

// NewAuthenticationValidator builds an immutable AuthenticationValidator
// from cfg.
func NewAuthenticationValidator(cfg AuthenticationValidatorConfig) (*AuthenticationValidator, error) {
	if cfg.ServerProperty.RPID == "" {
		return nil, fmt.Errorf("webauthn: AuthenticationValidatorConfig.ServerProperty.RPID must not be empty")
	}
	origin := cfg.Origin
	if origin == nil {
		origin = exactOriginValidator{}
	}
	handler := cfg.MaliciousCounterValueHandler
	if handler == nil {
		handler = counter.RejectOnMaliciousCounter{}
	}
	log := cfg.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &AuthenticationValidator{
		serverProperty:   cfg.ServerProperty,
		origin:           origin,
		extensions:       cfg.Extensions,
		counterHandler:   handler,
		customValidators: append([]CustomAuthenticationValidator(nil), cfg.CustomValidators...),
		log:              log.WithField("component", "webauthn.authentication"),
	}, nil
}
