package trust

import (
	"fmt"

	"github.com/go-webauthn/core/webauthn/attestation/attkind"
	"github.com/go-webauthn/core/webauthn/werrors"
)

// SelfAttestationPolicy implements spec.md §4.5: by default, Self
// attestation is rejected; an RP that understands the tradeoff (no
// manufacturer-chain trust signal at all) can opt in explicitly.
type SelfAttestationPolicy struct {
	Allowed bool
}

// Validate enforces the policy against a dispatched AttestationType. Types
// other than Self always pass; this function exists so the
// RegistrationValidator can call it unconditionally at step 7.
func (p *SelfAttestationPolicy) Validate(t attkind.Type) error {
	if t != attkind.Self {
		return nil
	}
	if p == nil || !p.Allowed {
		return werrors.New(werrors.CodeConstraintViolation, fmt.Errorf("self attestation is not permitted by policy"))
	}
	return nil
}
