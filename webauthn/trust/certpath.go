// Package trust implements spec.md §4.4 (certificate-path trustworthiness)
// and §4.5 (self-attestation trustworthiness): the two policies the
// RegistrationValidator consults after the attestation dispatcher returns
// an AttestationType.
package trust

import (
	"crypto/x509"
	"fmt"
	"time"

	"github.com/go-webauthn/core/webauthn/authdata"
	"github.com/go-webauthn/core/webauthn/werrors"
)

// CertPathValidator validates an x5c chain against trust anchors resolved
// by AAGUID or SubjectKeyIdentifier, per spec.md §4.4.
type CertPathValidator struct {
	// Anchors resolves candidate trust anchors. Required.
	Anchors AnchorRepository
	// MaxChainDepth bounds the number of intermediate certificates between
	// leaf and anchor. Zero means unlimited, deferring entirely to the
	// anchor's own path length constraints.
	MaxChainDepth int
	// Now returns the validation time. Defaults to time.Now; overridable
	// for deterministic tests against fixed-date test certificates.
	Now func() time.Time
}

func (v *CertPathValidator) now() time.Time {
	if v.Now != nil {
		return v.Now()
	}
	return time.Now()
}

// Validate runs a PKIX path build/verify of x5c (leaf-first, per spec.md
// §3) against anchors resolved first by aaguid then, if that yields none,
// by subjectKeyID (passed to the repository even when empty). Revocation
// checking is intentionally not performed — per spec.md §4.4, that's
// RP-side policy Go's x509 verifier doesn't implement, and the core doesn't
// make network calls to fetch CRLs/OCSP responses.
func (v *CertPathValidator) Validate(x5c []*x509.Certificate, aaguid *authdata.AAGUID, subjectKeyID []byte) error {
	if len(x5c) == 0 {
		return werrors.Newf(werrors.CodeConstraintViolation, "empty x5c certificate chain")
	}
	leaf := x5c[0]

	anchors, err := v.resolveAnchors(aaguid, subjectKeyID)
	if err != nil {
		return err
	}
	if len(anchors) == 0 {
		return werrors.Newf(werrors.CodeTrustAnchorNotFound, "no trust anchors for aaguid=%v ski=%x", aaguid, subjectKeyID)
	}

	roots := x509.NewCertPool()
	for _, a := range anchors {
		roots.AddCert(a)
	}
	intermediates := x509.NewCertPool()
	for _, c := range x5c[1:] {
		intermediates.AddCert(c)
	}

	opts := x509.VerifyOptions{
		Roots:         roots,
		Intermediates: intermediates,
		CurrentTime:   v.now(),
		KeyUsages:     []x509.ExtKeyUsage{x509.ExtKeyUsageAny},
	}
	if v.MaxChainDepth > 0 && len(x5c)-1 > v.MaxChainDepth {
		return werrors.Newf(werrors.CodeCertificate, "certificate chain depth %d exceeds policy maximum %d", len(x5c)-1, v.MaxChainDepth)
	}
	if _, err := leaf.Verify(opts); err != nil {
		return werrors.New(werrors.CodeCertificate, fmt.Errorf("x5c path validation: %w", err))
	}
	return nil
}

func (v *CertPathValidator) resolveAnchors(aaguid *authdata.AAGUID, subjectKeyID []byte) ([]*x509.Certificate, error) {
	if aaguid != nil && !aaguid.IsZero() {
		anchors, err := v.Anchors.FindByAAGUID(*aaguid)
		if err != nil {
			return nil, err
		}
		if len(anchors) > 0 {
			return anchors, nil
		}
	}
	return v.Anchors.FindBySubjectKeyIdentifier(subjectKeyID)
}
