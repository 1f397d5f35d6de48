package trust

import (
	"bytes"
	"crypto/x509"

	"github.com/go-webauthn/core/webauthn/authdata"
	"github.com/go-webauthn/core/webauthn/metadata"
	"github.com/go-webauthn/core/webauthn/werrors"
)

// AnchorRepository is the collaborator interface the core consults to
// resolve trust anchors, per spec.md §6:
//
//	find(aaguid) -> Set<TrustAnchor>
//	find(subjectKeyIdentifier) -> Set<TrustAnchor>
//
// A nil, non-error result means "no anchors known for this key" and is
// distinct from an error resolving the repository itself.
type AnchorRepository interface {
	FindByAAGUID(aaguid authdata.AAGUID) ([]*x509.Certificate, error)
	FindBySubjectKeyIdentifier(ski []byte) ([]*x509.Certificate, error)
}

// MetadataAnchorRepository resolves anchors by streaming a
// metadata.Provider and filtering first by AAGUID, then by
// SubjectKeyIdentifier equality of the metadata's attestation root
// certificates (spec.md §4.4 step 1).
type MetadataAnchorRepository struct {
	Provider metadata.Provider
}

func (r *MetadataAnchorRepository) FindByAAGUID(aaguid authdata.AAGUID) ([]*x509.Certificate, error) {
	statements, err := r.Provider.Provide()
	if err != nil {
		return nil, werrors.New(werrors.CodeTrustAnchorNotFound, err)
	}
	for _, st := range statements {
		if st.AAGUID != aaguid {
			continue
		}
		if status, bad := metadata.IsDisqualifying(st.StatusReports); bad {
			return nil, werrors.Newf(werrors.CodeBadStatus, "authenticator %s has disqualifying status %s", aaguid, status)
		}
		return st.AttestationRootCertificates, nil
	}
	return nil, nil
}

func (r *MetadataAnchorRepository) FindBySubjectKeyIdentifier(ski []byte) ([]*x509.Certificate, error) {
	statements, err := r.Provider.Provide()
	if err != nil {
		return nil, werrors.New(werrors.CodeTrustAnchorNotFound, err)
	}
	for _, st := range statements {
		for _, cert := range st.AttestationRootCertificates {
			if !bytes.Equal(cert.SubjectKeyId, ski) {
				continue
			}
			if status, bad := metadata.IsDisqualifying(st.StatusReports); bad {
				return nil, werrors.Newf(werrors.CodeBadStatus, "authenticator root %x has disqualifying status %s", ski, status)
			}
			return []*x509.Certificate{cert}, nil
		}
	}
	return nil, nil
}

// StaticAnchorRepository is an AnchorRepository backed by a fixed root
// pool, ignoring AAGUID/SKI filtering entirely. Useful for RPs that pin a
// single manufacturer CA rather than consulting FIDO MDS.
type StaticAnchorRepository struct {
	Roots []*x509.Certificate
}

func (r *StaticAnchorRepository) FindByAAGUID(authdata.AAGUID) ([]*x509.Certificate, error) {
	return r.Roots, nil
}

func (r *StaticAnchorRepository) FindBySubjectKeyIdentifier([]byte) ([]*x509.Certificate, error) {
	return r.Roots, nil
}
