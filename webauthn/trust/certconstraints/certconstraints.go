// Package certconstraints extracts the handful of X.509 extensions the
// attestation validators need to inspect, using golang.org/x/crypto's
// cryptobyte ASN.1 reader instead of pulling in a second full ASN.1
// library. It deliberately stays generic (find-extension, unwrap an OCTET
// STRING, unwrap a context tag) — format-specific interpretation stays in
// the attestation/* packages that call it.
package certconstraints

import (
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"fmt"

	"golang.org/x/crypto/cryptobyte"
	casn1 "golang.org/x/crypto/cryptobyte/asn1"
)

// OID well-known extension identifiers the attestation validators consult.
var (
	// OIDFIDOGenCEAAGUID is the id-fido-gen-ce-aaguid extension carrying
	// the attested AAGUID inside an attestation certificate.
	//
	// https://www.w3.org/TR/webauthn-3/#sctn-packed-attestation-cert-requirements
	OIDFIDOGenCEAAGUID = asn1.ObjectIdentifier{1, 3, 6, 1, 4, 1, 45724, 1, 1, 4}

	// OIDSubjectAltName is the standard SAN extension (RFC 5280 §4.2.1.6),
	// carrying TPM device properties in AIK certificates.
	OIDSubjectAltName = asn1.ObjectIdentifier{2, 5, 29, 17}

	// OIDExtKeyUsage is the standard EKU extension.
	OIDExtKeyUsage = asn1.ObjectIdentifier{2, 5, 29, 37}

	// OIDTCGKPAIKCertificate is the TCG AIK certificate EKU value required
	// on TPM attestation identity key certificates.
	OIDTCGKPAIKCertificate = asn1.ObjectIdentifier{2, 23, 133, 8, 3}

	// OIDAppleNonce is the Apple anonymous attestation nonce extension.
	OIDAppleNonce = asn1.ObjectIdentifier{1, 2, 840, 113635, 100, 8, 2}

	// OIDAndroidKeyAttestation is the Android Key Attestation extension.
	OIDAndroidKeyAttestation = asn1.ObjectIdentifier{1, 3, 6, 1, 4, 1, 11129, 2, 1, 17}
)

// FindExtension returns the raw (DER) value of the first extension on cert
// matching oid.
func FindExtension(cert *x509.Certificate, oid asn1.ObjectIdentifier) ([]byte, bool) {
	for _, ext := range cert.Extensions {
		if ext.Id.Equal(oid) {
			return ext.Value, true
		}
	}
	return nil, false
}

// HasEKU reports whether cert's UnknownExtKeyUsage list contains oid. Go's
// x509 parser already decodes standard EKUs into UnknownExtKeyUsage for
// OIDs it doesn't recognize (such as the TCG AIK EKU), so this is a
// straightforward membership check rather than a raw extension read.
func HasEKU(cert *x509.Certificate, oid asn1.ObjectIdentifier) bool {
	for _, unknown := range cert.UnknownExtKeyUsage {
		if unknown.Equal(oid) {
			return true
		}
	}
	return false
}

// UnwrapOctetString reads a single top-level OCTET STRING from der and
// returns its contents.
func UnwrapOctetString(der []byte) ([]byte, error) {
	input := cryptobyte.String(der)
	var inner cryptobyte.String
	if !input.ReadASN1(&inner, casn1.OCTET_STRING) {
		return nil, fmt.Errorf("certconstraints: not an OCTET STRING")
	}
	return []byte(inner), nil
}

// UnwrapAppleNonce parses the Apple anonymous attestation nonce extension,
// whose value is `SEQUENCE { [1] EXPLICIT OCTET STRING }`.
func UnwrapAppleNonce(der []byte) ([]byte, error) {
	input := cryptobyte.String(der)
	var seq cryptobyte.String
	if !input.ReadASN1(&seq, casn1.SEQUENCE) {
		return nil, fmt.Errorf("certconstraints: apple nonce extension is not a SEQUENCE")
	}
	var tagged cryptobyte.String
	if !seq.ReadASN1(&tagged, casn1.Tag(1).Constructed().ContextSpecific()) {
		return nil, fmt.Errorf("certconstraints: apple nonce extension missing [1] element")
	}
	var nonce cryptobyte.String
	if !tagged.ReadASN1(&nonce, casn1.OCTET_STRING) {
		return nil, fmt.Errorf("certconstraints: apple nonce [1] element is not an OCTET STRING")
	}
	return []byte(nonce), nil
}

// SubjectIsEmpty reports whether cert's Subject DN has no meaningful
// attributes set, as required of TPM AIK certificates (spec.md §4.3) and
// recommended for packed full attestation certificates.
func SubjectIsEmpty(subject pkix.Name) bool {
	return subject.String() == ""
}
