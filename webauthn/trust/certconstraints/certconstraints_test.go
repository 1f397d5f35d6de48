package certconstraints

import (
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindExtensionMatchesByOID(t *testing.T) {
	cert := &x509.Certificate{Extensions: []pkix.Extension{
		{Id: OIDFIDOGenCEAAGUID, Value: []byte{0x01, 0x02}},
	}}
	val, ok := FindExtension(cert, OIDFIDOGenCEAAGUID)
	require.True(t, ok)
	assert.Equal(t, []byte{0x01, 0x02}, val)

	_, ok = FindExtension(cert, OIDAppleNonce)
	assert.False(t, ok)
}

func TestHasEKUMatchesUnknownExtKeyUsage(t *testing.T) {
	cert := &x509.Certificate{UnknownExtKeyUsage: []asn1.ObjectIdentifier{OIDTCGKPAIKCertificate}}
	assert.True(t, HasEKU(cert, OIDTCGKPAIKCertificate))
	assert.False(t, HasEKU(cert, OIDAndroidKeyAttestation))
}

func TestUnwrapOctetStringRoundTrip(t *testing.T) {
	der, err := asn1.Marshal([]byte("hello"))
	require.NoError(t, err)
	got, err := UnwrapOctetString(der)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got)
}

func TestUnwrapOctetStringRejectsNonOctetString(t *testing.T) {
	der, err := asn1.Marshal(42)
	require.NoError(t, err)
	_, err = UnwrapOctetString(der)
	assert.Error(t, err)
}

func TestUnwrapAppleNonceRoundTrip(t *testing.T) {
	inner, err := asn1.Marshal(asn1.RawValue{
		Class:      asn1.ClassContextSpecific,
		Tag:        1,
		IsCompound: true,
		Bytes:      mustMarshalOctetString(t, []byte("nonce-bytes")),
	})
	require.NoError(t, err)
	seq, err := asn1.Marshal(asn1.RawValue{
		Class:      asn1.ClassUniversal,
		Tag:        asn1.TagSequence,
		IsCompound: true,
		Bytes:      inner,
	})
	require.NoError(t, err)

	nonce, err := UnwrapAppleNonce(seq)
	require.NoError(t, err)
	assert.Equal(t, []byte("nonce-bytes"), nonce)
}

func TestUnwrapAppleNonceRejectsNonSequence(t *testing.T) {
	der, err := asn1.Marshal(42)
	require.NoError(t, err)
	_, err = UnwrapAppleNonce(der)
	assert.Error(t, err)
}

func TestSubjectIsEmpty(t *testing.T) {
	assert.True(t, SubjectIsEmpty(pkix.Name{}))
	assert.False(t, SubjectIsEmpty(pkix.Name{CommonName: "aik"}))
}

func mustMarshalOctetString(t *testing.T, b []byte) []byte {
	t.Helper()
	der, err := asn1.Marshal(b)
	require.NoError(t, err)
	return der
}
