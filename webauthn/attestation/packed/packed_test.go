package packed

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-webauthn/core/webauthn/attestation/attkind"
	"github.com/go-webauthn/core/webauthn/authdata"
	"github.com/go-webauthn/core/webauthn/cose"
	"github.com/go-webauthn/core/webauthn/werrors"
)

func testAuthData(key cose.Key) (*authdata.AuthenticatorData, []byte) {
	raw := []byte("fake-authenticator-data-prefix-0123456789")
	return &authdata.AuthenticatorData{
		RPIDHash:  sha256.Sum256([]byte("example.com")),
		Flags:     authdata.Flags(1<<0 | 1<<6), // UP, AT
		SignCount: 0,
		AttestedCredentialData: &authdata.AttestedCredentialData{
			AAGUID:       authdata.AAGUID{},
			CredentialID: []byte{1, 2, 3, 4},
			Key:          key,
		},
		Raw: raw,
	}, raw
}

func TestVerifySelf(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	key := &cose.EC2Key{
		Alg:   cose.ES256,
		Curve: cose.CurveP256,
		X:     priv.PublicKey.X.Bytes(),
		Y:     priv.PublicKey.Y.Bytes(),
	}
	authData, rawAuthData := testAuthData(key)
	clientDataHash := sha256.Sum256([]byte(`{"type":"webauthn.create"}`))

	signedData := append(append([]byte{}, rawAuthData...), clientDataHash[:]...)
	digest := sha256.Sum256(signedData)
	sig, err := ecdsa.SignASN1(rand.Reader, priv, digest[:])
	require.NoError(t, err)

	stmt := &Statement{Alg: cose.ES256, Sig: sig}
	attType, err := Verify(stmt, authData, rawAuthData, clientDataHash)
	require.NoError(t, err)
	assert.Equal(t, attkind.Self, attType)

	t.Run("algorithm mismatch", func(t *testing.T) {
		bad := &Statement{Alg: cose.ES384, Sig: sig}
		_, err := Verify(bad, authData, rawAuthData, clientDataHash)
		require.Error(t, err)
		assert.True(t, werrors.Is(err, werrors.CodeBadAttestationStatement))
	})

	t.Run("tampered signature", func(t *testing.T) {
		tampered := append([]byte{}, sig...)
		tampered[0] ^= 0xFF
		bad := &Statement{Alg: cose.ES256, Sig: tampered}
		_, err := Verify(bad, authData, rawAuthData, clientDataHash)
		require.Error(t, err)
		assert.True(t, werrors.Is(err, werrors.CodeBadSignature))
	})
}

func TestVerifyFull(t *testing.T) {
	credPriv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	credKey := &cose.EC2Key{
		Alg:   cose.ES256,
		Curve: cose.CurveP256,
		X:     credPriv.PublicKey.X.Bytes(),
		Y:     credPriv.PublicKey.Y.Bytes(),
	}
	authData, rawAuthData := testAuthData(credKey)
	clientDataHash := sha256.Sum256([]byte(`{"type":"webauthn.create"}`))
	signedData := append(append([]byte{}, rawAuthData...), clientDataHash[:]...)

	attPriv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject: pkix.Name{
			Organization:       []string{"Acme Security"},
			OrganizationalUnit: []string{"Authenticator Attestation"},
			CommonName:         "Acme Authenticator Attestation",
			Country:            []string{"US"},
		},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		BasicConstraintsValid: true,
		IsCA:                  false,
	}
	certDER, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &attPriv.PublicKey, attPriv)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(certDER)
	require.NoError(t, err)

	digest := sha256.Sum256(signedData)
	sig, err := ecdsa.SignASN1(rand.Reader, attPriv, digest[:])
	require.NoError(t, err)

	stmt := &Statement{Alg: cose.ES256, Sig: sig, X5C: []*x509.Certificate{cert}}
	attType, err := Verify(stmt, authData, rawAuthData, clientDataHash)
	require.NoError(t, err)
	assert.Equal(t, attkind.Basic, attType)

	t.Run("wrong organizational unit", func(t *testing.T) {
		tmpl2 := *tmpl
		tmpl2.Subject.OrganizationalUnit = []string{"Not Attestation"}
		certDER2, err := x509.CreateCertificate(rand.Reader, &tmpl2, &tmpl2, &attPriv.PublicKey, attPriv)
		require.NoError(t, err)
		cert2, err := x509.ParseCertificate(certDER2)
		require.NoError(t, err)

		stmt2 := &Statement{Alg: cose.ES256, Sig: sig, X5C: []*x509.Certificate{cert2}}
		_, err = Verify(stmt2, authData, rawAuthData, clientDataHash)
		require.Error(t, err)
		assert.True(t, werrors.Is(err, werrors.CodeCertificate))
	})
}
