package androidsafetynet

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"math/big"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-webauthn/core/webauthn/attestation/attkind"
	"github.com/go-webauthn/core/webauthn/werrors"
)

func issueLeafCert(t *testing.T, priv *rsa.PrivateKey, hostname string) *x509.Certificate {
	t.Helper()
	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: hostname},
		DNSNames:              []string{hostname},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		BasicConstraintsValid: true,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &priv.PublicKey, priv)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	return cert
}

func signJWS(t *testing.T, priv *rsa.PrivateKey, cert *x509.Certificate, nonce []byte, ctsProfileMatch bool, issued time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, &claims{
		Nonce:           base64.StdEncoding.EncodeToString(nonce),
		TimestampMs:     issued.UnixMilli(),
		CtsProfileMatch: ctsProfileMatch,
	})
	tok.Header["x5c"] = []interface{}{base64.StdEncoding.EncodeToString(cert.Raw)}
	signed, err := tok.SignedString(priv)
	require.NoError(t, err)
	return signed
}

func TestVerifyHappyPath(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	cert := issueLeafCert(t, priv, "attest.android.com")

	rawAuthData := []byte("auth-data")
	clientDataHash := sha256.Sum256([]byte(`{"type":"webauthn.create"}`))
	nonceInput := append(append([]byte{}, rawAuthData...), clientDataHash[:]...)
	nonce := sha256.Sum256(nonceInput)

	now := time.Now()
	jws := signJWS(t, priv, cert, nonce[:], true, now)

	roots := x509.NewCertPool()
	roots.AddCert(cert)

	attType, err := Verify(&Statement{Response: []byte(jws)}, rawAuthData, clientDataHash, Options{
		Now:              func() time.Time { return now },
		ExpectedHostname: "attest.android.com",
		Roots:            roots,
	})
	require.NoError(t, err)
	assert.Equal(t, attkind.Basic, attType)
}

func TestVerifyRejectsFailedCtsProfileMatch(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	cert := issueLeafCert(t, priv, "attest.android.com")

	rawAuthData := []byte("auth-data")
	clientDataHash := sha256.Sum256([]byte(`{"type":"webauthn.create"}`))
	nonceInput := append(append([]byte{}, rawAuthData...), clientDataHash[:]...)
	nonce := sha256.Sum256(nonceInput)

	now := time.Now()
	jws := signJWS(t, priv, cert, nonce[:], false, now)

	roots := x509.NewCertPool()
	roots.AddCert(cert)

	_, err = Verify(&Statement{Response: []byte(jws)}, rawAuthData, clientDataHash, Options{
		Now:              func() time.Time { return now },
		ExpectedHostname: "attest.android.com",
		Roots:            roots,
	})
	require.Error(t, err)
	assert.True(t, werrors.Is(err, werrors.CodeBadAttestationStatement))
}

func TestVerifyRejectsStaleTimestamp(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	cert := issueLeafCert(t, priv, "attest.android.com")

	rawAuthData := []byte("auth-data")
	clientDataHash := sha256.Sum256([]byte(`{"type":"webauthn.create"}`))
	nonceInput := append(append([]byte{}, rawAuthData...), clientDataHash[:]...)
	nonce := sha256.Sum256(nonceInput)

	now := time.Now()
	jws := signJWS(t, priv, cert, nonce[:], true, now.Add(-time.Hour))

	roots := x509.NewCertPool()
	roots.AddCert(cert)

	_, err = Verify(&Statement{Response: []byte(jws)}, rawAuthData, clientDataHash, Options{
		Now:              func() time.Time { return now },
		ExpectedHostname: "attest.android.com",
		Roots:            roots,
	})
	require.Error(t, err)
	assert.True(t, werrors.Is(err, werrors.CodeBadAttestationStatement))
}

func TestVerifyConfiguredMaxSkewAllowsOlderResponse(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	cert := issueLeafCert(t, priv, "attest.android.com")

	rawAuthData := []byte("auth-data")
	clientDataHash := sha256.Sum256([]byte(`{"type":"webauthn.create"}`))
	nonceInput := append(append([]byte{}, rawAuthData...), clientDataHash[:]...)
	nonce := sha256.Sum256(nonceInput)

	now := time.Now()
	jws := signJWS(t, priv, cert, nonce[:], true, now.Add(-time.Hour))

	roots := x509.NewCertPool()
	roots.AddCert(cert)

	attType, err := Verify(&Statement{Response: []byte(jws)}, rawAuthData, clientDataHash, Options{
		Now:              func() time.Time { return now },
		MaxSkew:          2 * time.Hour,
		ExpectedHostname: "attest.android.com",
		Roots:            roots,
	})
	require.NoError(t, err)
	assert.Equal(t, attkind.Basic, attType)
}

func TestVerifyRejectsFutureTimestampEvenWithLargeMaxSkew(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	cert := issueLeafCert(t, priv, "attest.android.com")

	rawAuthData := []byte("auth-data")
	clientDataHash := sha256.Sum256([]byte(`{"type":"webauthn.create"}`))
	nonceInput := append(append([]byte{}, rawAuthData...), clientDataHash[:]...)
	nonce := sha256.Sum256(nonceInput)

	now := time.Now()
	// 5 minutes ahead of now: within a generously configured MaxSkew, but
	// the forward bound is fixed at 60s regardless of MaxSkew.
	jws := signJWS(t, priv, cert, nonce[:], true, now.Add(5*time.Minute))

	roots := x509.NewCertPool()
	roots.AddCert(cert)

	_, err = Verify(&Statement{Response: []byte(jws)}, rawAuthData, clientDataHash, Options{
		Now:              func() time.Time { return now },
		MaxSkew:          2 * time.Hour,
		ExpectedHostname: "attest.android.com",
		Roots:            roots,
	})
	require.Error(t, err)
	assert.True(t, werrors.Is(err, werrors.CodeBadAttestationStatement))
}
