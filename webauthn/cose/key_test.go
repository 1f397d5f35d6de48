package cose

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifySignatureES256RoundTrip(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	data := []byte("authData || clientDataHash")
	digest, err := Digest(ES256, data)
	require.NoError(t, err)
	sig, err := ecdsa.SignASN1(rand.Reader, priv, digest)
	require.NoError(t, err)

	err = VerifySignature(&priv.PublicKey, ES256, data, sig)
	assert.NoError(t, err)

	err = VerifySignature(&priv.PublicKey, ES256, []byte("tampered"), sig)
	assert.Error(t, err)
}

func TestVerifySignatureEdDSARoundTrip(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	data := []byte("authData || clientDataHash")
	sig := ed25519.Sign(priv, data)

	err = VerifySignature(pub, EdDSA, data, sig)
	assert.NoError(t, err)

	err = VerifySignature(pub, EdDSA, []byte("tampered"), sig)
	assert.Error(t, err)
}

func TestVerifySignatureRS256RoundTrip(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	data := []byte("authData || clientDataHash")
	digest, err := Digest(RS256, data)
	require.NoError(t, err)
	hash, err := Hash(RS256)
	require.NoError(t, err)
	sig, err := rsa.SignPKCS1v15(rand.Reader, priv, hash, digest)
	require.NoError(t, err)

	err = VerifySignature(&priv.PublicKey, RS256, data, sig)
	assert.NoError(t, err)
}

func TestEC2KeyPublicKeyRoundTrip(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	key := &EC2Key{Alg: ES256, Curve: CurveP256, X: priv.PublicKey.X.Bytes(), Y: priv.PublicKey.Y.Bytes()}
	pub, err := key.PublicKey()
	require.NoError(t, err)
	ecPub, ok := pub.(*ecdsa.PublicKey)
	require.True(t, ok)
	assert.Equal(t, 0, ecPub.X.Cmp(priv.PublicKey.X))
	assert.Equal(t, 0, ecPub.Y.Cmp(priv.PublicKey.Y))
}

func TestRSAKeyDefaultsExponent(t *testing.T) {
	key := &RSAKey{Alg: RS256, N: []byte{1, 0, 1}}
	pub, err := key.PublicKey()
	require.NoError(t, err)
	rsaPub, ok := pub.(*rsa.PublicKey)
	require.True(t, ok)
	assert.Equal(t, 65537, rsaPub.E)
}

func TestX509SignatureAlgorithmUnsupported(t *testing.T) {
	_, err := X509SignatureAlgorithm(Algorithm(999))
	assert.Error(t, err)
}
