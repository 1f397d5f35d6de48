package webauthn

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-webauthn/core/webauthn/authdata"
	"github.com/go-webauthn/core/webauthn/clientdata"
	"github.com/go-webauthn/core/webauthn/cose"
	"github.com/go-webauthn/core/webauthn/counter"
	"github.com/go-webauthn/core/webauthn/extensions"
	"github.com/go-webauthn/core/webauthn/werrors"
)

func mustAuthValidator(t *testing.T, cfg AuthenticationValidatorConfig) *AuthenticationValidator {
	t.Helper()
	v, err := NewAuthenticationValidator(cfg)
	require.NoError(t, err)
	return v
}

func baseAuthenticationFixture(t *testing.T, rpID, origin string, challenge []byte, signCount uint32) (*AuthenticationData, *Authenticator, *ecdsa.PrivateKey) {
	t.Helper()
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	credKey := &cose.EC2Key{Alg: cose.ES256, Curve: cose.CurveP256, X: priv.PublicKey.X.Bytes(), Y: priv.PublicKey.Y.Bytes()}

	rpIDHash := sha256.Sum256([]byte(rpID))
	rawAuthData := []byte("raw-auth-data-for-authentication")
	rawClientDataJSON := []byte(`{"type":"webauthn.get"}`)
	clientDataHash := sha256.Sum256(rawClientDataJSON)
	signedData := append(append([]byte{}, rawAuthData...), clientDataHash[:]...)
	sig, err := ecdsa.SignASN1(rand.Reader, priv, hashSHA256ForTest(signedData))
	require.NoError(t, err)

	credentialID := []byte("cred-1")
	data := &AuthenticationData{
		RawAuthenticatorData: rawAuthData,
		RawClientDataJSON:    rawClientDataJSON,
		ClientData: clientdata.CollectedClientData{
			Type:      "webauthn.get",
			Challenge: challenge,
			Origin:    origin,
			Raw:       rawClientDataJSON,
		},
		AuthData: authdata.AuthenticatorData{
			RPIDHash:  rpIDHash,
			Flags:     authdata.Flags(1<<0 | 1<<2), // UP, UV
			SignCount: signCount,
		},
		CredentialID: credentialID,
		Signature:    sig,
	}
	authenticator := &Authenticator{CredentialID: credentialID, Key: credKey, SignCount: 0}
	return data, authenticator, priv
}

func TestAuthenticationValidatorHappyPath(t *testing.T) {
	v := mustAuthValidator(t, AuthenticationValidatorConfig{
		ServerProperty: ServerProperty{RPID: "example.com", Origins: []string{"https://example.com"}, Challenge: []byte("challenge-bytes")},
		Extensions:     extensions.NewRegistry(),
	})
	data, authenticator, _ := baseAuthenticationFixture(t, "example.com", "https://example.com", []byte("challenge-bytes"), 5)

	err := v.Validate(data, AuthenticationParameters{}, authenticator)
	require.NoError(t, err)
	assert.Equal(t, uint32(5), authenticator.SignCount)
}

func TestAuthenticationValidatorRejectsBadChallenge(t *testing.T) {
	v := mustAuthValidator(t, AuthenticationValidatorConfig{
		ServerProperty: ServerProperty{RPID: "example.com", Origins: []string{"https://example.com"}, Challenge: []byte("challenge-bytes")},
		Extensions:     extensions.NewRegistry(),
	})
	data, authenticator, _ := baseAuthenticationFixture(t, "example.com", "https://example.com", []byte("wrong-challenge"), 1)

	err := v.Validate(data, AuthenticationParameters{}, authenticator)
	require.Error(t, err)
	assert.True(t, werrors.Is(err, werrors.CodeBadChallenge))
}

func TestAuthenticationValidatorRejectsBadOrigin(t *testing.T) {
	v := mustAuthValidator(t, AuthenticationValidatorConfig{
		ServerProperty: ServerProperty{RPID: "example.com", Origins: []string{"https://example.com"}, Challenge: []byte("challenge-bytes")},
		Extensions:     extensions.NewRegistry(),
	})
	data, authenticator, _ := baseAuthenticationFixture(t, "example.com", "https://evil.example", []byte("challenge-bytes"), 1)

	err := v.Validate(data, AuthenticationParameters{}, authenticator)
	require.Error(t, err)
	assert.True(t, werrors.Is(err, werrors.CodeBadOrigin))
}

func TestAuthenticationValidatorAllowCredentialsMismatch(t *testing.T) {
	v := mustAuthValidator(t, AuthenticationValidatorConfig{
		ServerProperty: ServerProperty{RPID: "example.com", Origins: []string{"https://example.com"}, Challenge: []byte("challenge-bytes")},
		Extensions:     extensions.NewRegistry(),
	})
	data, authenticator, _ := baseAuthenticationFixture(t, "example.com", "https://example.com", []byte("challenge-bytes"), 1)

	err := v.Validate(data, AuthenticationParameters{AllowCredentials: [][]byte{[]byte("other-cred")}}, authenticator)
	require.Error(t, err)
	assert.True(t, werrors.Is(err, werrors.CodeNotAllowedCredentialID))
}

func TestAuthenticationValidatorCrossOriginProhibited(t *testing.T) {
	v := mustAuthValidator(t, AuthenticationValidatorConfig{
		ServerProperty: ServerProperty{RPID: "example.com", Origins: []string{"https://example.com"}, Challenge: []byte("challenge-bytes")},
		Extensions:     extensions.NewRegistry(),
	})
	data, authenticator, _ := baseAuthenticationFixture(t, "example.com", "https://example.com", []byte("challenge-bytes"), 1)
	data.ClientData.CrossOrigin = true

	err := v.Validate(data, AuthenticationParameters{CrossOriginAllowed: false}, authenticator)
	require.Error(t, err)
	assert.True(t, werrors.Is(err, werrors.CodeCrossOrigin))

	err = v.Validate(data, AuthenticationParameters{CrossOriginAllowed: true}, authenticator)
	require.NoError(t, err)
}

func TestAuthenticationValidatorCounterClone(t *testing.T) {
	v := mustAuthValidator(t, AuthenticationValidatorConfig{
		ServerProperty: ServerProperty{RPID: "example.com", Origins: []string{"https://example.com"}, Challenge: []byte("challenge-bytes")},
		Extensions:     extensions.NewRegistry(),
	})
	data, authenticator, _ := baseAuthenticationFixture(t, "example.com", "https://example.com", []byte("challenge-bytes"), 5)
	authenticator.SignCount = 10 // presented (5) <= stored (10): clone signal

	err := v.Validate(data, AuthenticationParameters{}, authenticator)
	require.Error(t, err)
	assert.True(t, werrors.Is(err, werrors.CodeMaliciousCounterValue))
	assert.Equal(t, uint32(10), authenticator.SignCount, "stored counter must not change on rejection")
}

func TestAuthenticationValidatorCounterCloneIgnored(t *testing.T) {
	v := mustAuthValidator(t, AuthenticationValidatorConfig{
		ServerProperty:               ServerProperty{RPID: "example.com", Origins: []string{"https://example.com"}, Challenge: []byte("challenge-bytes")},
		Extensions:                   extensions.NewRegistry(),
		MaliciousCounterValueHandler: counter.IgnoreMaliciousCounter{},
	})
	data, authenticator, _ := baseAuthenticationFixture(t, "example.com", "https://example.com", []byte("challenge-bytes"), 5)
	authenticator.SignCount = 10

	err := v.Validate(data, AuthenticationParameters{}, authenticator)
	require.NoError(t, err)
	assert.Equal(t, uint32(10), authenticator.SignCount)
}

func TestAuthenticationValidatorRejectsAttestedCredentialDataPresent(t *testing.T) {
	v := mustAuthValidator(t, AuthenticationValidatorConfig{
		ServerProperty: ServerProperty{RPID: "example.com", Origins: []string{"https://example.com"}, Challenge: []byte("challenge-bytes")},
		Extensions:     extensions.NewRegistry(),
	})
	data, authenticator, _ := baseAuthenticationFixture(t, "example.com", "https://example.com", []byte("challenge-bytes"), 1)
	data.AuthData.Flags = authdata.Flags(1<<0 | 1<<2 | 1<<6)
	data.AuthData.AttestedCredentialData = &authdata.AttestedCredentialData{Key: authenticator.Key}

	err := v.Validate(data, AuthenticationParameters{}, authenticator)
	require.Error(t, err)
	assert.True(t, werrors.Is(err, werrors.CodeConstraintViolation))
}

func TestAuthenticationValidatorRejectsBadSignature(t *testing.T) {
	v := mustAuthValidator(t, AuthenticationValidatorConfig{
		ServerProperty: ServerProperty{RPID: "example.com", Origins: []string{"https://example.com"}, Challenge: []byte("challenge-bytes")},
		Extensions:     extensions.NewRegistry(),
	})
	data, authenticator, _ := baseAuthenticationFixture(t, "example.com", "https://example.com", []byte("challenge-bytes"), 1)
	data.Signature = []byte("tampered-signature-bytes-that-cannot-verify")

	err := v.Validate(data, AuthenticationParameters{}, authenticator)
	require.Error(t, err)
	assert.True(t, werrors.Is(err, werrors.CodeBadSignature))
}
