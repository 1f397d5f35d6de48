package cose

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"crypto/x509"
	"fmt"
	"math/big"
)

// Curve identifies the elliptic curve backing an EC2 COSE key.
//
// https://www.iana.org/assignments/cose/cose.xhtml#elliptic-curves
type Curve int

const (
	CurveP256 Curve = 1
	CurveP384 Curve = 2
	CurveP521 Curve = 3
)

func (c Curve) ellipticCurve() (elliptic.Curve, error) {
	switch c {
	case CurveP256:
		return elliptic.P256(), nil
	case CurveP384:
		return elliptic.P384(), nil
	case CurveP521:
		return elliptic.P521(), nil
	default:
		return nil, fmt.Errorf("unsupported COSE curve: %d", c)
	}
}

// Key is a decoded credentialPublicKey. Implementations correspond to the
// three key types WebAuthn Level 2 defines: EC2, RSA and OKP.
//
// https://www.w3.org/TR/webauthn-3/#credentialpublickey
type Key interface {
	// Algorithm returns the COSE algorithm this key signs with.
	Algorithm() Algorithm
	// PublicKey returns a stdlib crypto.PublicKey suitable for use with
	// crypto/ecdsa, crypto/rsa, or crypto/ed25519 verification APIs.
	PublicKey() (crypto.PublicKey, error)
}

// EC2Key is an elliptic-curve COSE key (kty=2).
type EC2Key struct {
	Alg   Algorithm
	Curve Curve
	X, Y  []byte
}

func (k *EC2Key) Algorithm() Algorithm { return k.Alg }

func (k *EC2Key) PublicKey() (crypto.PublicKey, error) {
	curve, err := k.Curve.ellipticCurve()
	if err != nil {
		return nil, err
	}
	return &ecdsa.PublicKey{
		Curve: curve,
		X:     new(big.Int).SetBytes(k.X),
		Y:     new(big.Int).SetBytes(k.Y),
	}, nil
}

// RSAKey is an RSA COSE key (kty=3).
type RSAKey struct {
	Alg Algorithm
	N   []byte
	// E is the public exponent. A zero value means the attestation statement
	// omitted it; callers that need a concrete exponent (e.g. TPM pubArea
	// comparison) should apply the default of 65537 themselves, per
	// spec.md §4.3 tpm.
	E int
}

func (k *RSAKey) Algorithm() Algorithm { return k.Alg }

func (k *RSAKey) PublicKey() (crypto.PublicKey, error) {
	e := k.E
	if e == 0 {
		e = 65537
	}
	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(k.N),
		E: e,
	}, nil
}

// OKPKey is an octet key pair COSE key (kty=1), used for Ed25519.
type OKPKey struct {
	Alg   Algorithm
	Curve string // "Ed25519"
	X     []byte
}

func (k *OKPKey) Algorithm() Algorithm { return k.Alg }

func (k *OKPKey) PublicKey() (crypto.PublicKey, error) {
	if k.Curve != "Ed25519" {
		return nil, fmt.Errorf("unsupported OKP curve: %s", k.Curve)
	}
	return ed25519.PublicKey(k.X), nil
}

// Hash returns the hash function associated with alg.
func Hash(alg Algorithm) (crypto.Hash, error) {
	switch alg {
	case ES256, RS256, PS256:
		return crypto.SHA256, nil
	case ES384, RS384, PS384:
		return crypto.SHA384, nil
	case ES512, RS512, PS512:
		return crypto.SHA512, nil
	case EdDSA:
		// Ed25519 hashes internally; callers must not pre-hash.
		return 0, nil
	default:
		return 0, fmt.Errorf("unsupported signing algorithm: %s", alg)
	}
}

// X509SignatureAlgorithm maps a COSE algorithm to the x509.SignatureAlgorithm
// used by (*x509.Certificate).CheckSignature, for validating attestation
// statements signed by a certificate rather than a bare COSE key (tpm,
// android-key, packed-full).
func X509SignatureAlgorithm(alg Algorithm) (x509.SignatureAlgorithm, error) {
	switch alg {
	case ES256:
		return x509.ECDSAWithSHA256, nil
	case ES384:
		return x509.ECDSAWithSHA384, nil
	case ES512:
		return x509.ECDSAWithSHA512, nil
	case RS256:
		return x509.SHA256WithRSA, nil
	case RS384:
		return x509.SHA384WithRSA, nil
	case RS512:
		return x509.SHA512WithRSA, nil
	case PS256:
		return x509.SHA256WithRSAPSS, nil
	case PS384:
		return x509.SHA384WithRSAPSS, nil
	case PS512:
		return x509.SHA512WithRSAPSS, nil
	case EdDSA:
		return x509.PureEd25519, nil
	default:
		return 0, fmt.Errorf("unsupported signing algorithm: %s", alg)
	}
}

// VerifySignature verifies sig over data using pub under the scheme implied
// by alg. This is the core's sole cryptographic primitive for assertion and
// self-attestation signatures; attestation statements bound to an X.509
// certificate instead use (*x509.Certificate).CheckSignature with
// X509SignatureAlgorithm.
func VerifySignature(pub crypto.PublicKey, alg Algorithm, data, sig []byte) error {
	switch alg {
	case ES256, ES384, ES512:
		ecdsaPub, ok := pub.(*ecdsa.PublicKey)
		if !ok {
			return fmt.Errorf("invalid public key type for %s algorithm: %T", alg, pub)
		}
		digest, err := digest(alg, data)
		if err != nil {
			return err
		}
		if !ecdsa.VerifyASN1(ecdsaPub, digest, sig) {
			return fmt.Errorf("invalid %s signature", alg)
		}
		return nil
	case EdDSA:
		edPub, ok := pub.(ed25519.PublicKey)
		if !ok {
			return fmt.Errorf("invalid public key type for EdDSA algorithm: %T", pub)
		}
		if !ed25519.Verify(edPub, data, sig) {
			return fmt.Errorf("invalid EdDSA signature")
		}
		return nil
	case RS256, RS384, RS512:
		rsaPub, ok := pub.(*rsa.PublicKey)
		if !ok {
			return fmt.Errorf("invalid public key type for %s algorithm: %T", alg, pub)
		}
		digest, err := digest(alg, data)
		if err != nil {
			return err
		}
		hash, _ := Hash(alg)
		if err := rsa.VerifyPKCS1v15(rsaPub, hash, digest, sig); err != nil {
			return fmt.Errorf("invalid %s signature: %v", alg, err)
		}
		return nil
	case PS256, PS384, PS512:
		rsaPub, ok := pub.(*rsa.PublicKey)
		if !ok {
			return fmt.Errorf("invalid public key type for %s algorithm: %T", alg, pub)
		}
		digest, err := digest(alg, data)
		if err != nil {
			return err
		}
		hash, _ := Hash(alg)
		if err := rsa.VerifyPSS(rsaPub, hash, digest, sig, nil); err != nil {
			return fmt.Errorf("invalid %s signature: %v", alg, err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported signing algorithm: %s", alg)
	}
}

// Digest hashes data with the hash function implied by alg. Exported for
// attestation format validators (tpm) that need to compute
// H_alg(authData‖clientDataHash) themselves rather than through
// VerifySignature.
func Digest(alg Algorithm, data []byte) ([]byte, error) {
	return digest(alg, data)
}

func digest(alg Algorithm, data []byte) ([]byte, error) {
	hash, err := Hash(alg)
	if err != nil {
		return nil, err
	}
	switch hash {
	case crypto.SHA256:
		sum := sha256.Sum256(data)
		return sum[:], nil
	case crypto.SHA384:
		sum := sha512.Sum384(data)
		return sum[:], nil
	case crypto.SHA512:
		sum := sha512.Sum512(data)
		return sum[:], nil
	default:
		return nil, fmt.Errorf("unsupported hash for algorithm %s", alg)
	}
}

// ConstantTimeEqual compares two byte slices in constant time, used for
// the challenge comparison. The token binding id comparison in hooks.go
// uses bytes.Equal instead.
func ConstantTimeEqual(a, b []byte) bool {
	return len(a) == len(b) && subtle.ConstantTimeCompare(a, b) == 1
}
