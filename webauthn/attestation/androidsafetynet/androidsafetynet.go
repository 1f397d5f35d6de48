// Package androidsafetynet implements the "android-safetynet" attestation
// statement format: a JWS produced by Google Play's (now deprecated but
// still WebAuthn Level 2-specified) SafetyNet attestation API.
//
// https://www.w3.org/TR/webauthn-3/#sctn-android-safetynet-attestation
package androidsafetynet

import (
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/go-webauthn/core/webauthn/attestation/attkind"
	"github.com/go-webauthn/core/webauthn/werrors"
)

// Statement is the decoded "android-safetynet" attStmt: a raw compact JWS.
type Statement struct {
	Response []byte
}

// forwardSkewCap is the fixed upper bound on how far timestampMs may sit in
// the future relative to Now, per spec.md §4.3 "android-safetynet". Unlike
// the backward/age bound, this is never relaxed by Options.MaxSkew — a
// larger configured skew only widens how old a response may be accepted,
// not how far its clock may run ahead.
const forwardSkewCap = time.Minute

// claims mirrors the subset of the SafetyNet attestation JWS payload the
// ceremony checks.
type claims struct {
	Nonce           string `json:"nonce"`
	TimestampMs     int64  `json:"timestampMs"`
	CtsProfileMatch bool   `json:"ctsProfileMatch"`
	jwt.RegisteredClaims
}

// Options bounds the acceptable clock skew between the authenticator's
// reported timestampMs and Now. Per spec.md §4.3 "android-safetynet", the
// forward bound (timestampMs ahead of Now) is fixed at 60s and is not
// affected by MaxSkew; MaxSkew only widens how old (backward/age) a
// response may be accepted.
type Options struct {
	Now              func() time.Time
	MaxSkew          time.Duration // backward/age bound; default 1 minute
	ExpectedHostname string        // default "attest.android.com"
	// Roots, when set, pins the trust anchors the leaf certificate's chain
	// must verify against instead of the host's system root store. Tests
	// and deployments that don't want to depend on the ambient trust store
	// should set this explicitly.
	Roots *x509.CertPool
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

func (o Options) maxSkew() time.Duration {
	if o.MaxSkew == 0 {
		return time.Minute
	}
	return o.MaxSkew
}

func (o Options) expectedHostname() string {
	if o.ExpectedHostname == "" {
		return "attest.android.com"
	}
	return o.ExpectedHostname
}

// Verify implements spec.md §4.3 "android-safetynet".
func Verify(stmt *Statement, rawAuthData []byte, clientDataHash [32]byte, opts Options) (attkind.Type, error) {
	if stmt == nil || len(stmt.Response) == 0 {
		return 0, werrors.New(werrors.CodeBadAttestationStatement, fmt.Errorf("android-safetynet: missing response"))
	}

	var leaf *x509.Certificate
	parsed := &claims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{"RS256"}))
	_, err := parser.ParseWithClaims(string(stmt.Response), parsed, func(tok *jwt.Token) (interface{}, error) {
		chain, err := certChainFromHeader(tok)
		if err != nil {
			return nil, err
		}
		if err := verifyChain(chain, opts.expectedHostname(), opts.Roots); err != nil {
			return nil, err
		}
		leaf = chain[0]
		return leaf.PublicKey, nil
	})
	if err != nil {
		return 0, werrors.New(werrors.CodeBadSignature, fmt.Errorf("android-safetynet: JWS verification failed: %w", err))
	}
	if leaf == nil {
		return 0, werrors.New(werrors.CodeCertificate, fmt.Errorf("android-safetynet: no leaf certificate extracted from JWS header"))
	}

	nonceInput := append(append([]byte{}, rawAuthData...), clientDataHash[:]...)
	wantNonce := sha256.Sum256(nonceInput)
	gotNonce, err := decodeNonce(parsed.Nonce)
	if err != nil {
		return 0, werrors.New(werrors.CodeBadAttestationStatement, err)
	}
	if len(gotNonce) != len(wantNonce) || string(gotNonce) != string(wantNonce[:]) {
		return 0, werrors.New(werrors.CodeBadAttestationStatement, fmt.Errorf("android-safetynet: nonce does not match sha256(authData || clientDataHash)"))
	}

	if !parsed.CtsProfileMatch {
		return 0, werrors.New(werrors.CodeBadAttestationStatement, fmt.Errorf("android-safetynet: ctsProfileMatch is false"))
	}

	issued := time.UnixMilli(parsed.TimestampMs)
	skew := opts.now().Sub(issued)
	switch {
	case skew < 0 && -skew > forwardSkewCap:
		return 0, werrors.New(werrors.CodeBadAttestationStatement, fmt.Errorf("android-safetynet: timestampMs %s is more than %s ahead of now", issued, forwardSkewCap))
	case skew > opts.maxSkew():
		return 0, werrors.New(werrors.CodeBadAttestationStatement, fmt.Errorf("android-safetynet: timestampMs %s is more than %s old", issued, opts.maxSkew()))
	}

	return attkind.Basic, nil
}

func certChainFromHeader(tok *jwt.Token) ([]*x509.Certificate, error) {
	raw, ok := tok.Header["x5c"].([]interface{})
	if !ok || len(raw) == 0 {
		return nil, fmt.Errorf("android-safetynet: JWS header missing x5c")
	}
	chain := make([]*x509.Certificate, 0, len(raw))
	for _, entry := range raw {
		s, ok := entry.(string)
		if !ok {
			return nil, fmt.Errorf("android-safetynet: x5c entry is not a string")
		}
		der, err := base64StdOrURL(s)
		if err != nil {
			return nil, fmt.Errorf("android-safetynet: decoding x5c entry: %w", err)
		}
		cert, err := x509.ParseCertificate(der)
		if err != nil {
			return nil, fmt.Errorf("android-safetynet: parsing x5c entry: %w", err)
		}
		chain = append(chain, cert)
	}
	return chain, nil
}

// decodeNonce decodes the "nonce" claim, which Google's SafetyNet
// attestation encodes as standard base64 of the raw nonce bytes.
func decodeNonce(nonce string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(nonce)
	if err != nil {
		return nil, fmt.Errorf("android-safetynet: decoding nonce claim: %w", err)
	}
	return b, nil
}

func base64StdOrURL(s string) ([]byte, error) {
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(s)
}

func verifyChain(chain []*x509.Certificate, expectedHostname string, roots *x509.CertPool) error {
	if len(chain) == 0 {
		return fmt.Errorf("android-safetynet: empty certificate chain")
	}
	if err := chain[0].VerifyHostname(expectedHostname); err != nil {
		return fmt.Errorf("android-safetynet: leaf certificate hostname check: %w", err)
	}
	intermediates := x509.NewCertPool()
	for _, c := range chain[1:] {
		intermediates.AddCert(c)
	}
	_, err := chain[0].Verify(x509.VerifyOptions{DNSName: expectedHostname, Intermediates: intermediates, Roots: roots})
	return err
}
