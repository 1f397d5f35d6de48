// Package clientdata models the decoded client-data JSON object, adapted
// from the teacher package's clientData type but split out so it can be
// shared between the registration and authentication validators without
// pulling in the rest of the root package.
package clientdata

// TokenBindingStatus is the state of TLS token binding as observed by the
// client, per the (now-deprecated, but still spec-mandated) WebAuthn Level
// 2 token binding extension.
//
// https://www.w3.org/TR/webauthn-2/#dictdef-tokenbinding
type TokenBindingStatus string

const (
	TokenBindingPresent   TokenBindingStatus = "present"
	TokenBindingSupported TokenBindingStatus = "supported"
)

// TokenBinding carries the client's token binding status and, when
// present, the token binding ID that must match the server's record.
type TokenBinding struct {
	Status TokenBindingStatus
	ID     []byte
}

// CollectedClientData is the decoded clientDataJSON.
//
// https://www.w3.org/TR/webauthn-3/#dictionary-client-data
type CollectedClientData struct {
	// Type is "webauthn.create" for registration or "webauthn.get" for
	// authentication.
	Type string
	// Challenge is the raw (already base64url-decoded) challenge bytes.
	Challenge []byte
	// Origin is the fully qualified origin the client believes it is
	// operating in.
	Origin string
	// CrossOrigin is true when the credential creation/request happened
	// inside a cross-origin iframe.
	CrossOrigin bool
	// TokenBinding is nil when the client didn't report a token binding
	// status at all.
	TokenBinding *TokenBinding
	// Raw holds the original clientDataJSON bytes, required verbatim for
	// SHA-256(clientDataJSON) in the assertion and attestation signed-data
	// constructions (spec.md §6).
	Raw []byte
}
