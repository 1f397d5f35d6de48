// Package extensions models WebAuthn client and authenticator extension
// outputs as a closed sum type, per spec.md §9's "Extension-output
// polymorphism" design note: unknown extension identifiers are rejected
// rather than silently ignored, and no reflection is used to interpret
// them.
package extensions

import "fmt"

// Kind discriminates the payload shape carried by an Output.
type Kind int

const (
	KindBool Kind = iota
	KindString
	KindBytes
	KindCredProps
)

// CredPropsOutput mirrors the "credProps" client extension output.
//
// https://www.w3.org/TR/webauthn-3/#sctn-authenticator-credential-properties-extension
type CredPropsOutput struct {
	RK bool // resident key
}

// Output is a single decoded extension output value. Exactly one field is
// meaningful, selected by Kind; this is the "tagged sum type" the
// accompanying design note calls for instead of an untyped map[string]any.
type Output struct {
	Kind      Kind
	Bool      bool
	String    string
	Bytes     []byte
	CredProps *CredPropsOutput
}

// Outputs is a keyed map of extension identifier to decoded output, as
// produced by the caller's CBOR/JSON decoder and consumed, never produced,
// by the core.
type Outputs map[string]Output

// Registry is the set of extension identifiers a RelyingParty recognizes.
// Per spec.md §4.1 step 5 and §4.2 step 9, any identifier absent from the
// registry is a registration/authentication failure, not a silent skip.
type Registry struct {
	known map[string]bool
}

// NewRegistry builds a Registry that accepts exactly the given identifiers.
func NewRegistry(ids ...string) *Registry {
	known := make(map[string]bool, len(ids))
	for _, id := range ids {
		known[id] = true
	}
	return &Registry{known: known}
}

// Validate returns an error naming an unrecognized extension identifier in
// outs, or nil if every identifier has a registered decoder. When several
// identifiers are unrecognized, which one is named follows map iteration
// order and is not fixed.
func (r *Registry) Validate(outs Outputs) error {
	for id := range outs {
		if r == nil || !r.known[id] {
			return fmt.Errorf("unregistered authenticator extension output: %q", id)
		}
	}
	return nil
}
