// Package none implements the trivial "none" attestation format.
//
// https://www.w3.org/TR/webauthn-3/#sctn-none-attestation
package none

import (
	"fmt"

	"github.com/go-webauthn/core/webauthn/attestation/attkind"
	"github.com/go-webauthn/core/webauthn/werrors"
)

// Statement is the (empty) "none" attStmt. NonEmpty is set by the caller
// when the original attStmt CBOR map (decoded elsewhere, outside the
// core's scope) carried any keys at all — "none" attestations MUST NOT.
type Statement struct {
	NonEmpty bool
}

// Verify implements spec.md §4.3 "none".
func Verify(stmt *Statement) (attkind.Type, error) {
	if stmt != nil && stmt.NonEmpty {
		return 0, werrors.New(werrors.CodeBadAttestationStatement, fmt.Errorf(`"none" attestation statement must be empty`))
	}
	return attkind.None, nil
}
