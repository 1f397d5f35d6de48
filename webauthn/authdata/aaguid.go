package authdata

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// AAGUID is the 16-byte authenticator model identifier embedded in
// attested credential data.
//
// https://www.w3.org/TR/webauthn-3/#aaguid
type AAGUID [16]byte

// String renders the canonical dashed hex form, e.g.
// "ee882879-721c-4913-9775-3dfcce97072a".
func (a AAGUID) String() string {
	s := hex.EncodeToString(a[:])
	return fmt.Sprintf("%s-%s-%s-%s-%s", s[0:8], s[8:12], s[12:16], s[16:20], s[20:32])
}

// IsZero reports whether the AAGUID is all-zero, the conventional value
// used by authenticators (e.g. most U2F devices) that don't have a
// registered model identifier.
func (a AAGUID) IsZero() bool {
	return a == AAGUID{}
}

// MarshalJSON renders the dashed string form, matching the FIDO Metadata
// Service's JSON encoding of aaguid fields.
func (a AAGUID) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON parses the dashed string form.
func (a *AAGUID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseAAGUID(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAAGUID parses the dashed or undashed hex string form of an AAGUID.
func ParseAAGUID(s string) (AAGUID, error) {
	clean := strings.ReplaceAll(s, "-", "")
	b, err := hex.DecodeString(clean)
	if err != nil {
		return AAGUID{}, fmt.Errorf("invalid aaguid %q: %v", s, err)
	}
	if len(b) != 16 {
		return AAGUID{}, fmt.Errorf("invalid aaguid %q: expected 16 bytes, got %d", s, len(b))
	}
	var a AAGUID
	copy(a[:], b)
	return a, nil
}
