package authdata

import "strings"

// Flags represents the single-byte flags field of authenticator data,
// adapted from the teacher package's bitmask representation.
//
// https://www.w3.org/TR/webauthn-3/#authdata-flags
type Flags byte

// UserPresent identifies if the authenticator performed a successful user
// presence test.
//
// https://www.w3.org/TR/webauthn-3/#concept-user-present
func (f Flags) UserPresent() bool { return byte(f)&(1<<0) != 0 }

// UserVerified identifies if the authenticator performed additional
// authorization of the event, such as a PIN or biometric challenge.
//
// https://www.w3.org/TR/webauthn-3/#concept-user-verified
func (f Flags) UserVerified() bool { return byte(f)&(1<<2) != 0 }

// BackupEligible identifies if the credential can be backed up to
// external/synced storage.
//
// https://www.w3.org/TR/webauthn-3/#backup-eligible
func (f Flags) BackupEligible() bool { return byte(f)&(1<<3) != 0 }

// BackedUp identifies if the credential has been synced to external
// storage.
//
// https://www.w3.org/TR/webauthn-3/#backed-up
func (f Flags) BackedUp() bool { return byte(f)&(1<<4) != 0 }

// AttestedCredentialDataIncluded identifies if authenticator data carries
// an attestedCredentialData section.
//
// https://www.w3.org/TR/webauthn-3/#attested-credential-data
func (f Flags) AttestedCredentialDataIncluded() bool { return byte(f)&(1<<6) != 0 }

// ExtensionDataIncluded identifies if authenticator data carries an
// extensions section.
//
// https://www.w3.org/TR/webauthn-3/#authdata-extensions
func (f Flags) ExtensionDataIncluded() bool { return byte(f)&(1<<7) != 0 }

// String returns a human readable representation of the set flags.
func (f Flags) String() string {
	var vals []string
	if f.UserPresent() {
		vals = append(vals, "UP")
	}
	if f.UserVerified() {
		vals = append(vals, "UV")
	}
	if f.BackupEligible() {
		vals = append(vals, "BE")
	}
	if f.BackedUp() {
		vals = append(vals, "BS")
	}
	if f.AttestedCredentialDataIncluded() {
		vals = append(vals, "AT")
	}
	if f.ExtensionDataIncluded() {
		vals = append(vals, "ED")
	}
	if len(vals) == 0 {
		return "Flags()"
	}
	return "Flags(" + strings.Join(vals, "|") + ")"
}
