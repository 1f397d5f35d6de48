// Package attkind defines AttestationType as a leaf package with no
// dependency on the attestation format validators, so that both the
// per-format packages (packed, tpm, ...) and their aggregator can share
// the same type without an import cycle.
package attkind

// Type describes the trust model a successfully verified attestation
// statement carries, per spec.md's GLOSSARY.
type Type int

const (
	// None means the attestation statement made no claim about
	// authenticator provenance ("fmt": "none").
	None Type = iota
	// Basic means the attestation was signed by a batch key shared across
	// a model of authenticator, certified by a manufacturer root.
	Basic
	// Self means the attestation was signed by the credential's own
	// private key.
	Self
	// AttCA means the attestation was issued by an Attestation CA (e.g.
	// TPM AIK certificates) acting as a privacy CA.
	AttCA
	// AnonCA means the attestation was issued by an anonymization CA
	// (e.g. Apple's anonymous attestation).
	AnonCA
)

func (t Type) String() string {
	switch t {
	case None:
		return "None"
	case Basic:
		return "Basic"
	case Self:
		return "Self"
	case AttCA:
		return "AttCA"
	case AnonCA:
		return "AnonCA"
	default:
		return "Unknown"
	}
}
