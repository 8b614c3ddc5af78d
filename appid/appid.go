// Package appid models, collects and canonically DER-encodes the
// caller identity that hardware key attestation embeds in a
// certificate extension: the set of installed packages sharing a UID
// and the digests of their signing certificates.
//
// The schema is fixed for interoperability with remote verifiers:
//
//	AttestationApplicationId ::= SEQUENCE {
//	    packageInfoRecords   SET OF AttestationPackageInfo,
//	    signatureDigests     SET OF OCTET STRING
//	}
//	AttestationPackageInfo ::= SEQUENCE {
//	    packageName  OCTET STRING,
//	    version      INTEGER
//	}
//
// Encoding is deterministic: SET OF elements are sorted by their
// encoded bytes, so two aggregates with the same logical content
// produce byte-identical output no matter how they were assembled.
// Decoding is strict and rejects anything but that one form.
package appid

import "fmt"

// PackageInfo is one installed package sharing the attested UID.
// The name is the package identifier's raw bytes, typically a
// reverse-DNS string.
type PackageInfo struct {
	Name    string
	Version int64
}

// AttestationApplicationID is the identity aggregate for one
// attestation request: the packages registered under the UID and the
// distinct signing-certificate digests observed across them. Both
// collections are logical sets; element order carries no meaning and
// the encoder does not preserve it.
//
// Aggregates are built fresh per request, encoded once and discarded.
// They are never persisted.
type AttestationApplicationID struct {
	Packages         []PackageInfo
	SignatureDigests [][]byte
}

// Validate checks the model invariants an aggregate must satisfy
// before encoding: at least one package, pairwise-distinct package
// names, and pairwise-distinct digests of one uniform length. A
// violation is reported as ErrInvalidInput.
func (id *AttestationApplicationID) Validate() error {
	if len(id.Packages) == 0 {
		return fmt.Errorf("%w: empty package set", ErrInvalidInput)
	}
	names := make(map[string]struct{}, len(id.Packages))
	for _, p := range id.Packages {
		if _, dup := names[p.Name]; dup {
			return fmt.Errorf("%w: duplicate package name %q", ErrInvalidInput, p.Name)
		}
		names[p.Name] = struct{}{}
	}
	if len(id.SignatureDigests) > 0 {
		size := len(id.SignatureDigests[0])
		digests := make(map[string]struct{}, len(id.SignatureDigests))
		for _, d := range id.SignatureDigests {
			if len(d) != size {
				return fmt.Errorf("%w: digest lengths %d and %d mixed", ErrInvalidInput, size, len(d))
			}
			if _, dup := digests[string(d)]; dup {
				return fmt.Errorf("%w: duplicate signature digest", ErrInvalidInput)
			}
			digests[string(d)] = struct{}{}
		}
	}
	return nil
}

// Equal reports whether two valid aggregates describe the same logical
// identity: the same package set and the same digest set, regardless
// of element order. Call Validate first; duplicate entries would make
// the set comparison meaningless.
func (id *AttestationApplicationID) Equal(other *AttestationApplicationID) bool {
	if id == nil || other == nil {
		return id == other
	}
	if len(id.Packages) != len(other.Packages) ||
		len(id.SignatureDigests) != len(other.SignatureDigests) {
		return false
	}
	versions := make(map[string]int64, len(id.Packages))
	for _, p := range id.Packages {
		versions[p.Name] = p.Version
	}
	for _, p := range other.Packages {
		v, ok := versions[p.Name]
		if !ok || v != p.Version {
			return false
		}
	}
	digests := make(map[string]struct{}, len(id.SignatureDigests))
	for _, d := range id.SignatureDigests {
		digests[string(d)] = struct{}{}
	}
	for _, d := range other.SignatureDigests {
		if _, ok := digests[string(d)]; !ok {
			return false
		}
	}
	return true
}
