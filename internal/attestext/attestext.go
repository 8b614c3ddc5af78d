// Package attestext locates the attestation application id inside an
// Android key-attestation certificate. The surrounding record is
// parsed loosely with encoding/asn1, which copes with the high-number
// context tags keymaster uses; strictness is enforced later by the
// appid decoder on the extracted value.
package attestext

import (
	"crypto/x509"
	"encoding/asn1"
	"errors"
	"fmt"
)

// OIDKeyAttestation identifies the key-attestation extension
// (1.3.6.1.4.1.11129.2.1.17).
var OIDKeyAttestation = asn1.ObjectIdentifier{1, 3, 6, 1, 4, 1, 11129, 2, 1, 17}

// tagAttestationApplicationID is the keymaster authorization tag whose
// value carries the encoded attestation application id.
const tagAttestationApplicationID = 709

var (
	// ErrNoExtension means the certificate carries no key-attestation
	// extension.
	ErrNoExtension = errors.New("no key attestation extension")
	// ErrNoApplicationID means neither authorization list of the
	// attestation record has an application id entry.
	ErrNoApplicationID = errors.New("attestation record has no application id")
)

// FromCertificate returns the DER-encoded attestation application id
// embedded in cert's key-attestation extension.
func FromCertificate(cert *x509.Certificate) ([]byte, error) {
	for _, ext := range cert.Extensions {
		if ext.Id.Equal(OIDKeyAttestation) {
			return FromRecord(ext.Value)
		}
	}
	return nil, ErrNoExtension
}

// FromRecord returns the application id from a raw attestation record
// (the extension value). The record is a SEQUENCE whose seventh and
// eighth fields are the software- and TEE-enforced authorization
// lists; the application id sits in one of them under tag 709, wrapped
// in an OCTET STRING.
func FromRecord(record []byte) ([]byte, error) {
	var seq asn1.RawValue
	rest, err := asn1.Unmarshal(record, &seq)
	if err != nil {
		return nil, fmt.Errorf("parse attestation record: %w", err)
	}
	if len(rest) > 0 {
		return nil, fmt.Errorf("parse attestation record: %d trailing bytes", len(rest))
	}
	if seq.Class != asn1.ClassUniversal || seq.Tag != asn1.TagSequence || !seq.IsCompound {
		return nil, errors.New("attestation record is not a sequence")
	}

	// attestationVersion, attestationSecurityLevel, keymasterVersion,
	// keymasterSecurityLevel, attestationChallenge, uniqueId
	inner := seq.Bytes
	var rv asn1.RawValue
	for i := 0; i < 6; i++ {
		if inner, err = asn1.Unmarshal(inner, &rv); err != nil {
			return nil, fmt.Errorf("skip record field %d: %w", i, err)
		}
	}

	// softwareEnforced, then teeEnforced
	for i := 0; i < 2 && len(inner) > 0; i++ {
		if inner, err = asn1.Unmarshal(inner, &rv); err != nil {
			return nil, fmt.Errorf("parse authorization list: %w", err)
		}
		if rv.Class != asn1.ClassUniversal || rv.Tag != asn1.TagSequence {
			return nil, errors.New("authorization list is not a sequence")
		}
		appID, found, err := findApplicationID(rv.Bytes)
		if err != nil {
			return nil, err
		}
		if found {
			return appID, nil
		}
	}
	return nil, ErrNoApplicationID
}

func findApplicationID(list []byte) ([]byte, bool, error) {
	for len(list) > 0 {
		var rv asn1.RawValue
		rest, err := asn1.Unmarshal(list, &rv)
		if err != nil {
			return nil, false, fmt.Errorf("parse authorization entry: %w", err)
		}
		list = rest
		if rv.Class != asn1.ClassContextSpecific || rv.Tag != tagAttestationApplicationID {
			continue
		}
		// Explicit tagging: the context tag wraps an OCTET STRING whose
		// content is the application id DER.
		var inner asn1.RawValue
		if _, err := asn1.Unmarshal(rv.Bytes, &inner); err != nil {
			return nil, false, fmt.Errorf("parse application id entry: %w", err)
		}
		if inner.Class != asn1.ClassUniversal || inner.Tag != asn1.TagOctetString || inner.IsCompound {
			return nil, false, errors.New("application id entry is not an octet string")
		}
		return inner.Bytes, true, nil
	}
	return nil, false, nil
}
