package appid

import (
	"bytes"
	"fmt"

	"golang.org/x/crypto/cryptobyte"
	"golang.org/x/crypto/cryptobyte/asn1"

	"github.com/aspect-build/attestid/internal/der"
)

// Unmarshal decodes the canonical DER form produced by Marshal back
// into the logical aggregate. It accepts exactly one encoding per
// logical value: BER liberties (indefinite or non-minimal lengths,
// padded integers, constructed strings) fail with ErrMalformed, and
// well-formed DER whose set elements are out of ascending order or
// repeated fails with ErrNonCanonical. The returned aggregate does not
// alias data.
func Unmarshal(data []byte) (*AttestationApplicationID, error) {
	input := cryptobyte.String(data)
	var body cryptobyte.String
	if !input.ReadASN1(&body, asn1.SEQUENCE) {
		return nil, fmt.Errorf("%w: not a DER sequence", ErrMalformed)
	}
	if !input.Empty() {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrMalformed, len(input))
	}

	id := &AttestationApplicationID{}

	var pkgSet cryptobyte.String
	if !body.ReadASN1(&pkgSet, asn1.SET) {
		return nil, fmt.Errorf("%w: missing package info set", ErrMalformed)
	}
	var prev cryptobyte.String
	for !pkgSet.Empty() {
		var elem cryptobyte.String
		if !pkgSet.ReadASN1Element(&elem, asn1.SEQUENCE) {
			return nil, fmt.Errorf("%w: bad package info element", ErrMalformed)
		}
		if prev != nil && der.CompareElements(prev, elem) >= 0 {
			return nil, fmt.Errorf("%w: package info set", ErrNonCanonical)
		}
		prev = elem
		pkg, err := parsePackageInfo(elem)
		if err != nil {
			return nil, err
		}
		id.Packages = append(id.Packages, pkg)
	}

	var digSet cryptobyte.String
	if !body.ReadASN1(&digSet, asn1.SET) {
		return nil, fmt.Errorf("%w: missing signature digest set", ErrMalformed)
	}
	if !body.Empty() {
		return nil, fmt.Errorf("%w: %d trailing bytes in sequence", ErrMalformed, len(body))
	}
	prev = nil
	for !digSet.Empty() {
		var elem cryptobyte.String
		if !digSet.ReadASN1Element(&elem, asn1.OCTET_STRING) {
			return nil, fmt.Errorf("%w: bad signature digest element", ErrMalformed)
		}
		if prev != nil && der.CompareElements(prev, elem) >= 0 {
			return nil, fmt.Errorf("%w: signature digest set", ErrNonCanonical)
		}
		prev = elem
		var digest cryptobyte.String
		if !elem.ReadASN1(&digest, asn1.OCTET_STRING) {
			return nil, fmt.Errorf("%w: bad signature digest", ErrMalformed)
		}
		id.SignatureDigests = append(id.SignatureDigests, bytes.Clone(digest))
	}

	// The bytes can satisfy DER and canonical order yet still describe
	// something no collector produces, e.g. two records for one name.
	if err := id.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return id, nil
}

func parsePackageInfo(elem cryptobyte.String) (PackageInfo, error) {
	var body cryptobyte.String
	if !elem.ReadASN1(&body, asn1.SEQUENCE) {
		return PackageInfo{}, fmt.Errorf("%w: bad package info", ErrMalformed)
	}
	var name cryptobyte.String
	if !body.ReadASN1(&name, asn1.OCTET_STRING) {
		return PackageInfo{}, fmt.Errorf("%w: bad package name", ErrMalformed)
	}
	var version int64
	if !body.ReadASN1Integer(&version) {
		return PackageInfo{}, fmt.Errorf("%w: bad package version", ErrMalformed)
	}
	if !body.Empty() {
		return PackageInfo{}, fmt.Errorf("%w: %d trailing bytes in package info", ErrMalformed, len(body))
	}
	return PackageInfo{Name: string(name), Version: version}, nil
}
