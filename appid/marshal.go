package appid

import (
	"fmt"

	"golang.org/x/crypto/cryptobyte"
	"golang.org/x/crypto/cryptobyte/asn1"

	"github.com/aspect-build/attestid/internal/der"
)

// Marshal encodes id into its single canonical DER form. Each set
// element is encoded on its own, the encoded elements are sorted by
// their bytes, and the sorted elements are wrapped in the outer SET OF
// and SEQUENCE headers. Sorting the encoded bytes rather than the
// logical fields is what X.690 requires; the two orders differ as soon
// as names differ in length.
//
// Marshal is a pure function of the logical content: insertion order
// of packages and digests never shows in the output. It fails with
// ErrInvalidInput if id violates a model invariant and with
// ErrEncodingOverflow if a length cannot be represented.
func Marshal(id *AttestationApplicationID) ([]byte, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	pkgElems := make([][]byte, 0, len(id.Packages))
	for _, p := range id.Packages {
		elem, err := encodePackageInfo(p)
		if err != nil {
			return nil, err
		}
		pkgElems = append(pkgElems, elem)
	}
	der.SortElements(pkgElems)
	if _, ok := der.SetLength(pkgElems); !ok {
		return nil, fmt.Errorf("%w: package info set", ErrEncodingOverflow)
	}

	digElems := make([][]byte, 0, len(id.SignatureDigests))
	for _, d := range id.SignatureDigests {
		elem, err := encodeDigest(d)
		if err != nil {
			return nil, err
		}
		digElems = append(digElems, elem)
	}
	der.SortElements(digElems)
	if _, ok := der.SetLength(digElems); !ok {
		return nil, fmt.Errorf("%w: signature digest set", ErrEncodingOverflow)
	}

	var b cryptobyte.Builder
	b.AddASN1(asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1(asn1.SET, func(b *cryptobyte.Builder) {
			for _, elem := range pkgElems {
				b.AddBytes(elem)
			}
		})
		b.AddASN1(asn1.SET, func(b *cryptobyte.Builder) {
			for _, elem := range digElems {
				b.AddBytes(elem)
			}
		})
	})
	out, err := b.Bytes()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncodingOverflow, err)
	}
	return out, nil
}

func encodePackageInfo(p PackageInfo) ([]byte, error) {
	if !der.FitsLength(len(p.Name)) {
		return nil, fmt.Errorf("%w: package name of %d bytes", ErrEncodingOverflow, len(p.Name))
	}
	var b cryptobyte.Builder
	b.AddASN1(asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1OctetString([]byte(p.Name))
		b.AddASN1Int64(p.Version)
	})
	out, err := b.Bytes()
	if err != nil {
		return nil, fmt.Errorf("%w: package %q: %v", ErrEncodingOverflow, p.Name, err)
	}
	return out, nil
}

func encodeDigest(d []byte) ([]byte, error) {
	if !der.FitsLength(len(d)) {
		return nil, fmt.Errorf("%w: digest of %d bytes", ErrEncodingOverflow, len(d))
	}
	var b cryptobyte.Builder
	b.AddASN1OctetString(d)
	out, err := b.Bytes()
	if err != nil {
		return nil, fmt.Errorf("%w: digest: %v", ErrEncodingOverflow, err)
	}
	return out, nil
}
