// Package der implements the pieces of canonical DER (ITU-T X.690)
// that neither encoding/asn1 nor cryptobyte expose directly: the SET OF
// element ordering rule and the definite-length size cap.
package der

import (
	"bytes"
	"slices"
)

// MaxContentLen is the largest content length representable with the
// four length octets strict readers accept.
const MaxContentLen = 0xFFFFFFFF

// CompareElements orders two complete DER encodings (tag, length and
// content octets) for SET OF purposes: ascending unsigned lexicographic
// byte order, a shorter element that prefixes a longer one first.
// X.690 11.6 states the rule as padding the shorter element with
// trailing zeros; for complete TLVs the two formulations agree, since
// no well-formed TLV is a proper prefix of another element it could
// tie with.
func CompareElements(a, b []byte) int {
	return bytes.Compare(a, b)
}

// SortElements sorts encoded SET OF elements in place into canonical
// order.
func SortElements(elems [][]byte) {
	slices.SortFunc(elems, CompareElements)
}

// Ascending reports whether elems are in strictly ascending canonical
// order. Adjacent equal elements count as a violation: a DER SET may
// not repeat an element.
func Ascending(elems [][]byte) bool {
	for i := 1; i < len(elems); i++ {
		if CompareElements(elems[i-1], elems[i]) >= 0 {
			return false
		}
	}
	return true
}

// FitsLength reports whether a content length is representable by a
// canonical definite-length header.
func FitsLength(n int) bool {
	return n >= 0 && uint64(n) <= MaxContentLen
}

// SetLength returns the total content length of a SET OF holding
// elems, or false on overflow of the definite-length form.
func SetLength(elems [][]byte) (int, bool) {
	var n uint64
	for _, e := range elems {
		n += uint64(len(e))
		if n > MaxContentLen {
			return 0, false
		}
	}
	return int(n), true
}
