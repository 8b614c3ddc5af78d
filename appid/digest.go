package appid

import (
	"crypto"
	_ "crypto/sha256"
	_ "crypto/sha512"
	"fmt"
)

// DigestAlg selects the digest computed over signing certificates
// during collection. The encoder never computes digests itself; it
// only carries the resulting fixed-length byte strings.
type DigestAlg uint8

// Supported digest algorithms. SHA256 is what the platform attestation
// pipeline uses; the others exist for tooling against non-standard
// verifiers.
const (
	SHA256 DigestAlg = 1 + iota
	SHA384
	SHA512
)

// ParseDigestAlg maps a configuration name to a DigestAlg. The empty
// string selects SHA256.
func ParseDigestAlg(name string) (DigestAlg, error) {
	switch name {
	case "", "sha256":
		return SHA256, nil
	case "sha384":
		return SHA384, nil
	case "sha512":
		return SHA512, nil
	}
	return 0, fmt.Errorf("unknown digest algorithm %q", name)
}

// Hash returns the hash function backing the algorithm.
func (alg DigestAlg) Hash() crypto.Hash {
	switch alg {
	case SHA256:
		return crypto.SHA256
	case SHA384:
		return crypto.SHA384
	case SHA512:
		return crypto.SHA512
	}
	panic("Hash called on unknown digest algorithm")
}

// Size returns the digest length in bytes.
func (alg DigestAlg) Size() int { return alg.Hash().Size() }

func (alg DigestAlg) String() string {
	switch alg {
	case SHA256:
		return "sha256"
	case SHA384:
		return "sha384"
	case SHA512:
		return "sha512"
	}
	return fmt.Sprintf("digestalg(%d)", uint8(alg))
}
