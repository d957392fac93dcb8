// Package hash provides the uniform 32-bit byte-string hash that
// composite bucket addresses are assembled from.
package hash

import (
	"hash/fnv"

	"github.com/tuannm99/mahfile/internal/bits"
)

// Any hashes an arbitrary byte string to a uniform 32-bit value
// (FNV-1a). Every bit of the result is an independent sample, which is
// what the choice-vector composition relies on.
func Any(v []byte) bits.Bits {
	h := fnv.New32a()
	_, _ = h.Write(v)
	return bits.Bits(h.Sum32())
}

// AnyString is Any over the bytes of s.
func AnyString(s string) bits.Bits {
	return Any([]byte(s))
}
