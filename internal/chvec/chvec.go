// Package chvec implements the choice vector: the relation-wide rule
// that assembles a bucket-address bit string from several attribute
// hashes.
package chvec

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tuannm99/mahfile/internal/bits"
	"github.com/tuannm99/mahfile/internal/hash"
	"github.com/tuannm99/mahfile/internal/tuple"
)

// MaxChVec bounds the composite hash width. Bucket addresses are drawn
// from at most this many bits, so a relation can grow to 2^MaxChVec
// buckets.
const MaxChVec = 32

var (
	ErrBadItem  = errors.New("chvec: malformed choice vector item")
	ErrTooLong  = errors.New("chvec: too many choice vector items")
	ErrAttRange = errors.New("chvec: attribute index out of range")
	ErrBitRange = errors.New("chvec: hash bit out of range")
)

// Item says: this bit of the bucket address derives from bit Bit of
// the hash of attribute Att.
type Item struct {
	Att uint32
	Bit uint32
}

// ChVec is the full choice vector. It is fixed at relation creation
// and never mutated.
type ChVec [MaxChVec]Item

// Parse reads a choice vector in "att,bit:att,bit:..." form. A vector
// shorter than MaxChVec is completed by cycling over the attributes
// and their hash bits, so every relation carries a full vector. An
// empty string yields the pure round-robin default.
func Parse(nattrs int, s string) (ChVec, error) {
	var cv ChVec
	n := 0
	if s != "" {
		for _, item := range strings.Split(s, ":") {
			if n == MaxChVec {
				return cv, ErrTooLong
			}
			av, bv, ok := strings.Cut(item, ",")
			if !ok {
				return cv, fmt.Errorf("%w: %q", ErrBadItem, item)
			}
			att, err := strconv.ParseUint(strings.TrimSpace(av), 10, 32)
			if err != nil {
				return cv, fmt.Errorf("%w: %q", ErrBadItem, item)
			}
			bit, err := strconv.ParseUint(strings.TrimSpace(bv), 10, 32)
			if err != nil {
				return cv, fmt.Errorf("%w: %q", ErrBadItem, item)
			}
			if att >= uint64(nattrs) {
				return cv, fmt.Errorf("%w: attribute %d of %d", ErrAttRange, att, nattrs)
			}
			if bit >= bits.Width {
				return cv, fmt.Errorf("%w: bit %d", ErrBitRange, bit)
			}
			cv[n] = Item{Att: uint32(att), Bit: uint32(bit)}
			n++
		}
	}
	for ; n < MaxChVec; n++ {
		cv[n] = Item{Att: uint32(n % nattrs), Bit: uint32(n / nattrs)}
	}
	return cv, nil
}

// String renders the vector in the same "att,bit:att,bit:..." form
// Parse accepts.
func (cv ChVec) String() string {
	var sb strings.Builder
	for k, item := range cv {
		if k > 0 {
			sb.WriteByte(':')
		}
		fmt.Fprintf(&sb, "%d,%d", item.Att, item.Bit)
	}
	return sb.String()
}

// TupleHash assembles the 32-bit composite hash of the attribute
// values. Bit k of the result is bit cv[k].Bit of the hash of
// attribute cv[k].Att.
func TupleHash(cv ChVec, vals []string) bits.Bits {
	hashes := attHashes(vals)
	var h bits.Bits
	for k, item := range cv {
		if bits.IsSet(hashes[item.Att], int(item.Bit)) {
			h = bits.SetBit(h, k)
		}
	}
	return h
}

// QueryBits builds the two masks a partial-match scan plans with:
// known holds the fixed composite bits drawn from bound attributes,
// unknown flags the composite bits drawn from wildcarded ones.
func QueryBits(cv ChVec, pattern []string) (known, unknown bits.Bits) {
	hashes := make([]bits.Bits, len(pattern))
	hashed := make([]bool, len(pattern))
	for k, item := range cv {
		if pattern[item.Att] == tuple.Wildcard {
			unknown = bits.SetBit(unknown, k)
			continue
		}
		if !hashed[item.Att] {
			hashes[item.Att] = hash.AnyString(pattern[item.Att])
			hashed[item.Att] = true
		}
		if bits.IsSet(hashes[item.Att], int(item.Bit)) {
			known = bits.SetBit(known, k)
		}
	}
	return known, unknown
}

func attHashes(vals []string) []bits.Bits {
	hashes := make([]bits.Bits, len(vals))
	for i, v := range vals {
		hashes[i] = hash.AnyString(v)
	}
	return hashes
}
