// Package tuple implements the tuple wire form: attribute values
// joined by commas, terminated on a page by a single NUL byte.
package tuple

import (
	"errors"
	"fmt"
	"strings"
)

// Wildcard is the query pattern field that matches any value.
const Wildcard = "?"

var (
	ErrFieldCount = errors.New("tuple: wrong number of fields")
	ErrBadField   = errors.New("tuple: empty field or embedded NUL")
)

// A Tuple is one record in serialized form. The NUL terminator is not
// part of the Tuple value; EncodedLen accounts for it.
type Tuple string

// Parse validates that s holds exactly nattrs fields, each non-empty
// with no embedded NUL byte.
func Parse(nattrs int, s string) (Tuple, error) {
	vals := strings.Split(s, ",")
	if len(vals) != nattrs {
		return "", fmt.Errorf("%w: got %d, want %d", ErrFieldCount, len(vals), nattrs)
	}
	for _, v := range vals {
		if v == "" || strings.ContainsRune(v, 0) {
			return "", fmt.Errorf("%w: %q", ErrBadField, v)
		}
	}
	return Tuple(s), nil
}

// ParsePattern validates a query pattern: like Parse, but a field may
// also be the wildcard.
func ParsePattern(nattrs int, s string) ([]string, error) {
	vals := strings.Split(s, ",")
	if len(vals) != nattrs {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrFieldCount, len(vals), nattrs)
	}
	for _, v := range vals {
		if v == Wildcard {
			continue
		}
		if v == "" || strings.ContainsRune(v, 0) {
			return nil, fmt.Errorf("%w: %q", ErrBadField, v)
		}
	}
	return vals, nil
}

// Join builds a tuple from attribute values.
func Join(vals []string) Tuple {
	return Tuple(strings.Join(vals, ","))
}

// Vals splits the tuple into its attribute values.
func (t Tuple) Vals() []string {
	return strings.Split(string(t), ",")
}

// EncodedLen is the on-page footprint: the serialized bytes plus the
// NUL terminator.
func (t Tuple) EncodedLen() int {
	return len(t) + 1
}

// Match reports whether t agrees with pattern on every non-wildcard
// attribute. The pattern must have one entry per attribute.
func (t Tuple) Match(pattern []string) bool {
	vals := t.Vals()
	if len(vals) != len(pattern) {
		return false
	}
	for i, p := range pattern {
		if p == Wildcard {
			continue
		}
		if vals[i] != p {
			return false
		}
	}
	return true
}
